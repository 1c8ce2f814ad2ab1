package dto

// UpdatePermissionRequest is the DTO for reporting the device notification permission.
type UpdatePermissionRequest struct {
	Granted bool `json:"granted"`
}

// UserResponse is the DTO for returning a user session.
type UserResponse struct {
	UserID               string `json:"user_id"`
	NotificationsAllowed bool   `json:"notifications_allowed"`
}
