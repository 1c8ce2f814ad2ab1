package dto

import (
	"fmt"
	"mealreminder/internal/domain/entity"
)

// ReminderResponse is the DTO for sending reminder information to the client.
type ReminderResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Time    string `json:"time"`
	Enabled bool   `json:"enabled"`
	Pending bool   `json:"pending"` // true while the reminder only exists locally
}

// ToReminderResponse converts an entity.Reminder to a ReminderResponse DTO.
func ToReminderResponse(r entity.Reminder) ReminderResponse {
	return ReminderResponse{
		ID:      r.ID.String(),
		Name:    r.Name,
		Time:    r.Time.String(),
		Enabled: r.Enabled,
		Pending: r.ID.IsLocal(),
	}
}

// ToReminderResponseList converts a slice of entity.Reminder to a slice of ReminderResponse DTOs.
func ToReminderResponseList(reminders []entity.Reminder) []ReminderResponse {
	list := make([]ReminderResponse, len(reminders))
	for i, r := range reminders {
		list[i] = ToReminderResponse(r)
	}
	return list
}

// ReminderListResponse is the working set together with the session state.
type ReminderListResponse struct {
	State     string             `json:"state"`
	Reminders []ReminderResponse `json:"reminders"`
}

// CreateReminderRequest is the DTO for adding a reminder to the working set.
type CreateReminderRequest struct {
	Name string `json:"name"`
	Time string `json:"time"` // HH:MM
}

// EditReminderRequest is the DTO for patching a reminder. Omitted fields are left alone.
type EditReminderRequest struct {
	Name    *string `json:"name,omitempty"`
	Time    *string `json:"time,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`
}

// ToPatch parses the request into an entity.ReminderPatch.
func (r EditReminderRequest) ToPatch() (entity.ReminderPatch, error) {
	patch := entity.ReminderPatch{Name: r.Name, Enabled: r.Enabled}
	if r.Time != nil {
		t, err := entity.ParseTimeOfDay(*r.Time)
		if err != nil {
			return entity.ReminderPatch{}, err
		}
		patch.Time = &t
	}
	return patch, nil
}

// SchedulerFailure records one trigger that could not be scheduled.
type SchedulerFailure struct {
	ReminderID string `json:"reminder_id"`
	Error      string `json:"error"`
}

// CommitResult summarizes a commit. Success means the store accepted the set.
type CommitResult struct {
	Success            bool               `json:"success"`
	Saved              int                `json:"saved"`
	Attempted          int                `json:"attempted"`
	ScheduledCount     int                `json:"scheduled_count"`
	Cancelled          int                `json:"cancelled"`
	PermissionRequired bool               `json:"permission_required"`
	Failures           []SchedulerFailure `json:"failures,omitempty"`
	Reminders          []ReminderResponse `json:"reminders"`
}

// Summary renders the aggregate scheduling outcome, e.g. "2 of 3 reminders scheduled".
func (r *CommitResult) Summary() string {
	if r.PermissionRequired {
		return fmt.Sprintf("%d reminders saved; notifications need permission", r.Saved)
	}
	return fmt.Sprintf("%d of %d reminders scheduled", r.ScheduledCount, r.Attempted)
}
