package handler

import (
	"errors"
	"fmt"
	"net/http"

	"mealreminder/internal/application/dto"
	"mealreminder/internal/application/service"
	"mealreminder/internal/domain/entity"
	appErrors "mealreminder/internal/pkg/errors"
	"mealreminder/internal/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ReminderHandler serves the reminder editing API of one device session per user.
type ReminderHandler struct {
	reminderService service.ReminderService
	userService     service.UserService
	log             logger.Logger
}

// NewReminderHandler creates a new ReminderHandler.
func NewReminderHandler(
	reminderService service.ReminderService,
	userService service.UserService,
	log logger.Logger,
) *ReminderHandler {
	return &ReminderHandler{
		reminderService: reminderService,
		userService:     userService,
		log:             log,
	}
}

// Load handles POST /users/:userID/reminders/load.
func (h *ReminderHandler) Load(c echo.Context) error {
	userID := c.Param("userID")
	if _, err := h.reminderService.Load(c.Request().Context(), userID); err != nil {
		return respondError(c, err)
	}
	return h.List(c)
}

// List handles GET /users/:userID/reminders.
func (h *ReminderHandler) List(c echo.Context) error {
	list, err := h.reminderService.List(c.Param("userID"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Create handles POST /users/:userID/reminders.
func (h *ReminderHandler) Create(c echo.Context) error {
	var req dto.CreateReminderRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: %v", appErrors.ErrValidation, err))
	}
	created, err := h.reminderService.Add(c.Param("userID"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// Update handles PATCH /users/:userID/reminders/:id.
func (h *ReminderHandler) Update(c echo.Context) error {
	id, err := entity.ParseReminderID(c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	var req dto.EditReminderRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: %v", appErrors.ErrValidation, err))
	}
	if err := h.reminderService.Edit(c.Param("userID"), id, req); err != nil {
		return respondError(c, err)
	}
	return h.List(c)
}

// Toggle handles POST /users/:userID/reminders/:id/toggle.
func (h *ReminderHandler) Toggle(c echo.Context) error {
	id, err := entity.ParseReminderID(c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if err := h.reminderService.Toggle(c.Param("userID"), id); err != nil {
		return respondError(c, err)
	}
	return h.List(c)
}

// Delete handles DELETE /users/:userID/reminders/:id.
func (h *ReminderHandler) Delete(c echo.Context) error {
	id, err := entity.ParseReminderID(c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if err := h.reminderService.Remove(c.Param("userID"), id); err != nil {
		return respondError(c, err)
	}
	return h.List(c)
}

// Commit handles POST /users/:userID/reminders/commit. A saved set whose
// triggers need notification permission is answered with 412 and the result.
func (h *ReminderHandler) Commit(c echo.Context) error {
	userID := c.Param("userID")
	result, err := h.reminderService.Commit(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, appErrors.ErrPermissionDenied) && result != nil {
			return c.JSON(http.StatusPreconditionFailed, result)
		}
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// UpdatePermission handles PUT /users/:userID/permission.
func (h *ReminderHandler) UpdatePermission(c echo.Context) error {
	var req dto.UpdatePermissionRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: %v", appErrors.ErrValidation, err))
	}
	user, err := h.userService.SetNotificationPermission(c.Request().Context(), c.Param("userID"), req.Granted)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponse{
		UserID:               user.ID,
		NotificationsAllowed: user.NotificationsAllowed,
	})
}

// Logout handles DELETE /users/:userID/session.
func (h *ReminderHandler) Logout(c echo.Context) error {
	if err := h.reminderService.Logout(c.Request().Context(), c.Param("userID")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
