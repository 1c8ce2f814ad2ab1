package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mealreminder/internal/application/dto"
	"mealreminder/internal/application/service"
	"mealreminder/internal/domain/entity"
	appErrors "mealreminder/internal/pkg/errors"
	"mealreminder/internal/pkg/logger"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "meal-reminder"
	serverVersion = "1.0.0"
)

// Server is the MCP server exposing the reminder session operations.
type Server struct {
	mcpServer *server.MCPServer
	reminders service.ReminderService
	users     service.UserService
	log       logger.Logger
}

// NewServer creates a new reminder MCP server backed by the given services.
func NewServer(reminders service.ReminderService, users service.UserService, log logger.Logger) *Server {
	s := &Server{
		reminders: reminders,
		users:     users,
		log:       log,
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func userIDOption() mcp.ToolOption {
	return mcp.WithString("user_id", mcp.Required(), mcp.Description("Account id of the signed-in user"))
}

func reminderIDOption() mcp.ToolOption {
	return mcp.WithString("id", mcp.Required(), mcp.Description("Reminder id as returned by list_reminders (local:<token> or remote:<token>)"))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("load_reminders",
			mcp.WithDescription("Replace the working set with the user's saved reminders, sorted by time of day"),
			userIDOption(),
		),
		s.handleLoad,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_reminders",
			mcp.WithDescription("Show the working set, including unsaved edits, and the session state"),
			userIDOption(),
		),
		s.handleList,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("add_reminder",
			mcp.WithDescription("Add an enabled daily reminder to the working set. Saved on commit_reminders"),
			userIDOption(),
			mcp.WithString("name", mcp.Required(), mcp.Description("Reminder name, e.g. Breakfast")),
			mcp.WithString("time", mcp.Required(), mcp.Description("Time of day as HH:MM (24h)")),
		),
		s.handleAdd,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("edit_reminder",
			mcp.WithDescription("Change a reminder's name, time or enabled flag. Omitted fields are kept"),
			userIDOption(),
			reminderIDOption(),
			mcp.WithString("name", mcp.Description("New name")),
			mcp.WithString("time", mcp.Description("New time of day as HH:MM")),
			mcp.WithBoolean("enabled", mcp.Description("Whether the reminder fires")),
		),
		s.handleEdit,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("toggle_reminder",
			mcp.WithDescription("Flip a reminder between enabled and disabled"),
			userIDOption(),
			reminderIDOption(),
		),
		s.handleToggle,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("remove_reminder",
			mcp.WithDescription("Remove a reminder from the working set. Deleted from storage on commit_reminders"),
			userIDOption(),
			reminderIDOption(),
		),
		s.handleRemove,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("commit_reminders",
			mcp.WithDescription("Save the working set and reschedule the user's daily notifications"),
			userIDOption(),
		),
		s.handleCommit,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set_notification_permission",
			mcp.WithDescription("Record whether the user allowed notifications"),
			userIDOption(),
			mcp.WithBoolean("granted", mcp.Required(), mcp.Description("true to allow notifications")),
		),
		s.handleSetPermission,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("logout",
			mcp.WithDescription("End the user's session and cancel their scheduled notifications"),
			userIDOption(),
		),
		s.handleLogout,
	)
}

func (s *Server) handleLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := req.GetString("user_id", "")
	if _, err := s.reminders.Load(ctx, userID); err != nil {
		return toolError("failed to load reminders", err), nil
	}
	return s.listResult(userID)
}

func (s *Server) handleList(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.listResult(req.GetString("user_id", ""))
}

func (s *Server) handleAdd(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	created, err := s.reminders.Add(req.GetString("user_id", ""), dto.CreateReminderRequest{
		Name: req.GetString("name", ""),
		Time: req.GetString("time", ""),
	})
	if err != nil {
		return toolError("failed to add reminder", err), nil
	}
	return jsonResult(created), nil
}

func (s *Server) handleEdit(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := req.GetString("user_id", "")
	id, err := entity.ParseReminderID(req.GetString("id", ""))
	if err != nil {
		return toolError("invalid id", err), nil
	}

	var edit dto.EditReminderRequest
	args := req.GetArguments()
	if _, ok := args["name"]; ok {
		name := req.GetString("name", "")
		edit.Name = &name
	}
	if _, ok := args["time"]; ok {
		t := req.GetString("time", "")
		edit.Time = &t
	}
	if _, ok := args["enabled"]; ok {
		enabled := req.GetBool("enabled", true)
		edit.Enabled = &enabled
	}

	if err := s.reminders.Edit(userID, id, edit); err != nil {
		return toolError("failed to edit reminder", err), nil
	}
	return s.listResult(userID)
}

func (s *Server) handleToggle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := req.GetString("user_id", "")
	id, err := entity.ParseReminderID(req.GetString("id", ""))
	if err != nil {
		return toolError("invalid id", err), nil
	}
	if err := s.reminders.Toggle(userID, id); err != nil {
		return toolError("failed to toggle reminder", err), nil
	}
	return s.listResult(userID)
}

func (s *Server) handleRemove(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := req.GetString("user_id", "")
	id, err := entity.ParseReminderID(req.GetString("id", ""))
	if err != nil {
		return toolError("invalid id", err), nil
	}
	if err := s.reminders.Remove(userID, id); err != nil {
		return toolError("failed to remove reminder", err), nil
	}
	return s.listResult(userID)
}

func (s *Server) handleCommit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := req.GetString("user_id", "")
	result, err := s.reminders.Commit(ctx, userID)
	if err != nil && !(errors.Is(err, appErrors.ErrPermissionDenied) && result != nil) {
		return toolError("failed to commit reminders", err), nil
	}
	s.log.Info(fmt.Sprintf("MCP commit for user %s: %s", userID, result.Summary()))
	return jsonResult(result), nil
}

func (s *Server) handleSetPermission(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, err := s.users.SetNotificationPermission(ctx, req.GetString("user_id", ""), req.GetBool("granted", false))
	if err != nil {
		return toolError("failed to update permission", err), nil
	}
	return jsonResult(dto.UserResponse{UserID: user.ID, NotificationsAllowed: user.NotificationsAllowed}), nil
}

func (s *Server) handleLogout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := req.GetString("user_id", "")
	if err := s.reminders.Logout(ctx, userID); err != nil {
		return toolError("failed to log out", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Session for %s ended.", userID)), nil
}

func (s *Server) listResult(userID string) (*mcp.CallToolResult, error) {
	list, err := s.reminders.List(userID)
	if err != nil {
		return toolError("failed to list reminders", err), nil
	}
	if len(list.Reminders) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No reminders (session %s).", list.State)), nil
	}
	return jsonResult(list), nil
}

func toolError(msg string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", msg, err))
}

func jsonResult(v any) *mcp.CallToolResult {
	output, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(output))
}
