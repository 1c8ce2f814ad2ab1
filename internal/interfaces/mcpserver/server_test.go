package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealreminder/internal/application/dto"
	"mealreminder/internal/application/service"
	"mealreminder/internal/infrastructure/database/sqlite"
	"mealreminder/internal/infrastructure/scheduler"
	"mealreminder/internal/pkg/config"
	"mealreminder/internal/pkg/logger"
)

type toolHandler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func newTestServer(t *testing.T) (*Server, *scheduler.LocalNotifier) {
	t.Helper()
	log := logger.New(io.Discard, logger.LevelError)
	db, err := sqlite.NewDB(config.DatabaseConfig{
		Path:     filepath.Join(t.TempDir(), "reminder.db"),
		LogLevel: "silent",
	}, io.Discard, log)
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.CloseDB(db) })

	cron := scheduler.NewScheduler(time.UTC, log)
	t.Cleanup(cron.Stop)
	notifier := scheduler.NewLocalNotifier(cron, scheduler.NewLogDeliverer(log), log)

	reminderRepo := sqlite.NewReminderRepository(db)
	users := service.NewUserService(sqlite.NewUserRepository(db), reminderRepo, log)
	reminders := service.NewReminderService(service.SyncEngineConfig{
		Remote:      reminderRepo,
		Scheduler:   notifier,
		Permissions: users,
		OwnedPrefix: "reminders/",
		Log:         log,
	})
	return NewServer(reminders, users, log), notifier
}

func call(t *testing.T, h toolHandler, args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, result.IsError
}

func TestServer_AddCommitFlow(t *testing.T) {
	s, notifier := newTestServer(t)
	user := map[string]any{"user_id": "U1"}

	text, isErr := call(t, s.handleLoad, user)
	require.False(t, isErr, text)
	assert.Contains(t, text, "No reminders")

	text, isErr = call(t, s.handleAdd, map[string]any{"user_id": "U1", "name": "Snack", "time": "15:30"})
	require.False(t, isErr, text)
	var created dto.ReminderResponse
	require.NoError(t, json.Unmarshal([]byte(text), &created))
	assert.True(t, created.Pending)

	text, isErr = call(t, s.handleCommit, user)
	require.False(t, isErr, text)
	var result dto.CommitResult
	require.NoError(t, json.Unmarshal([]byte(text), &result))
	assert.True(t, result.PermissionRequired)

	_, isErr = call(t, s.handleSetPermission, map[string]any{"user_id": "U1", "granted": true})
	require.False(t, isErr)

	text, isErr = call(t, s.handleCommit, user)
	require.False(t, isErr, text)
	result = dto.CommitResult{}
	require.NoError(t, json.Unmarshal([]byte(text), &result))
	assert.Equal(t, 1, result.ScheduledCount)
	require.Len(t, result.Reminders, 1)

	ids, err := notifier.ScheduledIDs(context.Background())
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	id := result.Reminders[0].ID
	text, isErr = call(t, s.handleEdit, map[string]any{"user_id": "U1", "id": id, "time": "16:00", "enabled": false})
	require.False(t, isErr, text)
	var list dto.ReminderListResponse
	require.NoError(t, json.Unmarshal([]byte(text), &list))
	require.Len(t, list.Reminders, 1)
	assert.Equal(t, "Snack", list.Reminders[0].Name)
	assert.Equal(t, "16:00", list.Reminders[0].Time)
	assert.False(t, list.Reminders[0].Enabled)

	_, isErr = call(t, s.handleLogout, user)
	require.False(t, isErr)
	ids, err = notifier.ScheduledIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestServer_ToolErrors(t *testing.T) {
	s, _ := newTestServer(t)

	text, isErr := call(t, s.handleCommit, map[string]any{"user_id": "U1"})
	assert.True(t, isErr)
	assert.Contains(t, text, "failed to commit reminders")

	_, isErr = call(t, s.handleLoad, map[string]any{"user_id": "U1"})
	require.False(t, isErr)

	_, isErr = call(t, s.handleAdd, map[string]any{"user_id": "U1", "name": "Snack", "time": "noon"})
	assert.True(t, isErr)

	_, isErr = call(t, s.handleToggle, map[string]any{"user_id": "U1", "id": "snack"})
	assert.True(t, isErr)

	_, isErr = call(t, s.handleRemove, map[string]any{"user_id": "U1", "id": "remote:missing"})
	assert.True(t, isErr)

	_, isErr = call(t, s.handleList, map[string]any{})
	assert.True(t, isErr)
}
