package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"mealreminder/internal/application/dto"
	"mealreminder/internal/application/service"
	"mealreminder/internal/domain/constant"
	"mealreminder/internal/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// LineMessenger is the part of the LINE client used by the webhook.
type LineMessenger interface {
	ParseRequest(r *http.Request) ([]*linebot.Event, error)
	SendMessages(replyToken string, messages ...linebot.SendingMessage) error
}

const (
	listCommand     = "一覧"
	helpCommand     = "使い方"
	noRemindersText = "現在登録されているリマインドはありません"
	howToUseText    = "食事リマインダーの使い方\n\n" +
		"・リマインダーの追加や編集はアプリから行ってください。\n" +
		"・保存したリマインダーの時刻になると、このトークに通知が届きます。\n" +
		"・「一覧」と入力すると登録中のリマインダーを確認できます。\n" +
		"・ブロックすると通知は停止します。"
)

// LineHandler handles incoming LINE webhook events. Following the account
// grants notification permission, blocking it revokes the permission.
type LineHandler struct {
	lineClient      LineMessenger
	userService     service.UserService
	reminderService service.ReminderService
	log             logger.Logger
}

// NewLineHandler creates a new LineHandler.
func NewLineHandler(
	lineClient LineMessenger,
	userService service.UserService,
	reminderService service.ReminderService,
	log logger.Logger,
) *LineHandler {
	return &LineHandler{
		lineClient:      lineClient,
		userService:     userService,
		reminderService: reminderService,
		log:             log,
	}
}

// HandleWebhook is the main entry point for webhook requests.
func (h *LineHandler) HandleWebhook(c echo.Context) error {
	events, err := h.lineClient.ParseRequest(c.Request())
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			h.log.Warn("Invalid LINE signature received")
			return c.String(http.StatusBadRequest, "Invalid signature")
		}
		h.log.Error("Failed to parse LINE webhook request", err)
		return c.String(http.StatusInternalServerError, "Error parsing request")
	}

	h.handleEvents(c.Request().Context(), events)
	return c.String(http.StatusOK, "OK")
}

func (h *LineHandler) handleEvents(ctx context.Context, events []*linebot.Event) {
	for _, event := range events {
		h.log.Info(fmt.Sprintf("Processing event type: %s", event.Type))
		switch event.Type {
		case linebot.EventTypeMessage:
			h.handleMessageEvent(ctx, event)
		case linebot.EventTypeFollow:
			h.handleFollowEvent(ctx, event)
		case linebot.EventTypeUnfollow:
			h.handleUnfollowEvent(ctx, event)
		default:
			h.log.Info(fmt.Sprintf("Unhandled event type: %s", event.Type))
		}
	}
}

// handleFollowEvent registers the user and allows notifications.
func (h *LineHandler) handleFollowEvent(ctx context.Context, event *linebot.Event) {
	userID := event.Source.UserID
	replyToken := event.ReplyToken
	h.log.Info(fmt.Sprintf("User %s followed the bot.", userID))

	if _, err := h.userService.SetNotificationPermission(ctx, userID, true); err != nil {
		h.replyWithError(replyToken, "ユーザー情報の初期化に失敗しました。")
		return
	}

	welcome := linebot.NewTextMessage("友だち追加ありがとうございます。食事の時間になったらお知らせします。")
	help := linebot.NewTextMessage("使い方を知りたい場合「使い方」と入力してください。").
		WithQuickReplies(commandQuickReplies())
	if err := h.lineClient.SendMessages(replyToken, welcome, help); err != nil {
		h.log.Error(fmt.Sprintf("Failed to send follow reply to user %s", userID), err)
	}
}

// handleUnfollowEvent revokes notifications and ends the user's session,
// which cancels the user's triggers. Stored reminders are kept.
func (h *LineHandler) handleUnfollowEvent(ctx context.Context, event *linebot.Event) {
	userID := event.Source.UserID
	h.log.Info(fmt.Sprintf("User %s unfollowed or blocked the bot.", userID))

	if _, err := h.userService.SetNotificationPermission(ctx, userID, false); err != nil {
		h.log.Error(fmt.Sprintf("Failed to revoke notifications for user %s", userID), err)
	}
	if err := h.reminderService.Logout(ctx, userID); err != nil {
		h.log.Error(fmt.Sprintf("Failed to end reminder session for user %s", userID), err)
	}
}

// handleMessageEvent answers list and help commands.
func (h *LineHandler) handleMessageEvent(ctx context.Context, event *linebot.Event) {
	userID := event.Source.UserID
	replyToken := event.ReplyToken

	message, ok := event.Message.(*linebot.TextMessage)
	if !ok {
		h.log.Info(fmt.Sprintf("Received non-text message from %s", userID))
		h.sendHowToUse(replyToken)
		return
	}
	text := strings.TrimSpace(message.Text)
	h.log.Info(fmt.Sprintf("Received text message from %s: %s", userID, text))

	switch strings.ToLower(text) {
	case listCommand, "list":
		h.sendReminderList(ctx, replyToken, userID)
	default:
		h.sendHowToUse(replyToken)
	}
}

func (h *LineHandler) sendHowToUse(replyToken string) {
	message := linebot.NewTextMessage(howToUseText).WithQuickReplies(commandQuickReplies())
	if err := h.lineClient.SendMessages(replyToken, message); err != nil {
		h.log.Error("Failed to send how-to-use message", err)
	}
}

// sendReminderList replies with the user's working set, loading it from the
// store first when the user has no session yet.
func (h *LineHandler) sendReminderList(ctx context.Context, replyToken, userID string) {
	list, err := h.reminderService.List(userID)
	if err == nil && list.State == constant.StateUninitialized.String() {
		if _, err = h.reminderService.Load(ctx, userID); err == nil {
			list, err = h.reminderService.List(userID)
		}
	}
	if err != nil {
		h.log.Error(fmt.Sprintf("Failed to list reminders for user %s", userID), err)
		h.replyWithError(replyToken, "リマインダーの取得に失敗しました。")
		return
	}

	if err := h.lineClient.SendMessages(replyToken, linebot.NewTextMessage(formatReminderList(list.Reminders))); err != nil {
		h.log.Error(fmt.Sprintf("Failed to send reminder list to user %s", userID), err)
	}
}

func formatReminderList(reminders []dto.ReminderResponse) string {
	if len(reminders) == 0 {
		return noRemindersText
	}
	var b strings.Builder
	b.WriteString("登録中のリマインド一覧\n")
	for _, r := range reminders {
		b.WriteString(fmt.Sprintf("\n%s %s", r.Time, r.Name))
		if !r.Enabled {
			b.WriteString(" (オフ)")
		}
		if r.Pending {
			b.WriteString(" (未保存)")
		}
	}
	return b.String()
}

func commandQuickReplies() *linebot.QuickReplyItems {
	return linebot.NewQuickReplyItems(
		linebot.NewQuickReplyButton("", linebot.NewMessageAction(listCommand, listCommand)),
		linebot.NewQuickReplyButton("", linebot.NewMessageAction(helpCommand, helpCommand)),
	)
}

func (h *LineHandler) replyWithError(replyToken, userMessage string) {
	if err := h.lineClient.SendMessages(replyToken, linebot.NewTextMessage(userMessage)); err != nil {
		h.log.Error("Failed to send error reply", err)
	}
}
