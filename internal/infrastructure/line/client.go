package line

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"mealreminder/internal/domain/entity"
	"mealreminder/internal/pkg/config"
	appErrors "mealreminder/internal/pkg/errors"
	"mealreminder/internal/pkg/logger"

	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// Client wraps the linebot.Client.
type Client struct {
	*linebot.Client
	log logger.Logger
}

// NewClient creates a LINE Bot client from the configured channel credentials.
func NewClient(cfg config.LineConfig, log logger.Logger) (*Client, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("%w: channel secret and access token must be set", appErrors.ErrLineAPI)
	}

	bot, err := linebot.New(cfg.ChannelSecret, cfg.ChannelAccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErrors.ErrLineAPI, err)
	}
	log.Info("Successfully created LINE Bot client.")
	return &Client{
		Client: bot,
		log:    log,
	}, nil
}

// SendMessages sends one or more messages using the ReplyMessage API.
func (c *Client) SendMessages(replyToken string, messages ...linebot.SendingMessage) error {
	if _, err := c.ReplyMessage(replyToken, messages...).Do(); err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrLineAPI, err)
	}
	c.log.Debug("Successfully sent reply message.")
	return nil
}

// PushMessages sends one or more messages using the PushMessage API.
func (c *Client) PushMessages(ctx context.Context, to string, messages ...linebot.SendingMessage) error {
	if _, err := c.PushMessage(to, messages...).WithContext(ctx).Do(); err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrLineAPI, err)
	}
	c.log.Debug("Successfully sent push message.")
	return nil
}

// ParseRequest parses incoming webhook requests.
func (c *Client) ParseRequest(r *http.Request) ([]*linebot.Event, error) {
	return c.Client.ParseRequest(r)
}

// Deliver pushes a fired reminder to the user's LINE chat.
func (c *Client) Deliver(ctx context.Context, n entity.Notification) error {
	return c.PushMessages(ctx, n.UserID, linebot.NewTextMessage(NotificationText(n)))
}

// NotificationText renders the push message for a fired reminder.
func NotificationText(n entity.Notification) string {
	parts := make([]string, 0, 2)
	if title := strings.TrimSpace(n.Title); title != "" {
		parts = append(parts, fmt.Sprintf("「%s」の時間です", title))
	}
	if body := strings.TrimSpace(n.Body); body != "" {
		parts = append(parts, body)
	}
	return strings.Join(parts, "\n")
}
