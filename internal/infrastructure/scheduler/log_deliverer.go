package scheduler

import (
	"context"
	"fmt"
	"mealreminder/internal/domain/entity"
	"mealreminder/internal/pkg/logger"
)

// LogDeliverer writes notifications to the log. Used when no push channel is configured.
type LogDeliverer struct {
	log logger.Logger
}

func NewLogDeliverer(log logger.Logger) *LogDeliverer {
	return &LogDeliverer{log: log}
}

func (d *LogDeliverer) Deliver(_ context.Context, n entity.Notification) error {
	d.log.Info(fmt.Sprintf("NOTIFY user=%s trigger=%s title=%q body=%q", n.UserID, n.TriggerID, n.Title, n.Body))
	return nil
}
