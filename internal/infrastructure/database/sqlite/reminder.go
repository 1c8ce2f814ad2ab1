package sqlite

import (
	"context"
	"fmt"
	"mealreminder/internal/domain/entity"
	"mealreminder/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type reminderRepository struct {
	db *gorm.DB
}

// NewReminderRepository creates a new instance of ReminderRepository.
func NewReminderRepository(db *gorm.DB) repository.ReminderRepository {
	return &reminderRepository{db: db}
}

// List retrieves the user's reminder documents in stored order.
func (r *reminderRepository) List(ctx context.Context, userID string) ([]*entity.ReminderDocument, error) {
	var docs []*entity.ReminderDocument
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("position asc").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("🔴 ERROR: failed to list reminders for user %s: %w", userID, err)
	}
	return docs, nil
}

// ReplaceAll deletes and rewrites the user's collection in one transaction.
func (r *reminderRepository) ReplaceAll(ctx context.Context, userID string, docs []*entity.ReminderDocument) ([]string, error) {
	ids := make([]string, len(docs))
	records := make([]*entity.ReminderDocument, len(docs))
	for i, d := range docs {
		id := d.ID
		if id == "" {
			id = uuid.NewString()
		}
		ids[i] = id
		records[i] = &entity.ReminderDocument{
			ID:       id,
			UserID:   userID,
			Position: i,
			Name:     d.Name,
			Enabled:  d.Enabled,
			Time:     d.Time,
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&entity.ReminderDocument{}).Error; err != nil {
			return fmt.Errorf("delete existing reminders: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.Create(&records).Error; err != nil {
			return fmt.Errorf("write reminders: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("🔴 ERROR: failed to replace reminders for user %s: %w", userID, err)
	}
	return ids, nil
}

// ListUserIDs retrieves every user that has at least one stored reminder.
func (r *reminderRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	var userIDs []string
	if err := r.db.WithContext(ctx).Model(&entity.ReminderDocument{}).Distinct("user_id").Order("user_id asc").Pluck("user_id", &userIDs).Error; err != nil {
		return nil, fmt.Errorf("🔴 ERROR: failed to list reminder owners: %w", err)
	}
	return userIDs, nil
}
