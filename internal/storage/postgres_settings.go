package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/wa-automations/internal/apperrors"
	"gitlab.com/timkado/api/wa-automations/internal/model"
	"gitlab.com/timkado/api/wa-automations/pkg/logger"
	"gitlab.com/timkado/api/wa-automations/pkg/utils"
)

// --- Business Settings Repository Methods ---

// FindReminderEnabledSettings returns every settings row with appointment reminders switched on.
// This query spans all tenants.
func (r *PostgresRepo) FindReminderEnabledSettings(ctx context.Context) ([]model.BusinessSettings, error) {
	return r.findSettings(ctx, "FindReminderEnabledSettings",
		"appointment_reminder_enabled = ?", true)
}

// FindMarketingEnabledSettings returns every settings row with birthday or rescue switched on.
func (r *PostgresRepo) FindMarketingEnabledSettings(ctx context.Context) ([]model.BusinessSettings, error) {
	return r.findSettings(ctx, "FindMarketingEnabledSettings",
		"birthday_automation_enabled = ? OR rescue_automation_enabled = ?", true, true)
}

func (r *PostgresRepo) findSettings(ctx context.Context, opName string, query string, args ...interface{}) ([]model.BusinessSettings, error) {
	var rows []model.BusinessSettings
	operation := func() error {
		result := r.db.WithContext(ctx).Where(query, args...).Find(&rows)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), opName, operation)
	observe(ctx, "find_enabled", "business_settings", startTime, err)

	if err != nil {
		logger.FromContext(ctx).Error("Failed to load business settings after retries",
			zap.String("operation", opName),
			zap.Error(err))
		return nil, err
	}
	return rows, nil
}
