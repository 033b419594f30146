package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/wa-automations/internal/apperrors"
	"gitlab.com/timkado/api/wa-automations/internal/model"
	"gitlab.com/timkado/api/wa-automations/pkg/logger"
	"gitlab.com/timkado/api/wa-automations/pkg/utils"
)

// FindAppointmentsInWindow returns the company's appointments starting within
// [start, end] (both inclusive) whose status is one of statuses.
func (r *PostgresRepo) FindAppointmentsInWindow(ctx context.Context, companyID string, start, end time.Time, statuses []string) ([]model.Appointment, error) {
	if len(statuses) == 0 {
		return nil, fmt.Errorf("%w: at least one appointment status is required", apperrors.ErrBadRequest)
	}

	var appointments []model.Appointment
	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("company_id = ? AND status IN ? AND start_time >= ? AND start_time <= ?", companyID, statuses, start.UTC(), end.UTC()).
			Order("start_time").
			Find(&appointments)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "FindAppointmentsInWindow", operation)
	observe(ctx, "find_in_window", "appointments", startTime, err)

	if err != nil {
		logger.FromContext(ctx).Error("Failed to find appointments in window after retries",
			zap.String("company_id", companyID),
			zap.Time("window_start", start),
			zap.Time("window_end", end),
			zap.Error(err))
		return nil, err
	}
	return appointments, nil
}
