package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/wa-automations/internal/apperrors"
	"gitlab.com/timkado/api/wa-automations/internal/model"
	"gitlab.com/timkado/api/wa-automations/internal/tenant"
	"gitlab.com/timkado/api/wa-automations/internal/validator"
	"gitlab.com/timkado/api/wa-automations/pkg/logger"
	"gitlab.com/timkado/api/wa-automations/pkg/utils"
)

// --- Automation Log Repository Methods ---

// SaveAutomationLog appends a delivery attempt. A second sent row for the same
// dedup key violates the partial unique index and surfaces as apperrors.ErrDuplicate.
func (r *PostgresRepo) SaveAutomationLog(ctx context.Context, entry model.AutomationLog) error {
	companyID, err := tenant.CompanyIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get tenant ID: %w", apperrors.ErrUnauthorized, err)
	}
	loggerCtx := logger.FromContext(ctx)

	if companyID != entry.CompanyID {
		return fmt.Errorf("%w: log CompanyID %s does not match tenant ID %s", apperrors.ErrBadRequest, entry.CompanyID, companyID)
	}
	if err := validator.Validate(entry); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	operation := func() error {
		result := r.db.WithContext(ctx).Create(&entry)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: create operation affected 0 rows", apperrors.ErrDatabase)
		}
		return nil
	}

	startTime := utils.Now()
	commitErr := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), "SaveAutomationLog", operation)
	observe(ctx, "save", "automation_logs", startTime, commitErr)

	if commitErr != nil {
		if apperrors.IsDuplicateError(commitErr) {
			loggerCtx.Info("Automation log already recorded as sent",
				zap.String("dedup_key", entry.DedupKey))
			return commitErr
		}
		loggerCtx.Error("Failed to save automation log after retries",
			zap.String("dedup_key", entry.DedupKey),
			zap.String("status", string(entry.Status)),
			zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// AutomationLogExistsForAppointment reports whether any attempt was recorded for
// the appointment and automation type, whatever its status.
func (r *PostgresRepo) AutomationLogExistsForAppointment(ctx context.Context, appointmentID string, automationType model.AutomationType) (bool, error) {
	return r.automationLogExists(ctx, "AutomationLogExistsForAppointment",
		"appointment_id = ? AND automation_type = ?", appointmentID, automationType)
}

// AutomationLogExistsForClientSince reports whether any attempt was recorded for
// the client and automation type with sent_at at or after since.
func (r *PostgresRepo) AutomationLogExistsForClientSince(ctx context.Context, clientID string, automationType model.AutomationType, since time.Time) (bool, error) {
	return r.automationLogExists(ctx, "AutomationLogExistsForClientSince",
		"client_id = ? AND automation_type = ? AND sent_at >= ?", clientID, automationType, since.UTC())
}

func (r *PostgresRepo) automationLogExists(ctx context.Context, opName, query string, args ...interface{}) (bool, error) {
	var ids []string
	operation := func() error {
		result := r.db.WithContext(ctx).
			Model(&model.AutomationLog{}).
			Where(query, args...).
			Limit(1).
			Pluck("id", &ids)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), opName, operation)
	observe(ctx, "exists", "automation_logs", startTime, err)

	if err != nil {
		logger.FromContext(ctx).Error("Failed to check automation log after retries",
			zap.String("operation", opName),
			zap.Error(err))
		return false, err
	}
	return len(ids) > 0, nil
}
