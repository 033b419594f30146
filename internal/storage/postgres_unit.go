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

// FindUnitByID loads a single unit
func (r *PostgresRepo) FindUnitByID(ctx context.Context, unitID string) (*model.Unit, error) {
	var unit model.Unit
	operation := func() error {
		result := r.db.WithContext(ctx).Where("id = ?", unitID).First(&unit)
		return checkConstraintViolation(result.Error)
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "FindUnitByID", operation)
	observe(ctx, "find_by_id", "units", startTime, err)

	if err != nil {
		if apperrors.IsNotFoundError(err) {
			return nil, apperrors.ErrNotFound
		}
		logger.FromContext(ctx).Error("Failed to find unit after retries",
			zap.String("unit_id", unitID),
			zap.Error(err))
		return nil, err
	}
	return &unit, nil
}

// FindUnitsWithChannel lists the company's units whose channel credentials are not null.
// Callers still check for blank values with HasChannelCredentials.
func (r *PostgresRepo) FindUnitsWithChannel(ctx context.Context, companyID string) ([]model.Unit, error) {
	var units []model.Unit
	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("company_id = ? AND evolution_instance_name IS NOT NULL AND evolution_api_key IS NOT NULL", companyID).
			Find(&units)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "FindUnitsWithChannel", operation)
	observe(ctx, "find_with_channel", "units", startTime, err)

	if err != nil {
		logger.FromContext(ctx).Error("Failed to list units with channel after retries",
			zap.String("company_id", companyID),
			zap.Error(err))
		return nil, err
	}
	return units, nil
}
