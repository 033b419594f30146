package storage

import (
	"context"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/wa-automations/internal/apperrors"
	"gitlab.com/timkado/api/wa-automations/internal/model"
	"gitlab.com/timkado/api/wa-automations/pkg/logger"
	"gitlab.com/timkado/api/wa-automations/pkg/utils"
)

// FindCompanyByOwner resolves the first company owned by ownerUserID
func (r *PostgresRepo) FindCompanyByOwner(ctx context.Context, ownerUserID string) (*model.Company, error) {
	var company model.Company
	operation := func() error {
		result := r.db.WithContext(ctx).Where("owner_user_id = ?", ownerUserID).First(&company)
		return checkConstraintViolation(result.Error)
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "FindCompanyByOwner", operation)
	observe(ctx, "find_by_owner", "companies", startTime, err)

	if err != nil {
		if apperrors.IsNotFoundError(err) {
			return nil, apperrors.ErrNotFound
		}
		logger.FromContext(ctx).Error("Failed to find company by owner after retries",
			zap.String("owner_user_id", ownerUserID),
			zap.Error(err))
		return nil, err
	}
	return &company, nil
}
