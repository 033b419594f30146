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

// FindMarketingClients lists the company's clients that have not opted out of marketing.
// A NULL opt-out flag counts as opted in.
func (r *PostgresRepo) FindMarketingClients(ctx context.Context, companyID string) ([]model.Client, error) {
	var clients []model.Client
	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("company_id = ? AND (marketing_opt_out IS NULL OR marketing_opt_out = ?)", companyID, false).
			Find(&clients)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "FindMarketingClients", operation)
	observe(ctx, "find_marketing_audience", "clients", startTime, err)

	if err != nil {
		logger.FromContext(ctx).Error("Failed to list marketing clients after retries",
			zap.String("company_id", companyID),
			zap.Error(err))
		return nil, err
	}
	return clients, nil
}

// FindClientIDByPhone returns the id of the first client of the company unit whose
// phone equals any of phones.
func (r *PostgresRepo) FindClientIDByPhone(ctx context.Context, companyID, unitID string, phones []string) (string, error) {
	if len(phones) == 0 {
		return "", apperrors.ErrNotFound
	}

	var ids []string
	operation := func() error {
		result := r.db.WithContext(ctx).
			Model(&model.Client{}).
			Where("company_id = ? AND unit_id = ? AND phone IN ?", companyID, unitID, phones).
			Limit(1).
			Pluck("id", &ids)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), "FindClientIDByPhone", operation)
	observe(ctx, "find_id_by_phone", "clients", startTime, err)

	if err != nil {
		logger.FromContext(ctx).Error("Failed to find client by phone after retries",
			zap.String("company_id", companyID),
			zap.String("unit_id", unitID),
			zap.Error(err))
		return "", err
	}
	if len(ids) == 0 {
		return "", apperrors.ErrNotFound
	}
	return ids[0], nil
}
