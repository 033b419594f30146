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

// FindBarberNames maps barber ids to names. Unknown ids are absent from the result.
func (r *PostgresRepo) FindBarberNames(ctx context.Context, ids []string) (map[string]string, error) {
	var rows []model.Barber
	if err := r.findNames(ctx, "FindBarberNames", "barbers", &model.Barber{}, ids, &rows); err != nil {
		return nil, err
	}
	names := make(map[string]string, len(rows))
	for _, b := range rows {
		names[b.ID] = b.Name
	}
	return names, nil
}

// FindServiceNames maps service ids to names. Unknown ids are absent from the result.
func (r *PostgresRepo) FindServiceNames(ctx context.Context, ids []string) (map[string]string, error) {
	var rows []model.Service
	if err := r.findNames(ctx, "FindServiceNames", "services", &model.Service{}, ids, &rows); err != nil {
		return nil, err
	}
	names := make(map[string]string, len(rows))
	for _, s := range rows {
		names[s.ID] = s.Name
	}
	return names, nil
}

func (r *PostgresRepo) findNames(ctx context.Context, opName, entity string, table interface{}, ids []string, dest interface{}) error {
	if len(ids) == 0 {
		return nil
	}

	operation := func() error {
		result := r.db.WithContext(ctx).Model(table).Select("id", "name").Where("id IN ?", ids).Find(dest)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	startTime := utils.Now()
	err := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), opName, operation)
	observe(ctx, "find_names", entity, startTime, err)

	if err != nil {
		logger.FromContext(ctx).Error("Failed to resolve catalog names after retries",
			zap.String("operation", opName),
			zap.Int("ids", len(ids)),
			zap.Error(err))
		return err
	}
	return nil
}
