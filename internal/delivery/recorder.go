package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gitlab.com/timkado/api/wa-automations/internal/apperrors"
	"gitlab.com/timkado/api/wa-automations/internal/channel"
	"gitlab.com/timkado/api/wa-automations/internal/model"
	"gitlab.com/timkado/api/wa-automations/internal/storage"
	"gitlab.com/timkado/api/wa-automations/pkg/logger"
)

// Attempt is one finished send, successful or not
type Attempt struct {
	CompanyID     string
	ClientID      *string
	AppointmentID *string
	Type          model.AutomationType
	DedupKey      string
	Result        *channel.Result
	Err           error
	At            time.Time
}

// Recorder writes attempts to the delivery log
type Recorder struct {
	logs storage.AutomationLogRepo
}

// NewRecorder creates a Recorder
func NewRecorder(logs storage.AutomationLogRepo) *Recorder {
	return &Recorder{logs: logs}
}

// Record persists a and returns the outcome status for the run summary.
// A sent attempt that collides with an existing sent row was delivered by a
// concurrent run first and is reported as skipped. The returned error only
// concerns the log write; the status is always meaningful.
func (r *Recorder) Record(ctx context.Context, a Attempt) (model.DispatchStatus, error) {
	entry := BuildLog(a)
	status := model.DispatchSent
	if entry.Status == model.LogStatusFailed {
		status = model.DispatchFailed
	}

	err := r.logs.Save(ctx, entry)
	switch {
	case err == nil:
		return status, nil
	case apperrors.IsDuplicateError(err):
		logger.FromContext(ctx).Warn("Concurrent run already recorded this message as sent",
			zap.String("dedup_key", entry.DedupKey),
			zap.String("automation_type", string(a.Type)),
		)
		return model.DispatchSkipped, nil
	default:
		logger.FromContext(ctx).Error("Failed to write delivery log",
			zap.String("dedup_key", entry.DedupKey),
			zap.Bool("send_retryable", apperrors.IsRetryable(a.Err)),
			zap.Error(err),
		)
		return status, fmt.Errorf("record %s attempt: %w", a.Type, err)
	}
}

// BuildLog converts an attempt into a log row. A failed attempt keeps the raw
// provider body in its error message; provider_response only holds JSON bodies.
func BuildLog(a Attempt) model.AutomationLog {
	at := a.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	entry := model.AutomationLog{
		ID:             uuid.NewString(),
		CompanyID:      a.CompanyID,
		ClientID:       a.ClientID,
		AppointmentID:  a.AppointmentID,
		AutomationType: a.Type,
		Status:         model.LogStatusSent,
		DedupKey:       a.DedupKey,
		SentAt:         at,
	}
	if a.Err != nil {
		msg := a.Err.Error()
		if a.Result != nil && len(a.Result.Body) > 0 {
			msg += ": " + string(a.Result.Body)
		}
		entry.Status = model.LogStatusFailed
		entry.ErrorMessage = &msg
	}
	if a.Result != nil && len(a.Result.Body) > 0 && json.Valid(a.Result.Body) {
		entry.ProviderResponse = datatypes.JSON(a.Result.Body)
	}
	return entry
}
