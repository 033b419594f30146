package delivery

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/timkado/api/wa-automations/internal/model"
	"gitlab.com/timkado/api/wa-automations/internal/storage"
	"gitlab.com/timkado/api/wa-automations/pkg/utils"
)

// Guard answers whether a recipient was already attempted within the bucket
// of an automation type. Any prior attempt counts, failed ones included.
type Guard struct {
	logs         storage.AutomationLogRepo
	zone         *time.Location
	cooldownDays int
}

// NewGuard creates a Guard. Birthday buckets are business-local days; rescue
// buckets span cooldownDays.
func NewGuard(logs storage.AutomationLogRepo, zone *time.Location, cooldownDays int) *Guard {
	return &Guard{logs: logs, zone: zone, cooldownDays: cooldownDays}
}

// Since returns the lower bound of the bucket of t that contains now.
// Reminders have no time bound.
func (g *Guard) Since(t model.AutomationType, now time.Time) time.Time {
	switch t {
	case model.AutomationBirthday:
		return utils.StartOfDay(now, g.zone)
	case model.AutomationRescue:
		return now.AddDate(0, 0, -g.cooldownDays)
	}
	return time.Time{}
}

// Key returns the dedup key stored with a sent attempt for recipientID
func (g *Guard) Key(t model.AutomationType, recipientID string, now time.Time) string {
	switch t {
	case model.AutomationBirthday:
		return model.DedupKeyBirthday(recipientID, utils.StartOfDay(now, g.zone))
	case model.AutomationRescue:
		return model.DedupKeyRescue(recipientID, now, g.cooldownDays)
	}
	return model.DedupKeyReminder(recipientID)
}

// AlreadyReminded reports whether appointmentID already has a reminder attempt
func (g *Guard) AlreadyReminded(ctx context.Context, appointmentID string) (bool, error) {
	exists, err := g.logs.ExistsForAppointment(ctx, appointmentID, model.AutomationAppointmentReminder)
	if err != nil {
		return false, fmt.Errorf("reminder dedup lookup: %w", err)
	}
	return exists, nil
}

// AlreadySent reports whether clientID already has an attempt of t in the current bucket
func (g *Guard) AlreadySent(ctx context.Context, clientID string, t model.AutomationType, now time.Time) (bool, error) {
	exists, err := g.logs.ExistsForClientSince(ctx, clientID, t, g.Since(t, now))
	if err != nil {
		return false, fmt.Errorf("%s dedup lookup: %w", t, err)
	}
	return exists, nil
}
