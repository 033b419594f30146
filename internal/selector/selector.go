package selector

import (
	"math"
	"time"

	"gitlab.com/timkado/api/wa-automations/internal/channel"
	"gitlab.com/timkado/api/wa-automations/internal/config"
	"gitlab.com/timkado/api/wa-automations/internal/model"
	"gitlab.com/timkado/api/wa-automations/pkg/utils"
)

const minutesPerDay = 24 * 60

// Selector decides which recipients are due on the current tick. All calendar
// arithmetic happens in the business zone, never the host locale.
type Selector struct {
	zone              *time.Location
	reminderTolerance time.Duration
	sendWindow        int // minutes
}

// New builds a Selector from the engine-wide automation settings
func New(cfg config.AutomationConfig) *Selector {
	return &Selector{
		zone:              utils.BusinessZone(cfg.BusinessUTCOffsetHours),
		reminderTolerance: time.Duration(cfg.ReminderWindowMinutes) * time.Minute,
		sendWindow:        cfg.SendWindowMinutes,
	}
}

// Zone returns the business time zone
func (s *Selector) Zone() *time.Location {
	return s.zone
}

// ReminderWindow returns the inclusive start-time range of appointments due for
// a reminder: now+lead, widened by the tolerance on both sides.
func (s *Selector) ReminderWindow(now time.Time, leadMinutes int) (start, end time.Time) {
	target := now.Add(time.Duration(leadMinutes) * time.Minute)
	return target.Add(-s.reminderTolerance), target.Add(s.reminderTolerance)
}

// InReminderWindow reports whether startTime lies in the window for now and lead
func (s *Selector) InReminderWindow(startTime, now time.Time, leadMinutes int) bool {
	start, end := s.ReminderWindow(now, leadMinutes)
	return !startTime.Before(start) && !startTime.After(end)
}

// InSendWindow reports whether now is within the send window around the
// tenant's daily hour:minute. Distance wraps around midnight.
func (s *Selector) InSendWindow(now time.Time, hour, minute int) bool {
	return SendWindowDistance(now, s.zone, hour, minute) <= s.sendWindow
}

// SendWindowDistance is the absolute distance in minutes between now's wall
// clock in loc and hour:minute.
func SendWindowDistance(now time.Time, loc *time.Location, hour, minute int) int {
	diff := utils.MinutesOfDay(now, loc) - (hour*60 + minute)
	if diff < 0 {
		diff = -diff
	}
	if wrapped := minutesPerDay - diff; wrapped < diff {
		return wrapped
	}
	return diff
}

// IsBirthday reports whether birth's month and day match today in loc.
// Birth dates are calendar dates and are read without zone conversion.
func IsBirthday(birth *time.Time, now time.Time, loc *time.Location) bool {
	if birth == nil || birth.IsZero() {
		return false
	}
	today := now.In(loc)
	return birth.Month() == today.Month() && birth.Day() == today.Day()
}

// DaysSince returns the number of whole days elapsed from since to now
func DaysSince(since, now time.Time) int {
	return int(math.Floor(now.Sub(since).Hours() / 24))
}

// QualifiesRescue reports whether a client last seen at lastVisit has been
// away for at least thresholdDays whole days. It also returns the day count.
func QualifiesRescue(lastVisit *time.Time, now time.Time, thresholdDays int) (bool, int) {
	if lastVisit == nil || lastVisit.IsZero() {
		return false, 0
	}
	days := DaysSince(*lastVisit, now)
	return days >= thresholdDays, days
}

// UnitBatch is the reminder work for one unit, in selection order
type UnitBatch struct {
	UnitID       string
	Appointments []model.Appointment
}

// GroupByUnit splits appointments with a phone by unit, keeping first-seen
// unit order. Appointments whose phone has no digits are returned separately.
func GroupByUnit(appointments []model.Appointment) (batches []UnitBatch, withoutPhone []model.Appointment) {
	index := make(map[string]int)
	for _, apt := range appointments {
		if channel.DigitsOnly(apt.Phone()) == "" {
			withoutPhone = append(withoutPhone, apt)
			continue
		}
		unitID := apt.Unit()
		i, ok := index[unitID]
		if !ok {
			i = len(batches)
			index[unitID] = i
			batches = append(batches, UnitBatch{UnitID: unitID})
		}
		batches[i].Appointments = append(batches[i].Appointments, apt)
	}
	return batches, withoutPhone
}

// MarketingCandidate is one qualifying (client, automation) pair
type MarketingCandidate struct {
	Client         model.Client
	Type           model.AutomationType
	DaysSinceVisit int
}

// MarketingCandidates returns the birthday and rescue candidates among clients,
// birthday first for each client. Opted-out clients never qualify.
func (s *Selector) MarketingCandidates(clients []model.Client, settings *model.BusinessSettings, now time.Time, defaultRescueDays int) []MarketingCandidate {
	threshold := settings.RescueThresholdDays(defaultRescueDays)
	var out []MarketingCandidate
	for _, c := range clients {
		if c.OptedOut() {
			continue
		}
		if settings.BirthdayAutomationEnabled && IsBirthday(c.BirthDate, now, s.zone) {
			out = append(out, MarketingCandidate{Client: c, Type: model.AutomationBirthday})
		}
		if settings.RescueAutomationEnabled {
			if ok, days := QualifiesRescue(c.LastVisitAt, now, threshold); ok {
				out = append(out, MarketingCandidate{Client: c, Type: model.AutomationRescue, DaysSinceVisit: days})
			}
		}
	}
	return out
}
