package template

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"gitlab.com/timkado/api/wa-automations/internal/model"
)

// Placeholder is a kind of value a template can reference
type Placeholder int

const (
	PlaceholderName Placeholder = iota
	PlaceholderDate
	PlaceholderTime
	PlaceholderStaff
	PlaceholderService
	PlaceholderUnit
	PlaceholderDays
)

// Fallback display values used when the underlying record has no name
const (
	FallbackClientName  = "Cliente"
	FallbackStaffName   = "Profissional"
	FallbackServiceName = "Serviço"
)

const (
	dateLayout = "02/01/2006"
	timeLayout = "15:04"
)

// tokens maps every accepted spelling, lowercased, to its placeholder kind.
// Portuguese and English synonyms resolve to the same kind.
var tokens = map[string]Placeholder{
	"nome":         PlaceholderName,
	"name":         PlaceholderName,
	"data":         PlaceholderDate,
	"date":         PlaceholderDate,
	"horario":      PlaceholderTime,
	"hora":         PlaceholderTime,
	"time":         PlaceholderTime,
	"profissional": PlaceholderStaff,
	"barber":       PlaceholderStaff,
	"servico":      PlaceholderService,
	"service":      PlaceholderService,
	"unidade":      PlaceholderUnit,
	"unit":         PlaceholderUnit,
	"dias":         PlaceholderDays,
	"days":         PlaceholderDays,
}

var tokenPattern = regexp.MustCompile(`\{\{([A-Za-z]+)\}\}`)

var defaults = map[model.AutomationType]string{
	model.AutomationAppointmentReminder: "Olá {{nome}}! Lembrete: você tem um agendamento às {{horario}} com {{profissional}}. Serviço: {{servico}}. Te esperamos!",
	model.AutomationBirthday:            "Feliz aniversário, {{nome}}! 🎂",
	model.AutomationRescue:              "Olá {{nome}}! Sentimos sua falta. Que tal agendar uma visita?",
}

// Default returns the built-in template of an automation type
func Default(t model.AutomationType) string {
	return defaults[t]
}

// Resolve returns tenantTemplate, or the default of t when it is blank
func Resolve(tenantTemplate string, t model.AutomationType) string {
	if strings.TrimSpace(tenantTemplate) == "" {
		return Default(t)
	}
	return tenantTemplate
}

// Values carries what a single message may reference. Zero fields leave their
// tokens untouched.
type Values struct {
	Name           string
	When           time.Time
	Staff          string
	Service        string
	Unit           string
	DaysSinceVisit *int
}

// ForAppointment builds reminder values, filling in display fallbacks for
// missing names.
func ForAppointment(apt model.Appointment, staff, service, unit string) Values {
	return Values{
		Name:    orDefault(apt.Name(), FallbackClientName),
		When:    apt.StartTime,
		Staff:   orDefault(staff, FallbackStaffName),
		Service: orDefault(service, FallbackServiceName),
		Unit:    unit,
	}
}

// ForClient builds marketing values. daysSinceVisit is only set for rescue messages.
func ForClient(c model.Client, unit string, daysSinceVisit *int) Values {
	return Values{
		Name:           orDefault(c.Name, FallbackClientName),
		Unit:           unit,
		DaysSinceVisit: daysSinceVisit,
	}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

type resolver func(v Values, loc *time.Location) (string, bool)

var resolvers = map[Placeholder]resolver{
	PlaceholderName:    func(v Values, _ *time.Location) (string, bool) { return v.Name, v.Name != "" },
	PlaceholderStaff:   func(v Values, _ *time.Location) (string, bool) { return v.Staff, v.Staff != "" },
	PlaceholderService: func(v Values, _ *time.Location) (string, bool) { return v.Service, v.Service != "" },
	PlaceholderUnit:    func(v Values, _ *time.Location) (string, bool) { return v.Unit, v.Unit != "" },
	PlaceholderDate: func(v Values, loc *time.Location) (string, bool) {
		if v.When.IsZero() {
			return "", false
		}
		return v.When.In(loc).Format(dateLayout), true
	},
	PlaceholderTime: func(v Values, loc *time.Location) (string, bool) {
		if v.When.IsZero() {
			return "", false
		}
		return v.When.In(loc).Format(timeLayout), true
	},
	PlaceholderDays: func(v Values, _ *time.Location) (string, bool) {
		if v.DaysSinceVisit == nil {
			return "", false
		}
		return strconv.Itoa(*v.DaysSinceVisit), true
	},
}

// Renderer substitutes placeholder tokens. It is stateless and safe for concurrent use.
type Renderer struct {
	loc *time.Location
}

// NewRenderer returns a renderer formatting dates and times in loc
func NewRenderer(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{loc: loc}
}

// Render replaces known tokens, case-insensitively, with values from v.
// Unknown tokens and tokens without a value are left verbatim.
func (r *Renderer) Render(tpl string, v Values) string {
	resolved := make(map[Placeholder]*string, len(resolvers))
	return tokenPattern.ReplaceAllStringFunc(tpl, func(match string) string {
		kind, ok := tokens[strings.ToLower(match[2:len(match)-2])]
		if !ok {
			return match
		}
		value, seen := resolved[kind]
		if !seen {
			if s, ok := resolvers[kind](v, r.loc); ok {
				value = &s
			}
			resolved[kind] = value
		}
		if value == nil {
			return match
		}
		return *value
	})
}

// RenderFor resolves the tenant template of t against its default and renders it
func (r *Renderer) RenderFor(settings *model.BusinessSettings, t model.AutomationType, v Values) string {
	return r.Render(Resolve(settings.Template(t), t), v)
}
