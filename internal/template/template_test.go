package template

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gitlab.com/timkado/api/wa-automations/internal/model"
	"gitlab.com/timkado/api/wa-automations/pkg/utils"
)

var saoPaulo = utils.BusinessZone(-3)

func TestRender_ReminderExample(t *testing.T) {
	r := NewRenderer(saoPaulo)
	v := Values{
		Name:  "Ana",
		When:  time.Date(2024, 6, 10, 17, 30, 0, 0, time.UTC), // 14:30 local
		Staff: "Carlos",
	}

	got := r.Render("Oi {{nome}}, {{horario}} com {{profissional}}", v)

	assert.Equal(t, "Oi Ana, 14:30 com Carlos", got)
}

func TestRender_UnknownTokenUntouched(t *testing.T) {
	r := NewRenderer(saoPaulo)

	got := r.Render("Oi {{nome}} {{xyz}}", Values{Name: "Ana"})

	assert.Equal(t, "Oi Ana {{xyz}}", got)
}

func TestRender_SynonymsAndCase(t *testing.T) {
	r := NewRenderer(saoPaulo)
	days := 42
	v := Values{
		Name:           "Bruno",
		When:           time.Date(2024, 1, 5, 2, 15, 0, 0, time.UTC), // 04/01 23:15 local
		Staff:          "Rafa",
		Service:        "Corte",
		Unit:           "Centro",
		DaysSinceVisit: &days,
	}

	tests := []struct {
		tpl  string
		want string
	}{
		{"{{NOME}}|{{Name}}", "Bruno|Bruno"},
		{"{{data}}|{{DATE}}", "04/01/2024|04/01/2024"},
		{"{{horario}}|{{hora}}|{{time}}", "23:15|23:15|23:15"},
		{"{{profissional}}|{{barber}}", "Rafa|Rafa"},
		{"{{servico}}|{{Service}}", "Corte|Corte"},
		{"{{unidade}}|{{unit}}", "Centro|Centro"},
		{"{{dias}}|{{days}}", "42|42"},
	}
	for _, tt := range tests {
		t.Run(tt.tpl, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Render(tt.tpl, v))
		})
	}
}

func TestRender_MissingValuesLeaveToken(t *testing.T) {
	r := NewRenderer(saoPaulo)

	got := r.Render("Parabéns {{nome}}! {{horario}} {{dias}}", Values{Name: "Ana"})

	assert.Equal(t, "Parabéns Ana! {{horario}} {{dias}}", got)
}

func TestRender_NoRecursiveSubstitution(t *testing.T) {
	r := NewRenderer(saoPaulo)

	got := r.Render("{{nome}} {{name}}", Values{Name: "{{name}}"})

	assert.Equal(t, "{{name}} {{name}}", got)
}

func TestResolve_FallsBackToDefault(t *testing.T) {
	assert.Equal(t, Default(model.AutomationBirthday), Resolve("", model.AutomationBirthday))
	assert.Equal(t, Default(model.AutomationRescue), Resolve("   ", model.AutomationRescue))
	assert.Equal(t, "custom", Resolve("custom", model.AutomationRescue))
	assert.Contains(t, Default(model.AutomationAppointmentReminder), "{{profissional}}")
}

func TestForAppointment_Fallbacks(t *testing.T) {
	start := time.Date(2024, 6, 10, 17, 30, 0, 0, time.UTC)
	apt := *model.NewAppointment("c1", "u1", start, func(a *model.Appointment) { a.ClientName = nil })

	v := ForAppointment(apt, "", "", "Centro")

	assert.Equal(t, FallbackClientName, v.Name)
	assert.Equal(t, FallbackStaffName, v.Staff)
	assert.Equal(t, FallbackServiceName, v.Service)
	assert.Equal(t, "Centro", v.Unit)
	assert.Equal(t, start, v.When)
}

func TestRenderFor_DefaultReminderTemplate(t *testing.T) {
	r := NewRenderer(saoPaulo)
	settings := model.NewBusinessSettings(func(s *model.BusinessSettings) { s.AppointmentReminderTemplate = nil })
	start := time.Date(2024, 6, 10, 17, 30, 0, 0, time.UTC)
	apt := *model.NewAppointment("c1", "u1", start, func(a *model.Appointment) {
		name := "Ana"
		a.ClientName = &name
	})

	got := r.RenderFor(settings, model.AutomationAppointmentReminder, ForAppointment(apt, "Carlos", "Barba", ""))

	assert.Equal(t, "Olá Ana! Lembrete: você tem um agendamento às 14:30 com Carlos. Serviço: Barba. Te esperamos!", got)
}

func TestForClient_RescueDays(t *testing.T) {
	r := NewRenderer(saoPaulo)
	days := 31
	c := *model.NewClient("c1", "u1", func(c *model.Client) { c.Name = "Lia" })

	got := r.Render("{{nome}}, faz {{dias}} dias!", ForClient(c, "Centro", &days))

	assert.Equal(t, "Lia, faz 31 dias!", got)
}
