package provider

import (
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/appointment-scheduling/internal/availability"
)

const (
	DefaultAppointmentDuration = 30
	DefaultTimezone            = "UTC"
)

// Provider offers appointments against a recurring weekly availability
// template with a fixed appointment duration. The timezone is stored and
// passed through, never interpreted by the scheduling core.
type Provider struct {
	ID                  uuid.UUID
	WeeklySchedule      WeeklySchedule
	AppointmentDuration int // minutes
	Timezone            string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// WeeklySchedule maps each weekday to an optional working window. A nil day
// means the provider does not work that day.
type WeeklySchedule struct {
	Monday    *availability.DailySchedule `json:"monday,omitempty"`
	Tuesday   *availability.DailySchedule `json:"tuesday,omitempty"`
	Wednesday *availability.DailySchedule `json:"wednesday,omitempty"`
	Thursday  *availability.DailySchedule `json:"thursday,omitempty"`
	Friday    *availability.DailySchedule `json:"friday,omitempty"`
	Saturday  *availability.DailySchedule `json:"saturday,omitempty"`
	Sunday    *availability.DailySchedule `json:"sunday,omitempty"`
}

// ForWeekday returns the working window for the given weekday, or nil.
func (ws WeeklySchedule) ForWeekday(d time.Weekday) *availability.DailySchedule {
	switch d {
	case time.Monday:
		return ws.Monday
	case time.Tuesday:
		return ws.Tuesday
	case time.Wednesday:
		return ws.Wednesday
	case time.Thursday:
		return ws.Thursday
	case time.Friday:
		return ws.Friday
	case time.Saturday:
		return ws.Saturday
	default:
		return ws.Sunday
	}
}

// Days returns the schedule as a weekday-name map, nil days omitted.
func (ws WeeklySchedule) Days() map[string]*availability.DailySchedule {
	out := make(map[string]*availability.DailySchedule)
	for name, day := range map[string]*availability.DailySchedule{
		"monday":    ws.Monday,
		"tuesday":   ws.Tuesday,
		"wednesday": ws.Wednesday,
		"thursday":  ws.Thursday,
		"friday":    ws.Friday,
		"saturday":  ws.Saturday,
		"sunday":    ws.Sunday,
	} {
		if day != nil {
			out[name] = day
		}
	}
	return out
}
