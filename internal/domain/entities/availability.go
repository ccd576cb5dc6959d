package entities

// DateLayout is the ISO calendar date format used for ScheduleDay.Date.
const DateLayout = "2006-01-02"

// TimeLayout is the wall-clock label format used for ScheduleSlot.Time.
const TimeLayout = "15:04"

// ScheduleSlot is a single bookable unit of time for one professional.
// ID is the scheduler's raw timestamp string and is stable across refetches.
type ScheduleSlot struct {
	ID        string `json:"id"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// ScheduleDay holds one professional's slots for one calendar date, ordered by time.
type ScheduleDay struct {
	Date  string         `json:"date"`
	Slots []ScheduleSlot `json:"slots"`
}

// HasAvailableSlot reports whether any slot on the day is still bookable.
func (d ScheduleDay) HasAvailableSlot() bool {
	for _, s := range d.Slots {
		if s.Available {
			return true
		}
	}
	return false
}

// ProfessionalAvailability is the gap-free calendar of one professional over the availability window.
type ProfessionalAvailability struct {
	ProfessionalID string        `json:"professional_id"`
	Days           []ScheduleDay `json:"days"`
}

// Clone returns a deep copy.
func (p *ProfessionalAvailability) Clone() *ProfessionalAvailability {
	if p == nil {
		return nil
	}
	out := &ProfessionalAvailability{
		ProfessionalID: p.ProfessionalID,
		Days:           make([]ScheduleDay, len(p.Days)),
	}
	for i, d := range p.Days {
		out.Days[i] = ScheduleDay{Date: d.Date, Slots: append([]ScheduleSlot{}, d.Slots...)}
	}
	return out
}

// HasAvailableSlot reports whether any day in the window has a bookable slot.
func (p *ProfessionalAvailability) HasAvailableSlot() bool {
	if p == nil {
		return false
	}
	for _, d := range p.Days {
		if d.HasAvailableSlot() {
			return true
		}
	}
	return false
}

// HasAvailableSlotBetween reports whether a bookable slot exists on a day within [from, to].
// Dates are compared as ISO strings.
func (p *ProfessionalAvailability) HasAvailableSlotBetween(from, to string) bool {
	if p == nil {
		return false
	}
	for _, d := range p.Days {
		if d.Date < from || d.Date > to {
			continue
		}
		if d.HasAvailableSlot() {
			return true
		}
	}
	return false
}

// Day returns the day for date, or nil.
func (p *ProfessionalAvailability) Day(date string) *ScheduleDay {
	if p == nil {
		return nil
	}
	for i := range p.Days {
		if p.Days[i].Date == date {
			return &p.Days[i]
		}
	}
	return nil
}

// SlotMatcher identifies a slot by exact id or, when ID is empty, by wall-clock time.
type SlotMatcher struct {
	ID   string
	Time string
}

// Matches reports whether slot is the one described by m.
func (m SlotMatcher) Matches(slot ScheduleSlot) bool {
	if m.ID != "" {
		return slot.ID == m.ID
	}
	return m.Time != "" && slot.Time == m.Time
}

// EmptyAvailability builds a window of empty days for a professional.
func EmptyAvailability(professionalID string, dates []string) *ProfessionalAvailability {
	days := make([]ScheduleDay, len(dates))
	for i, d := range dates {
		days[i] = ScheduleDay{Date: d, Slots: []ScheduleSlot{}}
	}
	return &ProfessionalAvailability{ProfessionalID: professionalID, Days: days}
}
