package daytype

import (
	"fmt"
	"sync"
)

// Built-in day type codes. Networks may register additional codes at load
// time; behaviour is driven entirely by the flags, never by the code itself.
const (
	Workday      = "W"
	Holiday      = "H"
	Vacation     = "V"
	SickLeave    = "S"
	Maternity    = "M"
	BusinessTrip = "BT"
	Absence      = "A"
	SelfVacation = "SV"
	Empty        = "E"
)

// DayType describes one day type and its behavioural flags.
type DayType struct {
	Code string
	Name string

	// IsTimeRanged requires start/end instants on the worker day.
	IsTimeRanged bool

	// IsDayoff marks non-working types (vacation, sick, holiday...).
	IsDayoff bool

	// IsWorkHours lets a dayoff type still count hours (business trip).
	// The work_hours figure is authored by the caller and passed through.
	IsWorkHours bool

	// IsReducingNormHours subtracts the day's norm from the monthly norm.
	IsReducingNormHours bool

	// UseWorkTypes requires work parts on the day.
	UseWorkTypes bool

	// AllowedAdditionalTypes lists day type codes whose plan rows may stack
	// as additional timesheet rows on top of a primary row of this type.
	AllowedAdditionalTypes []string
}

// AllowsAdditional reports whether code may stack as an additional row.
func (dt DayType) AllowsAdditional(code string) bool {
	for _, c := range dt.AllowedAdditionalTypes {
		if c == code {
			return true
		}
	}
	return false
}

// Registry holds the day types known to one network.
type Registry struct {
	mu    sync.RWMutex
	types map[string]DayType
}

// NewRegistry returns a registry seeded with the built-in day types.
func NewRegistry() *Registry {
	r := &Registry{types: make(map[string]DayType)}
	for _, dt := range builtins() {
		r.types[dt.Code] = dt
	}
	return r
}

func builtins() []DayType {
	return []DayType{
		{Code: Workday, Name: "Workday", IsTimeRanged: true, UseWorkTypes: true},
		{Code: Holiday, Name: "Holiday", IsDayoff: true},
		{Code: Vacation, Name: "Vacation", IsDayoff: true, IsReducingNormHours: true},
		{Code: SelfVacation, Name: "Unpaid vacation", IsDayoff: true, IsReducingNormHours: true},
		{Code: SickLeave, Name: "Sick leave", IsDayoff: true, IsReducingNormHours: true},
		{Code: Maternity, Name: "Maternity leave", IsDayoff: true, IsReducingNormHours: true},
		{Code: BusinessTrip, Name: "Business trip", IsDayoff: true, IsWorkHours: true, IsReducingNormHours: true},
		{Code: Absence, Name: "Absence", IsDayoff: true},
		{Code: Empty, Name: "Empty", IsDayoff: true},
	}
}

// Register adds or replaces a day type. Flags are validated so that later
// components can rely on them without re-checking.
func (r *Registry) Register(dt DayType) error {
	if dt.Code == "" {
		return fmt.Errorf("day type code is required")
	}
	if dt.UseWorkTypes && dt.IsReducingNormHours {
		return fmt.Errorf("day type %s: work types cannot coexist with norm reduction", dt.Code)
	}
	if dt.IsWorkHours && !dt.IsDayoff {
		return fmt.Errorf("day type %s: is_work_hours is only meaningful on dayoff types", dt.Code)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[dt.Code] = dt
	return nil
}

// Get returns the day type for code.
func (r *Registry) Get(code string) (DayType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dt, ok := r.types[code]
	return dt, ok
}

// Codes returns all registered codes.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.types))
	for c := range r.types {
		codes = append(codes, c)
	}
	return codes
}

// CountsWorkHours reports whether a day of this type contributes hours to
// the timesheet, either through a time range or an authored work_hours.
func (r *Registry) CountsWorkHours(code string) bool {
	dt, ok := r.Get(code)
	if !ok {
		return false
	}
	return !dt.IsDayoff || dt.IsWorkHours
}
