package recurrence

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Weekdays is the set of weekdays a chore recurs on, one bit per
// time.Weekday (bit 0 = Sunday).
type Weekdays uint8

// EveryDay contains all seven weekdays.
const EveryDay Weekdays = 1<<7 - 1

var dayNames = map[string]time.Weekday{
	"SU": time.Sunday,
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
}

var dayAbbrev = map[time.Weekday]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

// NewWeekdays builds a set from the given days.
func NewWeekdays(days ...time.Weekday) Weekdays {
	var w Weekdays
	for _, d := range days {
		w |= 1 << uint(d)
	}
	return w
}

// Has reports whether d is in the set.
func (w Weekdays) Has(d time.Weekday) bool {
	return w&(1<<uint(d)) != 0
}

// Empty reports whether the set has no days.
func (w Weekdays) Empty() bool {
	return w&EveryDay == 0
}

// Days returns the days in the set, Sunday first.
func (w Weekdays) Days() []time.Weekday {
	var days []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if w.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

// Names returns lowercase English day names ("monday"), Sunday first.
func (w Weekdays) Names() []string {
	names := []string{}
	for _, d := range w.Days() {
		names = append(names, strings.ToLower(d.String()))
	}
	return names
}

// Parse parses the weekly subset of RRULE used for chores:
// "FREQ=DAILY" or "FREQ=WEEKLY;BYDAY=MO,WE,FR". An empty rule is an empty set.
func Parse(rule string) (Weekdays, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return 0, nil
	}

	var (
		freq    string
		byDay   Weekdays
		hasDays bool
	)

	parts := strings.Split(rule, ";")
	for _, part := range parts {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return 0, fmt.Errorf("invalid rule part: %q", part)
		}
		key, val := kv[0], kv[1]

		switch key {
		case "FREQ":
			if val != "DAILY" && val != "WEEKLY" {
				return 0, fmt.Errorf("unsupported frequency: %q", val)
			}
			freq = val

		case "INTERVAL":
			if val != "1" {
				return 0, fmt.Errorf("unsupported interval: %q", val)
			}

		case "BYDAY":
			for _, d := range strings.Split(val, ",") {
				wd, ok := dayNames[strings.TrimSpace(d)]
				if !ok {
					return 0, fmt.Errorf("unknown day: %q", d)
				}
				byDay |= NewWeekdays(wd)
				hasDays = true
			}

		default:
			return 0, fmt.Errorf("unsupported rule key: %q", key)
		}
	}

	switch freq {
	case "":
		return 0, fmt.Errorf("FREQ is required")
	case "DAILY":
		if hasDays {
			return byDay, nil
		}
		return EveryDay, nil
	default:
		if !hasDays {
			return 0, fmt.Errorf("WEEKLY rule requires BYDAY")
		}
		return byDay, nil
	}
}

// ParseNames builds a set from day names. Full names ("Monday"),
// three-letter names ("mon") and RRULE abbreviations ("MO") are accepted.
func ParseNames(names []string) (Weekdays, error) {
	var w Weekdays
	for _, n := range names {
		key := strings.ToUpper(strings.TrimSpace(n))
		if len(key) > 2 {
			key = key[:2]
		}
		wd, ok := dayNames[key]
		if !ok || !validName(n) {
			return 0, fmt.Errorf("unknown day: %q", n)
		}
		w |= NewWeekdays(wd)
	}
	return w, nil
}

func validName(n string) bool {
	n = strings.ToLower(strings.TrimSpace(n))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if n == full || n == full[:3] || n == full[:2] {
			return true
		}
	}
	return false
}

// String serializes the set as an RRULE string. Every day collapses to
// FREQ=DAILY; the empty set is "".
func (w Weekdays) String() string {
	switch {
	case w.Empty():
		return ""
	case w&EveryDay == EveryDay:
		return "FREQ=DAILY"
	}

	var days []string
	for _, d := range w.Days() {
		days = append(days, dayAbbrev[d])
	}
	return "FREQ=WEEKLY;BYDAY=" + strings.Join(days, ",")
}

// Describe returns a human-readable description of the set.
func (w Weekdays) Describe() string {
	switch {
	case w.Empty():
		return "Never"
	case w&EveryDay == EveryDay:
		return "Every day"
	case w == NewWeekdays(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday):
		return "Weekdays"
	}

	var names []string
	for _, d := range w.Days() {
		names = append(names, d.String()[:3])
	}
	return "Every " + strings.Join(names, ", ")
}

// MarshalJSON encodes the set as a list of lowercase day names, the shape
// the chore form submits as "frequency".
func (w Weekdays) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Names())
}

// UnmarshalJSON accepts either a list of day names or an RRULE string.
func (w *Weekdays) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		parsed, err := ParseNames(names)
		if err != nil {
			return err
		}
		*w = parsed
		return nil
	}

	var rule string
	if err := json.Unmarshal(data, &rule); err != nil {
		return fmt.Errorf("weekdays: expected list of day names or rule string")
	}
	parsed, err := Parse(rule)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
