// Package deadline resolves deadline phrases found in meeting notes
// ("next Friday", "in 2 weeks", "end of March", "by 2025-01-31") to a date.
package deadline

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layout is the date format used in extraction responses.
const Layout = "2006-01-02"

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

var months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

const (
	weekdayRe  = `monday|tuesday|wednesday|thursday|friday|saturday|sunday`
	monthRe    = `january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec`
	// monthDayRe only takes a capitalized May before a day number; lowercase
	// "may 2" is the modal verb.
	monthDayRe = `(?i:january|february|march|april|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)|May|MAY`
)

var (
	patNextThis    = regexp.MustCompile(`(?i)\b(next|this|coming)\s+(` + weekdayRe + `)\b`)
	patInN         = regexp.MustCompile(`(?i)\bin\s+(\d+)\s+(days?|weeks?|months?)\b`)
	patRelativeDay = regexp.MustCompile(`(?i)\b(today|tomorrow|yesterday)\b`)
	patBeforeMonth = regexp.MustCompile(`(?i)\b(?:before|by)\s+(?:the\s+end\s+of\s+)?(` + monthRe + `)\b(?:\s*[.,;]|\s*$|\s+[^\d\s])`)
	patEndOfMonth  = regexp.MustCompile(`(?i)\bend\s+of\s+(` + monthRe + `)\b`)
	patEndOfRel    = regexp.MustCompile(`(?i)\bend\s+of\s+(?:the\s+)?(day|week|month)\b`)
	patBefore      = regexp.MustCompile(`(?i)\b(?:before|by)\s+([\w\s,.-]+)`)
	patISO         = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	patMonthDay    = regexp.MustCompile(`\b(` + monthDayRe + `)\.?\s+(\d{1,2})(?i:st|nd|rd|th)?\b(?:,?\s+(\d{4}))?`)
	patDayMonth    = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthRe + `)\b(?:,?\s+(\d{4}))?`)
	patWeekday     = regexp.MustCompile(`(?i)^\s*(?:on\s+)?(` + weekdayRe + `)\b`)
)

// Midnight truncates t to the start of its day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Resolve finds the first deadline phrase in text and returns its date
// relative to today. Rules are tried in a fixed order and the first rule that
// matches wins, even if a later rule would match earlier in the text.
func Resolve(text string, today time.Time) (time.Time, bool) {
	today = Midnight(today)

	if m := patNextThis.FindStringSubmatch(text); m != nil {
		return weekdayDate(today, weekdays[strings.ToLower(m[2])], strings.ToLower(m[1])), true
	}
	if m := patInN.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return addUnits(today, n, strings.ToLower(m[2])), true
		}
	}
	if m := patRelativeDay.FindStringSubmatch(text); m != nil {
		switch strings.ToLower(m[1]) {
		case "today":
			return today, true
		case "tomorrow":
			return today.AddDate(0, 0, 1), true
		case "yesterday":
			return today.AddDate(0, 0, -1), true
		}
	}
	if m := patEndOfRel.FindStringSubmatch(text); m != nil {
		switch strings.ToLower(m[1]) {
		case "day":
			return today, true
		case "week":
			// Last working day of the current week.
			return weekdayDate(today, time.Friday, "this"), true
		case "month":
			return lastDayOfMonth(today.Year(), today.Month(), today.Location()), true
		}
	}
	if m := patBeforeMonth.FindStringSubmatch(text); m != nil {
		month := months[strings.ToLower(m[1])]
		return lastDayOfMonth(today.Year(), month, today.Location()), true
	}
	if m := patEndOfMonth.FindStringSubmatch(text); m != nil {
		month := months[strings.ToLower(m[1])]
		year := today.Year()
		if month < today.Month() {
			year++
		}
		return lastDayOfMonth(year, month, today.Location()), true
	}
	if m := patBefore.FindStringSubmatch(text); m != nil {
		if d, ok := parseDate(strings.Trim(m[1], " ,.;"), today); ok {
			return d, true
		}
	}
	return parseDate(text, today)
}

// Format resolves text and formats the result, or returns fallback.
func Format(text string, today time.Time, fallback string) string {
	if d, ok := Resolve(text, today); ok {
		return d.Format(Layout)
	}
	return fallback
}

// weekdayDate returns the target weekday counted from today. "this" and
// "coming" include today; "next" moves a full week ahead when the target is
// today.
func weekdayDate(today time.Time, target time.Weekday, modifier string) time.Time {
	ahead := (int(target) - int(today.Weekday()) + 7) % 7
	if modifier == "next" && ahead == 0 {
		ahead = 7
	}
	return today.AddDate(0, 0, ahead)
}

func addUnits(today time.Time, n int, unit string) time.Time {
	switch {
	case strings.HasPrefix(unit, "day"):
		return today.AddDate(0, 0, n)
	case strings.HasPrefix(unit, "week"):
		return today.AddDate(0, 0, 7*n)
	default:
		// Clamp to the end of the target month instead of overflowing.
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()).AddDate(0, n, 0)
		last := lastDayOfMonth(first.Year(), first.Month(), today.Location()).Day()
		day := today.Day()
		if day > last {
			day = last
		}
		return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, today.Location())
	}
}

func lastDayOfMonth(year int, month time.Month, loc *time.Location) time.Time {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc)
}

// parseDate understands ISO dates, "March 3[, 2025]", "3 March [2025]" and a
// leading weekday name. Dates without a year roll over to next year when they
// already passed.
func parseDate(s string, today time.Time) (time.Time, bool) {
	if m := patISO.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		if t, ok := validDate(y, time.Month(mo), d, today.Location()); ok {
			return t, true
		}
	}
	if m := patMonthDay.FindStringSubmatch(s); m != nil {
		d, _ := strconv.Atoi(m[2])
		if t, ok := dateWithOptionalYear(months[strings.ToLower(m[1])], d, m[3], today); ok {
			return t, true
		}
	}
	if m := patDayMonth.FindStringSubmatch(s); m != nil {
		d, _ := strconv.Atoi(m[1])
		if t, ok := dateWithOptionalYear(months[strings.ToLower(m[2])], d, m[3], today); ok {
			return t, true
		}
	}
	if m := patWeekday.FindStringSubmatch(s); m != nil {
		return weekdayDate(today, weekdays[strings.ToLower(m[1])], "this"), true
	}
	return time.Time{}, false
}

func dateWithOptionalYear(month time.Month, day int, year string, today time.Time) (time.Time, bool) {
	if year != "" {
		y, err := strconv.Atoi(year)
		if err != nil {
			return time.Time{}, false
		}
		return validDate(y, month, day, today.Location())
	}
	t, ok := validDate(today.Year(), month, day, today.Location())
	if !ok {
		return t, false
	}
	if t.Before(today) {
		return validDate(today.Year()+1, month, day, today.Location())
	}
	return t, true
}

// validDate rejects dates that time.Date would normalize, such as Feb 30.
func validDate(y int, m time.Month, d int, loc *time.Location) (time.Time, bool) {
	if m < time.January || m > time.December || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if t.Month() != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}
