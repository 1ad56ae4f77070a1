package intent

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var numberWords = map[string]int{
	"un": 1, "una": 1, "uno": 1, "dos": 2, "tres": 3, "cuatro": 4, "cinco": 5, "seis": 6, "siete": 7,
	"ocho": 8, "nueve": 9, "diez": 10, "quince": 15, "veinte": 20, "treinta": 30,
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7,
	"eight": 8, "nine": 9, "ten": 10,
}

var weekdays = map[string]time.Weekday{
	"domingo": time.Sunday, "lunes": time.Monday, "martes": time.Tuesday, "miercoles": time.Wednesday,
	"jueves": time.Thursday, "viernes": time.Friday, "sabado": time.Saturday,
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
}

var months = map[string]time.Month{
	"enero": time.January, "febrero": time.February, "marzo": time.March, "abril": time.April,
	"mayo": time.May, "junio": time.June, "julio": time.July, "agosto": time.August,
	"septiembre": time.September, "setiembre": time.September, "octubre": time.October,
	"noviembre": time.November, "diciembre": time.December,
}

var (
	relativeRe = regexp.MustCompile(`\b(?:en|dentro de|in)\s+(\d+|un|una|uno|dos|tres|cuatro|cinco|seis|siete|ocho|nueve|diez|quince|veinte|treinta|an?|one|two|three|four|five|six|seven|eight|nine|ten)\s+(minutos?|mins?|horas?|hrs?|dias?|semanas?|minutes?|hours?|days?|weeks?)\b`)
	halfHourRe = regexp.MustCompile(`\b(?:(?:en|dentro de)\s+media\s+hora|in\s+half\s+an\s+hour)\b`)

	dayAfterRe = regexp.MustCompile(`\bpasado\s+manana\b`)
	tomorrowRe = regexp.MustCompile(`\b(?:manana|tomorrow)\b`)
	todayRe    = regexp.MustCompile(`\b(?:hoy|today)\b`)
	tonightRe  = regexp.MustCompile(`\b(?:esta\s+noche|tonight)\b`)
	weekdayRe  = regexp.MustCompile(`\b(?:(?:el|este|on)\s+)?(?:(?:proximo|next)\s+)?(lunes|martes|miercoles|jueves|viernes|sabado|domingo|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	dateRe     = regexp.MustCompile(`\b(?:el\s+)?(\d{1,2})\s+de\s+(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre)\b`)
	numDateRe  = regexp.MustCompile(`\bel\s+(\d{1,2})/(\d{1,2})(?:/(\d{4}))?\b`)

	clockRe  = regexp.MustCompile(`\b(?:(?:a|sobre)\s+las?|at|tipo)\s+(\d{1,2})(?::(\d{2})|\s+y\s+(media|cuarto))?\s*(am|pm|hs|h)?(?:\s+(?:de|por|en)\s+la\s+(manana|tarde|noche))?\b`)
	bareHMRe = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(am|pm|hs|h)?\b`)
	noonRe   = regexp.MustCompile(`\b(?:al\s+)?mediodia\b|\bat\s+noon\b`)
	periodRe = regexp.MustCompile(`\b(?:por|en|de|a)\s+la\s+(manana|tarde|noche)\b|\bin\s+the\s+(morning|afternoon|evening)\b`)
)

type dayKind int

const (
	dayNone dayKind = iota
	dayFixed        // hoy, mañana, pasado mañana
	dayWeekday
	dayOfYear
)

// timeMatch is a parsed time expression and where it was found.
type timeMatch struct {
	at    time.Time
	spans []span
	// todayOnly marks a bare "hoy" with no time of day.
	todayOnly bool
}

// parseTime finds a future point in time described in t, relative to now in loc.
func parseTime(t text, now time.Time, loc *time.Location) (timeMatch, bool) {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)

	if s, _, ok := t.find(halfHourRe); ok {
		return timeMatch{at: now.Add(30 * time.Minute), spans: []span{s}}, true
	}
	if s, subs, ok := t.find(relativeRe); ok {
		if d, ok := relativeDuration(subs[1], subs[2]); ok {
			return timeMatch{at: now.Add(d), spans: []span{s}}, true
		}
	}

	var (
		m    timeMatch
		kind = dayNone
		date = now
	)

	// "mañana" inside "por la mañana" is a part of day, not a date.
	periodSpan, periodSubs, hasPeriod := t.find(periodRe)

	switch {
	case matchInto(t, dayAfterRe, &m):
		kind, date = dayFixed, now.AddDate(0, 0, 2)
	case matchTomorrow(t, periodSpan, hasPeriod, &m):
		kind, date = dayFixed, now.AddDate(0, 0, 1)
	default:
		if s, subs, ok := t.find(dateRe); ok {
			day, _ := strconv.Atoi(subs[1])
			date = time.Date(now.Year(), months[subs[2]], day, 0, 0, 0, 0, loc)
			if date.Day() != day {
				return timeMatch{}, false
			}
			kind = dayOfYear
			m.spans = append(m.spans, s)
		} else if s, subs, ok := t.find(numDateRe); ok {
			day, _ := strconv.Atoi(subs[1])
			month, _ := strconv.Atoi(subs[2])
			year := now.Year()
			if subs[3] != "" {
				year, _ = strconv.Atoi(subs[3])
			}
			if month < 1 || month > 12 {
				break
			}
			date = time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
			if date.Day() != day {
				return timeMatch{}, false
			}
			kind = dayOfYear
			if subs[3] != "" {
				kind = dayFixed
			}
			m.spans = append(m.spans, s)
		} else if s, subs, ok := t.find(weekdayRe); ok {
			ahead := (int(weekdays[subs[1]]) - int(now.Weekday()) + 7) % 7
			kind, date = dayWeekday, now.AddDate(0, 0, ahead)
			m.spans = append(m.spans, s)
		} else if matchInto(t, tonightRe, &m) {
			kind = dayFixed
			if !hasPeriod {
				hasPeriod, periodSubs = true, []string{"", "noche", ""}
			}
		} else if matchInto(t, todayRe, &m) {
			kind = dayFixed
		}
	}

	hour, minute, hasClock := parseClock(t, &m)
	if !hasClock && hasPeriod {
		m.spans = append(m.spans, periodSpan)
		hour, minute = periodDefault(periodSubs[1] + periodSubs[2]), 0
		hasClock = true
	}

	if kind == dayNone && !hasClock {
		return timeMatch{}, false
	}
	if !hasClock {
		hour, minute = 9, 0
		m.todayOnly = kind == dayFixed && sameDay(date, now)
	}

	m.at = time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
	if !m.at.After(now) {
		switch kind {
		case dayNone:
			m.at = m.at.AddDate(0, 0, 1)
		case dayWeekday:
			m.at = m.at.AddDate(0, 0, 7)
		case dayOfYear:
			m.at = m.at.AddDate(1, 0, 0)
		default:
			return timeMatch{}, false
		}
	}
	return m, true
}

func matchInto(t text, re *regexp.Regexp, m *timeMatch) bool {
	s, _, ok := t.find(re)
	if ok {
		m.spans = append(m.spans, s)
	}
	return ok
}

func matchTomorrow(t text, period span, hasPeriod bool, m *timeMatch) bool {
	for _, loc := range tomorrowRe.FindAllStringIndex(t.fold, -1) {
		s := t.runeSpan(loc[0], loc[1])
		if hasPeriod && s.start >= period.start && s.end <= period.end {
			continue
		}
		m.spans = append(m.spans, s)
		return true
	}
	return false
}

// parseClock reads "a las 5", "a las 17:30", "at 9pm", "10:15".
func parseClock(t text, m *timeMatch) (hour, minute int, ok bool) {
	if s, _, found := t.find(noonRe); found {
		m.spans = append(m.spans, s)
		return 12, 0, true
	}

	var subs []string
	var s span
	if s, subs, ok = t.find(clockRe); ok {
		hour, _ = strconv.Atoi(subs[1])
		switch {
		case subs[2] != "":
			minute, _ = strconv.Atoi(subs[2])
		case subs[3] == "media":
			minute = 30
		case subs[3] == "cuarto":
			minute = 15
		}
		hour, ok = adjustHour(hour, subs[4], subs[5])
	} else if s, subs, ok = t.find(bareHMRe); ok {
		hour, _ = strconv.Atoi(subs[1])
		minute, _ = strconv.Atoi(subs[2])
		hour, ok = adjustHour(hour, subs[3], "")
	}
	if !ok || minute > 59 {
		return 0, 0, false
	}
	m.spans = append(m.spans, s)
	return hour, minute, true
}

// adjustHour applies am/pm or a part of day. A bare 1 to 7 means afternoon.
func adjustHour(hour int, suffix, period string) (int, bool) {
	if hour > 23 {
		return 0, false
	}
	switch {
	case suffix == "pm" || period == "tarde" || period == "noche":
		if hour < 12 {
			hour += 12
		}
	case suffix == "am" || period == "manana":
		if hour == 12 {
			hour = 0
		}
	case hour >= 1 && hour <= 7:
		hour += 12
	}
	return hour, true
}

func periodDefault(period string) int {
	switch period {
	case "manana", "morning":
		return 9
	case "tarde", "afternoon":
		return 15
	default:
		return 21
	}
}

// maxRelative bounds "en N horas" well below the range of time.Duration.
const maxRelative = 100 * 365 * 24 * time.Hour

func relativeDuration(n, unit string) (time.Duration, bool) {
	count, err := strconv.Atoi(n)
	if err != nil {
		var ok bool
		if count, ok = numberWords[n]; !ok {
			return 0, false
		}
	}
	if count <= 0 {
		return 0, false
	}
	var d time.Duration
	switch {
	case strings.HasPrefix(unit, "min"):
		d = time.Minute
	case strings.HasPrefix(unit, "h"):
		d = time.Hour
	case strings.HasPrefix(unit, "d"):
		d = 24 * time.Hour
	default:
		d = 7 * 24 * time.Hour
	}
	if count > int(maxRelative/d) {
		return 0, false
	}
	return time.Duration(count) * d, true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
