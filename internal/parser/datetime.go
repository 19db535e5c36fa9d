package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const fullLayout = "2006/1/2 15:04"

var (
	dateShape     = regexp.MustCompile(`^(\d{4}/)?\d{1,2}/\d{1,2}$`)
	timeShape     = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	shortDateTime = regexp.MustCompile(`^\d{1,2}/\d{1,2} \d{1,2}:\d{2}$`)
	fullDateTime  = regexp.MustCompile(`^\d{4}/\d{1,2}/\d{1,2} \d{1,2}:\d{2}$`)
)

// IsDateToken reports whether s looks like M/d or yyyy/M/d.
func IsDateToken(s string) bool {
	return dateShape.MatchString(s)
}

// IsTimeToken reports whether s looks like H:mm.
func IsTimeToken(s string) bool {
	return timeShape.MatchString(s)
}

// ResolveDateTime resolves "yyyy/M/d H:mm" or "M/d H:mm" to an instant in loc.
// The short form takes its year from now as seen in loc. It returns false for
// any other shape and for impossible dates such as 2/30 or 25:00.
func ResolveDateTime(raw string, now time.Time, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	raw = strings.Join(strings.Fields(raw), " ")

	switch {
	case fullDateTime.MatchString(raw):
	case shortDateTime.MatchString(raw):
		raw = strconv.Itoa(now.In(loc).Year()) + "/" + raw
	default:
		return time.Time{}, false
	}

	t, err := time.ParseInLocation(fullLayout, raw, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDateTime renders an instant the way users type it.
func FormatDateTime(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(fullLayout)
}
