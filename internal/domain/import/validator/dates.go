package validator

import (
	"fmt"
	"strings"
	"time"
)

// dateFormats are tried in order. ISO first, then the common locale
// variants seen in uploaded media plans.
var dateFormats = []string{
	"2006-01-02",           // ISO 8601
	"02/01/2006",           // DD/MM/YYYY (European)
	"01/02/2006",           // MM/DD/YYYY (American)
	"02-01-2006",           // DD-MM-YYYY
	"2006/01/02",           // YYYY/MM/DD
	"02.01.2006",           // DD.MM.YYYY (German)
	"2 Jan 2006",           // 1 Feb 2025
	"Jan 2, 2006",          // Feb 1, 2025
	"2006-01-02T15:04:05Z", // ISO 8601 with time
	"2006-01-02 15:04:05",  // ISO with space
}

// ParseDate parses a date under the tolerant multi-format rules used by
// the validator. Exposed so the import commit path parses dates the same
// way they were validated.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date format: %s", s)
}
