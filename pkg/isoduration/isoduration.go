// Package isoduration parses ISO-8601 duration strings such as "P7DT12H" or
// "PT30M" into time.Duration values.
//
// The same parser backs request validation and rule evaluation so a condition
// value accepted at write time always evaluates the same way at read time.
package isoduration

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sosodev/duration"
)

// Years and months use fixed lengths, not calendar averages.
const (
	day   = 24 * time.Hour
	week  = 7 * day
	month = 30 * day
	year  = 365 * day
)

var (
	errEmptyDesignator = errors.New("no duration components")
	errOutOfRange      = errors.New("exceeds the representable range")
)

// MalformedDurationError reports a value that does not follow the ISO-8601
// duration grammar P[n]Y[n]M[n]W[n]DT[n]H[n]M[n]S.
type MalformedDurationError struct {
	Input string
	Err   error
}

func (e *MalformedDurationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("malformed duration %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("malformed duration %q", e.Input)
}

func (e *MalformedDurationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsMalformed reports whether err wraps a MalformedDurationError.
func IsMalformed(err error) bool {
	var mErr *MalformedDurationError
	return errors.As(err, &mErr)
}

// Parse converts text into a time.Duration.
func Parse(text string) (time.Duration, error) {
	trimmed := strings.TrimSpace(text)
	if err := precheck(trimmed); err != nil {
		return 0, &MalformedDurationError{Input: text, Err: err}
	}

	parsed, err := duration.Parse(trimmed)
	if err != nil {
		return 0, &MalformedDurationError{Input: text, Err: err}
	}
	d, err := toDuration(parsed)
	if err != nil {
		return 0, &MalformedDurationError{Input: text, Err: err}
	}
	return d, nil
}

// toDuration sums the components in float64 so values beyond the
// time.Duration range are reported instead of wrapping around.
func toDuration(p *duration.Duration) (time.Duration, error) {
	total := p.Years*float64(year) +
		p.Months*float64(month) +
		p.Weeks*float64(week) +
		p.Days*float64(day) +
		p.Hours*float64(time.Hour) +
		p.Minutes*float64(time.Minute) +
		p.Seconds*float64(time.Second)

	total = math.Round(total)
	if math.IsNaN(total) || math.Abs(total) >= math.MaxInt64 {
		return 0, errOutOfRange
	}
	d := time.Duration(total)
	if p.Negative {
		d = -d
	}
	return d, nil
}

// Validate checks that text parses without returning the value.
func Validate(text string) error {
	_, err := Parse(text)
	return err
}

// Format renders d in the canonical day/hour/minute/second form, e.g. "P1DT2H".
func Format(d time.Duration) string {
	if d == 0 {
		return "PT0S"
	}

	var b strings.Builder
	if d < 0 {
		b.WriteByte('-')
		d = -d
	}
	b.WriteByte('P')

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	if days > 0 {
		fmt.Fprintf(&b, "%dD", days)
	}
	if d == 0 {
		return b.String()
	}

	b.WriteByte('T')
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	if hours > 0 {
		fmt.Fprintf(&b, "%dH", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%dM", minutes)
	}
	if d > 0 {
		if d%time.Second == 0 {
			fmt.Fprintf(&b, "%dS", d/time.Second)
		} else {
			fmt.Fprintf(&b, "%gS", d.Seconds())
		}
	}
	return b.String()
}

// precheck rejects shapes the underlying parser tolerates but the grammar does not.
func precheck(text string) error {
	body := strings.TrimPrefix(text, "-")
	switch {
	case body == "":
		return errEmptyDesignator
	case body[0] != 'P':
		return fmt.Errorf("must start with P")
	case body == "P" || body == "PT":
		return errEmptyDesignator
	case strings.HasSuffix(body, "T"):
		return fmt.Errorf("time designator without components")
	}
	return nil
}
