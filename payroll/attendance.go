/*
attendance.go - Day-token codec

PURPOSE:
  Parses and serializes the per-day attendance tokens stored on an
  EmployeeMonth. Each token encodes one day's state:

    "P"     present, no overtime
    "P<n>"  present with n overtime hours (n positive integer)
    "A"     absent, no hours worked
    "A<n>"  absent from the normal shift but worked n hours anyway
            (emergency call-in) - paid as overtime, not a present day

STRICTNESS:
  Malformed tokens fail with InvalidAttendanceCodeError identifying the
  offending day. The calculator must never silently coerce bad data to
  absent/zero: a typo in a wage sheet is a correction, not a default.

ROUND-TRIP:
  Encode is the exact inverse of ParseDayCode for all valid forms.

SEE ALSO:
  - calculator.go: Consumes parsed day codes
  - errors.go: InvalidAttendanceCodeError
*/
package payroll

import "strconv"

// DayCode is one day's decoded attendance state.
type DayCode struct {
	// Present is true only for the "P"/"P<n>" forms.
	Present bool
	// Hours is the overtime (or emergency call-in) hours, 0 for bare tokens.
	Hours int
}

// ParseDayCode decodes a single day token. The returned error is an
// *InvalidAttendanceCodeError with DayIndex unset (-1); use ParseSheet when
// the day position is known.
func ParseDayCode(token string) (DayCode, error) {
	if token == "" {
		return DayCode{}, &InvalidAttendanceCodeError{DayIndex: -1, Token: token}
	}

	var code DayCode
	switch token[0] {
	case 'P':
		code.Present = true
	case 'A':
		code.Present = false
	default:
		return DayCode{}, &InvalidAttendanceCodeError{DayIndex: -1, Token: token}
	}

	suffix := token[1:]
	if suffix == "" {
		return code, nil
	}

	// Plain digits only, no sign and no leading zero: every stored token
	// has exactly one form, so encode(parse(token)) == token holds.
	if suffix[0] == '0' {
		return DayCode{}, &InvalidAttendanceCodeError{DayIndex: -1, Token: token}
	}
	hours := 0
	for i := 0; i < len(suffix); i++ {
		d := suffix[i]
		if d < '0' || d > '9' {
			return DayCode{}, &InvalidAttendanceCodeError{DayIndex: -1, Token: token}
		}
		hours = hours*10 + int(d-'0')
	}
	code.Hours = hours
	return code, nil
}

// Encode serializes a day code back to its token form.
// encode(parse(token)) == token for all valid tokens.
func (c DayCode) Encode() string {
	letter := "A"
	if c.Present {
		letter = "P"
	}
	if c.Hours == 0 {
		return letter
	}
	return letter + strconv.Itoa(c.Hours)
}

// ParseSheet decodes a full attendance sheet. On failure the returned
// *InvalidAttendanceCodeError carries the index of the offending day.
func ParseSheet(tokens []string) ([]DayCode, error) {
	codes := make([]DayCode, len(tokens))
	for i, token := range tokens {
		code, err := ParseDayCode(token)
		if err != nil {
			return nil, &InvalidAttendanceCodeError{DayIndex: i, Token: token}
		}
		codes[i] = code
	}
	return codes, nil
}

// NewAbsentSheet returns a fresh all-absent sheet for a month with the given
// day count. A newly created or imported month starts with no attendance
// recorded.
func NewAbsentSheet(days int) []string {
	sheet := make([]string, days)
	for i := range sheet {
		sheet[i] = "A"
	}
	return sheet
}
