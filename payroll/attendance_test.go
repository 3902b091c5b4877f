package payroll_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/payroll"
)

func TestParseDayCode_ValidForms(t *testing.T) {
	cases := []struct {
		token   string
		present bool
		hours   int
	}{
		{"P", true, 0},
		{"A", false, 0},
		{"P4", true, 4},
		{"P12", true, 12},
		{"A2", false, 2},
	}

	for _, tc := range cases {
		code, err := payroll.ParseDayCode(tc.token)
		require.NoError(t, err, "token %q", tc.token)
		assert.Equal(t, tc.present, code.Present, "token %q", tc.token)
		assert.Equal(t, tc.hours, code.Hours, "token %q", tc.token)
	}
}

func TestParseDayCode_MalformedTokens_Rejected(t *testing.T) {
	// "P+4", "P04" and "P 4" would slip through a plain Atoi and break the
	// one-token-one-form round trip.
	for _, token := range []string{"", "X", "p", "P0", "P-1", "A0", "Pfour", "4P", " P", "P+4", "P04", "A02", "P 4"} {
		_, err := payroll.ParseDayCode(token)
		assert.Error(t, err, "token %q should be rejected", token)
		assert.ErrorIs(t, err, payroll.ErrInvalidAttendanceCode, "token %q", token)
	}
}

func TestEncode_InverseOfParse(t *testing.T) {
	for _, token := range []string{"P", "A", "P1", "P8", "A2", "P16"} {
		code, err := payroll.ParseDayCode(token)
		require.NoError(t, err)
		assert.Equal(t, token, code.Encode())
	}
}

func TestParseSheet_ReportsOffendingDay(t *testing.T) {
	_, err := payroll.ParseSheet([]string{"P", "P", "X7", "A"})
	require.Error(t, err)

	var codeErr *payroll.InvalidAttendanceCodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, 2, codeErr.DayIndex)
	assert.Equal(t, "X7", codeErr.Token)
}

func TestNewAbsentSheet(t *testing.T) {
	sheet := payroll.NewAbsentSheet(31)
	require.Len(t, sheet, 31)
	for _, token := range sheet {
		assert.Equal(t, "A", token)
	}
}
