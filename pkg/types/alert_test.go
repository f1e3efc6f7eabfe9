package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseSeverity(t *testing.T) {
	cases := map[string]Severity{
		"critical": SeverityCritical,
		"Critica":  SeverityCritical,
		"crítica":  SeverityCritical,
		" alta ":   SeverityHigh,
		"MEDIA":    SeverityMedium,
		"média":    SeverityMedium,
		"baixa":    SeverityLow,
		"low":      SeverityLow,
	}
	for in, want := range cases {
		got, ok := ParseSeverity(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseSeverity("urgent")
	assert.False(t, ok)
}

func TestParseStatus(t *testing.T) {
	for in, want := range map[string]Status{
		"aberto":   StatusOpen,
		"Fechado":  StatusClosed,
		"pendente": StatusPending,
		"open":     StatusOpen,
	} {
		got, ok := ParseStatus(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseStatus("all")
	assert.False(t, ok)
}

func TestFormatOpened(t *testing.T) {
	ts := time.Date(2024, 1, 28, 15, 40, 5, 0, time.UTC)
	a := Alert{OpenedAt: &ts, OpenedRaw: "2024-01-28T15:40:05Z"}
	assert.Equal(t, "28/01/2024 15:40:05", a.FormatOpened(nil))

	loc := time.FixedZone("BRT", -3*60*60)
	assert.Equal(t, "28/01/2024 12:40:05", a.FormatOpened(loc))
}

func TestFormatOpened_UnparsableShowsRaw(t *testing.T) {
	a := Alert{OpenedRaw: "ontem à tarde"}
	assert.Equal(t, "ontem à tarde", a.FormatOpened(time.UTC))
}
