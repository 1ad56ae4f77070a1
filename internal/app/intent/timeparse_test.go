package intent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTime(t *testing.T) {
	// Monday
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		input string
		want  time.Time
	}{
		{"en 2 horas", now.Add(2 * time.Hour)},
		{"en media hora", now.Add(30 * time.Minute)},
		{"dentro de tres días", now.AddDate(0, 0, 3)},
		{"in 3 days", now.AddDate(0, 0, 3)},
		{"mañana a las 9", time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)},
		{"mañana a las 5", time.Date(2026, 3, 3, 17, 0, 0, 0, time.UTC)},
		{"mañana por la mañana", time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)},
		{"pasado mañana a las 7", time.Date(2026, 3, 4, 19, 0, 0, 0, time.UTC)},
		{"a las 8 de la mañana", time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)},
		{"a las 10:30", time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)},
		{"a las 6 y media", time.Date(2026, 3, 2, 18, 30, 0, 0, time.UTC)},
		{"el viernes", time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC)},
		{"el lunes a las 9", time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)},
		{"el 5 de marzo", time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)},
		{"el 1 de marzo", time.Date(2027, 3, 1, 9, 0, 0, 0, time.UTC)},
		{"el 10/04 al mediodía", time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)},
		{"esta noche", time.Date(2026, 3, 2, 21, 0, 0, 0, time.UTC)},
		{"tomorrow at 9pm", time.Date(2026, 3, 3, 21, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseTime(newText(tt.input), now, time.UTC)
			if assert.True(t, ok) {
				assert.Equal(t, tt.want, got.at)
				assert.True(t, got.at.After(now))
			}
		})
	}
}

func TestParseTimeRejects(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	for _, in := range []string{"hoy", "gasté 300 en pan", "el 31 de febrero", "1/2 taza de azúcar", "a las 25",
		"en 9999999999 horas", "en 3000000 semanas", "in 99999999999999999999 days",
	} {
		_, ok := parseTime(newText(in), now, time.UTC)
		assert.False(t, ok, in)
	}
}

func TestParseTimeLongRelativeOffset(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	got, ok := parseTime(newText("en 5000 semanas"), now, time.UTC)
	assert.True(t, ok)
	assert.Equal(t, now.Add(5000*7*24*time.Hour), got.at)
}

func TestParseTimeInLocation(t *testing.T) {
	loc := time.FixedZone("ART", -3*60*60)
	now := time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC) // 20:30 local

	got, ok := parseTime(newText("a las 9 de la noche"), now, loc)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 2, 21, 0, 0, 0, loc), got.at)
}

func TestParseTimeSpansStripCleanly(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	tx := newText("Llamar a Mamá mañana a las 5")

	got, ok := parseTime(tx, now, time.UTC)
	assert.True(t, ok)
	assert.Equal(t, "Llamar a Mamá", tx.without(got.spans...))
}

func TestTextWithoutKeepsAccents(t *testing.T) {
	tx := newText("Guardá en Cumpleaños: Ana")
	s, _, ok := tx.find(directiveRe)
	assert.True(t, ok)
	assert.Equal(t, "Guardá", tx.slice(s))
	assert.Equal(t, "en Cumpleaños: Ana", tx.without(s))
}
