package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PabloGalante/noto-agent/internal/domain"
)

func TestNormalizeCategory(t *testing.T) {
	cases := map[string]string{
		"gastos":     "Gastos",
		"GASTOS":     "Gastos",
		"  ideas ":   "Ideas",
		"cumpleaños": "Cumpleaños",
		"Él":         "Él",
		"":           "General",
	}
	for in, want := range cases {
		assert.Equal(t, want, domain.NormalizeCategory(in), "input %q", in)
	}
}

func TestCategoryPolicy(t *testing.T) {
	p := domain.NewCategoryPolicy(domain.DefaultCategories)

	assert.Equal(t, "Gastos", p.Resolve("gastos"))
	assert.Equal(t, "General", p.Resolve("viajes"))
	assert.False(t, p.Allowed("viajes"))

	open := domain.NewCategoryPolicy(nil)
	assert.Equal(t, "Viajes", open.Resolve("VIAJES"))
	assert.True(t, open.Allowed("cualquiera"))
}

func TestMalformedOutputIsGenerationFailure(t *testing.T) {
	assert.ErrorIs(t, domain.ErrMalformedOutput, domain.ErrGenerationFailure)
}
