package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/swrite/internal/domain"
)

func TestRequiresReplan_NoPriorConfig(t *testing.T) {
	assert.True(t, RequiresReplan(nil, domain.DefaultLayout()))
}

func TestRequiresReplan_Identical(t *testing.T) {
	cfg := domain.DefaultLayout()
	assert.False(t, RequiresReplan(&cfg, cfg))
}

func TestRequiresReplan_CapacityFields(t *testing.T) {
	base := domain.DefaultLayout()

	tests := []struct {
		name   string
		mutate func(*domain.LayoutConfig)
	}{
		{"page size", func(c *domain.LayoutConfig) { c.PageSize = "A5" }},
		{"margin left", func(c *domain.LayoutConfig) { c.MarginLeft += 10 }},
		{"margin top", func(c *domain.LayoutConfig) { c.MarginTop += 10 }},
		{"margin bottom", func(c *domain.LayoutConfig) { c.MarginBottom += 10 }},
		{"header space", func(c *domain.LayoutConfig) { c.HeaderSpace += 5 }},
		{"footer space", func(c *domain.LayoutConfig) { c.FooterSpace += 5 }},
		{"line spacing", func(c *domain.LayoutConfig) { c.LineSpacing = "relaxed" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := base
			tt.mutate(&next)
			assert.True(t, RequiresReplan(&base, next))
		})
	}
}

func TestRequiresReplan_Symmetric(t *testing.T) {
	a := domain.DefaultLayout()
	b := a
	b.MarginLeft = 72

	assert.Equal(t, RequiresReplan(&a, b), RequiresReplan(&b, a))
}
