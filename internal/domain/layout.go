package domain

import (
	"github.com/go-playground/validator/v10"
)

// LayoutConfig holds the layout parameters applied to a job. The seven fields
// here are exactly the ones the replan decision compares: each of them changes
// how much handwriting fits on a page.
type LayoutConfig struct {
	PageSize     string `json:"page_size" validate:"required,oneof=A4 A5 Letter"`
	MarginLeft   int    `json:"margin_left" validate:"gte=0,lte=300"`
	MarginTop    int    `json:"margin_top" validate:"gte=0,lte=300"`
	MarginBottom int    `json:"margin_bottom" validate:"gte=0,lte=300"`
	HeaderSpace  int    `json:"header_space" validate:"gte=0,lte=300"`
	FooterSpace  int    `json:"footer_space" validate:"gte=0,lte=300"`
	LineSpacing  string `json:"line_spacing" validate:"required,oneof=compact normal relaxed"`
}

// DefaultLayout returns the layout used by the initial planning pass.
func DefaultLayout() LayoutConfig {
	return LayoutConfig{
		PageSize:     "A4",
		MarginLeft:   48,
		MarginTop:    64,
		MarginBottom: 64,
		HeaderSpace:  40,
		FooterSpace:  30,
		LineSpacing:  "normal",
	}
}

// Validate validates the LayoutConfig using the validator.
func (c *LayoutConfig) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}
