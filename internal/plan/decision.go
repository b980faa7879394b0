package plan

import "github.com/jonathan/swrite/internal/domain"

// RequiresReplan decides whether a newly submitted layout configuration
// invalidates the stored plan. With no prior configuration the answer is
// always yes. Otherwise every capacity-affecting field is compared; a change
// to any of them can shift page boundaries and forces the expensive vision
// call, while any other difference is a cheap config-only update.
func RequiresReplan(old *domain.LayoutConfig, next domain.LayoutConfig) bool {
	if old == nil {
		return true
	}
	return old.PageSize != next.PageSize ||
		old.MarginLeft != next.MarginLeft ||
		old.MarginTop != next.MarginTop ||
		old.MarginBottom != next.MarginBottom ||
		old.HeaderSpace != next.HeaderSpace ||
		old.FooterSpace != next.FooterSpace ||
		old.LineSpacing != next.LineSpacing
}
