package dto

import (
	ierr "github.com/flexprice/subscription-billing/internal/errors"
)

func invalidField(field, hint string) error {
	return ierr.NewErrorf("invalid %s", field).
		WithHint(hint).
		WithReportableDetails(map[string]any{
			"field": field,
		}).
		Mark(ierr.ErrValidation)
}
