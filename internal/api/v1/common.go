package v1

import (
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// withDefaultPagination fills in the default page size when the query carried none
func withDefaultPagination(f *types.QueryFilter) *types.QueryFilter {
	if f == nil {
		return types.NewDefaultQueryFilter()
	}
	if f.Limit == nil {
		f.Limit = lo.ToPtr(types.FILTER_DEFAULT_LIMIT)
	}
	return f
}

// requiredParam reads a path parameter and attaches a validation error when it is empty
func requiredParam(c *gin.Context, name, hint string) (string, bool) {
	v := c.Param(name)
	if v == "" {
		c.Error(ierr.NewErrorf("%s is required", name).
			WithHint(hint).
			Mark(ierr.ErrValidation))
		return "", false
	}
	return v, true
}

func invalidRequest(c *gin.Context, err error) {
	c.Error(ierr.WithError(err).
		WithHint("Invalid request format").
		Mark(ierr.ErrValidation))
}

func invalidFilter(c *gin.Context, err error) {
	c.Error(ierr.WithError(err).
		WithHint("Invalid filter parameters").
		Mark(ierr.ErrValidation))
}
