package types

// UsageFilter represents filters for usage record queries
type UsageFilter struct {
	*QueryFilter

	CustomerID string `json:"customer_id,omitempty" form:"customer_id"`
	PlanID     string `json:"plan_id,omitempty" form:"plan_id"`
}

// NewUsageFilter creates a new usage filter with default options
func NewUsageFilter() *UsageFilter {
	return &UsageFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

func (f UsageFilter) Validate() error {
	return f.QueryFilter.Validate()
}

// NewNoLimitUsageFilter creates a new usage filter without pagination
func NewNoLimitUsageFilter() *UsageFilter {
	return &UsageFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}
