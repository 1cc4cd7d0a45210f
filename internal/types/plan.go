package types

// PlanFilter represents filters for plan queries
type PlanFilter struct {
	*QueryFilter

	PlanIDs []string `json:"plan_ids,omitempty" form:"plan_ids"`
}

// NewPlanFilter creates a new plan filter with default options
func NewPlanFilter() *PlanFilter {
	return &PlanFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

// NewNoLimitPlanFilter creates a new plan filter without pagination
func NewNoLimitPlanFilter() *PlanFilter {
	return &PlanFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

// Validate validates the filter options
func (f PlanFilter) Validate() error {
	return f.QueryFilter.Validate()
}
