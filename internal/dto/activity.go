package dto

// ActivityQuery captures activity listing parameters.
type ActivityQuery struct {
	Action string `form:"action"`
	Search string `form:"search"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=500"`
}
