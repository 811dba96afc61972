package dto

// CreateCourseRequest captures POST /courses payload.
type CreateCourseRequest struct {
	Code  string `json:"code" validate:"required,max=32"`
	Name  string `json:"name" validate:"required,max=128"`
	Color string `json:"color" validate:"required,hexcolor"`
}

// UpdateCourseRequest captures PATCH /courses/:id payload.
type UpdateCourseRequest struct {
	Code  *string `json:"code" validate:"omitempty,min=1,max=32"`
	Name  *string `json:"name" validate:"omitempty,min=1,max=128"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
}
