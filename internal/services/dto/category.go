package dto

type CategoryRequest struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
}
