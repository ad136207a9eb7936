package dto

import (
	"io"

	"designhub_backend/internal/models"
)

type SubmitDeliverableRequest struct {
	Title       string `form:"title" validate:"required,notblank,max=200"`
	Description string `form:"description" validate:"max=5000"`
}

type UpdateDeliverableRequest struct {
	Title       *string `form:"title" validate:"omitempty,notblank,max=200"`
	Description *string `form:"description" validate:"omitempty,max=5000"`
}

type ReviewDeliverableRequest struct {
	Status   models.DeliverableStatus `json:"status" validate:"required,is-review-status"`
	Feedback string                   `json:"feedback" validate:"max=2000"`
}

// DownloadResult - открытый поток файла; Body закрывает вызывающий
type DownloadResult struct {
	Body        io.ReadCloser
	FileName    string
	ContentType string
	Size        int64
}
