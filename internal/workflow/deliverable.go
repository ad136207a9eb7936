package workflow

import (
	"errors"
	"mime"
	"net/url"
	"path"
	"strings"

	"designhub_backend/internal/models"
)

var (
	ErrDeliverableLocked     = errors.New("only PENDING or REJECTED deliverables can be updated")
	ErrAlreadyReviewed       = errors.New("deliverable has already been reviewed")
	ErrFeedbackRequired      = errors.New("feedback is required when rejecting")
	ErrInvalidReviewStatus   = errors.New("review status must be APPROVED or REJECTED")
	ErrOrderNotAcceptingWork = errors.New("order is not accepting deliverables")
)

// CanSubmitDeliverable - новые работы принимаются в in_progress/revision/completed.
// Лимит правок действует только пока заказ в работе: принятый клиентом заказ
// получает финальную работу даже после исчерпания лимита.
func CanSubmitDeliverable(o *models.Order) error {
	switch o.Status {
	case models.OrderStatusInProgress, models.OrderStatusRevision:
		if RevisionLimitReached(o) {
			return ErrRevisionLimitReached
		}
	case models.OrderStatusCompleted:
	default:
		return ErrOrderNotAcceptingWork
	}
	return nil
}

// CanEditDeliverable - дизайнер правит только PENDING/REJECTED и только до исчерпания лимита.
// После лимита работа read-only для дизайнера независимо от её статуса.
func CanEditDeliverable(d *models.Deliverable, o *models.Order) error {
	if d.Status != models.DeliverableStatusPending && d.Status != models.DeliverableStatusRejected {
		return ErrDeliverableLocked
	}
	if RevisionLimitReached(o) {
		return ErrRevisionLimitReached
	}
	return nil
}

// ValidateReview проверяет решение клиента по работе
func ValidateReview(d *models.Deliverable, target models.DeliverableStatus, feedback string) error {
	if target != models.DeliverableStatusApproved && target != models.DeliverableStatusRejected {
		return ErrInvalidReviewStatus
	}
	if target == models.DeliverableStatusRejected && strings.TrimSpace(feedback) == "" {
		return ErrFeedbackRequired
	}
	if d.Status != models.DeliverableStatusPending {
		return ErrAlreadyReviewed
	}
	return nil
}

// ResolveDownloadFilename выбирает имя файла по приоритету:
// Content-Disposition -> сохранённое имя -> последний сегмент пути объекта -> deliverable-{title|id}.file.
// objectPath - ключ хранилища или URL объекта
func ResolveDownloadFilename(contentDisposition, fileName, objectPath, title, id string) string {
	if name := filenameFromDisposition(contentDisposition); name != "" {
		return name
	}
	if name := sanitizeFilename(fileName); name != "" {
		return name
	}
	if name := filenameFromURL(objectPath); name != "" {
		return name
	}

	base := sanitizeFilename(strings.ReplaceAll(strings.TrimSpace(title), " ", "-"))
	if base == "" {
		base = id
	}
	return "deliverable-" + base + ".file"
}

func filenameFromDisposition(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	// mime.ParseMediaType уже декодирует filename* (RFC 5987)
	return sanitizeFilename(params["filename"])
}

func filenameFromURL(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	p := u.Path
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	if p == "" || strings.HasSuffix(p, "/") {
		return ""
	}
	return sanitizeFilename(path.Base(p))
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', '\r', '\n', 0:
			return -1
		}
		return r
	}, name)
	if name == "." || name == ".." {
		return ""
	}
	return name
}
