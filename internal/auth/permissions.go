package auth

import "designhub_backend/internal/models"

// Action - действие, которое проверяет политика доступа
type Action string

const (
	ActionCategoryManage Action = "category:manage"

	ActionServiceCreate Action = "service:create"
	ActionServiceUpdate Action = "service:update"
	ActionServiceDelete Action = "service:delete"
	ActionServiceApply  Action = "service:apply"
	ActionServiceCancel Action = "service:cancel"
	ActionServiceUpload Action = "service:upload_attachment"

	ActionOrderView            Action = "order:view"
	ActionOrderStartWork       Action = "order:start_work"
	ActionOrderSubmitRevision  Action = "order:submit_revision"
	ActionOrderRequestRevision Action = "order:request_revision"
	ActionOrderApprove         Action = "order:approve"
	ActionOrderCancel          Action = "order:cancel"

	ActionDeliverableView     Action = "deliverable:view"
	ActionDeliverableDownload Action = "deliverable:download"
	ActionDeliverableSubmit   Action = "deliverable:submit"
	ActionDeliverableUpdate   Action = "deliverable:update"
	ActionDeliverableReview   Action = "deliverable:review"

	ActionPortfolioRate     Action = "portfolio:rate"
	ActionPortfolioFeature  Action = "portfolio:feature"
	ActionPortfolioGenerate Action = "portfolio:generate"

	ActionPaymentCreate Action = "payment:create"
)

// Resource - стороны ресурса, относительно которых проверяется доступ.
// OwnerID - владелец (автор Service, дизайнер Portfolio),
// ClientID/DesignerID - стороны заказа.
type Resource struct {
	OwnerID    string
	ClientID   string
	DesignerID string
}

// OrderResource строит Resource для заказа
func OrderResource(o *models.Order) Resource {
	return Resource{OwnerID: o.ClientID, ClientID: o.ClientID, DesignerID: o.DesignerID}
}

// ServiceResource строит Resource для заявки
func ServiceResource(s *models.Service) Resource {
	r := Resource{OwnerID: s.ClientID, ClientID: s.ClientID}
	if s.DesignerID != nil {
		r.DesignerID = *s.DesignerID
	}
	return r
}

// CanPerform - единая серверная политика доступа.
// Проверки на клиенте (isClient/isDesigner/canRate) носят только подсказочный характер.
func CanPerform(action Action, actor Principal, res Resource) bool {
	if !actor.IsAuthenticated() {
		return false
	}

	isClient := actor.Role == models.UserRoleClient
	isDesigner := actor.Role == models.UserRoleDesigner
	isOrderClient := res.ClientID != "" && actor.UserID == res.ClientID
	isOrderDesigner := res.DesignerID != "" && actor.UserID == res.DesignerID

	switch action {
	case ActionCategoryManage, ActionOrderCancel, ActionPortfolioFeature, ActionPortfolioGenerate:
		return actor.IsAdmin()

	case ActionServiceCreate, ActionServiceUpload:
		return isClient

	case ActionServiceUpdate, ActionServiceDelete:
		return isClient && actor.UserID == res.OwnerID

	case ActionServiceApply:
		return isDesigner && actor.UserID != res.OwnerID

	case ActionServiceCancel:
		return actor.UserID == res.OwnerID || (isDesigner && isOrderDesigner)

	case ActionOrderView, ActionDeliverableView, ActionDeliverableDownload:
		return isOrderClient || isOrderDesigner || actor.IsAdmin()

	case ActionOrderStartWork, ActionOrderSubmitRevision, ActionDeliverableSubmit, ActionDeliverableUpdate:
		return isOrderDesigner

	case ActionOrderRequestRevision, ActionOrderApprove, ActionDeliverableReview, ActionPaymentCreate:
		return isOrderClient

	case ActionPortfolioRate:
		// самому себе ставить оценку нельзя
		return actor.UserID != res.OwnerID
	}

	return false
}
