package models

type UserRole string
type ServiceStatus string
type OrderStatus string
type DeliverableStatus string
type PaymentStatus string

const (
	UserRoleClient   UserRole = "client"
	UserRoleDesigner UserRole = "designer"
	UserRoleAdmin    UserRole = "admin"

	// Service и Order используют lowercase
	ServiceStatusOpen            ServiceStatus = "open"
	ServiceStatusPending         ServiceStatus = "pending"
	ServiceStatusAssigned        ServiceStatus = "assigned"
	ServiceStatusInProgress      ServiceStatus = "in_progress"
	ServiceStatusRevision        ServiceStatus = "revision"
	ServiceStatusAwaitingPayment ServiceStatus = "awaiting_payment"
	ServiceStatusCompleted       ServiceStatus = "completed"
	ServiceStatusCancelled       ServiceStatus = "cancelled"

	OrderStatusPending         OrderStatus = "pending"
	OrderStatusInProgress      OrderStatus = "in_progress"
	OrderStatusRevision        OrderStatus = "revision"
	OrderStatusAwaitingPayment OrderStatus = "awaiting_payment"
	OrderStatusCompleted       OrderStatus = "completed"
	OrderStatusCancelled       OrderStatus = "cancelled"

	// Deliverable - UPPERCASE, клиенты сравнивают точное значение
	DeliverableStatusPending  DeliverableStatus = "PENDING"
	DeliverableStatusApproved DeliverableStatus = "APPROVED"
	DeliverableStatusRejected DeliverableStatus = "REJECTED"

	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleClient, UserRoleDesigner, UserRoleAdmin:
		return true
	}
	return false
}

func (s ServiceStatus) IsValid() bool {
	switch s {
	case ServiceStatusOpen, ServiceStatusPending, ServiceStatusAssigned, ServiceStatusInProgress,
		ServiceStatusRevision, ServiceStatusAwaitingPayment, ServiceStatusCompleted, ServiceStatusCancelled:
		return true
	}
	return false
}

// IsTerminal - completed и cancelled больше не меняются
func (s ServiceStatus) IsTerminal() bool {
	return s == ServiceStatusCompleted || s == ServiceStatusCancelled
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusInProgress, OrderStatusRevision,
		OrderStatusAwaitingPayment, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func (s DeliverableStatus) IsValid() bool {
	switch s {
	case DeliverableStatusPending, DeliverableStatusApproved, DeliverableStatusRejected:
		return true
	}
	return false
}
