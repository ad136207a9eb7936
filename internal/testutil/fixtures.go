package testutil

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"sync/atomic"
	"testing"
	"time"

	"designhub_backend/internal/auth"
	"designhub_backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// DefaultPassword - пароль всех пользователей из CreateUser
const DefaultPassword = "password123"

var seq atomic.Int64

func next() int64 {
	return seq.Add(1)
}

// CreateUser создаёт пользователя с захешированным DefaultPassword
func CreateUser(t *testing.T, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()

	hash, err := auth.HashPassword(DefaultPassword)
	require.NoError(t, err)

	n := next()
	user := &models.User{
		Name:         fmt.Sprintf("Test %s %d", role, n),
		Email:        fmt.Sprintf("%s_%d@test.com", role, n),
		PasswordHash: hash,
		Role:         role,
	}
	require.NoError(t, db.Create(user).Error, "create user")
	return user
}

// Principal - сессия пользователя для вызова сервисов напрямую
func Principal(u *models.User) auth.Principal {
	return auth.Principal{UserID: u.ID, Role: u.Role}
}

func CreateCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()
	if name == "" {
		name = fmt.Sprintf("Category %d", next())
	}
	c := &models.Category{Name: name}
	require.NoError(t, db.Create(c).Error, "create category")
	return c
}

// ServiceOption меняет Service перед сохранением
type ServiceOption func(*models.Service)

func WithStatus(s models.ServiceStatus) ServiceOption {
	return func(svc *models.Service) { svc.Status = s }
}

func WithDeadline(d time.Time) ServiceOption {
	return func(svc *models.Service) { svc.Deadline = d }
}

func WithBudget(b string) ServiceOption {
	return func(svc *models.Service) { svc.Budget = decimal.RequireFromString(b) }
}

// CreateService - открытая заявка с дедлайном через неделю
func CreateService(t *testing.T, db *gorm.DB, client *models.User, category *models.Category, opts ...ServiceOption) *models.Service {
	t.Helper()
	svc := &models.Service{
		Title:        fmt.Sprintf("Logo design %d", next()),
		Description:  "Need a clean logo for a coffee shop",
		CategoryID:   category.ID,
		Budget:       decimal.NewFromInt(150),
		Deadline:     time.Now().UTC().Add(7 * 24 * time.Hour),
		Status:       models.ServiceStatusOpen,
		ClientID:     client.ID,
		MaxRevisions: models.DefaultMaxRevisions,
	}
	for _, opt := range opts {
		opt(svc)
	}
	require.NoError(t, db.Create(svc).Error, "create service")
	return svc
}

// CreateOrder назначает дизайнера на заявку и создаёт заказ в статусе status
func CreateOrder(t *testing.T, db *gorm.DB, svc *models.Service, designer *models.User, status models.OrderStatus) *models.Order {
	t.Helper()

	order := &models.Order{
		ServiceID:    svc.ID,
		ClientID:     svc.ClientID,
		DesignerID:   designer.ID,
		Price:        svc.Budget,
		Status:       status,
		MaxRevisions: svc.MaxRevisions,
	}
	require.NoError(t, db.Create(order).Error, "create order")

	designerID := designer.ID
	svc.DesignerID = &designerID
	svc.Status = serviceStatusFor(status)
	require.NoError(t, db.Model(svc).Updates(map[string]interface{}{
		"designer_id": designerID,
		"status":      svc.Status,
	}).Error)
	return order
}

func serviceStatusFor(s models.OrderStatus) models.ServiceStatus {
	switch s {
	case models.OrderStatusPending:
		return models.ServiceStatusAssigned
	case models.OrderStatusCompleted:
		return models.ServiceStatusCompleted
	case models.OrderStatusCancelled:
		return models.ServiceStatusCancelled
	}
	return models.ServiceStatus(s)
}

// CreateDeliverable - работа без реального файла в хранилище
func CreateDeliverable(t *testing.T, db *gorm.DB, order *models.Order, status models.DeliverableStatus) *models.Deliverable {
	t.Helper()
	n := next()
	id := uuid.NewString()
	d := &models.Deliverable{
		BaseModel:   models.BaseModel{ID: id},
		OrderID:     order.ID,
		Title:       fmt.Sprintf("Final logo %d", n),
		Description: "Vector logo",
		FileURL:     "/api/v1/deliverables/" + id + "/download",
		FileName:    "logo.png",
		ContentType: "image/png",
		StorageKey:  fmt.Sprintf("deliverables/%s/logo_%d.png", order.ID, n),
		DesignerID:  order.DesignerID,
		Status:      status,
		SubmittedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(d).Error, "create deliverable")
	return d
}

// FileHeader собирает *multipart.FileHeader так, как его отдаёт gin после разбора формы
func FileHeader(t *testing.T, fileName, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(int64(len(content)) + 1024)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}
