package services

import (
	"sync"
	"testing"
	"time"

	"designhub_backend/internal/models"
	"designhub_backend/internal/services/dto"
	"designhub_backend/internal/testutil"
	"designhub_backend/pkg/apperrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateService_StartsOpen(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := env.sc.ServiceLifecycleService.CreateService(env.ctx, env.db, env.clientP(), &dto.CreateServiceRequest{
		Title:       "Brand identity",
		Description: "Logo and palette for a bakery",
		CategoryID:  env.category.ID,
		Budget:      decimal.NewFromInt(500),
		Deadline:    time.Now().Add(7 * 24 * time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, models.ServiceStatusOpen, resp.Status)
	assert.Equal(t, env.client.ID, resp.ClientID)
	assert.True(t, resp.IsDeadlineAvailable)
	assert.Equal(t, models.DefaultMaxRevisions, resp.MaxRevisions)
	assert.NotNil(t, resp.Attachments)
}

func TestCreateService_Validation(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.sc.ServiceLifecycleService

	_, err := svc.CreateService(env.ctx, env.db, env.clientP(), &dto.CreateServiceRequest{
		Title:       "Brand identity",
		Description: "Logo",
		CategoryID:  env.category.ID,
		Budget:      decimal.Zero,
		Deadline:    time.Now().Add(-time.Hour),
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
	appErr, _ := apperrors.AsAppError(err)
	assert.Contains(t, appErr.Details, "budget")
	assert.Contains(t, appErr.Details, "deadline")

	_, err = svc.CreateService(env.ctx, env.db, env.clientP(), &dto.CreateServiceRequest{
		Title:       "Brand identity",
		Description: "Logo",
		CategoryID:  "00000000-0000-0000-0000-000000000000",
		Budget:      decimal.NewFromInt(10),
		Deadline:    time.Now().Add(time.Hour),
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed), "unknown category is a field error")

	_, err = svc.CreateService(env.ctx, env.db, env.designerP(), &dto.CreateServiceRequest{
		Title:       "Brand identity",
		Description: "Logo",
		CategoryID:  env.category.ID,
		Budget:      decimal.NewFromInt(10),
		Deadline:    time.Now().Add(time.Hour),
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden), "designers do not post services")
}

func TestDeadlineAvailability_ComputedOnRead(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.sc.ServiceLifecycleService

	expired := testutil.CreateService(t, env.db, env.client, env.category, testutil.WithDeadline(time.Now().UTC().Add(-time.Second)))
	future := testutil.CreateService(t, env.db, env.client, env.category, testutil.WithDeadline(time.Now().UTC().Add(24*time.Hour)))

	resp, err := svc.GetService(env.ctx, env.db, expired.ID)
	require.NoError(t, err)
	assert.False(t, resp.IsDeadlineAvailable)

	resp, err = svc.GetService(env.ctx, env.db, future.ID)
	require.NoError(t, err)
	assert.True(t, resp.IsDeadlineAvailable)

	// значение не хранится: сдвигаем дедлайн в прошлое напрямую в БД
	require.NoError(t, env.db.Model(&models.Service{}).Where("id = ?", future.ID).
		Update("deadline", time.Now().UTC().Add(-time.Minute)).Error)
	resp, err = svc.GetService(env.ctx, env.db, future.ID)
	require.NoError(t, err)
	assert.False(t, resp.IsDeadlineAvailable)

	list, err := svc.ListServices(env.ctx, env.db, env.designerP(), &dto.ServiceListQuery{Available: true})
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func TestApplyForService_CreatesPendingOrder(t *testing.T) {
	env := newTestEnv(t, nil)
	service := testutil.CreateService(t, env.db, env.client, env.category, testutil.WithBudget("500"))

	resp, err := env.sc.ServiceLifecycleService.ApplyForService(env.ctx, env.db, env.designerP(), service.ID)
	require.NoError(t, err)

	assert.Equal(t, models.ServiceStatusAssigned, resp.Service.Status)
	require.NotNil(t, resp.Service.DesignerID)
	assert.Equal(t, env.designer.ID, *resp.Service.DesignerID)

	assert.Equal(t, models.OrderStatusPending, resp.Order.Status)
	assert.Equal(t, 0, resp.Order.RevisionCount)
	assert.True(t, decimal.NewFromInt(500).Equal(resp.Order.Price))
	assert.Equal(t, env.client.ID, resp.Order.ClientID)
}

func TestApplyForService_FirstDesignerWins(t *testing.T) {
	env := newTestEnv(t, nil)
	service := testutil.CreateService(t, env.db, env.client, env.category)
	rival := testutil.CreateUser(t, env.db, models.UserRoleDesigner)

	_, err := env.sc.ServiceLifecycleService.ApplyForService(env.ctx, env.db, env.designerP(), service.ID)
	require.NoError(t, err)

	_, err = env.sc.ServiceLifecycleService.ApplyForService(env.ctx, env.db, testutil.Principal(rival), service.ID)
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 409, appErr.HTTPCode)

	var count int64
	require.NoError(t, env.db.Model(&models.Order{}).Where("service_id = ?", service.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestApplyForService_ConcurrentApplicants(t *testing.T) {
	env := newTestEnv(t, nil)
	service := testutil.CreateService(t, env.db, env.client, env.category)

	designers := []*models.User{env.designer}
	for i := 0; i < 4; i++ {
		designers = append(designers, testutil.CreateUser(t, env.db, models.UserRoleDesigner))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for _, d := range designers {
		wg.Add(1)
		go func(d *models.User) {
			defer wg.Done()
			if _, err := env.sc.ServiceLifecycleService.ApplyForService(env.ctx, env.db, testutil.Principal(d), service.ID); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(d)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	var count int64
	require.NoError(t, env.db.Model(&models.Order{}).Where("service_id = ?", service.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestApplyForService_Rules(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.sc.ServiceLifecycleService

	expired := testutil.CreateService(t, env.db, env.client, env.category, testutil.WithDeadline(time.Now().UTC().Add(-time.Hour)))
	_, err := svc.ApplyForService(env.ctx, env.db, env.designerP(), expired.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidStatus))

	open := testutil.CreateService(t, env.db, env.client, env.category)
	_, err = svc.ApplyForService(env.ctx, env.db, env.clientP(), open.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = svc.ApplyForService(env.ctx, env.db, env.designerP(), "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestUpdateService_OwnerOnlyAndNotTerminal(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.sc.ServiceLifecycleService
	service := testutil.CreateService(t, env.db, env.client, env.category)

	title := "Renamed"
	resp, err := svc.UpdateService(env.ctx, env.db, env.clientP(), service.ID, &dto.UpdateServiceRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", resp.Title)

	other := testutil.CreateUser(t, env.db, models.UserRoleClient)
	_, err = svc.UpdateService(env.ctx, env.db, testutil.Principal(other), service.ID, &dto.UpdateServiceRequest{Title: &title})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	done := testutil.CreateService(t, env.db, env.client, env.category, testutil.WithStatus(models.ServiceStatusCompleted))
	_, err = svc.UpdateService(env.ctx, env.db, env.clientP(), done.ID, &dto.UpdateServiceRequest{Title: &title})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidStatus))
}

func TestCancelService_CancelsOrder(t *testing.T) {
	env := newTestEnv(t, nil)
	order := env.orderIn(t, models.OrderStatusPending)

	resp, err := env.sc.ServiceLifecycleService.CancelService(env.ctx, env.db, env.clientP(), order.ServiceID)
	require.NoError(t, err)
	assert.Equal(t, models.ServiceStatusCancelled, resp.Status)
	assert.Equal(t, models.OrderStatusCancelled, env.reloadOrder(t, order.ID).Status)

	// после отмены заявка закрыта
	_, err = env.sc.ServiceLifecycleService.CancelService(env.ctx, env.db, env.clientP(), order.ServiceID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidStatus))
}

func TestCancelService_DesignerOnlyAfterDeadline(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.sc.ServiceLifecycleService

	live := env.orderIn(t, models.OrderStatusPending)
	_, err := svc.CancelService(env.ctx, env.db, env.designerP(), live.ServiceID)
	require.Error(t, err)

	service := testutil.CreateService(t, env.db, env.client, env.category)
	order := testutil.CreateOrder(t, env.db, service, env.designer, models.OrderStatusPending)
	require.NoError(t, env.db.Model(&models.Service{}).Where("id = ?", service.ID).
		Update("deadline", time.Now().UTC().Add(-time.Hour)).Error)

	resp, err := svc.CancelService(env.ctx, env.db, env.designerP(), service.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ServiceStatusCancelled, resp.Status)
	assert.Equal(t, models.OrderStatusCancelled, env.reloadOrder(t, order.ID).Status)
}

func TestDeleteService(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.sc.ServiceLifecycleService

	open := testutil.CreateService(t, env.db, env.client, env.category)
	require.NoError(t, svc.DeleteService(env.ctx, env.db, env.clientP(), open.ID))
	_, err := svc.GetService(env.ctx, env.db, open.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	taken := env.orderIn(t, models.OrderStatusInProgress)
	err = svc.DeleteService(env.ctx, env.db, env.clientP(), taken.ServiceID)
	require.Error(t, err)
	appErr, _ := apperrors.AsAppError(err)
	assert.Equal(t, 409, appErr.HTTPCode)
}

func TestListServices_MineRequiresSession(t *testing.T) {
	env := newTestEnv(t, nil)
	testutil.CreateService(t, env.db, env.client, env.category)
	env.orderIn(t, models.OrderStatusInProgress)

	_, err := env.sc.ServiceLifecycleService.ListServices(env.ctx, env.db, testutil.Principal(&models.User{}), &dto.ServiceListQuery{Mine: true})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	mine, err := env.sc.ServiceLifecycleService.ListServices(env.ctx, env.db, env.designerP(), &dto.ServiceListQuery{Mine: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), mine.Total)

	all, err := env.sc.ServiceLifecycleService.ListServices(env.ctx, env.db, testutil.Principal(&models.User{}), &dto.ServiceListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)
}
