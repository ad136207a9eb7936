package services

import (
	"context"
	"errors"
	"io"
	"testing"

	"designhub_backend/internal/models"
	"designhub_backend/internal/repositories"
	"designhub_backend/internal/services/dto"
	"designhub_backend/internal/testutil"
	"designhub_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func TestSubmitDeliverable_StoresFile(t *testing.T) {
	env := newTestEnv(t, nil)
	order := env.orderIn(t, models.OrderStatusInProgress)
	file := testutil.FileHeader(t, "final-logo.png", "image/png", []byte("png-bytes"))

	d, err := env.sc.DeliverableService.SubmitDeliverable(env.ctx, env.db, env.designerP(), order.ID,
		&dto.SubmitDeliverableRequest{Title: "Final", Description: "Vector version"}, file)
	require.NoError(t, err)

	assert.Equal(t, models.DeliverableStatusPending, d.Status)
	assert.Equal(t, "final-logo.png", d.FileName)
	assert.Equal(t, env.designer.ID, d.DesignerID)
	assert.Nil(t, d.ReviewedAt)
	assert.NotEmpty(t, d.FileURL)

	obj, err := env.store.Open(env.ctx, d.StorageKey)
	require.NoError(t, err)
	defer obj.Body.Close()
	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestSubmitDeliverable_Rules(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.sc.DeliverableService
	req := &dto.SubmitDeliverableRequest{Title: "Final"}

	order := env.orderIn(t, models.OrderStatusInProgress)
	_, err := svc.SubmitDeliverable(env.ctx, env.db, env.clientP(), order.ID, req,
		testutil.FileHeader(t, "a.png", "image/png", []byte("x")))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = svc.SubmitDeliverable(env.ctx, env.db, env.designerP(), order.ID, req, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed), "file is required")

	pending := env.orderIn(t, models.OrderStatusPending)
	_, err = svc.SubmitDeliverable(env.ctx, env.db, env.designerP(), pending.ID, req,
		testutil.FileHeader(t, "a.png", "image/png", []byte("x")))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidStatus))
}

func TestUpdateDeliverable_OnlyPendingOrRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.sc.DeliverableService
	order := env.orderIn(t, models.OrderStatusInProgress)

	for _, status := range []models.DeliverableStatus{models.DeliverableStatusPending, models.DeliverableStatusRejected} {
		d := testutil.CreateDeliverable(t, env.db, order, status)
		updated, err := svc.UpdateDeliverable(env.ctx, env.db, env.designerP(), d.ID,
			&dto.UpdateDeliverableRequest{Title: strPtr("Updated " + string(status))}, nil)
		require.NoError(t, err, "status=%s", status)
		assert.Equal(t, "Updated "+string(status), updated.Title)
		assert.Equal(t, models.DeliverableStatusPending, updated.Status)
	}

	approved := testutil.CreateDeliverable(t, env.db, order, models.DeliverableStatusApproved)
	_, err := svc.UpdateDeliverable(env.ctx, env.db, env.designerP(), approved.ID,
		&dto.UpdateDeliverableRequest{Title: strPtr("Sneaky")}, nil)
	require.Error(t, err)
	appErr, _ := apperrors.AsAppError(err)
	assert.Equal(t, 409, appErr.HTTPCode)

	var stored models.Deliverable
	require.NoError(t, env.db.First(&stored, "id = ?", approved.ID).Error)
	assert.NotEqual(t, "Sneaky", stored.Title)
}

func TestUpdateDeliverable_ResubmitAfterRejection(t *testing.T) {
	env := newTestEnv(t, nil)
	order := env.orderIn(t, models.OrderStatusInProgress)
	d := testutil.CreateDeliverable(t, env.db, order, models.DeliverableStatusPending)

	rejected, err := env.sc.DeliverableService.ReviewDeliverable(env.ctx, env.db, env.clientP(), d.ID,
		&dto.ReviewDeliverableRequest{Status: models.DeliverableStatusRejected, Feedback: "Colours are off"})
	require.NoError(t, err)
	require.NotNil(t, rejected.Feedback)
	assert.Equal(t, "Colours are off", *rejected.Feedback)

	file := testutil.FileHeader(t, "logo-v2.png", "image/png", []byte("v2"))
	resubmitted, err := env.sc.DeliverableService.UpdateDeliverable(env.ctx, env.db, env.designerP(), d.ID,
		&dto.UpdateDeliverableRequest{}, file)
	require.NoError(t, err)

	assert.Equal(t, models.DeliverableStatusPending, resubmitted.Status)
	assert.Nil(t, resubmitted.Feedback)
	assert.Nil(t, resubmitted.ReviewedAt)
	assert.Equal(t, "logo-v2.png", resubmitted.FileName)
}

func TestReviewDeliverable_RejectionRequiresFeedback(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.sc.DeliverableService
	order := env.orderIn(t, models.OrderStatusInProgress)

	d := testutil.CreateDeliverable(t, env.db, order, models.DeliverableStatusPending)
	for _, feedback := range []string{"", "   "} {
		_, err := svc.ReviewDeliverable(env.ctx, env.db, env.clientP(), d.ID,
			&dto.ReviewDeliverableRequest{Status: models.DeliverableStatusRejected, Feedback: feedback})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
	}

	approved, err := svc.ReviewDeliverable(env.ctx, env.db, env.clientP(), d.ID,
		&dto.ReviewDeliverableRequest{Status: models.DeliverableStatusApproved})
	require.NoError(t, err)
	assert.Equal(t, models.DeliverableStatusApproved, approved.Status)
	assert.NotNil(t, approved.ReviewedAt)

	_, err = svc.ReviewDeliverable(env.ctx, env.db, env.clientP(), d.ID,
		&dto.ReviewDeliverableRequest{Status: models.DeliverableStatusRejected, Feedback: "Changed my mind"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidStatus), "a reviewed deliverable stays reviewed")
}

func TestReviewDeliverable_OnlyOrderClient(t *testing.T) {
	env := newTestEnv(t, nil)
	order := env.orderIn(t, models.OrderStatusInProgress)
	d := testutil.CreateDeliverable(t, env.db, order, models.DeliverableStatusPending)

	_, err := env.sc.DeliverableService.ReviewDeliverable(env.ctx, env.db, env.designerP(), d.ID,
		&dto.ReviewDeliverableRequest{Status: models.DeliverableStatusApproved})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestOpenDownload_TracksAndResolvesName(t *testing.T) {
	env := newTestEnv(t, nil)
	order := env.orderIn(t, models.OrderStatusInProgress)

	d, err := env.sc.DeliverableService.SubmitDeliverable(env.ctx, env.db, env.designerP(), order.ID,
		&dto.SubmitDeliverableRequest{Title: "Final"}, testutil.FileHeader(t, "brand book.pdf", "application/pdf", []byte("%PDF")))
	require.NoError(t, err)

	result, err := env.sc.DeliverableService.OpenDownload(env.ctx, env.db, env.clientP(), d.ID)
	require.NoError(t, err)
	defer result.Body.Close()

	assert.Equal(t, "brand book.pdf", result.FileName)
	body, err := io.ReadAll(result.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(body))

	require.NoError(t, env.sc.DeliverableService.TrackDownload(env.ctx, env.db, env.designerP(), d.ID))

	var stored models.Deliverable
	require.NoError(t, env.db.First(&stored, "id = ?", d.ID).Error)
	assert.Equal(t, int64(2), stored.DownloadCount)

	outsider := testutil.CreateUser(t, env.db, models.UserRoleClient)
	_, err = env.sc.DeliverableService.OpenDownload(env.ctx, env.db, testutil.Principal(outsider), d.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestSubmitDeliverable_CompletedOrderAfterRevisionLimit(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.sc.DeliverableService
	req := &dto.SubmitDeliverableRequest{Title: "Final"}

	capped := env.orderIn(t, models.OrderStatusRevision)
	require.NoError(t, env.db.Model(&models.Order{}).Where("id = ?", capped.ID).Update("revision_count", 4).Error)
	_, err := svc.SubmitDeliverable(env.ctx, env.db, env.designerP(), capped.ID, req,
		testutil.FileHeader(t, "a.png", "image/png", []byte("x")))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeRevisionLimit), "capped order still in revision")

	// клиент принял заказ после четвёртой правки - финальная работа должна пройти
	completed := env.orderIn(t, models.OrderStatusCompleted)
	require.NoError(t, env.db.Model(&models.Order{}).Where("id = ?", completed.ID).Update("revision_count", 4).Error)
	d, err := svc.SubmitDeliverable(env.ctx, env.db, env.designerP(), completed.ID, req,
		testutil.FileHeader(t, "final.png", "image/png", []byte("final")))
	require.NoError(t, err)
	assert.Equal(t, models.DeliverableStatusPending, d.Status)
	assert.Equal(t, completed.ID, d.OrderID)
}

func TestSubmitDeliverable_FileURLIsGatedDownload(t *testing.T) {
	env := newTestEnv(t, nil)
	order := env.orderIn(t, models.OrderStatusInProgress)

	d, err := env.sc.DeliverableService.SubmitDeliverable(env.ctx, env.db, env.designerP(), order.ID,
		&dto.SubmitDeliverableRequest{Title: "Final"}, testutil.FileHeader(t, "secret.pdf", "application/pdf", []byte("%PDF-1.4")))
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/deliverables/"+d.ID+"/download", d.FileURL)
	assert.NotContains(t, d.FileURL, d.StorageKey)

	updated, err := env.sc.DeliverableService.UpdateDeliverable(env.ctx, env.db, env.designerP(), d.ID,
		&dto.UpdateDeliverableRequest{}, testutil.FileHeader(t, "secret-v2.pdf", "application/pdf", []byte("%PDF-1.5")))
	require.NoError(t, err)
	assert.Equal(t, DeliverableDownloadURL(d.ID), updated.FileURL)
	assert.NotEqual(t, d.StorageKey, updated.StorageKey)
}

type failingTracker struct{ calls int }

func (f *failingTracker) Track(ctx context.Context, db *gorm.DB, deliverableID string) error {
	f.calls++
	return errors.New("counter unavailable")
}

type failingCounter struct{}

func (failingCounter) Increment(ctx context.Context, deliverableID string) (int64, error) {
	return 0, errors.New("dynamodb: throttled")
}

func TestOpenDownload_TrackerFailureDoesNotBreakDownload(t *testing.T) {
	env := newTestEnv(t, nil)
	order := env.orderIn(t, models.OrderStatusInProgress)
	d, err := env.sc.DeliverableService.SubmitDeliverable(env.ctx, env.db, env.designerP(), order.ID,
		&dto.SubmitDeliverableRequest{Title: "Final"}, testutil.FileHeader(t, "brief.pdf", "application/pdf", []byte("%PDF-1.4 brief")))
	require.NoError(t, err)

	tracker := &failingTracker{}
	trackers := map[string]DownloadTracker{
		"tracker": tracker,
		"dynamo":  NewDynamoDownloadTracker(failingCounter{}, repositories.NewDeliverableRepository()),
	}
	for name, tr := range trackers {
		t.Run(name, func(t *testing.T) {
			sc := NewServiceContainer(Dependencies{Tokens: env.tokens, Storage: env.store, DownloadTracker: tr})

			result, err := sc.DeliverableService.OpenDownload(env.ctx, env.db, env.clientP(), d.ID)
			require.NoError(t, err)
			body, err := io.ReadAll(result.Body)
			require.NoError(t, err)
			require.NoError(t, result.Body.Close())
			assert.Equal(t, "%PDF-1.4 brief", string(body))
			assert.Equal(t, "brief.pdf", result.FileName)

			assert.NoError(t, sc.DeliverableService.TrackDownload(env.ctx, env.db, env.designerP(), d.ID))
		})
	}
	assert.Equal(t, 2, tracker.calls)

	var stored models.Deliverable
	require.NoError(t, env.db.First(&stored, "id = ?", d.ID).Error)
	assert.Equal(t, int64(0), stored.DownloadCount, "failed tracking leaves the counter untouched")
}
