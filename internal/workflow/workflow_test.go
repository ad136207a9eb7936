package workflow

import (
	"testing"
	"time"

	"designhub_backend/internal/auth"
	"designhub_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOrderTransition(t *testing.T) {
	tests := []struct {
		from, to models.OrderStatus
		action   auth.Action
		counts   bool
		wantErr  bool
	}{
		{models.OrderStatusPending, models.OrderStatusInProgress, auth.ActionOrderStartWork, false, false},
		{models.OrderStatusRevision, models.OrderStatusInProgress, auth.ActionOrderSubmitRevision, false, false},
		{models.OrderStatusInProgress, models.OrderStatusRevision, auth.ActionOrderRequestRevision, true, false},
		{models.OrderStatusInProgress, models.OrderStatusCompleted, auth.ActionOrderApprove, false, false},
		{models.OrderStatusPending, models.OrderStatusCompleted, "", false, true},
		{models.OrderStatusCompleted, models.OrderStatusRevision, "", false, true},
		{models.OrderStatusCancelled, models.OrderStatusInProgress, "", false, true},
		{models.OrderStatusInProgress, models.OrderStatusAwaitingPayment, "", false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			tr, err := ResolveOrderTransition(tt.from, tt.to)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrTransitionNotAllowed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.action, tr.Action)
			assert.Equal(t, tt.counts, tr.CountsRevision)
		})
	}
}

func TestRevisionLimitReached(t *testing.T) {
	for count := 0; count <= 3; count++ {
		assert.False(t, RevisionLimitReached(&models.Order{RevisionCount: count, MaxRevisions: 4}), "count=%d", count)
	}
	assert.True(t, RevisionLimitReached(&models.Order{RevisionCount: 4, MaxRevisions: 4}))
	assert.True(t, RevisionLimitReached(&models.Order{RevisionCount: 5}), "zero cap falls back to the default")
	assert.False(t, RevisionLimitReached(&models.Order{RevisionCount: 3}))
}

func TestCanEditDeliverable(t *testing.T) {
	order := &models.Order{Status: models.OrderStatusInProgress, RevisionCount: 1, MaxRevisions: 4}

	assert.NoError(t, CanEditDeliverable(&models.Deliverable{Status: models.DeliverableStatusPending}, order))
	assert.NoError(t, CanEditDeliverable(&models.Deliverable{Status: models.DeliverableStatusRejected}, order))
	assert.ErrorIs(t, CanEditDeliverable(&models.Deliverable{Status: models.DeliverableStatusApproved}, order), ErrDeliverableLocked)

	capped := &models.Order{Status: models.OrderStatusRevision, RevisionCount: 4, MaxRevisions: 4}
	assert.ErrorIs(t, CanEditDeliverable(&models.Deliverable{Status: models.DeliverableStatusRejected}, capped), ErrRevisionLimitReached)
}

func TestCanSubmitDeliverable(t *testing.T) {
	assert.NoError(t, CanSubmitDeliverable(&models.Order{Status: models.OrderStatusInProgress}))
	assert.NoError(t, CanSubmitDeliverable(&models.Order{Status: models.OrderStatusCompleted}))
	assert.ErrorIs(t, CanSubmitDeliverable(&models.Order{Status: models.OrderStatusPending}), ErrOrderNotAcceptingWork)
	assert.ErrorIs(t, CanSubmitDeliverable(&models.Order{Status: models.OrderStatusCancelled}), ErrOrderNotAcceptingWork)
	assert.ErrorIs(t, CanSubmitDeliverable(&models.Order{Status: models.OrderStatusRevision, RevisionCount: 4, MaxRevisions: 4}), ErrRevisionLimitReached)
	assert.ErrorIs(t, CanSubmitDeliverable(&models.Order{Status: models.OrderStatusInProgress, RevisionCount: 4, MaxRevisions: 4}), ErrRevisionLimitReached)
	assert.NoError(t, CanSubmitDeliverable(&models.Order{Status: models.OrderStatusCompleted, RevisionCount: 4, MaxRevisions: 4}),
		"approved order takes the final deliverable after the cap")
	assert.ErrorIs(t, CanSubmitDeliverable(&models.Order{Status: models.OrderStatusCancelled, RevisionCount: 4}), ErrOrderNotAcceptingWork)
}

func TestValidateReview(t *testing.T) {
	pending := &models.Deliverable{Status: models.DeliverableStatusPending}

	assert.NoError(t, ValidateReview(pending, models.DeliverableStatusApproved, ""))
	assert.NoError(t, ValidateReview(pending, models.DeliverableStatusRejected, "Colours are off"))
	assert.ErrorIs(t, ValidateReview(pending, models.DeliverableStatusRejected, ""), ErrFeedbackRequired)
	assert.ErrorIs(t, ValidateReview(pending, models.DeliverableStatusRejected, "   "), ErrFeedbackRequired)
	assert.ErrorIs(t, ValidateReview(pending, models.DeliverableStatusPending, ""), ErrInvalidReviewStatus)
	assert.ErrorIs(t, ValidateReview(pending, "approved", ""), ErrInvalidReviewStatus, "status casing is exact")

	approved := &models.Deliverable{Status: models.DeliverableStatusApproved}
	assert.ErrorIs(t, ValidateReview(approved, models.DeliverableStatusRejected, "late"), ErrAlreadyReviewed)
}

func TestResolveDownloadFilename(t *testing.T) {
	tests := []struct {
		name                                string
		disposition, fileName, fileURL, ttl string
		want                                string
	}{
		{"content disposition wins", `attachment; filename="final.psd"`, "stored.png", "https://cdn/x/url.png", "Logo", "final.psd"},
		{"rfc5987 disposition", `attachment; filename*=UTF-8''logo%20v2.ai`, "", "", "Logo", "logo v2.ai"},
		{"stored file name", "", "stored.png", "https://cdn/x/url.png", "Logo", "stored.png"},
		{"malformed disposition falls through", `attachment; filename="`, "stored.png", "", "Logo", "stored.png"},
		{"derived from url path", "", "", "https://cdn.example.com/deliverables/abc/brand%20book.pdf?sig=1", "Logo", "brand book.pdf"},
		{"url without file segment", "", "", "https://cdn.example.com/", "Final Logo", "deliverable-Final-Logo.file"},
		{"fallback to id", "", "", "", "  ", "deliverable-42.file"},
		{"path traversal stripped", "", "../../etc/passwd", "", "", "....etcpasswd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveDownloadFilename(tt.disposition, tt.fileName, tt.fileURL, tt.ttl, "42")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServiceRules(t *testing.T) {
	now := time.Now()
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Second)

	assert.True(t, IsDeadlineAvailable(future, now))
	assert.False(t, IsDeadlineAvailable(past, now))

	open := &models.Service{Status: models.ServiceStatusOpen, Deadline: future}
	assert.NoError(t, CanApply(open, now))
	assert.ErrorIs(t, CanApply(&models.Service{Status: models.ServiceStatusOpen, Deadline: past}, now), ErrDeadlineExpired)
	assert.ErrorIs(t, CanApply(&models.Service{Status: models.ServiceStatusAssigned, Deadline: future}, now), ErrServiceClosed)

	assert.ErrorIs(t, CanEditService(&models.Service{Status: models.ServiceStatusCompleted}), ErrServiceNotEditable)
	assert.ErrorIs(t, CanEditService(&models.Service{Status: models.ServiceStatusCancelled}), ErrServiceNotEditable)
	assert.NoError(t, CanEditService(&models.Service{Status: models.ServiceStatusInProgress}))

	assignedExpired := &models.Service{Status: models.ServiceStatusAssigned, Deadline: past}
	assignedLive := &models.Service{Status: models.ServiceStatusAssigned, Deadline: future}
	assert.NoError(t, CanCancelService(assignedExpired, false, now))
	assert.ErrorIs(t, CanCancelService(assignedLive, false, now), ErrServiceNotCancelled)
	assert.NoError(t, CanCancelService(assignedLive, true, now))
	assert.ErrorIs(t, CanCancelService(&models.Service{Status: models.ServiceStatusInProgress}, true, now), ErrServiceNotCancelled)
}
