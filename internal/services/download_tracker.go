package services

import (
	"context"
	"time"

	"designhub_backend/internal/logger"
	"designhub_backend/internal/repositories"

	"gorm.io/gorm"
)

const downloadTrackTimeout = 3 * time.Second

// DownloadTracker считает скачивания работ. Ошибки подсчёта не должны мешать скачиванию.
type DownloadTracker interface {
	Track(ctx context.Context, db *gorm.DB, deliverableID string) error
}

// DownloadCounter - внешний атомарный счётчик (DynamoDB)
type DownloadCounter interface {
	Increment(ctx context.Context, deliverableID string) (int64, error)
}

type dbDownloadTracker struct {
	deliverableRepo repositories.DeliverableRepository
}

// NewDBDownloadTracker - счётчик в самой таблице deliverables
func NewDBDownloadTracker(deliverableRepo repositories.DeliverableRepository) DownloadTracker {
	return &dbDownloadTracker{deliverableRepo: deliverableRepo}
}

func (t *dbDownloadTracker) Track(ctx context.Context, db *gorm.DB, deliverableID string) error {
	return t.deliverableRepo.IncrementDownloads(db.WithContext(ctx), deliverableID)
}

type dynamoDownloadTracker struct {
	counter         DownloadCounter
	deliverableRepo repositories.DeliverableRepository
}

// NewDynamoDownloadTracker - инкремент в DynamoDB, итоговое значение копируется в deliverables.download_count
func NewDynamoDownloadTracker(counter DownloadCounter, deliverableRepo repositories.DeliverableRepository) DownloadTracker {
	return &dynamoDownloadTracker{counter: counter, deliverableRepo: deliverableRepo}
}

func (t *dynamoDownloadTracker) Track(ctx context.Context, db *gorm.DB, deliverableID string) error {
	count, err := t.counter.Increment(ctx, deliverableID)
	if err != nil {
		return err
	}
	return t.deliverableRepo.SyncDownloadCount(db.WithContext(ctx), deliverableID, count)
}

// trackQuietly - подсчёт с собственным таймаутом, переживает отмену запроса
func trackQuietly(ctx context.Context, tracker DownloadTracker, db *gorm.DB, deliverableID string) {
	if tracker == nil {
		return
	}
	trackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), downloadTrackTimeout)
	defer cancel()

	if err := tracker.Track(trackCtx, db, deliverableID); err != nil {
		logger.CtxWarn(ctx, "Failed to track deliverable download", "deliverable_id", deliverableID, "error", err)
	}
}
