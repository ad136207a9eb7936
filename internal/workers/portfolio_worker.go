package workers

import (
	"context"
	"time"

	"designhub_backend/internal/logger"
	"designhub_backend/internal/services"

	"gorm.io/gorm"
)

const portfolioWorkerName = "portfolio_sync"

type PortfolioWorker struct {
	db               *gorm.DB
	portfolioService services.PortfolioService
	interval         time.Duration
}

func NewPortfolioWorker(db *gorm.DB, portfolioService services.PortfolioService, interval time.Duration) *PortfolioWorker {
	return &PortfolioWorker{
		db:               db,
		portfolioService: portfolioService,
		interval:         interval,
	}
}

// Start запускает фоновую генерацию портфолио из одобренных работ.
// interval <= 0 выключает воркер.
func (w *PortfolioWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		logger.WorkerLog(portfolioWorkerName, "disabled", nil)
		return
	}
	go w.run(ctx)
}

func (w *PortfolioWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.WorkerLog(portfolioWorkerName, "started", nil, "interval", w.interval.String())

	for {
		select {
		case <-ctx.Done():
			logger.WorkerLog(portfolioWorkerName, "stopped", nil)
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce - один проход синхронизации
func (w *PortfolioWorker) RunOnce(ctx context.Context) int {
	created, err := w.portfolioService.SyncPortfolios(ctx, w.db.WithContext(ctx))
	if err != nil {
		logger.WorkerLog(portfolioWorkerName, "sync", err)
		return created
	}
	if created > 0 {
		logger.WorkerLog(portfolioWorkerName, "sync", nil, "created", created)
	}
	return created
}
