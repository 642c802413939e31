package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-pizza-shop/internal/infra/metrics"
	"telegram-pizza-shop/internal/usecase"
)

// MenuWorker periodically regenerates the shared menu cache from the live
// catalog. A failed tick is logged and retried on the next interval; the
// previous cached menu keeps serving in the meantime.
type MenuWorker struct {
	interval time.Duration
	menuUC   *usecase.MenuUseCase
	log      *zerolog.Logger
}

func NewMenuWorker(interval time.Duration, menuUC *usecase.MenuUseCase, logger *zerolog.Logger) *MenuWorker {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	l := logger.With().Str("component", "MenuWorker").Logger()
	return &MenuWorker{
		interval: interval,
		menuUC:   menuUC,
		log:      &l,
	}
}

func (w *MenuWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting menu worker")

	// Prime the cache right away so the first user does not pay for it.
	w.refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping menu worker")
			return ctx.Err()
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *MenuWorker) refresh(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := w.menuUC.Refresh(runCtx); err != nil {
		metrics.MenuRefresh(false)
		w.log.Error().Err(err).Msg("menu refresh failed")
		return
	}
	metrics.MenuRefresh(true)
}
