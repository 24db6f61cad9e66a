package kpipush

import (
	"context"
	"time"

	"github.com/smallbiznis/revenuepulse/internal/config"
	"github.com/smallbiznis/revenuepulse/internal/revenue/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("kpi.push",
	fx.Provide(NewPusher),
	fx.Provide(NewRecorder),
	fx.Invoke(startWorker),
)

const snapshotTimeout = 2 * time.Minute

// Worker periodically computes the all-time metrics and pushes the gauges.
type Worker struct {
	svc      domain.Service
	recorder *Recorder
	pusher   Pusher
	log      *zap.Logger
}

func NewWorker(svc domain.Service, recorder *Recorder, pusher Pusher, log *zap.Logger) *Worker {
	return &Worker{svc: svc, recorder: recorder, pusher: pusher, log: log.Named("kpi.push")}
}

// RunOnce computes one snapshot and pushes it.
func (w *Worker) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	resp, err := w.svc.GetMetrics(ctx, domain.MetricsRequest{Range: domain.RangeAll})
	if err != nil {
		return err
	}
	w.recorder.Observe(resp)
	return w.pusher.Push(ctx, w.recorder.Registry())
}

func (w *Worker) loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			w.log.Warn("kpi push failed", zap.Error(err))
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			w.log.Info("stopping kpi push worker")
			return
		}
	}
}

func startWorker(lc fx.Lifecycle, cfg config.Config, svc domain.Service, recorder *Recorder, pusher Pusher, log *zap.Logger) {
	if pusher == nil {
		return
	}
	w := NewWorker(svc, recorder, pusher, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			w.log.Info("starting kpi push worker", zap.Duration("interval", cfg.KPIPush.Interval))
			go func() {
				defer close(done)
				w.loop(ctx, cfg.KPIPush.Interval)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
