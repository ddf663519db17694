package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"spacio/internal/app/schedule"
)

// Gocron runs schedule tasks on a gocron scheduler. A task never overlaps
// with its own previous run.
type Gocron struct {
	s      gocron.Scheduler
	logger *slog.Logger
}

func New(logger *slog.Logger) (*Gocron, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Gocron{s: s, logger: logger}, nil
}

func (g *Gocron) Every(ctx context.Context, name string, interval time.Duration, task schedule.Task) error {
	_, err := g.s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				return
			}
			started := time.Now()
			if err := task(ctx); err != nil && g.logger != nil {
				g.logger.Error("scheduled job failed", "job", name, "error", err, "duration", time.Since(started))
			}
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

func (g *Gocron) Start() {
	g.s.Start()
}

func (g *Gocron) Shutdown() error {
	return g.s.Shutdown()
}

var _ schedule.Scheduler = (*Gocron)(nil)
