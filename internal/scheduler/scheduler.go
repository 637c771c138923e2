// Package scheduler runs the obligation processor for every user on a cron
// schedule, with bounded concurrency and a pacing limiter so a full sweep stays
// inside Firestore quotas.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
	"github.com/GregMSThompson/cardwise-backend/pkg/breaker"
	"github.com/GregMSThompson/cardwise-backend/pkg/logger"
)

type userLister interface {
	ListUIDs(ctx context.Context, fn func(uid string) error) error
}

type userGetter interface {
	GetUser(ctx context.Context, uid string) (*models.User, error)
}

type processor interface {
	ProcessDue(ctx context.Context, uid, email string) (dto.ProcessResult, error)
}

type Config struct {
	Schedule    string
	Concurrency int
	Rate        float64 // users per second, 0 = unpaced
	Location    *time.Location
}

// Summary totals one sweep over all users.
type Summary struct {
	Users             int
	Failed            int
	Skipped           int
	Processed         int
	InsufficientFunds int
	Warnings          int
}

type Runner struct {
	lister    userLister
	users     userGetter
	processor processor
	cfg       Config
	limiter   *rate.Limiter
}

func New(lister userLister, users userGetter, p processor, cfg Config) *Runner {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	return &Runner{
		lister:    lister,
		users:     users,
		processor: p,
		cfg:       cfg,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// RunOnce processes every user once. A failure for one user is logged and counted;
// the returned error is only set when the users could not be listed or ctx ended.
// Dispatch stops while the breaker in ctx is open.
func (r *Runner) RunOnce(ctx context.Context) (Summary, error) {
	log := logger.FromContext(ctx)
	br := breaker.FromContext(ctx)
	start := time.Now()

	var users, failed, skipped atomic.Int64
	var processed, insufficient, warned atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	err := r.lister.ListUIDs(gctx, func(uid string) error {
		users.Add(1)
		if br.State() == breaker.Open {
			skipped.Add(1)
			return nil
		}
		if err := r.limiter.Wait(gctx); err != nil {
			return err
		}
		g.Go(func() error {
			res, err := r.processUser(gctx, uid)
			if err != nil {
				failed.Add(1)
				logger.FromContext(gctx).Error("processing user failed", "uid", uid, "error", err)
				return nil
			}
			processed.Add(int64(res.Processed))
			insufficient.Add(int64(res.InsufficientFunds))
			warned.Add(int64(res.Warnings))
			failed.Add(int64(res.Failed))
			return nil
		})
		return nil
	})
	if werr := g.Wait(); err == nil {
		err = werr
	}

	sum := Summary{
		Users:             int(users.Load()),
		Failed:            int(failed.Load()),
		Skipped:           int(skipped.Load()),
		Processed:         int(processed.Load()),
		InsufficientFunds: int(insufficient.Load()),
		Warnings:          int(warned.Load()),
	}
	log.Info("obligation sweep finished",
		"users", sum.Users,
		"processed", sum.Processed,
		"failed", sum.Failed,
		"skipped", sum.Skipped,
		"insufficient_funds", sum.InsufficientFunds,
		"warnings", sum.Warnings,
		"breaker", br.State().String(),
		"duration", time.Since(start).String(),
	)
	return sum, err
}

func (r *Runner) processUser(ctx context.Context, uid string) (dto.ProcessResult, error) {
	user, err := r.users.GetUser(ctx, uid)
	if err != nil {
		return dto.ProcessResult{}, err
	}
	_, ctx = logger.With(ctx, "uid", uid)
	return r.processor.ProcessDue(ctx, uid, user.Email)
}

// Start runs one sweep immediately, then on every tick of the schedule until ctx
// is cancelled. Overlapping ticks are skipped while a sweep is still running.
func (r *Runner) Start(ctx context.Context) error {
	log := logger.FromContext(ctx)

	c := cron.New(
		cron.WithLocation(r.cfg.Location),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	_, err := c.AddFunc(r.cfg.Schedule, func() {
		if _, err := r.RunOnce(ctx); err != nil {
			log.Error("obligation sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	if _, err := r.RunOnce(ctx); err != nil {
		log.Error("start-up sweep failed", "error", err)
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
