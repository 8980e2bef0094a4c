// Package trigger is the external clock of the scheduling core: the core
// computes occurrences on demand, and this poller decides when to ask.
// It sweeps all standups on a fixed interval and generates the document
// for every occurrence that fired since the previous sweep. Sweeps are
// idempotent, so overlapping or repeated intervals only cost reads.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/standupdoc/standupdoc/internal/standup/repository"
	"github.com/standupdoc/standupdoc/internal/standup/service"
	"github.com/standupdoc/standupdoc/pkg/logger"
	"github.com/standupdoc/standupdoc/pkg/metrics"
)

type Trigger struct {
	cron     *cron.Cron
	standups repository.StandupRepository
	svc      *service.Service
	interval time.Duration

	mu        sync.Mutex
	lastSweep time.Time
	now       func() time.Time
}

func New(standups repository.StandupRepository, svc *service.Service, interval time.Duration) *Trigger {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Trigger{
		cron:     cron.New(),
		standups: standups,
		svc:      svc,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (t *Trigger) Start() error {
	t.mu.Lock()
	t.lastSweep = t.now()
	t.mu.Unlock()
	spec := fmt.Sprintf("@every %s", t.interval)
	if _, err := t.cron.AddFunc(spec, t.sweep); err != nil {
		return err
	}
	t.cron.Start()
	logger.Infof("generation trigger started (%s)", spec)
	return nil
}

func (t *Trigger) Stop() {
	t.cron.Stop()
}

func (t *Trigger) sweep() {
	t.mu.Lock()
	since := t.lastSweep
	now := t.now()
	t.lastSweep = now
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), t.interval)
	defer cancel()

	t.Sweep(ctx, since, now)
}

// Sweep generates documents for every occurrence of every standup that
// fired inside (since, now]. Exported for tests and for one-shot catchup
// runs after downtime.
func (t *Trigger) Sweep(ctx context.Context, since, now time.Time) {
	standups, err := t.standups.List(ctx)
	if err != nil {
		logger.Errorf("trigger: list standups: %v", err)
		return
	}
	for _, st := range standups {
		sched, err := st.Schedule()
		if err != nil {
			logger.Warnf("trigger: standup %s has an invalid schedule: %v", st.ID, err)
			continue
		}
		for _, occ := range sched.Between(since, now) {
			_, err := t.svc.GetOrCreateDocument(ctx, st, occ, now, service.GenerateOptions{})
			if err != nil && !errors.Is(err, service.ErrBusy) {
				logger.Errorf("trigger: generate %s/%s: %v", st.ID, occ.Format(time.RFC3339), err)
			}
		}
	}
	metrics.TriggerRuns.Inc()
}
