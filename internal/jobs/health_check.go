package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"neobot/internal/interfaces"
	"neobot/internal/usecases"
)

// HealthCheckJob sweeps active tenants on an interval and probes each
// one's WhatsApp session, downgrading records for sessions that died
// without a clean disconnect.
type HealthCheckJob struct {
	tenants   interfaces.TenantStore
	lifecycle *usecases.ConnectionLifecycle
	interval  time.Duration
	done      chan struct{}
}

func NewHealthCheckJob(tenants interfaces.TenantStore, lifecycle *usecases.ConnectionLifecycle, interval time.Duration) *HealthCheckJob {
	return &HealthCheckJob{
		tenants:   tenants,
		lifecycle: lifecycle,
		interval:  interval,
		done:      make(chan struct{}),
	}
}

func (j *HealthCheckJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("health check job started")
}

func (j *HealthCheckJob) Stop() {
	close(j.done)
	log.Info().Msg("health check job stopped")
}

func (j *HealthCheckJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *HealthCheckJob) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	tenants, err := j.tenants.ListActive(ctx)
	if err != nil {
		log.Error().Err(err).Msg("health sweep could not list tenants")
		return
	}

	for _, t := range tenants {
		if err := j.lifecycle.CheckHealth(ctx, t.ID); err != nil {
			// Probe errors are inconclusive; the record is left alone
			// and the next sweep retries.
			log.Warn().Err(err).Int("tenant_id", t.ID).Msg("health probe failed")
		}
	}
}
