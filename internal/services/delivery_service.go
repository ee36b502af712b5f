// Delivery engine.
//
// Pushes unsent outbox records to the remote API under the session's bearer
// credential, one authenticated submission per record, carrying the
// client_record_id the remote side deduplicates on. A 2xx marks the record
// sent (monotonic, excluded from future passes); anything else records the
// failure on the record and leaves it eligible for the next pass.
//
// The retry loop is an owned, cancellable scheduled task, not an ambient
// interval: passes never overlap, start and stop are idempotent, liveness
// is checked before every pass and every re-arm, and an in-flight attempt
// is allowed to complete and record its result even if cancellation arrives
// meanwhile.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/demographikon/go-canvass-sync/internal/domain"
)

var (
	// deliveredTotal counts records accepted by the remote API.
	deliveredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "canvass_records_delivered_total",
		Help: "Total records accepted by the remote API.",
	})
	// deliveryFailures counts failed submission attempts.
	deliveryFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "canvass_delivery_failures_total",
		Help: "Total failed record submission attempts.",
	})
	// sendPasses counts completed send passes.
	sendPasses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "canvass_send_passes_total",
		Help: "Total completed send passes over the outbox.",
	})
	// unsentRecords gauges records still awaiting delivery after a pass.
	unsentRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "canvass_records_unsent",
		Help: "Records still awaiting delivery after the last pass.",
	})
)

func init() {
	prometheus.MustRegister(deliveredTotal, deliveryFailures, sendPasses, unsentRecords)
}

// RecordSubmitter is the remote contract for record delivery.
type RecordSubmitter interface {
	SubmitRecord(ctx context.Context, bearer string, rec *domain.Record) error
}

// SessionSource supplies the bearer credential for submissions.
type SessionSource interface {
	Current() (*domain.Session, error)
}

// Queue is the outbox access the delivery engine is granted: reading unsent
// records and requesting status mutations. It never constructs or deletes
// records.
type Queue interface {
	ListUnsent(ctx context.Context) ([]domain.Record, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, detail string) error
}

// Notifier is the backup channel interest in a finished pass. Its failure
// is surfaced on the summary and never retried by this engine.
type Notifier interface {
	Notify(ctx context.Context) error
}

// Summary reports the outcome of one send pass.
type Summary struct {
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
	Remaining int `json:"remaining"`
	// BackupError carries a backup-channel failure as a non-fatal
	// annotation; primary delivery status is never distorted by it.
	BackupError string `json:"backup_error,omitempty"`
}

// DeliveryService drives record submission and the bounded retry loop.
type DeliveryService struct {
	Sessions  SessionSource
	Queue     Queue
	Submitter RecordSubmitter
	// Backup, when non-nil, is notified after each pass that delivered
	// at least one record.
	Backup Notifier
	// Interval is the pause between retry passes.
	Interval time.Duration

	// passMu serializes send passes; a pass triggered by the operator and
	// one fired by the retry loop must not interleave.
	passMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// SendAll pushes every unsent record once, in insertion order, and returns
// the pass summary. Records that fail stay queued with their error detail;
// records already sent are never re-submitted.
func (s *DeliveryService) SendAll(ctx context.Context) (Summary, error) {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	sess, err := s.Sessions.Current()
	if err != nil {
		return Summary{}, err
	}

	pending, err := s.Queue.ListUnsent(ctx)
	if err != nil {
		return Summary{}, err
	}

	tr := otel.Tracer("services/DeliveryService")
	ctx, span := tr.Start(ctx, "SendAll",
		trace.WithAttributes(
			attribute.Int("outbox.pending", len(pending)),
		),
	)
	defer span.End()

	var sum Summary
	for i := range pending {
		rec := &pending[i]
		if err := s.Submitter.SubmitRecord(ctx, sess.Bearer, rec); err != nil {
			deliveryFailures.Inc()
			sum.Failed++
			log.Warn().Err(err).Str("record", rec.ID).Str("address", rec.Address).Msg("delivery attempt failed")
			if merr := s.Queue.MarkFailed(ctx, rec.ID, err.Error()); merr != nil {
				log.Error().Err(merr).Str("record", rec.ID).Msg("could not record delivery failure")
			}
			continue
		}
		deliveredTotal.Inc()
		sum.Delivered++
		if merr := s.Queue.MarkSent(ctx, rec.ID); merr != nil {
			log.Error().Err(merr).Str("record", rec.ID).Msg("could not mark record sent")
		}
	}
	sum.Remaining = len(pending) - sum.Delivered

	sendPasses.Inc()
	unsentRecords.Set(float64(sum.Remaining))
	log.Info().Int("delivered", sum.Delivered).Int("failed", sum.Failed).Int("remaining", sum.Remaining).Msg("send pass complete")

	if s.Backup != nil && sum.Delivered > 0 {
		if err := s.Backup.Notify(ctx); err != nil {
			be := &BackupChannelError{Err: err}
			sum.BackupError = be.Error()
			log.Warn().Err(err).Msg("backup notification failed (non-fatal)")
		}
	}
	return sum, nil
}

// StartRetry launches the retry loop: a send pass now, then one per
// interval until nothing remains unsent or StopRetry is called. Starting
// while already running returns ErrRetryRunning and changes nothing.
func (s *DeliveryService) StartRetry(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrRetryRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	interval := s.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	go s.retryLoop(runCtx, interval, done)
	log.Info().Dur("interval", interval).Msg("retry loop started")
	return nil
}

// retryLoop runs passes until convergence or cancellation. The loop checks
// liveness before each pass and before each re-arm; the pass itself runs on
// a detached context so an in-flight attempt completes and its result is
// recorded even when cancellation was requested meanwhile.
func (s *DeliveryService) retryLoop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)
	defer s.clearLoop(done)

	for {
		if ctx.Err() != nil {
			return
		}

		sum, err := s.SendAll(context.WithoutCancel(ctx))
		if err != nil {
			log.Error().Err(err).Msg("send pass aborted")
		} else if sum.Remaining == 0 {
			log.Info().Msg("retry loop converged, nothing unsent")
			return
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// clearLoop releases the running state when the loop exits on its own.
func (s *DeliveryService) clearLoop(done chan struct{}) {
	s.mu.Lock()
	if s.done == done {
		if s.cancel != nil {
			s.cancel()
		}
		s.cancel = nil
		s.done = nil
	}
	s.mu.Unlock()
}

// StopRetry cancels the retry loop and waits for it to wind down. Stopping
// an idle engine is a no-op.
func (s *DeliveryService) StopRetry() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Info().Msg("retry loop stopped")
}

// Running reports whether the retry loop is active.
func (s *DeliveryService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}
