package progress

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/abhisek/mathportal/internal/errs"
)

// syncer serializes remote progress writes for one lesson. At most one
// PostProgress is in flight; updates queued meanwhile collapse to the
// newest, so a slow write can never land after a newer one.
type syncer struct {
	svc LessonService
	log zerolog.Logger

	mu      sync.Mutex
	latest  *ProgressUpdate
	lastRev int64
	closing bool

	wake   chan struct{}
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	// onResult, when set, observes every completed write.
	onResult func(ProgressUpdate, error)
}

func newSyncer(svc LessonService, log zerolog.Logger) *syncer {
	ctx, cancel := context.WithCancel(context.Background())
	s := &syncer{
		svc:    svc,
		log:    log,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
	go s.run()
	return s
}

// enqueue schedules u, replacing any update still waiting.
func (s *syncer) enqueue(u ProgressUpdate) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return
	}
	s.latest = &u
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *syncer) take() (*ProgressUpdate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.latest
	s.latest = nil
	return u, s.closing
}

func (s *syncer) run() {
	defer close(s.done)
	for range s.wake {
		u, closing := s.take()
		if u != nil {
			s.post(*u)
		}
		if closing {
			return
		}
	}
}

func (s *syncer) post(u ProgressUpdate) {
	if u.Revision <= s.lastRev {
		return
	}
	err := s.svc.PostProgress(s.ctx, u)
	if err != nil {
		syncErr := &errs.TransientSyncError{Op: "progress sync", Err: err}
		s.log.Warn().Err(syncErr).
			Int64("revision", u.Revision).
			Int("percent", u.Percent).
			Msg("remote progress sync failed; local cache holds latest state")
	} else {
		s.lastRev = u.Revision
		s.log.Debug().Int64("revision", u.Revision).Int("percent", u.Percent).Msg("progress synced")
	}
	if s.onResult != nil {
		s.onResult(u, err)
	}
}

// close flushes the pending update and stops the worker. If ctx ends first
// the in-flight write is cancelled.
func (s *syncer) close(ctx context.Context) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}

	select {
	case <-s.done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-s.done
		return ctx.Err()
	}
}
