package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Amund211/quotelight/internal/domain"
	"github.com/Amund211/quotelight/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type State int

const (
	StateEmpty State = iota
	StateAcquiring
	StateValid
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateAcquiring:
		return "acquiring"
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Credential is a session cookie and the crumb derived from it.
// The two are only valid together. Each acquisition yields a new instance.
type Credential struct {
	Cookie     string
	Crumb      string
	AcquiredAt time.Time
}

type Acquirer interface {
	FetchCookie(ctx context.Context) (string, error)
	FetchCrumb(ctx context.Context, cookie string) (string, error)
}

type Store struct {
	acquirer Acquirer
	nowFunc  func() time.Time
	tracer   trace.Tracer

	// Held for the duration of an acquisition
	acquireLock chan struct{}

	lock       sync.Mutex
	state      State
	credential *Credential
	// Incremented by Reset, so an acquisition started before a reset is not stored
	generation uint64
}

func NewStore(acquirer Acquirer, nowFunc func() time.Time) *Store {
	return &Store{
		acquirer:    acquirer,
		nowFunc:     nowFunc,
		tracer:      otel.Tracer("quotelight/auth"),
		acquireLock: make(chan struct{}, 1),
		state:       StateEmpty,
	}
}

func (s *Store) State() State {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}

// The current credential, or nil unless the state is valid
func (s *Store) Credential() *Credential {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.credential
}

// Reset discards the current credential. The next call acquires a new one.
func (s *Store) Reset() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.state = StateExpired
	s.credential = nil
	s.generation++
	metrics.resets.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", "manual")))
}

func (s *Store) current() *Credential {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.state != StateValid {
		return nil
	}
	return s.credential
}

// expire discards used if it is still the current credential.
// Returns false if someone else already replaced it.
func (s *Store) expire(ctx context.Context, used *Credential) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.state != StateValid || s.credential != used {
		return false
	}

	s.state = StateExpired
	s.credential = nil
	metrics.resets.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "unauthorized")))
	return true
}

// valid returns the current credential, acquiring one if there is none.
// Concurrent callers share one acquisition.
func (s *Store) valid(ctx context.Context) (*Credential, error) {
	if credential := s.current(); credential != nil {
		return credential, nil
	}

	select {
	case s.acquireLock <- struct{}{}:
		defer func() {
			<-s.acquireLock
		}()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// Someone else may have acquired while we waited
	s.lock.Lock()
	if s.state == StateValid {
		credential := s.credential
		s.lock.Unlock()
		return credential, nil
	}
	previous := s.state
	generation := s.generation
	s.state = StateAcquiring
	s.lock.Unlock()

	credential, err := s.acquire(ctx)

	s.lock.Lock()
	defer s.lock.Unlock()
	if s.generation != generation {
		// Reset while acquiring. The caller may use the credential, the store stays expired.
		return credential, err
	}
	if err != nil {
		s.state = previous
		return nil, err
	}
	s.state = StateValid
	s.credential = credential
	return credential, nil
}

func (s *Store) acquire(ctx context.Context) (*Credential, error) {
	ctx, span := s.tracer.Start(ctx, "auth.acquire")
	defer span.End()

	logger := logging.FromContext(ctx)

	fail := func(step string, err error) (*Credential, error) {
		logger.WarnContext(ctx, "Failed to acquire credential", "step", step, "error", err)
		metrics.acquisitions.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "failure"), attribute.String("step", step)))
		span.SetStatus(codes.Error, step)
		span.RecordError(err)
		return nil, fmt.Errorf("%w: failed to fetch %s: %w", domain.ErrAcquisitionFailure, step, err)
	}

	cookie, err := s.acquirer.FetchCookie(ctx)
	if err != nil {
		return fail("cookie", err)
	}

	crumb, err := s.acquirer.FetchCrumb(ctx, cookie)
	if err != nil {
		return fail("crumb", err)
	}

	metrics.acquisitions.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "success")))
	logger.InfoContext(ctx, "Acquired credential")

	return &Credential{
		Cookie:     cookie,
		Crumb:      crumb,
		AcquiredAt: s.nowFunc(),
	}, nil
}
