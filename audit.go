package session

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// AuditSink persists audit entries. The bun repository satisfies it through
// auditRepositorySink; tests plug in mocks.
type AuditSink interface {
	Record(ctx context.Context, entry *AuditEntry) error
}

// AuditSinkFunc adapts a function to the AuditSink interface.
type AuditSinkFunc func(ctx context.Context, entry *AuditEntry) error

// Record implements AuditSink.
func (f AuditSinkFunc) Record(ctx context.Context, entry *AuditEntry) error {
	if f == nil {
		return nil
	}
	return f(ctx, entry)
}

// NewRepositorySink adapts the audit repository into an AuditSink.
func NewRepositorySink(audits repository.Repository[*AuditEntry]) AuditSink {
	return AuditSinkFunc(func(ctx context.Context, entry *AuditEntry) error {
		_, err := audits.Create(ctx, entry)
		return err
	})
}

// AuditOption decorates an entry before it is queued.
type AuditOption func(*AuditEntry)

// WithEntity attaches the entity the action touched.
func WithEntity(entityType, entityID string) AuditOption {
	return func(e *AuditEntry) {
		e.EntityType = entityType
		e.EntityID = entityID
	}
}

// WithDescription sets the human-readable description.
func WithDescription(description string) AuditOption {
	return func(e *AuditEntry) {
		e.Description = description
	}
}

// WithActor records who performed the action.
func WithActor(actorID string) AuditOption {
	return func(e *AuditEntry) {
		e.ActorID = actorID
	}
}

// WithAuditMetadata merges free-form metadata into the entry.
func WithAuditMetadata(metadata map[string]any) AuditOption {
	return func(e *AuditEntry) {
		if len(metadata) == 0 {
			return
		}
		if e.Metadata == nil {
			e.Metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			e.Metadata[k] = v
		}
	}
}

// Recorder is the fire-and-forget audit logger. Record enqueues and returns;
// a single consumer goroutine persists entries and absorbs every failure.
// Callers never block on delivery and never see a write error.
type Recorder struct {
	sink         AuditSink
	logger       Logger
	queue        chan *AuditEntry
	writeTimeout time.Duration
	now          func() time.Time

	closeOnce sync.Once
	done      chan struct{}

	mu     sync.Mutex
	closed bool
}

// RecorderOption customizes a Recorder.
type RecorderOption func(*Recorder)

// WithRecorderLogger overrides the logger used for swallowed failures.
func WithRecorderLogger(l Logger) RecorderOption {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRecorderQueueSize sets the queue depth. Entries beyond it are dropped
// with a warning rather than blocking the caller.
func WithRecorderQueueSize(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.queue = make(chan *AuditEntry, n)
		}
	}
}

// WithRecorderWriteTimeout bounds each persistence attempt.
func WithRecorderWriteTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.writeTimeout = d
		}
	}
}

// WithRecorderClock injects a clock (useful for tests).
func WithRecorderClock(clock func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if clock != nil {
			r.now = clock
		}
	}
}

// NewRecorder starts a Recorder over the given sink.
func NewRecorder(sink AuditSink, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		sink:         sink,
		logger:       defLogger{},
		queue:        make(chan *AuditEntry, 64),
		writeTimeout: 5 * time.Second,
		now:          time.Now,
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	go r.consume()

	return r
}

// Record queues an audit entry. It never returns an error: a full queue or
// a closed recorder drops the entry with a warning.
func (r *Recorder) Record(action AuditAction, opts ...AuditOption) {
	entry := &AuditEntry{
		ID:     uuid.New(),
		Action: action,
	}
	ts := r.now()
	entry.CreatedAt = &ts

	for _, opt := range opts {
		if opt != nil {
			opt(entry)
		}
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.logger.Warn("audit recorder closed, dropping entry: %s", action)
		return
	}

	select {
	case r.queue <- entry:
		r.mu.Unlock()
	default:
		r.mu.Unlock()
		r.logger.Warn("audit queue full, dropping entry: %s", action)
	}
}

// Close stops accepting entries and drains the queue before returning.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()

		close(r.queue)
		<-r.done
	})
}

func (r *Recorder) consume() {
	defer close(r.done)

	for entry := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
		if err := r.sink.Record(ctx, entry); err != nil {
			r.logger.Warn("audit write failed: %v", err)
		}
		cancel()
	}
}
