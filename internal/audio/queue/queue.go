package queue

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidInput is returned synchronously when a caller enqueues an
	// empty character or text.
	ErrInvalidInput = errors.New("queue: invalid narration parameters")

	// ErrCleared settles every item outstanding when Clear is invoked.
	ErrCleared = errors.New("queue: cleared")

	// ErrNoProcessor means the queue was built without a processor. This is a
	// usage error, fatal on the first item; retries cannot help.
	ErrNoProcessor = errors.New("queue: no processor configured")
)

// Item is one narration line handed to the processor.
type Item struct {
	ID        uuid.UUID
	Character string
	Text      string
}

// Processor turns one narration line into audible speech. It must not retry
// internally; the retry policy lives in the queue.
type Processor func(ctx context.Context, item Item) error

// Options tunes the retry and pacing behaviour.
type Options struct {
	// MaxRetries is the number of additional attempts after the first
	// failure. Default 3.
	MaxRetries int

	// RetryDelay is the wait before the first retry. Default 2s.
	RetryDelay time.Duration

	// BackoffMultiplier scales the delay on each further retry. Default 1.0,
	// a constant interval.
	BackoffMultiplier float64

	// PacingDelay is the gap after a successful item before the next one
	// starts, preventing audio overlap artifacts. Default 500ms.
	PacingDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxRetries == 0 {
		o.MaxRetries = 3
	}
	if o.RetryDelay == 0 {
		o.RetryDelay = 2 * time.Second
	}
	if o.BackoffMultiplier == 0 {
		o.BackoffMultiplier = 1.0
	}
	if o.PacingDelay == 0 {
		o.PacingDelay = 500 * time.Millisecond
	}
	return o
}

// task pairs an item with its settlement channel. The channel is buffered and
// receives exactly one value: nil on success, the triggering error otherwise.
type task struct {
	item    Item
	result  chan error
	settled bool
}

// Queue plays narration lines strictly in insertion order, one at a time.
// Items are drained by a single goroutine; at most one item is ever in
// flight, and the retry counter is scoped to the head item only.
type Queue struct {
	mu         sync.Mutex
	proc       Processor
	opts       Options
	tasks      []*task
	current    *task
	retries    int
	processing bool
	gen        uint64
	cancel     context.CancelFunc
	log        *logrus.Entry
}

// New creates a queue that hands items to proc.
func New(proc Processor, opts Options) *Queue {
	return &Queue{
		proc: proc,
		opts: opts.withDefaults(),
		log:  logrus.WithField("component", "queue"),
	}
}

// Enqueue appends a narration line and returns its settlement channel. The
// call never blocks on playback; processing happens asynchronously. Inputs
// that are empty after trimming fail synchronously and never enter the queue.
func (q *Queue) Enqueue(character, text string) (<-chan error, error) {
	if strings.TrimSpace(character) == "" {
		return nil, fmt.Errorf("%w: empty character", ErrInvalidInput)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", ErrInvalidInput)
	}

	t := &task{
		item:   Item{ID: uuid.New(), Character: character, Text: text},
		result: make(chan error, 1),
	}

	q.mu.Lock()
	q.tasks = append(q.tasks, t)
	q.log.WithFields(logrus.Fields{
		"item":      t.item.ID,
		"character": character,
		"pending":   len(q.tasks),
	}).Debug("narration enqueued")

	if !q.processing {
		q.processing = true
		ctx, cancel := context.WithCancel(context.Background())
		q.cancel = cancel
		go q.drain(ctx, q.gen)
	}
	q.mu.Unlock()

	return t.result, nil
}

// drain processes the queue head-to-tail until it is empty or cleared. gen
// identifies the queue lifetime this goroutine belongs to; Clear bumps the
// generation so a stale drainer exits without touching fresh state.
func (q *Queue) drain(ctx context.Context, gen uint64) {
	for {
		q.mu.Lock()
		if q.gen != gen {
			q.mu.Unlock()
			return
		}
		if len(q.tasks) == 0 {
			q.processing = false
			q.current = nil
			q.retries = 0
			q.cancel = nil
			q.mu.Unlock()
			return
		}
		t := q.tasks[0]
		q.current = t
		q.mu.Unlock()

		err := q.process(ctx, t.item)

		q.mu.Lock()
		if q.gen != gen {
			// Cleared mid-flight; Clear has already settled everything.
			q.mu.Unlock()
			return
		}

		if err == nil {
			q.popLocked(t)
			q.settleLocked(t, nil)
			q.retries = 0
			q.mu.Unlock()
			sleep(ctx, q.opts.PacingDelay)
			continue
		}

		fatal := errors.Is(err, ErrNoProcessor) || q.retries >= q.opts.MaxRetries
		if fatal {
			q.popLocked(t)
			q.settleLocked(t, err)
			q.retries = 0
			q.log.WithError(err).WithField("item", t.item.ID).Warn("narration abandoned")
			q.mu.Unlock()
			continue
		}

		q.retries++
		attempt := q.retries
		q.mu.Unlock()

		q.log.WithError(err).WithFields(logrus.Fields{
			"item":    t.item.ID,
			"attempt": attempt,
			"max":     q.opts.MaxRetries,
		}).Debug("retrying narration")
		sleep(ctx, q.backoff(attempt))
	}
}

func (q *Queue) process(ctx context.Context, item Item) error {
	if q.proc == nil {
		return ErrNoProcessor
	}
	return q.proc(ctx, item)
}

// backoff returns the wait before the given 1-based retry attempt.
func (q *Queue) backoff(attempt int) time.Duration {
	scale := math.Pow(q.opts.BackoffMultiplier, float64(attempt-1))
	return time.Duration(float64(q.opts.RetryDelay) * scale)
}

// Clear settles every pending and in-flight item with ErrCleared, interrupts
// any backoff wait or in-flight processor call, and resets all transient
// state. The queue accepts new items afterwards as if freshly constructed.
// Safe to call at any time, including mid-retry.
func (q *Queue) Clear() {
	q.mu.Lock()
	for _, t := range q.tasks {
		q.settleLocked(t, ErrCleared)
	}
	cleared := len(q.tasks)
	q.tasks = nil
	q.current = nil
	q.retries = 0
	q.processing = false
	q.gen++
	cancel := q.cancel
	q.cancel = nil
	q.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if cleared > 0 {
		q.log.WithField("items", cleared).Debug("queue cleared")
	}
}

// Len reports the number of unsettled items, including the in-flight one.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Processing reports whether the drain goroutine is active.
func (q *Queue) Processing() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.processing
}

// Current returns the in-flight item, if any.
func (q *Queue) Current() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil {
		return Item{}, false
	}
	return q.current.item, true
}

func (q *Queue) popLocked(t *task) {
	if len(q.tasks) > 0 && q.tasks[0] == t {
		q.tasks = q.tasks[1:]
	}
}

// settleLocked delivers a task's outcome exactly once.
func (q *Queue) settleLocked(t *task, err error) {
	if t.settled {
		return
	}
	t.settled = true
	t.result <- err
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
