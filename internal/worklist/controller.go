// Package worklist keeps the authoritative list of work records in sync
// with the backend and derives filtered views of it.
package worklist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mmynk/worklog/internal/calculator"
	"github.com/mmynk/worklog/internal/filter"
	"github.com/mmynk/worklog/internal/models"
)

// ErrClosed is returned by operations on a closed controller.
var ErrClosed = errors.New("worklist controller closed")

// Controller owns the authoritative record list.
//
// Every load takes a sequence number when it starts and its result is
// applied only if no later-started load has been applied already. At most
// one subscription is live at a time.
type Controller struct {
	src      Source
	logger   *slog.Logger
	notifier Notifier

	// subMu serializes Subscribe and Close so that handles never stack.
	subMu sync.Mutex

	mu         sync.Mutex
	records    []models.WorkRecord
	loaded     bool
	nextSeq    uint64
	appliedSeq uint64
	closed     bool
	handle     *Handle
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithNotifier sets where user-visible notices go.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// New creates a controller over src. The list starts empty until the
// first successful Load.
func New(src Source, opts ...Option) *Controller {
	c := &Controller{
		src:      src,
		logger:   slog.Default(),
		notifier: discardNotifier{},
		records:  []models.WorkRecord{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches all records and replaces the list. On failure the previous
// list is kept and a NoticeLoadFailed is emitted.
func (c *Controller) Load(ctx context.Context) error {
	_, err := c.refresh(ctx)
	if err != nil && !errors.Is(err, ErrClosed) {
		c.notifier.Notify(Notice{Kind: NoticeLoadFailed, Err: err})
	}
	return err
}

// refresh runs one sequenced load. applied is false when the result was
// discarded as stale or because the controller closed meanwhile.
func (c *Controller) refresh(ctx context.Context) (applied bool, err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, ErrClosed
	}
	c.nextSeq++
	seq := c.nextSeq
	c.mu.Unlock()

	records, err := c.src.ListRecords(ctx)
	if err != nil {
		c.logger.Error("Failed to load records", "seq", seq, "error", err)
		return false, fmt.Errorf("failed to load records: %w", err)
	}

	c.mu.Lock()
	switch {
	case c.closed:
	case seq <= c.appliedSeq:
	default:
		c.records = models.CloneRecords(records)
		if c.records == nil {
			c.records = []models.WorkRecord{}
		}
		c.appliedSeq = seq
		c.loaded = true
		applied = true
	}
	c.mu.Unlock()

	if applied {
		c.logger.Debug("Records loaded", "seq", seq, "count", len(records))
	} else {
		c.logger.Debug("Discarded stale load", "seq", seq)
	}
	return applied, nil
}

// Records returns a copy of the current list.
func (c *Controller) Records() []models.WorkRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.CloneRecords(c.records)
}

// Loaded reports whether any load has succeeded.
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// View is a filtered snapshot of the list.
type View struct {
	Spec    filter.Spec
	Records []models.WorkRecord
	Totals  calculator.Summary
	// Options are drawn from the whole list, not just the filtered part.
	Options filter.Options
}

// View filters the current list with spec and totals the result.
func (c *Controller) View(spec filter.Spec) View {
	all := c.Records()
	filtered := filter.Apply(all, spec)
	return View{
		Spec:    spec,
		Records: filtered,
		Totals:  calculator.Totals(filtered),
		Options: filter.CollectOptions(all),
	}
}

// Subscribe opens a live subscription. Each burst of change events causes
// one reload, after which onChange is called from the controller's
// goroutine. A previous subscription is torn down first. onChange must not
// call Unsubscribe or Close.
func (c *Controller) Subscribe(ctx context.Context, onChange func()) (*Handle, error) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	old := c.handle
	c.mu.Unlock()
	if old != nil {
		old.Unsubscribe()
	}

	ctx, cancel := context.WithCancel(ctx)
	sub, err := c.src.Subscribe(ctx, models.MaskAll)
	if err != nil {
		cancel()
		c.logger.Error("Failed to subscribe to record changes", "error", err)
		err = fmt.Errorf("failed to subscribe: %w", err)
		c.notifier.Notify(Notice{Kind: NoticeSubscribeFailed, Err: err})
		return nil, err
	}

	if onChange == nil {
		onChange = func() {}
	}
	h := &Handle{
		c:        c,
		sub:      sub,
		onChange: onChange,
		cancel:   cancel,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	c.mu.Lock()
	c.handle = h
	c.mu.Unlock()

	go h.drain(ctx)
	c.logger.Debug("Subscribed to record changes")
	return h, nil
}

// Close tears down the subscription. Loads that finish afterwards are
// discarded and further calls fail with ErrClosed.
func (c *Controller) Close() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	c.mu.Lock()
	c.closed = true
	h := c.handle
	c.mu.Unlock()

	if h != nil {
		h.Unsubscribe()
	}
}

// Handle is a live subscription owned by a Controller.
type Handle struct {
	c        *Controller
	sub      Subscription
	onChange func()
	cancel   context.CancelFunc

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// Unsubscribe stops live updates. It is idempotent and returns only after
// the background goroutine has exited, so no later event changes state.
func (h *Handle) Unsubscribe() {
	h.once.Do(func() {
		close(h.stop)
		h.cancel()
		h.sub.Unsubscribe()
		<-h.done

		h.c.mu.Lock()
		if h.c.handle == h {
			h.c.handle = nil
		}
		h.c.mu.Unlock()
		h.c.logger.Debug("Unsubscribed from record changes")
	})
}

func (h *Handle) stopped() bool {
	select {
	case <-h.stop:
		return true
	default:
		return false
	}
}

// drain turns event bursts into reloads. Events that arrive while a
// reload runs leave a single pending reload behind.
func (h *Handle) drain(ctx context.Context) {
	defer close(h.done)
	events := h.sub.Events()

	for {
		select {
		case <-h.stop:
			return
		case _, ok := <-events:
			if !ok {
				h.lost(ctx)
				return
			}
		}

		for pending := true; pending; {
			if h.stopped() {
				return
			}
			applied, err := h.c.refresh(ctx)
			switch {
			case errors.Is(err, ErrClosed):
				return
			case err != nil:
				if ctx.Err() == nil && !h.stopped() {
					h.c.notifier.Notify(Notice{Kind: NoticeLoadFailed, Err: err})
				}
			case applied && !h.stopped():
				h.onChange()
			}

			pending = false
		collect:
			for {
				select {
				case _, ok := <-events:
					if !ok {
						h.lost(ctx)
						return
					}
					pending = true
				default:
					break collect
				}
			}
		}
	}
}

// lost reports a stream that ended without Unsubscribe.
func (h *Handle) lost(ctx context.Context) {
	if h.stopped() || ctx.Err() != nil {
		return
	}
	h.c.logger.Warn("Record change stream ended")
	h.c.notifier.Notify(Notice{Kind: NoticeSubscriptionLost})
}
