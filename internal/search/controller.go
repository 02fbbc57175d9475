package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// errBufferSize is the default capacity of the Errors channel.
const errBufferSize = 16

// Config is fixed at construction.
type Config struct {
	PageSize           int
	SelectionMode      SelectionMode
	SubmitVisible      bool // Activation toggles checkboxes; Submit delivers them
	ShowLoaderOnSelect bool // Direct activation waits for CompleteSelection before closing
	FetchesFromServer  bool
	Debounce           time.Duration
}

// Handlers are the embedder callbacks. Both are optional. Errors and
// panics raised by them are logged and reported on Errors, never returned.
type Handlers struct {
	Selected func(items []*Item) error
	Close    func()
}

// Options configures a Controller.
type Options struct {
	Config   Config
	Handlers Handlers

	// Fetcher is required when Config.FetchesFromServer is set.
	Fetcher Fetcher

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// ErrorBuffer is the capacity of the Errors channel (default 16).
	ErrorBuffer int
}

type searchState int

const (
	searchIdle      searchState = iota
	searchPending               // Debounce timer running
	searchFiltering             // Filter being applied
)

type pageState int

const (
	pageIdle pageState = iota
	pageLoadingMore
)

// Controller orchestrates filtering, paging and selection over one list.
// All state is guarded by mu; mu is never held across the debounce delay,
// a fetch, or an embedder callback.
type Controller struct {
	id       string
	cfg      Config
	handlers Handlers
	fetcher  Fetcher
	logger   *slog.Logger
	gate     *debounceGate
	errs     chan error

	mu      sync.Mutex
	store   resultStore
	cursor  *cursor
	sel     selectionTracker
	search  searchState
	paging  pageState
	epoch   uint64 // Bumped whenever the active list is replaced
	binds   uint64 // Bumped whenever the full list is replaced
	version uint64
	busy    bool
	bound   bool
	atEnd   bool
	closed  bool
	lastErr error
	subs    map[int]func(Snapshot)
	nextSub int
}

// New creates a Controller. Call Bind or BindFrom before raising events.
func New(opts Options) (*Controller, error) {
	cfg := opts.Config
	if cfg.PageSize < 1 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.FetchesFromServer && opts.Fetcher == nil {
		return nil, ErrNoFetcher
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	bufSize := opts.ErrorBuffer
	if bufSize <= 0 {
		bufSize = errBufferSize
	}

	id := uuid.NewString()
	c := &Controller{
		id:       id,
		cfg:      cfg,
		handlers: opts.Handlers,
		fetcher:  opts.Fetcher,
		logger:   logger.With("controller_id", id),
		errs:     make(chan error, bufSize),
		cursor:   newCursor(cfg.PageSize),
		sel:      selectionTracker{mode: cfg.SelectionMode},
		subs:     make(map[int]func(Snapshot)),
	}
	c.gate = newDebounceGate(cfg.Debounce, c.applyQuery)
	return c, nil
}

// ID returns the controller's instance identifier, used in log lines.
func (c *Controller) ID() string { return c.id }

// Config returns the effective configuration.
func (c *Controller) Config() Config { return c.cfg }

// Errors delivers fetch, load and callback failures. It is buffered; when
// full, further failures are logged and dropped.
func (c *Controller) Errors() <-chan error { return c.errs }

// Subscribe registers fn to receive every published Snapshot. fn is called
// outside the controller lock, possibly from a timer or fetch goroutine.
// The returned func removes the subscription.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Bind replaces the full set with items and publishes page one.
func (c *Controller) Bind(items []*Item) {
	c.beginBind()
	c.finishBind(items, nil)
}

// BindFrom loads the initial items through loader and publishes page one.
// A load failure is reported on Errors and leaves an empty list bound.
func (c *Controller) BindFrom(ctx context.Context, loader Loader) error {
	c.beginBind()
	items, err := safeLoad(ctx, loader)
	if err != nil {
		err = fmt.Errorf("load items: %w", err)
		c.logger.Warn("initial load failed", "error", err)
		items = nil
	}
	c.finishBind(items, err)
	if err != nil {
		c.report(err)
	}
	return err
}

func (c *Controller) beginBind() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.busy = true
	c.publishLocked()
}

func (c *Controller) finishBind(items []*Item, loadErr error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.store.bind(items)
	c.epoch++
	c.binds++
	c.cursor.Reset(c.store.active())
	// A debounced query still waiting applies to the new items.
	if c.search != searchPending {
		c.search = searchIdle
	}
	// An in-flight fetch keeps the paging slot; its result is dropped.
	c.atEnd = false
	c.lastErr = loadErr
	c.busy = false
	c.bound = true
	c.logger.Debug("bound items", "count", len(items), "page_size", c.cfg.PageSize)
	c.publishLocked()
}

// TextChanged restarts the debounce for text. It never blocks on filtering.
func (c *Controller) TextChanged(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.search = searchPending
	c.gate.Submit(text)
}

// applyQuery runs when the debounce gate fires. Results for a generation
// that is no longer the latest are discarded.
func (c *Controller) applyQuery(q Query) {
	c.mu.Lock()
	if c.closed || q.Generation != c.gate.Current() {
		c.mu.Unlock()
		return
	}
	c.search = searchFiltering
	c.store.applyQuery(q.Text)
	c.epoch++
	c.cursor.Reset(c.store.active())
	c.lastErr = nil
	c.search = searchIdle
	c.logger.Debug("query applied",
		"generation", q.Generation,
		"matched", len(c.store.active()),
		"filtered", c.store.isFiltered(),
	)
	c.publishLocked()
}

// NearEnd extends the window by one page, from memory when possible and
// otherwise through the Fetcher. It runs in the caller's goroutine and
// returns false when dropped because another step is in flight or the
// controller is not bound.
func (c *Controller) NearEnd(ctx context.Context) bool {
	c.mu.Lock()
	if c.closed || !c.bound || c.paging == pageLoadingMore {
		c.mu.Unlock()
		return false
	}
	c.paging = pageLoadingMore

	if page := c.cursor.Next(c.store.active()); len(page) > 0 {
		c.paging = pageIdle
		c.lastErr = nil
		c.publishLocked()
		return true
	}
	if !c.cfg.FetchesFromServer || c.atEnd {
		c.paging = pageIdle
		c.mu.Unlock()
		return true
	}

	// Sources page by position in the full list, which is also where the
	// fetched rows are appended.
	offset, limit, epoch, binds := len(c.store.full), c.cfg.PageSize, c.epoch, c.binds
	c.publishLocked()

	c.logger.Debug("fetching more", "offset", offset, "limit", limit)
	items, err := safeFetch(ctx, c.fetcher, offset, limit)

	c.mu.Lock()
	c.paging = pageIdle
	if c.closed {
		c.mu.Unlock()
		return true
	}
	if binds != c.binds {
		c.logger.Debug("dropping fetch for a replaced item set",
			"offset", offset, "received", len(items), "error", err)
		c.publishLocked()
		return true
	}
	if err != nil {
		ferr := &FetchError{Offset: offset, Limit: limit, Err: err}
		c.lastErr = ferr
		c.logger.Warn("fetch more failed", "offset", offset, "limit", limit, "error", err)
		c.publishLocked()
		c.report(ferr)
		return true
	}

	c.lastErr = nil
	if len(items) == 0 {
		c.atEnd = true
		c.publishLocked()
		return true
	}
	added := c.store.appendFull(items)
	if epoch == c.epoch {
		c.cursor.Next(c.store.active())
	}
	c.logger.Debug("fetched more",
		"received", len(items),
		"joined_active", added,
		"stale", epoch != c.epoch,
	)
	c.publishLocked()
	return true
}

// Activate handles a tap on item. With a submit button it toggles the
// checkbox and keeps the list open; otherwise it forwards the item to the
// Selected handler and requests close, unless the loader is shown, in which
// case close waits for CompleteSelection.
func (c *Controller) Activate(item *Item) {
	if item == nil {
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.cfg.SubmitVisible {
		c.sel.Toggle(c.store.full, item)
		c.publishLocked()
		return
	}
	showLoader := c.cfg.ShowLoaderOnSelect
	if showLoader {
		item.Busy = true
		c.publishLocked()
	} else {
		c.mu.Unlock()
	}

	c.callSelected([]*Item{item})
	if !showLoader {
		c.requestClose()
	}
}

// CompleteSelection ends a show-loader selection started by Activate.
func (c *Controller) CompleteSelection(item *Item) {
	c.mu.Lock()
	if item != nil {
		item.Busy = false
	}
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.publishLocked()
	c.requestClose()
}

// Submit delivers the checked items to the Selected handler and requests
// close. It does nothing without a submit button or a checked item, and
// reports whether anything was delivered. Close is requested even when the
// handler fails.
func (c *Controller) Submit() bool {
	c.mu.Lock()
	if c.closed || !c.cfg.SubmitVisible {
		c.mu.Unlock()
		return false
	}
	checked := c.sel.Checked(c.store.full)
	c.mu.Unlock()
	if len(checked) == 0 {
		return false
	}

	c.callSelected(checked)
	c.requestClose()
	return true
}

// Checked returns every checked item of the full set, including ones
// outside the current filtered view.
func (c *Controller) Checked() []*Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.Checked(c.store.full)
}

// Close stops the debounce timer and detaches subscribers. Events raised
// afterwards are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.gate.Stop()
	clear(c.subs)
}

// snapshotLocked builds a Snapshot; mu must be held.
func (c *Controller) snapshotLocked() Snapshot {
	active := c.store.active()
	visible := c.cursor.Visible(active)
	return Snapshot{
		Version:     c.version,
		Displayed:   slices.Clone(visible),
		Query:       c.store.query,
		Busy:        c.busy,
		LoadingMore: c.paging == pageLoadingMore,
		Pending:     c.search != searchIdle,
		Exposed:     len(visible),
		Matched:     len(active),
		Total:       len(c.store.full),
		AtEnd:       c.atEnd,
		Err:         c.lastErr,
	}
}

// publishLocked takes a snapshot, releases mu and notifies subscribers.
// mu must be held on entry and is released on return.
func (c *Controller) publishLocked() {
	c.version++
	snap := c.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// report sends err on the error channel without blocking.
func (c *Controller) report(err error) {
	select {
	case c.errs <- err:
	default:
		c.logger.Warn("error channel full, dropping notification", "error", err)
	}
}

func (c *Controller) callSelected(items []*Item) {
	if c.handlers.Selected == nil {
		return
	}
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = recovered(r)
			}
		}()
		return c.handlers.Selected(items)
	}()
	if err != nil {
		c.logger.Warn("selected handler failed", "items", len(items), "error", err)
		c.report(&CallbackError{Handler: "selected", Err: err})
	}
}

func (c *Controller) requestClose() {
	if c.handlers.Close == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			err := recovered(r)
			c.logger.Warn("close handler failed", "error", err)
			c.report(&CallbackError{Handler: "close", Err: err})
		}
	}()
	c.handlers.Close()
}

func safeFetch(ctx context.Context, f Fetcher, offset, limit int) (items []*Item, err error) {
	defer func() {
		if r := recover(); r != nil {
			items, err = nil, recovered(r)
		}
	}()
	return f.Fetch(ctx, offset, limit)
}

func safeLoad(ctx context.Context, l Loader) (items []*Item, err error) {
	if l == nil {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			items, err = nil, recovered(r)
		}
	}()
	return l.Load(ctx)
}
