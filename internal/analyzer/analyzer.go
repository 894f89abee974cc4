package analyzer

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/penwyp/go-sleep-monitor/internal/core/analytics"
	"github.com/penwyp/go-sleep-monitor/internal/core/constants"
	"github.com/penwyp/go-sleep-monitor/internal/core/cycle"
	"github.com/penwyp/go-sleep-monitor/internal/core/model"
	"github.com/penwyp/go-sleep-monitor/internal/data/aggregator"
	"github.com/penwyp/go-sleep-monitor/internal/data/cache"
	"github.com/penwyp/go-sleep-monitor/internal/data/store"
	"github.com/penwyp/go-sleep-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-sleep-monitor/internal/util"
)

type Config struct {
	UserID       string
	StoreKind    string
	DataDir      string
	CacheDir     string
	NoCache      bool
	OutputFormat string
	Timezone     string
	Range        string
	From         string
	To           string
}

// logPather is implemented by stores whose data lives in one file per user.
type logPather interface {
	Path(userID string) string
}

type Analyzer struct {
	config     *Config
	store      store.Store
	cache      cache.Cache
	stats      *CacheStats
	aggregator *aggregator.Aggregator
	clock      *util.TimeProvider
	out        io.Writer

	// per-user *sync.Mutex serializing reads and writes of one log
	locks sync.Map
}

// New opens the configured store and builds an Analyzer over it.
func New(config *Config) (*Analyzer, error) {
	st, err := store.Open(config.StoreKind, config.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a, err := NewWithStore(config, st)
	if err != nil {
		st.Close()
		return nil, err
	}
	return a, nil
}

// NewWithStore builds an Analyzer over an already open store.
func NewWithStore(config *Config, st store.Store) (*Analyzer, error) {
	clock, err := util.NewTimeProvider(config.Timezone)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		config:     config,
		store:      st,
		stats:      NewCacheStats(),
		aggregator: aggregator.NewAggregator(clock.Location()),
		clock:      clock,
		out:        os.Stdout,
	}

	if _, ok := st.(logPather); ok && !config.NoCache && config.CacheDir != "" {
		fileCache, err := cache.NewFileCache(config.CacheDir)
		if err != nil {
			util.LogWarnf("Reconcile cache disabled: %v", err)
		} else {
			if err := fileCache.Preload(); err != nil {
				util.LogWarnf("Cache preload failed: %v", err)
			}
			a.cache = fileCache
		}
	}
	return a, nil
}

// SetOutput redirects formatted output, stdout by default.
func (a *Analyzer) SetOutput(w io.Writer) {
	a.out = w
}

// Clock returns the time provider used for "now" and day attribution.
func (a *Analyzer) Clock() *util.TimeProvider {
	return a.clock
}

// Store returns the backing store.
func (a *Analyzer) Store() store.Store {
	return a.store
}

// Stats returns the reconcile cache statistics.
func (a *Analyzer) Stats() *CacheStats {
	return a.stats
}

func (a *Analyzer) Close() error {
	a.stats.LogStats()
	return a.store.Close()
}

// Run renders the analytics report for the configured user and window.
func (a *Analyzer) Run() error {
	startTime := time.Now()

	w, err := a.ResolveWindow(a.config.Range, a.config.From, a.config.To)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.StoreFetchTimeout)
	defer cancel()

	report, err := a.Report(ctx, a.config.UserID, w)
	if err != nil {
		return err
	}

	outputStart := time.Now()
	f, err := formatter.New(a.config.OutputFormat, a.clock.Location())
	if err != nil {
		return err
	}
	err = f.FormatReport(a.out, report)
	util.LogDebugf("Formatting and output duration: %v", time.Since(outputStart))
	util.LogDebugf("Total duration: %v", time.Since(startTime))
	return err
}

// RunHistory renders the descending day-by-day history for the configured user.
func (a *Analyzer) RunHistory() error {
	ctx, cancel := context.WithTimeout(context.Background(), constants.StoreFetchTimeout)
	defer cancel()

	history, err := a.History(ctx, a.config.UserID)
	if err != nil {
		return err
	}
	if a.config.From != "" || a.config.To != "" {
		w, err := a.ResolveWindow("", a.config.From, a.config.To)
		if err != nil {
			return err
		}
		history = w.FilterBuckets(history)
	}

	f, err := formatter.New(a.config.OutputFormat, a.clock.Location())
	if err != nil {
		return err
	}
	return f.FormatHistory(a.out, history)
}

// ResolveWindow turns a named range or an explicit from/to pair into a
// window. Explicit dates win; a missing "to" means today.
func (a *Analyzer) ResolveWindow(rangeName, from, to string) (analytics.Window, error) {
	if from == "" && to == "" {
		if rangeName == "" {
			rangeName = string(analytics.RangeLast7Days)
		}
		r, err := analytics.ParseDateRange(rangeName)
		if err != nil {
			return analytics.Window{}, err
		}
		return analytics.Resolve(r, a.clock.Now())
	}

	if from == "" {
		return analytics.Window{}, fmt.Errorf("%w: --to requires --from", analytics.ErrInvalidWindow)
	}
	start, err := civil.ParseDate(from)
	if err != nil {
		return analytics.Window{}, fmt.Errorf("%w: %v", analytics.ErrInvalidWindow, err)
	}
	end := a.clock.Today()
	if to != "" {
		if end, err = civil.ParseDate(to); err != nil {
			return analytics.Window{}, fmt.Errorf("%w: %v", analytics.ErrInvalidWindow, err)
		}
	}
	return analytics.NewWindow(start, end)
}

// Events returns the raw event log of userID.
func (a *Analyzer) Events(ctx context.Context, userID string) ([]model.SleepEvent, error) {
	return a.store.List(ctx, userID)
}

// AllEvents returns every stored event ordered by user, then time.
func (a *Analyzer) AllEvents(ctx context.Context) ([]model.SleepEvent, error) {
	events, err := a.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].UserID != events[j].UserID {
			return events[i].UserID < events[j].UserID
		}
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events, nil
}

// Users returns the ids of users with stored events.
func (a *Analyzer) Users(ctx context.Context) ([]string, error) {
	return a.store.Users(ctx)
}

func (a *Analyzer) lockUser(userID string) func() {
	v, _ := a.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Reconcile loads and reconciles userID's events, consulting the memo cache
// when the store is file backed.
func (a *Analyzer) Reconcile(ctx context.Context, userID string) (model.ReconcileResult, error) {
	defer a.lockUser(userID)()
	return a.reconcile(ctx, userID)
}

// reconcile expects the caller to hold userID's lock.
func (a *Analyzer) reconcile(ctx context.Context, userID string) (model.ReconcileResult, error) {
	start := time.Now()
	defer func() {
		util.LogDebugf("Reconcile for %s duration: %v", userID, time.Since(start))
	}()

	pather, cacheable := a.store.(logPather)
	if a.cache == nil || !cacheable {
		return a.reconcileFromStore(ctx, userID)
	}

	logPath := pather.Path(userID)
	before, err := util.GetFileInfo(logPath)
	if err != nil {
		// no log yet, nothing worth caching
		return a.reconcileFromStore(ctx, userID)
	}

	res := a.cache.Get(userID, logPath)
	if res.Found {
		a.stats.IncrementHit()
		return res.Entry.Result, nil
	}
	a.stats.IncrementMiss(userID, res.MissReason)

	result, err := a.reconcileFromStore(ctx, userID)
	if err != nil {
		return result, err
	}

	if after, err := util.GetFileInfo(logPath); err == nil && before.Same(after) {
		if err := a.cache.Set(userID, logPath, result); err != nil {
			util.LogWarnf("Failed to save cache for %s: %v", userID, err)
		}
	}
	return result, nil
}

func (a *Analyzer) reconcileFromStore(ctx context.Context, userID string) (model.ReconcileResult, error) {
	events, err := a.store.List(ctx, userID)
	if err != nil {
		return model.ReconcileResult{}, fmt.Errorf("load events: %w", err)
	}
	util.LogDebugf("Loaded %d events for %s", len(events), userID)
	return cycle.Reconcile(events), nil
}

// Report builds the analytics report of userID over w.
func (a *Analyzer) Report(ctx context.Context, userID string, w analytics.Window) (model.AnalyticsReport, error) {
	result, err := a.Reconcile(ctx, userID)
	if err != nil {
		return model.AnalyticsReport{}, err
	}
	return analytics.Analyze(result, w, a.aggregator), nil
}

// History returns userID's day buckets, newest first.
func (a *Analyzer) History(ctx context.Context, userID string) ([]model.DailyBucket, error) {
	result, err := a.Reconcile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return a.aggregator.History(result), nil
}

// Status derives whether userID is currently asleep.
func (a *Analyzer) Status(ctx context.Context, userID string) (model.UserStatus, error) {
	result, err := a.Reconcile(ctx, userID)
	if err != nil {
		return model.UserStatus{}, err
	}
	return cycle.Status(userID, result), nil
}

// CheckIn records the next expected event for userID at the current time
// and returns it with the resulting status. Concurrent check-ins for one
// user are serialized so each sees the previous one's event.
func (a *Analyzer) CheckIn(ctx context.Context, userID string) (model.SleepEvent, model.UserStatus, error) {
	defer a.lockUser(userID)()

	result, err := a.reconcile(ctx, userID)
	if err != nil {
		return model.SleepEvent{}, model.UserStatus{}, err
	}
	status := cycle.Status(userID, result)

	event := model.SleepEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Timestamp: a.clock.Now(),
		Kind:      status.NextKind,
	}
	if err := a.store.Append(ctx, event); err != nil {
		return model.SleepEvent{}, model.UserStatus{}, fmt.Errorf("record check-in: %w", err)
	}
	util.LogInfof("Recorded %s for %s", event.Kind, userID)

	if result, err = a.reconcile(ctx, userID); err != nil {
		return event, model.UserStatus{}, err
	}
	return event, cycle.Status(userID, result), nil
}

// Backfill records a completed sleep that was not checked in live.
func (a *Analyzer) Backfill(ctx context.Context, userID string, start, end time.Time) ([]model.SleepEvent, error) {
	if err := cycle.ValidateManualEntry(start, end); err != nil {
		return nil, err
	}

	events := []model.SleepEvent{
		{ID: uuid.NewString(), UserID: userID, Timestamp: start, Kind: model.KindStart},
		{ID: uuid.NewString(), UserID: userID, Timestamp: end, Kind: model.KindEnd},
	}

	defer a.lockUser(userID)()
	if err := a.store.Append(ctx, events...); err != nil {
		return nil, fmt.Errorf("record sleep: %w", err)
	}
	util.LogInfof("Backfilled sleep for %s: %s to %s", userID, start.Format(time.RFC3339), end.Format(time.RFC3339))
	return events, nil
}

// Delete removes one event from userID's log.
func (a *Analyzer) Delete(ctx context.Context, userID, eventID string) error {
	defer a.lockUser(userID)()
	if err := a.store.Delete(ctx, userID, eventID); err != nil {
		return err
	}
	util.LogInfof("Deleted event %s for %s", eventID, userID)
	return nil
}
