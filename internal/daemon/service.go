// Package daemon provides the long-running background poller that keeps
// per-range dashboards fresh and serves them over HTTP.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/attain/internal/model"
	"github.com/theirongolddev/attain/internal/pipeline"
	"github.com/theirongolddev/attain/internal/source"
)

// Event types.
const (
	EventSnapshot  = "snapshot"
	EventRateDelta = "rate_delta"
)

// Publisher forwards events to an external sink such as a message broker.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Config controls the daemon runtime behavior.
type Config struct {
	Interval     time.Duration
	Addr         string
	EventsBuffer int

	// Publisher is optional; nil keeps events local.
	Publisher Publisher
	// AccessLog receives one line per HTTP request; nil discards them.
	AccessLog io.Writer
	Logger    *slog.Logger
}

// CategorySnapshot is one category's figures within a Snapshot.
type CategorySnapshot struct {
	Category        string  `json:"category"`
	Label           string  `json:"label"`
	Target          float64 `json:"target"`
	Completed       float64 `json:"completed"`
	Pipeline        float64 `json:"pipeline"`
	Forecast        float64 `json:"forecast"`
	Gap             float64 `json:"gap"`
	AchievementRate float64 `json:"achievement_rate"`
	Severity        string  `json:"severity"`
}

// Snapshot is the computed dashboard for one range at one poll.
type Snapshot struct {
	Range            string             `json:"range"`
	At               time.Time          `json:"at"`
	Target           float64            `json:"target"`
	Completed        float64            `json:"completed"`
	Pipeline         float64            `json:"pipeline"`
	Forecast         float64            `json:"forecast"`
	Gap              float64            `json:"gap"`
	AchievementRate  float64            `json:"achievement_rate"`
	ForecastRate     float64            `json:"forecast_rate"`
	Severity         string             `json:"severity"`
	ForecastSeverity string             `json:"forecast_severity"`
	CanComplete      bool               `json:"can_complete"`
	Categories       []CategorySnapshot `json:"categories"`
}

// Delta captures how a range moved between polls.
type Delta struct {
	Target          float64 `json:"target"`
	Completed       float64 `json:"completed"`
	Forecast        float64 `json:"forecast"`
	AchievementRate float64 `json:"achievement_rate"`
	ForecastRate    float64 `json:"forecast_rate"`
}

func (d Delta) isZero() bool {
	return d.Target == 0 &&
		d.Completed == 0 &&
		d.Forecast == 0 &&
		d.AchievementRate == 0 &&
		d.ForecastRate == 0
}

// Event is emitted whenever a range snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Range     string    `json:"range"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time           `json:"started_at"`
	LastPollAt      time.Time           `json:"last_poll_at"`
	PollIntervalSec int                 `json:"poll_interval_sec"`
	PollCount       int64               `json:"poll_count"`
	Source          string              `json:"source"`
	Ranges          map[string]Snapshot `json:"ranges"`
	LastError       string              `json:"last_error,omitempty"`
	EventCount      int                 `json:"event_count"`
	SubscriberCount int                 `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config
	src source.Source
	log *slog.Logger
	now func() time.Time

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	snapshots   map[model.TimeRange]Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service polling src.
func New(cfg Config, src source.Source) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 15 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}
	if cfg.AccessLog == nil {
		cfg.AccessLog = io.Discard
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		cfg:       cfg,
		src:       src,
		log:       logger.With("component", "daemon"),
		now:       time.Now,
		startedAt: time.Now(),
		snapshots: make(map[model.TimeRange]Snapshot),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API with access logging applied.
func (s *Service) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/v1/ranges/{range}", s.handleRange).Methods(http.MethodGet)
	r.HandleFunc("/v1/events", s.handleEvents).Methods(http.MethodGet)
	r.HandleFunc("/v1/stream", s.handleStream).Methods(http.MethodGet)
	return handlers.LoggingHandler(s.cfg.AccessLog, r)
}

// Run serves the HTTP API and polls the source until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("daemon http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		// Seed initial snapshots so status is useful immediately.
		s.pollOnce(ctx)

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				s.pollOnce(ctx)
			}
		}
	})

	s.log.Info("daemon started", "addr", s.cfg.Addr, "source", s.src.Name(), "interval", s.cfg.Interval)
	return g.Wait()
}

func (s *Service) pollOnce(ctx context.Context) {
	all, err := source.LoadAll(ctx, s.src)
	now := s.now()
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.log.Warn("poll failed", "error", err)
		return
	}

	var pending []Event

	s.mu.Lock()
	for _, recs := range all {
		snap := snapshotFromDashboard(recs.Range, pipeline.Compute(recs), now)
		prev, seen := s.snapshots[recs.Range]
		s.snapshots[recs.Range] = snap

		ev := Event{Type: EventSnapshot, Range: recs.Range.String(), Timestamp: now, Snapshot: snap}
		if seen {
			ev.Type = EventRateDelta
			ev.Delta = diffSnapshots(prev, snap)
			if ev.Delta.isZero() {
				continue
			}
		}
		s.nextEventID++
		ev.ID = s.nextEventID
		pending = append(pending, ev)
	}
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""
	s.mu.Unlock()

	for _, ev := range pending {
		s.publishEvent(ev)
		s.forward(ctx, ev)
	}
	s.log.Debug("poll complete", "ranges", len(all), "events", len(pending))
}

// forward hands an event to the external publisher. Failures are logged
// and never stop polling.
func (s *Service) forward(ctx context.Context, ev Event) {
	if s.cfg.Publisher == nil {
		return
	}
	if err := s.cfg.Publisher.Publish(ctx, ev); err != nil {
		s.log.Warn("publish failed", "event", ev.ID, "type", ev.Type, "error", err)
	}
}

func snapshotFromDashboard(r model.TimeRange, d pipeline.Dashboard, at time.Time) Snapshot {
	agg := d.Aggregate
	snap := Snapshot{
		Range:            r.String(),
		At:               at,
		Target:           agg.Target,
		Completed:        agg.Completed,
		Pipeline:         agg.Pipeline,
		Forecast:         agg.ForecastCompletion,
		Gap:              agg.Gap(),
		AchievementRate:  d.Rates.Achievement,
		ForecastRate:     d.Rates.Forecast,
		Severity:         d.Severity.String(),
		ForecastSeverity: d.ForecastSeverity.String(),
		CanComplete:      agg.CanComplete(),
		Categories:       make([]CategorySnapshot, 0, len(d.Rows)),
	}
	for _, row := range d.Rows {
		snap.Categories = append(snap.Categories, CategorySnapshot{
			Category:        row.Category.String(),
			Label:           row.Category.Label(),
			Target:          row.Target,
			Completed:       row.Completed,
			Pipeline:        row.Pipeline,
			Forecast:        row.ForecastCompletion,
			Gap:             row.Gap,
			AchievementRate: row.Achievement,
			Severity:        row.Severity.String(),
		})
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Target:          curr.Target - prev.Target,
		Completed:       curr.Completed - prev.Completed,
		Forecast:        curr.Forecast - prev.Forecast,
		AchievementRate: curr.AchievementRate - prev.AchievementRate,
		ForecastRate:    curr.ForecastRate - prev.ForecastRate,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ranges := make(map[string]Snapshot, len(s.snapshots))
	for r, snap := range s.snapshots {
		ranges[r.String()] = snap
	}

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		Source:          s.src.Name(),
		Ranges:          ranges,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

// currentSnapshots returns the latest snapshot of every polled range in
// display order.
func (s *Service) currentSnapshots() []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Snapshot, 0, len(s.snapshots))
	for _, r := range model.TimeRanges {
		if snap, ok := s.snapshots[r]; ok {
			out = append(out, snap)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleRange(w http.ResponseWriter, r *http.Request) {
	rng, err := model.ParseTimeRange(mux.Vars(r)["range"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.mu.RLock()
	snap, ok := s.snapshots[rng]
	s.mu.RUnlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no data yet for " + rng.String()})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send the current state of every range immediately.
	now := s.now()
	for _, snap := range s.currentSnapshots() {
		writeSSE(w, Event{Type: EventSnapshot, Range: snap.Range, Timestamp: now, Snapshot: snap})
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w io.Writer, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
