// Package tracker runs the session state machine: it splits time into
// sessions by focused window and keyboard activity and persists each one.
package tracker

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/category"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/config"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/models"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/parser"
	"github.com/adolfousier/neura-hustle-tracker-sub000/pkg/window"
)

// SessionStore is where closed sessions and checkpoints go.
type SessionStore interface {
	InsertSession(ctx context.Context, s *models.Session) (uint, error)
	ApplyRenamesAndCategories(ctx context.Context, s *models.Session) error
	LogError(ctx context.Context, source, msg string) error
}

// InputMonitor reports the last keyboard or mouse input.
type InputMonitor interface {
	LastInput() time.Time
}

// Status is a point in time view of the tracker.
type Status struct {
	Running   bool            `json:"running"`
	AFK       bool            `json:"afk"`
	Session   *models.Session `json:"session,omitempty"`
	Inspector string          `json:"inspector,omitempty"`
}

type Service struct {
	config    config.TrackerConfig
	store     SessionStore
	inspector window.Inspector
	monitor   InputMonitor
	parser    *parser.Parser
	now       func() time.Time

	// Owned by the tick loop.
	current      *models.Session
	lastAFKCheck time.Time
	lastSave     time.Time
	lastProbeErr string

	mu       sync.Mutex
	snapshot models.Session
	running  bool

	stopChan chan struct{}
	stopOnce sync.Once
}

func NewService(cfg config.TrackerConfig, store SessionStore, inspector window.Inspector, monitor InputMonitor) *Service {
	return &Service{
		config:    cfg,
		store:     store,
		inspector: inspector,
		monitor:   monitor,
		parser:    parser.New(parser.HomeDir()),
		now:       time.Now,
		stopChan:  make(chan struct{}),
	}
}

// Start runs the tick loop until ctx is cancelled or Stop is called. The
// open session is persisted before returning.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("tracker is already running")
	}
	s.running = true
	s.mu.Unlock()

	log.Printf("Starting tracker with %v poll interval", s.config.PollInterval)

	s.begin(ctx)

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Tracker stopped by context")
			s.finish()
			return ctx.Err()

		case <-s.stopChan:
			log.Println("Tracker stopped")
			s.finish()
			return nil

		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Stop asks the loop to flush and exit.
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Status returns a copy of the open session.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Running: s.running, Inspector: s.inspector.Name()}
	if s.snapshot.SessionKey != "" {
		snap := s.snapshot
		snap.Duration = durationSeconds(snap.StartTime, s.now())
		st.Session = &snap
		st.AFK = snap.AFK()
	}
	return st
}

// begin opens the first session.
func (s *Service) begin(ctx context.Context) {
	now := s.now()
	s.lastAFKCheck = now
	s.lastSave = now

	if s.isAFK(now) {
		s.open(afkSession(now))
		return
	}
	if next, ok := s.activeSession(ctx, now); ok {
		s.open(next)
	}
}

// finish closes and persists the open session on the way out.
func (s *Service) finish() {
	if s.current != nil {
		s.close(context.Background(), s.now())
		s.current = nil
	}

	s.mu.Lock()
	s.running = false
	s.snapshot = models.Session{}
	s.mu.Unlock()
}

func (s *Service) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	now := s.now()
	if s.current == nil {
		s.begin(ctx)
		return
	}

	if now.Sub(s.lastAFKCheck) >= s.config.AFKCheckInterval {
		s.lastAFKCheck = now
		if afk := s.isAFK(now); afk != s.current.AFK() {
			next := afkSession(now)
			if !afk {
				var ok bool
				if next, ok = s.activeSession(ctx, now); !ok {
					return
				}
			}
			s.close(ctx, now)
			if afk {
				log.Printf("AFK after %v without input", now.Sub(s.monitor.LastInput()).Round(time.Second))
			}
			s.open(next)
			return
		}
	}

	if !s.current.AFK() {
		next, ok := s.activeSession(ctx, now)
		if !ok {
			return
		}
		if next.AppName != s.current.AppName || next.Window() != s.current.Window() {
			s.close(ctx, now)
			s.open(next)
			return
		}
	}

	if now.Sub(s.lastSave) >= s.config.AutoSaveInterval {
		s.checkpoint(ctx, now)
	}
}

func (s *Service) isAFK(now time.Time) bool {
	return now.Sub(s.monitor.LastInput()) >= s.config.AFKThreshold
}

func newSessionKey() string {
	return ulid.Make().String()
}

func afkSession(now time.Time) *models.Session {
	return &models.Session{
		SessionKey: newSessionKey(),
		AppName:    models.AFKAppName,
		WindowName: models.String(models.AFKWindowName),
		StartTime:  now,
		Category:   models.String(category.Categorize(models.AFKAppName)),
		IsAFK:      models.Bool(true),
		IsIdle:     models.Bool(false),
		ParsedData: models.ParsedData{ParsingSuccess: true},
	}
}

// activeSession probes the focused window and builds the session that
// would represent it. Probe failures yield the Unknown app. ok is false
// when ctx ended during the probe; the result then says nothing about
// the window and no transition may follow from it.
func (s *Service) activeSession(ctx context.Context, now time.Time) (next *models.Session, ok bool) {
	app, title := models.UnknownAppName, ""

	probeCtx, cancel := context.WithTimeout(ctx, s.config.InspectTimeout)
	info, err := s.inspector.Probe(probeCtx)
	cancel()

	if ctx.Err() != nil {
		return nil, false
	}

	switch {
	case err != nil:
		s.probeFailed(ctx, err)
	case info != nil && info.AppName != "":
		app, title = info.AppName, info.WindowTitle
		s.lastProbeErr = ""
	}

	parsed := s.parser.Parse(app, title)
	raw, _ := json.Marshal(parsed)

	return &models.Session{
		SessionKey: newSessionKey(),
		AppName:    app,
		WindowName: models.String(title),
		StartTime:  now,
		Category:   models.String(category.Categorize(app)),
		ParsedData: parsed,
		IsAFK:      models.Bool(false),
		IsIdle:     models.Bool(false),
		ParsedJSON: string(raw),
	}, true
}

// probeFailed records inspector errors once per distinct message.
func (s *Service) probeFailed(ctx context.Context, err error) {
	msg := err.Error()
	if msg == s.lastProbeErr {
		return
	}
	s.lastProbeErr = msg
	log.Printf("Window inspection failed, recording as %s: %v", models.UnknownAppName, err)
	s.storeError(ctx, "inspector", err)
}

func (s *Service) open(next *models.Session) {
	s.current = next

	s.mu.Lock()
	s.snapshot = *next
	s.mu.Unlock()
}

// close ends the open session at now and persists it.
func (s *Service) close(ctx context.Context, now time.Time) {
	closed := *s.current
	closed.Duration = durationSeconds(closed.StartTime, now)
	if closed.AFK() && closed.Duration >= int64(s.config.IdleThreshold/time.Second) {
		closed.IsIdle = models.Bool(true)
	}
	s.persist(ctx, &closed, now)
}

// checkpoint persists the open session without ending it. The row is
// keyed by session_key, so the final close overwrites it.
func (s *Service) checkpoint(ctx context.Context, now time.Time) {
	snap := *s.current
	snap.Duration = durationSeconds(snap.StartTime, now)
	if s.persist(ctx, &snap, now) {
		log.Printf("Checkpoint saved: %s (%ds)", snap.AppName, snap.Duration)
	}
}

// persistTimeout bounds one write. Writes are detached from the loop
// context so a shutdown never drops a session that is already closed.
const persistTimeout = 5 * time.Second

// persist applies stored overrides and writes the session. Failures are
// logged and never touch the in-memory session.
func (s *Service) persist(ctx context.Context, sess *models.Session, now time.Time) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.store.ApplyRenamesAndCategories(ctx, sess); err != nil {
		log.Printf("Failed to apply overrides to %s: %v", sess.AppName, err)
	}

	if _, err := s.store.InsertSession(ctx, sess); err != nil {
		s.storeError(ctx, "store", err)
		return false
	}

	s.lastSave = now
	return true
}

func (s *Service) storeError(ctx context.Context, source string, err error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if dbErr := s.store.LogError(ctx, source, err.Error()); dbErr != nil {
		log.Printf("Failed to store error in database: %v (original error: %v)", dbErr, err)
	} else {
		log.Printf("Error logged to database: %v", err)
	}
}

// durationSeconds counts the whole-second boundaries between start and
// end, so back-to-back sessions sum to the elapsed time on the clock.
func durationSeconds(start, end time.Time) int64 {
	d := end.Unix() - start.Unix()
	if d < 0 {
		return 0
	}
	return d
}
