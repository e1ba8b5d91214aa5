// Package playground hosts server-side modal sessions. Each session parses
// the modal demo markup, drives it with a modal.Modal and records the
// lifecycle events it dispatches.
package playground

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/testudy/rebase/internal/dom"
	"github.com/testudy/rebase/internal/modal"
	"github.com/testudy/rebase/internal/observability"
)

const (
	// ModalSelector locates the managed element in the session markup.
	ModalSelector = ".modal"

	defaultMaxSessions   = 256
	defaultSessionTTL    = 30 * time.Minute
	defaultSweepInterval = time.Minute
	defaultHistorySize   = 64
	subscriberBuffer     = 16
)

var (
	// ErrSessionNotFound is returned for unknown or ended sessions.
	ErrSessionNotFound = errors.New("playground: session not found")
	// ErrTooManySessions is returned when the live session cap is reached.
	ErrTooManySessions = errors.New("playground: too many sessions")
	// ErrNotVetoable is returned when vetoing a non-cancelable event.
	ErrNotVetoable = errors.New("playground: event cannot be vetoed")
)

// Config configures a Service.
type Config struct {
	// Markup must contain exactly one element matching ModalSelector.
	Markup        string
	Styles        modal.StyleSource
	Clock         modal.Clock
	Logger        *zap.Logger
	Metrics       *observability.ModalMetrics
	MaxSessions   int
	SessionTTL    time.Duration
	SweepInterval time.Duration
	HistorySize   int
	Now           func() time.Time
}

// Record is one dispatched lifecycle event as observed by the session.
type Record struct {
	Event     string    `json:"event"`
	Cancelled bool      `json:"cancelled"`
	Open      bool      `json:"open"`
	At        time.Time `json:"at"`
}

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	ID        string
	Open      bool
	Destroyed bool
	Classes   []string
	Markup    string
	Vetoes    []string
	History   []Record
	CreatedAt time.Time
	LastSeen  time.Time
}

// Vetoed reports whether event is currently vetoed.
func (s Snapshot) Vetoed(event string) bool {
	for _, v := range s.Vetoes {
		if v == event {
			return true
		}
	}
	return false
}

// Service owns the live sessions. It is safe for concurrent use.
type Service struct {
	cfg    Config
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	id      string
	created time.Time
	el      *dom.Element
	modal   *modal.Modal

	mu          sync.Mutex
	lastSeen    time.Time
	history     []Record
	vetoes      map[modal.EventName]bool
	subscribers map[int]chan Record
	nextSub     int
	ended       bool
}

// NewService validates cfg and returns an empty Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = modal.SystemClock{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = defaultHistorySize
	}
	if _, err := parseModal(cfg.Markup); err != nil {
		return nil, err
	}
	return &Service{
		cfg:      cfg,
		logger:   cfg.Logger.Named("playground"),
		sessions: make(map[string]*session),
	}, nil
}

func parseModal(markup string) (*dom.Element, error) {
	doc, err := dom.ParseString(markup)
	if err != nil {
		return nil, fmt.Errorf("playground: %w", err)
	}
	list := dom.Query(doc, ModalSelector)
	if list.Len() != 1 {
		return nil, fmt.Errorf("playground: markup has %d %s elements, want 1", list.Len(), ModalSelector)
	}
	return list[0], nil
}

// Create starts a session with a fresh copy of the markup.
func (s *Service) Create(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if len(s.sessions) >= s.cfg.MaxSessions {
		s.mu.Unlock()
		return Snapshot{}, ErrTooManySessions
	}
	s.mu.Unlock()

	el, err := parseModal(s.cfg.Markup)
	if err != nil {
		return Snapshot{}, err
	}
	now := s.cfg.Now()
	sess := &session{
		id:          ulid.Make().String(),
		created:     now,
		el:          el,
		lastSeen:    now,
		vetoes:      make(map[modal.EventName]bool, 2),
		subscribers: make(map[int]chan Record),
	}
	m, err := modal.New(el,
		modal.WithClock(s.cfg.Clock),
		modal.WithStyles(s.cfg.Styles),
		modal.WithLogger(s.logger.With(zap.String("session", sess.id))),
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("playground: %w", err)
	}
	sess.modal = m
	for _, name := range modal.Events {
		if name.Cancelable() {
			if _, err := m.On(name, sess.veto, false); err != nil {
				return Snapshot{}, fmt.Errorf("playground: register veto: %w", err)
			}
		}
	}
	for _, name := range modal.Events {
		if _, err := m.On(name, s.recorder(sess), false); err != nil {
			return Snapshot{}, fmt.Errorf("playground: register recorder: %w", err)
		}
	}

	s.mu.Lock()
	if len(s.sessions) >= s.cfg.MaxSessions {
		s.mu.Unlock()
		m.Destroy()
		return Snapshot{}, ErrTooManySessions
	}
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.cfg.Metrics.SessionStarted(ctx)
	s.logger.Info("playground session created", zap.String("session", sess.id))
	return sess.snapshot(), nil
}

func (sess *session) veto(ev *modal.Event) {
	sess.mu.Lock()
	vetoed := sess.vetoes[ev.Name()]
	sess.mu.Unlock()
	if vetoed {
		ev.PreventDefault()
	}
}

func (s *Service) recorder(sess *session) modal.Listener {
	return func(ev *modal.Event) {
		rec := Record{
			Event:     string(ev.Name()),
			Cancelled: ev.DefaultPrevented(),
			Open:      sess.modal.IsOpen(),
			At:        s.cfg.Now(),
		}
		s.cfg.Metrics.RecordEvent(context.Background(), rec.Event, rec.Cancelled)
		sess.record(rec, s.cfg.HistorySize, s.logger)
	}
}

func (sess *session) record(rec Record, limit int, logger *zap.Logger) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.ended {
		return
	}
	sess.history = append(sess.history, rec)
	if over := len(sess.history) - limit; over > 0 {
		sess.history = append(sess.history[:0:0], sess.history[over:]...)
	}
	for id, ch := range sess.subscribers {
		select {
		case ch <- rec:
		default:
			logger.Debug("playground subscriber lagging; record dropped",
				zap.String("session", sess.id),
				zap.Int("subscriber", id),
			)
		}
	}
}

func (sess *session) touch(now time.Time) {
	sess.mu.Lock()
	sess.lastSeen = now
	sess.mu.Unlock()
}

func (sess *session) snapshot() Snapshot {
	markup, _ := sess.el.OuterHTML()
	sess.mu.Lock()
	defer sess.mu.Unlock()
	snap := Snapshot{
		ID:        sess.id,
		Open:      sess.modal.IsOpen(),
		Destroyed: sess.modal.IsDestroyed(),
		Classes:   sess.el.Classes(),
		Markup:    markup,
		History:   append([]Record(nil), sess.history...),
		CreatedAt: sess.created,
		LastSeen:  sess.lastSeen,
	}
	for name, on := range sess.vetoes {
		if on {
			snap.Vetoes = append(snap.Vetoes, string(name))
		}
	}
	sort.Strings(snap.Vetoes)
	return snap
}

// end destroys the modal and closes all subscriber channels.
func (sess *session) end() {
	sess.modal.Destroy()
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.ended {
		return
	}
	sess.ended = true
	for id, ch := range sess.subscribers {
		close(ch)
		delete(sess.subscribers, id)
	}
}

func (s *Service) lookup(id string) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	sess.touch(s.cfg.Now())
	return sess, nil
}

// Get returns the current snapshot of session id.
func (s *Service) Get(id string) (Snapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	return sess.snapshot(), nil
}

// Open opens the session's modal and reports whether the state changed.
func (s *Service) Open(id string) (bool, Snapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return false, Snapshot{}, err
	}
	changed := sess.modal.Open()
	return changed, sess.snapshot(), nil
}

// Close closes the session's modal and reports whether the state changed.
func (s *Service) Close(id string) (bool, Snapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return false, Snapshot{}, err
	}
	changed := sess.modal.Close()
	return changed, sess.snapshot(), nil
}

// SetVeto makes the session's veto listener cancel (or stop cancelling)
// the named cancelable event.
func (s *Service) SetVeto(id string, event modal.EventName, on bool) (Snapshot, error) {
	if !event.Valid() {
		return Snapshot{}, fmt.Errorf("%w: %q", modal.ErrUnknownEvent, event)
	}
	if !event.Cancelable() {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrNotVetoable, event)
	}
	sess, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	sess.vetoes[event] = on
	sess.mu.Unlock()
	return sess.snapshot(), nil
}

// Destroy ends session id and releases it.
func (s *Service) Destroy(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	sess.end()
	s.cfg.Metrics.SessionEnded(ctx, "destroyed")
	s.logger.Info("playground session destroyed", zap.String("session", id))
	return nil
}

// Subscribe streams the session's future records. The channel is closed when
// the session ends; cancel releases the subscription early and is safe to
// call more than once.
func (s *Service) Subscribe(id string) (<-chan Record, func(), error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.ended {
		return nil, nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	ch := make(chan Record, subscriberBuffer)
	sess.nextSub++
	subID := sess.nextSub
	sess.subscribers[subID] = ch
	cancel := func() {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		if c, ok := sess.subscribers[subID]; ok {
			close(c)
			delete(sess.subscribers, subID)
		}
	}
	return ch, cancel, nil
}

// Len returns the number of live sessions.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep ends sessions idle for longer than the session TTL and returns how
// many were removed.
func (s *Service) Sweep(ctx context.Context, now time.Time) int {
	var expired []*session
	s.mu.Lock()
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := now.Sub(sess.lastSeen)
		sess.mu.Unlock()
		if idle > s.cfg.SessionTTL {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.end()
		s.cfg.Metrics.SessionEnded(ctx, "expired")
	}
	if len(expired) > 0 {
		s.logger.Info("playground sessions expired", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps on the configured interval until ctx is done, then ends every
// remaining session.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case <-ticker.C:
			s.Sweep(ctx, s.cfg.Now())
		}
	}
}

func (s *Service) shutdown() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.end()
		s.cfg.Metrics.SessionEnded(context.Background(), "shutdown")
	}
}
