// Package session ties an account to a running game: one engine, its heartbeat, its save
// manager and the auto-save worker, started at login and torn down at logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/MRamiBalles/UniverseRPG/server/internal/account"
	"github.com/MRamiBalles/UniverseRPG/server/internal/config"
	"github.com/MRamiBalles/UniverseRPG/server/internal/engine"
	"github.com/MRamiBalles/UniverseRPG/server/internal/events"
	"github.com/MRamiBalles/UniverseRPG/server/internal/infra/storage"
	"github.com/MRamiBalles/UniverseRPG/server/internal/platform/logger"
	"github.com/MRamiBalles/UniverseRPG/server/internal/platform/metrics"
	"github.com/MRamiBalles/UniverseRPG/server/internal/save"
)

var (
	ErrNotLoggedIn = errors.New("not logged in")
	ErrClosed      = errors.New("session manager is shut down")
)

// Session is one logged-in player's running game.
type Session struct {
	Username string
	Engine   *engine.Engine
	Saves    *save.Manager

	ticker   *engine.Ticker
	autosave *save.AutoSaver
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	closed   bool
	mu       sync.Mutex
}

// Events returns the session's event log.
func (s *Session) Events() *events.EventLog {
	return s.Engine.EventLog()
}

// Ticker returns the session heartbeat.
func (s *Session) Ticker() *engine.Ticker {
	return s.ticker
}

// RequestSave schedules an asynchronous save.
func (s *Session) RequestSave() {
	s.autosave.Request()
}

// Save saves synchronously.
func (s *Session) Save(ctx context.Context) error {
	return s.Saves.Save(ctx)
}

// Load replaces the running game with the stored one.
func (s *Session) Load(ctx context.Context) (save.Outcome, error) {
	return s.Saves.Load(ctx)
}

// Export returns the running game as a save blob.
func (s *Session) Export(ctx context.Context) ([]byte, error) {
	return s.Saves.Export(ctx)
}

// Import replaces the running game with a save blob and saves it.
func (s *Session) Import(ctx context.Context, data []byte) (save.Outcome, error) {
	return s.Saves.Import(ctx, data)
}

func (s *Session) start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.ticker.Start(ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.autosave.Run(ctx)
	}()
}

// close stops the heartbeat and the save worker, writes a final save and detaches the user.
func (s *Session) close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	s.ticker.Stop()
	s.cancel()
	s.wg.Wait()

	err := s.Saves.Save(ctx)
	s.Saves.SetUser("")
	return err
}

// Manager owns every live session, keyed by username.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	shutdown bool

	cfg        config.Config
	store      storage.BlobStore
	accounts   *account.Service
	logger     *logger.Logger
	persister  events.EventPersister
	summaries  storage.SummaryRepository
	listeners  []events.Listener
	engineOpts []engine.Option
}

// Option customizes a Manager.
type Option func(*Manager)

// WithEventPersister writes every session event through to durable history.
func WithEventPersister(p events.EventPersister) Option {
	return func(m *Manager) { m.persister = p }
}

// WithSummaries keeps player summaries current on every save.
func WithSummaries(repo storage.SummaryRepository) Option {
	return func(m *Manager) { m.summaries = repo }
}

// WithListener subscribes l to the event log of every session opened afterwards.
func WithListener(l events.Listener) Option {
	return func(m *Manager) { m.listeners = append(m.listeners, l) }
}

// WithEngineOptions passes options to every engine the manager creates.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(m *Manager) { m.engineOpts = append(m.engineOpts, opts...) }
}

// NewManager creates a session manager.
func NewManager(cfg config.Config, store storage.BlobStore, accounts *account.Service, log *logger.Logger, opts ...Option) *Manager {
	if log == nil {
		log = logger.NewDiscard()
	}
	m := &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		store:    store,
		accounts: accounts,
		logger:   log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe adds a listener to every session opened afterwards.
func (m *Manager) Subscribe(l events.Listener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()
}

// Login checks credentials and returns the user's session, loading the saved game when
// no session is running yet.
func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	if err := m.accounts.Login(ctx, username, password); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shutdown {
		return nil, ErrClosed
	}
	if s, ok := m.sessions[username]; ok {
		return s, nil
	}

	s := m.newSession(username)
	outcome, err := s.Saves.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load save for %s: %w", username, err)
	}
	m.logger.Event("LOGIN", username, "save "+string(outcome))
	m.open(s)
	return s, nil
}

// CreateUser registers an account and starts it on a fresh game, saved immediately.
func (m *Manager) CreateUser(ctx context.Context, username, password string) (*Session, error) {
	if err := m.accounts.CreateUser(ctx, username, password); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shutdown {
		return nil, ErrClosed
	}
	if old, ok := m.sessions[username]; ok {
		// Only possible when an account was deleted while logged in.
		_ = old.close(ctx)
		delete(m.sessions, username)
		metrics.Get().RecordSession(-1)
	}

	s := m.newSession(username)
	s.Engine.Reset(engine.DefaultPlayerName)
	if err := s.Saves.Save(ctx); err != nil {
		return nil, err
	}
	m.logger.Event("CREATE_USER", username, "fresh game saved")
	m.open(s)
	return s, nil
}

// Logout saves and closes the user's session.
func (m *Manager) Logout(ctx context.Context, username string) error {
	m.mu.Lock()
	s, ok := m.sessions[username]
	if ok {
		delete(m.sessions, username)
	}
	m.mu.Unlock()
	if !ok {
		return ErrNotLoggedIn
	}
	metrics.Get().RecordSession(-1)
	m.logger.Event("LOGOUT", username, "session closed")
	return s.close(ctx)
}

// Get returns the live session of a user.
func (m *Manager) Get(username string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[username]
	return s, ok
}

// Active lists logged-in usernames, sorted.
func (m *Manager) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sessions))
	for u := range m.sessions {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// Shutdown logs every user out. No session can be opened afterwards.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.shutdown = true
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var errs []error
	for u, s := range sessions {
		if err := s.close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", u, err))
		}
		metrics.Get().RecordSession(-1)
	}
	return errors.Join(errs...)
}

// newSession builds a session without starting it. Caller holds m.mu.
func (m *Manager) newSession(username string) *Session {
	log := events.NewEventLog(m.persister, m.cfg.Server.EventLogCapacity)
	opts := append([]engine.Option{engine.WithActorID(username)}, m.engineOpts...)
	eng := engine.NewEngine(m.cfg, log, m.logger, opts...)

	saveOpts := []save.ManagerOption{save.WithBackupsKept(m.cfg.Balance.BackupsKept)}
	if m.summaries != nil {
		saveOpts = append(saveOpts, save.WithSummaries(m.summaries))
	}
	saves := save.NewManager(m.store, eng, m.logger, saveOpts...)
	saves.SetUser(username)

	s := &Session{
		Username: username,
		Engine:   eng,
		Saves:    saves,
		ticker:   engine.NewTicker(eng, m.cfg.Balance.TickInterval, m.logger),
		autosave: save.NewAutoSaver(saves, m.cfg.Balance.AutoSaveInterval),
	}
	log.Subscribe(s.autosave.Listener())
	for _, l := range m.listeners {
		log.Subscribe(l)
	}
	return s
}

// open registers and starts a session. Caller holds m.mu.
func (m *Manager) open(s *Session) {
	m.sessions[s.Username] = s
	metrics.Get().RecordSession(1)
	s.start()
}
