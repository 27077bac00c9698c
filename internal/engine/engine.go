package engine

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MRamiBalles/UniverseRPG/server/internal/config"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/construction"
	"github.com/MRamiBalles/UniverseRPG/server/internal/events"
	"github.com/MRamiBalles/UniverseRPG/server/internal/platform/logger"
)

// Errors returned by engine operations. Callers match them with errors.Is.
var (
	ErrUnknownBlueprint = errors.New("unknown blueprint")
	ErrCannotAfford     = errors.New("cannot afford blueprint")
	ErrNoFreeBay        = errors.New("no free bay of the required size")
	ErrUnknownBay       = errors.New("unknown bay")
	ErrNothingToCollect = errors.New("bay has no construction")
	ErrNotComplete      = errors.New("construction is not complete")
	ErrUnknownCard      = errors.New("unknown card")
	ErrCardNotOwned     = errors.New("card is not owned")
	ErrInvalidSlot      = errors.New("invalid card slot")
	ErrUnknownLocation  = errors.New("unknown location")
	ErrLocationLocked   = errors.New("location is locked")
	ErrNotDeletable     = errors.New("resource cannot be deleted")
	ErrResourceNotHeld  = errors.New("resource not held")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidState     = errors.New("invalid game state")
)

// Engine owns one player's game state. Every operation runs under a single mutex,
// so taps, ticks and commands observe each other atomically.
// Events produced by an operation are appended to the event log after the lock is released.
type Engine struct {
	mu      sync.Mutex
	state   *State
	balance config.Balance
	debug   config.Debug

	rng      *rand.Rand
	newID    func() string
	actorID  string
	eventLog *events.EventLog
	logger   *logger.Logger

	pending []events.GameEvent
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRand injects the random source. Tests pass a seeded one.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithIDGenerator replaces the construction and card id generator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithState starts the engine from an existing state instead of a fresh game.
func WithState(s *State) Option {
	return func(e *Engine) {
		if s != nil {
			e.state = s.Clone()
		}
	}
}

// WithActorID attributes events to an account instead of the player name.
func WithActorID(id string) Option {
	return func(e *Engine) { e.actorID = id }
}

// WithPlayerName names the fresh game's player.
func WithPlayerName(name string) Option {
	return func(e *Engine) { e.state.PlayerName = name }
}

// NewEngine creates an engine holding a fresh game.
func NewEngine(cfg config.Config, eventLog *events.EventLog, log *logger.Logger, opts ...Option) *Engine {
	if eventLog == nil {
		eventLog = events.NewEventLog(nil, cfg.Server.EventLogCapacity)
	}
	if log == nil {
		log = logger.NewDiscard()
	}
	e := &Engine{
		state:    NewState(DefaultPlayerName, cfg.Balance.BaseStorageCapacity),
		balance:  cfg.Balance,
		debug:    cfg.Debug,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		newID:    uuid.NewString,
		eventLog: eventLog,
		logger:   log,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.state.normalize(cfg.Balance.BaseStorageCapacity)
	if e.debug.UnlockAllBays {
		e.setAllBaysUnlocked(true)
	}
	return e
}

// EventLog returns the log the engine appends to.
func (e *Engine) EventLog() *events.EventLog {
	return e.eventLog
}

// Balance returns the balance values the engine runs with.
func (e *Engine) Balance() config.Balance {
	return e.balance
}

// unlockAndFlush releases the mutex and then publishes every event queued during the operation.
func (e *Engine) unlockAndFlush() {
	pending := e.pending
	e.pending = nil
	e.mu.Unlock()
	e.eventLog.Append(pending...)
}

// emit queues an event for the current operation. Caller holds the lock.
func (e *Engine) emit(t events.EventType, target string, payload interface{}) {
	actor := e.actorID
	if actor == "" {
		actor = e.state.PlayerName
	}
	e.pending = append(e.pending, events.New(t, actor, target, payload))
}

// requestSave asks persistence to save after the current operation.
func (e *Engine) requestSave() {
	e.emit(events.EventTypeSaveRequested, "", nil)
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() *State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// ActorID returns the id events are attributed to.
func (e *Engine) ActorID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.actorID != "" {
		return e.actorID
	}
	return e.state.PlayerName
}

// PlayerName returns the player's display name.
func (e *Engine) PlayerName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.PlayerName
}

// Apply replaces the whole state. The input is validated first; on error nothing changes.
func (e *Engine) Apply(s *State) error {
	if s == nil {
		return ErrInvalidState
	}
	next := s.Clone()
	if err := validateState(next); err != nil {
		return err
	}
	next.normalize(e.balance.BaseStorageCapacity)

	e.mu.Lock()
	e.state = next
	if e.debug.UnlockAllBays {
		e.setAllBaysUnlocked(true)
	}
	e.mu.Unlock()
	return nil
}

// Reset replaces the state with a fresh game for the given player.
func (e *Engine) Reset(playerName string) {
	e.mu.Lock()
	e.state = NewState(playerName, e.balance.BaseStorageCapacity)
	if e.debug.UnlockAllBays {
		e.setAllBaysUnlocked(true)
	}
	e.mu.Unlock()
}

// MarkSaved records the time of the last successful save.
func (e *Engine) MarkSaved(at time.Time) {
	e.mu.Lock()
	e.state.LastSaved = at
	e.mu.Unlock()
}

// SetPage records the page the player is on.
func (e *Engine) SetPage(p Page) error {
	if _, ok := knownPages[p]; !ok {
		return ErrInvalidState
	}
	e.mu.Lock()
	e.state.CurrentPage = p
	e.mu.Unlock()
	return nil
}

func validateState(s *State) error {
	if s.Level < 0 || s.XP < 0 || s.Currency < 0 {
		return ErrInvalidState
	}
	for _, r := range s.Resources {
		if r.Amount < 0 {
			return ErrInvalidState
		}
	}
	for _, b := range s.Bays {
		if b.ID == "" {
			return ErrInvalidState
		}
		if b.Current != nil && b.Current.TimeRemaining < 0 {
			return ErrInvalidState
		}
	}
	return nil
}

// SetUnlockAllBays toggles the debug bay override at runtime.
func (e *Engine) SetUnlockAllBays(on bool) {
	e.mu.Lock()
	e.debug.UnlockAllBays = on
	e.setAllBaysUnlocked(on)
	e.mu.Unlock()
}

func (e *Engine) setAllBaysUnlocked(on bool) {
	defaults := construction.DefaultBays()
	unlockedByDefault := make(map[string]bool, len(defaults))
	for _, b := range defaults {
		unlockedByDefault[b.ID] = b.IsUnlocked
	}
	for i := range e.state.Bays {
		e.state.Bays[i].IsUnlocked = on || unlockedByDefault[e.state.Bays[i].ID]
	}
}
