// Package account manages local player accounts: username rules, credentials and the
// registry of known usernames. Everything lives in the same blob store as the saves.
package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/MRamiBalles/UniverseRPG/server/internal/infra/storage"
	"github.com/MRamiBalles/UniverseRPG/server/internal/platform/logger"
	"github.com/MRamiBalles/UniverseRPG/server/internal/save"
)

// RegistryKey holds the JSON list of every registered username.
const RegistryKey = "UniverseRPG_AllUsernames"

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

// Username limits.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
)

// Test account seeded in debug builds.
const (
	TestUsername = "test"
	TestPassword = "test"
)

func PasswordKey(user string) string  { return user + "_password" }
func CreatedAtKey(user string) string { return user + "_created_at" }
func LastLoginKey(user string) string { return user + "_last_login" }

// ValidationError carries a message fit to show the player.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrUsernameTooShort   = &ValidationError{Message: "Username must be at least 3 characters long"}
	ErrUsernameTooLong    = &ValidationError{Message: "Username must be no more than 20 characters long"}
	ErrUsernameCharacters = &ValidationError{Message: "Username can only contain letters, numbers, and underscores"}
	ErrUsernameTaken      = &ValidationError{Message: "Username is already taken"}
	ErrInvalidCredentials = &ValidationError{Message: "Invalid username or password"}
	ErrEmptyPassword      = &ValidationError{Message: "Password must not be empty"}
	ErrPasswordTooLong    = &ValidationError{Message: "Password must be no more than 72 bytes long"}
)

// User is a registered account as listed by AllUsers.
type User struct {
	Username  string
	CreatedAt time.Time
	LastLogin time.Time
}

// Service is the account registry over a blob store.
type Service struct {
	mu        sync.Mutex // serializes registry read-modify-write
	store     storage.BlobStore
	summaries storage.SummaryRepository
	history   storage.EventRepository
	logger    *logger.Logger
	now       func() time.Time
	hashCost  int
}

// Option customizes a Service.
type Option func(*Service)

// WithSummaries lets DeleteUser remove the player's summary row.
func WithSummaries(repo storage.SummaryRepository) Option {
	return func(s *Service) { s.summaries = repo }
}

// WithEventHistory lets DeleteUser remove the player's persisted events.
func WithEventHistory(repo storage.EventRepository) Option {
	return func(s *Service) { s.history = repo }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithHashCost sets the bcrypt cost of new credentials.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// NewService creates an account service.
func NewService(store storage.BlobStore, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.NewDiscard()
	}
	s := &Service{store: store, logger: log, now: time.Now, hashCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateUsername checks the format rules only.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength {
		return ErrUsernameTooShort
	}
	if n > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	for _, r := range username {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return ErrUsernameCharacters
		}
	}
	return nil
}

// ValidateNewUsername checks the format rules and that the name is free.
func (s *Service) ValidateNewUsername(ctx context.Context, username string) error {
	if err := ValidateUsername(username); err != nil {
		return err
	}
	names, err := s.registry(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		if n == username {
			return ErrUsernameTaken
		}
	}
	return nil
}

// CreateUser registers a new account.
func (s *Service) CreateUser(ctx context.Context, username, password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ValidateNewUsername(ctx, username); err != nil {
		return err
	}
	// A credential without a registry entry is still a taken name.
	if _, err := s.store.Get(ctx, PasswordKey(username)); err == nil {
		return ErrUsernameTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	now := s.now().UTC()
	if err := s.store.Put(ctx, PasswordKey(username), []byte(hashed)); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	if err := s.store.Put(ctx, CreatedAtKey(username), []byte(now.Format(time.RFC3339Nano))); err != nil {
		return fmt.Errorf("failed to store creation time: %w", err)
	}
	if err := s.register(ctx, username); err != nil {
		return err
	}
	s.logger.Event("USER_CREATED", username, "account registered")
	return nil
}

// Login checks credentials and stamps the last login time.
func (s *Service) Login(ctx context.Context, username, password string) error {
	ok, err := s.ValidateCredentials(ctx, username, password)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}
	stamp := []byte(s.now().UTC().Format(time.RFC3339Nano))
	if err := s.store.Put(ctx, LastLoginKey(username), stamp); err != nil {
		s.logger.Warnf("failed to record login for %s: %v", username, err)
	}
	return nil
}

// ValidateCredentials reports whether password matches the stored credential.
func (s *Service) ValidateCredentials(ctx context.Context, username, password string) (bool, error) {
	stored, err := s.store.Get(ctx, PasswordKey(username))
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return bcrypt.CompareHashAndPassword(stored, []byte(password)) == nil, nil
}

// Exists reports whether an account has credentials.
func (s *Service) Exists(ctx context.Context, username string) (bool, error) {
	_, err := s.store.Get(ctx, PasswordKey(username))
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// AllUsers lists every account with credentials, sorted by username.
func (s *Service) AllUsers(ctx context.Context) ([]User, error) {
	keys, err := s.store.Keys(ctx, "")
	if err != nil {
		return nil, err
	}
	var users []User
	for _, k := range keys {
		name, ok := strings.CutSuffix(k, "_password")
		if !ok || name == "" {
			continue
		}
		users = append(users, User{
			Username:  name,
			CreatedAt: s.readTime(ctx, CreatedAtKey(name)),
			LastLogin: s.readTime(ctx, LastLoginKey(name)),
		})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

// DeleteUser removes an account with its save, backups and history.
func (s *Service) DeleteUser(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := []string{save.SaveKey(username), PasswordKey(username), CreatedAtKey(username), LastLoginKey(username)}
	backups, err := save.ListBackups(ctx, s.store, username)
	if err != nil {
		return err
	}
	keys = append(keys, backups...)

	var errs []error
	for _, k := range keys {
		if err := s.store.Delete(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.unregister(ctx, username); err != nil {
		errs = append(errs, err)
	}
	if s.summaries != nil {
		if err := s.summaries.Delete(ctx, username); err != nil {
			errs = append(errs, err)
		}
	}
	if s.history != nil {
		if err := s.history.DeleteByActorID(ctx, username); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", username, err)
	}
	s.logger.Event("USER_DELETED", username, fmt.Sprintf("%d keys removed", len(keys)))
	return nil
}

// SeedTestAccount makes sure the debug test account exists.
func (s *Service) SeedTestAccount(ctx context.Context) error {
	exists, err := s.Exists(ctx, TestUsername)
	if err != nil || exists {
		return err
	}
	return s.CreateUser(ctx, TestUsername, TestPassword)
}

func (s *Service) readTime(ctx context.Context, key string) time.Time {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s *Service) registry(ctx context.Context) ([]string, error) {
	raw, err := s.store.Get(ctx, RegistryKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		s.logger.Warnf("username registry is unreadable, starting over: %v", err)
		return nil, nil
	}
	return names, nil
}

func (s *Service) writeRegistry(ctx context.Context, names []string) error {
	raw, err := json.Marshal(names)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, RegistryKey, raw)
}

func (s *Service) register(ctx context.Context, username string) error {
	names, err := s.registry(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		if n == username {
			return nil
		}
	}
	return s.writeRegistry(ctx, append(names, username))
}

func (s *Service) unregister(ctx context.Context, username string) error {
	names, err := s.registry(ctx)
	if err != nil {
		return err
	}
	kept := names[:0]
	for _, n := range names {
		if n != username {
			kept = append(kept, n)
		}
	}
	return s.writeRegistry(ctx, kept)
}
