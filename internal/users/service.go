package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"shelfmark/internal/logging"
	"shelfmark/internal/queue"
)

var (
	// ErrNotFound indicates the account does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrInvalidUsername indicates the username fails validation.
	ErrInvalidUsername = errors.New("invalid username")
)

// Service manages user accounts on top of the store.
type Service struct {
	store  *queue.Store
	logger *slog.Logger
}

// NewService builds a user service.
func NewService(store *queue.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		store:  store,
		logger: logging.NewComponentLogger(logger, "users"),
	}
}

func normalizeUsername(username string) (string, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidUsername)
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidUsername, username)
		}
	}
	return username, nil
}

// Create registers an account, or updates role and download flag when the
// username already exists.
func (s *Service) Create(ctx context.Context, username string, role queue.Role, canDownload bool) (*queue.User, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	user, err := s.store.UpsertUser(ctx, username, role, canDownload)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user saved",
		logging.String(logging.FieldUsername, user.Username),
		logging.String("role", string(user.Role)),
		logging.Bool("can_download", user.CanDownload))
	return user, nil
}

// Get returns an account by username.
func (s *Service) Get(ctx context.Context, username string) (*queue.User, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, username)
	}
	return user, nil
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]*queue.User, error) {
	return s.store.ListUsers(ctx)
}

// SetRole changes an existing account's role.
func (s *Service) SetRole(ctx context.Context, username string, role queue.Role) (*queue.User, error) {
	user, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, user.Username, role, user.CanDownload)
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, username string) error {
	username, err := normalizeUsername(username)
	if err != nil {
		return err
	}
	removed, err := s.store.RemoveUser(ctx, username)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: %s", ErrNotFound, username)
	}
	s.logger.Info("user removed", logging.String(logging.FieldUsername, username))
	return nil
}
