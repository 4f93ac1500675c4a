package requests

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"shelfmark/internal/logging"
	"shelfmark/internal/notifications"
	"shelfmark/internal/policy"
	"shelfmark/internal/queue"
)

var (
	// ErrBlocked indicates the policy forbids the source entirely.
	ErrBlocked = errors.New("source is blocked by policy")
	// ErrNotRequestable indicates the user can download directly; no request is needed.
	ErrNotRequestable = errors.New("book is directly downloadable")
	// ErrDuplicate indicates the user already has a pending request for this book.
	ErrDuplicate = errors.New("duplicate pending request")
	// ErrNotFound indicates the request does not exist.
	ErrNotFound = errors.New("request not found")
	// ErrAlreadyDecided indicates the request has already been approved or denied.
	ErrAlreadyDecided = errors.New("request already decided")
)

// PolicySource yields the current request policy, typically a *policy.Cache.
type PolicySource interface {
	Refresh(ctx context.Context, rc policy.RefreshContext) (*policy.Policy, error)
}

// Submission describes a book request being submitted.
type Submission struct {
	Title       string
	Author      string
	Source      string
	ContentType string
	Note        string
}

// Service drives the request workflow against the store.
type Service struct {
	store           *queue.Store
	policies        PolicySource
	notifier        notifications.Service
	logger          *slog.Logger
	requestsEnabled bool
}

// NewService builds a request service.
func NewService(store *queue.Store, policies PolicySource, notifier notifications.Service, requestsEnabled bool, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		store:           store,
		policies:        policies,
		notifier:        notifier,
		logger:          logging.NewComponentLogger(logger, "requests"),
		requestsEnabled: requestsEnabled,
	}
}

// Submit validates a submission against the current policy and files the
// request. The resolved mode is recorded on the request so later decisions
// can see what the policy said at submission time.
func (s *Service) Submit(ctx context.Context, user *queue.User, sub Submission) (*queue.Request, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}
	sub.Title = strings.TrimSpace(sub.Title)
	if sub.Title == "" {
		return nil, errors.New("title must not be empty")
	}
	sub.Source = strings.TrimSpace(sub.Source)
	sub.ContentType = strings.TrimSpace(sub.ContentType)
	if sub.Source == "" || sub.ContentType == "" {
		return nil, errors.New("source and content type must not be empty")
	}

	pol, err := s.policies.Refresh(ctx, policy.RefreshContext{
		Enabled: s.requestsEnabled,
		IsAdmin: user.IsAdmin(),
	})
	if err != nil {
		return nil, fmt.Errorf("refresh policy: %w", err)
	}

	mode := policy.ResolveSourceMode(pol, user.IsAdmin(), sub.Source, sub.ContentType)
	switch mode {
	case policy.ModeBlocked:
		return nil, ErrBlocked
	case policy.ModeDownload:
		return nil, ErrNotRequestable
	}

	if pol == nil || !pol.AllowNotes {
		sub.Note = ""
	}

	dup, err := s.store.FindPendingDuplicate(ctx, user.Username, sub.Title, sub.Author, sub.ContentType)
	if err != nil {
		return nil, fmt.Errorf("check duplicates: %w", err)
	}
	if dup != nil {
		return nil, fmt.Errorf("%w: request %s", ErrDuplicate, dup.UUID)
	}

	request, err := s.store.NewRequest(ctx, &queue.Request{
		Title:       sub.Title,
		Author:      strings.TrimSpace(sub.Author),
		Source:      sub.Source,
		ContentType: sub.ContentType,
		Mode:        string(mode),
		Note:        strings.TrimSpace(sub.Note),
		Username:    user.Username,
	})
	if err != nil {
		return nil, fmt.Errorf("store request: %w", err)
	}

	s.logger.Info("request submitted",
		logging.String(logging.FieldRequestID, request.UUID),
		logging.String(logging.FieldUsername, user.Username),
		logging.String(logging.FieldSource, request.Source),
		logging.String(logging.FieldContentType, request.ContentType))
	if err := s.notifier.NotifyRequestSubmitted(ctx, request.Title, request.Username); err != nil {
		s.logger.Warn("request notification failed", logging.Error(err))
	}
	return request, nil
}

// Approve marks a pending request approved and enqueues its download.
func (s *Service) Approve(ctx context.Context, requestUUID, decidedBy string) (*queue.Request, error) {
	request, err := s.pending(ctx, requestUUID)
	if err != nil {
		return nil, err
	}

	download, err := s.store.NewDownloadForRequest(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("enqueue download: %w", err)
	}

	request.Status = queue.RequestApproved
	request.DecidedBy = decidedBy
	request.DownloadID = download.ID
	if err := s.store.UpdateRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("update request: %w", err)
	}

	s.logger.Info("request approved",
		logging.String(logging.FieldRequestID, request.UUID),
		logging.Int64(logging.FieldItemID, download.ID),
		logging.String(logging.FieldUsername, decidedBy))
	if err := s.notifier.NotifyRequestApproved(ctx, request.Title, request.Username, decidedBy); err != nil {
		s.logger.Warn("request notification failed", logging.Error(err))
	}
	return request, nil
}

// Deny marks a pending request denied.
func (s *Service) Deny(ctx context.Context, requestUUID, decidedBy string) (*queue.Request, error) {
	request, err := s.pending(ctx, requestUUID)
	if err != nil {
		return nil, err
	}

	request.Status = queue.RequestDenied
	request.DecidedBy = decidedBy
	if err := s.store.UpdateRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("update request: %w", err)
	}

	s.logger.Info("request denied",
		logging.String(logging.FieldRequestID, request.UUID),
		logging.String(logging.FieldUsername, decidedBy))
	if err := s.notifier.NotifyRequestDenied(ctx, request.Title, request.Username, decidedBy); err != nil {
		s.logger.Warn("request notification failed", logging.Error(err))
	}
	return request, nil
}

// MarkFulfilled transitions the request linked to a completed download.
// Downloads without a linked request are ignored.
func (s *Service) MarkFulfilled(ctx context.Context, downloadID int64) error {
	request, err := s.store.RequestByDownloadID(ctx, downloadID)
	if err != nil {
		return err
	}
	if request == nil || request.Status != queue.RequestApproved {
		return nil
	}
	request.Status = queue.RequestFulfilled
	if err := s.store.UpdateRequest(ctx, request); err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	s.logger.Info("request fulfilled",
		logging.String(logging.FieldRequestID, request.UUID),
		logging.Int64(logging.FieldItemID, downloadID))
	return nil
}

// Get returns a request by its public identifier.
func (s *Service) Get(ctx context.Context, requestUUID string) (*queue.Request, error) {
	request, err := s.store.RequestByUUID(ctx, requestUUID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrNotFound
	}
	return request, nil
}

// List returns requests filtered by status.
func (s *Service) List(ctx context.Context, statuses ...queue.RequestStatus) ([]*queue.Request, error) {
	return s.store.ListRequests(ctx, statuses...)
}

// ListForUser returns one user's requests, newest first.
func (s *Service) ListForUser(ctx context.Context, username string) ([]*queue.Request, error) {
	return s.store.RequestsByUsername(ctx, username)
}

func (s *Service) pending(ctx context.Context, requestUUID string) (*queue.Request, error) {
	request, err := s.store.RequestByUUID(ctx, requestUUID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrNotFound
	}
	if request.Status != queue.RequestPending {
		return nil, fmt.Errorf("%w: %s is %s", ErrAlreadyDecided, request.UUID, request.Status)
	}
	return request, nil
}
