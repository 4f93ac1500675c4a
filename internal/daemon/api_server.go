package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"shelfmark/internal/api"
	"shelfmark/internal/config"
	"shelfmark/internal/logging"
	"shelfmark/internal/queue"
	"shelfmark/internal/requests"
	"shelfmark/internal/users"
)

type apiServer struct {
	bind       string
	token      string
	logger     *slog.Logger
	daemon     *Daemon
	queueSvc   *api.QueueService
	requestSvc *api.RequestService
	feedSvc    *api.ActivityService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:       bind,
		token:      strings.TrimSpace(cfg.Paths.APIToken),
		logger:     logger,
		daemon:     d,
		queueSvc:   api.NewQueueService(d.store),
		requestSvc: api.NewRequestService(d.store),
		feedSvc:    api.NewActivityService(d.store),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.protect(srv.handleStatus))
	mux.HandleFunc("/api/policy", srv.protect(srv.handlePolicy))
	mux.HandleFunc("/api/search", srv.protect(srv.handleSearch))
	mux.HandleFunc("/api/queue", srv.protect(srv.handleQueue))
	mux.HandleFunc("/api/queue/", srv.protect(srv.handleQueueItem))
	mux.HandleFunc("/api/requests", srv.protect(srv.handleRequests))
	mux.HandleFunc("/api/requests/", srv.protect(srv.handleRequestItem))
	mux.HandleFunc("/api/activity", srv.protect(srv.handleActivity))
	mux.HandleFunc("/api/users", srv.protect(srv.handleUsers))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) protect(next http.HandlerFunc) http.HandlerFunc {
	return requireBearer(s.token, next)
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// actingUser resolves the calling account from the user query parameter or
// request body field. An unknown or empty username is treated as an
// unprivileged member.
func (s *apiServer) actingUser(ctx context.Context, username string) *queue.User {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" || s.daemon.users == nil {
		return &queue.User{Username: trimmed, Role: queue.RoleMember}
	}
	user, err := s.daemon.users.Get(ctx, trimmed)
	if err != nil {
		return &queue.User{Username: trimmed, Role: queue.RoleMember}
	}
	return user
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		QueueDBPath:  status.QueueDBPath,
		LockFilePath: status.LockFilePath,
		Workflow: api.WorkflowStatus{
			Running:    status.Workflow.Running,
			QueueStats: api.MergeQueueStats(status.Workflow.QueueStats),
			LastError:  status.Workflow.LastError,
		},
	}
	if status.Workflow.LastItem != nil {
		last := api.FromDownload(status.Workflow.LastItem)
		payload.Workflow.LastItem = &last
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handlePolicy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := r.URL.Query()
	force := query.Get("force") == "1" || strings.EqualFold(query.Get("force"), "true")
	user := s.actingUser(r.Context(), query.Get("user"))

	pol, err := s.daemon.RefreshPolicy(r.Context(), user.IsAdmin(), force)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.PolicyResponse{Policy: api.FromPolicy(pol)})
}

func (s *apiServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.daemon.search == nil {
		s.writeJSON(w, http.StatusOK, api.SearchResponse{})
		return
	}
	query := r.URL.Query()
	q := strings.TrimSpace(query.Get("q"))
	if q == "" {
		s.writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	contentType := strings.TrimSpace(query.Get("type"))
	if contentType == "" {
		contentType = "ebook"
	}
	user := s.actingUser(r.Context(), query.Get("user"))

	pol, err := s.daemon.RefreshPolicy(r.Context(), user.IsAdmin(), false)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	results, err := s.daemon.search.Search(r.Context(), pol, user.IsAdmin(), q, contentType)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.SearchResponse{Results: api.FromSearchResults(results)})
}

func (s *apiServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.queueSvc == nil {
		s.writeJSON(w, http.StatusOK, api.DownloadListResponse{Items: nil})
		return
	}
	var statuses []queue.Status
	for _, value := range r.URL.Query()["status"] {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		statuses = append(statuses, queue.Status(trimmed))
	}

	items, err := s.queueSvc.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.DownloadListResponse{Items: items})
}

func (s *apiServer) handleQueueItem(w http.ResponseWriter, r *http.Request) {
	idStr, action, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/api/queue/"), "/")
	if idStr == "" {
		s.writeError(w, http.StatusNotFound, "download not found")
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid download id")
		return
	}

	if action == "retry" {
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		result, err := api.RetryFailedItemsByID(r.Context(), s.queueActions(), []int64{id})
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, result)
		return
	}
	if action != "" {
		s.writeError(w, http.StatusNotFound, "download not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		item, err := s.queueSvc.Describe(r.Context(), id)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if item == nil {
			s.writeError(w, http.StatusNotFound, "download not found")
			return
		}
		s.writeJSON(w, http.StatusOK, api.DownloadResponse{Item: *item})
	case http.MethodDelete:
		result, err := api.RemoveItemsByID(r.Context(), queueRemoveFunc(s.daemon.RemoveQueueItem), []int64{id})
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if result.RemovedCount == 0 {
			s.writeError(w, http.StatusNotFound, "download not found")
			return
		}
		s.writeJSON(w, http.StatusOK, result)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// queueRemoveFunc adapts a remove function to api.QueueRemoveService.
type queueRemoveFunc func(ctx context.Context, id int64) (bool, error)

func (f queueRemoveFunc) Remove(ctx context.Context, id int64) (bool, error) { return f(ctx, id) }

// queueActionAdapter pairs the read service with the daemon's retry path.
type queueActionAdapter struct {
	svc    *api.QueueService
	daemon *Daemon
}

func (a queueActionAdapter) Describe(ctx context.Context, id int64) (*api.Download, error) {
	return a.svc.Describe(ctx, id)
}

func (a queueActionAdapter) Retry(ctx context.Context, ids []int64) (int64, error) {
	return a.daemon.RetryFailed(ctx, ids)
}

func (s *apiServer) queueActions() api.QueueActionService {
	return queueActionAdapter{svc: s.queueSvc, daemon: s.daemon}
}

type submitRequestPayload struct {
	Username    string `json:"username"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Source      string `json:"source"`
	ContentType string `json:"contentType"`
	Note        string `json:"note"`
}

func (s *apiServer) handleRequests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		query := r.URL.Query()
		if username := strings.TrimSpace(query.Get("user")); username != "" {
			list, err := s.requestSvc.ListForUser(r.Context(), username)
			if err != nil {
				s.writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			s.writeJSON(w, http.StatusOK, api.RequestListResponse{Requests: list})
			return
		}
		var statuses []queue.RequestStatus
		for _, value := range query["status"] {
			if parsed, ok := queue.ParseRequestStatus(value); ok {
				statuses = append(statuses, parsed)
			}
		}
		list, err := s.requestSvc.List(r.Context(), statuses...)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.RequestListResponse{Requests: list})
	case http.MethodPost:
		if s.daemon.requests == nil {
			s.writeError(w, http.StatusServiceUnavailable, "requests unavailable")
			return
		}
		var payload submitRequestPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		user := s.actingUser(r.Context(), payload.Username)
		req, err := s.daemon.requests.Submit(r.Context(), user, requests.Submission{
			Title:       payload.Title,
			Author:      payload.Author,
			Source:      payload.Source,
			ContentType: payload.ContentType,
			Note:        payload.Note,
		})
		if err != nil {
			s.writeRequestError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, api.RequestResponse{Request: api.FromRequest(req)})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type decideRequestPayload struct {
	DecidedBy string `json:"decidedBy"`
}

func (s *apiServer) handleRequestItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/requests/")
	uuid, action, _ := strings.Cut(rest, "/")
	if uuid == "" {
		s.writeError(w, http.StatusNotFound, "request not found")
		return
	}

	switch {
	case r.Method == http.MethodGet && action == "":
		req, err := s.requestSvc.Describe(r.Context(), uuid)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if req == nil {
			s.writeError(w, http.StatusNotFound, "request not found")
			return
		}
		s.writeJSON(w, http.StatusOK, api.RequestResponse{Request: *req})
	case r.Method == http.MethodPost && (action == "approve" || action == "deny"):
		if s.daemon.requests == nil {
			s.writeError(w, http.StatusServiceUnavailable, "requests unavailable")
			return
		}
		var payload decideRequestPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		decider := s.actingUser(r.Context(), payload.DecidedBy)
		if !decider.IsAdmin() {
			s.writeError(w, http.StatusForbidden, "request decisions require an admin account")
			return
		}
		var (
			req *queue.Request
			err error
		)
		if action == "approve" {
			req, err = s.daemon.requests.Approve(r.Context(), uuid, decider.Username)
		} else {
			req, err = s.daemon.requests.Deny(r.Context(), uuid, decider.Username)
		}
		if err != nil {
			s.writeRequestError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.RequestResponse{Request: api.FromRequest(req)})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	entries, err := s.feedSvc.Feed(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ActivityResponse{Entries: entries})
}

type createUserPayload struct {
	Username    string `json:"username"`
	Role        string `json:"role"`
	CanDownload bool   `json:"canDownload"`
}

func (s *apiServer) handleUsers(w http.ResponseWriter, r *http.Request) {
	if s.daemon.users == nil {
		s.writeError(w, http.StatusServiceUnavailable, "users unavailable")
		return
	}
	switch r.Method {
	case http.MethodGet:
		list, err := s.daemon.users.List(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.UserListResponse{Users: api.FromUsers(list)})
	case http.MethodPost:
		var payload createUserPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		role, ok := queue.ParseRole(payload.Role)
		if !ok {
			role = queue.RoleMember
		}
		user, err := s.daemon.users.Create(r.Context(), payload.Username, role, payload.CanDownload)
		if err != nil {
			if errors.Is(err, users.ErrInvalidUsername) {
				s.writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusCreated, api.FromUser(user))
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// writeRequestError maps request service sentinels onto HTTP statuses.
func (s *apiServer) writeRequestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, requests.ErrBlocked):
		s.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, requests.ErrNotRequestable),
		errors.Is(err, requests.ErrDuplicate),
		errors.Is(err, requests.ErrAlreadyDecided):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, requests.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		s.writeError(w, http.StatusBadRequest, err.Error())
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String("component", "api-server"))
	}
	return logging.NewNop()
}
