package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"
	"time"

	"log/slog"

	"shelfmark/internal/activity"
	"shelfmark/internal/api"
	"shelfmark/internal/daemon"
	"shelfmark/internal/logging"
	"shelfmark/internal/logs"
	"shelfmark/internal/queue"
	"shelfmark/internal/requests"
	"shelfmark/internal/users"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Shelfmark", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String("impact", "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String("impact", "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun shelfmark stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String("component", "ipc"))
}

// actingUser resolves a username against the account store, falling back to
// an unprivileged member for unknown names.
func (s *service) actingUser(username string) *queue.User {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" || s.daemon.Users() == nil {
		return &queue.User{Username: trimmed, Role: queue.RoleMember}
	}
	user, err := s.daemon.Users().Get(s.ctx, trimmed)
	if err != nil {
		return &queue.User{Username: trimmed, Role: queue.RoleMember}
	}
	return user
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.log().Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.log().Info("daemon started via IPC",
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.QueueDBPath = status.QueueDBPath
	resp.LockPath = status.LockFilePath
	resp.PID = status.PID
	resp.QueueStats = api.MergeQueueStats(status.Workflow.QueueStats)
	resp.LastError = status.Workflow.LastError
	if status.Workflow.LastItem != nil {
		item := api.FromDownload(status.Workflow.LastItem)
		resp.LastItem = &item
	}
	return nil
}

func (s *service) QueueList(req QueueListRequest, resp *QueueListResponse) error {
	statuses := make([]queue.Status, 0, len(req.Statuses))
	for _, status := range req.Statuses {
		parsed, ok := queue.ParseStatus(status)
		if !ok {
			continue
		}
		statuses = append(statuses, parsed)
	}
	items, err := s.daemon.ListQueue(s.ctx, statuses)
	if err != nil {
		return err
	}
	resp.Items = api.FromDownloads(items)
	return nil
}

func (s *service) QueueDescribe(req QueueDescribeRequest, resp *QueueDescribeResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid download id %d", req.ID)
	}
	item, err := s.daemon.GetQueueItem(s.ctx, req.ID)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("download %d not found", req.ID)
	}
	resp.Item = api.FromDownload(item)
	return nil
}

func (s *service) QueueClear(_ QueueClearRequest, resp *QueueClearResponse) error {
	s.log().Debug("queue clear requested")
	removed, err := s.daemon.ClearQueue(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("queue cleared",
		logging.String(logging.FieldEventType, "queue_clear"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) QueueClearCompleted(_ QueueClearCompletedRequest, resp *QueueClearCompletedResponse) error {
	s.log().Debug("queue clear completed requested")
	removed, err := s.daemon.ClearCompleted(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("queue completed items cleared",
		logging.String(logging.FieldEventType, "queue_clear_completed"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) QueueClearFailed(_ QueueClearFailedRequest, resp *QueueClearFailedResponse) error {
	s.log().Debug("queue clear failed requested")
	removed, err := s.daemon.ClearFailed(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("queue failed items cleared",
		logging.String(logging.FieldEventType, "queue_clear_failed"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) QueueReset(_ QueueResetRequest, resp *QueueResetResponse) error {
	s.log().Debug("queue reset stuck requested")
	updated, err := s.daemon.ResetStuck(s.ctx)
	if err != nil {
		return err
	}
	resp.Updated = updated
	s.log().Info("queue stuck items reset",
		logging.String(logging.FieldEventType, "queue_reset_stuck"),
		logging.Int64("updated_count", updated))
	return nil
}

func (s *service) QueueRetry(req QueueRetryRequest, resp *QueueRetryResponse) error {
	s.log().Debug("queue retry requested", logging.Int("item_count", len(req.IDs)))
	updated, err := s.daemon.RetryFailed(s.ctx, req.IDs)
	if err != nil {
		return err
	}
	resp.Updated = updated
	s.log().Info("queue items retried",
		logging.String(logging.FieldEventType, "queue_retry"),
		logging.Int64("updated_count", updated))
	return nil
}

func (s *service) QueueRemove(req QueueRemoveRequest, resp *QueueRemoveResponse) error {
	if len(req.IDs) == 0 {
		return errors.New("queue remove requires at least one id")
	}
	s.log().Debug("queue remove requested", logging.Int("item_count", len(req.IDs)))
	for _, id := range req.IDs {
		removed, err := s.daemon.RemoveQueueItem(s.ctx, id)
		if err != nil {
			return err
		}
		if removed {
			resp.Removed++
		}
	}
	s.log().Info("queue items removed",
		logging.String(logging.FieldEventType, "queue_remove"),
		logging.Int64("removed_count", resp.Removed))
	return nil
}

func (s *service) QueueHealth(_ QueueHealthRequest, resp *QueueHealthResponse) error {
	health, err := s.daemon.QueueHealth(s.ctx)
	if err != nil {
		return err
	}
	resp.Total = health.Total
	resp.Pending = health.Pending
	resp.Processing = health.Processing
	resp.Failed = health.Failed
	resp.Completed = health.Completed
	return nil
}

func (s *service) DatabaseHealth(_ DatabaseHealthRequest, resp *DatabaseHealthResponse) error {
	health, err := s.daemon.DatabaseHealth(s.ctx)
	if err != nil && health.Error == "" {
		return err
	}
	resp.DBPath = health.DBPath
	resp.DatabaseExists = health.DatabaseExists
	resp.DatabaseReadable = health.DatabaseReadable
	resp.TableExists = health.TableExists
	resp.TotalItems = health.TotalItems
	resp.Error = health.Error
	return err
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}

func (s *service) PolicyShow(req PolicyShowRequest, resp *PolicyShowResponse) error {
	user := s.actingUser(req.Username)
	pol, err := s.daemon.RefreshPolicy(s.ctx, user.IsAdmin(), req.Force)
	if err != nil {
		return err
	}
	resp.Policy = api.FromPolicy(pol)
	return nil
}

func (s *service) Search(req SearchRequest, resp *SearchResponse) error {
	if s.daemon.Search() == nil {
		return errors.New("search unavailable")
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return errors.New("search requires a query")
	}
	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		contentType = "ebook"
	}
	user := s.actingUser(req.Username)
	pol, err := s.daemon.RefreshPolicy(s.ctx, user.IsAdmin(), false)
	if err != nil {
		return err
	}
	results, err := s.daemon.Search().Search(s.ctx, pol, user.IsAdmin(), query, contentType)
	if err != nil {
		return err
	}
	resp.Results = api.FromSearchResults(results)
	return nil
}

func (s *service) RequestList(req RequestListRequest, resp *RequestListResponse) error {
	svc := s.daemon.Requests()
	if svc == nil {
		return errors.New("requests unavailable")
	}
	if username := strings.TrimSpace(req.Username); username != "" {
		requestsForUser, err := svc.ListForUser(s.ctx, username)
		if err != nil {
			return err
		}
		resp.Requests = api.FromRequests(requestsForUser)
		return nil
	}
	statuses := make([]queue.RequestStatus, 0, len(req.Statuses))
	for _, status := range req.Statuses {
		if parsed, ok := queue.ParseRequestStatus(status); ok {
			statuses = append(statuses, parsed)
		}
	}
	list, err := svc.List(s.ctx, statuses...)
	if err != nil {
		return err
	}
	resp.Requests = api.FromRequests(list)
	return nil
}

func (s *service) RequestSubmit(req RequestSubmitRequest, resp *RequestSubmitResponse) error {
	svc := s.daemon.Requests()
	if svc == nil {
		return errors.New("requests unavailable")
	}
	user := s.actingUser(req.Username)
	stored, err := svc.Submit(s.ctx, user, requests.Submission{
		Title:       req.Title,
		Author:      req.Author,
		Source:      req.Source,
		ContentType: req.ContentType,
		Note:        req.Note,
	})
	if err != nil {
		return err
	}
	resp.Request = api.FromRequest(stored)
	s.log().Info("request submitted via IPC",
		logging.String(logging.FieldEventType, "request_submit"),
		logging.String("request_uuid", stored.UUID))
	return nil
}

func (s *service) RequestApprove(req RequestDecideRequest, resp *RequestDecideResponse) error {
	return s.decideRequest(req, resp, true)
}

func (s *service) RequestDeny(req RequestDecideRequest, resp *RequestDecideResponse) error {
	return s.decideRequest(req, resp, false)
}

func (s *service) decideRequest(req RequestDecideRequest, resp *RequestDecideResponse, approve bool) error {
	svc := s.daemon.Requests()
	if svc == nil {
		return errors.New("requests unavailable")
	}
	decider := s.actingUser(req.DecidedBy)
	if !decider.IsAdmin() {
		return errors.New("request decisions require an admin account")
	}
	var (
		decided *queue.Request
		err     error
	)
	if approve {
		decided, err = svc.Approve(s.ctx, req.UUID, decider.Username)
	} else {
		decided, err = svc.Deny(s.ctx, req.UUID, decider.Username)
	}
	if err != nil {
		return err
	}
	resp.Request = api.FromRequest(decided)
	return nil
}

func (s *service) Activity(_ ActivityRequest, resp *ActivityResponse) error {
	items, err := s.daemon.ListQueue(s.ctx, nil)
	if err != nil {
		return err
	}
	all, err := s.daemon.Requests().List(s.ctx)
	if err != nil {
		return err
	}
	resp.Entries = api.FromActivityCards(activity.Merge(items, all))
	return nil
}

func (s *service) UserList(_ UserListRequest, resp *UserListResponse) error {
	svc := s.daemon.Users()
	if svc == nil {
		return errors.New("users unavailable")
	}
	list, err := svc.List(s.ctx)
	if err != nil {
		return err
	}
	resp.Users = api.FromUsers(list)
	return nil
}

func (s *service) UserAdd(req UserAddRequest, resp *UserAddResponse) error {
	svc := s.daemon.Users()
	if svc == nil {
		return errors.New("users unavailable")
	}
	role, ok := queue.ParseRole(req.Role)
	if !ok {
		role = queue.RoleMember
	}
	user, err := svc.Create(s.ctx, req.Username, role, req.CanDownload)
	if err != nil {
		return err
	}
	resp.User = api.FromUser(user)
	return nil
}

func (s *service) UserRemove(req UserRemoveRequest, resp *UserRemoveResponse) error {
	svc := s.daemon.Users()
	if svc == nil {
		return errors.New("users unavailable")
	}
	if err := svc.Delete(s.ctx, req.Username); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			resp.Removed = false
			return nil
		}
		return err
	}
	resp.Removed = true
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	path := s.daemon.LogPath()
	if strings.TrimSpace(path) == "" {
		return errors.New("daemon log path unavailable")
	}
	result, err := logs.Tail(s.ctx, path, logs.Options{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   time.Duration(req.WaitMillis) * time.Millisecond,
	})
	if err != nil {
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}
