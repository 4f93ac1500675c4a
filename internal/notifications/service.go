package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shelfmark/internal/config"
)

const userAgent = "Shelfmark/0.1.0"

// Service defines the notification surface exposed to the request workflow
// and the download worker.
type Service interface {
	NotifyRequestSubmitted(ctx context.Context, title, username string) error
	NotifyRequestApproved(ctx context.Context, title, username, decidedBy string) error
	NotifyRequestDenied(ctx context.Context, title, username, decidedBy string) error
	NotifyDownloadStarted(ctx context.Context, title string) error
	NotifyDownloadCompleted(ctx context.Context, title, filePath string) error
	NotifyDownloadFailed(ctx context.Context, title, reason string) error
	NotifyQueueSummary(ctx context.Context, completed, failed int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
		requests: cfg.Notifications.Requests,
		loads:    cfg.Notifications.Downloads,
		errs:     cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	requests bool
	loads    bool
	errs     bool
}

func (n *ntfyService) NotifyRequestSubmitted(ctx context.Context, title, username string) error {
	if !n.requests {
		return nil
	}
	data := payload{
		title:   "Shelfmark - Request Submitted",
		message: fmt.Sprintf("%s requested: %s", strings.TrimSpace(username), strings.TrimSpace(title)),
		tags:    []string{"shelfmark", "request", "submitted"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRequestApproved(ctx context.Context, title, username, decidedBy string) error {
	if !n.requests {
		return nil
	}
	data := payload{
		title:   "Shelfmark - Request Approved",
		message: fmt.Sprintf("Approved for %s: %s (by %s)", strings.TrimSpace(username), strings.TrimSpace(title), strings.TrimSpace(decidedBy)),
		tags:    []string{"shelfmark", "request", "approved"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRequestDenied(ctx context.Context, title, username, decidedBy string) error {
	if !n.requests {
		return nil
	}
	data := payload{
		title:   "Shelfmark - Request Denied",
		message: fmt.Sprintf("Denied for %s: %s (by %s)", strings.TrimSpace(username), strings.TrimSpace(title), strings.TrimSpace(decidedBy)),
		tags:    []string{"shelfmark", "request", "denied"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDownloadStarted(ctx context.Context, title string) error {
	if !n.loads {
		return nil
	}
	data := payload{
		title:   "Shelfmark - Download Started",
		message: fmt.Sprintf("Started downloading: %s", strings.TrimSpace(title)),
		tags:    []string{"shelfmark", "download", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDownloadCompleted(ctx context.Context, title, filePath string) error {
	if !n.loads {
		return nil
	}
	message := fmt.Sprintf("Added to library: %s", strings.TrimSpace(title))
	if filePath = strings.TrimSpace(filePath); filePath != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, filePath)
	}
	data := payload{
		title:    "Shelfmark - Download Complete",
		message:  message,
		tags:     []string{"shelfmark", "download", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDownloadFailed(ctx context.Context, title, reason string) error {
	if !n.loads {
		return nil
	}
	message := fmt.Sprintf("Download failed: %s", strings.TrimSpace(title))
	if reason = strings.TrimSpace(reason); reason != "" {
		message = fmt.Sprintf("%s\nReason: %s", message, reason)
	}
	data := payload{
		title:    "Shelfmark - Download Failed",
		message:  message,
		tags:     []string{"shelfmark", "download", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQueueSummary(ctx context.Context, completed, failed int, duration time.Duration) error {
	if !n.loads {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title, message string
	if failed == 0 {
		title = "Shelfmark - Queue Complete"
		message = fmt.Sprintf("Queue complete: %d downloads finished in %s", completed, durationText)
	} else {
		title = "Shelfmark - Queue Complete (with errors)"
		message = fmt.Sprintf("Queue complete: %d succeeded, %d failed in %s", completed, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"shelfmark", "queue", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errs {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Shelfmark - Error",
		message:  builder.String(),
		tags:     []string{"shelfmark", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Shelfmark - Test",
		message:  "Notification system test",
		tags:     []string{"shelfmark", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRequestSubmitted(context.Context, string, string) error         { return nil }
func (noopService) NotifyRequestApproved(context.Context, string, string, string) error  { return nil }
func (noopService) NotifyRequestDenied(context.Context, string, string, string) error    { return nil }
func (noopService) NotifyDownloadStarted(context.Context, string) error                  { return nil }
func (noopService) NotifyDownloadCompleted(context.Context, string, string) error        { return nil }
func (noopService) NotifyDownloadFailed(context.Context, string, string) error           { return nil }
func (noopService) NotifyQueueSummary(context.Context, int, int, time.Duration) error    { return nil }
func (noopService) NotifyError(context.Context, error, string) error                     { return nil }
func (noopService) TestNotification(context.Context) error                               { return nil }
