package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Start requests the daemon to start processing.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Shelfmark.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Shelfmark.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Shelfmark.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueList returns downloads optionally filtered by statuses.
func (c *Client) QueueList(statuses []string) (*QueueListResponse, error) {
	var resp QueueListResponse
	if err := c.client.Call("Shelfmark.QueueList", QueueListRequest{Statuses: statuses}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueDescribe returns details for a single download.
func (c *Client) QueueDescribe(id int64) (*QueueDescribeResponse, error) {
	var resp QueueDescribeResponse
	if err := c.client.Call("Shelfmark.QueueDescribe", QueueDescribeRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueClear removes all downloads from the queue.
func (c *Client) QueueClear() (*QueueClearResponse, error) {
	var resp QueueClearResponse
	if err := c.client.Call("Shelfmark.QueueClear", QueueClearRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueClearCompleted removes only completed downloads from the queue.
func (c *Client) QueueClearCompleted() (*QueueClearCompletedResponse, error) {
	var resp QueueClearCompletedResponse
	if err := c.client.Call("Shelfmark.QueueClearCompleted", QueueClearCompletedRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueClearFailed removes failed downloads from the queue.
func (c *Client) QueueClearFailed() (*QueueClearFailedResponse, error) {
	var resp QueueClearFailedResponse
	if err := c.client.Call("Shelfmark.QueueClearFailed", QueueClearFailedRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueReset resets downloads stuck in processing states.
func (c *Client) QueueReset() (*QueueResetResponse, error) {
	var resp QueueResetResponse
	if err := c.client.Call("Shelfmark.QueueReset", QueueResetRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueRetry retries failed downloads.
func (c *Client) QueueRetry(ids []int64) (*QueueRetryResponse, error) {
	var resp QueueRetryResponse
	if err := c.client.Call("Shelfmark.QueueRetry", QueueRetryRequest{IDs: ids}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueRemove removes specific downloads by ID.
func (c *Client) QueueRemove(ids []int64) (*QueueRemoveResponse, error) {
	var resp QueueRemoveResponse
	if err := c.client.Call("Shelfmark.QueueRemove", QueueRemoveRequest{IDs: ids}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueHealth returns queue diagnostics.
func (c *Client) QueueHealth() (*QueueHealthResponse, error) {
	var resp QueueHealthResponse
	if err := c.client.Call("Shelfmark.QueueHealth", QueueHealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DatabaseHealth retrieves detailed database diagnostics.
func (c *Client) DatabaseHealth() (*DatabaseHealthResponse, error) {
	var resp DatabaseHealthResponse
	if err := c.client.Call("Shelfmark.DatabaseHealth", DatabaseHealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Shelfmark.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PolicyShow fetches the request policy as seen by the given user.
func (c *Client) PolicyShow(username string, force bool) (*PolicyShowResponse, error) {
	var resp PolicyShowResponse
	if err := c.client.Call("Shelfmark.PolicyShow", PolicyShowRequest{Username: username, Force: force}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Search runs an aggregated search across configured sources.
func (c *Client) Search(req SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.client.Call("Shelfmark.Search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestList returns requests filtered by status or username.
func (c *Client) RequestList(req RequestListRequest) (*RequestListResponse, error) {
	var resp RequestListResponse
	if err := c.client.Call("Shelfmark.RequestList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestSubmit submits a new book request.
func (c *Client) RequestSubmit(req RequestSubmitRequest) (*RequestSubmitResponse, error) {
	var resp RequestSubmitResponse
	if err := c.client.Call("Shelfmark.RequestSubmit", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestApprove approves a pending request.
func (c *Client) RequestApprove(uuid, decidedBy string) (*RequestDecideResponse, error) {
	var resp RequestDecideResponse
	if err := c.client.Call("Shelfmark.RequestApprove", RequestDecideRequest{UUID: uuid, DecidedBy: decidedBy}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestDeny denies a pending request.
func (c *Client) RequestDeny(uuid, decidedBy string) (*RequestDecideResponse, error) {
	var resp RequestDecideResponse
	if err := c.client.Call("Shelfmark.RequestDeny", RequestDecideRequest{UUID: uuid, DecidedBy: decidedBy}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Activity fetches the unified activity feed.
func (c *Client) Activity() (*ActivityResponse, error) {
	var resp ActivityResponse
	if err := c.client.Call("Shelfmark.Activity", ActivityRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UserList returns all accounts.
func (c *Client) UserList() (*UserListResponse, error) {
	var resp UserListResponse
	if err := c.client.Call("Shelfmark.UserList", UserListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UserAdd creates or updates an account.
func (c *Client) UserAdd(req UserAddRequest) (*UserAddResponse, error) {
	var resp UserAddResponse
	if err := c.client.Call("Shelfmark.UserAdd", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UserRemove deletes an account.
func (c *Client) UserRemove(username string) (*UserRemoveResponse, error) {
	var resp UserRemoveResponse
	if err := c.client.Call("Shelfmark.UserRemove", UserRemoveRequest{Username: username}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail reads lines from the daemon log file.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Shelfmark.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
