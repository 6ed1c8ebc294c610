package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// Client talks to the lobby directory service from a peer.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	timeout time.Duration
}

type ClientOption func(*Client)

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type CreateRequest struct {
	LobbyCode string `json:"lobbyCode"`
	PeerID    string `json:"peerId"`
	Address   string `json:"address,omitempty"`
}

type CreateResponse struct {
	LobbyCode string `json:"lobbyCode"`
}

// CreateLobby registers e. An empty code asks the server to pick one.
func (c *Client) CreateLobby(ctx context.Context, code string, e Entry) (string, error) {
	req := CreateRequest{LobbyCode: code, PeerID: e.PeerID, Address: e.Address}
	var resp CreateResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/create-lobby", req, &resp); err != nil {
		return "", err
	}
	return resp.LobbyCode, nil
}

func (c *Client) JoinLobby(ctx context.Context, code string) (Entry, error) {
	var e Entry
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/join-lobby/"+url.PathEscape(NormalizeCode(code)), nil, &e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	if err := c.http.DoDeadline(req, resp, c.deadline(ctx)); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	switch status := resp.StatusCode(); {
	case status == fasthttp.StatusNotFound:
		return ErrNotFound
	case status == fasthttp.StatusConflict:
		return ErrCodeTaken
	case status == fasthttp.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrInvalid, truncate(string(resp.Body()), 256))
	case status < 200 || status >= 300:
		return fmt.Errorf("directory error: status=%d body=%s", status, truncate(string(resp.Body()), 256))
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) deadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
