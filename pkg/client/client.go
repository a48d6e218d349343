package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/noah-isme/todo-list-api/internal/models"
	"github.com/noah-isme/todo-list-api/internal/service"
	appErrors "github.com/noah-isme/todo-list-api/pkg/errors"
)

// Client is a typed HTTP client for the to-do list API. It stores the issued
// token pair, attaches the access token as a bearer credential to every
// request, and on a 401 response performs exactly one refresh-token exchange
// before replaying the original request once.
type Client struct {
	baseURL string
	httpc   *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		c.httpc = httpc
	}
}

// New creates a Client for the API served at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tokens returns the currently stored token pair.
func (c *Client) Tokens() (accessToken, refreshToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

// SetTokens replaces the stored token pair.
func (c *Client) SetTokens(accessToken, refreshToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = accessToken
	c.refreshToken = refreshToken
}

type envelope struct {
	Data       json.RawMessage    `json:"data"`
	Error      *appErrors.Error   `json:"error"`
	Pagination *models.Pagination `json:"pagination"`
}

// SignUp registers a new account and returns its id.
func (c *Client) SignUp(ctx context.Context, req models.SignUpRequest) (int64, error) {
	var out struct {
		ID int64 `json:"id"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/sign-up", req, &out, false); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// Login authenticates and stores the issued token pair.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var res models.LoginResponse
	req := models.LoginRequest{Username: username, Password: password}
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &res, false); err != nil {
		return err
	}
	c.SetTokens(res.AccessToken, res.RefreshToken)
	return nil
}

// Logout deletes the stored refresh session server-side and clears the pair.
func (c *Client) Logout(ctx context.Context) error {
	_, refresh := c.Tokens()
	if refresh == "" {
		return nil
	}
	path := "/api/auth/log-out?token=" + url.QueryEscape(refresh)
	if _, err := c.do(ctx, http.MethodDelete, path, nil, nil, false); err != nil {
		return err
	}
	c.SetTokens("", "")
	return nil
}

// AddItem creates a to-do item and returns its id.
func (c *Client) AddItem(ctx context.Context, req service.TodoCreateRequest) (int64, error) {
	var out struct {
		ID int64 `json:"id"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/api/todo-list/add", req, &out, true); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// GetItem fetches a single item by id.
func (c *Client) GetItem(ctx context.Context, id int64) (*models.TodoItem, error) {
	var item models.TodoItem
	path := "/api/todo-list/get/" + strconv.FormatInt(id, 10)
	if _, err := c.do(ctx, http.MethodGet, path, nil, &item, true); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems fetches one filtered page of the caller's items together with
// the reported total count.
func (c *Client) ListItems(ctx context.Context, filter models.TodoFilter) (*models.TodoPage, error) {
	q := url.Values{}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.IsCompleted != nil {
		q.Set("isCompleted", strconv.FormatBool(*filter.IsCompleted))
	}
	if filter.FromDueDate != nil {
		q.Set("fromDueDate", filter.FromDueDate.Format("2006-01-02"))
	}
	if filter.ToDueDate != nil {
		q.Set("toDueDate", filter.ToDueDate.Format("2006-01-02"))
	}
	q.Set("skip", strconv.Itoa(filter.Skip))
	q.Set("take", strconv.Itoa(filter.Take))

	var items []models.TodoItem
	env, err := c.do(ctx, http.MethodGet, "/api/todo-list/get-all?"+q.Encode(), nil, &items, true)
	if err != nil {
		return nil, err
	}

	page := &models.TodoPage{Items: items}
	if env.Pagination != nil {
		page.TotalCount = env.Pagination.TotalCount
	}
	return page, nil
}

// UpdateItem overwrites an item's mutable fields.
func (c *Client) UpdateItem(ctx context.Context, req service.TodoUpdateRequest) error {
	_, err := c.do(ctx, http.MethodPut, "/api/todo-list/update", req, nil, true)
	return err
}

// DeleteItem removes an item by id.
func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	path := "/api/todo-list/delete?id=" + strconv.FormatInt(id, 10)
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil, true)
	return err
}

// do executes one API call. When authed is true the stored access token is
// attached, and a 401 response triggers a single refresh-and-replay before
// the failure is surfaced.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, authed bool) (*envelope, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	env, status, err := c.send(ctx, method, path, payload, authed)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized && authed {
		if err := c.refresh(ctx); err != nil {
			return nil, err
		}
		env, status, err = c.send(ctx, method, path, payload, authed)
		if err != nil {
			return nil, err
		}
	}

	if status >= http.StatusBadRequest {
		if env != nil && env.Error != nil {
			return nil, env.Error
		}
		return nil, fmt.Errorf("unexpected status %d for %s %s", status, method, path)
	}

	if out != nil && env != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode response body: %w", err)
		}
	}
	return env, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, authed bool) (*envelope, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		access, _ := c.Tokens()
		if access != "" {
			req.Header.Set("Authorization", "Bearer "+access)
		}
	}

	res, err := c.httpc.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer res.Body.Close() //nolint:errcheck

	if res.StatusCode == http.StatusNoContent {
		return nil, res.StatusCode, nil
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, res.StatusCode, fmt.Errorf("read response body: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, res.StatusCode, fmt.Errorf("decode response envelope: %w", err)
		}
	}
	return &env, res.StatusCode, nil
}

// refresh exchanges the stored pair for a new one.
func (c *Client) refresh(ctx context.Context) error {
	access, refresh := c.Tokens()
	if refresh == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "no refresh token available")
	}

	var res models.LoginResponse
	req := models.RefreshRequest{AccessToken: access, RefreshToken: refresh}
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/refresh-token", req, &res, false); err != nil {
		return err
	}

	c.SetTokens(res.AccessToken, res.RefreshToken)
	return nil
}
