package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/models"
	"github.com/dmitrijs2005/todokeeper/internal/netx"
)

const defaultTimeout = 10 * time.Second

// LoginResponse is the body of a successful login. Tokens are empty in
// basic mode.
type LoginResponse struct {
	Message      string             `json:"message"`
	Token        string             `json:"token"`
	RefreshToken string             `json:"refresh_token"`
	User         models.UserSummary `json:"user"`
}

// CreateTodoRequest is the body of POST /todos.
type CreateTodoRequest struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed,omitempty"`
	Category  string `json:"category,omitempty"`
	DueDate   string `json:"dueDate,omitempty"`
}

type registerRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	User models.UserSummary `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// ExportResult locates an export uploaded by the server.
type ExportResult struct {
	Key   string `json:"key"`
	URL   string `json:"url"`
	Count int    `json:"count"`
}

type healthResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type APIClient struct {
	baseURL string
	http    *http.Client

	refreshMu sync.Mutex

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	basicEmail   string
	basicPass    string
	onRefresh    func(access, refresh string)
}

// NewAPIClient returns a client for the server at baseURL. A nil hc uses a
// client with a ten second timeout.
func NewAPIClient(baseURL string, hc *http.Client) *APIClient {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &APIClient{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// SetTokens installs a bearer token pair and drops any Basic credentials.
func (c *APIClient) SetTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken, c.refreshToken = access, refresh
	c.basicEmail, c.basicPass = "", ""
}

// Tokens returns the current bearer token pair.
func (c *APIClient) Tokens() (access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

// SetBasic installs Basic credentials and drops any tokens.
func (c *APIClient) SetBasic(email, password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.basicEmail, c.basicPass = email, password
	c.accessToken, c.refreshToken = "", ""
}

// ClearCredentials forgets every credential.
func (c *APIClient) ClearCredentials() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken, c.refreshToken = "", ""
	c.basicEmail, c.basicPass = "", ""
}

// OnTokensRefreshed registers fn to be called after a transparent refresh.
func (c *APIClient) OnTokensRefreshed(fn func(access, refresh string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRefresh = fn
}

func (c *APIClient) Ping(ctx context.Context) error {
	var resp healthResponse
	if err := c.send(ctx, http.MethodGet, "/health", nil, &resp, false); err != nil {
		return err
	}
	if !resp.OK {
		return ErrUnavailable
	}
	return nil
}

func (c *APIClient) Register(ctx context.Context, name, email, password string) (*models.UserSummary, error) {
	var resp registerResponse
	req := registerRequest{Name: name, Email: email, Password: password}
	if err := c.send(ctx, http.MethodPost, "/auth/register", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Login exchanges credentials. The client keeps whatever the server hands
// back: a token pair in token mode, the credentials themselves otherwise.
func (c *APIClient) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	req := registerRequest{Email: email, Password: password}
	if err := c.send(ctx, http.MethodPost, "/auth/login", req, &resp, false); err != nil {
		return nil, err
	}

	if resp.Token != "" {
		c.SetTokens(resp.Token, resp.RefreshToken)
	} else {
		c.SetBasic(email, password)
	}
	return &resp, nil
}

// Refresh rotates the refresh token and installs the new pair.
func (c *APIClient) Refresh(ctx context.Context) error {
	_, refresh := c.Tokens()
	if refresh == "" {
		return common.ErrInvalidToken
	}

	var resp tokenResponse
	if err := c.send(ctx, http.MethodPost, "/auth/refresh", refreshRequest{RefreshToken: refresh}, &resp, false); err != nil {
		return err
	}

	c.mu.Lock()
	c.accessToken, c.refreshToken = resp.Token, resp.RefreshToken
	fn := c.onRefresh
	c.mu.Unlock()

	if fn != nil {
		fn(resp.Token, resp.RefreshToken)
	}
	return nil
}

// Logout revokes the refresh token, if any, and forgets all credentials.
func (c *APIClient) Logout(ctx context.Context) error {
	_, refresh := c.Tokens()
	c.ClearCredentials()
	if refresh == "" {
		return nil
	}
	return c.send(ctx, http.MethodPost, "/auth/logout", refreshRequest{RefreshToken: refresh}, nil, false)
}

func (c *APIClient) Me(ctx context.Context) (*models.UserSummary, error) {
	var resp models.UserSummary
	if err := c.send(ctx, http.MethodGet, "/auth/me", nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) ListTodos(ctx context.Context) ([]*models.Task, error) {
	var resp []*models.Task
	if err := c.send(ctx, http.MethodGet, "/todos", nil, &resp, true); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *APIClient) CreateTodo(ctx context.Context, req CreateTodoRequest) (*models.Task, error) {
	var resp models.Task
	if err := c.send(ctx, http.MethodPost, "/todos", req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) UpdateTodo(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	var resp models.Task
	if err := c.send(ctx, http.MethodPut, "/todos/"+url.PathEscape(id), patch, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) ToggleTodo(ctx context.Context, id string) (*models.Task, error) {
	var resp models.Task
	if err := c.send(ctx, http.MethodPatch, "/todos/"+url.PathEscape(id)+"/toggle", nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) DeleteTodo(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/todos/"+url.PathEscape(id), nil, nil, true)
}

// ExportTodos asks the server to upload the caller's tasks to object
// storage and returns where they went.
func (c *APIClient) ExportTodos(ctx context.Context) (*ExportResult, error) {
	var resp ExportResult
	if err := c.send(ctx, http.MethodGet, "/todos/export", nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DownloadExport fetches the document behind an export's presigned URL.
func (c *APIClient) DownloadExport(ctx context.Context, r *ExportResult) ([]byte, error) {
	b, err := netx.DownloadPresignedURL(ctx, c.http, r.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return b, nil
}

// send performs one call. An authenticated call answered with "token
// expired" is retried once with a fresh pair. Refresh tokens are single-use,
// so concurrent callers take turns: whoever finds the pair already rotated
// since its request went out just retries with the new one.
func (c *APIClient) send(ctx context.Context, method, path string, in, out any, authed bool) error {
	sent, _ := c.Tokens()
	err := c.do(ctx, method, path, in, out, authed)
	if !authed || !errors.Is(err, common.ErrTokenExpired) {
		return err
	}

	c.refreshMu.Lock()
	access, refresh := c.Tokens()
	if access == sent {
		if refresh == "" {
			c.refreshMu.Unlock()
			return err
		}
		if rerr := c.Refresh(ctx); rerr != nil {
			if access, _ = c.Tokens(); access == sent {
				c.refreshMu.Unlock()
				return err
			}
		}
	}
	c.refreshMu.Unlock()

	return c.do(ctx, method, path, in, out, authed)
}

func (c *APIClient) do(ctx context.Context, method, path string, in, out any, authed bool) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if authed {
		c.authorize(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapStatus(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *APIClient) authorize(req *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.accessToken != "":
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+c.accessToken)
	case c.basicEmail != "":
		req.SetBasicAuth(c.basicEmail, c.basicPass)
	}
}

func mapStatus(resp *http.Response) error {
	var body errorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body)

	e := &APIError{Status: resp.StatusCode, Message: body.Error}

	switch {
	case resp.StatusCode == http.StatusBadRequest && body.Error == "Invalid credentials":
		e.err = common.ErrorInvalidCredentials
	case resp.StatusCode == http.StatusBadRequest:
		e.err = common.ErrorValidation
	case resp.StatusCode == http.StatusUnauthorized && body.Error == "Token expired":
		e.err = common.ErrTokenExpired
	case resp.StatusCode == http.StatusUnauthorized:
		e.err = common.ErrorUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		e.err = common.ErrorForbidden
	case resp.StatusCode == http.StatusNotFound:
		e.err = common.ErrorNotFound
	case resp.StatusCode == http.StatusConflict:
		e.err = common.ErrorDuplicateUser
	case resp.StatusCode >= http.StatusInternalServerError:
		e.err = ErrUnavailable
	default:
		e.err = common.ErrorInternal
	}
	return e
}
