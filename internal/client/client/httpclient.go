package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/client/models"
	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"golang.org/x/net/publicsuffix"
)

// fallbackErrorMessage is used when a failed response carries no "error" field.
const fallbackErrorMessage = "An error occurred. Please try again."

// HTTPClient implements Client against the REST backend. Session credentials
// travel in a cookie kept by the client's jar.
type HTTPClient struct {
	unauthorizedHook

	baseURL *url.URL
	http    *http.Client
	logger  logging.Logger
}

// Option customizes an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout sets an overall per-request timeout. Zero keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.http.Timeout = d }
}

// WithTransport replaces the underlying round tripper (tests, proxies).
func WithTransport(rt http.RoundTripper) Option {
	return func(c *HTTPClient) { c.http.Transport = rt }
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.logger = l.With("module", "http_client") }
}

// NewHTTPClient builds a client for the backend at baseURL
// (e.g. "http://127.0.0.1:5000").
func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q: scheme and host required", baseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	c := &HTTPClient{
		baseURL: u,
		http:    &http.Client{Jar: jar},
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

type currentUserResponse struct {
	User *models.User `json:"user"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type textRequest struct {
	Text string `json:"text"`
}

type sendMessageResponse struct {
	models.Message
	Reply *models.Message `json:"reply"`
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	var resp messageResponse
	return c.do(ctx, http.MethodGet, "/api/test", nil, &resp)
}

func (c *HTTPClient) Signup(ctx context.Context, username string, password []byte) (string, error) {
	var resp messageResponse
	req := credentialsRequest{Username: username, Password: string(password)}
	if err := c.do(ctx, http.MethodPost, "/api/signup", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *HTTPClient) Login(ctx context.Context, username string, password []byte) (*models.User, error) {
	var resp loginResponse
	req := credentialsRequest{Username: username, Password: string(password)}
	if err := c.do(ctx, http.MethodPost, "/api/login", req, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, &APIError{Status: http.StatusOK, Message: "login response has no user"}
	}
	c.logger.Debug(ctx, "login accepted", "message", resp.Message, "user_id", resp.User.ID)
	return resp.User, nil
}

func (c *HTTPClient) Logout(ctx context.Context, userID int64) (string, error) {
	path := "/api/logout"
	if userID != 0 {
		path += "/" + strconv.FormatInt(userID, 10)
	}
	var resp messageResponse
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *HTTPClient) CurrentUser(ctx context.Context) (*models.User, error) {
	var resp currentUserResponse
	if err := c.do(ctx, http.MethodGet, "/api/current_user", nil, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, ErrUnauthorized
	}
	return resp.User, nil
}

func (c *HTTPClient) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	var resp []models.Conversation
	if err := c.do(ctx, http.MethodGet, "/api/conversations", nil, &resp); err != nil {
		return nil, err
	}
	for i := range resp {
		normalize(&resp[i])
	}
	return resp, nil
}

func (c *HTTPClient) CreateConversation(ctx context.Context, name string) (*models.Conversation, error) {
	var resp models.Conversation
	if err := c.do(ctx, http.MethodPost, "/api/conversations", nameRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	normalize(&resp)
	return &resp, nil
}

func (c *HTTPClient) RenameConversation(ctx context.Context, id int64, name string) (*models.Conversation, error) {
	var resp models.Conversation
	if err := c.do(ctx, http.MethodPut, conversationPath(id), nameRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	normalize(&resp)
	return &resp, nil
}

func (c *HTTPClient) DeleteConversation(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, conversationPath(id), nil, nil)
}

func (c *HTTPClient) SendMessage(ctx context.Context, conversationID int64, text string) ([]models.Message, error) {
	var resp sendMessageResponse
	if err := c.do(ctx, http.MethodPost, conversationPath(conversationID)+"/messages", textRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	out := []models.Message{resp.Message}
	if resp.Reply != nil {
		out = append(out, *resp.Reply)
	}
	return out, nil
}

func conversationPath(id int64) string {
	return "/api/conversations/" + strconv.FormatInt(id, 10)
}

// normalize makes a missing "messages" field an empty thread.
func normalize(c *models.Conversation) {
	if c.Messages == nil {
		c.Messages = []models.Message{}
	}
}

// do performs one JSON round trip. Any 401/403 fires the unauthorized hook
// before the error is returned to the caller.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.logger.Debug(ctx, "backend call", "method", method, "path", path,
		"status", resp.StatusCode, "request_id", resp.Header.Get(common.RequestIDHeaderName))

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := decodeError(resp)
		if errors.Is(apiErr, ErrUnauthorized) {
			c.fire()
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode, Message: fallbackErrorMessage}

	var body errorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err == nil {
		switch {
		case body.Error != "":
			apiErr.Message = body.Error
		case body.Message != "":
			apiErr.Message = body.Message
		}
	}
	return apiErr
}
