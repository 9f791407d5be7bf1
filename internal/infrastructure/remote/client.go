// Package remote implements the bills store against the billed HTTP API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/domain/entity"
)

// envelope mirrors the API response shape
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the client logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client talks to the bills API with the caller's session
type Client struct {
	baseURL    string
	sessionID  string
	httpClient *http.Client
	logger     *zap.Logger
}

var (
	_ port.RemoteStore = (*Client)(nil)
	_ port.BillsStore  = (*Client)(nil)
)

// NewClient creates a client for the API at baseURL acting on behalf of sessionID
func NewClient(baseURL, sessionID string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		sessionID:  sessionID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bills returns the bills store of the API
func (c *Client) Bills() port.BillsStore {
	return c
}

// List fetches the bills visible to the session
func (c *Client) List(ctx context.Context) ([]entity.Bill, error) {
	var bills []entity.Bill
	if err := c.doJSON(ctx, http.MethodGet, "/api/bills", nil, &bills); err != nil {
		return nil, err
	}
	return bills, nil
}

// CreateAttachment uploads file as multipart form data
func (c *Client) CreateAttachment(ctx context.Context, file port.File, ownerEmail string) (*entity.AttachmentReceipt, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("email", ownerEmail); err != nil {
		return nil, fmt.Errorf("write email field: %w", err)
	}
	part, err := mw.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("write file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/bills/attachments", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var receipt entity.AttachmentReceipt
	if err := c.do(req, &receipt); err != nil {
		return nil, err
	}

	c.logger.Debug("Attachment uploaded",
		zap.String("key", receipt.Key),
		zap.String("file_name", file.Name),
	)
	return &receipt, nil
}

// Create posts a new bill
func (c *Client) Create(ctx context.Context, bill *entity.Bill) (*entity.Bill, error) {
	var created entity.Bill
	if err := c.doJSON(ctx, http.MethodPost, "/api/bills", bill, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update patches the bill identified by key
func (c *Client) Update(ctx context.Context, key string, bill *entity.Bill) (*entity.Bill, error) {
	var updated entity.Bill
	path := "/api/bills/" + url.PathEscape(key)
	if err := c.doJSON(ctx, http.MethodPatch, path, bill, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.sessionID != "" {
		req.AddCookie(&http.Cookie{Name: port.SessionCookie, Value: c.sessionID})
	}
	return req, nil
}

// do sends req and decodes the data of a successful response into out.
// Non-2xx answers become a *port.TransportError carrying the status.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Error(err),
		)
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := env.Error
		if decodeErr != nil || message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		c.logger.Warn("API answered with an error",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("error", message),
		)
		return port.NewTransportError(resp.StatusCode, message)
	}

	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
