// Package semaphore is the HTTP client of the Semaphore Classification Service.
package semaphore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"semclass/internal/classifier"
	"semclass/internal/config"
	"semclass/internal/domain"
	"semclass/internal/port"
)

const (
	grantTypeAPIKey  = "apikey"
	uploadField      = "UploadFile"
	tokenRefreshSkew = 30 * time.Second
	defaultTimeout   = 120 * time.Second
)

// Client implements port.ServiceClient against the Semaphore HTTP API.
type Client struct {
	apiKey      string
	baseURL     string
	tokenURL    string
	classifyURL string
	language    string
	client      *http.Client
	now         func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time // zero = unknown, token used until rejected
}

// NewClient creates a Client from service config. An API key is required.
func NewClient(cfg *config.ServiceConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, domain.ErrAPIKeyRequired
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		tokenURL:    cfg.TokenURL(),
		classifyURL: cfg.ClassificationURL(),
		language:    cfg.Language,
		client:      &http.Client{Timeout: timeout},
		now:         time.Now,
	}, nil
}

type tokenRequest struct {
	Key       string `json:"key"`
	GrantType string `json:"grantType"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Authenticate fetches a fresh access token and caches it for later calls.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticateLocked(ctx)
}

func (c *Client) authenticateLocked(ctx context.Context) (string, error) {
	body, err := json.Marshal(tokenRequest{Key: c.apiKey, GrantType: grantTypeAPIKey})
	if err != nil {
		return "", fmt.Errorf("marshaling token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling token endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading token response: %w", err)
	}
	if err := checkStatus(resp, respBody, c.tokenURL); err != nil {
		return "", err
	}

	var tr tokenResponse
	if err := json.Unmarshal(respBody, &tr); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", domain.ErrNoAccessToken
	}

	c.token = tr.AccessToken
	c.expiresAt = tokenExpiry(tr, c.now())
	return c.token, nil
}

// tokenExpiry prefers expires_in and falls back to the exp claim when the token is a JWT.
// The token is not verified; the service does that.
func tokenExpiry(tr tokenResponse, now time.Time) time.Time {
	if tr.ExpiresIn > 0 {
		return now.Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tr.AccessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func (c *Client) validToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && (c.expiresAt.IsZero() || c.now().Add(tokenRefreshSkew).Before(c.expiresAt)) {
		return c.token, nil
	}
	return c.authenticateLocked(ctx)
}

// Ready reports whether a usable token is cached or can be obtained.
func (c *Client) Ready(ctx context.Context) error {
	_, err := c.validToken(ctx)
	return err
}

func (c *Client) invalidate(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == token {
		c.token = ""
		c.expiresAt = time.Time{}
	}
}

// ClassifyText submits req.Text as a form field.
func (c *Client) ClassifyText(ctx context.Context, req port.ClassifyRequest) (domain.RawPayload, error) {
	form := c.formFields(req)
	form.Set("body", req.Text)
	encoded := form.Encode()

	return c.submit(ctx, func() (io.Reader, string, error) {
		return strings.NewReader(encoded), "application/x-www-form-urlencoded", nil
	})
}

// ClassifyFile uploads req.Content, or the file at req.Path, as a multipart part.
func (c *Client) ClassifyFile(ctx context.Context, req port.ClassifyRequest) (domain.RawPayload, error) {
	content := req.Content
	if content == nil {
		data, err := os.ReadFile(req.Path)
		if err != nil {
			return domain.RawPayload{}, fmt.Errorf("reading %s: %w", req.Path, err)
		}
		content = data
	}

	name := req.Filename
	if name == "" && req.Path != "" {
		name = filepath.Base(req.Path)
	}
	if name == "" {
		name = "document"
	}

	fields := c.formFields(req)

	return c.submit(ctx, func() (io.Reader, string, error) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)

		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := mw.WriteField(k, fields.Get(k)); err != nil {
				return nil, "", fmt.Errorf("writing form field %s: %w", k, err)
			}
		}

		part, err := mw.CreateFormFile(uploadField, name)
		if err != nil {
			return nil, "", fmt.Errorf("creating upload part: %w", err)
		}
		if _, err := part.Write(content); err != nil {
			return nil, "", fmt.Errorf("writing upload part: %w", err)
		}
		if err := mw.Close(); err != nil {
			return nil, "", fmt.Errorf("closing multipart body: %w", err)
		}
		return &buf, mw.FormDataContentType(), nil
	})
}

func (c *Client) formFields(req port.ClassifyRequest) url.Values {
	form := url.Values{}
	if req.Title != "" {
		form.Set("title", req.Title)
	}
	if req.Threshold > 0 {
		form.Set("threshold", strconv.Itoa(req.Threshold))
	}
	language := req.Language
	if language == "" {
		language = c.language
	}
	if language != "" {
		form.Set("language", language)
	}
	return form
}

type bodyBuilder func() (io.Reader, string, error)

// submit posts a classification request. A 401 invalidates the cached token and the
// request is sent once more with a fresh one.
func (c *Client) submit(ctx context.Context, build bodyBuilder) (domain.RawPayload, error) {
	for attempt := 0; ; attempt++ {
		token, err := c.validToken(ctx)
		if err != nil {
			return domain.RawPayload{}, fmt.Errorf("authenticating: %w", err)
		}

		resp, respBody, err := c.post(ctx, token, build)
		if err != nil {
			return domain.RawPayload{}, err
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			c.invalidate(token)
			continue
		}
		if err := checkStatus(resp, respBody, c.classifyURL); err != nil {
			return domain.RawPayload{}, err
		}
		return interpret(respBody), nil
	}
}

func (c *Client) post(ctx context.Context, token string, build bodyBuilder) (*http.Response, []byte, error) {
	body, contentType, err := build()
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.classifyURL, body)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("calling classification service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp, respBody, nil
}

func checkStatus(resp *http.Response, body []byte, endpoint string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	baseErr := &classifier.HTTPStatusError{StatusCode: resp.StatusCode, Body: string(body), URL: endpoint}
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := classifier.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
		return classifier.NewRateLimitError("semaphore", baseErr, retryAfter)
	}
	return baseErr
}

// interpret treats a JSON object body as structured and anything else as text.
func interpret(body []byte) domain.RawPayload {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed) {
		return domain.NewStructuredPayload(json.RawMessage(trimmed))
	}
	return domain.NewTextPayload(string(body))
}

// Info describes the configured endpoints.
type Info struct {
	BaseURL           string `json:"base_url"`
	TokenURL          string `json:"token_url"`
	ClassificationURL string `json:"classification_url"`
	APIKeyConfigured  bool   `json:"api_key_configured"`
	TokenAvailable    bool   `json:"token_available"`
}

// Info reports the endpoints in use and whether a token is cached.
func (c *Client) Info() Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Info{
		BaseURL:           c.baseURL,
		TokenURL:          c.tokenURL,
		ClassificationURL: c.classifyURL,
		APIKeyConfigured:  c.apiKey != "",
		TokenAvailable:    c.token != "",
	}
}
