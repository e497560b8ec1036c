package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/naveenspark/careerbox/internal/logger"
	"github.com/naveenspark/careerbox/pkg/domain"
)

// DefaultTimeout bounds every request when New is given a zero timeout.
const DefaultTimeout = 10 * time.Second

// maxLoggedBody caps response bodies written at debug level.
const maxLoggedBody = 2048

// VerifyResponse is returned by a successful OTP confirmation.
type VerifyResponse struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user"`
}

// LoginResponse is returned by a successful phone + MPIN sign-in.
type LoginResponse struct {
	Token               string `json:"token"`
	HasCompletedProfile bool   `json:"hasCompletedProfile"`
}

// Client is the careerbox auth API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Register starts sign-up for phone; the server dispatches an OTP.
func (c *Client) Register(ctx context.Context, phone string) error {
	body := map[string]string{"phoneNumber": phone}
	if err := c.post(ctx, "/auth/register", nil, body, nil); err != nil {
		return fmt.Errorf("client.Register: %w", err)
	}
	return nil
}

// Verify confirms the OTP sent to phone and returns the session token.
func (c *Client) Verify(ctx context.Context, phone, otp string) (*VerifyResponse, error) {
	var out VerifyResponse
	body := map[string]string{"phoneNumber": phone, "otp": otp}
	if err := c.post(ctx, "/auth/confirm-otp", nil, body, &out); err != nil {
		return nil, fmt.Errorf("client.Verify: %w", err)
	}
	return &out, nil
}

// LogIn signs a returning user in with phone and MPIN.
func (c *Client) LogIn(ctx context.Context, phone, pin string) (*LoginResponse, error) {
	var out LoginResponse
	body := map[string]string{"phoneNumber": phone, "mpin": pin}
	if err := c.post(ctx, "/auth/sign-in", nil, body, &out); err != nil {
		return nil, fmt.Errorf("client.LogIn: %w", err)
	}
	return &out, nil
}

// CreateMpin sets the MPIN for the account owning token.
func (c *Client) CreateMpin(ctx context.Context, token, pin string) error {
	if err := c.post(ctx, "/api/user/create-pin", authHeader(token), map[string]string{"pin": pin}, nil); err != nil {
		return fmt.Errorf("client.CreateMpin: %w", err)
	}
	return nil
}

// UpdateProfile submits personal details. userData is the user record from
// OTP verification and travels in the "user" header.
func (c *Client) UpdateProfile(ctx context.Context, token string, userData json.RawMessage, p domain.ProfileDetails) error {
	h := authHeader(token)
	if len(userData) > 0 {
		var compact bytes.Buffer
		if err := json.Compact(&compact, userData); err != nil {
			return fmt.Errorf("client.UpdateProfile: compact user header: %w", err)
		}
		h.Set("user", compact.String())
	}
	if err := c.post(ctx, "/api/user/profileDetails", h, p, nil); err != nil {
		return fmt.Errorf("client.UpdateProfile: %w", err)
	}
	return nil
}

// UpdateEducation submits education details.
func (c *Client) UpdateEducation(ctx context.Context, token string, e domain.EducationDetails) error {
	if err := c.post(ctx, "/api/user/educationDetails", authHeader(token), e, nil); err != nil {
		return fmt.Errorf("client.UpdateEducation: %w", err)
	}
	return nil
}

// authHeader carries the raw token; the service does not expect a scheme prefix.
func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", token)
	}
	return h
}

func (c *Client) post(ctx context.Context, path string, header http.Header, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, header, body, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, header http.Header, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set("X-Request-Id", reqID)

	// Request bodies carry PINs and OTPs, so only the line is logged.
	logger.Infof("API Request: %s %s id=%s", method, path, reqID)
	start := time.Now()
	defer logger.LogDuration("client."+strings.TrimPrefix(path, "/"), start)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Errorf("API Response Error: %s %s id=%s: %v", method, path, reqID, err)
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max body
	if err != nil {
		logger.Errorf("API Response Error: %s %s id=%s: read body: %v", method, path, reqID, err)
		return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", err)}
	}
	elapsed := time.Since(start).Milliseconds()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := newHTTPError(resp.StatusCode, respBody)
		logger.Errorf("API Response Error: %d %s id=%s duration_ms=%d: %s", resp.StatusCode, path, reqID, elapsed, httpErr.Message)
		return httpErr
	}

	logger.Infof("API Response: %d %s id=%s duration_ms=%d bytes=%d", resp.StatusCode, path, reqID, elapsed, len(respBody))
	if logger.DebugEnabled() {
		logger.Debugf("API Response body id=%s: %s", reqID, truncate(respBody, maxLoggedBody))
	}

	if out != nil {
		if err := decodeEnvelope(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// decodeEnvelope decodes {"data": {...}} into out, falling back to the bare
// body when the service omits the envelope.
func decodeEnvelope(body []byte, out any) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return err
	}
	if len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		return json.Unmarshal(env.Data, out)
	}
	return json.Unmarshal(body, out)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
