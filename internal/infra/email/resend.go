package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fieldnotify/internal/domain/notification"
)

var _ notification.EmailSender = (*ResendSender)(nil)

const defaultResendURL = "https://api.resend.com/emails"

// ResendSender sends emails using the Resend API.
type ResendSender struct {
	apiKey      string
	fromAddress string
	fromName    string
	endpoint    string
	httpClient  *http.Client
}

// Option customises a ResendSender.
type Option func(*ResendSender)

// WithEndpoint points the sender at a different API URL.
func WithEndpoint(url string) Option {
	return func(s *ResendSender) { s.endpoint = url }
}

// NewResendSender creates a new Resend email sender. An empty apiKey yields
// a sender that reports itself unconfigured.
func NewResendSender(apiKey, fromAddress, fromName string, timeout time.Duration, opts ...Option) *ResendSender {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	s := &ResendSender{
		apiKey:      apiKey,
		fromAddress: fromAddress,
		fromName:    fromName,
		endpoint:    defaultResendURL,
		httpClient:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured reports whether an API key and sender address are present.
func (s *ResendSender) Configured() bool {
	return s.apiKey != "" && s.fromAddress != ""
}

// Send delivers an email via the Resend API and returns the message ID.
func (s *ResendSender) Send(ctx context.Context, msg *notification.EmailMessage) (string, error) {
	if !s.Configured() {
		return "", notification.ErrEmailNotConfigured
	}

	from := s.fromAddress
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
	}

	payload := map[string]any{
		"from":    from,
		"to":      []string{msg.To},
		"subject": msg.Subject,
	}
	if msg.HTML != "" {
		payload["html"] = msg.HTML
	}
	if msg.Text != "" {
		payload["text"] = msg.Text
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(respBody, &errResp)
		if errResp.Message == "" {
			return "", fmt.Errorf("resend: status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("resend: status %d: %s", resp.StatusCode, errResp.Message)
	}

	var ok struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &ok); err != nil {
		return "", fmt.Errorf("parsing resend response: %w", err)
	}
	return ok.ID, nil
}
