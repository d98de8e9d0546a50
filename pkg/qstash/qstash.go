package qstash

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultURL      = "https://qstash.upstash.io"
	SignatureHeader = "Upstash-Signature"
	issuer          = "Upstash"
)

var (
	ErrMissingSignature = errors.New("qstash: signature header is missing")
	ErrInvalidSignature = errors.New("qstash: signature is invalid")
)

type Config struct {
	URL               string        `split_words:"true" default:"https://qstash.upstash.io"`
	Token             string        `split_words:"true"`
	CurrentSigningKey string        `split_words:"true"`
	NextSigningKey    string        `split_words:"true"`
	Timeout           time.Duration `split_words:"true" default:"10s"`
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Token) != ""
}

type Client struct {
	baseURL           string
	token             string
	currentSigningKey string
	nextSigningKey    string
	httpClient        *http.Client
	now               func() time.Time
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		baseURL = DefaultURL
	}

	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		baseURL:           strings.TrimRight(baseURL, "/"),
		token:             strings.TrimSpace(cfg.Token),
		currentSigningKey: strings.TrimSpace(cfg.CurrentSigningKey),
		nextSigningKey:    strings.TrimSpace(cfg.NextSigningKey),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}

	return client, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

type publishResponse struct {
	MessageID string `json:"messageId"`
	Error     string `json:"error"`
}

// Publish enqueues body for delivery to destination after delay and returns the message id.
func (c *Client) Publish(ctx context.Context, destination string, body []byte, delay time.Duration) (string, error) {
	if c.token == "" {
		return "", errors.New("qstash: token is required to publish")
	}
	if _, err := url.ParseRequestURI(destination); err != nil {
		return "", fmt.Errorf("qstash: destination: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/publish/"+destination, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("qstash: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	if delay > 0 {
		req.Header.Set("Upstash-Delay", strconv.FormatInt(int64(delay.Round(time.Second)/time.Second), 10)+"s")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("qstash: publish: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("qstash: read response: %w", err)
	}

	var out publishResponse
	_ = sonic.ConfigStd.Unmarshal(payload, &out)
	if resp.StatusCode >= http.StatusBadRequest {
		msg := out.Error
		if msg == "" {
			msg = strings.TrimSpace(string(payload))
		}
		return "", fmt.Errorf("qstash: publish status %d: %s", resp.StatusCode, msg)
	}
	return out.MessageID, nil
}

// Verify checks a delivery signature against the current key, then the next one during rotation.
// An empty destination skips the subject check.
func (c *Client) Verify(signature string, body []byte, destination string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ErrMissingSignature
	}

	var lastErr error
	for _, key := range []string{c.currentSigningKey, c.nextSigningKey} {
		if key == "" {
			continue
		}
		if lastErr = c.verifyWithKey(signature, body, destination, key); lastErr == nil {
			return nil
		}
	}
	if lastErr == nil {
		return fmt.Errorf("%w: no signing keys configured", ErrInvalidSignature)
	}
	return lastErr
}

func (c *Client) verifyWithKey(signature string, body []byte, destination, key string) error {
	token, err := jwt.Parse(signature,
		func(*jwt.Token) (any, error) { return []byte(key), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithLeeway(time.Second),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return fmt.Errorf("%w: unexpected claims", ErrInvalidSignature)
	}
	if destination != "" {
		if sub, _ := claims.GetSubject(); sub != destination {
			return fmt.Errorf("%w: subject %q does not match %q", ErrInvalidSignature, sub, destination)
		}
	}

	want, _ := claims["body"].(string)
	sum := sha256.Sum256(body)
	got := base64.URLEncoding.EncodeToString(sum[:])
	if strings.TrimRight(want, "=") != strings.TrimRight(got, "=") {
		return fmt.Errorf("%w: body hash mismatch", ErrInvalidSignature)
	}
	return nil
}
