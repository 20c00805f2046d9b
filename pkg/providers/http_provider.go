package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"
)

// HTTPProvider is the base implementation for HTTP-backed provider adapters.
// It layers connection pooling, retry logic, timeout handling, and upstream
// status mapping on top of BaseProvider's health tracking.
//
// Concrete adapters (generic, serper, brave) embed this struct and implement
// the capability methods on top of DoJSONRequest.
type HTTPProvider struct {
	*BaseProvider

	// client is the HTTP client with connection pooling
	client *http.Client
}

// NewHTTPProvider creates a new base HTTP provider with connection pooling.
func NewHTTPProvider(config ProviderConfig) *HTTPProvider {
	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		DisableCompression:  false,
		ForceAttemptHTTP2:   true,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   config.Timeout,
	}

	return &HTTPProvider{
		BaseProvider: NewBaseProvider(config),
		client:       client,
	}
}

// StartHealthChecker starts the background health checker using the default
// reachability probe.
func (p *HTTPProvider) StartHealthChecker(ctx context.Context) {
	p.BaseProvider.StartHealthChecker(ctx, p.healthCheckImpl)
}

// HealthCheck performs a synchronous health check (part of the Provider
// interface).
func (p *HTTPProvider) HealthCheck(ctx context.Context) error {
	return p.healthCheckImpl(ctx)
}

// healthCheckImpl performs the actual health check: a lightweight GET
// against the base URL. Adapters with stricter endpoints override
// HealthCheck.
func (p *HTTPProvider) healthCheckImpl(ctx context.Context) error {
	headers := make(map[string]string)
	if p.config.APIKey != "" {
		headers["Authorization"] = "Bearer " + p.config.APIKey
	}

	resp, err := p.DoRequest(ctx, http.MethodGet, p.config.BaseURL, nil, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return nil
}

// DoRequest performs an HTTP request with retry logic and timeout handling.
// Transient upstream failures (5xx, network errors) are retried with
// exponential backoff. Client errors, auth failures, and upstream rate
// limits return immediately as typed errors so the failover engine can act
// on them without burning retry budget here.
func (p *HTTPProvider) DoRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			slog.Debug("retrying request",
				"provider", p.config.Name,
				"attempt", attempt,
				"max_retries", p.config.MaxRetries,
				"backoff", backoff,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		for key, value := range headers {
			req.Header.Set(key, value)
		}
		if req.Header.Get("Content-Type") == "" && body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		slog.Debug("sending request to provider",
			"provider", p.config.Name,
			"method", method,
			"url", url,
		)

		resp, err := p.client.Do(req)
		if err != nil {
			lastErr = err
			p.recordRequest(false)

			if ctx.Err() != nil {
				// Context cancelled or deadline hit, don't retry.
				return nil, &TimeoutError{
					Provider: p.config.Name,
					Timeout:  p.config.Timeout,
				}
			}

			slog.Warn("request failed, will retry",
				"provider", p.config.Name,
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			p.recordRequest(true)
			p.updateHealth(true, nil)
			return resp, nil
		}

		errorBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			p.recordRequest(false)
			p.updateHealth(false, fmt.Errorf("authentication failed"))
			return nil, &AuthError{
				Provider: p.config.Name,
				Message:  string(errorBody),
			}

		case http.StatusTooManyRequests:
			// The caller decides whether to wait or fail over.
			p.recordRequest(false)
			retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
			return nil, &RateLimitError{
				Provider:   p.config.Name,
				RetryAfter: retryAfter,
				Message:    string(errorBody),
			}

		case http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusRequestEntityTooLarge,
			http.StatusUnprocessableEntity:
			// Client errors never succeed on retry.
			p.recordRequest(false)
			return nil, &ProviderError{
				Provider:   p.config.Name,
				StatusCode: resp.StatusCode,
				Message:    string(errorBody),
			}

		default:
			// Server error (5xx) or anything else, retry.
			lastErr = &ProviderError{
				Provider:   p.config.Name,
				StatusCode: resp.StatusCode,
				Message:    string(errorBody),
			}
			p.recordRequest(false)

			slog.Warn("request returned error status, will retry",
				"provider", p.config.Name,
				"status", resp.StatusCode,
				"attempt", attempt+1,
			)
		}
	}

	// All retries exhausted.
	p.updateHealth(false, lastErr)
	return nil, lastErr
}

// DoJSONRequest performs a JSON request and decodes the response.
func (p *HTTPProvider) DoJSONRequest(ctx context.Context, method, url string, reqBody interface{}, respBody interface{}, headers map[string]string) error {
	var bodyBytes []byte
	var err error
	if reqBody != nil {
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := p.DoRequest(ctx, method, url, bodyBytes, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	responseBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ParseError{
			Provider: p.config.Name,
			Cause:    fmt.Errorf("failed to read response: %w", err),
		}
	}

	if respBody != nil && len(responseBytes) > 0 {
		if err := json.Unmarshal(responseBytes, respBody); err != nil {
			return &ParseError{
				Provider:    p.config.Name,
				RawResponse: string(responseBytes),
				Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
			}
		}
	}

	return nil
}

// Reachable reports whether the base URL answers HTTP at all. Any status
// code counts: the probe checks connectivity, not authorization. Adapters
// whose base URL has no friendly GET endpoint use this as their health
// check.
func (p *HTTPProvider) Reachable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Close stops the health checker and releases pooled connections.
func (p *HTTPProvider) Close() error {
	err := p.BaseProvider.Close()
	p.client.CloseIdleConnections()
	return err
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}
