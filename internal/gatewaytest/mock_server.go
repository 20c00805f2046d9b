package gatewaytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockServer is a mock HTTP server for testing provider adapters. Paths map
// to canned responses; unknown paths get a 404.
type MockServer struct {
	server *httptest.Server

	mu           sync.Mutex
	responses    map[string]MockResponse
	requestCount int
}

// MockResponse defines one canned response.
type MockResponse struct {
	StatusCode int
	Body       interface{}
	Delay      time.Duration
	Headers    map[string]string
}

// NewMockServer creates and starts a mock server.
func NewMockServer() *MockServer {
	ms := &MockServer{
		responses: make(map[string]MockResponse),
	}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))
	return ms
}

// URL returns the mock server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close shuts the mock server down.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetResponse sets the canned response for a path.
func (ms *MockServer) SetResponse(path string, response MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.responses[path] = response
}

// RequestCount returns the number of requests received.
func (ms *MockServer) RequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.requestCount
}

// ResetRequestCount resets the request counter.
func (ms *MockServer) ResetRequestCount() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.requestCount = 0
}

func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	ms.mu.Lock()
	ms.requestCount++
	response, ok := ms.responses[r.URL.Path]
	ms.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if response.Delay > 0 {
		time.Sleep(response.Delay)
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}

	w.WriteHeader(response.StatusCode)

	if response.Body != nil {
		switch v := response.Body.(type) {
		case string:
			_, _ = w.Write([]byte(v))
		case []byte:
			_, _ = w.Write(v)
		default:
			_ = json.NewEncoder(w).Encode(response.Body)
		}
	}
}

// ChatResponse builds an OpenAI-compatible chat completion body, the wire
// shape the generic adapter speaks.
func ChatResponse(content string, model string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]interface{}{
			"prompt_tokens":     10,
			"completion_tokens": 20,
			"total_tokens":      30,
		},
	}
}

// SerperResponse builds a Serper-shaped search body with the given organic
// result titles.
func SerperResponse(titles ...string) map[string]interface{} {
	organic := make([]map[string]interface{}, len(titles))
	for i, title := range titles {
		organic[i] = map[string]interface{}{
			"title":    title,
			"link":     fmt.Sprintf("https://example.com/%d", i+1),
			"snippet":  fmt.Sprintf("snippet for %s", title),
			"position": i + 1,
		}
	}
	return map[string]interface{}{"organic": organic}
}

// BraveResponse builds a Brave-shaped web search body with the given result
// titles.
func BraveResponse(titles ...string) map[string]interface{} {
	results := make([]map[string]interface{}, len(titles))
	for i, title := range titles {
		results[i] = map[string]interface{}{
			"title":       title,
			"url":         fmt.Sprintf("https://example.com/%d", i+1),
			"description": fmt.Sprintf("description for %s", title),
		}
	}
	return map[string]interface{}{
		"web": map[string]interface{}{"results": results},
	}
}

// ErrorResponse builds a provider-style error body with the given status.
func ErrorResponse(statusCode int, message string) MockResponse {
	body := map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"type":    "invalid_request_error",
			"code":    statusCode,
		},
	}
	return MockResponse{
		StatusCode: statusCode,
		Body:       body,
	}
}

// AuthError builds a 401 response.
func AuthError() MockResponse {
	return ErrorResponse(http.StatusUnauthorized, "Invalid API key")
}

// RateLimitError builds a 429 response with a Retry-After header.
func RateLimitError(retryAfter int) MockResponse {
	response := ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded")
	response.Headers = map[string]string{
		"Retry-After": fmt.Sprintf("%d", retryAfter),
	}
	return response
}

// ServerError builds a 500 response.
func ServerError() MockResponse {
	return ErrorResponse(http.StatusInternalServerError, "Internal server error")
}

// SlowResponse builds a delayed 200 chat response, for timeout tests.
func SlowResponse(delay time.Duration, model string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       ChatResponse("slow response", model),
		Delay:      delay,
	}
}
