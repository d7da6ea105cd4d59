// Package upstreamtest provides a mock chat platform API server for tests.
package upstreamtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockServer simulates the upstream message API. Tests register canned
// responses per channel and inspect the requests received.
type MockServer struct {
	server       *httptest.Server
	responses    map[string]MockResponse
	requestCount int
	lastAuth     string
	lastQuery    string
	mu           sync.Mutex
}

// MockResponse defines a mock response configuration.
type MockResponse struct {
	StatusCode int
	Body       interface{}
	Delay      time.Duration
	Headers    map[string]string
}

// NewMockServer creates a new mock server.
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

// Close closes the mock server.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetChannelMessages registers a 200 response with the given messages for a
// channel's message endpoint.
func (ms *MockServer) SetChannelMessages(channelID string, messages interface{}) {
	ms.SetResponse("/channels/"+channelID+"/messages", MockResponse{
		StatusCode: http.StatusOK,
		Body:       messages,
	})
}

// SetResponse sets a mock response for a specific path.
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

// LastAuthorization returns the Authorization header of the last request.
func (ms *MockServer) LastAuthorization() string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.lastAuth
}

// LastQuery returns the raw query string of the last request.
func (ms *MockServer) LastQuery() string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.lastQuery
}

func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	ms.mu.Lock()
	ms.requestCount++
	ms.lastAuth = r.Header.Get("Authorization")
	ms.lastQuery = r.URL.RawQuery
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

// MockMessage builds a message object in the upstream wire shape.
func MockMessage(id, channelID, content, timestamp, username, discriminator string) map[string]interface{} {
	msg := map[string]interface{}{
		"id":         id,
		"channel_id": channelID,
		"content":    content,
	}
	if timestamp != "" {
		msg["timestamp"] = timestamp
	}
	if username != "" {
		msg["author"] = map[string]interface{}{
			"username":      username,
			"discriminator": discriminator,
		}
	}
	return msg
}

// MockAccessDenied creates a 403 error response in the upstream wire shape.
func MockAccessDenied() MockResponse {
	return MockResponse{
		StatusCode: http.StatusForbidden,
		Body: map[string]interface{}{
			"message": "Missing Access",
			"code":    50001,
		},
	}
}

// MockRateLimited creates a 429 rate limit response.
func MockRateLimited(retryAfter string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body: map[string]interface{}{
			"message":     "You are being rate limited.",
			"retry_after": 1.5,
		},
		Headers: map[string]string{"Retry-After": retryAfter},
	}
}
