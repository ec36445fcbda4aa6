// Package testutil provides testing utilities for the Seal preview client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/seal-preview/pkg/metadata"
	"github.com/Sternrassler/seal-preview/pkg/pagination"
)

// Paths served by the mock that bypass the session token check.
const (
	NoncePath = "/security/nonce"
	AuthsPath = "/auths"
)

// MockSealResponse defines the behavior for a mock endpoint response.
type MockSealResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockSeal is a configurable mock Seal API server for testing.
type MockSeal struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Token is the session token every non-login request must carry.
	// Empty disables the check.
	Token string

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
	metadataOffsets   map[string][]int
}

// NewMockSeal creates a new mock Seal server requiring token.
func NewMockSeal(token string) *MockSeal {
	mock := &MockSeal{
		Token:           token,
		handlers:        make(map[string]func(w http.ResponseWriter, r *http.Request)),
		metadataOffsets: make(map[string][]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		token := mock.Token
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if token != "" && r.URL.Path != NoncePath && r.URL.Path != AuthsPath &&
			r.Header.Get("X-Session-Token") != token {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "invalid session token"}`))
			return
		}

		if exists {
			handler(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "not found"}`))
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockSeal) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockSeal) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockSeal) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
	m.metadataOffsets = make(map[string][]int)
}

// SetHandler sets a custom handler for a specific path.
func (m *MockSeal) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockSeal) SetResponse(path string, resp MockSealResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// PreviewPath returns the preview path of a contract.
func PreviewPath(id string) string {
	return fmt.Sprintf("/contracts/%s/preview", id)
}

// MetadataPath returns the metadata list path of a contract.
func MetadataPath(id string) string {
	return fmt.Sprintf("/contracts/%s/metadata", id)
}

// SetPreview serves html as the preview of contract id.
func (m *MockSeal) SetPreview(id, html string) {
	m.SetResponse(PreviewPath(id), NewPreviewResponse(html))
}

// SetMetadata serves groups as the paginated metadata of contract id,
// honouring the offset and limit query parameters.
func (m *MockSeal) SetMetadata(id string, groups []metadata.Group) {
	m.SetHandler(MetadataPath(id), func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit <= 0 {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": "invalid limit"}`))
			return
		}

		m.mu.Lock()
		m.metadataOffsets[id] = append(m.metadataOffsets[id], offset)
		m.mu.Unlock()

		items := []metadata.Group{}
		if offset < len(groups) {
			end := offset + limit
			if end > len(groups) {
				end = len(groups)
			}
			items = groups[offset:end]
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(metadata.PageEnvelope{
			Items: items,
			Meta:  pagination.Meta{TotalCount: len(groups)},
		})
	})
}

// MetadataOffsets returns the offsets requested for contract id, in order.
func (m *MockSeal) MetadataOffsets(id string) []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int(nil), m.metadataOffsets[id]...)
}

// EnableLogin serves the nonce and auths endpoints. A POST to /auths with
// the given credentials and the served nonce returns m.Token in the
// X-Session-Token header.
func (m *MockSeal) EnableLogin(user, pass, nonce string) {
	m.SetHandler(NoncePath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(nonce))
	})

	m.SetHandler(AuthsPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var body struct {
			Principal string `json:"principal"`
			Password  string `json:"password"`
			Nonce     string `json:"nonce"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if body.Principal != user || body.Password != pass || body.Nonce != nonce {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "bad credentials"}`))
			return
		}

		m.mu.RLock()
		token := m.Token
		m.mu.RUnlock()

		w.Header().Set("X-Session-Token", token)
		w.WriteHeader(http.StatusCreated)
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockSeal) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// NewPreviewResponse creates a 200 OK markup response.
func NewPreviewResponse(html string) MockSealResponse {
	return MockSealResponse{
		StatusCode: http.StatusOK,
		Body:       html,
		Headers: map[string]string{
			"Content-Type": "text/html; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockSealResponse {
	return MockSealResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewMalformedJSONResponse creates a 200 OK response whose body is not valid JSON.
func NewMalformedJSONResponse() MockSealResponse {
	return MockSealResponse{
		StatusCode: http.StatusOK,
		Body:       `{"items": [`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// SampleGroups returns n single-value groups anchored at offsets 0, 10, 20...
// Every third group is marked for review.
func SampleGroups(n int) []metadata.Group {
	groups := make([]metadata.Group, n)
	for i := range groups {
		name := "Clause"
		if i%3 == 0 {
			name = "Clause" + metadata.ReviewSuffix
		}
		groups[i] = metadata.Group{
			Name: name,
			Values: []metadata.Value{{
				Value:  fmt.Sprintf("clause %d", i),
				Origin: "extraction",
				Attributes: []metadata.KeyValuePair{
					{Name: metadata.OffsetAttribute, Value: i * 10},
				},
			}},
		}
	}
	return groups
}
