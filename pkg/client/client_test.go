package client

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/seal-preview/internal/testutil"
	"github.com/Sternrassler/seal-preview/pkg/aggregate"
	"github.com/Sternrassler/seal-preview/pkg/async"
	"github.com/Sternrassler/seal-preview/pkg/metadata"
	"github.com/Sternrassler/seal-preview/pkg/pagination"
)

const testToken = "session-token-123"

// setupMock creates a mock Seal server and a client pointed at it.
func setupMock(t *testing.T) (*testutil.MockSeal, *Client) {
	t.Helper()

	mock := testutil.NewMockSeal(testToken)
	t.Cleanup(mock.Close)

	c, err := New(DefaultConfig(mock.URL(), testToken))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	return mock, c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid config",
			config:      DefaultConfig("https://seal.example.com/seal-ws/v5", "tok"),
			expectError: false,
		},
		{
			name:        "empty base url",
			config:      DefaultConfig("", "tok"),
			expectError: true,
			errorMsg:    "base url is required",
		},
		{
			name:        "relative base url",
			config:      DefaultConfig("seal.example.com", "tok"),
			expectError: true,
			errorMsg:    "invalid base url",
		},
		{
			name:        "empty token",
			config:      DefaultConfig("https://seal.example.com", ""),
			expectError: true,
			errorMsg:    "session token is required",
		},
		{
			name: "empty user agent",
			config: Config{
				BaseURL:   "https://seal.example.com",
				Token:     "tok",
				PageLimit: 25,
			},
			expectError: true,
			errorMsg:    "user-agent is required",
		},
		{
			name: "zero page limit",
			config: Config{
				BaseURL:   "https://seal.example.com",
				Token:     "tok",
				UserAgent: "test",
				PageLimit: 0,
			},
			expectError: true,
			errorMsg:    "invalid pagination config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.config)

			if tt.expectError {
				if err == nil {
					t.Fatalf("Expected error containing %q, got nil", tt.errorMsg)
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if c == nil {
				t.Fatal("Expected client, got nil")
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("https://seal.example.com", "tok")

	if cfg.PageLimit != pagination.DefaultLimit {
		t.Errorf("Expected PageLimit %d, got %d", pagination.DefaultLimit, cfg.PageLimit)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Expected Timeout 30s, got %v", cfg.Timeout)
	}
	if cfg.UserAgent == "" {
		t.Error("Expected default UserAgent")
	}
	if cfg.CollisionPolicy != metadata.CollisionOverwrite {
		t.Errorf("Expected overwrite collision policy, got %s", cfg.CollisionPolicy)
	}
}

func TestPreview(t *testing.T) {
	mock, c := setupMock(t)
	mock.SetPreview("c-1", "<p data-offset=\"0\">Hello</p>")

	html, err := c.Preview(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if html != "<p data-offset=\"0\">Hello</p>" {
		t.Errorf("Unexpected markup: %q", html)
	}

	h := mock.LastRequestHeader
	if h.Get("X-Session-Token") != testToken {
		t.Errorf("Expected session token header, got %q", h.Get("X-Session-Token"))
	}
	if h.Get("Accept") != "text/html" {
		t.Errorf("Expected Accept text/html, got %q", h.Get("Accept"))
	}
	if h.Get("X-Request-Id") == "" {
		t.Error("Expected X-Request-Id header")
	}
	if h.Get("User-Agent") != "seal-preview/0.1.0" {
		t.Errorf("Expected User-Agent to be set, got %q", h.Get("User-Agent"))
	}
}

func TestPreview_EscapesContractID(t *testing.T) {
	mock, c := setupMock(t)
	mock.SetHandler("/contracts/a b/preview", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("escaped"))
	})

	html, err := c.Preview(context.Background(), "a b")
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if html != "escaped" {
		t.Errorf("Unexpected markup: %q", html)
	}
}

func TestDo_ErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		response   testutil.MockSealResponse
		wantClass  ErrorClass
		wantStatus int
	}{
		{
			name:       "server error",
			response:   testutil.NewServerErrorResponse(),
			wantClass:  ErrorClassServer,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "not found",
			response:   testutil.MockSealResponse{StatusCode: http.StatusNotFound, Body: "no such contract"},
			wantClass:  ErrorClassClient,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "rate limited is not retried",
			response:   testutil.MockSealResponse{StatusCode: http.StatusTooManyRequests},
			wantClass:  ErrorClassClient,
			wantStatus: http.StatusTooManyRequests,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, c := setupMock(t)
			mock.SetResponse(testutil.PreviewPath("c-1"), tt.response)

			_, err := c.Preview(context.Background(), "c-1")

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected *APIError, got %v", err)
			}
			if apiErr.ErrorClass != tt.wantClass {
				t.Errorf("Expected class %s, got %s", tt.wantClass, apiErr.ErrorClass)
			}
			if apiErr.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, apiErr.StatusCode)
			}
			if apiErr.Message != tt.response.Body {
				t.Errorf("Expected message to carry the response body, got %q", apiErr.Message)
			}
			if mock.GetRequestCount() != 1 {
				t.Errorf("Expected exactly 1 request (no retry), got %d", mock.GetRequestCount())
			}
		})
	}
}

func TestDo_Unauthorized(t *testing.T) {
	mock := testutil.NewMockSeal(testToken)
	defer mock.Close()
	mock.SetPreview("c-1", "<p/>")

	c, err := New(DefaultConfig(mock.URL(), "wrong-token"))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	_, err = c.Preview(context.Background(), "c-1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected 401 APIError, got %v", err)
	}
}

func TestDo_NetworkError(t *testing.T) {
	mock := testutil.NewMockSeal(testToken)
	url := mock.URL()
	mock.Close()

	c, err := New(DefaultConfig(url, testToken))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	_, err = c.Preview(context.Background(), "c-1")
	if ClassOf(err) != ErrorClassNetwork {
		t.Errorf("Expected network error class, got %q (%v)", ClassOf(err), err)
	}
}

func TestMetadataPage(t *testing.T) {
	mock, c := setupMock(t)
	mock.SetMetadata("c-1", testutil.SampleGroups(30))

	env, err := c.MetadataPage(context.Background(), "c-1", 25, 25)
	if err != nil {
		t.Fatalf("MetadataPage failed: %v", err)
	}

	if env.Meta.TotalCount != 30 {
		t.Errorf("Expected totalCount 30, got %d", env.Meta.TotalCount)
	}
	if len(env.Items) != 5 {
		t.Errorf("Expected 5 items on the second page, got %d", len(env.Items))
	}
	if got := mock.LastRequestHeader.Get("Content-Type"); got != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %q", got)
	}
}

func TestMetadataPage_Malformed(t *testing.T) {
	mock, c := setupMock(t)
	mock.SetResponse(testutil.MetadataPath("c-1"), testutil.NewMalformedJSONResponse())

	_, err := c.MetadataPage(context.Background(), "c-1", 0, 25)
	if ClassOf(err) != ErrorClassDecode {
		t.Errorf("Expected decode error class, got %q (%v)", ClassOf(err), err)
	}
}

func TestMetadata_Pagination(t *testing.T) {
	mock, c := setupMock(t)
	mock.SetMetadata("c-1", testutil.SampleGroups(60))

	idx, err := c.Metadata(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}

	if len(idx) != 60 {
		t.Errorf("Expected 60 annotations, got %d", len(idx))
	}

	offsets := mock.MetadataOffsets("c-1")
	want := []int{0, 25, 50}
	if len(offsets) != len(want) {
		t.Fatalf("Expected offsets %v, got %v", want, offsets)
	}
	for i := range want {
		if offsets[i] != want[i] {
			t.Errorf("Expected offsets %v, got %v", want, offsets)
		}
	}

	ann, ok := idx["Clause_0"]
	if !ok {
		t.Fatal("Expected annotation Clause_0")
	}
	if !ann.InReview {
		t.Error("Expected Clause_0 to be in review")
	}
}

func TestMetadataGroups(t *testing.T) {
	mock, c := setupMock(t)
	mock.SetMetadata("c-1", testutil.SampleGroups(12))

	groups, err := c.MetadataGroups(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("MetadataGroups failed: %v", err)
	}
	if len(groups) != 12 {
		t.Errorf("Expected 12 groups, got %d", len(groups))
	}
	if groups[0].Name != "Clause.Review" {
		t.Errorf("Expected raw group names, got %q", groups[0].Name)
	}
}

func TestFetchAll(t *testing.T) {
	mock, c := setupMock(t)
	mock.SetPreview("c-1", "<p>contract</p>")
	mock.SetMetadata("c-1", testutil.SampleGroups(30))

	res, err := c.FetchAll(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	if res.HTML != "<p>contract</p>" {
		t.Errorf("Unexpected html: %q", res.HTML)
	}
	if len(res.Metadata) != 30 {
		t.Errorf("Expected 30 annotations, got %d", len(res.Metadata))
	}
}

func TestFetchAll_MetadataFailure(t *testing.T) {
	mock, c := setupMock(t)
	mock.SetPreview("c-1", "<p>contract</p>")
	mock.SetResponse(testutil.MetadataPath("c-1"), testutil.NewServerErrorResponse())

	res, err := c.FetchAll(context.Background(), "c-1")
	if res != nil {
		t.Error("Expected no result on failure")
	}

	var jerr *async.JoinError
	if !errors.As(err, &jerr) {
		t.Fatalf("Expected *async.JoinError, got %v", err)
	}
	if _, ok := jerr.Failures[aggregate.KeyHTML]; ok {
		t.Error("Successful preview must not appear in the failure map")
	}
	if ClassOf(jerr.Failures[aggregate.KeyMetadata]) != ErrorClassServer {
		t.Errorf("Expected server error under metadata key, got %v", jerr.Failures[aggregate.KeyMetadata])
	}
}
