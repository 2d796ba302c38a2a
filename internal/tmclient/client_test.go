package tmclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tempmail/bot/internal/domain"
)

func TestClient_GenerateEndpoints(t *testing.T) {
	// Every kind must hit its own generate endpoint
	cases := []struct {
		kind domain.MailboxKind
		path string
		body string
	}{
		{domain.KindRegular, "/api/gen", `{"temp_mail":"a@b.com","access_token":"tok1"}`},
		{domain.KindTenMinute, "/api/10min/gen", `{"temp_mail":"c@d.com","access_token":"tok2","expires_at":"2024-01-01T10:10:00Z"}`},
		{domain.KindEdu, "/api/edu/gen", `{"edu_mail":"s@uni.edu","access_token":"tok3"}`},
	}

	for _, tc := range cases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			var gotPath string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, 5*time.Second, zap.NewNop())
			result, err := client.Generate(context.Background(), tc.kind)

			require.NoError(t, err)
			assert.Equal(t, tc.path, gotPath)
			assert.NotEmpty(t, result.AccessToken)
		})
	}
}

func TestClient_CheckEndpointsAndToken(t *testing.T) {
	cases := []struct {
		kind domain.MailboxKind
		path string
	}{
		{domain.KindRegular, "/api/chk"},
		{domain.KindTenMinute, "/api/10min/chk"},
		{domain.KindEdu, "/api/edu/chk"},
	}

	for _, tc := range cases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			var gotPath, gotToken string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotToken = r.URL.Query().Get("token")
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"mailbox":"a@b.com","messages":[]}`))
			}))
			defer server.Close()

			client := NewClient(server.URL, 5*time.Second, zap.NewNop())
			// A token with reserved characters must survive URL encoding
			result, err := client.Check(context.Background(), tc.kind, "tok+with/special=chars")

			require.NoError(t, err)
			assert.Equal(t, tc.path, gotPath)
			assert.Equal(t, "tok+with/special=chars", gotToken)
			assert.Empty(t, result.Messages)
		})
	}
}

func TestClient_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zap.NewNop())
	_, err := client.Generate(context.Background(), domain.KindRegular)

	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "API request failed with status 502", apiErr.Error())
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from now on

	client := NewClient(server.URL, time.Second, zap.NewNop())
	_, err := client.Check(context.Background(), domain.KindRegular, "tok")

	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Zero(t, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "Connection error:")
}

func TestClient_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zap.NewNop())
	_, err := client.Generate(context.Background(), domain.KindRegular)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Zero(t, apiErr.StatusCode)
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	client := NewClient(server.URL, 10*time.Second, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, domain.KindRegular)
	require.Error(t, err)
}
