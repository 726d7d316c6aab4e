package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corepath/partner/pkg/router"
)

func TestLocalProviderGenerate(t *testing.T) {
	p := LocalProvider{}
	text, err := p.Generate(context.Background(), "what's the weather", router.CallOptions{})
	require.NoError(t, err)
	assert.Contains(t, text, "what's the weather")
}

func TestLocalProviderRejectsEmptyPrompt(t *testing.T) {
	p := LocalProvider{}
	_, err := p.Generate(context.Background(), "   ", router.CallOptions{})
	assert.Error(t, err)
}

func TestLocalProviderIsAlwaysAvailable(t *testing.T) {
	assert.True(t, LocalProvider{}.IsAvailable(context.Background()))
}

type fakeVault struct{ secret []byte }

func (f fakeVault) Get(providerID string) ([]byte, error) { return f.secret, nil }

func TestHTTPProviderGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Prompt)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Response{Text: "world", Model: "remote:test"})
	}))
	defer server.Close()

	p := NewHTTPProvider("remote:test", server.URL, fakeVault{secret: []byte("test-key")})
	text, err := p.Generate(context.Background(), "hello", router.CallOptions{})
	require.NoError(t, err)
	assert.Equal(t, "world", text)
}

func TestHTTPProviderGenerateNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	p := NewHTTPProvider("remote:test", server.URL, fakeVault{})
	_, err := p.Generate(context.Background(), "hello", router.CallOptions{})
	assert.Error(t, err)
}

func TestHTTPProviderIsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p := NewHTTPProvider("remote:test", server.URL, fakeVault{})
	assert.True(t, p.IsAvailable(context.Background()))
}
