package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/corepath/partner/pkg/router"
)

// CredentialSource looks up a decrypted provider secret, implemented by
// vault.Vault; declared here instead of imported so this package doesn't
// need a hard dependency on the vault's encryption internals.
type CredentialSource interface {
	Get(providerID string) ([]byte, error)
}

// HTTPProvider is a generic REST adapter: it POSTs the provider-agnostic
// Request shape (spec.md §6) to BaseURL and decodes the provider-agnostic
// Response shape back, bearer-authenticated with a secret looked up from
// the Credential Vault by provider id. Any remote backend whose wire
// format matches this JSON envelope can be registered against it;
// provider-specific wire formats are explicitly out of core scope.
type HTTPProvider struct {
	ProviderID string
	BaseURL    string
	Vault      CredentialSource
	HTTPClient *http.Client
}

// NewHTTPProvider builds an HTTPProvider with a bounded default client
// timeout; callers needing per-call timeouts should wrap ctx instead.
func NewHTTPProvider(providerID, baseURL string, vault CredentialSource) *HTTPProvider {
	return &HTTPProvider{
		ProviderID: providerID,
		BaseURL:    baseURL,
		Vault:      vault,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Generate POSTs the prompt to BaseURL and returns the decoded response
// text.
func (p *HTTPProvider) Generate(ctx context.Context, prompt string, opts router.CallOptions) (string, error) {
	body, err := json.Marshal(Request{
		Prompt:      prompt,
		MaxTokens:   opts.MaxOutputTokens,
		Temperature: opts.Temperature,
		Stop:        opts.Stop,
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshal request for %s: %w", p.ProviderID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: build request for %s: %w", p.ProviderID, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if secret, err := p.Vault.Get(p.ProviderID); err == nil {
		req.Header.Set("Authorization", "Bearer "+string(secret))
	}

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: call %s: %w", p.ProviderID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm: read response from %s: %w", p.ProviderID, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm: %s returned status %d: %s", p.ProviderID, resp.StatusCode, string(data))
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("llm: decode response from %s: %w", p.ProviderID, err)
	}
	return out.Text, nil
}

// GenerateStream calls Generate and delivers the whole response as a
// single chunk; this generic adapter does no token-by-token streaming.
func (p *HTTPProvider) GenerateStream(ctx context.Context, prompt string, opts router.CallOptions, onChunk func(string)) error {
	text, err := p.Generate(ctx, prompt, opts)
	if err != nil {
		return err
	}
	onChunk(text)
	return nil
}

// IsAvailable probes the remote backend with a lightweight HEAD request.
func (p *HTTPProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.BaseURL, nil)
	if err != nil {
		return false
	}
	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}
