// Package llm implements the provider-agnostic wire shape and the two
// concrete Provider adapters (local in-process, HTTP remote) the Model
// Router dispatches through. Concrete per-provider transports are out of
// core scope (spec.md §1); this package supplies the minimum adapters
// needed to exercise the Router end to end — a guaranteed-present local
// backend plus one generic HTTP adapter any REST-based remote API can be
// configured against. Grounded on tarsy's pkg/llm/client.go for the
// client-wraps-connection-config shape, translated from its gRPC/Gemini
// specifics to the plain net/http transport spec.md §6 calls for.
package llm

// Request is the provider-agnostic wire shape of one generation call
// (spec.md §6 "LLM request/response").
type Request struct {
	Prompt             string   `json:"prompt"`
	SystemPrompt       string   `json:"system_prompt,omitempty"`
	MaxTokens          int      `json:"max_tokens,omitempty"`
	Temperature        float64  `json:"temperature,omitempty"`
	TopP               float64  `json:"top_p,omitempty"`
	Stop               []string `json:"stop,omitempty"`
	ConversationHistory []string `json:"conversation_history,omitempty"`
}

// Response is the provider-agnostic wire shape of a completed call.
type Response struct {
	Text         string  `json:"text"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Cost         float64 `json:"cost"`
	Model        string  `json:"model"`
	Provider     string  `json:"provider"`
	LatencyMS    float64 `json:"latency_ms"`
	FinishReason string  `json:"finish_reason"`
}
