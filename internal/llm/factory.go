package llm

import "fmt"

// ProviderConfig holds everything needed to construct a Provider.
// Retry and backoff policy belongs to the remote side of this boundary and
// is deliberately absent.
type ProviderConfig struct {
	Provider   string // "openai", "anthropic", "custom", "none"
	APIKey     string
	Model      string
	BaseURL    string // override for self-hosted / OpenAI-compatible endpoints
	EmbedModel string // embedding model (OpenAI-compatible providers only)
}

// ProviderConstructor builds a Provider from config.
type ProviderConstructor func(cfg ProviderConfig) (Provider, error)

// Factory creates Provider instances by name.
type Factory struct {
	constructors map[string]ProviderConstructor
}

// NewFactory creates an empty factory; backends register themselves via
// Register from the composition root.
func NewFactory() *Factory {
	return &Factory{constructors: make(map[string]ProviderConstructor)}
}

// Register adds a provider constructor under the given name.
func (f *Factory) Register(name string, ctor ProviderConstructor) {
	f.constructors[name] = ctor
}

// Create builds a Provider from config. Returns nil (no error) when provider
// is empty or "none", which runs the pipeline on deterministic fallbacks only.
func (f *Factory) Create(cfg ProviderConfig) (Provider, error) {
	if cfg.Provider == "" || cfg.Provider == "none" {
		return nil, nil
	}
	ctor, ok := f.constructors[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider %q (registered: %v)", cfg.Provider, f.names())
	}
	return ctor(cfg)
}

func (f *Factory) names() []string {
	var out []string
	for k := range f.constructors {
		out = append(out, k)
	}
	return out
}

// KnownProviders documents the built-in presets. OpenAI-compatible APIs
// (Groq, vLLM, Ollama, Together, DeepSeek, etc.) use the "openai" provider
// with a custom base_url.
var KnownProviders = map[string]string{
	"anthropic": "https://api.anthropic.com/v1",
	"openai":    "https://api.openai.com/v1",
	"groq":      "https://api.groq.com/openai/v1",
	"ollama":    "http://localhost:11434/v1",
	"deepseek":  "https://api.deepseek.com/v1",
}
