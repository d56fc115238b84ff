package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/suPer8Hu/ai-chat/internal/config"
)

type GeneratorFactory func(ctx context.Context) (Generator, error)

// Registry maps backend names ("ollama", "openrouter", "gemini") to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]GeneratorFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]GeneratorFactory)}
}

func (r *Registry) Register(name string, f GeneratorFactory) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

func (r *Registry) Get(ctx context.Context, name string) (Generator, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown ai provider: %s", name)
	}
	return f(ctx)
}

// Options carries the backend settings DefaultRegistry needs.
type Options struct {
	OllamaBaseURL string
	OllamaModel   string
	OllamaTimeout time.Duration

	OpenRouterBaseURL string
	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterSiteURL string
	OpenRouterAppName string

	GeminiAPIKey string
	GeminiModel  string
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		OllamaBaseURL:     cfg.OllamaBaseURL,
		OllamaModel:       cfg.OllamaModel,
		OllamaTimeout:     cfg.OllamaTimeout,
		OpenRouterBaseURL: cfg.OpenRouterBaseURL,
		OpenRouterAPIKey:  cfg.OpenRouterAPIKey,
		OpenRouterModel:   cfg.OpenRouterModel,
		OpenRouterSiteURL: cfg.OpenRouterSiteURL,
		OpenRouterAppName: cfg.OpenRouterAppName,
		GeminiAPIKey:      cfg.GeminiAPIKey,
		GeminiModel:       cfg.GeminiModel,
	}
}

// DefaultRegistry registers the ollama, openrouter and gemini backends.
func DefaultRegistry(opts Options) *Registry {
	reg := NewRegistry()
	reg.Register("ollama", func(_ context.Context) (Generator, error) {
		return NewOllamaGenerator(opts.OllamaBaseURL, opts.OllamaModel, opts.OllamaTimeout), nil
	})
	reg.Register("openrouter", func(_ context.Context) (Generator, error) {
		return NewOpenRouterGenerator(opts.OpenRouterBaseURL, opts.OpenRouterAPIKey,
			opts.OpenRouterModel, opts.OpenRouterSiteURL, opts.OpenRouterAppName), nil
	})
	reg.Register("gemini", func(ctx context.Context) (Generator, error) {
		return NewGeminiGenerator(ctx, opts.GeminiAPIKey, opts.GeminiModel)
	})
	return reg
}
