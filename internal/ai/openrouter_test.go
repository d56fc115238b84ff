package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRouterGenerate_SendsPromptAsUserMessage(t *testing.T) {
	var got openRouterChatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.Equal(t, "ai-chat", r.Header.Get("X-Title"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"pong"}}]}`)
	}))
	defer srv.Close()

	g := NewOpenRouterGenerator(srv.URL, "key", "openrouter/auto", "", "ai-chat")
	text, err := g.Generate(context.Background(), GenerateRequest{Prompt: "ping"})
	require.NoError(t, err)
	assert.Equal(t, "pong", text)
	assert.Equal(t, "openrouter/auto", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, openRouterMsg{Role: "user", Content: "ping"}, got.Messages[0])
}

func TestOpenRouterGenerate_StreamIsCollected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"po\"}}]}\n\n")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ng\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	g := NewOpenRouterGenerator(srv.URL, "key", "m", "", "")
	text, err := g.Generate(context.Background(), GenerateRequest{Prompt: "ping", Stream: true})
	require.NoError(t, err)
	assert.Equal(t, "pong", text)
}

func TestOpenRouterGenerate_Failures(t *testing.T) {
	limited := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer limited.Close()
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer empty.Close()

	_, err := NewOpenRouterGenerator(limited.URL, "key", "m", "", "").Generate(context.Background(), GenerateRequest{Prompt: "p"})
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = NewOpenRouterGenerator(empty.URL, "key", "m", "", "").Generate(context.Background(), GenerateRequest{Prompt: "p"})
	assert.ErrorIs(t, err, ErrMalformedResponse)

	// missing key is a configuration error, not a generation failure
	_, err = NewOpenRouterGenerator(limited.URL, "", "m", "", "").Generate(context.Background(), GenerateRequest{Prompt: "p"})
	assert.Error(t, err)
	assert.False(t, IsGenerationFailure(err))
}

func TestRegistry_UnknownBackend(t *testing.T) {
	reg := DefaultRegistry(Options{})
	g, err := reg.Get(context.Background(), " Ollama ")
	require.NoError(t, err)
	assert.IsType(t, &OllamaGenerator{}, g)

	_, err = reg.Get(context.Background(), "llamafile")
	assert.EqualError(t, err, "unknown ai provider: llamafile")
}
