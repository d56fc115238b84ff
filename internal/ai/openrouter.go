package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const openRouterBackend = "openrouter"

type OpenRouterGenerator struct {
	BaseURL string
	APIKey  string
	Model   string
	SiteURL string
	AppName string
	Client  *http.Client
}

type openRouterMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterChatReq struct {
	Model    string          `json:"model"`
	Messages []openRouterMsg `json:"messages"`
	Stream   bool            `json:"stream"`
}

type openRouterChatResp struct {
	Choices []struct {
		Message openRouterMsg `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type openRouterStreamResp struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewOpenRouterGenerator(baseURL, apiKey, model, siteURL, appName string) *OpenRouterGenerator {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	return &OpenRouterGenerator{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		SiteURL: siteURL,
		AppName: appName,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

// Generate sends the prompt as a single user message to /chat/completions.
func (g *OpenRouterGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if strings.TrimSpace(g.APIKey) == "" {
		return "", errors.New("openrouter: api key is required")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = strings.TrimSpace(g.Model)
	}
	if model == "" {
		return "", errors.New("openrouter: model is required")
	}

	b, err := json.Marshal(openRouterChatReq{
		Model:    model,
		Stream:   req.Stream,
		Messages: []openRouterMsg{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(g.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.APIKey)
	if g.SiteURL != "" {
		httpReq.Header.Set("HTTP-Referer", g.SiteURL)
	}
	if g.AppName != "" {
		httpReq.Header.Set("X-Title", g.AppName)
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", connectionError(openRouterBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", upstreamError(openRouterBackend, resp.StatusCode, readExcerpt(resp.Body))
	}

	if req.Stream {
		return collectSSE(resp.Body)
	}

	var decoded openRouterChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", malformedError(openRouterBackend, "decode body", err)
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", upstreamError(openRouterBackend, resp.StatusCode, decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == "" {
		return "", malformedError(openRouterBackend, "empty choices", nil)
	}
	return decoded.Choices[0].Message.Content, nil
}

func collectSSE(body io.Reader) (string, error) {
	sc := bufio.NewScanner(body)
	buf := make([]byte, 0, 64*1024)
	sc.Buffer(buf, 2*1024*1024)

	var out strings.Builder
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}
		var decoded openRouterStreamResp
		if err := json.Unmarshal([]byte(data), &decoded); err != nil {
			return "", malformedError(openRouterBackend, "decode stream chunk", err)
		}
		if decoded.Error != nil && decoded.Error.Message != "" {
			return "", upstreamError(openRouterBackend, http.StatusOK, decoded.Error.Message)
		}
		if len(decoded.Choices) == 0 {
			continue
		}
		out.WriteString(decoded.Choices[0].Delta.Content)
	}
	if err := sc.Err(); err != nil {
		return "", connectionError(openRouterBackend, err)
	}
	if out.Len() == 0 {
		return "", malformedError(openRouterBackend, "empty stream", nil)
	}
	return out.String(), nil
}
