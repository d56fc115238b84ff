package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const ollamaBackend = "ollama"

type OllamaGenerator struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

func NewOllamaGenerator(baseURL, model string, timeout time.Duration) *OllamaGenerator {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &OllamaGenerator{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Client:  &http.Client{Timeout: timeout},
	}
}

type ollamaGenerateReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResp struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Generate posts to /api/generate. With Stream set the NDJSON chunks are
// concatenated until the final "done" line.
func (g *OllamaGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = g.Model
	}

	b, err := json.Marshal(ollamaGenerateReq{Model: model, Prompt: req.Prompt, Stream: req.Stream})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/api/generate", g.BaseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", connectionError(ollamaBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", upstreamError(ollamaBackend, resp.StatusCode, readExcerpt(resp.Body))
	}

	if req.Stream {
		return g.collectStream(resp.Body)
	}

	var decoded ollamaGenerateResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", malformedError(ollamaBackend, "decode body", err)
	}
	if decoded.Error != "" {
		return "", upstreamError(ollamaBackend, resp.StatusCode, decoded.Error)
	}
	if decoded.Response == "" {
		return "", malformedError(ollamaBackend, `missing "response" field`, nil)
	}
	return decoded.Response, nil
}

func (g *OllamaGenerator) collectStream(body io.Reader) (string, error) {
	sc := bufio.NewScanner(body)
	// long JSON lines
	buf := make([]byte, 0, 64*1024)
	sc.Buffer(buf, 2*1024*1024)

	var out strings.Builder
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}

		var decoded ollamaGenerateResp
		if err := json.Unmarshal(line, &decoded); err != nil {
			return "", malformedError(ollamaBackend, "decode stream chunk", err)
		}
		if decoded.Error != "" {
			return "", upstreamError(ollamaBackend, http.StatusOK, decoded.Error)
		}
		out.WriteString(decoded.Response)
		if decoded.Done {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return "", connectionError(ollamaBackend, err)
	}

	if out.Len() == 0 {
		return "", malformedError(ollamaBackend, `missing "response" field`, nil)
	}
	return out.String(), nil
}

func readExcerpt(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, 4*1024))
	return strings.TrimSpace(string(body))
}
