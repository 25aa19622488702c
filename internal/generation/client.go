// Package generation is the narrow boundary to the external chat/completion
// pipeline. The gateway hands it a verified user's narrowed document-id set
// and a model identifier; everything downstream (retrieval, prompting, model
// invocation) belongs to the pipeline.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/securegpt/rag-gateway/config"
	"go.uber.org/zap"
)

// Message is a single chat turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a completion request with an already-narrowed context filter
type Request struct {
	Messages   []Message `json:"messages"`
	Model      string    `json:"model,omitempty"`
	UseContext bool      `json:"use_context"`

	// ContextDocIDs is the narrowed set of document ids retrieval may touch.
	// Empty with UseContext=true means the caller can see no matching
	// documents; the pipeline must not fall back to an unfiltered search.
	ContextDocIDs []string `json:"context_doc_ids"`
}

// Response is the pipeline's completion answer
type Response struct {
	Content string   `json:"content"`
	Model   string   `json:"model"`
	Sources []string `json:"sources,omitempty"`
}

// Generator produces completions. Implementations must treat the request's
// context filter as authoritative.
type Generator interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// Client is an HTTP Generator talking to the generation pipeline service
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new generation pipeline client
func NewClient(cfg config.GenerationConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Complete posts the completion request to the pipeline
func (c *Client) Complete(ctx context.Context, req *Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read generation response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		c.logger.Warn("generation pipeline error",
			zap.Int("status", httpResp.StatusCode))
		return nil, fmt.Errorf("generation pipeline returned status %d", httpResp.StatusCode)
	}

	var resp Response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("parse generation response: %w", err)
	}

	return &resp, nil
}
