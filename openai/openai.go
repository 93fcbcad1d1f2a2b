package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Models
const (
	ChatModel          = "gpt-4o-mini"
	TranscriptionModel = "whisper-1"
)

const defaultBaseURL = "https://api.openai.com/v1"

type Client struct {
	c *http.Client
	o Options
}

type Options struct {
	APIKey  string        `toml:"api_key"`
	BaseURL string        `toml:"base_url"`
	Timeout time.Duration `toml:"timeout"`
}

func New(o Options) (c *Client) {
	// Create client
	c = &Client{o: o}

	// Default options
	if c.o.BaseURL == "" {
		c.o.BaseURL = defaultBaseURL
	}
	if c.o.Timeout <= 0 {
		c.o.Timeout = 30 * time.Second
	}

	// Create http client
	c.c = &http.Client{Timeout: c.o.Timeout}
	return
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(req *http.Request) (b []byte, err error) {
	// Set authorization
	req.Header.Set("Authorization", "Bearer "+c.o.APIKey)

	// Send request
	var resp *http.Response
	if resp, err = c.c.Do(req); err != nil {
		err = errors.Wrap(err, "openai: sending request failed")
		return
	}
	defer resp.Body.Close()

	// Read body
	if b, err = io.ReadAll(resp.Body); err != nil {
		err = errors.Wrap(err, "openai: reading body failed")
		return
	}

	// Check status
	if resp.StatusCode >= http.StatusBadRequest {
		var e apiError
		if json.Unmarshal(b, &e) == nil && e.Error.Message != "" {
			err = errors.Errorf("openai: request failed with status %d: %s", resp.StatusCode, e.Error.Message)
			return
		}
		err = errors.Errorf("openai: request failed with status %d", resp.StatusCode)
		return
	}
	return
}

type chatRequest struct {
	MaxTokens int           `json:"max_tokens,omitempty"`
	Messages  []chatMessage `json:"messages"`
	Model     string        `json:"model"`
}

type chatMessage struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends a chat completion request and returns the first choice.
func (c *Client) Complete(ctx context.Context, model, system, user string, maxTokens int) (text string, err error) {
	// Default model
	if model == "" {
		model = ChatModel
	}

	// Create payload
	r := chatRequest{
		MaxTokens: maxTokens,
		Model:     model,
	}
	if system != "" {
		r.Messages = append(r.Messages, chatMessage{Content: system, Role: "system"})
	}
	r.Messages = append(r.Messages, chatMessage{Content: user, Role: "user"})

	// Marshal payload
	var b []byte
	if b, err = json.Marshal(r); err != nil {
		err = errors.Wrap(err, "openai: marshaling payload failed")
		return
	}

	// Create request
	var req *http.Request
	if req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.o.BaseURL+"/chat/completions", bytes.NewReader(b)); err != nil {
		err = errors.Wrap(err, "openai: creating request failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	// Send request
	if b, err = c.do(req); err != nil {
		err = errors.Wrap(err, "openai: doing request failed")
		return
	}

	// Unmarshal response
	var resp chatResponse
	if err = json.Unmarshal(b, &resp); err != nil {
		err = errors.Wrap(err, "openai: unmarshaling response failed")
		return
	}

	// No choice
	if len(resp.Choices) == 0 {
		err = errors.New("openai: no choice in response")
		return
	}
	text = strings.TrimSpace(resp.Choices[0].Message.Content)
	return
}
