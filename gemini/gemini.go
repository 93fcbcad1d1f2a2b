package gemini

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"
)

// Models
const (
	FlashLiteModel = "gemini-2.0-flash-lite"
	FlashModel     = "gemini-2.5-flash"
)

type Client struct {
	c *genai.Client
}

type Options struct {
	APIKey string `toml:"api_key"`
}

func New(ctx context.Context, o Options) (c *Client, err error) {
	// Create client
	c = &Client{}
	if c.c, err = genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  o.APIKey,
		Backend: genai.BackendGeminiAPI,
	}); err != nil {
		err = errors.Wrap(err, "gemini: creating genai client failed")
		return
	}
	return
}

// Complete generates content for a prompt and returns the response text.
func (c *Client) Complete(ctx context.Context, model, prompt string) (text string, err error) {
	// Generate content
	var resp *genai.GenerateContentResponse
	if resp, err = c.c.Models.GenerateContent(ctx, model, genai.Text(prompt), nil); err != nil {
		err = errors.Wrap(err, "gemini: generating content failed")
		return
	}
	text = strings.TrimSpace(resp.Text())
	return
}

// Model binds the client to a model name so that consumers only see a
// prompt-in/text-out completion.
type Model struct {
	c    *Client
	name string
}

func (c *Client) Model(name string) *Model {
	return &Model{c: c, name: name}
}

func (m *Model) Complete(ctx context.Context, prompt string) (string, error) {
	return m.c.Complete(ctx, m.name, prompt)
}
