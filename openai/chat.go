package openai

import "context"

// Chat binds the client to a model, a system prompt and a token budget so
// that consumers only see a prompt-in/text-out completion.
type Chat struct {
	c         *Client
	maxTokens int
	model     string
	system    string
}

func (c *Client) Chat(model, system string, maxTokens int) *Chat {
	return &Chat{
		c:         c,
		maxTokens: maxTokens,
		model:     model,
		system:    system,
	}
}

func (ch *Chat) Complete(ctx context.Context, prompt string) (string, error) {
	return ch.c.Complete(ctx, ch.model, ch.system, prompt, ch.maxTokens)
}
