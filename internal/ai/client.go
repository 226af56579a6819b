// Package ai wraps the Gemini API for the two optional tiers: embedding the
// query for semantic matching and answering as the last fallback, grounded in
// retrieved inventory rows. Both calls run under a bounded timeout so an
// unreachable service degrades to the rule-based path instead of hanging.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

type Client struct {
	geminiClient *genai.Client
	model        string
	embedModel   string
	timeout      time.Duration
	debug        bool
}

// NewClient builds a Gemini client from an API key. An empty key returns
// (nil, nil): the caller treats a nil client as "service absent" and the
// corresponding tiers silently disable themselves.
func NewClient(ctx context.Context, apiKey, model, embedModel string, timeout time.Duration, debug bool) (*Client, error) {
	if apiKey == "" {
		return nil, nil
	}
	geminiClient, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if embedModel == "" {
		embedModel = "text-embedding-004"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		geminiClient: geminiClient,
		model:        model,
		embedModel:   embedModel,
		timeout:      timeout,
		debug:        debug,
	}, nil
}

// Embed returns one vector per input text.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	resp, err := c.geminiClient.Models.EmbedContent(ctx, c.embedModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(resp.Embeddings), len(texts))
	}
	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vectors[i] = e.Values
	}
	return vectors, nil
}

// Answer produces a response grounded in the retrieved inventory rows. The
// model is told to answer only from the provided context.
func (c *Client) Answer(ctx context.Context, question string, retrieved []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := c.buildPrompt(question, retrieved)
	content := genai.NewContentFromText(prompt, genai.RoleUser)
	resp, err := c.geminiClient.Models.GenerateContent(ctx, c.model, []*genai.Content{content}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no response candidates")
	}

	var result strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			result.WriteString(part.Text)
		}
	}
	answer := strings.TrimSpace(result.String())
	if answer == "" {
		return "", fmt.Errorf("empty response")
	}
	return answer, nil
}

func (c *Client) buildPrompt(question string, retrieved []string) string {
	var b strings.Builder
	b.WriteString("Tu es l'assistant du parc informatique. Reponds en francais, ")
	b.WriteString("uniquement a partir des donnees d'inventaire ci-dessous. ")
	b.WriteString("Si les donnees ne suffisent pas, dis-le et propose de reformuler.\n\n")
	if len(retrieved) > 0 {
		b.WriteString("Donnees d'inventaire:\n")
		for _, r := range retrieved {
			b.WriteString("- ")
			b.WriteString(r)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}
