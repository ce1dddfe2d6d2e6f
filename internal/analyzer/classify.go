package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Classification is the model's read of a transcript: the nearest address or
// location it could extract, and the incident category.
type Classification struct {
	Address  string
	Incident string
}

// Classifier extracts a Classification from a call transcript.
type Classifier interface {
	Classify(ctx context.Context, transcript string) (*Classification, error)
}

const classifyMaxTokens = 1024

const classifySystemPrompt = `You are a 911 operator assistant.
All operators are busy, so you must quickly analyze the caller's transcript.
1. Extract the address or nearest location (pick the single best candidate if ambiguous).
2. Identify the type of incident.
3. Output only in this format (plain text, no extra styling):

Address:
Incident: Crime | Medical | Fire | Non-emergency`

// ClaudeClassifier implements Classifier on the Claude API.
type ClaudeClassifier struct {
	client anthropic.Client
	model  string
}

// NewClaudeClassifier creates a classifier with the given API key and model.
func NewClaudeClassifier(apiKey, model string) *ClaudeClassifier {
	return &ClaudeClassifier{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Classify sends the transcript to the model and parses the Address/Incident
// lines out of the reply.
func (c *ClaudeClassifier) Classify(ctx context.Context, transcript string) (*Classification, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: classifyMaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: classifySystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("Input: " + transcript)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude call: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return parseClassification(sb.String())
}

// parseClassification extracts the Address and Incident lines from the
// model's reply. The address is mandatory; everything downstream keys off it.
func parseClassification(text string) (*Classification, error) {
	var out Classification
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if v, ok := cutPrefixFold(line, "Address:"); ok {
			out.Address = strings.TrimSpace(v)
			continue
		}
		if v, ok := cutPrefixFold(line, "Incident:"); ok {
			out.Incident = strings.TrimSpace(v)
		}
	}
	if out.Address == "" {
		return nil, fmt.Errorf("classification missing address: %q", text)
	}
	return &out, nil
}

// cutPrefixFold is strings.CutPrefix with ASCII case-insensitive matching.
func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return s[len(prefix):], true
}
