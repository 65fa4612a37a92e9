// Package llm invokes the Anthropic messages API for chord chart
// extraction. Two capabilities are exposed: a heavyweight vision-capable
// model for reading chord diagram images and PDFs, and a lightweight
// text-only model for chord-name and tablature text.
package llm

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"
)

// Capability names the two model tiers.
const (
	CapabilityHeavyweight = "heavyweight"
	CapabilityLightweight = "lightweight"
)

// Attachment is a binary artifact sent alongside a prompt. MediaType is
// the MIME type ("image/png", "application/pdf").
type Attachment struct {
	MediaType string
	Data      []byte
}

// Client is a rate-limited client for the Anthropic messages API.
type Client struct {
	api              anthropic.Client
	heavyweightModel string
	lightweightModel string
	limiter          *rate.Limiter
}

// NewClient creates a new Client. requestsPerMinute throttles all
// outgoing calls across both capabilities.
func NewClient(apiKey, heavyweightModel, lightweightModel string, requestsPerMinute int) *Client {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 20
	}
	return &Client{
		api:              anthropic.NewClient(option.WithAPIKey(apiKey)),
		heavyweightModel: heavyweightModel,
		lightweightModel: lightweightModel,
		limiter:          rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1),
	}
}

func (c *Client) model(capability string) (string, error) {
	switch capability {
	case CapabilityHeavyweight:
		return c.heavyweightModel, nil
	case CapabilityLightweight:
		return c.lightweightModel, nil
	default:
		return "", fmt.Errorf("unknown model capability %q", capability)
	}
}

// Invoke sends instructions, a prompt and optional attachments to the
// model tier named by capability and returns the raw text response.
// Attachments require the heavyweight capability; the lightweight model
// is text-only.
func (c *Client) Invoke(ctx context.Context, capability, instructions, prompt string, attachments []Attachment) (string, error) {
	model, err := c.model(capability)
	if err != nil {
		return "", err
	}
	if len(attachments) > 0 && capability != CapabilityHeavyweight {
		return "", fmt.Errorf("capability %q cannot process attachments", capability)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait aborted: %w", err)
	}

	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(attachments)+1)
	for _, a := range attachments {
		encoded := base64.StdEncoding.EncodeToString(a.Data)
		if a.MediaType == "application/pdf" {
			blocks = append(blocks, anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{
				Data: encoded,
			}))
		} else {
			blocks = append(blocks, anthropic.NewImageBlockBase64(a.MediaType, encoded))
		}
	}
	blocks = append(blocks, anthropic.NewTextBlock(prompt))

	message, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: instructions},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in model response")
}
