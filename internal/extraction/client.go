// Package extraction turns unstructured receipt input (free text or a
// photographed receipt) into a typed invoice draft by way of an external
// language-and-vision model.
package extraction

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	apperrors "saku/internal/errors"
)

// Input is the raw material for one extraction. At least one of RawText
// or ImageData must be set.
type Input struct {
	RawText   string
	ImageData []byte
	ImageMIME string
}

// Empty reports whether the input carries neither text nor an image.
func (in Input) Empty() bool {
	return in.RawText == "" && len(in.ImageData) == 0
}

// ErrNoInput is the failure for a submission with neither text nor an image.
func ErrNoInput() error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, "Please provide either text or an image")
}

// Client wraps the chat-completions endpoint of an OpenAI-compatible
// inference service.
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// New creates a Client against the given endpoint. timeout bounds each
// Extract call; the caller's context may impose a tighter deadline.
func New(apiKey, baseURL, model string, timeout time.Duration) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &Client{
		client:  openai.NewClientWithConfig(config),
		model:   model,
		timeout: timeout,
	}
}

const systemPromptTemplate = `Current date is %s. You are an intelligent invoice parser.
Extract a comprehensive summary, date, total amount, and line items from the invoice.
Instead of just a merchant name, create a "summary" that describes the transaction in Indonesian, e.g., "Makan Siang di McDonald's" or "Belanja Bulanan di Indomaret".
The output must be a valid JSON object with the following exact structure:
{
  "summary": "string",
  "date": "YYYY-MM-DD",
  "totalAmount": number,
  "items": [
    {
      "name": "string",
      "quantity": number,
      "unitPrice": number,
      "totalPrice": number,
      "category": "string" (One of: Sembako, Makan & Minum, Transportasi, Utilitas, Hiburan, Kesehatan, Lain-lain)
    }
  ]
}
Auto-categorize each item into one of the categories.
Convert all currency to plain numeric values: if the source uses "." as a thousands separator and "," as a decimal separator, normalize it (e.g., 15000 for Rp15.000).
If the quantity is implicit (e.g., "Nasi Goreng"), assume 1.`

func systemPrompt(now time.Time) string {
	return fmt.Sprintf(systemPromptTemplate, now.Format(time.RFC3339))
}

// Extract performs one call to the inference endpoint and returns the raw
// JSON text the model produced. There is no retry; transport failures and
// non-success responses surface as EXTRACTION_FAILED, a deadline as
// EXTRACTION_TIMEOUT, and an empty answer as EXTRACTION_EMPTY_RESPONSE.
func (c *Client) Extract(ctx context.Context, in Input) (string, error) {
	if in.Empty() {
		return "", ErrNoInput()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt(time.Now()),
		},
	}

	if in.RawText != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: in.RawText,
		})
	} else {
		dataURL := fmt.Sprintf("data:%s;base64,%s", in.ImageMIME, base64.StdEncoding.EncodeToString(in.ImageData))
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: "Parse this invoice."},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
			},
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", apperrors.Wrap(apperrors.ErrExtractionTimeout, err)
		}
		return "", apperrors.Wrap(apperrors.ErrExtractionService, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", apperrors.ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}
