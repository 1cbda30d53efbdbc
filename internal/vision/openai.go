package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.openai.com/v1/chat/completions"
	defaultModel   = "gpt-4o-mini"

	// instruction is the fixed prompt sent alongside every image.
	instruction = "Describe this image in one detailed sentence suitable for use as an image generation prompt. Respond with the description only."
)

// chatMessage is a single message in the chat conversation. Content is
// either a string or a list of content parts.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type textPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type imagePart struct {
	Type     string   `json:"type"`
	ImageURL imageURL `json:"image_url"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequestBody struct {
	Model               string        `json:"model"`
	Messages            []chatMessage `json:"messages"`
	MaxCompletionTokens int           `json:"max_completion_tokens"`
}

type chatChoice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

type chatResponseBody struct {
	Choices []chatChoice `json:"choices"`
}

// Client calls the OpenAI chat completions API with an image attached as a
// base64 data URL.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		model:      defaultModel,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Describe(ctx context.Context, image []byte, mimeType string) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("vision: API key not set")
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	reqBody := chatRequestBody{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []any{
					textPart{Type: "text", Text: instruction},
					imagePart{Type: "image_url", ImageURL: imageURL{URL: dataURL}},
				},
			},
		},
		MaxCompletionTokens: 500,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(reqBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("vision: non-200 response from model API: %d; response: %s", resp.StatusCode, string(bodyBytes))
	}

	var responseBody chatResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&responseBody); err != nil {
		return "", fmt.Errorf("vision: malformed response: %w", err)
	}

	if len(responseBody.Choices) == 0 {
		return "", errors.New("vision: no completions returned")
	}
	if responseBody.Choices[0].Message.Content == "" {
		return "", errors.New("vision: no content in response message")
	}
	return responseBody.Choices[0].Message.Content, nil
}
