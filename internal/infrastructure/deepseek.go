package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const deepSeekURL = "https://api.deepseek.com/v1/chat/completions"

// Any non-200 answer from the provider degrades to this canned reply; the
// customer never sees an AI error.
const fallbackReply = "Thank you for your message. Our team will get back to you shortly."

type DeepSeekClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewDeepSeekClient(apiKey string) *DeepSeekClient {
	return &DeepSeekClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func systemPrompt(businessType, businessName string) string {
	switch businessType {
	case "restaurant":
		return fmt.Sprintf("You are the assistant of %s, a restaurant. Reply courteously and concisely (2-3 sentences) about dishes, prices and opening hours.", businessName)
	case "boutique":
		return fmt.Sprintf("You are the assistant of %s, a shop. Reply professionally and concisely (2-3 sentences) about products, prices and opening hours.", businessName)
	default:
		return fmt.Sprintf("You are the assistant of %s. Reply professionally and concisely (2-3 sentences) about services, rates and appointments.", businessName)
	}
}

// GenerateResponse asks the completion API for a reply. Provider failures
// are logged and replaced by a generic fallback so the conversation never
// stalls on the AI side.
func (c *DeepSeekClient) GenerateResponse(ctx context.Context, message, businessType, businessName string) (string, error) {
	payload := chatRequest{
		Model: "deepseek-chat",
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(businessType, businessName)},
			{Role: "user", Content: message},
		},
		Temperature: 0.7,
		MaxTokens:   150,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fallbackReply, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, deepSeekURL, bytes.NewBuffer(data))
	if err != nil {
		return fallbackReply, nil
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("AI completion request failed, using fallback")
		return fallbackReply, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("AI completion rejected, using fallback")
		return fallbackReply, nil
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || len(parsed.Choices) == 0 {
		return fallbackReply, nil
	}

	return parsed.Choices[0].Message.Content, nil
}
