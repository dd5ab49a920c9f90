package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ReasoningClient 对外部推理服务的一次调用
type ReasoningClient interface {
	Generate(ctx context.Context, systemInstruction, prompt string) (string, error)
}

// GeminiClient 通过 OpenAI 兼容接口调用 Gemini
type GeminiClient struct {
	client *openai.Client
	model  string
	apiKey string
}

// NewGeminiClient 创建客户端；apiKey 为空时每次调用都返回 ConfigurationError
func NewGeminiClient(apiKey, baseURL, model string) *GeminiClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &GeminiClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		apiKey: apiKey,
	}
}

// Generate 发起一次调用，失败统一转换为 UpstreamError
func (g *GeminiClient) Generate(ctx context.Context, systemInstruction, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", &ConfigurationError{Setting: "GEMINI_API_KEY"}
	}
	req := openai.ChatCompletionRequest{
		Model: g.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", toUpstreamError(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func toUpstreamError(err error) *UpstreamError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &UpstreamError{Status: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}
	return &UpstreamError{Message: err.Error()}
}
