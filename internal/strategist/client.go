package strategist

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// chatMessage 会话消息
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest chat completions 请求体（OpenAI 兼容接口）
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// chatResponse chat completions 响应体
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// LLMClient 语言模型客户端（OpenAI 兼容的 chat completions 接口）
// 单次请求，不重试：失败由编排层转入本地报告，
// 重试退避属于外部服务方的职责。
type LLMClient struct {
	httpClient *resty.Client
	model      string
	logger     *zap.Logger
}

// NewLLMClient 创建语言模型客户端
func NewLLMClient(baseURL, apiKey, model string, timeout time.Duration, logger *zap.Logger) *LLMClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &LLMClient{
		httpClient: client,
		model:      model,
		logger:     logger,
	}
}

// Generate 发起一次报告生成请求
// 任何失败（网络、超时、鉴权、响应畸形）统一以 error 返回，
// 调用方据此走本地回退路径。
func (c *LLMClient) Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error) {
	request := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream:      false,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	c.logger.Info("Calling LLM API",
		zap.String("model", c.model),
		zap.Float64("temperature", temperature),
		zap.Int("max_tokens", maxTokens),
	)

	var response chatResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&response).
		Post("/chat/completions")

	if err != nil {
		c.logger.Error("LLM API call failed",
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to call LLM API: %w", err)
	}

	if resp.IsError() {
		c.logger.Error("LLM API returned error status",
			zap.Int("status_code", resp.StatusCode()),
		)
		return "", fmt.Errorf("LLM API error: status %d", resp.StatusCode())
	}

	if response.Error != nil {
		return "", fmt.Errorf("LLM API error: %s (%s)", response.Error.Message, response.Error.Type)
	}

	if len(response.Choices) == 0 || response.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("LLM API returned empty response")
	}

	c.logger.Info("LLM API call succeeded")
	return response.Choices[0].Message.Content, nil
}
