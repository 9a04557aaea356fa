package rewrite

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/vocmoney/pipeline/internal/application/service"
	"github.com/vocmoney/pipeline/internal/config"
	"github.com/vocmoney/pipeline/internal/domain/article"
	"github.com/vocmoney/pipeline/pkg/logger"
)

type openaiRewriter struct {
	clients []*openai.Client
	model   string
	prompt  string
	next    int
	log     logger.Logger
}

// NewOpenAIRewriter builds one client per configured API key. Keys rotate
// round-robin so a rate-limited key does not stall the whole pipeline.
func NewOpenAIRewriter(cfg config.Config, log logger.Logger) (service.Rewriter, error) {
	if len(cfg.AI.Keys) == 0 {
		return nil, fmt.Errorf("no AI API keys configured")
	}

	clients := make([]*openai.Client, 0, len(cfg.AI.Keys))
	for _, key := range cfg.AI.Keys {
		clientCfg := openai.DefaultConfig(key)
		if cfg.AI.BaseURL != "" {
			clientCfg.BaseURL = cfg.AI.BaseURL
		}
		clients = append(clients, openai.NewClientWithConfig(clientCfg))
	}

	prompt, err := os.ReadFile(cfg.AI.PromptFile)
	if err != nil {
		return nil, fmt.Errorf("cannot read prompt file %s: %w", cfg.AI.PromptFile, err)
	}

	log.Info("rewrite adapter initialized", zap.Int("keys", len(clients)), zap.String("model", cfg.AI.Model))
	return &openaiRewriter{clients: clients, model: cfg.AI.Model, prompt: string(prompt), log: log}, nil
}

func (r *openaiRewriter) Rewrite(ctx context.Context, a *article.Article) (*service.Rewritten, error) {
	prompt := fmt.Sprintf("%s\n\nFonte: %s\nTítulo original: %s\n\n%s",
		r.prompt, a.SourceName, a.Title, a.Content)

	var lastErr error
	for range r.clients {
		client := r.clients[r.next%len(r.clients)]
		r.next++

		resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: r.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			lastErr = fmt.Errorf("chat completion request failed: %w", err)
			r.log.Warn("rewrite key failed, rotating", zap.Error(err))
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("model returned no choices")
			continue
		}
		return parseRewritten(resp.Choices[0].Message.Content, a.Title)
	}
	return nil, lastErr
}

// parseRewritten expects a JSON object with title/content/tags but tolerates
// models that wrap it in markdown fences or answer with plain text.
func parseRewritten(raw, fallbackTitle string) (*service.Rewritten, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var out service.Rewritten
	if err := json.Unmarshal([]byte(cleaned), &out); err == nil && out.Content != "" {
		if out.Title == "" {
			out.Title = fallbackTitle
		}
		return &out, nil
	}

	if cleaned == "" {
		return nil, fmt.Errorf("model returned empty rewrite")
	}
	return &service.Rewritten{Title: fallbackTitle, Content: cleaned}, nil
}
