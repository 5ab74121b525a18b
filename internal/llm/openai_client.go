// ABOUTME: OpenAI client for grounded answer generation, summaries, and query embeddings
// ABOUTME: Retries transient failures with backoff; never fabricates on failure
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/carebridge/clinrag/internal/config"
	"github.com/carebridge/clinrag/internal/models"
	"github.com/carebridge/clinrag/internal/util"
)

// ErrGenerationFailed signals the generation collaborator could not
// produce an answer. The pipeline maps this to a refusal, never to a
// best-guess answer.
var ErrGenerationFailed = errors.New("answer generation failed")

const answerSystemPrompt = `You are a clinical information assistant. Answer ONLY from the numbered source passages provided. Cite passages as [1], [2], etc. If the passages do not support an answer, say so plainly. Never invent clinical guidance.`

const summarySystemPrompt = `Summarize this patient-support conversation in 3-4 sentences. Capture the questions asked and what was explained. Do not add information that was not discussed.`

// OpenAIClient wraps the OpenAI API with retry logic
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
	timeout        time.Duration
	maxRetries     int
	retryDelay     time.Duration
}

// NewOpenAIClient creates a client from pipeline configuration
func NewOpenAIClient(cfg *config.Config) (*OpenAIClient, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	return &OpenAIClient{
		client:         openai.NewClient(cfg.OpenAIKey),
		chatModel:      cfg.ChatModel,
		embeddingModel: openai.EmbeddingModel(cfg.EmbeddingModel),
		timeout:        cfg.Timeout,
		maxRetries:     cfg.MaxRetries,
		retryDelay:     cfg.RetryDelay,
	}, nil
}

// EmbedQuery computes the dense vector for a query string
func (c *OpenAIClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(util.Backoff(c.retryDelay, attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.client.CreateEmbeddings(reqCtx, openai.EmbeddingRequest{
			Model: c.embeddingModel,
			Input: []string{text},
		})
		cancel()
		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}
		if len(resp.Data) == 0 {
			lastErr = fmt.Errorf("attempt %d: no embedding returned", attempt+1)
			continue
		}
		return resp.Data[0].Embedding, nil
	}
	return nil, fmt.Errorf("embedding query after %d attempts: %w", c.maxRetries+1, lastErr)
}

// GenerateAnswer produces a grounded answer from the ranked context and
// the recent conversation window. Transient failures get exactly one
// retry; a second failure surfaces ErrGenerationFailed.
func (c *OpenAIClient) GenerateAnswer(ctx context.Context, question string, passages []models.Candidate, history []models.Message, summary string) (string, error) {
	chatMessages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: answerSystemPrompt},
		{Role: openai.ChatMessageRoleSystem, Content: "SOURCE PASSAGES:\n" + formatPassages(passages)},
	}
	if summary != "" {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: "CONVERSATION SUMMARY:\n" + summary,
		})
	}
	for _, msg := range history {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	chatMessages = append(chatMessages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: question,
	})

	answer, err := c.chat(ctx, chatMessages, 1)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return answer, nil
}

// Summarize condenses a conversation into a short summary
func (c *OpenAIClient) Summarize(ctx context.Context, messages []models.Message) (string, error) {
	var transcript strings.Builder
	for _, msg := range messages {
		transcript.WriteString(fmt.Sprintf("%s: %s\n", msg.Role, msg.Content))
	}

	chatMessages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: transcript.String()},
	}
	return c.chat(ctx, chatMessages, c.maxRetries)
}

// chat runs a completion with up to retries additional attempts
func (c *OpenAIClient) chat(ctx context.Context, messages []openai.ChatCompletionMessage, retries int) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(util.Backoff(c.retryDelay, attempt)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
			Model:       c.chatModel,
			Messages:    messages,
			Temperature: 0.1,
		})
		cancel()
		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("attempt %d: no completion choices returned", attempt+1)
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}
	return "", lastErr
}

// formatPassages numbers the context passages with their citations
func formatPassages(passages []models.Candidate) string {
	var sb strings.Builder
	for i, p := range passages {
		sb.WriteString(fmt.Sprintf("[%d] (%s", i+1, p.Chunk.DocID))
		if p.Chunk.Section != "" {
			sb.WriteString(", " + p.Chunk.Section)
		}
		if p.Chunk.Page > 0 {
			sb.WriteString(fmt.Sprintf(", p.%d", p.Chunk.Page))
		}
		sb.WriteString(")\n")
		sb.WriteString(p.Chunk.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}
