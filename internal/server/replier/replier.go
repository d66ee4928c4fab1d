// Package replier produces the bot's answer to a user message.
package replier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/sashabaranov/go-openai"
)

// Replier answers text given the conversation's prior messages.
type Replier interface {
	Reply(ctx context.Context, history []models.Message, text string) (string, error)
}

// EchoReply is the bot answer used without a language model.
func EchoReply(text string) string {
	return "You said: " + text
}

type Echo struct{}

func (Echo) Reply(_ context.Context, _ []models.Message, text string) (string, error) {
	return EchoReply(text), nil
}

const (
	replyTimeout = 30 * time.Second
	// historyLimit caps how many earlier messages are sent as context.
	historyLimit = 20
	systemPrompt = "You are a helpful assistant in a chat application. Answer concisely."
)

// OpenAI asks an OpenAI-compatible chat completion endpoint for the reply.
type OpenAI struct {
	client *openai.Client
	model  string
	logger logging.Logger
}

func NewOpenAI(apiKey, baseURL, model string, logger logging.Logger) *OpenAI {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: logger.With("module", "replier"),
	}
}

func (o *OpenAI) Reply(ctx context.Context, history []models.Message, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()

	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Sender == common.SenderBot {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Text})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text})

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: msgs,
	})
	latency := time.Since(start)
	if err != nil {
		o.logger.Error(ctx, "chat completion failed", "model", o.model, "error", err, "latency_ms", latency.Milliseconds())
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from model")
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", errors.New("empty reply from model")
	}

	o.logger.Debug(ctx, "chat completion", "model", o.model, "latency_ms", latency.Milliseconds(),
		"tokens_total", resp.Usage.TotalTokens)
	return reply, nil
}

// Fallback tries Primary and answers with the echo reply if it fails, so a
// model outage never blocks storing the user's message.
type Fallback struct {
	Primary Replier
	Logger  logging.Logger
}

func (f Fallback) Reply(ctx context.Context, history []models.Message, text string) (string, error) {
	reply, err := f.Primary.Reply(ctx, history, text)
	if err != nil {
		f.Logger.Warn(ctx, "falling back to echo reply", "error", err)
		return EchoReply(text), nil
	}
	return reply, nil
}

// New returns the echo bot when apiKey is empty, otherwise the OpenAI replier
// with echo fallback.
func New(apiKey, baseURL, model string, logger logging.Logger) Replier {
	if apiKey == "" {
		return Echo{}
	}
	return Fallback{Primary: NewOpenAI(apiKey, baseURL, model, logger), Logger: logger}
}
