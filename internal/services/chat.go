package services

import (
	"context"
	"strings"

	"github.com/kodbank/apiserver/internal/events"
	"github.com/kodbank/apiserver/types"
)

const (
	chatHistoryWindow  = 50
	msgMessageRequired = "Message is required"
)

// ChatRepository persists conversation turns.
type ChatRepository interface {
	Create(ctx context.Context, message types.ChatMessage) (types.ChatMessage, error)
	ListOldest(ctx context.Context, userID, limit int) ([]types.ChatMessage, error)
}

// Generator produces an assistant reply. Implementations never fail; they
// substitute their own fallback text instead.
type Generator interface {
	Generate(ctx context.Context, text string) string
}

// ChatService runs the assistant conversation.
type ChatService struct {
	messages  ChatRepository
	generator Generator
	events    EventPublisher
}

func NewChatService(messages ChatRepository, generator Generator, publisher EventPublisher) *ChatService {
	return &ChatService{messages: messages, generator: generator, events: publisher}
}

// History returns the first messages of the conversation, oldest first. The
// window is the conversation's opening, not its most recent turns.
func (s *ChatService) History(ctx context.Context, userID int) ([]types.ChatMessage, error) {
	messages, err := s.messages.ListOldest(ctx, userID, chatHistoryWindow)
	if err != nil {
		return nil, newInternalError("list chat messages", err)
	}
	return messages, nil
}

// Send records the user's message, asks the generator for a reply and
// records that too. The user turn is stored before the generator is called
// and the assistant turn before Send returns.
func (s *ChatService) Send(ctx context.Context, userID int, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", newValidationError(msgMessageRequired)
	}

	if _, err := s.messages.Create(ctx, types.ChatMessage{
		UserID:  userID,
		Message: text,
		Role:    types.ChatRoleUser,
	}); err != nil {
		return "", newInternalError("save user message", err)
	}

	reply := s.generator.Generate(ctx, text)

	// The reply is stored even if the client has gone away so the user
	// turn is never left unanswered.
	if _, err := s.messages.Create(context.WithoutCancel(ctx), types.ChatMessage{
		UserID:  userID,
		Message: reply,
		Role:    types.ChatRoleAssistant,
	}); err != nil {
		return "", newInternalError("save assistant message", err)
	}

	if s.events != nil {
		s.events.Publish(ctx, events.Event{
			Type:   events.TypeChatExchanged,
			UserID: userID,
			Data: map[string]any{
				"message_length": len(text),
				"reply_length":   len(reply),
			},
		})
	}
	return reply, nil
}
