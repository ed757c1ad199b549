package app

import (
	"context"
	"strings"
	"time"

	"healthmate/internal/domain"
)

// ConversationService lets users save and list their chat histories.
type ConversationService struct {
	repo domain.ConversationRepository
	now  func() time.Time
}

// NewConversationService creates a ConversationService backed by repo.
func NewConversationService(repo domain.ConversationRepository) *ConversationService {
	return &ConversationService{repo: repo, now: time.Now}
}

// Save stores a conversation for userID.
func (s *ConversationService) Save(ctx context.Context, userID int64, name string, contents []domain.Message) (*domain.Conversation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name is required")
	}
	if len(contents) == 0 {
		return nil, invalid("contents must not be empty")
	}
	now := s.now().UTC()
	for i := range contents {
		if contents[i].Role == "" || contents[i].Content == "" {
			return nil, invalid("message %d needs role and content", i)
		}
		if contents[i].At.IsZero() {
			contents[i].At = now
		}
	}
	c := &domain.Conversation{UserID: userID, Name: name, Contents: contents, CreatedAt: now}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns the user's conversations, newest first.
func (s *ConversationService) List(ctx context.Context, userID int64) ([]domain.Conversation, error) {
	convs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	return convs, nil
}
