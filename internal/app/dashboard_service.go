package app

import (
	"context"
	"time"

	"healthmate/internal/domain"
)

// UserSummary is the admin listing view of a user.
type UserSummary struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

// UserDetail is a user together with their saved conversations.
type UserDetail struct {
	User          *domain.User          `json:"user"`
	Conversations []domain.Conversation `json:"chatHistory"`
}

// DashboardService serves the admin views.
type DashboardService struct {
	users         domain.UserRepository
	conversations domain.ConversationRepository
}

// NewDashboardService creates a DashboardService.
func NewDashboardService(users domain.UserRepository, conversations domain.ConversationRepository) *DashboardService {
	return &DashboardService{users: users, conversations: conversations}
}

// Users lists every user and the number of signups per month, oldest first.
func (s *DashboardService) Users(ctx context.Context) ([]UserSummary, []domain.MonthlyCount, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt})
	}
	growth, err := s.users.CountByMonth(ctx)
	if err != nil {
		return nil, nil, err
	}
	return out, growth, nil
}

// UserDetail returns a user and their conversation history.
func (s *DashboardService) UserDetail(ctx context.Context, userID int64) (*UserDetail, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	convs, err := s.conversations.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	return &UserDetail{User: u, Conversations: convs}, nil
}

// DeleteConversation removes any user's conversation.
func (s *DashboardService) DeleteConversation(ctx context.Context, id int64) error {
	ok, err := s.conversations.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConversationNotFound
	}
	return nil
}
