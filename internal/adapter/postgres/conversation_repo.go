package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"healthmate/internal/domain"
)

// ConversationRepo implements domain.ConversationRepository on DB.
// Message turns are stored as a JSONB array.
type ConversationRepo struct {
	db *DB
}

// NewConversationRepo wraps a DB as a ConversationRepository.
func NewConversationRepo(db *DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// Create inserts a conversation and assigns its ID.
func (r *ConversationRepo) Create(ctx context.Context, c *domain.Conversation) error {
	contents, err := json.Marshal(c.Contents)
	if err != nil {
		return err
	}
	return r.db.sql.QueryRowContext(ctx,
		"INSERT INTO conversations (user_id, name, contents, created_at) VALUES ($1, $2, $3, $4) RETURNING id",
		c.UserID, c.Name, string(contents), c.CreatedAt,
	).Scan(&c.ID)
}

// ListByUser returns the user's conversations, oldest first.
func (r *ConversationRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Conversation, error) {
	rows, err := r.db.sql.QueryContext(ctx,
		"SELECT id, user_id, name, contents, created_at FROM conversations WHERE user_id = $1 ORDER BY created_at, id",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// GetByID returns a conversation or (nil, nil).
func (r *ConversationRepo) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	c, err := scanConversation(r.db.sql.QueryRowContext(ctx,
		"SELECT id, user_id, name, contents, created_at FROM conversations WHERE id = $1", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a conversation and reports whether one existed.
func (r *ConversationRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.sql.ExecContext(ctx, "DELETE FROM conversations WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanConversation(row rowScanner) (*domain.Conversation, error) {
	var (
		c   domain.Conversation
		raw []byte
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &raw, &c.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &c.Contents); err != nil {
		return nil, err
	}
	return &c, nil
}
