package store

import (
	"context"
	"fmt"
	"time"

	"github.com/supabase-community/supabase-go"
)

// DebateRecord is one finished debate round as persisted.
type DebateRecord struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Prompt      string            `json:"prompt"`
	Mode        string            `json:"mode"`
	Responses   map[string]string `json:"responses"`
	RoundNumber int               `json:"round_number"`
	CreatedAt   time.Time         `json:"created_at"`
}

// DebateStore persists finished debates.
type DebateStore interface {
	SaveDebate(ctx context.Context, rec DebateRecord) error
}

// SupabaseStore writes debate records to a Supabase "debates" table.
type SupabaseStore struct {
	client *supabase.Client
}

// NewSupabaseStore connects to Supabase. Both url and key are required.
func NewSupabaseStore(url, key string) (*SupabaseStore, error) {
	if url == "" || key == "" {
		return nil, fmt.Errorf("supabase url and key are required")
	}
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &SupabaseStore{client: client}, nil
}

// SaveDebate inserts one debate record.
func (s *SupabaseStore) SaveDebate(_ context.Context, rec DebateRecord) error {
	_, _, err := s.client.From("debates").Insert(rec, false, "", "minimal", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to save debate %s: %w", rec.ID, err)
	}
	return nil
}
