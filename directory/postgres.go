package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type postgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore returns a Store persisting the directory in Postgres.
// The chats and blocked tables are created by migrations.
func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) RecordSeen(ctx context.Context, chatID, kind, displayName string, seenAt time.Time) error {
	const q = `
		INSERT INTO chats (id, kind, display_name, last_seen)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET kind = EXCLUDED.kind,
		    display_name = EXCLUDED.display_name,
		    last_seen = EXCLUDED.last_seen
		WHERE chats.last_seen <= EXCLUDED.last_seen`
	if _, err := s.db.ExecContext(ctx, q, chatID, kind, displayName, seenAt); err != nil {
		return fmt.Errorf("directory: record seen: %w", err)
	}
	return nil
}

func (s *postgresStore) ListUsers(ctx context.Context) ([]ChatRecord, error) {
	return s.listByKind(ctx, KindUser)
}

func (s *postgresStore) ListGroups(ctx context.Context) ([]ChatRecord, error) {
	return s.listByKind(ctx, KindGroup)
}

func (s *postgresStore) listByKind(ctx context.Context, kind string) ([]ChatRecord, error) {
	const q = `
		SELECT id, kind, display_name, last_seen
		FROM chats
		WHERE kind = $1
		ORDER BY id`
	var out []ChatRecord
	if err := s.db.SelectContext(ctx, &out, q, kind); err != nil {
		return nil, fmt.Errorf("directory: list %s: %w", kind, err)
	}
	return out, nil
}

func (s *postgresStore) Block(ctx context.Context, target string) error {
	namespace, id, err := SplitTarget(target)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO blocked (namespace, id)
		VALUES ($1, $2)
		ON CONFLICT (namespace, id) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, q, namespace, id); err != nil {
		return fmt.Errorf("directory: block %s/%s: %w", namespace, id, err)
	}
	return nil
}

func (s *postgresStore) IsBlocked(ctx context.Context, chatID, userID string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM blocked
			WHERE (namespace = $1 AND id = $2)
			   OR (namespace = $3 AND id = $4)
		)`
	var blocked bool
	if err := s.db.GetContext(ctx, &blocked, q, NamespaceUsers, userID, NamespaceGroups, chatID); err != nil {
		return false, fmt.Errorf("directory: block check: %w", err)
	}
	return blocked, nil
}
