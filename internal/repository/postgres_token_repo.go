package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/recipebox/internal/model"
)

// PostgresTokenRepo はPostgreSQLを使用した認証トークンリポジトリ。
type PostgresTokenRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresTokenRepo はPostgresTokenRepoを生成する。
func NewPostgresTokenRepo(db *sql.DB) *PostgresTokenRepo {
	return &PostgresTokenRepo{db: db, now: time.Now}
}

// GetOrCreate はユーザーのトークンを返す。
// 同一ユーザーに対する同時リクエストでも、user_idのユニーク制約により
// ON CONFLICT DO NOTHINGで後続の挿入は無視され、全員が同じトークンを読み出す。
// 再読み込みは別ステートメントで行い、競合相手のコミット済み行が見えるようにする。
func (r *PostgresTokenRepo) GetOrCreate(ctx context.Context, userID, candidateKey string) (*model.Token, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_tokens (key, user_id, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO NOTHING`,
		candidateKey, userID, r.now(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert token: %w", err)
	}

	token := &model.Token{}
	err = r.db.QueryRowContext(ctx,
		`SELECT key, user_id, created_at FROM auth_tokens WHERE user_id = $1`,
		userID,
	).Scan(&token.Key, &token.UserID, &token.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	return token, nil
}

// FindByKey はキーでトークンを取得する。見つからない場合はnilを返す。
func (r *PostgresTokenRepo) FindByKey(ctx context.Context, key string) (*model.Token, error) {
	token := &model.Token{}
	err := r.db.QueryRowContext(ctx,
		`SELECT key, user_id, created_at FROM auth_tokens WHERE key = $1`,
		key,
	).Scan(&token.Key, &token.UserID, &token.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find token: %w", err)
	}

	return token, nil
}

// compile-time interface check
var _ TokenRepository = (*PostgresTokenRepo)(nil)
