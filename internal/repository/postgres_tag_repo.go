package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/recipebox/internal/model"
)

// PostgresTagRepo はPostgreSQLを使用したタグリポジトリ。
type PostgresTagRepo struct {
	db *sql.DB
}

// NewPostgresTagRepo はPostgresTagRepoを生成する。
func NewPostgresTagRepo(db *sql.DB) *PostgresTagRepo {
	return &PostgresTagRepo{db: db}
}

// ListByUserID はユーザーが所有するタグをname降順で返す。
// COLLATE "C" によりDBのロケールに関係なく大文字小文字を区別したバイト順で並べる。
func (r *PostgresTagRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, created_at
		 FROM tags
		 WHERE user_id = $1
		 ORDER BY name COLLATE "C" DESC, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	tags := make([]*model.Tag, 0)
	for rows.Next() {
		tag := &model.Tag{}
		if err := rows.Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}

	return tags, nil
}

// Create はタグを作成する。
func (r *PostgresTagRepo) Create(ctx context.Context, tag *model.Tag) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tags (id, user_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		tag.ID, tag.UserID, tag.Name, tag.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert tag: %w", err)
	}
	return nil
}

// compile-time interface check
var _ TagRepository = (*PostgresTagRepo)(nil)
