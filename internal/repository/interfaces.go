// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/recipebox/internal/model"
)

// ErrDuplicateEmail は同一メールアドレスのユーザーが既に存在する場合に返される。
var ErrDuplicateEmail = errors.New("duplicate email")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は正規化済みメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// emailのユニーク制約に違反した場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// Update は指定ユーザーのname、password_hash、updated_atを更新する。
	// 対象が存在しない場合はnilとfalseを返す。
	Update(ctx context.Context, user *model.User) (bool, error)
}

// TokenRepository は認証トークンの永続化インターフェース。
// auth_tokens.user_idのユニーク制約により、1ユーザー1トークンを保証する。
type TokenRepository interface {
	// GetOrCreate はユーザーのトークンを返す。
	// 未発行の場合のみcandidateKeyで新規作成し、既存の場合はそれを返す。
	GetOrCreate(ctx context.Context, userID, candidateKey string) (*model.Token, error)

	// FindByKey はキーでトークンを取得する。見つからない場合はnilを返す。
	FindByKey(ctx context.Context, key string) (*model.Token, error)
}

// TagRepository はタグデータの永続化インターフェース。
type TagRepository interface {
	// ListByUserID はユーザーが所有するタグをname降順（バイト順）で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Tag, error)

	// Create はタグを作成する。
	Create(ctx context.Context, tag *model.Tag) error
}
