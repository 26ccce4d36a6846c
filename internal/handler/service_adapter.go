package handler

import (
	"context"

	"github.com/hitoshi/recipebox/internal/auth"
	"github.com/hitoshi/recipebox/internal/model"
	"github.com/hitoshi/recipebox/internal/tag"
	"github.com/hitoshi/recipebox/internal/user"
)

// UserServiceAdapter は user.Service を UserServiceInterface に適合させるアダプタ。
type UserServiceAdapter struct {
	svc *user.Service
}

// NewUserServiceAdapter はUserServiceAdapterを生成する。
func NewUserServiceAdapter(svc *user.Service) *UserServiceAdapter {
	return &UserServiceAdapter{svc: svc}
}

// Register は一般ユーザーとして登録する。
// HTTP経由ではスタッフ権限・管理者権限を付与しない。
func (a *UserServiceAdapter) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	return a.svc.CreateUser(ctx, user.CreateParams{
		Email:    email,
		Password: password,
		Name:     name,
	})
}

// GetProfile はユーザーIDでユーザーを返す。
func (a *UserServiceAdapter) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	return a.svc.GetByID(ctx, userID)
}

// UpdateProfile は表示名またはパスワードを更新する。
func (a *UserServiceAdapter) UpdateProfile(ctx context.Context, userID string, name, password *string) (*model.User, error) {
	return a.svc.UpdateProfile(ctx, userID, user.UpdateParams{
		Name:     name,
		Password: password,
	})
}

// --- compile-time interface checks ---

var _ UserServiceInterface = (*UserServiceAdapter)(nil)
var _ TokenServiceInterface = (*auth.Service)(nil)
var _ TagServiceInterface = (*tag.Service)(nil)
