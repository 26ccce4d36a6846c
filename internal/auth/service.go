// Package auth は資格情報の検証と認証トークンの発行・解決を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/hitoshi/recipebox/internal/metrics"
	"github.com/hitoshi/recipebox/internal/model"
	"github.com/hitoshi/recipebox/internal/repository"
	"github.com/hitoshi/recipebox/internal/user"
)

// tokenKeyBytes はトークンキーの生成に使う乱数のバイト数。16進表記で40文字になる。
const tokenKeyBytes = 20

// dummyPassword は存在しないユーザーの照合に使うパスワード。
const dummyPassword = "recipebox-dummy-password"

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	hasher    user.PasswordHasher
	metrics   metrics.MetricsCollector
	dummyHash string
	newKey    func() (string, error)
}

// NewService はServiceを生成する。
// ユーザーが存在しない場合にも同じコストの照合を行うため、ダミーハッシュを事前に計算する。
func NewService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	hasher user.PasswordHasher,
	collector metrics.MetricsCollector,
) *Service {
	dummyHash, err := hasher.Hash(dummyPassword)
	if err != nil {
		slog.Warn("failed to prepare dummy password hash", slog.String("error", err.Error()))
	}
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		hasher:    hasher,
		metrics:   collector,
		dummyHash: dummyHash,
		newKey:    generateTokenKey,
	}
}

// Authenticate はメールアドレスとパスワードを検証し、一致するユーザーを返す。
// メールアドレスが未登録の場合とパスワードが誤っている場合は同一のエラーを返す。
// 無効化されたユーザーも同じエラーで拒否する。
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.userRepo.FindByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if u == nil {
		// 応答時間からメールアドレスの登録有無を推測されないよう照合だけは行う
		s.hasher.Compare(s.dummyHash, password)
		s.metrics.RecordAuthFailure(metrics.AuthFailureInvalidCredentials)
		return nil, model.NewInvalidCredentialsError()
	}

	if !s.hasher.Compare(u.PasswordHash, password) || !u.IsActive {
		s.metrics.RecordAuthFailure(metrics.AuthFailureInvalidCredentials)
		return nil, model.NewInvalidCredentialsError()
	}

	return u, nil
}

// IssueToken はユーザーのトークンを返す。
// 既に発行済みの場合は同じトークンを返し、重複して作成しない。
func (s *Service) IssueToken(ctx context.Context, userID string) (*model.Token, error) {
	key, err := s.newKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token key: %w", err)
	}

	token, err := s.tokenRepo.GetOrCreate(ctx, userID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return token, nil
}

// ObtainToken は資格情報を検証し、ユーザーのトークンを返す。
func (s *Service) ObtainToken(ctx context.Context, email, password string) (*model.Token, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, err := s.IssueToken(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTokenIssued()
	slog.Info("token issued", slog.String("user_id", u.ID))

	return token, nil
}

// ResolveToken はトークンキーから呼び出し元のユーザーを特定する。
// キーが空、未登録、またはユーザーが無効な場合はUNAUTHORIZEDエラーを返す。
func (s *Service) ResolveToken(ctx context.Context, key string) (*model.User, error) {
	if key == "" {
		s.metrics.RecordAuthFailure(metrics.AuthFailureMissingToken)
		return nil, model.NewUnauthorizedError()
	}

	token, err := s.tokenRepo.FindByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to find token: %w", err)
	}
	if token == nil {
		s.metrics.RecordAuthFailure(metrics.AuthFailureInvalidToken)
		return nil, model.NewUnauthorizedError()
	}

	u, err := s.userRepo.FindByID(ctx, token.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if u == nil || !u.IsActive {
		s.metrics.RecordAuthFailure(metrics.AuthFailureInvalidToken)
		return nil, model.NewUnauthorizedError()
	}

	return u, nil
}

// generateTokenKey は暗号的に安全なトークンキーを生成する。
func generateTokenKey() (string, error) {
	b := make([]byte, tokenKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
