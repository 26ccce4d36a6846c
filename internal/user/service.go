// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hitoshi/recipebox/internal/metrics"
	"github.com/hitoshi/recipebox/internal/model"
	"github.com/hitoshi/recipebox/internal/repository"
	"github.com/hitoshi/recipebox/internal/security"
)

const (
	// MaxPasswordBytes はbcryptが扱えるパスワードの最大バイト数。
	MaxPasswordBytes = 72
	// MaxEmailLength はメールアドレスの最大文字数。usersテーブルの列幅と一致させる。
	MaxEmailLength = 255
	// MaxNameLength は表示名の最大文字数。usersテーブルの列幅と一致させる。
	MaxNameLength = 255
)

// CreateParams はユーザー作成時の入力。
type CreateParams struct {
	Email       string
	Password    string
	Name        string
	IsStaff     bool
	IsSuperuser bool
}

// UpdateParams は自己プロフィール更新時の入力。
// nilのフィールドは変更しない。
type UpdateParams struct {
	Name     *string
	Password *string
}

// Service はユーザー管理のサービス層。
// 登録、メールアドレスによる検索、プロフィール更新を提供する。
type Service struct {
	userRepo          repository.UserRepository
	hasher            PasswordHasher
	sanitizer         security.TextSanitizer
	passwordMinLength int
	metrics           metrics.MetricsCollector
	now               func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	sanitizer security.TextSanitizer,
	passwordMinLength int,
	collector metrics.MetricsCollector,
) *Service {
	return &Service{
		userRepo:          userRepo,
		hasher:            hasher,
		sanitizer:         sanitizer,
		passwordMinLength: passwordMinLength,
		metrics:           collector,
		now:               time.Now,
	}
}

// NormalizeEmail はメールアドレスの前後空白を除去し、全体を小文字化する。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser はユーザーを作成する。
// メールアドレスは小文字化してから保存と重複判定に使用し、
// パスワードはハッシュのみを保存する。
func (s *Service) CreateUser(ctx context.Context, params CreateParams) (*model.User, error) {
	email := NormalizeEmail(params.Email)
	if email == "" {
		return nil, model.NewEmailRequiredError()
	}
	if utf8.RuneCountInString(email) > MaxEmailLength {
		return nil, model.NewEmailTooLongError(MaxEmailLength)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, model.NewInvalidEmailError(email)
	}
	if err := s.validatePassword(params.Password); err != nil {
		return nil, err
	}
	name, err := s.cleanName(params.Name)
	if err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateEmailError()
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		IsActive:     true,
		IsStaff:      params.IsStaff,
		IsSuperuser:  params.IsSuperuser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// 検索後に別リクエストが同じメールアドレスで登録した場合
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewDuplicateEmailError()
		}
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	s.metrics.RecordUserRegistered()
	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.Bool("is_superuser", user.IsSuperuser),
	)

	return user, nil
}

// CreateSuperuser はスタッフ権限とスーパーユーザー権限を持つユーザーを作成する。
func (s *Service) CreateSuperuser(ctx context.Context, email, password string) (*model.User, error) {
	return s.CreateUser(ctx, CreateParams{
		Email:       email,
		Password:    password,
		IsStaff:     true,
		IsSuperuser: true,
	})
}

// GetByEmail はメールアドレスでユーザーを取得する。
// 存在しない場合はUSER_NOT_FOUNDエラーを返す。
func (s *Service) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// GetByID はIDでユーザーを取得する。
// 存在しない場合はUSER_NOT_FOUNDエラーを返す。
func (s *Service) GetByID(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateProfile は指定ユーザー自身の表示名またはパスワードを更新する。
// パスワードは作成時と同じ検証とハッシュ化を経て保存される。
func (s *Service) UpdateProfile(ctx context.Context, userID string, params UpdateParams) (*model.User, error) {
	if params.Password != nil {
		if err := s.validatePassword(*params.Password); err != nil {
			return nil, err
		}
	}
	var name string
	if params.Name != nil {
		cleaned, err := s.cleanName(*params.Name)
		if err != nil {
			return nil, err
		}
		name = cleaned
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		user.Name = name
	}
	if params.Password != nil {
		hash, err := s.hasher.Hash(*params.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = s.now()

	updated, err := s.userRepo.Update(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
	}
	if !updated {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("user profile updated",
		slog.String("user_id", user.ID),
		slog.Bool("password_changed", params.Password != nil),
	)

	return user, nil
}

// validatePassword はパスワードの長さを検証する。
// 下限はルーン数、上限はbcryptの制約に合わせてバイト数で数える。
func (s *Service) validatePassword(password string) error {
	if utf8.RuneCountInString(password) < s.passwordMinLength {
		return model.NewPasswordTooShortError(s.passwordMinLength)
	}
	if len(password) > MaxPasswordBytes {
		return model.NewPasswordTooLongError(MaxPasswordBytes)
	}
	return nil
}

// cleanName は表示名の前後空白を除去し、HTMLと長さを検証する。
// 表示名は任意項目のため空文字列を許容する。
func (s *Service) cleanName(raw string) (string, error) {
	name, ok := s.sanitizer.Clean(raw)
	if !ok {
		return "", model.NewMarkupNotAllowedError("name")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", model.NewNameTooLongError(MaxNameLength)
	}
	return name, nil
}
