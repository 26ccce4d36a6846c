// Package tag はユーザー所有のタグに関するドメインロジックを提供する。
package tag

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hitoshi/recipebox/internal/metrics"
	"github.com/hitoshi/recipebox/internal/model"
	"github.com/hitoshi/recipebox/internal/repository"
	"github.com/hitoshi/recipebox/internal/security"
)

// MaxNameLength はタグ名の最大文字数。
const MaxNameLength = 255

// Service はタグのサービス層。
// 全ての操作は呼び出し元ユーザーのIDを明示的に受け取り、そのユーザーのタグのみを扱う。
type Service struct {
	tagRepo   repository.TagRepository
	sanitizer security.TextSanitizer
	metrics   metrics.MetricsCollector
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	tagRepo repository.TagRepository,
	sanitizer security.TextSanitizer,
	collector metrics.MetricsCollector,
) *Service {
	return &Service{
		tagRepo:   tagRepo,
		sanitizer: sanitizer,
		metrics:   collector,
		now:       time.Now,
	}
}

// ListOwned はユーザーが所有するタグをname降順で返す。
// 大文字小文字を区別したバイト順で比較し、同名の場合はリポジトリの返却順を保つ。
func (s *Service) ListOwned(ctx context.Context, userID string) ([]*model.Tag, error) {
	tags, err := s.tagRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("タグ一覧の取得に失敗しました: %w", err)
	}

	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].Name > tags[j].Name
	})

	return tags, nil
}

// CreateOwned はユーザーが所有するタグを作成する。
// 所有者は常にuserIDであり、入力から変更することはできない。
func (s *Service) CreateOwned(ctx context.Context, userID, name string) (*model.Tag, error) {
	name, ok := s.sanitizer.Clean(name)
	if !ok {
		return nil, model.NewMarkupNotAllowedError("name")
	}
	if name == "" {
		return nil, model.NewTagNameRequiredError()
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, model.NewTagNameTooLongError(MaxNameLength)
	}

	tag := &model.Tag{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		CreatedAt: s.now(),
	}

	if err := s.tagRepo.Create(ctx, tag); err != nil {
		return nil, fmt.Errorf("タグの作成に失敗しました: %w", err)
	}

	s.metrics.RecordTagCreated()
	slog.Info("tag created",
		slog.String("user_id", userID),
		slog.String("tag_id", tag.ID),
	)

	return tag, nil
}
