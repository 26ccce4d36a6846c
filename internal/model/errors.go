// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, not_found, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// エラーカテゴリ
const (
	CategoryValidation = "validation"
	CategoryAuth       = "auth"
	CategoryNotFound   = "not_found"
	CategorySystem     = "system"
)

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeEmailRequired      = "EMAIL_REQUIRED"
	ErrCodeInvalidEmail       = "INVALID_EMAIL"
	ErrCodeEmailTooLong       = "EMAIL_TOO_LONG"
	ErrCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	ErrCodePasswordTooShort   = "PASSWORD_TOO_SHORT"
	ErrCodePasswordTooLong    = "PASSWORD_TOO_LONG"
	ErrCodeNameTooLong        = "NAME_TOO_LONG"
	ErrCodeMarkupNotAllowed   = "MARKUP_NOT_ALLOWED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeCredentialsMissing = "CREDENTIALS_REQUIRED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeTagNameRequired    = "TAG_NAME_REQUIRED"
	ErrCodeTagNameTooLong     = "TAG_NAME_TOO_LONG"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: CategoryValidation,
		Action:   "正しいJSON形式またはフォーム形式でリクエストしてください。",
	}
}

// NewEmailRequiredError はメールアドレス未指定エラーを生成する。
func NewEmailRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailRequired,
		Message:  "メールアドレスは必須です。",
		Category: CategoryValidation,
		Action:   "メールアドレスを入力してください。",
	}
}

// NewInvalidEmailError はメールアドレス形式不正エラーを生成する。
func NewInvalidEmailError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  fmt.Sprintf("無効なメールアドレスです: %s", email),
		Category: CategoryValidation,
		Action:   "正しい形式のメールアドレスを入力してください。",
	}
}

// NewEmailTooLongError はメールアドレス長超過エラーを生成する。
func NewEmailTooLongError(maxLength int) *APIError {
	return &APIError{
		Code:     ErrCodeEmailTooLong,
		Message:  fmt.Sprintf("メールアドレスは%d文字以内である必要があります。", maxLength),
		Category: CategoryValidation,
		Action:   "別のメールアドレスを使用してください。",
	}
}

// NewDuplicateEmailError は登録済みメールアドレスエラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "このメールアドレスは既に登録されています。",
		Category: CategoryValidation,
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewPasswordTooShortError はパスワード長不足エラーを生成する。
func NewPasswordTooShortError(minLength int) *APIError {
	return &APIError{
		Code:     ErrCodePasswordTooShort,
		Message:  fmt.Sprintf("パスワードは%d文字以上である必要があります。", minLength),
		Category: CategoryValidation,
		Action:   "より長いパスワードを入力してください。",
	}
}

// NewPasswordTooLongError はパスワード長超過エラーを生成する。
// 上限はバイト数で数える。
func NewPasswordTooLongError(maxBytes int) *APIError {
	return &APIError{
		Code:     ErrCodePasswordTooLong,
		Message:  fmt.Sprintf("パスワードは%dバイト以内である必要があります。", maxBytes),
		Category: CategoryValidation,
		Action:   "より短いパスワードを入力してください。",
	}
}

// NewNameTooLongError は表示名長超過エラーを生成する。
func NewNameTooLongError(maxLength int) *APIError {
	return &APIError{
		Code:     ErrCodeNameTooLong,
		Message:  fmt.Sprintf("表示名は%d文字以内である必要があります。", maxLength),
		Category: CategoryValidation,
		Action:   "表示名を短くしてください。",
	}
}

// NewMarkupNotAllowedError はテキスト項目にHTMLが含まれる場合のエラーを生成する。
func NewMarkupNotAllowedError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeMarkupNotAllowed,
		Message:  fmt.Sprintf("%s にHTMLタグは使用できません。", field),
		Category: CategoryValidation,
		Action:   "HTMLタグを含まないテキストを入力してください。",
	}
}

// NewInvalidCredentialsError は認証情報不正エラーを生成する。
// メールアドレスの存在有無を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: CategoryAuth,
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewCredentialsRequiredError はメールアドレスまたはパスワード未指定エラーを生成する。
func NewCredentialsRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeCredentialsMissing,
		Message:  "メールアドレスとパスワードは必須です。",
		Category: CategoryValidation,
		Action:   "メールアドレスとパスワードを入力してください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: CategoryAuth,
		Action:   "トークンを取得し、Authorizationヘッダーに指定してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: CategoryNotFound,
		Action:   "ログインし直してください。",
	}
}

// NewTagNameRequiredError はタグ名未指定エラーを生成する。
func NewTagNameRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeTagNameRequired,
		Message:  "タグ名は必須です。",
		Category: CategoryValidation,
		Action:   "タグ名を入力してください。",
	}
}

// NewTagNameTooLongError はタグ名長超過エラーを生成する。
func NewTagNameTooLongError(maxLength int) *APIError {
	return &APIError{
		Code:     ErrCodeTagNameTooLong,
		Message:  fmt.Sprintf("タグ名は%d文字以内である必要があります。", maxLength),
		Category: CategoryValidation,
		Action:   "タグ名を短くしてください。",
	}
}

// NewMethodNotAllowedError は許可されていないHTTPメソッドのエラーを生成する。
func NewMethodNotAllowedError(method string) *APIError {
	return &APIError{
		Code:     ErrCodeMethodNotAllowed,
		Message:  fmt.Sprintf("メソッド %s は許可されていません。", method),
		Category: CategoryValidation,
		Action:   "許可されたメソッドでリクエストしてください。",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError(retryAfterSec int) *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "リクエストが多すぎます。",
		Category: CategorySystem,
		Action:   fmt.Sprintf("%d秒ほど待ってから再度お試しください。", retryAfterSec),
	}
}

// NewInternalError は内部サーバーエラーを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: CategorySystem,
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// IsCategory はerrがAPIErrorであり、指定カテゴリに属するかを判定する。
func IsCategory(err error, category string) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Category == category
}
