// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// Emailは常に小文字に正規化された状態で保持する。
type User struct {
	ID           string
	Email        string
	PasswordHash string // 外部へのレスポンスには決して含めない
	Name         string
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Token はユーザーに1対1で紐づく認証トークンを表す。
// Keyは不透明な文字列で、Authorizationヘッダーで提示される。
type Token struct {
	Key       string
	UserID    string
	CreatedAt time.Time
}

// Tag はレシピに付与するタグを表す。
// UserIDは作成時に認証済みユーザーから設定され、以後変更されない。
type Tag struct {
	ID        string
	UserID    string
	Name      string
	CreatedAt time.Time
}
