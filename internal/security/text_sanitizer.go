// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はユーザーが入力するプレーンテキスト（タグ名、表示名）を検査する。
// テキストは送信された内容のまま保存し、HTML要素を含む入力は書き換えずに拒否する。
// 出力時のエスケープはJSONエンコーダが行う。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト入力の検査機能のインターフェースを定義する。
type TextSanitizer interface {
	// Clean は前後の空白を除去した文字列を返す。
	// HTML要素を含む場合は第2戻り値にfalseを返す。
	// 同一入力に対して常に同一出力を返す。
	Clean(raw string) (string, bool)
}

// textSanitizer はTextSanitizerの実装。
// bluemonday.Policyはスレッドセーフなので1インスタンスを共有する。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// newlineNormalizer はHTMLトークナイザと同じ規則で改行を正規化する。
var newlineNormalizer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Clean は前後の空白を除去したテキストを返す。
// StrictPolicyで除去される要素やコメントが含まれる場合は拒否する。
// 実体参照はテキストとして扱い、そのまま保存する。
func (s *textSanitizer) Clean(raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", true
	}
	if !s.isPlainText(text) {
		return "", false
	}
	return text, true
}

// isPlainText はポリシー適用の前後で文字列としての内容が変わらないかを判定する。
// bluemondayは出力をHTMLエスケープするため、両者を復号してから比較する。
func (s *textSanitizer) isPlainText(text string) bool {
	stripped := s.policy.Sanitize(text)
	return html.UnescapeString(stripped) == html.UnescapeString(newlineNormalizer.Replace(text))
}

var _ TextSanitizer = (*textSanitizer)(nil)
