package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/recipebox/internal/model"
)

// TokenServiceInterface はトークンハンドラーが必要とするサービスインターフェース。
type TokenServiceInterface interface {
	// ObtainToken は認証情報を検証し、ユーザーのトークンを返す。
	// 同一ユーザーには常に同じトークンを返す。
	ObtainToken(ctx context.Context, email, password string) (*model.Token, error)
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// TokenHandler は認証トークン発行のHTTPハンドラー。
type TokenHandler struct {
	service TokenServiceInterface
}

// NewTokenHandler はTokenHandlerを生成する。
func NewTokenHandler(service TokenServiceInterface) *TokenHandler {
	return &TokenHandler{
		service: service,
	}
}

// Obtain はメールアドレスとパスワードからトークンを発行する。
// POST /users/token/
//
// 認証失敗はこのエンドポイントでは401ではなく400として返す。
func (h *TokenHandler) Obtain(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	if req.Email == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewCredentialsRequiredError())
		return
	}

	token, err := h.service.ObtainToken(r.Context(), req.Email, req.Password)
	if err != nil {
		if model.IsCategory(err, model.CategoryAuth) {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidCredentialsError())
			return
		}
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token.Key})
}
