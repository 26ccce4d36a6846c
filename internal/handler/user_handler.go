package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/recipebox/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Register はユーザーを登録する。
	Register(ctx context.Context, email, password, name string) (*model.User, error)
	// GetProfile は認証済みユーザー自身の情報を返す。
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	// UpdateProfile は認証済みユーザー自身の表示名またはパスワードを更新する。
	// nilのフィールドは変更しない。
	UpdateProfile(ctx context.Context, userID string, name, password *string) (*model.User, error)
}

// userResponse はユーザー情報のレスポンス。
// パスワードハッシュは含めない。
type userResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// registerRequest はユーザー登録リクエスト。
// is_staff等の権限フィールドは受け付けない。
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// updateProfileRequest は自己プロフィール更新リクエスト。
// メールアドレスの変更は受け付けない。
type updateProfileRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

// meAllowedMethods は /users/me/ で許可されるメソッド。
const meAllowedMethods = "GET, PUT, PATCH"

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// Register はユーザーを登録する。
// POST /users/create/
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	u, err := h.service.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

// Me は認証済みユーザー自身の情報を返す。
// GET /users/me/
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	u, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// UpdateMe は認証済みユーザー自身のプロフィールを更新する。
// PATCH /users/me/ と PUT /users/me/ の両方を部分更新として扱う。
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), userID, req.Name, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// MeMethodNotAllowed は /users/me/ に対する許可されていないメソッドに405を返す。
// 認証ミドルウェアの内側に登録し、未認証の場合は401を優先する。
func (h *UserHandler) MeMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", meAllowedMethods)
	writeAPIErrorResponse(w, http.StatusMethodNotAllowed, model.NewMethodNotAllowedError(r.Method))
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		Email: u.Email,
		Name:  u.Name,
	}
}
