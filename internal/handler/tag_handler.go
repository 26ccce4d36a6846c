package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/recipebox/internal/model"
)

// TagServiceInterface はタグハンドラーが必要とするサービスインターフェース。
type TagServiceInterface interface {
	// ListOwned は指定ユーザーが所有するタグを名前の降順で返す。
	ListOwned(ctx context.Context, userID string) ([]*model.Tag, error)
	// CreateOwned は指定ユーザーを所有者としてタグを作成する。
	CreateOwned(ctx context.Context, userID, name string) (*model.Tag, error)
}

type tagResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// createTagRequest はタグ作成リクエスト。
// 所有者は認証済みユーザーから決まるため、ペイロードでは受け付けない。
type createTagRequest struct {
	Name string `json:"name"`
}

// TagHandler はタグのHTTPハンドラー。
type TagHandler struct {
	service TagServiceInterface
}

// NewTagHandler はTagHandlerを生成する。
func NewTagHandler(service TagServiceInterface) *TagHandler {
	return &TagHandler{
		service: service,
	}
}

// List は認証済みユーザーのタグ一覧を返す。
// GET /tags/
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	tags, err := h.service.ListOwned(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]tagResponse, len(tags))
	for i, t := range tags {
		resp[i] = toTagResponse(t)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create は認証済みユーザーのタグを作成する。
// POST /tags/
func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createTagRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	tag, err := h.service.CreateOwned(r.Context(), userID, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTagResponse(tag))
}

func toTagResponse(t *model.Tag) tagResponse {
	return tagResponse{
		ID:   t.ID,
		Name: t.Name,
	}
}
