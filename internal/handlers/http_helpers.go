package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/PyWorldGeo/chatroomproject2/internal/auth"
	"github.com/PyWorldGeo/chatroomproject2/internal/logging"
	"github.com/PyWorldGeo/chatroomproject2/internal/models"
	"github.com/PyWorldGeo/chatroomproject2/internal/render"
	"github.com/PyWorldGeo/chatroomproject2/internal/service"
	"github.com/PyWorldGeo/chatroomproject2/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

// permissionDeniedBody はホスト・投稿者以外が操作した場合に返す本文です（ステータスは200）
const permissionDeniedBody = "<h1>You do not have permission!</h1>"

// errorResponse はエラーレスポンスの構造
type errorResponse struct {
	Message string `json:"message"` // エラーメッセージ
}

// respondJSON はJSONレスポンスを返します
// payloadがnilの場合は空のレスポンスを返します
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

// respondError はエラーレスポンスを返します
func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Message: msg})
}

// respondHTML は固定のHTML断片を返します
func respondHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// writeServiceError はサービス層のエラーをHTTPレスポンスに変換します
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrMessageNotFound),
		errors.Is(err, service.ErrUserNotFound):
		respondHTML(w, http.StatusNotFound, "<h1>Not Found</h1>")
	case errors.Is(err, service.ErrNotRoomHost),
		errors.Is(err, service.ErrNotMessageAuthor):
		respondHTML(w, http.StatusOK, permissionDeniedBody)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// IdentityHandlerFunc はログイン中のユーザー（匿名ならnil）を明示的に受け取るハンドラーです
type IdentityHandlerFunc func(w http.ResponseWriter, r *http.Request, me *models.User)

// WithIdentity はcontextのユーザーを取り出してハンドラーに渡します
func WithIdentity(h IdentityHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h(w, r, auth.CurrentUser(r.Context()))
	}
}

// page はどのページでも使う値（ログインユーザー、検索語、エラー）を補ってから描画します
func page(view *render.Renderer, w http.ResponseWriter, r *http.Request, me *models.User, name string, data render.Data) {
	if data == nil {
		data = render.Data{}
	}
	data["Me"] = me
	if _, ok := data["Query"]; !ok {
		data["Query"] = ""
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = validation.FieldErrors{}
	}
	if _, ok := data["Flash"]; !ok {
		data["Flash"] = []string(nil)
	}
	if err := view.Render(w, http.StatusOK, name, data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("render failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// redirect はPOST後のリダイレクト（302）を返します
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusFound)
}

// pathID はURLパラメータのIDを数値に変換します。数値でなければ404を返してfalse
func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	id, err := parseID(chi.URLParam(r, name))
	if err != nil {
		respondHTML(w, http.StatusNotFound, "<h1>Not Found</h1>")
		return 0, false
	}
	return id, true
}

// normalizeID はIDの前後の空白を削除して正規化します
func normalizeID(id string) string {
	return strings.TrimSpace(id)
}

func parseID(raw string) (uint, error) {
	n, err := strconv.ParseUint(normalizeID(raw), 10, 64)
	if err != nil || n == 0 {
		return 0, errInvalidID
	}
	return uint(n), nil
}
