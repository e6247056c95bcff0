package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/PyWorldGeo/chatroomproject2/internal/config"
	"github.com/PyWorldGeo/chatroomproject2/internal/logging"
	"github.com/PyWorldGeo/chatroomproject2/internal/models"
	"github.com/PyWorldGeo/chatroomproject2/internal/service"
)

type AvatarHandler struct {
	svc *service.AccountService
}

func NewAvatarHandler(svc *service.AccountService) *AvatarHandler {
	return &AvatarHandler{svc: svc}
}

// Get は保存したアバター画像を返します
func (h *AvatarHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	avatar, found, err := h.svc.Avatar(r.Context(), userID)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Uint("user_id", userID).Msg("get avatar failed")
		respondError(w, http.StatusInternalServerError, "failed to load avatar")
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "avatar not found")
		return
	}

	// URLにバージョンが付くので長めにキャッシュさせる
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Content-Type", avatar.ContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(avatar.Data)
}

// readAvatar は multipart/form-data の avatar を読み取ります
// ファイルが送られていなければ (nil, nil) を返します
func readAvatar(r *http.Request, cfg config.AvatarConfig) (*models.Avatar, error) {
	file, _, err := r.FormFile("avatar")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New("Upload a valid image.")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, cfg.MaxBytes+1))
	if err != nil {
		return nil, errors.New("Upload a valid image.")
	}
	if int64(len(data)) > cfg.MaxBytes {
		return nil, fmt.Errorf("The image must be at most %d bytes.", cfg.MaxBytes)
	}
	if len(data) == 0 {
		return nil, nil
	}

	// 申告されたContent-Typeではなく中身から判定する
	contentType := http.DetectContentType(data)
	if !cfg.Allows(contentType) {
		return nil, errors.New("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	return &models.Avatar{Data: data, ContentType: contentType}, nil
}
