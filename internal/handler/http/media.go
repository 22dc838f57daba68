package http

import (
	"MapHub-Backend/internal/blob"
	"MapHub-Backend/internal/domain"
	"MapHub-Backend/internal/handler/response"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MediaOpener resolves a signed blob URL to a local file.
type MediaOpener interface {
	Open(ref, token string) (string, error)
}

// MediaHandler serves blobs behind the signed URLs handed out by blob.LocalStore.
type MediaHandler struct {
	blobs MediaOpener
	log   *zap.Logger
}

func NewMediaHandler(blobs MediaOpener, log *zap.Logger) *MediaHandler {
	return &MediaHandler{blobs: blobs, log: log}
}

// Serve отдает файл по подписанной ссылке
//
//	@Summary	Download a blob
//	@Tags		Media
//	@Produce	octet-stream
//	@Param		ref		path	string	true	"Blob reference"
//	@Param		token	query	string	true	"URL signature"
//	@Success	200
//	@Failure	403	{object}	response.Envelope	"Invalid or expired signature"
//	@Router		/media/{ref} [get]
func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	path, err := h.blobs.Open(chi.URLParam(r, "ref"), r.URL.Query().Get("token"))
	if errors.Is(err, blob.ErrInvalidSignature) {
		response.Error(w, h.log, domain.Forbidden("invalid or expired media link"))
		return
	}
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=300")
	http.ServeFile(w, r, path)
}
