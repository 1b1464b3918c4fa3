package api

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"projectpage/internal/page"
)

type PageHandler struct {
	Renderer *page.Renderer
}

func NewPageHandler(r *page.Renderer) *PageHandler {
	return &PageHandler{Renderer: r}
}

// Page renders the project page for the Host the client addressed.
func (h *PageHandler) Page(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.Renderer.RenderTo(r.Context(), &buf, r.Host); err != nil {
		log.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
