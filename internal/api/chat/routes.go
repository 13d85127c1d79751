package chat

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the chat page and the answer endpoint
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/", h.Index)
	r.Get("/get", h.Answer)
	r.Post("/get", h.Answer)
}
