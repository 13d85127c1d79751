package chat

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"ragchat/internal/service"
)

//go:embed templates/chat.html
var templatesFS embed.FS

type Handler struct {
	usecase ChatUsecase
	page    *template.Template
	title   string
}

func NewHandler(usecase ChatUsecase, title string) (*Handler, error) {
	page, err := template.ParseFS(templatesFS, "templates/chat.html")
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = "Chatbot"
	}
	return &Handler{usecase: usecase, page: page, title: title}, nil
}

// Index handles GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.page.Execute(w, map[string]string{"Title": h.title}); err != nil {
		ctxzap.Extract(r.Context()).Error("failed to render chat page", zap.Error(err))
	}
}

// Answer handles GET|POST /get. The answer is written as plain text, unchanged.
func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := ctxzap.Extract(ctx)

	if err := r.ParseForm(); err != nil {
		h.respondError(w, http.StatusBadRequest, err)
		return
	}
	msg := r.Form.Get("msg")
	if strings.TrimSpace(msg) == "" {
		log.Warn("missing msg")
		h.respondError(w, http.StatusBadRequest, service.ErrEmptyQuestion)
		return
	}

	res, err := h.usecase.Ask(ctx, msg)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrEmptyQuestion) {
			status = http.StatusBadRequest
		}
		log.Error("failed to answer", zap.Error(err))
		h.respondError(w, status, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(res.Answer))
}

func (h *Handler) respondError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte("Error: " + err.Error()))
}
