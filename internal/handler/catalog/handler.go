package catalog

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aadu/tina-aunty/backend/internal/model/session"
	"github.com/aadu/tina-aunty/backend/internal/model/topic"
	"github.com/aadu/tina-aunty/backend/internal/service/assets"
	"github.com/aadu/tina-aunty/backend/pkg/utils"
)

// Handler 话题、语言与绘本目录的HTTP处理器
type Handler struct {
	topics  topic.Store
	library *assets.Library
}

// New 创建目录处理器
func New(topics topic.Store, library *assets.Library) *Handler {
	return &Handler{
		topics:  topics,
		library: library,
	}
}

// RegisterRoutes 注册目录相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/topics", h.handleListTopics)
	r.Get("/languages", h.handleListLanguages)
	r.Get("/books", h.handleListBooks)
	r.Get("/pdf/{book}", h.handleServeBook)
}

func (h *Handler) handleListTopics(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.topics.List())
}

func (h *Handler) handleListLanguages(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, session.Languages())
}

func (h *Handler) handleListBooks(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string][]string{"books": h.library.ListBooks()})
}

func (h *Handler) handleServeBook(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "book")

	f, err := h.library.OpenBook(name)
	switch {
	case errors.Is(err, assets.ErrInvalidBookName):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, assets.ErrBookNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		log.Printf("[catalog] failed to open book %s: %v", name, err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to open book")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		log.Printf("[catalog] failed to write book %s: %v", name, err)
	}
}
