package speech

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aadu/tina-aunty/backend/internal/middleware"
	"github.com/aadu/tina-aunty/backend/internal/model/session"
	speechmodel "github.com/aadu/tina-aunty/backend/internal/model/speech"
	speechsvc "github.com/aadu/tina-aunty/backend/internal/service/speech"
	"github.com/aadu/tina-aunty/backend/pkg/utils"
)

// SpeechService 抽象语音业务，便于测试与替换实现
type SpeechService interface {
	Speak(ctx context.Context, sessionID string, language session.Language, text string) (*speechmodel.SpeakResult, error)
}

// SessionLookup resolves the session so speech follows its language.
type SessionLookup interface {
	Session(ctx context.Context, id string) (session.Session, error)
}

// Handler 语音服务的HTTP处理器
type Handler struct {
	speechSvc SpeechService
	sessions  SessionLookup
}

// New 创建语音处理器；speechSvc 为 nil 时朗读接口返回不可用。
func New(speechSvc SpeechService, sessions SessionLookup) *Handler {
	return &Handler{
		speechSvc: speechSvc,
		sessions:  sessions,
	}
}

// RegisterRoutes 注册语音相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/speak", h.handleSpeak)
	r.Get("/speech/health", h.handleHealth)
}

type speakRequest struct {
	Text string `json:"text"`
}

func (h *Handler) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var req speakRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.respondSpeakError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if h.speechSvc == nil {
		h.respondSpeakError(w, http.StatusServiceUnavailable, "speech service unavailable")
		return
	}

	sessionID := middleware.SessionIDFromContext(r.Context())
	result, err := h.speechSvc.Speak(r.Context(), sessionID, h.resolveLanguage(r.Context(), sessionID), req.Text)
	if err != nil {
		if errors.Is(err, speechsvc.ErrEmptyText) {
			h.respondSpeakError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("[speech] TTS error: %v", err)
		h.respondSpeakError(w, http.StatusBadGateway, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) resolveLanguage(ctx context.Context, sessionID string) session.Language {
	if h.sessions == nil || sessionID == "" {
		return session.DefaultLanguage
	}
	sess, err := h.sessions.Session(ctx, sessionID)
	if err != nil {
		return session.DefaultLanguage
	}
	return sess.Language
}

// handleHealth 健康检查端点
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if h.speechSvc == nil {
		status = "disabled"
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"service": "speech",
	})
}

func (h *Handler) respondSpeakError(w http.ResponseWriter, status int, message string) {
	utils.RespondJSON(w, status, speechmodel.SpeakResult{Status: speechmodel.StatusError, Message: message})
}
