package dialogue

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aadu/tina-aunty/backend/internal/middleware"
	dialogueservice "github.com/aadu/tina-aunty/backend/internal/service/dialogue"
	"github.com/aadu/tina-aunty/backend/internal/service/visual"
	"github.com/aadu/tina-aunty/backend/pkg/utils"
)

// Handler 对话流程的HTTP处理器
type Handler struct {
	engine *dialogueservice.Engine
}

// New 创建对话处理器
func New(engine *dialogueservice.Engine) *Handler {
	return &Handler{engine: engine}
}

// RegisterRoutes 注册会话相关的路由；调用方负责按会话串行化。
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/start", h.handleStart)
	r.Post("/talk", h.handleTalk)
	r.Post("/check_timeout", h.handleCheckTimeout)
	r.Post("/reset", h.handleReset)
}

type startRequest struct {
	ChildName string `json:"child_name"`
	Topic     string `json:"topic"`
	BookName  string `json:"book_name"`
	Language  string `json:"language"`
}

type startResponse struct {
	Message   string               `json:"message"`
	SessionID string               `json:"sessionId"`
	Cues      dialogueservice.Cues `json:"cues"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type talkResponse struct {
	Response   string            `json:"response"`
	ImageURL   *string           `json:"image_url"`
	Whiteboard visual.Whiteboard `json:"whiteboard"`
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var payload startRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID := middleware.SessionIDFromContext(r.Context())
	result, err := h.engine.StartSession(r.Context(), sessionID, dialogueservice.StartParams{
		ChildName: payload.ChildName,
		Topic:     payload.Topic,
		BookName:  payload.BookName,
		Language:  payload.Language,
	})
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, startResponse{
		Message:   result.Message,
		SessionID: sessionID,
		Cues:      result.Cues,
	})
}

func (h *Handler) handleTalk(w http.ResponseWriter, r *http.Request) {
	var payload messageRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.engine.Turn(r.Context(), middleware.SessionIDFromContext(r.Context()), payload.Message)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, newTalkResponse(result))
}

func newTalkResponse(result *dialogueservice.TurnResult) talkResponse {
	resp := talkResponse{Response: result.Response, Whiteboard: result.Whiteboard}
	if result.ImageURL != "" {
		url := result.ImageURL
		resp.ImageURL = &url
	}
	return resp
}

func (h *Handler) handleCheckTimeout(w http.ResponseWriter, r *http.Request) {
	var payload messageRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	isTimeout, err := h.engine.CheckTimeout(r.Context(), middleware.SessionIDFromContext(r.Context()), payload.Message)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]bool{"is_timeout": isTimeout})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	message, err := h.engine.Reset(r.Context(), middleware.SessionIDFromContext(r.Context()))
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": message})
}
