package dialogue

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/aadu/tina-aunty/backend/internal/middleware"
	"github.com/aadu/tina-aunty/backend/internal/model/session"
	speechmodel "github.com/aadu/tina-aunty/backend/internal/model/speech"
	dialogueservice "github.com/aadu/tina-aunty/backend/internal/service/dialogue"
	"github.com/aadu/tina-aunty/backend/internal/service/intent"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
)

// Speaker turns reply text into a playable audio URL.
type Speaker interface {
	Speak(ctx context.Context, sessionID string, language session.Language, text string) (*speechmodel.SpeakResult, error)
}

// WebSocketHandler 会话 WebSocket：同一连接上承载开始、对话、暂停检测与朗读。
type WebSocketHandler struct {
	engine   *dialogueservice.Engine
	speaker  Speaker
	locks    *middleware.IdentityLocks
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器；speaker 可以为 nil。
func NewWebSocketHandler(engine *dialogueservice.Engine, speaker Speaker, locks *middleware.IdentityLocks) *WebSocketHandler {
	if locks == nil {
		locks = middleware.NewIdentityLocks()
	}
	return &WebSocketHandler{
		engine:  engine,
		speaker: speaker,
		locks:   locks,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type speakRequest struct {
	Text string `json:"text"`
}

// connectionState 记录单个连接的暂停状态和提示语。
type connectionState struct {
	sessionID   string
	timeoutMode bool
	cues        dialogueservice.Cues
}

func newConnectionState(sessionID string) *connectionState {
	return &connectionState{
		sessionID: sessionID,
		cues:      dialogueservice.NewCues(session.DefaultChildName),
	}
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		http.Error(w, "session identity is required", http.StatusBadRequest)
		return
	}

	// Upgrade 只写入传入的响应头，身份 cookie 需要显式带上。
	respHeader := http.Header{}
	for _, c := range w.Header().Values("Set-Cookie") {
		respHeader.Add("Set-Cookie", c)
	}

	conn, err := h.upgrader.Upgrade(w, r, respHeader)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[websocket] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.pingLoop(ctx, conn)

	state := newConnectionState(sessionID)
	if sess, err := h.engine.Session(ctx, sessionID); err == nil {
		state.cues = dialogueservice.NewCues(sess.ChildName)
	}

	h.send(conn, state, "connected", map[string]any{"sessionId": sessionID})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))

		unlock := h.locks.Lock(sessionID)
		h.handleMessage(ctx, conn, state, &msg)
		unlock()
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, conn *websocket.Conn, state *connectionState, msg *inboundMessage) {
	switch msg.Type {
	case "start":
		h.handleStartMessage(ctx, conn, state, msg.Data)
	case "talk":
		h.handleTalkMessage(ctx, conn, state, msg.Data)
	case "check_timeout":
		h.handleCheckTimeoutMessage(ctx, conn, state, msg.Data)
	case "speak":
		h.handleSpeakMessage(ctx, conn, state, msg.Data)
	case "reset":
		h.handleResetMessage(ctx, conn, state)
	default:
		h.sendError(conn, "unsupported message type: "+msg.Type)
	}
}

func (h *WebSocketHandler) handleStartMessage(ctx context.Context, conn *websocket.Conn, state *connectionState, raw json.RawMessage) {
	var payload startRequest
	if !decodeFrame(raw, &payload) {
		h.sendError(conn, "invalid start payload")
		return
	}

	result, err := h.engine.StartSession(ctx, state.sessionID, dialogueservice.StartParams{
		ChildName: payload.ChildName,
		Topic:     payload.Topic,
		BookName:  payload.BookName,
		Language:  payload.Language,
	})
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}

	state.timeoutMode = false
	state.cues = result.Cues
	h.send(conn, state, "start", startResponse{
		Message:   result.Message,
		SessionID: state.sessionID,
		Cues:      result.Cues,
	})
}

// handleTalkMessage 暂停期间只接受“回来了”一类的话，其余输入直接忽略。
func (h *WebSocketHandler) handleTalkMessage(ctx context.Context, conn *websocket.Conn, state *connectionState, raw json.RawMessage) {
	var payload messageRequest
	if !decodeFrame(raw, &payload) {
		h.sendError(conn, "invalid talk payload")
		return
	}
	text := strings.TrimSpace(payload.Message)

	if state.timeoutMode {
		if intent.IsReturnPhrase(text) {
			state.timeoutMode = false
			h.send(conn, state, "welcome_back", map[string]string{"message": state.cues.WelcomeBack})
			return
		}
		log.Printf("[websocket] ignoring input during timeout session=%s", state.sessionID)
		return
	}

	if text != "" {
		if intent.IsFarewell(text) {
			h.send(conn, state, "farewell", map[string]string{"message": state.cues.Farewell})
			return
		}

		isTimeout, err := h.engine.CheckTimeout(ctx, state.sessionID, text)
		if err != nil {
			h.sendError(conn, err.Error())
			return
		}
		if isTimeout {
			state.timeoutMode = true
			h.send(conn, state, "timeout", map[string]string{"message": state.cues.TimeoutAck})
			return
		}
	}

	result, err := h.engine.Turn(ctx, state.sessionID, payload.Message)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}
	h.send(conn, state, "reply", newTalkResponse(result))
}

func (h *WebSocketHandler) handleCheckTimeoutMessage(ctx context.Context, conn *websocket.Conn, state *connectionState, raw json.RawMessage) {
	var payload messageRequest
	if !decodeFrame(raw, &payload) {
		h.sendError(conn, "invalid check_timeout payload")
		return
	}

	isTimeout, err := h.engine.CheckTimeout(ctx, state.sessionID, payload.Message)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}
	h.send(conn, state, "check_timeout", map[string]bool{"is_timeout": isTimeout})
}

func (h *WebSocketHandler) handleSpeakMessage(ctx context.Context, conn *websocket.Conn, state *connectionState, raw json.RawMessage) {
	var payload speakRequest
	if !decodeFrame(raw, &payload) {
		h.sendError(conn, "invalid speak payload")
		return
	}
	if h.speaker == nil {
		h.send(conn, state, "speak", speechmodel.SpeakResult{Status: speechmodel.StatusError, Message: "speech unavailable"})
		return
	}

	language := session.DefaultLanguage
	if sess, err := h.engine.Session(ctx, state.sessionID); err == nil {
		language = sess.Language
	}

	result, err := h.speaker.Speak(ctx, state.sessionID, language, payload.Text)
	if err != nil {
		h.send(conn, state, "speak", speechmodel.SpeakResult{Status: speechmodel.StatusError, Message: err.Error()})
		return
	}
	h.send(conn, state, "speak", result)
}

func (h *WebSocketHandler) handleResetMessage(ctx context.Context, conn *websocket.Conn, state *connectionState) {
	message, err := h.engine.Reset(ctx, state.sessionID)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}
	state.timeoutMode = false
	h.send(conn, state, "reset", map[string]string{"message": message})
}

func decodeFrame(raw json.RawMessage, dst interface{}) bool {
	if len(raw) == 0 {
		return true
	}
	return json.Unmarshal(raw, dst) == nil
}

func (h *WebSocketHandler) send(conn *websocket.Conn, state *connectionState, msgType string, data interface{}) {
	msg := outgoingMessage{
		Type:      msgType,
		SessionID: state.sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write %s failed: %v", msgType, err)
	}
}

func (h *WebSocketHandler) sendError(conn *websocket.Conn, message string) {
	msg := outgoingMessage{
		Type:      "error",
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write error failed: %v", err)
	}
}

// pingLoop 定期发送ping消息
func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}
