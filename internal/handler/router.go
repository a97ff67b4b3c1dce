package handler

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aadu/tina-aunty/backend/internal/config"
	"github.com/aadu/tina-aunty/backend/internal/handler/catalog"
	"github.com/aadu/tina-aunty/backend/internal/handler/dialogue"
	"github.com/aadu/tina-aunty/backend/internal/handler/speech"
	middlewarePkg "github.com/aadu/tina-aunty/backend/internal/middleware"
	"github.com/aadu/tina-aunty/backend/internal/model/topic"
	"github.com/aadu/tina-aunty/backend/internal/service/assets"
	dialogueService "github.com/aadu/tina-aunty/backend/internal/service/dialogue"
	speechService "github.com/aadu/tina-aunty/backend/internal/service/speech"
)

// Services 汇总路由需要的核心服务；Speech 为 nil 表示语音未配置。
type Services struct {
	Topics  topic.Store
	Library *assets.Library
	Engine  *dialogueService.Engine
	Speech  *speechService.Service
}

// NewRouter wires HTTP routes to core services.
func NewRouter(cfg config.Config, svc Services) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(cfg.Server.AllowedOrigins))

	locks := middlewarePkg.NewIdentityLocks()

	// 避免把 nil 的 *Service 装进接口
	var speaker speech.SpeechService
	var wsSpeaker dialogue.Speaker
	if svc.Speech != nil {
		speaker = svc.Speech
		wsSpeaker = svc.Speech
	}

	catalogHandler := catalog.New(svc.Topics, svc.Library)
	dialogueHandler := dialogue.New(svc.Engine)
	speechHandler := speech.New(speaker, svc.Engine)
	wsHandler := dialogue.NewWebSocketHandler(svc.Engine, wsSpeaker, locks)

	registerSessionRoutes := func(sr chi.Router) {
		sr.Use(middlewarePkg.SessionIdentity(cfg.Server.SecureCookies))
		catalogHandler.RegisterRoutes(sr)

		// 长连接自行按帧加锁，不能放进 SingleFlight 分组
		wsHandler.RegisterWebSocketRoutes(sr)

		sr.Group(func(serialized chi.Router) {
			serialized.Use(middlewarePkg.SingleFlight(locks))
			dialogueHandler.RegisterRoutes(serialized)
			speechHandler.RegisterRoutes(serialized)
		})
	}

	r.Route("/api", func(api chi.Router) {
		registerSessionRoutes(api)
	})

	// 兼容旧版前端直接请求根路径
	r.Group(func(legacy chi.Router) {
		registerSessionRoutes(legacy)
	})

	staticDir := cfg.Assets.StaticDir
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, filepath.Join(staticDir, "index.html"))
	})

	return r
}

