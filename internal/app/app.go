// Package app assembles the services shared by the API server and the CLI tools.
package app

import (
	"context"
	"log"

	"github.com/cloudwego/eino/components/model"

	"github.com/aadu/tina-aunty/backend/internal/config"
	"github.com/aadu/tina-aunty/backend/internal/handler"
	"github.com/aadu/tina-aunty/backend/internal/model/topic"
	"github.com/aadu/tina-aunty/backend/internal/service/ai"
	"github.com/aadu/tina-aunty/backend/internal/service/assets"
	"github.com/aadu/tina-aunty/backend/internal/service/dialogue"
	"github.com/aadu/tina-aunty/backend/internal/service/intent"
	"github.com/aadu/tina-aunty/backend/internal/service/session"
	"github.com/aadu/tina-aunty/backend/internal/service/speech"
	"github.com/aadu/tina-aunty/backend/internal/service/translate"
	"github.com/aadu/tina-aunty/backend/internal/service/visual"
)

// App 持有已初始化的服务；未配置的可选服务为 nil。
type App struct {
	Topics   topic.Store
	Library  *assets.Library
	Sessions *session.MemoryStore
	AI       *ai.Service
	Timeouts *intent.TimeoutDetector
	Speech   *speech.Service
	Engine   *dialogue.Engine
}

// New initializes every service the configuration allows. Missing
// credentials disable the matching collaborator instead of failing.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Topics:   topic.NewMemoryStore(topic.Seed()),
		Library:  assets.NewLibrary(cfg.Assets.AlphabetDir, cfg.Assets.BooksDir),
		Sessions: session.NewMemoryStore(),
	}

	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without AI functionality - 请检查模型相关环境变量")
		} else {
			a.AI = aiService
			log.Printf("AI service initialized (provider=%s)", cfg.AI.Provider)
		}
	} else {
		log.Println("模型凭证未配置，跳过 AI 功能初始化")
	}

	var chatModel model.ChatModel
	if a.AI != nil {
		chatModel = a.AI.GetChatModel()
	}
	detector, err := intent.NewTimeoutDetector(ctx, chatModel)
	if err != nil {
		return nil, err
	}
	a.Timeouts = detector

	var translator translate.Translator
	if cfg.Translation.Enabled() {
		translator = translate.NewAzureTranslator(cfg.Translation)
		log.Println("Translation service initialized successfully")
	} else {
		log.Println("翻译凭证未配置，非英文输入将原样发送给模型")
	}

	if cfg.Speech.Enabled {
		a.Speech = speech.NewServiceFromConfig(cfg.Speech, cfg.Assets)
		log.Println("Speech service initialized successfully")
	} else {
		log.Println("语音服务凭证未配置，跳过语音功能初始化")
	}

	deps := dialogue.Deps{
		Store:      a.Sessions,
		Topics:     a.Topics,
		Prompts:    ai.NewPersonaPromptManager(a.Topics),
		Translator: translate.NewAdapter(translator),
		Timeouts:   a.Timeouts,
		Visuals:    visual.NewResolver(a.Library, cfg.Assets.AlphabetURLPrefix),
	}
	if a.AI != nil {
		deps.Completer = a.AI
	}
	a.Engine = dialogue.NewEngine(deps)

	return a, nil
}

// Services 返回路由层需要的服务集合。
func (a *App) Services() handler.Services {
	return handler.Services{
		Topics:  a.Topics,
		Library: a.Library,
		Engine:  a.Engine,
		Speech:  a.Speech,
	}
}
