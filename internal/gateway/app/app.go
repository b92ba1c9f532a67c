package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/leon2m/cursoronline/internal/agent"
	"github.com/leon2m/cursoronline/internal/assist"
	"github.com/leon2m/cursoronline/internal/gateway/config"
	"github.com/leon2m/cursoronline/internal/gateway/handler"
	"github.com/leon2m/cursoronline/internal/gateway/run"
	"github.com/leon2m/cursoronline/internal/gateway/server"
	"github.com/leon2m/cursoronline/internal/gateway/service/auth"
	"github.com/leon2m/cursoronline/internal/gateway/service/workspace"
	"github.com/leon2m/cursoronline/internal/llm"
	"github.com/leon2m/cursoronline/internal/preview"
)

type App struct {
	server     *server.Server
	workspaces *workspace.Service
	llmClient  llm.Client
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	stores, err := initStores(cfg)
	if err != nil {
		return nil, err
	}

	llmClient, err := initLLM(cfg)
	if err != nil {
		return nil, err
	}

	// Services
	authSvc := auth.NewPersistentService(cfg.Auth.StorePath, cfg.Auth.Delay)
	workspaceSvc := workspace.NewService(stores.projects)
	planner := agent.NewLLMPlanner(llmClient)
	coder := agent.NewLLMCoder(llmClient)
	runSvc := run.New(workspaceSvc, planner, coder, stores.snapshots, cfg.LLM.CallTimeout)
	assistSvc := assist.NewService(llmClient)
	previewSvc := preview.NewService(llmClient, 64, 5*time.Minute)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	projectHandler := handler.NewProjectHandler(authHandler, workspaceSvc)
	runHandler := handler.NewRunHandler(authHandler, runSvc)
	assistHandler := handler.NewAssistHandler(authHandler, assistSvc)
	previewHandler := handler.NewPreviewHandler(authHandler, workspaceSvc, previewSvc)

	// Routing & Server
	mux := server.NewMux(authHandler, projectHandler, runHandler, assistHandler, previewHandler)
	srv := server.New(cfg.Port, mux)

	return &App{
		server:     srv,
		workspaces: workspaceSvc,
		llmClient:  llmClient,
	}, nil
}

func initLLM(cfg *config.Config) (llm.Client, error) {
	var base llm.Client
	if cfg.LLM.UseFake {
		log.Printf("llm: using fake client")
		base = llm.NewFakeClient()
	} else {
		cli, err := llm.NewGeminiClient(context.Background(), cfg.LLM.GeminiAPIKey, cfg.LLM.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
		}
		base = cli
	}
	return llm.Wrap(base,
		llm.WithLogging(nil),
		llm.Retry(cfg.LLM.MaxRetries, 300*time.Millisecond),
		llm.RateLimit(cfg.LLM.RPS, cfg.LLM.Burst),
	), nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.workspaces.Shutdown()
	_ = a.llmClient.Close()
	return a.server.Shutdown(ctx)
}
