package main

import (
	"context"
	"log"

	"github.com/chefscript/backend/config"
	"github.com/chefscript/backend/internal/api"
	"github.com/chefscript/backend/internal/canvas"
	"github.com/chefscript/backend/internal/database"
	"github.com/chefscript/backend/internal/router"
	"github.com/chefscript/backend/internal/server"
	"github.com/chefscript/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	var images *service.ImageStore
	if s3Config, err := config.NewS3Config(context.Background()); err != nil {
		log.Printf("Image storage disabled: %v", err)
	} else {
		images = service.NewImageStore(s3Config)
	}

	// Providers are optional; a missing key disables that provider.
	llm, err := service.NewLLMService(cfg)
	if err != nil {
		log.Printf("LLM provider disabled: %v", err)
		llm = nil
	}
	recraft, err := service.NewRecraftService(cfg, service.NewRecraftScheduler())
	if err != nil {
		log.Printf("Recraft provider disabled: %v", err)
		recraft = nil
	}
	flux, err := service.NewFluxService(cfg)
	if err != nil {
		log.Printf("Flux provider disabled: %v", err)
		flux = nil
	}

	auth := service.NewAuthService(db, cfg.JWTSecret)
	ledger := service.NewTokenLedger(db)
	history := service.NewHistoryService(redisClient)
	templates := service.NewTemplateService(db, canvas.NewCompositor(), images)
	generator := service.NewGeneratorService(llm, flux, recraft, ledger, history, templates, images)
	winston := service.NewWinstonService(cfg.ProxyBaseURL+"/api/plagiarism", ledger)
	rewriter := service.NewRewriterService(llm)

	engine := router.SetupRouter(
		api.NewProxyHandler(cfg),
		api.NewAuthHandler(auth),
		api.NewRecipeHandler(generator, history, auth),
		api.NewStyleHandler(db, recraft, ledger, images, auth),
		api.NewTemplateHandler(templates, auth),
		api.NewPlagiarismHandler(winston, auth),
		api.NewRewriteHandler(rewriter, auth),
		api.NewFeedSpyHandler(llm, ledger, auth),
		api.NewTokenHandler(ledger, auth),
	)

	srv := server.NewServer(engine)
	if err := srv.Start(cfg.ServerHost, cfg.ServerPort); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}
