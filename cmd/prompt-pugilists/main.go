package main

import (
	"errors"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/willemhelmet/prompt-pugalists/internal/api"
	"github.com/willemhelmet/prompt-pugalists/internal/config"
	"github.com/willemhelmet/prompt-pugalists/internal/constants"
	"github.com/willemhelmet/prompt-pugalists/internal/imghost"
	"github.com/willemhelmet/prompt-pugalists/internal/logging"
	"github.com/willemhelmet/prompt-pugalists/internal/oracle"
	"github.com/willemhelmet/prompt-pugalists/internal/room"
	"github.com/willemhelmet/prompt-pugalists/internal/service"
	"github.com/willemhelmet/prompt-pugalists/internal/storage"
	"github.com/willemhelmet/prompt-pugalists/internal/ws"
)

func main() {
	checkEnvVars([]string{constants.EnvMistralAPIKey})

	// Configuration file is optional; a missing file means defaults. Path
	// may be provided via PUGILISTS_CONFIG or defaults to the working
	// directory.
	configPath := os.Getenv(constants.EnvConfigPath)
	if configPath == "" {
		configPath = "./pugilists_config.json"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.Fatal("Invalid configuration file", err, logging.Fields{"config_path": configPath})
		}
		cfg = config.Default()
	}

	// Allow the DB path to be configured via PUGILISTS_DB. Default to a
	// data/ directory for local development.
	dbPath := os.Getenv(constants.EnvDBPath)
	if dbPath == "" {
		dbPath = "./data/pugilists.db"
	}
	db, err := storage.OpenAndMigrate(dbPath)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, nil)
	}
	repo := storage.NewSQLiteRepository(db)

	oracleClient := oracle.NewClient(os.Getenv(constants.EnvMistralAPIKey),
		oracle.WithEngineSystemPrompt(cfg.EngineSystemPrompt),
		oracle.WithCharacterEnhancePrompt(cfg.CharacterEnhancePrompt),
		oracle.WithEnvironmentEnhancePrompt(cfg.EnvironmentEnhancePrompt),
	)
	uploader := imghost.NewClient(os.Getenv(constants.EnvImgBBAPIKey), constants.ImgBBUploadURL)

	registry := room.NewRegistry(cfg.RoomTTL)
	hub := ws.NewHub()
	orchestrator := service.NewOrchestrator(registry, repo, oracleClient, hub, cfg)
	wsHandler := ws.NewHandler(hub, orchestrator)

	// Background sweeper: purge rooms whose TTL elapsed.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if n := registry.ExpireRooms(time.Now()); n > 0 {
				logging.Info("expired rooms purged", logging.Fields{"count": n})
			}
		}
	}()

	characterHandler := api.NewCharacterHandler(repo)
	suggestHandler := api.NewSuggestHandler(oracleClient)
	uploadHandler := api.NewUploadHandler(uploader)

	router := gin.Default()

	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		// Public endpoints
		apiRoutes.GET(constants.RouteHealth, api.Health)
		apiRoutes.GET(constants.RouteVersion, api.Version)
		apiRoutes.POST(constants.RouteSession, api.CreateSession)

		// Authenticated endpoints
		protected := apiRoutes.Group("")
		protected.Use(api.AuthRequired())

		protected.GET(constants.RouteCharacters, characterHandler.ListCharacters)
		protected.POST(constants.RouteCharacters, characterHandler.CreateCharacter)
		protected.GET(constants.RouteCharacterByID, characterHandler.GetCharacter)
		protected.PUT(constants.RouteCharacterByID, characterHandler.UpdateCharacter)
		protected.DELETE(constants.RouteCharacterByID, characterHandler.DeleteCharacter)

		protected.POST(constants.RouteUpload, uploadHandler.Upload)
		protected.GET(constants.RouteSuggestCharacter, suggestHandler.SuggestCharacter)
		protected.GET(constants.RouteSuggestEnvironment, suggestHandler.SuggestEnvironment)
		protected.POST(constants.RouteEnhanceCharacter, suggestHandler.EnhanceCharacter)
		protected.POST(constants.RouteEnhanceEnvironment, suggestHandler.EnhanceEnvironment)
	}

	router.GET(constants.RouteWebsocket, wsHandler.Serve)

	addr := cfg.ServerAddress
	logging.Info("Server started", logging.Fields{constants.LogFieldAddr: addr})
	if err := router.Run(addr); err != nil {
		logging.Fatal("Failed to start server", err, nil)
	}
}

func checkEnvVars(vars []string) {
	for _, v := range vars {
		if os.Getenv(v) == "" {
			logging.Fatal("Required environment variable not set", nil, logging.Fields{"var": v})
		}
	}
}
