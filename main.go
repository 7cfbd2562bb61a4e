package main

import (
	"log"
	"net/http"
	"time"

	"crazy-bakery/backend/internal/config"
	config_app "crazy-bakery/backend/internal/features/config/application"
	config_domain "crazy-bakery/backend/internal/features/config/domain"
	config_http "crazy-bakery/backend/internal/features/config/presentation/http"
	"crazy-bakery/backend/internal/features/wizard/application"
	"crazy-bakery/backend/internal/features/wizard/domain"
	"crazy-bakery/backend/internal/features/wizard/infrastructure"
	wizard_http "crazy-bakery/backend/internal/features/wizard/presentation/http"
	"crazy-bakery/backend/internal/logger"
	"crazy-bakery/backend/internal/metrics"
	"crazy-bakery/backend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	lg := logger.New(logger.ParseLevel(cfg.LogLevel), nil)
	m := metrics.New()

	appConfigService := config.NewAppConfigService(cfg.AppConfigPath, lg)
	appConfig, err := appConfigService.LoadAppConfig()
	if err != nil {
		log.Fatalf("Failed to load app config: %v", err)
	}

	// Leaf services
	hc := &http.Client{Timeout: 30 * time.Second}
	profiles := infrastructure.NewProfileClient(cfg.BakeryAPIURL, hc, lg)
	tokens := infrastructure.NewTokenIssuer(cfg.SessionSecret, cfg.SessionTTL)
	assistant, err := infrastructure.NewDecorationAssistant(infrastructure.AIConfig{
		ImageProvider: cfg.ImageProvider,
		APIKey:        cfg.OpenAIAPIKey,
		BaseURL:       cfg.OpenAIBaseURL,
		BakeryURL:     cfg.BakeryAPIURL,
		Settings:      assistantSettings(appConfig),
	}, hc, lg)
	if err != nil {
		log.Fatalf("Failed to create decoration assistant: %v", err)
	}
	journal, err := infrastructure.OpenJournal(cfg.JournalDSN, lg.Level() == logger.LevelVerbose)
	if err != nil {
		log.Fatalf("Failed to open submission journal: %v", err)
	}

	catalog := infrastructure.NewCatalogClient(cfg.BakeryAPIURL, hc, lg)

	hub := ws.NewHub(lg)
	go hub.Run()

	wizards := application.NewWizardService(application.Dependencies{
		Catalog:   catalog,
		Pricing:   catalog,
		Assistant: assistant,
		Auth:      infrastructure.NewIdentityClient(cfg.IdentityAPIURL, cfg.IdentityAPIKey, profiles, tokens, hc, lg),
		Orders:    infrastructure.NewOrderClient(cfg.BakeryAPIURL, hc, lg),
		Geography: infrastructure.NewGeographyClient(cfg.BakeryAPIURL, hc, lg),
		Journal:   journal,
		Metrics:   m,
		Log:       lg,
	}, policyFrom(appConfig), hub)

	// Saved settings apply to wizards opened afterwards and to the next
	// assistant call.
	appConfigService.Subscribe(func(c *config_domain.AppConfig) {
		wizards.SetPolicy(policyFrom(c))
		assistant.Configure(assistantSettings(c))
	})

	configService := config_app.NewConfigService(cfg.PublicConfig, domain.StepNames())
	if err := configService.SaveConfig(appConfig); err != nil {
		lg.Warn("public config not written: %v", err)
	}

	r := gin.Default()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	// Wizard API routes
	sessions := func(token string) domain.Session { return tokens.Session(token, profiles) }
	wizard_http.NewWizardHandler(wizards, sessions, hub, lg).RegisterRoutes(r.Group("/api/wizards"))

	// Config API routes
	config_http.NewAppConfigHandler(appConfigService, configService).RegisterRoutes(r.Group("/api/config"))

	handler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})(r)

	lg.Info("listening on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		log.Fatal(err)
	}
}

// policyFrom maps the app config to the wizard's business rules.
func policyFrom(c *config_domain.AppConfig) application.Policy {
	p := application.DefaultPolicy()
	p.ShippingCost = c.Pricing.ShippingCost
	p.RequireResolvedPrice = c.Pricing.RequireResolvedPrice
	if len(c.CupcakeBoxSizes) > 0 {
		p.CupcakeBoxSizes = append([]int(nil), c.CupcakeBoxSizes...)
	}
	p.CloseDelay = time.Duration(c.CloseDelayMS) * time.Millisecond
	p.IdleTimeout = time.Duration(c.IdleTimeoutMin) * time.Minute
	return p
}

func assistantSettings(c *config_domain.AppConfig) infrastructure.AssistantSettings {
	return infrastructure.AssistantSettings{
		DecorationRules: c.DecorationRules,
		Model:           c.ModelParams.Model,
		ImageModel:      c.ModelParams.ImageModel,
		Temperature:     c.ModelParams.Temperature,
		MaxTokens:       c.ModelParams.MaxTokens,
	}
}
