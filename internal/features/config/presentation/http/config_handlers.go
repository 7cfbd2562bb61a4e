package http

import (
	"net/http"

	"crazy-bakery/backend/internal/config"
	"crazy-bakery/backend/internal/features/config/application"
	"crazy-bakery/backend/internal/features/config/domain"

	"github.com/gin-gonic/gin"
)

// AppConfigHandler holds the app config services.
type AppConfigHandler struct {
	appConfigService config.AppConfigService
	configService    application.ConfigService
}

// NewAppConfigHandler creates a new AppConfigHandler.
func NewAppConfigHandler(appConfigService config.AppConfigService, configService application.ConfigService) *AppConfigHandler {
	return &AppConfigHandler{
		appConfigService: appConfigService,
		configService:    configService,
	}
}

// RegisterRoutes mounts the config endpoints on rg.
func (h *AppConfigHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/app", h.GetAppConfigHandler)
	rg.POST("/app", h.SaveAppConfigHandler)
	rg.GET("/public", h.GetPublicConfigHandler)
}

// GetAppConfigHandler handles fetching the application configuration.
func (h *AppConfigHandler) GetAppConfigHandler(c *gin.Context) {
	appConfig, err := h.appConfigService.LoadAppConfig()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load app config: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, appConfig)
}

// SaveAppConfigHandler handles saving the application configuration.
func (h *AppConfigHandler) SaveAppConfigHandler(c *gin.Context) {
	// Fields the request omits keep their defaults.
	appConfig := domain.DefaultAppConfig()
	if err := c.ShouldBindJSON(appConfig); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := appConfig.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.appConfigService.SaveAppConfig(appConfig); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save app config: " + err.Error()})
		return
	}
	if err := h.configService.SaveConfig(appConfig); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish public config: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "App config saved successfully"})
}

// GetPublicConfigHandler returns what the storefront needs to render the wizard.
func (h *AppConfigHandler) GetPublicConfigHandler(c *gin.Context) {
	appConfig, err := h.appConfigService.LoadAppConfig()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load app config: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.configService.Public(appConfig))
}
