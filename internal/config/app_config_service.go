package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"crazy-bakery/backend/internal/features/config/domain"
	"crazy-bakery/backend/internal/logger"
)

// AppConfigService defines the interface for application configuration management.
type AppConfigService interface {
	LoadAppConfig() (*domain.AppConfig, error)
	SaveAppConfig(config *domain.AppConfig) error
	// Subscribe registers fn to receive every successfully saved configuration.
	Subscribe(fn func(*domain.AppConfig))
}

// appConfigService is the implementation of AppConfigService.
type appConfigService struct {
	configPath string
	log        *logger.Logger

	mu          sync.Mutex
	subscribers []func(*domain.AppConfig)
}

// NewAppConfigService creates a new instance of appConfigService.
func NewAppConfigService(configPath string, log *logger.Logger) AppConfigService {
	return &appConfigService{configPath: configPath, log: log}
}

// LoadAppConfig loads the application configuration from the configured JSON
// file. A missing file yields the defaults.
func (s *appConfigService) LoadAppConfig() (*domain.AppConfig, error) {
	absPath, err := filepath.Abs(s.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", s.configPath, err)
	}
	s.log.Debug("loading app config from %s", absPath)

	data, err := os.ReadFile(absPath)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Warn("app config %s not found, using defaults", absPath)
		return domain.DefaultAppConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read app config file %s: %w", absPath, err)
	}

	appConfig := domain.DefaultAppConfig()
	if err := json.Unmarshal(data, appConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal app config from %s: %w", absPath, err)
	}
	if err := appConfig.Validate(); err != nil {
		return nil, err
	}
	return appConfig, nil
}

// SaveAppConfig validates and saves the application configuration, then
// hands it to the subscribers.
func (s *appConfigService) SaveAppConfig(appConfig *domain.AppConfig) error {
	if err := appConfig.Validate(); err != nil {
		return err
	}
	absPath, err := filepath.Abs(s.configPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for %s: %w", s.configPath, err)
	}

	data, err := json.MarshalIndent(appConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal app config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(absPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write app config to file %s: %w", absPath, err)
	}
	s.log.Info("app config saved to %s", absPath)

	s.mu.Lock()
	subs := append([]func(*domain.AppConfig){}, s.subscribers...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(appConfig)
	}
	return nil
}

func (s *appConfigService) Subscribe(fn func(*domain.AppConfig)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}
