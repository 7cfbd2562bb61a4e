package application

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"crazy-bakery/backend/internal/features/config/domain"
)

// ConfigService derives and publishes the storefront's view of the
// configuration.
type ConfigService interface {
	Public(config *domain.AppConfig) domain.PublicConfig
	SaveConfig(config *domain.AppConfig) error
}

// configService is the implementation of ConfigService.
type configService struct {
	publicPath string
	steps      []string
}

// NewConfigService creates a config service. publicPath is where the public
// config file is written; an empty path disables the file. steps lists the
// wizard steps in order.
func NewConfigService(publicPath string, steps []string) ConfigService {
	return &configService{publicPath: publicPath, steps: steps}
}

func (s *configService) Public(config *domain.AppConfig) domain.PublicConfig {
	return domain.PublicConfig{
		CupcakeBoxSizes: append([]int(nil), config.CupcakeBoxSizes...),
		ShippingCost:    config.Pricing.ShippingCost,
		Steps:           append([]string(nil), s.steps...),
	}
}

// SaveConfig writes the public part of config for the storefront to serve
// statically.
func (s *configService) SaveConfig(config *domain.AppConfig) error {
	if s.publicPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.Public(config), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.publicPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", s.publicPath, err)
	}
	if err := os.WriteFile(s.publicPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config to file %s: %w", s.publicPath, err)
	}
	return nil
}
