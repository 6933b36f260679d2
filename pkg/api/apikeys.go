package api

import (
	"fmt"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/travigo/geotrack/pkg/api/routes"
	"gopkg.in/yaml.v3"
)

const defaultAPIKeyHeader = "X-Api-Key"

const (
	codeAPIKeyNotConfigured = "api_key_not_configured"
	codeMissingAPIKey       = "missing_api_key"
	codeInvalidAPIKey       = "invalid_api_key"

	messageAPIKeyNotConfigured = "API key authentication is enabled but no keys are configured."
	messageMissingAPIKey       = "Missing required API key header."
	messageInvalidAPIKey       = "The provided API key is invalid."
)

type APIKeyConfig struct {
	Enabled             bool     `yaml:"enabled"`
	HeaderName          string   `yaml:"headerName"`
	Keys                []string `yaml:"keys"`
	AllowAnonymousPaths []string `yaml:"allowAnonymousPaths"`
}

// LoadAPIKeyConfig reads the key file. An empty path turns authentication off.
func LoadAPIKeyConfig(path string) (APIKeyConfig, error) {
	config := APIKeyConfig{}
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("reading api key file: %w", err)
	}

	config.Enabled = true
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("parsing api key file: %w", err)
	}

	return config, nil
}

func (c APIKeyConfig) headerName() string {
	if strings.TrimSpace(c.HeaderName) == "" {
		return defaultAPIKeyHeader
	}
	return c.HeaderName
}

func (c APIKeyConfig) anonymousPaths() []string {
	if c.AllowAnonymousPaths == nil {
		return []string{"/health"}
	}
	return c.AllowAnonymousPaths
}

func NewAPIKeyAuth(config APIKeyConfig) fiber.Handler {
	headerName := config.headerName()
	anonymous := config.anonymousPaths()

	return func(c *fiber.Ctx) error {
		if !config.Enabled {
			return c.Next()
		}

		for _, path := range anonymous {
			if strings.EqualFold(path, c.Path()) {
				return c.Next()
			}
		}

		if len(config.Keys) == 0 {
			return routes.SendError(c, fiber.StatusServiceUnavailable, codeAPIKeyNotConfigured, messageAPIKeyNotConfigured)
		}

		provided := c.Get(headerName)
		if strings.TrimSpace(provided) == "" {
			c.Set(fiber.HeaderWWWAuthenticate, "ApiKey")
			return routes.SendError(c, fiber.StatusUnauthorized, codeMissingAPIKey, fmt.Sprintf("%s '%s'.", messageMissingAPIKey, headerName))
		}

		for _, key := range config.Keys {
			if key == provided {
				return c.Next()
			}
		}

		return routes.SendError(c, fiber.StatusForbidden, codeInvalidAPIKey, messageInvalidAPIKey)
	}
}
