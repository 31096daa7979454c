package llm

import (
	"errors"
	"strings"

	"go.uber.org/zap"
)

// ErrMissingAPIKey se devuelve cuando se pide el proveedor real sin credenciales.
var ErrMissingAPIKey = errors.New("llm api key is not configured")

// ProviderConfig reúne lo necesario para construir el cliente del proveedor.
type ProviderConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// NewProvider construye el cliente HTTP del proveedor configurado.
func NewProvider(cfg ProviderConfig, logger *zap.Logger) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	return NewHTTPClient(cfg.BaseURL, cfg.APIKey, cfg.Model, logger), nil
}
