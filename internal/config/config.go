package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v10"
)

// DBEnvironment identifica el tipo de despliegue de la base de datos.
type DBEnvironment string

const (
	DBEnvLocal       DBEnvironment = "local"
	DBEnvManaged     DBEnvironment = "managed"
	DBEnvUnspecified DBEnvironment = "unspecified"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string        `env:"HTTP_PORT" envDefault:"8080"`
	MetricsPort string        `env:"METRICS_PORT" envDefault:"9090"`
	DatabaseURL string        `env:"DATABASE_URL,required"`
	DBEnv       DBEnvironment `env:"DB_ENV"`

	AuthSecret           string `env:"AUTH_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"60"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`
	PublicChatRead       bool   `env:"AUTH_PUBLIC_CHAT_READ" envDefault:"true"`
	SecureCookies        bool   `env:"SECURE_COOKIES" envDefault:"false"`

	LLMAPIKey        string `env:"LLM_API_KEY"`
	LLMBaseURL       string `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel         string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	SuggestionSource string `env:"SUGGESTION_SOURCE"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	CORSOrigins    []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	DebugEndpoints bool     `env:"DEBUG_ENDPOINTS" envDefault:"false"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	switch DBEnvironment(strings.ToLower(strings.TrimSpace(string(c.DBEnv)))) {
	case "":
		// Sin DB_ENV explícito mantenemos la heurística histórica sobre la URL.
		c.DBEnv = ClassifyDatabaseURL(c.DatabaseURL)
	case DBEnvLocal:
		c.DBEnv = DBEnvLocal
	case DBEnvManaged:
		c.DBEnv = DBEnvManaged
	case DBEnvUnspecified:
		c.DBEnv = DBEnvUnspecified
	default:
		return fmt.Errorf("invalid DB_ENV %q", c.DBEnv)
	}

	source := strings.ToLower(strings.TrimSpace(c.SuggestionSource))
	switch source {
	case "":
		source = "mock"
		if strings.TrimSpace(c.LLMAPIKey) != "" {
			source = "llm"
		}
	case "mock", "llm":
	default:
		return fmt.Errorf("invalid SUGGESTION_SOURCE %q", c.SuggestionSource)
	}
	c.SuggestionSource = source
	return nil
}

// managedHostSuffixes son los dominios de proveedores Postgres gestionados conocidos.
var managedHostSuffixes = []string{
	".neon.tech",
	".supabase.co",
	".supabase.com",
	".rds.amazonaws.com",
	".postgres.vercel-storage.com",
	".render.com",
}

// ClassifyDatabaseURL infiere el entorno a partir del host de la cadena de conexión.
func ClassifyDatabaseURL(raw string) DBEnvironment {
	host := strings.ToLower(databaseHost(raw))
	if host == "" {
		return DBEnvUnspecified
	}
	if host == "localhost" || host == "::1" {
		return DBEnvLocal
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return DBEnvLocal
	}
	for _, suffix := range managedHostSuffixes {
		if strings.HasSuffix(host, suffix) {
			return DBEnvManaged
		}
	}
	return DBEnvUnspecified
}

func databaseHost(raw string) string {
	raw = strings.TrimSpace(raw)
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return u.Hostname()
	}
	// Formato clave=valor (host=... user=...).
	for _, field := range strings.Fields(raw) {
		key, value, ok := strings.Cut(field, "=")
		if ok && strings.EqualFold(key, "host") {
			return strings.Trim(value, "'\"")
		}
	}
	return ""
}
