package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"chat-search/internal/config"
)

const (
	// MaxConns es el techo del pool del servidor.
	MaxConns = 20
	// MigrationMaxConns es el techo del pool del runner de migraciones.
	MigrationMaxConns = 1

	MaxConnIdleTime = 20 * time.Second
	ConnectTimeout  = 10 * time.Second
)

// Settings agrupa los parámetros del pool derivados del entorno.
type Settings struct {
	SSLMode         string
	MaxConnLifetime time.Duration
	MaxConns        int32
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration
}

// SettingsFor devuelve los parámetros fijos para un entorno. SSLMode vacío
// significa respetar lo que trae la cadena de conexión.
func SettingsFor(env config.DBEnvironment, maxConns int32) Settings {
	s := Settings{
		MaxConns:        maxConns,
		MaxConnIdleTime: MaxConnIdleTime,
		ConnectTimeout:  ConnectTimeout,
		MaxConnLifetime: 30 * time.Minute,
	}
	switch env {
	case config.DBEnvLocal:
		s.SSLMode = "disable"
		s.MaxConnLifetime = time.Hour
	case config.DBEnvManaged:
		s.SSLMode = "require"
	}
	return s
}

// NewPool construye y devuelve un pool de conexiones configurado para la API.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return newPool(ctx, cfg, MaxConns)
}

// NewMigrationPool construye el pool de una sola conexión que usa el runner de migraciones.
func NewMigrationPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return newPool(ctx, cfg, MigrationMaxConns)
}

func newPool(ctx context.Context, cfg *config.Config, maxConns int32) (*pgxpool.Pool, error) {
	poolCfg, err := PoolConfig(cfg.DatabaseURL, SettingsFor(cfg.DBEnv, maxConns))
	if err != nil {
		return nil, err
	}
	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// PoolConfig aplica Settings sobre la cadena de conexión.
func PoolConfig(databaseURL string, s Settings) (*pgxpool.Config, error) {
	connString, err := withSSLMode(databaseURL, s.SSLMode)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolCfg.MaxConns = s.MaxConns
	poolCfg.MinConns = 0
	poolCfg.MaxConnLifetime = s.MaxConnLifetime
	poolCfg.MaxConnIdleTime = s.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.ConnConfig.ConnectTimeout = s.ConnectTimeout

	return poolCfg, nil
}

func withSSLMode(databaseURL, sslMode string) (string, error) {
	databaseURL = strings.TrimSpace(databaseURL)
	if databaseURL == "" {
		return "", fmt.Errorf("database url is empty")
	}
	if sslMode == "" {
		return databaseURL, nil
	}
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		u, err := url.Parse(databaseURL)
		if err != nil {
			return "", fmt.Errorf("parse database url: %w", err)
		}
		q := u.Query()
		q.Set("sslmode", sslMode)
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	// Formato clave=valor: reemplazamos o agregamos sslmode.
	fields := strings.Fields(databaseURL)
	out := fields[:0]
	for _, f := range fields {
		if strings.HasPrefix(strings.ToLower(f), "sslmode=") {
			continue
		}
		out = append(out, f)
	}
	out = append(out, "sslmode="+sslMode)
	return strings.Join(out, " "), nil
}

// Ping verifica conectividad con la base de datos.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	return pool.Ping(ctx)
}
