package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// migrationLockKey serializa runners concurrentes vía pg_advisory_lock.
const migrationLockKey int64 = 7261834501

// Migration es un script versionado. La versión es el prefijo numérico del
// archivo y se ordena por su valor, no por el texto.
type Migration struct {
	Version string
	Name    string
	SQL     string

	number int
}

// AppliedMigration es una fila de schema_migrations.
type AppliedMigration struct {
	Version   string    `json:"version"`
	Name      string    `json:"name"`
	AppliedAt time.Time `json:"appliedAt"`
}

// MigrationStatus combina el catálogo embebido con lo aplicado en la base.
type MigrationStatus struct {
	Version   string     `json:"version"`
	Name      string     `json:"name"`
	AppliedAt *time.Time `json:"appliedAt,omitempty"`
}

// EmbeddedMigrations devuelve las migraciones compiladas en el binario.
func EmbeddedMigrations() ([]Migration, error) {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		return nil, err
	}
	return LoadMigrations(sub)
}

// LoadMigrations lee archivos NNNN_nombre.sql de fsys y los ordena por versión.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	seen := make(map[int]string)
	var out []Migration
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		base := strings.TrimSuffix(e.Name(), ".sql")
		version, name, ok := strings.Cut(base, "_")
		if !ok || version == "" || name == "" || strings.Trim(version, "0123456789") != "" {
			return nil, fmt.Errorf("invalid migration file name %q", e.Name())
		}
		number, err := strconv.Atoi(version)
		if err != nil {
			return nil, fmt.Errorf("invalid migration version %q: %w", e.Name(), err)
		}
		if prev, dup := seen[number]; dup {
			return nil, fmt.Errorf("duplicate migration version %s (%s, %s)", version, prev, e.Name())
		}
		seen[number] = e.Name()

		body, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		out = append(out, Migration{Version: version, Name: name, SQL: string(body), number: number})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].number < out[j].number })
	return out, nil
}

func pendingMigrations(all []Migration, applied map[string]bool) []Migration {
	var out []Migration
	for _, m := range all {
		if !applied[m.Version] {
			out = append(out, m)
		}
	}
	return out
}

// Migrator aplica migraciones exactamente una vez cada una.
type Migrator struct {
	pool       *pgxpool.Pool
	migrations []Migration
	logger     *zap.Logger
}

func NewMigrator(pool *pgxpool.Pool, migrations []Migration, logger *zap.Logger) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{pool: pool, migrations: migrations, logger: logger}
}

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// Up aplica las migraciones pendientes en orden y devuelve las versiones aplicadas.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockKey); err != nil {
		return nil, fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		if _, err := conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", migrationLockKey); err != nil {
			m.logger.Warn("release migration lock failed", zap.Error(err))
		}
	}()

	if _, err := conn.Exec(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, conn.Conn())
	if err != nil {
		return nil, err
	}

	var done []string
	for _, mig := range pendingMigrations(m.migrations, applied) {
		start := time.Now()
		err := pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.SQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx,
				"INSERT INTO schema_migrations (version, name) VALUES ($1, $2)",
				mig.Version, mig.Name,
			)
			return err
		})
		if err != nil {
			return done, fmt.Errorf("apply migration %s_%s: %w", mig.Version, mig.Name, err)
		}
		m.logger.Info("migration applied",
			zap.String("version", mig.Version),
			zap.String("name", mig.Name),
			zap.Duration("duration", time.Since(start)),
		)
		done = append(done, mig.Version)
	}
	return done, nil
}

// Applied lista las migraciones registradas en schema_migrations.
func (m *Migrator) Applied(ctx context.Context) ([]AppliedMigration, error) {
	const query = `
		SELECT version, name, applied_at
		FROM schema_migrations
		ORDER BY version ASC
	`
	rows, err := m.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	var out []AppliedMigration
	for rows.Next() {
		var a AppliedMigration
		if err := rows.Scan(&a.Version, &a.Name, &a.AppliedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Status devuelve el estado de cada migración conocida.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if _, err := m.pool.Exec(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	return mergeStatus(m.migrations, applied), nil
}

func mergeStatus(all []Migration, applied []AppliedMigration) []MigrationStatus {
	byVersion := make(map[string]AppliedMigration, len(applied))
	for _, a := range applied {
		byVersion[a.Version] = a
	}
	out := make([]MigrationStatus, 0, len(all))
	for _, mig := range all {
		st := MigrationStatus{Version: mig.Version, Name: mig.Name}
		if a, ok := byVersion[mig.Version]; ok {
			at := a.AppliedAt
			st.AppliedAt = &at
		}
		out = append(out, st)
	}
	return out
}

func appliedVersions(ctx context.Context, conn *pgx.Conn) (map[string]bool, error) {
	rows, err := conn.Query(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	out := make(map[string]bool, len(versions))
	for _, v := range versions {
		out[v] = true
	}
	return out, nil
}
