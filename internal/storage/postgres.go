package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"

	"lexivox/pkg/logger"
	"lexivox/pkg/model"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

var (
	// ErrTaskNotFound is returned when a task id has no row
	ErrTaskNotFound = errors.New("task not found")
	// ErrAssetNotFound is returned when an audio asset lookup misses
	ErrAssetNotFound = errors.New("audio asset not found")
)

type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage connects to the database and applies migrations
func NewPostgresStorage(databaseURL string) (*PostgresStorage, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established")

	if err := runMigrations(databaseURL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database migrations completed successfully")

	return &PostgresStorage{pool: pool}, nil
}

// migrationsURL builds a file:// URL to the migrations directory
// (works on both Windows and Unix).
func migrationsURL() (string, error) {
	migrationsPath, err := filepath.Abs("migrations")
	if err != nil {
		return "", fmt.Errorf("failed to get migrations path: %w", err)
	}

	if runtime.GOOS == "windows" {
		u := &url.URL{
			Scheme: "file",
			Path:   filepath.ToSlash(migrationsPath),
		}
		return u.String(), nil
	}
	return fmt.Sprintf("file://%s", migrationsPath), nil
}

func newMigrator(databaseURL string) (*migrate.Migrate, error) {
	sourceURL, err := migrationsURL()
	if err != nil {
		return nil, err
	}

	logger.Info("Running migrations", zap.String("path", sourceURL))

	db := stdlib.OpenDB(*parseConfig(databaseURL))

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return m, nil
}

// runMigrations applies pending database migrations
func runMigrations(databaseURL string) error {
	m, err := newMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply")
	} else {
		logger.Info("Migrations applied successfully")
	}

	return nil
}

// ResetMigrations drops all tables and re-runs migrations (development)
func ResetMigrations(databaseURL string) error {
	logger.Warn("Resetting database - this will drop all data!")

	m, err := newMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Drop(); err != nil {
		return fmt.Errorf("failed to drop database: %w", err)
	}

	logger.Info("Database dropped successfully")

	if err := m.Up(); err != nil {
		return fmt.Errorf("failed to run migrations after reset: %w", err)
	}

	logger.Info("Database reset and migrations applied successfully")
	return nil
}

// parseConfig parses database URL into pgx config
func parseConfig(databaseURL string) *pgx.ConnConfig {
	config, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		logger.Fatal("Failed to parse database URL", zap.Error(err))
	}
	return config
}

// Close closes the database connection pool
func (s *PostgresStorage) Close() {
	s.pool.Close()
}

// CreateTask inserts a new dictation task
func (s *PostgresStorage) CreateTask(ctx context.Context, task *model.Task) error {
	query := `
		INSERT INTO tasks (
			id, status, mode, recognized_text, attempts, error_text, meta, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)`

	_, err := s.pool.Exec(ctx, query,
		task.ID,
		task.Status,
		task.Mode,
		task.RecognizedText,
		task.Attempts,
		task.ErrorText,
		task.Meta,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetTaskByID retrieves a task by its ID
func (s *PostgresStorage) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	query := `
		SELECT id, status, mode, recognized_text, attempts, error_text, meta, created_at, updated_at
		FROM tasks
		WHERE id = $1`

	var task model.Task
	row := s.pool.QueryRow(ctx, query, id)

	err := row.Scan(
		&task.ID,
		&task.Status,
		&task.Mode,
		&task.RecognizedText,
		&task.Attempts,
		&task.ErrorText,
		&task.Meta,
		&task.CreatedAt,
		&task.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return &task, nil
}

// UpdateTask updates a full task
func (s *PostgresStorage) UpdateTask(ctx context.Context, task *model.Task) error {
	query := `
		UPDATE tasks
		SET status = $2, mode = $3, recognized_text = $4, attempts = $5,
		    error_text = $6, meta = $7, updated_at = $8
		WHERE id = $1`

	result, err := s.pool.Exec(ctx, query,
		task.ID,
		task.Status,
		task.Mode,
		task.RecognizedText,
		task.Attempts,
		task.ErrorText,
		task.Meta,
		task.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrTaskNotFound
	}

	return nil
}

// CreateStudyItems inserts all study items produced for a task
func (s *PostgresStorage) CreateStudyItems(ctx context.Context, items []*model.StudyItem) error {
	query := `
		INSERT INTO study_items (id, task_id, kind, text, phonetic, meaning, example, rank, audio_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	for _, item := range items {
		_, err := s.pool.Exec(ctx, query,
			item.ID,
			item.TaskID,
			item.Kind,
			item.Text,
			item.Phonetic,
			item.Meaning,
			item.Example,
			item.Rank,
			item.AudioID,
			item.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create study item: %w", err)
		}
	}

	return nil
}

// GetStudyItemsByTaskID retrieves a task's study items in rank order
func (s *PostgresStorage) GetStudyItemsByTaskID(ctx context.Context, taskID string) ([]*model.StudyItem, error) {
	query := `
		SELECT id, task_id, kind, text, phonetic, meaning, example, rank, audio_id, created_at
		FROM study_items
		WHERE task_id = $1
		ORDER BY kind, rank ASC`

	rows, err := s.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get study items: %w", err)
	}
	defer rows.Close()

	var items []*model.StudyItem
	for rows.Next() {
		var item model.StudyItem
		err := rows.Scan(
			&item.ID,
			&item.TaskID,
			&item.Kind,
			&item.Text,
			&item.Phonetic,
			&item.Meaning,
			&item.Example,
			&item.Rank,
			&item.AudioID,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan study item: %w", err)
		}
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate study items: %w", err)
	}

	return items, nil
}

// InsertAudioAsset inserts a new audio asset. The key column carries a
// unique constraint; a concurrent duplicate insert is not an error —
// the method reports inserted=false and the caller re-reads the row
// that won.
func (s *PostgresStorage) InsertAudioAsset(ctx context.Context, asset *model.AudioAsset) (bool, error) {
	query := `
		INSERT INTO audio_assets (id, key, source_text, voice_id, format, object_key, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (key) DO NOTHING`

	result, err := s.pool.Exec(ctx, query,
		asset.ID,
		asset.Key,
		asset.SourceText,
		asset.VoiceID,
		asset.Format,
		asset.ObjectKey,
		asset.SizeBytes,
		asset.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert audio asset: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// GetAudioAssetByKey retrieves an asset by its content fingerprint
func (s *PostgresStorage) GetAudioAssetByKey(ctx context.Context, key string) (*model.AudioAsset, error) {
	return s.getAudioAsset(ctx, "key", key)
}

// GetAudioAssetByID retrieves an asset by its identifier
func (s *PostgresStorage) GetAudioAssetByID(ctx context.Context, id string) (*model.AudioAsset, error) {
	return s.getAudioAsset(ctx, "id", id)
}

func (s *PostgresStorage) getAudioAsset(ctx context.Context, column, value string) (*model.AudioAsset, error) {
	query := fmt.Sprintf(`
		SELECT id, key, source_text, voice_id, format, object_key, size_bytes, created_at
		FROM audio_assets
		WHERE %s = $1`, column)

	var asset model.AudioAsset
	row := s.pool.QueryRow(ctx, query, value)

	err := row.Scan(
		&asset.ID,
		&asset.Key,
		&asset.SourceText,
		&asset.VoiceID,
		&asset.Format,
		&asset.ObjectKey,
		&asset.SizeBytes,
		&asset.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to get audio asset: %w", err)
	}

	return &asset, nil
}
