package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"todos/internal/logger"
	"todos/internal/models"

	_ "modernc.org/sqlite"
)

// dialect - различия между SQLite и MySQL, которые видит SQLStorage
type dialect struct {
	name   string
	schema []string
}

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS todos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL CHECK (title <> ''),
			description TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_todos_created_at ON todos (created_at)`,
	},
}

// SQLStorage хранит задачи в таблице todos через database/sql
type SQLStorage struct {
	db      *sql.DB
	dialect dialect
}

func NewSQLiteStorage(ctx context.Context, dbPath string) (*SQLStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("ошибка создания директории %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath) // "sqlite" вместо "sqlite3"
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия БД: %w", err)
	}
	// SQLite не любит параллельных писателей
	db.SetMaxOpenConns(1)

	s, err := newSQLStorage(ctx, db, sqliteDialect)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "SQLite база данных инициализирована", "path", dbPath)
	return s, nil
}

func newSQLStorage(ctx context.Context, db *sql.DB, d dialect) (*SQLStorage, error) {
	// Проверяем соединение
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	s := &SQLStorage{db: db, dialect: d}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate создает таблицы, если их еще нет
func (s *SQLStorage) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ошибка миграции (%s): %w", s.dialect.name, err)
		}
	}
	return nil
}

// Закрытие соединения
func (s *SQLStorage) Close() error {
	return s.db.Close()
}

func (s *SQLStorage) AddTask(ctx context.Context, title, description string) (models.Task, error) {
	query := `
	INSERT INTO todos (title, description, created_at, updated_at)
	VALUES (?, ?, ?, ?)`

	ts := now()
	result, err := s.db.ExecContext(ctx, query, title, description, ts, ts)
	if err != nil {
		return models.Task{}, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return models.Task{}, err
	}

	return models.Task{
		ID:          strconv.FormatInt(id, 10),
		Title:       title,
		Description: description,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}, nil
}

func (s *SQLStorage) GetAllTasks(ctx context.Context) ([]models.Task, error) {
	query := `
	SELECT id, title, description, created_at, updated_at
	FROM todos ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

func (s *SQLStorage) getTask(ctx context.Context, id int64) (models.Task, error) {
	query := `
	SELECT id, title, description, created_at, updated_at
	FROM todos WHERE id = ?`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrNotFound
	}
	return task, err
}

func (s *SQLStorage) UpdateTask(ctx context.Context, id string, req models.UpdateTaskRequest) (models.Task, error) {
	key, ok := parseID(id)
	if !ok {
		return models.Task{}, ErrNotFound
	}

	// Одна команда UPDATE: непереданные поля остаются как были
	query := `
	UPDATE todos
	SET title = COALESCE(?, title), description = COALESCE(?, description), updated_at = ?
	WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, nullable(req.Title), nullable(req.Description), now(), key)
	if err != nil {
		return models.Task{}, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return models.Task{}, err
	}
	if rowsAffected == 0 {
		return models.Task{}, ErrNotFound
	}

	return s.getTask(ctx, key)
}

func (s *SQLStorage) DeleteTask(ctx context.Context, id string) error {
	key, ok := parseID(id)
	if !ok {
		return ErrNotFound
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM todos WHERE id = ?", key)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var task models.Task
	var id int64
	if err := row.Scan(&id, &task.Title, &task.Description, &task.CreatedAt, &task.UpdatedAt); err != nil {
		return models.Task{}, err
	}
	task.ID = strconv.FormatInt(id, 10)
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	return task, nil
}

// Вспомогательная функция для сканирования задач
func scanTasks(rows *sql.Rows) ([]models.Task, error) {
	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
