package storage

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"todos/internal/models"
)

// ErrNotFound возвращается, когда задачи с таким ID нет
var ErrNotFound = errors.New("задача не найдена")

// Storage интерфейс для абстракции хранилища
type Storage interface {
	// AddTask сохраняет новую задачу; ID и временные метки назначает хранилище
	AddTask(ctx context.Context, title, description string) (models.Task, error)
	// GetAllTasks возвращает все задачи, новые первыми
	GetAllTasks(ctx context.Context) ([]models.Task, error)
	// UpdateTask меняет только переданные (не nil) поля и обновляет updatedAt
	UpdateTask(ctx context.Context, id string, req models.UpdateTaskRequest) (models.Task, error)
	DeleteTask(ctx context.Context, id string) error

	// Закрытие соединения
	Close() error
}

// now - время с точностью до миллисекунд, ее держат все бэкенды
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// In-memory хранилище для тестов и STORE_DSN=memory
type MemoryStorage struct {
	mu     sync.RWMutex
	tasks  map[int64]memoryEntry
	nextID int64
}

type memoryEntry struct {
	seq  int64
	task models.Task
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		tasks: make(map[int64]memoryEntry),
	}
}

func (m *MemoryStorage) AddTask(ctx context.Context, title, description string) (models.Task, error) {
	if err := ctx.Err(); err != nil {
		return models.Task{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	ts := now()
	task := models.Task{
		ID:          strconv.FormatInt(m.nextID, 10),
		Title:       title,
		Description: description,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	m.tasks[m.nextID] = memoryEntry{seq: m.nextID, task: task}

	return task, nil
}

func (m *MemoryStorage) GetAllTasks(ctx context.Context) ([]models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	entries := make([]memoryEntry, 0, len(m.tasks))
	for _, e := range m.tasks {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.task.CreatedAt.Equal(b.task.CreatedAt) {
			return a.task.CreatedAt.After(b.task.CreatedAt)
		}
		return a.seq > b.seq
	})

	tasks := make([]models.Task, 0, len(entries))
	for _, e := range entries {
		tasks = append(tasks, e.task)
	}
	return tasks, nil
}

func (m *MemoryStorage) UpdateTask(ctx context.Context, id string, req models.UpdateTaskRequest) (models.Task, error) {
	if err := ctx.Err(); err != nil {
		return models.Task{}, err
	}
	key, ok := parseID(id)
	if !ok {
		return models.Task{}, ErrNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.tasks[key]
	if !ok {
		return models.Task{}, ErrNotFound
	}
	if req.Title != nil {
		e.task.Title = *req.Title
	}
	if req.Description != nil {
		e.task.Description = *req.Description
	}
	e.task.UpdatedAt = now()
	m.tasks[key] = e

	return e.task, nil
}

func (m *MemoryStorage) DeleteTask(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, ok := parseID(id)
	if !ok {
		return ErrNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[key]; !ok {
		return ErrNotFound
	}
	delete(m.tasks, key)
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

// parseID: числовые ID используют memory и SQL бэкенды
func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
