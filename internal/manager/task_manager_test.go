package manager

import (
	"context"
	"errors"
	"testing"

	"todos/internal/models"
	"todos/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func strPtr(s string) *string { return &s }

// brokenStorage имитирует недоступное хранилище
type brokenStorage struct {
	err error
}

func (b brokenStorage) AddTask(context.Context, string, string) (models.Task, error) {
	return models.Task{}, b.err
}
func (b brokenStorage) GetAllTasks(context.Context) ([]models.Task, error) { return nil, b.err }
func (b brokenStorage) UpdateTask(context.Context, string, models.UpdateTaskRequest) (models.Task, error) {
	return models.Task{}, b.err
}
func (b brokenStorage) DeleteTask(context.Context, string) error { return b.err }
func (b brokenStorage) Close() error                            { return nil }

func TestAddTask(t *testing.T) {
	tm := NewTaskManager(storage.NewMemoryStorage())
	ctx := context.Background()

	task, err := tm.AddTask(ctx, "  Купить молоко  ", "2 литра")
	if err != nil {
		t.Fatalf("Ошибка при добавлении задачи: %v", err)
	}
	if task.ID == "" {
		t.Error("Ожидался назначенный ID")
	}
	if task.Title != "Купить молоко" {
		t.Errorf("Заголовок должен быть обрезан, получено %q", task.Title)
	}

	tasks, err := tm.GetAllTasks(ctx)
	if err != nil {
		t.Fatalf("GetAllTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != task.ID || tasks[0].Description != "2 литра" {
		t.Errorf("Список не содержит созданную задачу: %+v", tasks)
	}
}

func TestAddEmptyTask(t *testing.T) {
	tm := NewTaskManager(storage.NewMemoryStorage())
	ctx := context.Background()

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := tm.AddTask(ctx, title, "desc")
		if !errors.Is(err, ErrValidation) {
			t.Errorf("AddTask(%q): ожидалась ErrValidation, получено %v", title, err)
		}
	}

	tasks, _ := tm.GetAllTasks(ctx)
	if len(tasks) != 0 {
		t.Errorf("Невалидные задачи не должны сохраняться, получено %d", len(tasks))
	}
}

func TestUpdateTask(t *testing.T) {
	tm := NewTaskManager(storage.NewMemoryStorage())
	ctx := context.Background()
	task, _ := tm.AddTask(ctx, "Old", "Old desc")

	updated, err := tm.UpdateTask(ctx, task.ID, models.UpdateTaskRequest{
		Title:       strPtr("New Title"),
		Description: strPtr("New Desc"),
	})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.Title != "New Title" || updated.Description != "New Desc" {
		t.Errorf("Поля не обновлены: %+v", updated)
	}

	tasks, _ := tm.GetAllTasks(ctx)
	count := 0
	for _, tk := range tasks {
		if tk.ID == task.ID {
			count++
			if tk.Title != "New Title" || tk.Description != "New Desc" {
				t.Errorf("Список содержит старые значения: %+v", tk)
			}
		}
	}
	if count != 1 {
		t.Errorf("Ожидалась ровно одна задача с ID %s, найдено %d", task.ID, count)
	}
}

func TestUpdateTaskEmptyTitle(t *testing.T) {
	tm := NewTaskManager(storage.NewMemoryStorage())
	ctx := context.Background()
	task, _ := tm.AddTask(ctx, "Keep", "")

	_, err := tm.UpdateTask(ctx, task.ID, models.UpdateTaskRequest{Title: strPtr("  ")})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Ожидалась ErrValidation, получено %v", err)
	}

	tasks, _ := tm.GetAllTasks(ctx)
	if tasks[0].Title != "Keep" {
		t.Errorf("Заголовок не должен меняться: %q", tasks[0].Title)
	}
}

func TestUpdateDeleteNotFound(t *testing.T) {
	tm := NewTaskManager(storage.NewMemoryStorage())
	ctx := context.Background()
	task, _ := tm.AddTask(ctx, "Keep", "")

	if _, err := tm.UpdateTask(ctx, "424242", models.UpdateTaskRequest{Title: strPtr("x")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateTask: ожидалась ErrNotFound, получено %v", err)
	}
	if err := tm.DeleteTask(ctx, "424242"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteTask: ожидалась ErrNotFound, получено %v", err)
	}

	tasks, _ := tm.GetAllTasks(ctx)
	if len(tasks) != 1 || tasks[0].ID != task.ID || tasks[0].Title != "Keep" {
		t.Errorf("Хранилище изменилось: %+v", tasks)
	}
}

func TestDeleteTask(t *testing.T) {
	tm := NewTaskManager(storage.NewMemoryStorage())
	ctx := context.Background()
	task, _ := tm.AddTask(ctx, "Удалить меня", "")

	if err := tm.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}

	tasks, _ := tm.GetAllTasks(ctx)
	for _, tk := range tasks {
		if tk.ID == task.ID {
			t.Fatal("Удаленная задача осталась в списке")
		}
	}
}

func TestInternalError(t *testing.T) {
	cause := errors.New("connection refused")
	tm := NewTaskManager(brokenStorage{err: cause})
	ctx := context.Background()

	_, err := tm.AddTask(ctx, "x", "")
	var ie *InternalError
	if !errors.As(err, &ie) {
		t.Fatalf("Ожидалась InternalError, получено %T %v", err, err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("InternalError должна оборачивать исходную ошибку")
	}

	if _, err := tm.GetAllTasks(ctx); !errors.As(err, &ie) {
		t.Errorf("GetAllTasks: ожидалась InternalError, получено %v", err)
	}
	if _, err := tm.UpdateTask(ctx, "1", models.UpdateTaskRequest{}); !errors.As(err, &ie) {
		t.Errorf("UpdateTask: ожидалась InternalError, получено %v", err)
	}
	if err := tm.DeleteTask(ctx, "1"); !errors.As(err, &ie) {
		t.Errorf("DeleteTask: ожидалась InternalError, получено %v", err)
	}
}

func TestAddTaskMetrics(t *testing.T) {
	// Сохраняем оригинальные метрики
	originalAddTaskCount := addTaskCount
	originalTaskTitleLength := taskTitleLength

	// Создаем новый регистр для тестов
	registry := prometheus.NewRegistry()

	testAddTaskCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoapp_tasks_added_total",
			Help: "Test counter",
		},
		[]string{"status"},
	)
	testTaskTitleLength := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "todoapp_task_title_length_bytes",
			Help:    "Test histogram",
			Buckets: []float64{10, 50, 100, 500, 1000},
		},
	)
	registry.MustRegister(testAddTaskCount)
	registry.MustRegister(testTaskTitleLength)

	// Подменяем глобальные метрики
	addTaskCount = testAddTaskCount
	taskTitleLength = testTaskTitleLength
	defer func() {
		addTaskCount = originalAddTaskCount
		taskTitleLength = originalTaskTitleLength
	}()

	tm := NewTaskManager(storage.NewMemoryStorage())
	ctx := context.Background()

	if _, err := tm.AddTask(ctx, "Valid title", ""); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	if successCount := testutil.ToFloat64(testAddTaskCount.WithLabelValues(statusSuccess)); successCount != 1 {
		t.Errorf("Expected 1 success, got %v", successCount)
	}
	if n := testutil.CollectAndCount(testTaskTitleLength); n != 1 {
		t.Errorf("Expected histogram to be collected once, got %d", n)
	}

	if _, err := tm.AddTask(ctx, "", ""); err == nil {
		t.Error("Expected error for empty title")
	}
	if invalid := testutil.ToFloat64(testAddTaskCount.WithLabelValues(statusInvalid)); invalid != 1 {
		t.Errorf("Expected 1 invalid, got %v", invalid)
	}
}
