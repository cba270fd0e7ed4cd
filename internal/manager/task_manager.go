package manager

import (
	"context"
	"errors"
	"strings"
	"time"

	"todos/internal/logger"
	"todos/internal/models"
	"todos/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	addTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoapp_tasks_added_total",
			Help: "Total number of AddTask operations",
		},
		[]string{"status"},
	)

	updateTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoapp_tasks_updated_total",
			Help: "Total number of UpdateTask operations",
		},
		[]string{"status"},
	)

	deleteTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoapp_tasks_deleted_total",
			Help: "Total number of DeleteTask operations",
		},
		[]string{"status"},
	)

	listTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoapp_tasks_listed_total",
			Help: "Total number of ListTasks operations",
		},
		[]string{"status"},
	)

	taskTitleLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "todoapp_task_title_length_bytes",
			Help:    "Length distribution of task titles",
			Buckets: []float64{10, 50, 100, 500, 1000},
		},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "todoapp_task_operation_duration_seconds",
			Help:    "Duration of task operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Статусы для меток метрик
const (
	statusSuccess  = "success"
	statusInvalid  = "invalid"
	statusNotFound = "not_found"
	statusError    = "error"
)

type TaskManager struct {
	storage storage.Storage
}

func NewTaskManager(s storage.Storage) *TaskManager {
	return &TaskManager{storage: s}
}

func observe(op string) func() {
	startTime := time.Now()
	return func() {
		operationDuration.WithLabelValues(op).Observe(time.Since(startTime).Seconds())
	}
}

// AddTask создает задачу; заголовок обрезается по краям и не может быть пустым
func (tm *TaskManager) AddTask(ctx context.Context, title, description string) (models.Task, error) {
	defer observe("add")()

	title = strings.TrimSpace(title)
	if title == "" {
		addTaskCount.WithLabelValues(statusInvalid).Inc()
		return models.Task{}, ErrValidation
	}

	task, err := tm.storage.AddTask(ctx, title, description)
	if err != nil {
		addTaskCount.WithLabelValues(statusError).Inc()
		logger.Error(ctx, err, "Ошибка сохранения задачи")
		return models.Task{}, &InternalError{Op: "add task", Err: err}
	}

	addTaskCount.WithLabelValues(statusSuccess).Inc()
	taskTitleLength.Observe(float64(len(title)))
	logger.Debug(ctx, "Задача создана", "id", task.ID)

	return task, nil
}

// GetAllTasks возвращает все задачи, новые первыми
func (tm *TaskManager) GetAllTasks(ctx context.Context) ([]models.Task, error) {
	defer observe("list")()

	tasks, err := tm.storage.GetAllTasks(ctx)
	if err != nil {
		listTaskCount.WithLabelValues(statusError).Inc()
		logger.Error(ctx, err, "Ошибка получения задач")
		return nil, &InternalError{Op: "list tasks", Err: err}
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	listTaskCount.WithLabelValues(statusSuccess).Inc()
	return tasks, nil
}

// UpdateTask применяет только переданные поля, остальные сохраняются.
// Переданный пустой заголовок - ошибка валидации.
func (tm *TaskManager) UpdateTask(ctx context.Context, id string, req models.UpdateTaskRequest) (models.Task, error) {
	defer observe("update")()

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			updateTaskCount.WithLabelValues(statusInvalid).Inc()
			return models.Task{}, ErrValidation
		}
		req.Title = &title
	}

	task, err := tm.storage.UpdateTask(ctx, id, req)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			updateTaskCount.WithLabelValues(statusNotFound).Inc()
			return models.Task{}, ErrNotFound
		}
		updateTaskCount.WithLabelValues(statusError).Inc()
		logger.Error(ctx, err, "Ошибка обновления задачи", "id", id)
		return models.Task{}, &InternalError{Op: "update task", Err: err}
	}

	updateTaskCount.WithLabelValues(statusSuccess).Inc()
	logger.Debug(ctx, "Задача обновлена", "id", id)
	return task, nil
}

func (tm *TaskManager) DeleteTask(ctx context.Context, id string) error {
	defer observe("delete")()

	if err := tm.storage.DeleteTask(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			deleteTaskCount.WithLabelValues(statusNotFound).Inc()
			return ErrNotFound
		}
		deleteTaskCount.WithLabelValues(statusError).Inc()
		logger.Error(ctx, err, "Ошибка удаления задачи", "id", id)
		return &InternalError{Op: "delete task", Err: err}
	}

	deleteTaskCount.WithLabelValues(statusSuccess).Inc()
	logger.Debug(ctx, "Задача удалена", "id", id)
	return nil
}
