package view

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"todos/internal/logger"
	"todos/internal/models"
)

// DefaultMessageTTL - через сколько исчезает сообщение об успехе
const DefaultMessageTTL = 3 * time.Second

var (
	// ErrIncompleteForm - заголовок или описание пустые, запрос не отправлялся
	ErrIncompleteForm = errors.New("title and description are required")
	ErrNotEditing     = errors.New("no task is being edited")
	ErrUnknownTask    = errors.New("task is not in the list")
	ErrNotConfirmed   = errors.New("deletion not confirmed")
)

// API - то, что контроллеру нужно от сервера; реализуется client.Client
type API interface {
	List(ctx context.Context) ([]models.Task, error)
	Create(ctx context.Context, title, description string) (models.Task, error)
	Update(ctx context.Context, id string, req models.UpdateTaskRequest) (models.Task, error)
	Delete(ctx context.Context, id string) (string, error)
}

type Options struct {
	// MessageTTL <= 0 означает DefaultMessageTTL
	MessageTTL time.Duration
	// RemovalDelay - пауза перед запросом на удаление (анимация); 0 - без нее
	RemovalDelay time.Duration
	// Confirm спрашивает пользователя перед удалением; nil - удаление всегда отклоняется
	Confirm func(models.Task) bool
	// OnChange вызывается после каждого изменения состояния, вне блокировки
	OnChange func(State)
}

type Controller struct {
	api  API
	opts Options

	mu    sync.Mutex
	state State
	timer *time.Timer
}

func NewController(api API, opts Options) *Controller {
	if opts.MessageTTL <= 0 {
		opts.MessageTTL = DefaultMessageTTL
	}
	return &Controller{api: api, opts: opts}
}

// State возвращает копию текущего состояния
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneState(c.state)
}

// Dispatch применяет действие и при новом сообщении заводит таймер его скрытия
func (c *Controller) Dispatch(a Action) State {
	c.mu.Lock()
	c.state = Reduce(c.state, a)
	snapshot := cloneState(c.state)
	switch a.(type) {
	case Added, Updated:
		// отсчет заново, даже если текст сообщения тот же
		c.scheduleExpiryLocked(snapshot.MessageSeq)
	}
	c.mu.Unlock()

	if c.opts.OnChange != nil {
		c.opts.OnChange(snapshot)
	}
	return snapshot
}

func (c *Controller) scheduleExpiryLocked(seq uint64) {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.opts.MessageTTL, func() {
		c.Dispatch(MessageExpired{Seq: seq})
	})
}

// Close останавливает таймер сообщений
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Load загружает полный список задач
func (c *Controller) Load(ctx context.Context) error {
	tasks, err := c.api.List(ctx)
	if err != nil {
		logger.Error(ctx, err, "Не удалось загрузить задачи")
		c.Dispatch(LoadFailed{})
		return err
	}
	c.Dispatch(Loaded{Tasks: tasks})
	return nil
}

func (c *Controller) SetAddForm(title, description string) {
	c.Dispatch(AddInput{Title: title, Description: description})
}

// Add отправляет форму добавления; без заголовка или описания ничего не делает
func (c *Controller) Add(ctx context.Context) (models.Task, error) {
	form := c.State().Add
	if strings.TrimSpace(form.Title) == "" || strings.TrimSpace(form.Description) == "" {
		return models.Task{}, ErrIncompleteForm
	}

	task, err := c.api.Create(ctx, form.Title, form.Description)
	if err != nil {
		logger.Error(ctx, err, "Не удалось создать задачу")
		c.Dispatch(AddFailed{})
		return models.Task{}, err
	}
	c.Dispatch(Added{Task: task})
	return task, nil
}

// StartEdit копирует поля задачи в форму редактирования
func (c *Controller) StartEdit(id string) error {
	task, ok := c.State().Find(id)
	if !ok {
		return ErrUnknownTask
	}
	c.Dispatch(EditStarted{Task: task})
	return nil
}

func (c *Controller) SetEditForm(title, description string) {
	c.Dispatch(EditInput{Title: title, Description: description})
}

// Save отправляет форму редактирования и правит локальную запись на месте
func (c *Controller) Save(ctx context.Context) (models.Task, error) {
	edit := c.State().Edit
	if edit == nil {
		return models.Task{}, ErrNotEditing
	}
	if strings.TrimSpace(edit.Title) == "" || strings.TrimSpace(edit.Description) == "" {
		return models.Task{}, ErrIncompleteForm
	}

	title, description := edit.Title, edit.Description
	task, err := c.api.Update(ctx, edit.ID, models.UpdateTaskRequest{
		Title:       &title,
		Description: &description,
	})
	if err != nil {
		logger.Error(ctx, err, "Не удалось обновить задачу", "id", edit.ID)
		c.Dispatch(UpdateFailed{})
		return models.Task{}, err
	}
	if task.ID == "" {
		task = models.Task{ID: edit.ID, Title: title, Description: description}
	}
	c.Dispatch(Updated{Task: task})
	return task, nil
}

// Cancel выходит из режима редактирования без запроса к серверу
func (c *Controller) Cancel() {
	c.Dispatch(EditCancelled{})
}

// Delete спрашивает подтверждение, выдерживает RemovalDelay и удаляет задачу
func (c *Controller) Delete(ctx context.Context, id string) error {
	task, ok := c.State().Find(id)
	if !ok {
		return ErrUnknownTask
	}
	if c.opts.Confirm == nil || !c.opts.Confirm(task) {
		return ErrNotConfirmed
	}

	if c.opts.RemovalDelay > 0 {
		c.Dispatch(RemovalStarted{ID: id})
		select {
		case <-time.After(c.opts.RemovalDelay):
		case <-ctx.Done():
			c.Dispatch(DeleteFailed{ID: id})
			return ctx.Err()
		}
	}

	if _, err := c.api.Delete(ctx, id); err != nil {
		logger.Error(ctx, err, "Не удалось удалить задачу", "id", id)
		c.Dispatch(DeleteFailed{ID: id})
		return err
	}
	c.Dispatch(Deleted{ID: id})
	return nil
}
