package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"todos/internal/logger"
	"todos/internal/models"
	"todos/internal/view"
)

// sender - часть BotAPI, нужная боту (в тестах подменяется)
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// session - состояние одного чата: свой контроллер и ожидающее подтверждения удаление
type session struct {
	ctrl *view.Controller

	mu      sync.Mutex
	pending string
	confirm bool
}

type Bot struct {
	api sender
	// newController создает контроллер для нового чата
	newController func(confirm func(models.Task) bool) *view.Controller

	mu       sync.Mutex
	sessions map[int64]*session
}

func NewBot(api sender, todos view.API) *Bot {
	return &Bot{
		api: api,
		newController: func(confirm func(models.Task) bool) *view.Controller {
			return view.NewController(todos, view.Options{Confirm: confirm})
		},
		sessions: make(map[int64]*session),
	}
}

func (b *Bot) session(chatID int64) *session {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sessions[chatID]
	if !ok {
		s = &session{}
		s.ctrl = b.newController(func(task models.Task) bool {
			s.mu.Lock()
			defer s.mu.Unlock()
			return s.confirm && s.pending == task.ID
		})
		b.sessions[chatID] = s
	}
	return s
}

// Close останавливает таймеры всех сессий
func (b *Bot) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.sessions {
		s.ctrl.Close()
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user := ""
	if msg.From != nil {
		user = msg.From.UserName
	}
	logger.Info(ctx, "Получено сообщение", "user", user, "text", msg.Text)

	// Обрабатываем команды
	if msg.IsCommand() {
		b.handleCommand(ctx, msg.Chat.ID, msg.Command(), msg.CommandArguments())
		return
	}

	// Обычный текст - новая задача "заголовок | описание"
	if strings.TrimSpace(msg.Text) != "" {
		b.addTask(ctx, msg.Chat.ID, msg.Text)
	}
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, command, args string) {
	switch command {
	case "start":
		b.sendMessage(chatID, welcomeText)
	case "help":
		b.sendMessage(chatID, helpText)
	case "list":
		b.listTasks(ctx, chatID)
	case "add":
		b.addTask(ctx, chatID, args)
	case "edit":
		b.editTask(ctx, chatID, args)
	case "delete":
		b.askDelete(ctx, chatID, args)
	case "yes":
		b.confirmDelete(ctx, chatID, true)
	case "no":
		b.confirmDelete(ctx, chatID, false)
	default:
		b.sendMessage(chatID, "Unknown command. Use /help for the list of commands.")
	}
}

func (b *Bot) listTasks(ctx context.Context, chatID int64) {
	s := b.session(chatID)
	if err := s.ctrl.Load(ctx); err != nil {
		b.sendMessage(chatID, "❌ "+s.ctrl.State().Error)
		return
	}
	b.sendMessage(chatID, formatTasks(s.ctrl.State().Tasks))
}

func (b *Bot) addTask(ctx context.Context, chatID int64, text string) {
	title, description := splitTitleDescription(text)
	s := b.session(chatID)
	s.ctrl.SetAddForm(title, description)

	task, err := s.ctrl.Add(ctx)
	if errors.Is(err, view.ErrIncompleteForm) {
		b.sendMessage(chatID, "Send the task as: /add Title | Description")
		return
	}
	if err != nil {
		b.sendMessage(chatID, "❌ "+s.ctrl.State().Error)
		return
	}

	b.sendMessage(chatID, fmt.Sprintf("✅ %s\n\n#%s %s\n%s", s.ctrl.State().Message, task.ID, task.Title, task.Description))
}

func (b *Bot) editTask(ctx context.Context, chatID int64, args string) {
	id, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	id = strings.TrimPrefix(id, "#")
	if id == "" {
		b.sendMessage(chatID, "Send the edit as: /edit ID Title | Description")
		return
	}

	s := b.session(chatID)
	if err := s.ctrl.Load(ctx); err != nil {
		b.sendMessage(chatID, "❌ "+s.ctrl.State().Error)
		return
	}
	if err := s.ctrl.StartEdit(id); err != nil {
		b.sendMessage(chatID, fmt.Sprintf("Task #%s not found", id))
		return
	}

	title, description := splitTitleDescription(rest)
	form := *s.ctrl.State().Edit
	if title != "" {
		form.Title = title
	}
	if description != "" {
		form.Description = description
	}
	s.ctrl.SetEditForm(form.Title, form.Description)

	task, err := s.ctrl.Save(ctx)
	if err != nil {
		s.ctrl.Cancel()
		if errors.Is(err, view.ErrIncompleteForm) {
			b.sendMessage(chatID, "Title and description must not be empty")
			return
		}
		b.sendMessage(chatID, "❌ "+s.ctrl.State().Error)
		return
	}

	b.sendMessage(chatID, fmt.Sprintf("✅ %s\n\n#%s %s\n%s", s.ctrl.State().Message, task.ID, task.Title, task.Description))
}

func (b *Bot) askDelete(ctx context.Context, chatID int64, args string) {
	id := strings.TrimPrefix(strings.TrimSpace(args), "#")
	if id == "" {
		b.sendMessage(chatID, "Send the task ID: /delete 1")
		return
	}

	s := b.session(chatID)
	if err := s.ctrl.Load(ctx); err != nil {
		b.sendMessage(chatID, "❌ "+s.ctrl.State().Error)
		return
	}
	task, ok := s.ctrl.State().Find(id)
	if !ok {
		b.sendMessage(chatID, fmt.Sprintf("Task #%s not found", id))
		return
	}

	s.mu.Lock()
	s.pending, s.confirm = id, false
	s.mu.Unlock()

	b.sendMessage(chatID, fmt.Sprintf("Delete this todo? #%s %s\n/yes or /no", task.ID, task.Title))
}

func (b *Bot) confirmDelete(ctx context.Context, chatID int64, yes bool) {
	s := b.session(chatID)

	s.mu.Lock()
	id := s.pending
	s.confirm = yes
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.pending, s.confirm = "", false
		s.mu.Unlock()
	}()

	if id == "" {
		b.sendMessage(chatID, "Nothing to confirm")
		return
	}

	err := s.ctrl.Delete(ctx, id)
	switch {
	case errors.Is(err, view.ErrNotConfirmed):
		b.sendMessage(chatID, "Cancelled")
	case errors.Is(err, view.ErrUnknownTask):
		b.sendMessage(chatID, fmt.Sprintf("Task #%s not found", id))
	case err != nil:
		b.sendMessage(chatID, "❌ "+s.ctrl.State().Error)
	default:
		b.sendMessage(chatID, fmt.Sprintf("🗑️ Task #%s deleted", id))
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)

	if _, err := b.api.Send(msg); err != nil {
		logger.Error(context.Background(), err, "Ошибка отправки сообщения", "chat", chatID)
	}
}

// splitTitleDescription разбирает "заголовок | описание"
func splitTitleDescription(text string) (string, string) {
	title, description, _ := strings.Cut(text, "|")
	return strings.TrimSpace(title), strings.TrimSpace(description)
}

func formatTasks(tasks []models.Task) string {
	if len(tasks) == 0 {
		return "📭 No tasks yet"
	}

	var response strings.Builder
	response.WriteString("📋 Tasks:\n\n")
	for _, task := range tasks {
		fmt.Fprintf(&response, "#%s %s\n", task.ID, task.Title)
		if task.Description != "" {
			fmt.Fprintf(&response, "    %s\n", task.Description)
		}
	}
	return strings.TrimRight(response.String(), "\n")
}

const welcomeText = `🎯 Welcome to TodoBot!

/list - show all tasks
/add Title | Description - add a task
/edit ID Title | Description - edit a task
/delete ID - delete a task
/help - help`

const helpText = `🤖 Commands

/list - show all tasks
/add Title | Description - add a task (plain text works too)
/edit ID Title | Description - edit a task; empty parts are kept
/delete ID - delete a task, then /yes or /no`
