// Package view - состояние клиента списка задач и переходы между состояниями.
// Reduce чистая функция; Controller выполняет побочные эффекты (запросы к API,
// подтверждение, таймеры сообщений) и возвращает их результат действиями.
package view

import "todos/internal/models"

// Пользовательские сообщения
const (
	MsgAdded   = "Item added successfully"
	MsgUpdated = "Item updated successfully"

	ErrMsgFetch  = "Failed to fetch todos"
	ErrMsgCreate = "Unable to create todo item"
	ErrMsgUpdate = "Unable to update todo item"
	ErrMsgDelete = "Unable to delete todo"
)

// Form - форма добавления
type Form struct {
	Title       string
	Description string
}

// EditForm - форма редактирования; в State хранится указатель, nil = режим выключен
type EditForm struct {
	ID          string
	Title       string
	Description string
}

type State struct {
	Tasks []models.Task
	Add   Form
	Edit  *EditForm

	// Removing - ID задачи, для которой идет анимация удаления
	Removing string

	Message string
	// MessageSeq растет при каждом новом сообщении, по нему таймер узнает свое сообщение
	MessageSeq uint64
	Error      string
}

// Action - событие, меняющее состояние
type Action interface {
	action()
}

type (
	Loaded         struct{ Tasks []models.Task }
	LoadFailed     struct{}
	AddInput       struct{ Title, Description string }
	Added          struct{ Task models.Task }
	AddFailed      struct{}
	EditStarted    struct{ Task models.Task }
	EditInput      struct{ Title, Description string }
	Updated        struct{ Task models.Task }
	UpdateFailed   struct{}
	EditCancelled  struct{}
	RemovalStarted struct{ ID string }
	Deleted        struct{ ID string }
	DeleteFailed   struct{ ID string }
	// MessageExpired снимает сообщение, только если после него не было нового
	MessageExpired struct{ Seq uint64 }
)

func (Loaded) action()         {}
func (LoadFailed) action()     {}
func (AddInput) action()       {}
func (Added) action()          {}
func (AddFailed) action()      {}
func (EditStarted) action()    {}
func (EditInput) action()      {}
func (Updated) action()        {}
func (UpdateFailed) action()   {}
func (EditCancelled) action()  {}
func (RemovalStarted) action() {}
func (Deleted) action()        {}
func (DeleteFailed) action()   {}
func (MessageExpired) action() {}

// Reduce возвращает новое состояние и не меняет s
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case Loaded:
		s.Tasks = cloneTasks(a.Tasks)
		s.Error = ""

	case LoadFailed:
		s.Error = ErrMsgFetch

	case AddInput:
		s.Add = Form{Title: a.Title, Description: a.Description}

	case Added:
		// без повторного запроса списка: задача дописывается в конец
		tasks := make([]models.Task, 0, len(s.Tasks)+1)
		tasks = append(tasks, s.Tasks...)
		s.Tasks = append(tasks, a.Task)
		s.Add = Form{}
		s.Message = MsgAdded
		s.MessageSeq++
		s.Error = ""

	case AddFailed:
		s.Error = ErrMsgCreate

	case EditStarted:
		s.Edit = &EditForm{ID: a.Task.ID, Title: a.Task.Title, Description: a.Task.Description}

	case EditInput:
		if s.Edit != nil {
			s.Edit = &EditForm{ID: s.Edit.ID, Title: a.Title, Description: a.Description}
		}

	case Updated:
		tasks := cloneTasks(s.Tasks)
		for i := range tasks {
			if tasks[i].ID == a.Task.ID {
				tasks[i].Title = a.Task.Title
				tasks[i].Description = a.Task.Description
				if !a.Task.UpdatedAt.IsZero() {
					tasks[i].UpdatedAt = a.Task.UpdatedAt
				}
			}
		}
		s.Tasks = tasks
		s.Edit = nil
		s.Message = MsgUpdated
		s.MessageSeq++
		s.Error = ""

	case UpdateFailed:
		s.Error = ErrMsgUpdate

	case EditCancelled:
		s.Edit = nil

	case RemovalStarted:
		s.Removing = a.ID

	case Deleted:
		tasks := make([]models.Task, 0, len(s.Tasks))
		for _, t := range s.Tasks {
			if t.ID != a.ID {
				tasks = append(tasks, t)
			}
		}
		s.Tasks = tasks
		if s.Removing == a.ID {
			s.Removing = ""
		}
		if s.Edit != nil && s.Edit.ID == a.ID {
			s.Edit = nil
		}

	case DeleteFailed:
		if s.Removing == a.ID {
			s.Removing = ""
		}
		s.Error = ErrMsgDelete

	case MessageExpired:
		if s.MessageSeq == a.Seq {
			s.Message = ""
		}
	}
	return s
}

// Find ищет задачу в локальном списке
func (s State) Find(id string) (models.Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

func cloneTasks(in []models.Task) []models.Task {
	out := make([]models.Task, len(in))
	copy(out, in)
	return out
}

func cloneState(s State) State {
	s.Tasks = cloneTasks(s.Tasks)
	if s.Edit != nil {
		e := *s.Edit
		s.Edit = &e
	}
	return s
}
