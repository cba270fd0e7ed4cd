package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"todos/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTaskDocumentToModel(t *testing.T) {
	oid := primitive.NewObjectID()
	moscow := time.FixedZone("MSK", 3*60*60)
	created := time.Date(2024, 5, 1, 15, 0, 0, 0, moscow)

	task := taskDocument{
		ID:          oid,
		Title:       "Buy milk",
		Description: "2 liters",
		CreatedAt:   created,
		UpdatedAt:   created.Add(time.Minute),
	}.toModel()

	if task.ID != oid.Hex() || task.Title != "Buy milk" || task.Description != "2 liters" {
		t.Fatalf("task=%+v", task)
	}
	if task.CreatedAt.Location() != time.UTC || !task.CreatedAt.Equal(created) {
		t.Errorf("createdAt=%v, want %v in UTC", task.CreatedAt, created)
	}
	if !task.UpdatedAt.Equal(created.Add(time.Minute)) {
		t.Errorf("updatedAt=%v", task.UpdatedAt)
	}
}

func TestTaskDocumentFieldNames(t *testing.T) {
	raw, err := bson.Marshal(taskDocument{Title: "t", CreatedAt: now(), UpdatedAt: now()})
	if err != nil {
		t.Fatalf("bson.Marshal: %v", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		t.Fatalf("bson.Unmarshal: %v", err)
	}

	for _, key := range []string{"title", "description", "createdAt", "updatedAt"} {
		if _, ok := m[key]; !ok {
			t.Errorf("поле %q отсутствует в документе: %v", key, m)
		}
	}
	// пустой _id не пишется, его назначает MongoDB
	if _, ok := m["_id"]; ok {
		t.Errorf("нулевой _id попал в документ: %v", m)
	}
}

func TestUpdateSetOnlyProvidedFields(t *testing.T) {
	ts := now()

	set := updateSet(models.UpdateTaskRequest{}, ts)
	if len(set) != 1 || set[0].Key != "updatedAt" {
		t.Fatalf("пустой запрос: %v", set)
	}

	set = updateSet(models.UpdateTaskRequest{Description: strPtr("")}, ts)
	if len(set) != 2 || set[1].Key != "description" || set[1].Value != "" {
		t.Fatalf("только описание: %v", set)
	}

	set = updateSet(models.UpdateTaskRequest{Title: strPtr("new"), Description: strPtr("d")}, ts)
	keys := make([]string, 0, len(set))
	for _, e := range set {
		keys = append(keys, e.Key)
	}
	if strings.Join(keys, ",") != "updatedAt,title,description" {
		t.Errorf("keys=%v", keys)
	}
}

func TestMongoMalformedIDIsNotFound(t *testing.T) {
	// до коллекции дело не доходит, поэтому подключение не нужно
	m := &MongoStorage{}
	ctx := context.Background()

	for _, id := range []string{"", "1", "abc", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		if _, err := m.UpdateTask(ctx, id, models.UpdateTaskRequest{Title: strPtr("x")}); !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateTask(%q): err=%v, want ErrNotFound", id, err)
		}
		if err := m.DeleteTask(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("DeleteTask(%q): err=%v, want ErrNotFound", id, err)
		}
	}
}

func TestNewMongoStorageRejectsBadURI(t *testing.T) {
	if _, err := NewMongoStorage(context.Background(), "mongodb://"); err == nil {
		t.Fatal("URI без хоста должен отклоняться до подключения")
	}
}

func TestMySQLConfig(t *testing.T) {
	cfg, err := mysqlConfig("root:secret@tcp(db:3306)/todoapp?parseTime=false")
	if err != nil {
		t.Fatalf("mysqlConfig: %v", err)
	}
	if cfg.User != "root" || cfg.Passwd != "secret" || cfg.Addr != "db:3306" || cfg.DBName != "todoapp" {
		t.Errorf("cfg=%+v", cfg)
	}
	if !cfg.ParseTime {
		t.Error("ParseTime должен быть включен всегда")
	}
	if !cfg.ClientFoundRows {
		t.Error("ClientFoundRows должен быть включен")
	}
	if cfg.Loc != time.UTC {
		t.Errorf("Loc=%v, want UTC", cfg.Loc)
	}

	if _, err := mysqlConfig("root:secret@tcp(db:3306"); err == nil {
		t.Error("некорректный DSN должен давать ошибку")
	}
}

func TestMySQLSchemaHasNoTitleLimit(t *testing.T) {
	schema := strings.Join(mysqlDialect.schema, "\n")
	if !strings.Contains(schema, "title TEXT NOT NULL") {
		t.Errorf("title должен быть TEXT, как в SQLite и MongoDB:\n%s", schema)
	}
}
