package client_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"todos/internal/client"
	"todos/internal/manager"
	"todos/internal/models"
	"todos/internal/server"
	"todos/internal/storage"
)

func newClient(t *testing.T) *client.Client {
	t.Helper()
	srv := httptest.NewServer(server.NewRouter(manager.NewTaskManager(storage.NewMemoryStorage())))
	t.Cleanup(srv.Close)
	return client.New(srv.URL+"/", srv.Client())
}

func strPtr(s string) *string { return &s }

func TestClientScenario(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	created, err := c.Create(ctx, "Buy milk", "2 liters")
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if created.ID == "" || created.Title != "Buy milk" {
		t.Fatalf("created=%+v", created)
	}

	tasks, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List err=%v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != created.ID {
		t.Fatalf("tasks=%+v", tasks)
	}

	updated, err := c.Update(ctx, created.ID, models.UpdateTaskRequest{Title: strPtr("Buy milk and eggs")})
	if err != nil {
		t.Fatalf("Update err=%v", err)
	}
	if updated.Title != "Buy milk and eggs" {
		t.Fatalf("updated=%+v", updated)
	}

	msg, err := c.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Delete err=%v", err)
	}
	if msg != "Todo deleted successfully" {
		t.Errorf("msg=%q", msg)
	}

	tasks, err = c.List(ctx)
	if err != nil || len(tasks) != 0 {
		t.Fatalf("tasks=%+v err=%v", tasks, err)
	}
}

func TestClientAPIErrors(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	_, err := c.Create(ctx, "", "x")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || apiErr.Message != "Title is required" {
		t.Fatalf("err=%v", err)
	}

	_, err = c.Delete(ctx, "999")
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("err=%v", err)
	}
}

func TestClientExport(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()
	if _, err := c.Create(ctx, "Export me", ""); err != nil {
		t.Fatalf("Create err=%v", err)
	}

	var buf bytes.Buffer
	if err := c.Export(ctx, "csv", &buf); err != nil {
		t.Fatalf("Export err=%v", err)
	}
	if !strings.Contains(buf.String(), "Export me") {
		t.Errorf("csv=%s", buf.String())
	}

	var apiErr *client.APIError
	if err := c.Export(ctx, "xml", &buf); !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Errorf("err=%v", err)
	}
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := client.New(srv.URL, nil).List(context.Background())
	var apiErr *client.APIError
	if err == nil || errors.As(err, &apiErr) {
		t.Fatalf("want transport error, got %v", err)
	}
}
