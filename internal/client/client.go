// Package client - HTTP клиент API задач.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"todos/internal/models"
)

// DefaultTimeout - таймаут одного запроса к API
const DefaultTimeout = 10 * time.Second

// APIError - любой ответ с кодом не 2xx
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New создает клиент для API по адресу baseURL (например http://localhost:8000).
// При httpClient == nil используется клиент с DefaultTimeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// List возвращает все задачи, новые первыми
func (c *Client) List(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, "/todos", nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// Create создает задачу и возвращает ее в том виде, в каком ее сохранил сервер
func (c *Client) Create(ctx context.Context, title, description string) (models.Task, error) {
	var task models.Task
	req := models.CreateTaskRequest{Title: title, Description: description}
	err := c.do(ctx, http.MethodPost, "/todos", req, &task)
	return task, err
}

// Update отправляет только не nil поля req
func (c *Client) Update(ctx context.Context, id string, req models.UpdateTaskRequest) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, http.MethodPut, "/todos/"+url.PathEscape(id), req, &task)
	return task, err
}

// Delete удаляет задачу и возвращает подтверждение сервера
func (c *Client) Delete(ctx context.Context, id string) (string, error) {
	var msg models.MessageResponse
	err := c.do(ctx, http.MethodDelete, "/todos/"+url.PathEscape(id), nil, &msg)
	return msg.Message, err
}

// Export скачивает список задач в формате json, csv или pdf
func (c *Client) Export(ctx context.Context, format string, w io.Writer) error {
	path := "/todos/export?format=" + url.QueryEscape(format)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка экспорта: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return decodeError(resp)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ошибка кодирования запроса: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ошибка разбора ответа: %w", err)
	}
	return nil
}

// decodeError достает {"message": ...} из тела ответа с ошибкой
func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var msg models.MessageResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&msg); err == nil {
		apiErr.Message = msg.Message
	}
	return apiErr
}
