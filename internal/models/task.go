package models

import "time"

// Task - единственная сущность приложения
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Структура только для HTTP-запроса на создание
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateTaskRequest: nil означает "поле не передано"
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// MessageResponse - тело ответов об ошибках и подтверждения удаления
type MessageResponse struct {
	Message string `json:"message"`
}
