package http

import (
	"html/template"

	"github.com/fyrsmithlabs/projectchat/internal/memory"
	"github.com/fyrsmithlabs/projectchat/internal/project"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// ErrorResponse is the body of every JSON error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ChatHistoryResponse is returned by POST /project/:id.
type ChatHistoryResponse struct {
	ChatHistory []memory.Message `json:"chat_history"`
}

// CreateProjectRequest is the request body for POST /api/v1/projects.
type CreateProjectRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Summary string `json:"summary"`
	UserID  string `json:"user_id"`
}

// ProjectListResponse is the response body for GET /api/v1/projects.
type ProjectListResponse struct {
	Projects []*project.Project `json:"projects"`
}

// MessageRequest is the request body for POST /api/v1/projects/:id/messages.
type MessageRequest struct {
	Message string `json:"message"`
}

// MessagesResponse is returned by the /api/v1/projects/:id/messages endpoints.
type MessagesResponse struct {
	ProjectID string           `json:"project_id"`
	Messages  []memory.Message `json:"messages"`
}

// FlushResponse is the response body for POST /api/v1/projects/:id/flush.
type FlushResponse struct {
	ProjectID string `json:"project_id"`
	Flushed   int    `json:"flushed"`
}

type indexPage struct {
	Projects []*project.Project
}

type chatPage struct {
	Project  *project.Project
	Messages []messageView
}

type errorPage struct {
	Message string
}

// messageView carries stored HTML into templates unescaped. Content was
// produced by the markdown renderer, which drops raw HTML from input.
type messageView struct {
	Sender  string
	Label   string
	Content template.HTML
}

func messageViews(msgs []memory.Message) []messageView {
	views := make([]messageView, len(msgs))
	for i, m := range msgs {
		views[i] = messageView{
			Sender:  string(m.Sender),
			Label:   m.Sender.Label(),
			Content: template.HTML(m.Content), //nolint:gosec // render.Markdown drops raw HTML and unsafe link schemes
		}
	}
	return views
}
