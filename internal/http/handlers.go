package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/projectchat/internal/logging"
	"github.com/fyrsmithlabs/projectchat/internal/project"
)

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: s.config.ServiceName,
	})
}

// handleIndex lists projects and shows the creation form.
func (s *Server) handleIndex(c echo.Context) error {
	projects, err := s.services.Projects().List(c.Request().Context())
	if err != nil {
		return s.pageError(c, err)
	}
	return c.Render(http.StatusOK, "index.html", indexPage{Projects: projects})
}

// handleCreateProjectForm creates a project from the index form and
// redirects to its chat page.
func (s *Server) handleCreateProjectForm(c echo.Context) error {
	p, err := s.createProject(c, CreateProjectRequest{
		ID:      c.FormValue("project_id"),
		Name:    c.FormValue("name"),
		Summary: c.FormValue("summary"),
		UserID:  c.FormValue("user_id"),
	})
	if err != nil {
		return s.pageError(c, err)
	}
	return c.Redirect(http.StatusFound, "/project/"+p.ID)
}

func (s *Server) createProject(c echo.Context, req CreateProjectRequest) (*project.Project, error) {
	p, err := project.NewProject(req.ID, req.Name, req.Summary, req.UserID)
	if err != nil {
		return nil, err
	}
	return s.services.Projects().Create(c.Request().Context(), p)
}

// handleProjectPage renders the chat page with the session history.
func (s *Server) handleProjectPage(c echo.Context) error {
	id := c.Param("id")
	ctx := logging.WithProjectID(c.Request().Context(), id)

	p, err := s.services.Projects().Get(ctx, id)
	if err != nil {
		return s.jsonError(c, err)
	}
	msgs, err := s.services.Chat().History(ctx, id)
	if err != nil {
		return s.jsonError(c, err)
	}
	return c.Render(http.StatusOK, "chat.html", chatPage{
		Project:  p,
		Messages: messageViews(msgs),
	})
}

// handlePostMessageForm runs one turn from the chat form and returns the
// updated history as JSON.
func (s *Server) handlePostMessageForm(c echo.Context) error {
	msgs, err := s.services.Chat().HandleTurn(c.Request().Context(), c.Param("id"), c.FormValue("message"))
	if err != nil {
		return s.jsonError(c, err)
	}
	return c.JSON(http.StatusOK, ChatHistoryResponse{ChatHistory: msgs})
}

// handleSaveChat flushes the session and returns to the chat page.
func (s *Server) handleSaveChat(c echo.Context) error {
	id := c.Param("id")
	if _, err := s.services.Chat().Flush(c.Request().Context(), id); err != nil {
		return s.pageError(c, err)
	}
	return c.Redirect(http.StatusFound, "/project/"+id)
}

func (s *Server) handleListProjects(c echo.Context) error {
	projects, err := s.services.Projects().List(c.Request().Context())
	if err != nil {
		return s.jsonError(c, err)
	}
	if projects == nil {
		projects = []*project.Project{}
	}
	return c.JSON(http.StatusOK, ProjectListResponse{Projects: projects})
}

func (s *Server) handleCreateProject(c echo.Context) error {
	var req CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	p, err := s.createProject(c, req)
	if err != nil {
		return s.jsonError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) handleGetProject(c echo.Context) error {
	p, err := s.services.Projects().Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.jsonError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleGetMessages(c echo.Context) error {
	id := c.Param("id")
	msgs, err := s.services.Chat().History(c.Request().Context(), id)
	if err != nil {
		return s.jsonError(c, err)
	}
	return c.JSON(http.StatusOK, MessagesResponse{ProjectID: id, Messages: msgs})
}

func (s *Server) handlePostMessage(c echo.Context) error {
	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	id := c.Param("id")
	msgs, err := s.services.Chat().HandleTurn(c.Request().Context(), id, req.Message)
	if err != nil {
		return s.jsonError(c, err)
	}
	return c.JSON(http.StatusOK, MessagesResponse{ProjectID: id, Messages: msgs})
}

func (s *Server) handleFlush(c echo.Context) error {
	id := c.Param("id")
	n, err := s.services.Chat().Flush(c.Request().Context(), id)
	if err != nil {
		return s.jsonError(c, err)
	}
	return c.JSON(http.StatusOK, FlushResponse{ProjectID: id, Flushed: n})
}
