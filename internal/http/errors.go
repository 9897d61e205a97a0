package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/projectchat/internal/llm"
	"github.com/fyrsmithlabs/projectchat/internal/project"
)

// statusFor maps a service error to an HTTP status and a client-safe message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		return http.StatusNotFound, "Project not found!"
	case errors.Is(err, project.ErrInvalidProjectID),
		errors.Is(err, project.ErrEmptyProjectName),
		errors.Is(err, project.ErrInvalidProjectName):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, project.ErrProjectExists):
		return http.StatusConflict, "Project already exists!"
	case errors.Is(err, llm.ErrCompletion):
		return http.StatusBadGateway, "completion service unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// jsonError writes err as an ErrorResponse. Server-side failures are logged.
func (s *Server) jsonError(c echo.Context, err error) error {
	status, msg := statusFor(err)
	s.logFailure(c, status, err)
	return c.JSON(status, ErrorResponse{Error: msg})
}

// pageError renders err with the error page.
func (s *Server) pageError(c echo.Context, err error) error {
	status, msg := statusFor(err)
	s.logFailure(c, status, err)
	return c.Render(status, "error.html", errorPage{Message: msg})
}

func (s *Server) logFailure(c echo.Context, status int, err error) {
	ctx := c.Request().Context()
	if status >= http.StatusInternalServerError {
		s.logger.Error(ctx, "request failed", zap.Int("status", status), zap.Error(err))
		return
	}
	s.logger.Debug(ctx, "request rejected", zap.Int("status", status), zap.Error(err))
}

// errorHandler renders echo's own errors (unknown routes, bad methods,
// panics) as ErrorResponse JSON.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
	}
	s.logFailure(c, status, err)

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, ErrorResponse{Error: msg})
	}
	if err != nil {
		s.logger.Warn(c.Request().Context(), "writing error response failed", zap.Error(err))
	}
}
