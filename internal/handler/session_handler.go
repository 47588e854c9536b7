package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Svamsi2006/balaveerulu/internal/config"
	"github.com/Svamsi2006/balaveerulu/internal/middleware"
	"github.com/Svamsi2006/balaveerulu/internal/usecase"
)

// /session（サインイン直後とサインアウト時）
type SessionHandler struct {
	uc *usecase.SessionUsecase
}

func NewSessionHandler(uc *usecase.SessionUsecase) *SessionHandler {
	return &SessionHandler{uc: uc}
}

func (h *SessionHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/session")
	g.Use(middleware.AuthJWT(cfg))

	g.POST("", h.signIn)
	g.DELETE("", h.signOut)
}

func (h *SessionHandler) signIn(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.uc.SignIn(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SessionHandler) signOut(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	if err := h.uc.SignOut(c.Request().Context(), userID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "signed out"})
}
