package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Svamsi2006/balaveerulu/internal/usecase"
)

type ContactHandler struct {
	uc *usecase.ContactUsecase
}

func NewContactHandler(uc *usecase.ContactUsecase) *ContactHandler {
	return &ContactHandler{uc: uc}
}

// 公開（サインイン不要）
func (h *ContactHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/contact", h.submit)
}

func (h *ContactHandler) submit(c echo.Context) error {
	var req usecase.ContactInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := h.uc.Submit(c.Request().Context(), req); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusAccepted, SuccessResponse{Message: "sent"})
}
