package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Svamsi2006/balaveerulu/internal/config"
	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
	"github.com/Svamsi2006/balaveerulu/internal/middleware"
	"github.com/Svamsi2006/balaveerulu/internal/usecase"
)

// /wizard のHTTP（絵本作成）
type WizardHandler struct {
	uc *usecase.WizardUsecase
}

func NewWizardHandler(uc *usecase.WizardUsecase) *WizardHandler {
	return &WizardHandler{uc: uc}
}

// 送られた項目だけ変更する
type WizardPatchRequest struct {
	ProductID     *string                `json:"product_id"`
	Format        *model.Format          `json:"format"`
	CharacterName *string                `json:"character_name"`
	CustomMessage *string                `json:"custom_message"`
	CustomStory   *string                `json:"custom_story"`
	CustomTitle   *string                `json:"custom_title"`
	Shipping      *model.ShippingAddress `json:"shipping"`
}

func (h *WizardHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/wizard")
	g.Use(middleware.AuthJWT(cfg))

	g.GET("", h.get)
	g.PATCH("", h.update)
	g.DELETE("", h.reset)
	g.POST("/next", h.next)
	g.POST("/back", h.back)
	g.PUT("/coupon", h.applyCoupon)
	g.POST("/photo", h.uploadPhoto)

	g.POST("/payment/success", h.paymentSucceeded)
	g.POST("/payment/dismiss", h.paymentDismissed)
	g.POST("/payment/failure", h.paymentFailed)
}

func (h *WizardHandler) get(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.uc.Get(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *WizardHandler) update(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req WizardPatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Update(c.Request().Context(), userID, usecase.WizardPatch{
		ProductID:     req.ProductID,
		Format:        req.Format,
		CharacterName: req.CharacterName,
		CustomMessage: req.CustomMessage,
		CustomStory:   req.CustomStory,
		CustomTitle:   req.CustomTitle,
		Shipping:      req.Shipping,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *WizardHandler) reset(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.uc.Reset(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *WizardHandler) next(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.uc.Next(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *WizardHandler) back(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.uc.Back(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *WizardHandler) applyCoupon(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CouponRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.ApplyCoupon(c.Request().Context(), userID, req.Code)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// multipart の "photo"
func (h *WizardHandler) uploadPhoto(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	fh, err := c.FormFile("photo")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "validation failed",
			Fields: []usecase.FieldError{{Field: "photo", Message: "photo is required"}},
		})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	defer f.Close()

	out, err := h.uc.UploadPhoto(c.Request().Context(), userID, f, fh.Filename)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *WizardHandler) paymentSucceeded(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req PaymentSuccessRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.PaymentSucceeded(c.Request().Context(), userID, req.PaymentID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *WizardHandler) paymentDismissed(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.uc.PaymentDismissed(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *WizardHandler) paymentFailed(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req PaymentFailureRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.PaymentFailed(c.Request().Context(), userID, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
