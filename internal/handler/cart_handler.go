package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Svamsi2006/balaveerulu/internal/config"
	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
	"github.com/Svamsi2006/balaveerulu/internal/middleware"
	"github.com/Svamsi2006/balaveerulu/internal/usecase"
)

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	ProductID     string       `json:"product_id"`
	Format        model.Format `json:"format"`
	Quantity      int          `json:"quantity"`
	CharacterName string       `json:"character_name"`
	CustomMessage string       `json:"custom_message"`
	CustomStory   string       `json:"custom_story"`
	CustomTitle   string       `json:"custom_title"`
	PhotoURL      string       `json:"photo_url"`
}

// 省略（nil）は不正。0以下を明示したときだけ削除になる
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity"`
}

type CouponRequest struct {
	Code string `json:"code"`
}

type CheckoutRequest struct {
	Shipping model.ShippingAddress `json:"shipping"`
}

type PaymentSuccessRequest struct {
	PaymentID string `json:"payment_id"`
}

type PaymentFailureRequest struct {
	Reason string `json:"reason"`
}

// /cart 以下を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/cart")
	g.Use(middleware.AuthJWT(cfg))

	g.GET("", h.getCart)
	g.DELETE("", h.clear)
	g.POST("/items", h.addToCart)
	g.PATCH("/items/:id", h.patchItem)
	g.DELETE("/items/:id", h.deleteItem)
	g.PUT("/coupon", h.applyCoupon)

	g.POST("/checkout", h.beginCheckout)
	g.POST("/checkout/success", h.checkoutSucceeded)
	g.POST("/checkout/dismiss", h.checkoutDismissed)
	g.POST("/checkout/failure", h.checkoutFailed)
}

func (h *CartHandler) getCart(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.GetCart(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) clear(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.ClearCart(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.AddToCart(c.Request().Context(), userID, usecase.AddCartInput{
		ProductID:     req.ProductID,
		Format:        req.Format,
		Quantity:      req.Quantity,
		CharacterName: req.CharacterName,
		CustomMessage: req.CustomMessage,
		CustomStory:   req.CustomStory,
		CustomTitle:   req.CustomTitle,
		PhotoURL:      req.PhotoURL,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) patchItem(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.Quantity == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "quantity is required",
			Fields: []usecase.FieldError{{Field: "quantity", Message: "quantity is required"}},
		})
	}

	// 0以下は削除
	out, err := h.uc.UpdateQuantity(c.Request().Context(), userID, c.Param("id"), *req.Quantity)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.RemoveItem(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) applyCoupon(c echo.Context) error {
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

func (h *CartHandler) beginCheckout(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.BeginCheckout(c.Request().Context(), userID, req.Shipping)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) checkoutSucceeded(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req PaymentSuccessRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.CheckoutSucceeded(c.Request().Context(), userID, req.PaymentID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) checkoutDismissed(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.CheckoutDismissed(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) checkoutFailed(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req PaymentFailureRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.CheckoutFailed(c.Request().Context(), userID, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
