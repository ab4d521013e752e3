package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trendkart/commerce-api/internal/core/domain"
	"github.com/trendkart/commerce-api/internal/core/ports"
)

// CartHandler handles cart and wishlist requests, all scoped to the caller.
type CartHandler struct {
	service ports.CartService
}

func NewCartHandler(service ports.CartService) *CartHandler {
	return &CartHandler{service: service}
}

type cartItemResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
}

type cartResponse struct {
	Items []cartItemResponse `json:"items"`
}

type addToCartRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"   validate:"required,min=1,max=99"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=99"`
}

type wishlistResponse struct {
	Items []domain.WishlistItem `json:"items"`
}

type addToWishlistRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

// GetCart handles GET /cart.
//
// @Summary      Get my cart
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  cartResponse
// @Router       /cart [get]
func (h *CartHandler) GetCart(c echo.Context) error {
	userID, _, err := ctxUser(c)
	if err != nil {
		return err
	}

	cart, err := h.service.GetCart(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	resp := cartResponse{Items: make([]cartItemResponse, 0, len(cart.Items))}
	for _, item := range cart.Items {
		resp.Items = append(resp.Items, cartItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price.StringFixed(2),
			Quantity:  item.Quantity,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// AddToCart handles POST /cart.
//
// @Summary      Add a product to my cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addToCartRequest  true  "Product and quantity"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /cart [post]
func (h *CartHandler) AddToCart(c echo.Context) error {
	userID, _, err := ctxUser(c)
	if err != nil {
		return err
	}

	var req addToCartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.AddToCart(c.Request().Context(), userID, req.ProductID, req.Quantity); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "added to cart"})
}

// UpdateItem handles PATCH /cart/:product_id.
//
// @Summary      Update a cart line quantity
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        product_id  path      string                 true  "Product id"
// @Param        body        body      updateCartItemRequest  true  "New quantity"
// @Success      200         {object}  map[string]string
// @Failure      404         {object}  errorResponse
// @Router       /cart/{product_id} [patch]
func (h *CartHandler) UpdateItem(c echo.Context) error {
	userID, _, err := ctxUser(c)
	if err != nil {
		return err
	}

	var req updateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.UpdateQuantity(c.Request().Context(), userID, c.Param("product_id"), req.Quantity); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "cart updated"})
}

// RemoveItem handles DELETE /cart/:product_id.
//
// @Summary      Remove a cart line
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Param        product_id  path      string  true  "Product id"
// @Success      200         {object}  map[string]string
// @Failure      404         {object}  errorResponse
// @Router       /cart/{product_id} [delete]
func (h *CartHandler) RemoveItem(c echo.Context) error {
	userID, _, err := ctxUser(c)
	if err != nil {
		return err
	}

	if err := h.service.RemoveFromCart(c.Request().Context(), userID, c.Param("product_id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "removed from cart"})
}

// Clear handles DELETE /cart.
//
// @Summary      Empty my cart
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string
// @Router       /cart [delete]
func (h *CartHandler) Clear(c echo.Context) error {
	userID, _, err := ctxUser(c)
	if err != nil {
		return err
	}

	if err := h.service.ClearCart(c.Request().Context(), userID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "cart cleared"})
}

// GetWishlist handles GET /wishlist.
//
// @Summary      Get my wishlist
// @Tags         wishlist
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  wishlistResponse
// @Router       /wishlist [get]
func (h *CartHandler) GetWishlist(c echo.Context) error {
	userID, _, err := ctxUser(c)
	if err != nil {
		return err
	}

	items, err := h.service.GetWishlist(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	if items == nil {
		items = []domain.WishlistItem{}
	}
	return c.JSON(http.StatusOK, wishlistResponse{Items: items})
}

// AddToWishlist handles POST /wishlist.
//
// @Summary      Save a product for later
// @Tags         wishlist
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addToWishlistRequest  true  "Product to save"
// @Success      200   {object}  map[string]string
// @Failure      404   {object}  errorResponse
// @Router       /wishlist [post]
func (h *CartHandler) AddToWishlist(c echo.Context) error {
	userID, _, err := ctxUser(c)
	if err != nil {
		return err
	}

	var req addToWishlistRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.AddToWishlist(c.Request().Context(), userID, req.ProductID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "added to wishlist"})
}

// RemoveFromWishlist handles DELETE /wishlist/:product_id.
//
// @Summary      Remove a saved product
// @Tags         wishlist
// @Produce      json
// @Security     BearerAuth
// @Param        product_id  path      string  true  "Product id"
// @Success      200         {object}  map[string]string
// @Router       /wishlist/{product_id} [delete]
func (h *CartHandler) RemoveFromWishlist(c echo.Context) error {
	userID, _, err := ctxUser(c)
	if err != nil {
		return err
	}

	if err := h.service.RemoveFromWishlist(c.Request().Context(), userID, c.Param("product_id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "removed from wishlist"})
}
