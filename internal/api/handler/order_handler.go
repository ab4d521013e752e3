package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trendkart/commerce-api/internal/core/domain"
	"github.com/trendkart/commerce-api/internal/core/ports"
)

// OrderHandler handles HTTP requests for the order workflow.
type OrderHandler struct {
	service ports.OrderService
	gateway ports.PaymentGateway
	events  ports.OrderEventReader
}

func NewOrderHandler(service ports.OrderService, gateway ports.PaymentGateway, events ports.OrderEventReader) *OrderHandler {
	return &OrderHandler{service: service, gateway: gateway, events: events}
}

// Create places an order from the submitted cart.
//
// @Summary      Place an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createOrderRequest  true  "Cart, address and payment method"
// @Success      200   {object}  createOrderCODResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /orders/create [post]
func (h *OrderHandler) Create(c echo.Context) error {
	userID, _, err := ctxUser(c)
	if err != nil {
		return err
	}

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	input := ports.CreateOrderInput{
		UserID:        userID,
		UserEmail:     ctxEmail(c),
		AddressID:     req.AddressID,
		PaymentMethod: req.PaymentMethod,
	}
	for _, line := range req.Cart {
		input.Cart = append(input.Cart, ports.CartLineInput{
			ProductID: line.ID,
			Name:      line.Name,
			Price:     line.Price,
			Quantity:  line.Quantity,
		})
	}
	if req.Address != nil {
		input.Address = &ports.NewAddressInput{
			FullName: req.Address.FullName,
			Phone:    req.Address.Phone,
			Street:   req.Address.Street,
			City:     req.Address.City,
			Pincode:  req.Address.Pincode,
		}
	}

	result, err := h.service.CreateOrder(c.Request().Context(), input)
	if err != nil {
		return err
	}

	if result.PaymentMethod == domain.PaymentStripe {
		return c.JSON(http.StatusOK, createOrderCheckoutResponse{CheckoutURL: result.CheckoutURL})
	}
	return c.JSON(http.StatusOK, createOrderCODResponse{
		Message:       "order placed successfully",
		OrderID:       result.OrderID,
		PaymentMethod: string(result.PaymentMethod),
		Status:        string(result.Status),
	})
}

// VerifyPayment reports the live payment state of a checkout session.
//
// @Summary      Verify a checkout session
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        session_id  query     string  true  "Checkout session id"
// @Success      200         {object}  verifyPaymentResponse
// @Failure      400         {object}  errorResponse
// @Failure      404         {object}  errorResponse
// @Router       /orders/verify-payment [get]
func (h *OrderHandler) VerifyPayment(c echo.Context) error {
	userID, _, err := ctxUser(c)
	if err != nil {
		return err
	}

	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id is required")
	}

	result, err := h.service.VerifyPayment(c.Request().Context(), userID, sessionID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, verifyPaymentResponse{
		OrderID:         result.OrderID,
		Status:          string(result.Status),
		PaymentVerified: result.Verified,
	})
}

// List returns the caller's orders, newest first.
//
// @Summary      List my orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listOrdersResponse
// @Failure      401  {object}  errorResponse
// @Router       /orders/my [get]
func (h *OrderHandler) List(c echo.Context) error {
	userID, _, err := ctxUser(c)
	if err != nil {
		return err
	}

	orders, err := h.service.ListOrders(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	resp := listOrdersResponse{Data: make([]orderResponse, 0, len(orders))}
	for _, o := range orders {
		resp.Data = append(resp.Data, toOrderResponse(o))
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateStatus advances an order through the fulfilment pipeline.
//
// @Summary      Update order status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                    true  "Order id"
// @Param        body  body      updateOrderStatusRequest  true  "Target status"
// @Success      200   {object}  updateOrderStatusResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	var req updateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order, err := h.service.UpdateOrderStatus(c.Request().Context(), c.Param("id"), domain.OrderStatus(req.Status))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updateOrderStatusResponse{
		OrderID: order.ID,
		Status:  string(order.Status),
	})
}

// ListEvents returns the recorded lifecycle timeline of an order.
//
// @Summary      Order event timeline
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "Order id"
// @Success      200  {object}  listOrderEventsResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /orders/{id}/events [get]
func (h *OrderHandler) ListEvents(c echo.Context) error {
	orderID := c.Param("id")

	events, err := h.events.Timeline(c.Request().Context(), orderID)
	if err != nil {
		return err
	}

	resp := listOrderEventsResponse{OrderID: orderID, Events: make([]orderEventResponse, 0, len(events))}
	for _, ev := range events {
		resp.Events = append(resp.Events, orderEventResponse{
			Type:      string(ev.Type),
			Note:      ev.Note,
			Timestamp: ev.Timestamp,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// Webhook receives provider callbacks. The raw body is read before any
// decoding because the signature covers the exact bytes on the wire.
//
// @Summary      Payment provider webhook
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature  header    string  true  "Provider signature"
// @Success      200               {object}  webhookResponse
// @Failure      400               {object}  errorResponse
// @Router       /orders/webhook [post]
func (h *OrderHandler) Webhook(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable payload")
	}

	event, err := h.gateway.VerifyWebhook(payload, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		return err
	}

	if err := h.service.HandleWebhookEvent(c.Request().Context(), *event); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, webhookResponse{Status: "success"})
}

func toOrderResponse(o *domain.Order) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		PaymentMethod: string(o.PaymentMethod),
		PaymentStatus: string(o.PaymentStatus),
		Status:        string(o.Status),
		TotalAmount:   o.TotalAmount.StringFixed(2),
		CreatedAt:     o.CreatedAt,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price.StringFixed(2),
		})
	}
	if o.Address != nil {
		resp.Address = &orderAddressResponse{
			ID:       o.Address.ID,
			FullName: o.Address.FullName,
			Phone:    o.Address.Phone,
			Street:   o.Address.Street,
			City:     o.Address.City,
			Pincode:  o.Address.Pincode,
		}
	}
	return resp
}
