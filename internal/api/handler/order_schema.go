package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type cartLineRequest struct {
	ID       string `json:"id"       validate:"required"`
	Name     string `json:"name"     validate:"required"`
	Price    string `json:"price"    validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type inlineAddressRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone"     validate:"required"`
	Street   string `json:"street"    validate:"required"`
	City     string `json:"city"      validate:"required"`
	Pincode  string `json:"pincode"   validate:"required"`
}

type createOrderRequest struct {
	Cart          []cartLineRequest     `json:"cart"           validate:"required,min=1,dive"`
	AddressID     string                `json:"address_id"`
	Address       *inlineAddressRequest `json:"address"`
	PaymentMethod string                `json:"payment_method" validate:"required,oneof=cod stripe"`
}

// createOrderCODResponse confirms a cash-on-delivery order.
type createOrderCODResponse struct {
	Message       string `json:"message"`
	OrderID       string `json:"order_id"`
	PaymentMethod string `json:"payment_method"`
	Status        string `json:"status"`
}

// createOrderCheckoutResponse hands the client the hosted payment page.
type createOrderCheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

type verifyPaymentResponse struct {
	OrderID         string `json:"order_id"`
	Status          string `json:"status"`
	PaymentVerified bool   `json:"payment_verified"`
}

type orderItemResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

type orderAddressResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Street   string `json:"street"`
	City     string `json:"city"`
	Pincode  string `json:"pincode"`
}

type orderResponse struct {
	ID            string                `json:"id"`
	PaymentMethod string                `json:"payment_method"`
	PaymentStatus string                `json:"payment_status"`
	Status        string                `json:"status"`
	TotalAmount   string                `json:"total_amount"`
	Items         []orderItemResponse   `json:"items"`
	Address       *orderAddressResponse `json:"address"`
	CreatedAt     time.Time             `json:"created_at"`
}

type listOrdersResponse struct {
	Data []orderResponse `json:"data"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=processing shipped delivered"`
}

type updateOrderStatusResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type orderEventResponse struct {
	Type      string    `json:"type"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type listOrderEventsResponse struct {
	OrderID string               `json:"order_id"`
	Events  []orderEventResponse `json:"events"`
}

type webhookResponse struct {
	Status string `json:"status"`
}
