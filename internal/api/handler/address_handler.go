package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trendkart/commerce-api/internal/core/domain"
	"github.com/trendkart/commerce-api/internal/core/ports"
)

// AddressHandler handles the caller's address book.
type AddressHandler struct {
	service ports.AddressService
}

func NewAddressHandler(service ports.AddressService) *AddressHandler {
	return &AddressHandler{service: service}
}

type createAddressRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone"     validate:"required"`
	Street   string `json:"street"    validate:"required"`
	City     string `json:"city"      validate:"required"`
	Pincode  string `json:"pincode"   validate:"required"`
}

type updateAddressRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Street   *string `json:"street"`
	City     *string `json:"city"`
	Pincode  *string `json:"pincode"`
}

type listAddressesResponse struct {
	Data []*domain.Address `json:"data"`
}

// List handles GET /addresses.
//
// @Summary      List my addresses
// @Tags         addresses
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listAddressesResponse
// @Router       /addresses [get]
func (h *AddressHandler) List(c echo.Context) error {
	userID, _, err := ctxUser(c)
	if err != nil {
		return err
	}

	addresses, err := h.service.ListAddresses(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	if addresses == nil {
		addresses = []*domain.Address{}
	}
	return c.JSON(http.StatusOK, listAddressesResponse{Data: addresses})
}

// Create handles POST /addresses.
//
// @Summary      Add an address
// @Tags         addresses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createAddressRequest  true  "Address fields"
// @Success      201   {object}  domain.Address
// @Failure      400   {object}  errorResponse
// @Router       /addresses [post]
func (h *AddressHandler) Create(c echo.Context) error {
	userID, _, err := ctxUser(c)
	if err != nil {
		return err
	}

	var req createAddressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	address, err := h.service.CreateAddress(c.Request().Context(), userID, ports.NewAddressInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		Street:   req.Street,
		City:     req.City,
		Pincode:  req.Pincode,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, address)
}

// Update handles PATCH /addresses/:id. Omitted fields keep their value.
//
// @Summary      Update an address
// @Tags         addresses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Address id"
// @Param        body  body      updateAddressRequest  true  "Fields to change"
// @Success      200   {object}  domain.Address
// @Failure      404   {object}  errorResponse
// @Router       /addresses/{id} [patch]
func (h *AddressHandler) Update(c echo.Context) error {
	userID, _, err := ctxUser(c)
	if err != nil {
		return err
	}

	var req updateAddressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	address, err := h.service.UpdateAddress(c.Request().Context(), userID, c.Param("id"), ports.UpdateAddressInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		Street:   req.Street,
		City:     req.City,
		Pincode:  req.Pincode,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, address)
}

// Delete handles DELETE /addresses/:id.
//
// @Summary      Delete an address
// @Tags         addresses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Address id"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  errorResponse
// @Router       /addresses/{id} [delete]
func (h *AddressHandler) Delete(c echo.Context) error {
	userID, _, err := ctxUser(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteAddress(c.Request().Context(), userID, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "address deleted"})
}
