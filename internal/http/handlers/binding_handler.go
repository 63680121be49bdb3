// Canteen phone-binding HTTP handlers.
//
// This file exposes the REST endpoints for managing which phones receive a
// canteen's order notices:
//   - POST   /canteens/:id/phones         (bind after code confirmation)
//   - GET    /canteens/:id/phones         (list bound phones)
//   - DELETE /canteens/:id/phones/:phone  (unbind, idempotent)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xmuorder/go-sms-backend/internal/services"
)

// BindPhoneRequest is the JSON payload for binding a verified phone.
type BindPhoneRequest struct {
	// Name is the canteen display name, upserted together with the binding.
	Name string `json:"name" binding:"required,max=255" example:"South Campus Canteen"`
	// Phone in normalized international form.
	Phone string `json:"phone" binding:"required" example:"+8613800138000"`
	// Code is the verification code the phone received.
	Code string `json:"code" binding:"required,len=6" example:"428316"`
}

// PhoneListResponse lists the phones bound to a canteen in binding order.
type PhoneListResponse struct {
	CanteenID string   `json:"canteen_id"`
	Phones    []string `json:"phones"`
}

// BindPhone godoc
// @ID          bindPhone
// @Summary     Bind a phone to a canteen
// @Description Validates the submitted verification code and atomically records the canteen name and the binding. A canteen holds at most three phones.
// @Tags        Bindings
// @Accept      json
// @Produce     json
// @Param       id   path string true "Canteen ID"
// @Param       body body handlers.BindPhoneRequest true "Binding payload"
// @Success     201 {object} handlers.PhoneListResponse
// @Failure     400 {object} handlers.ErrorResponse "Malformed payload, phone, or wrong/expired code"
// @Failure     404 {object} handlers.ErrorResponse "No code was issued for this phone"
// @Failure     409 {object} handlers.ErrorResponse "Pair already bound or capacity reached"
// @Failure     500 {object} handlers.ErrorResponse "Internal server error"
// @Router      /canteens/{id}/phones [post]
func (h *Handlers) BindPhone(c *gin.Context) {
	canteenID := c.Param("id")

	var req BindPhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name, phone and 6-digit code are required")
		return
	}

	err := h.bindSvc.Bind(c.Request.Context(), canteenID, req.Name, req.Phone, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidPhone):
			fail(c, http.StatusBadRequest, ErrCodeInvalidPhone, "phone number is not a valid mobile number")
		case errors.Is(err, services.ErrPhoneLimitExceeded):
			fail(c, http.StatusConflict, ErrCodeCapacityExceeded, "canteen already holds the maximum number of phones")
		case errors.Is(err, services.ErrAlreadyBound):
			fail(c, http.StatusConflict, ErrCodeConflict, "phone already bound to this canteen")
		case errors.Is(err, services.ErrNoCodeIssued):
			fail(c, http.StatusNotFound, ErrCodeNoCodeIssued, "no verification code was issued for this phone")
		case errors.Is(err, services.ErrCodeExpired):
			fail(c, http.StatusBadRequest, ErrCodeCodeExpired, "verification code expired")
		case errors.Is(err, services.ErrCodeMismatch):
			fail(c, http.StatusBadRequest, ErrCodeCodeMismatch, "verification code mismatch")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to bind phone")
		}
		return
	}

	phones, err := h.bindSvc.ListPhones(c.Request.Context(), canteenID)
	if err != nil {
		// The bind committed; return it alone rather than failing the call.
		phones = []string{req.Phone}
	}

	ok(c, http.StatusCreated, PhoneListResponse{CanteenID: canteenID, Phones: phones})
}

// ListPhones godoc
// @ID          listPhones
// @Summary     List phones bound to a canteen
// @Tags        Bindings
// @Produce     json
// @Param       id path string true "Canteen ID"
// @Success     200 {object} handlers.PhoneListResponse
// @Failure     500 {object} handlers.ErrorResponse "Internal server error"
// @Router      /canteens/{id}/phones [get]
func (h *Handlers) ListPhones(c *gin.Context) {
	canteenID := c.Param("id")

	phones, err := h.bindSvc.ListPhones(c.Request.Context(), canteenID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to list bound phones")
		return
	}

	ok(c, http.StatusOK, PhoneListResponse{CanteenID: canteenID, Phones: phones})
}

// UnbindPhone godoc
// @ID          unbindPhone
// @Summary     Unbind a phone from a canteen
// @Description Removes the binding if present. Unbinding an absent phone succeeds.
// @Tags        Bindings
// @Produce     json
// @Param       id    path string true "Canteen ID"
// @Param       phone path string true "Phone in international form"
// @Success     204 {string} string "No Content"
// @Failure     500 {object} handlers.ErrorResponse "Internal server error"
// @Router      /canteens/{id}/phones/{phone} [delete]
func (h *Handlers) UnbindPhone(c *gin.Context) {
	canteenID := c.Param("id")
	phone := c.Param("phone")

	if err := h.bindSvc.Unbind(c.Request.Context(), canteenID, phone); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to unbind phone")
		return
	}

	noContent(c)
}
