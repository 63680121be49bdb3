// Canteen notification HTTP handler.
//
// This file exposes the batch order-notice endpoint:
//   - POST /notifications
//
// Throttled canteens are not an error: they are reported in the response
// alongside the gateway's per-recipient statuses. Only an entirely empty
// recipient set fails the call.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xmuorder/go-sms-backend/internal/services"
)

// NotifyRequest is the JSON payload for a batch order notice.
type NotifyRequest struct {
	// CanteenIDs to notify; duplicates are collapsed.
	CanteenIDs []string `json:"canteen_ids" binding:"required,min=1,dive,required"`
	// Time1 and Time2 are the pickup-time hints substituted into the
	// notice template.
	Time1 string `json:"time1" binding:"required" example:"3"`
	Time2 string `json:"time2" binding:"required" example:"10"`
}

// NotifyCanteens godoc
// @ID          notifyCanteens
// @Summary     Send order notices to canteens
// @Description Sends the order-notice SMS to every bound phone of the listed canteens, skipping canteens still inside their notification cooldown.
// @Tags        Notifications
// @Accept      json
// @Produce     json
// @Param       body body handlers.NotifyRequest true "Batch payload"
// @Success     200 {object} services.NotifyResult
// @Failure     400 {object} handlers.ErrorResponse "Malformed payload"
// @Failure     422 {object} handlers.ErrorResponse "Nobody left to notify after throttling"
// @Failure     502 {object} handlers.ErrorResponse "SMS gateway failure"
// @Failure     500 {object} handlers.ErrorResponse "Internal server error"
// @Router      /notifications [post]
func (h *Handlers) NotifyCanteens(c *gin.Context) {
	var req NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "canteen_ids, time1 and time2 are required")
		return
	}

	res, err := h.notifySvc.NotifyCanteens(c.Request.Context(), req.CanteenIDs, req.Time1, req.Time2)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoEligibleRecipients):
			fail(c, http.StatusUnprocessableEntity, ErrCodeNoRecipients, "no eligible recipients after throttling")
		case errors.Is(err, services.ErrGatewayFailure):
			fail(c, http.StatusBadGateway, ErrCodeUpstreamFailure, "failed to deliver notifications")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to send notifications")
		}
		return
	}

	ok(c, http.StatusOK, res)
}
