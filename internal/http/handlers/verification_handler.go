// Verification-code HTTP handler.
//
// This file exposes the REST endpoint for issuing SMS verification codes:
//   - POST /sms/codes
//
// The endpoint enforces nothing itself; all rate limiting and lifecycle
// rules live in the VerificationService, and this layer only maps its
// sentinel errors onto the HTTP taxonomy.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xmuorder/go-sms-backend/internal/services"
	"github.com/xmuorder/go-sms-backend/internal/sms"
)

// IssueCodeRequest is the JSON payload for requesting a verification code.
type IssueCodeRequest struct {
	// Phone in normalized international form.
	Phone string `json:"phone" binding:"required" example:"+8613800138000"`
}

// IssueCodeResponse reports the issuance outcome. The code itself is never
// returned over the API; it only travels by SMS.
type IssueCodeResponse struct {
	Phone     string           `json:"phone"`
	ExpiresAt string           `json:"expires_at"`
	SendCount int              `json:"send_count"`
	Statuses  []sms.SendStatus `json:"statuses,omitempty"`
}

// IssueCode godoc
// @ID          issueCode
// @Summary     Issue a verification code
// @Description Generates a 6-digit code, stores it with a validity window, and delivers it by SMS. Subject to a per-phone resend cooldown and daily budget.
// @Tags        Verification
// @Accept      json
// @Produce     json
// @Param       body body handlers.IssueCodeRequest true "Target phone"
// @Success     200 {object} handlers.IssueCodeResponse
// @Failure     400 {object} handlers.ErrorResponse "Malformed payload or phone"
// @Failure     429 {object} handlers.ErrorResponse "Budget exhausted or cooldown active"
// @Failure     502 {object} handlers.ErrorResponse "SMS gateway failure"
// @Failure     500 {object} handlers.ErrorResponse "Internal server error"
// @Router      /sms/codes [post]
func (h *Handlers) IssueCode(c *gin.Context) {
	var req IssueCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "phone is required")
		return
	}

	rec, statuses, err := h.verSvc.Issue(c.Request.Context(), req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidPhone):
			fail(c, http.StatusBadRequest, ErrCodeInvalidPhone, "phone number is not a valid mobile number")
		case errors.Is(err, services.ErrRateLimited):
			fail(c, http.StatusTooManyRequests, ErrCodeRateLimited, "daily verification-code limit reached for this phone")
		case errors.Is(err, services.ErrTooFrequent):
			fail(c, http.StatusTooManyRequests, ErrCodeTooFrequent, "a code was sent recently, try again later")
		case errors.Is(err, services.ErrGatewayFailure):
			// The rate-limit charge is already committed; report delivery failure.
			fail(c, http.StatusBadGateway, ErrCodeUpstreamFailure, "failed to deliver verification code")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to issue verification code")
		}
		return
	}

	ok(c, http.StatusOK, IssueCodeResponse{
		Phone:     rec.Phone,
		ExpiresAt: rec.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		SendCount: rec.SendCount,
		Statuses:  statuses,
	})
}
