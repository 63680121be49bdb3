package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xmuorder/go-sms-backend/internal/domain"
	"github.com/xmuorder/go-sms-backend/internal/services"
	"github.com/xmuorder/go-sms-backend/internal/sms"
)

// ---------- fakes for the narrow service interfaces ----------

type fakeIssuer struct {
	gotPhone string
	rec      *domain.VerificationRecord
	statuses []sms.SendStatus
	err      error
}

func (f *fakeIssuer) Issue(ctx context.Context, phone string) (*domain.VerificationRecord, []sms.SendStatus, error) {
	f.gotPhone = phone
	return f.rec, f.statuses, f.err
}

type fakeBinder struct {
	bindErr    error
	unbindErr  error
	listPhones []string
	listErr    error

	gotCanteen string
	gotName    string
	gotPhone   string
	gotCode    string
}

func (f *fakeBinder) Bind(ctx context.Context, canteenID, canteenName, phone, code string) error {
	f.gotCanteen, f.gotName, f.gotPhone, f.gotCode = canteenID, canteenName, phone, code
	return f.bindErr
}

func (f *fakeBinder) Unbind(ctx context.Context, canteenID, phone string) error {
	f.gotCanteen, f.gotPhone = canteenID, phone
	return f.unbindErr
}

func (f *fakeBinder) ListPhones(ctx context.Context, canteenID string) ([]string, error) {
	f.gotCanteen = canteenID
	return f.listPhones, f.listErr
}

type fakeNotifier struct {
	gotIDs   []string
	gotTime1 string
	gotTime2 string
	res      *services.NotifyResult
	err      error
}

func (f *fakeNotifier) NotifyCanteens(ctx context.Context, ids []string, time1, time2 string) (*services.NotifyResult, error) {
	f.gotIDs, f.gotTime1, f.gotTime2 = ids, time1, time2
	return f.res, f.err
}

// newTestRouter wires the handler set onto a bare gin engine, mirroring the
// route shapes of the real router without its middleware stack.
func newTestRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/sms/codes", h.IssueCode)
	r.POST("/canteens/:id/phones", h.BindPhone)
	r.GET("/canteens/:id/phones", h.ListPhones)
	r.DELETE("/canteens/:id/phones/:phone", h.UnbindPhone)
	r.POST("/notifications", h.NotifyCanteens)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, w.Body.String())
	}
	return resp
}

// ---------- IssueCode ----------

func TestIssueCode_Success(t *testing.T) {
	exp := time.Date(2024, 3, 1, 8, 5, 0, 0, time.UTC)
	issuer := &fakeIssuer{
		rec: &domain.VerificationRecord{
			Phone:     "+8613800138000",
			Code:      "428316",
			ExpiresAt: exp,
			SendCount: 2,
		},
		statuses: []sms.SendStatus{{Phone: "+8613800138000", Code: sms.StatusOK}},
	}
	r := newTestRouter(New(issuer, &fakeBinder{}, &fakeNotifier{}))

	w := doJSON(t, r, http.MethodPost, "/sms/codes", IssueCodeRequest{Phone: "+8613800138000"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if issuer.gotPhone != "+8613800138000" {
		t.Fatalf("service got phone %q", issuer.gotPhone)
	}

	var resp IssueCodeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Phone != "+8613800138000" || resp.SendCount != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.ExpiresAt != "2024-03-01T08:05:00Z" {
		t.Fatalf("unexpected expiry format %q", resp.ExpiresAt)
	}
	// The code must never leak into the response body.
	if bytes.Contains(w.Body.Bytes(), []byte("428316")) {
		t.Fatalf("verification code leaked: %s", w.Body.String())
	}
}

func TestIssueCode_MissingPhone(t *testing.T) {
	r := newTestRouter(New(&fakeIssuer{}, &fakeBinder{}, &fakeNotifier{}))

	w := doJSON(t, r, http.MethodPost, "/sms/codes", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != ErrCodeBadRequest {
		t.Fatalf("unexpected code %q", resp.Code)
	}
}

func TestIssueCode_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid phone", services.ErrInvalidPhone, http.StatusBadRequest, ErrCodeInvalidPhone},
		{"rate limited", services.ErrRateLimited, http.StatusTooManyRequests, ErrCodeRateLimited},
		{"too frequent", services.ErrTooFrequent, http.StatusTooManyRequests, ErrCodeTooFrequent},
		{"gateway failure", services.ErrGatewayFailure, http.StatusBadGateway, ErrCodeUpstreamFailure},
		{"unexpected", context.DeadlineExceeded, http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(New(&fakeIssuer{err: tc.err}, &fakeBinder{}, &fakeNotifier{}))

			w := doJSON(t, r, http.MethodPost, "/sms/codes", IssueCodeRequest{Phone: "+8613800138000"})
			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, w.Code, w.Body.String())
			}
			if resp := decodeError(t, w); resp.Code != tc.wantCode {
				t.Fatalf("expected code %q, got %q", tc.wantCode, resp.Code)
			}
		})
	}
}
