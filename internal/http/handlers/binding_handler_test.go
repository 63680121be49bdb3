package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/xmuorder/go-sms-backend/internal/services"
)

func TestBindPhone_Success(t *testing.T) {
	binder := &fakeBinder{listPhones: []string{"+8613800138000", "+8613800138001"}}
	r := newTestRouter(New(&fakeIssuer{}, binder, &fakeNotifier{}))

	w := doJSON(t, r, http.MethodPost, "/canteens/c1/phones", BindPhoneRequest{
		Name:  "South Campus Canteen",
		Phone: "+8613800138000",
		Code:  "428316",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if binder.gotCanteen != "c1" || binder.gotName != "South Campus Canteen" ||
		binder.gotPhone != "+8613800138000" || binder.gotCode != "428316" {
		t.Fatalf("service got %+v", binder)
	}

	var resp PhoneListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.CanteenID != "c1" || len(resp.Phones) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestBindPhone_PayloadValidation(t *testing.T) {
	cases := []struct {
		name string
		body map[string]string
	}{
		{"missing name", map[string]string{"phone": "+8613800138000", "code": "428316"}},
		{"missing phone", map[string]string{"name": "n", "code": "428316"}},
		{"missing code", map[string]string{"name": "n", "phone": "+8613800138000"}},
		{"short code", map[string]string{"name": "n", "phone": "+8613800138000", "code": "123"}},
		{"long code", map[string]string{"name": "n", "phone": "+8613800138000", "code": "1234567"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			binder := &fakeBinder{}
			r := newTestRouter(New(&fakeIssuer{}, binder, &fakeNotifier{}))

			w := doJSON(t, r, http.MethodPost, "/canteens/c1/phones", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if binder.gotCode != "" {
				t.Fatal("service must not be called on a malformed payload")
			}
		})
	}
}

func TestBindPhone_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid phone", services.ErrInvalidPhone, http.StatusBadRequest, ErrCodeInvalidPhone},
		{"capacity", services.ErrPhoneLimitExceeded, http.StatusConflict, ErrCodeCapacityExceeded},
		{"already bound", services.ErrAlreadyBound, http.StatusConflict, ErrCodeConflict},
		{"no code issued", services.ErrNoCodeIssued, http.StatusNotFound, ErrCodeNoCodeIssued},
		{"code expired", services.ErrCodeExpired, http.StatusBadRequest, ErrCodeCodeExpired},
		{"code mismatch", services.ErrCodeMismatch, http.StatusBadRequest, ErrCodeCodeMismatch},
		{"unexpected", errors.New("db down"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(New(&fakeIssuer{}, &fakeBinder{bindErr: tc.err}, &fakeNotifier{}))

			w := doJSON(t, r, http.MethodPost, "/canteens/c1/phones", BindPhoneRequest{
				Name:  "South Campus Canteen",
				Phone: "+8613800138000",
				Code:  "428316",
			})
			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, w.Code, w.Body.String())
			}
			if resp := decodeError(t, w); resp.Code != tc.wantCode {
				t.Fatalf("expected code %q, got %q", tc.wantCode, resp.Code)
			}
		})
	}
}

func TestBindPhone_ListFailureFallsBackToBoundPhone(t *testing.T) {
	binder := &fakeBinder{listErr: errors.New("db hiccup")}
	r := newTestRouter(New(&fakeIssuer{}, binder, &fakeNotifier{}))

	w := doJSON(t, r, http.MethodPost, "/canteens/c1/phones", BindPhoneRequest{
		Name:  "South Campus Canteen",
		Phone: "+8613800138000",
		Code:  "428316",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 despite list failure, got %d", w.Code)
	}

	var resp PhoneListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if want := []string{"+8613800138000"}; !reflect.DeepEqual(resp.Phones, want) {
		t.Fatalf("expected fallback %v, got %v", want, resp.Phones)
	}
}

func TestListPhones(t *testing.T) {
	binder := &fakeBinder{listPhones: []string{"+8613800138000"}}
	r := newTestRouter(New(&fakeIssuer{}, binder, &fakeNotifier{}))

	w := doJSON(t, r, http.MethodGet, "/canteens/c9/phones", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if binder.gotCanteen != "c9" {
		t.Fatalf("service got canteen %q", binder.gotCanteen)
	}

	var resp PhoneListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.CanteenID != "c9" || len(resp.Phones) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestListPhones_ServiceError(t *testing.T) {
	r := newTestRouter(New(&fakeIssuer{}, &fakeBinder{listErr: errors.New("db down")}, &fakeNotifier{}))

	w := doJSON(t, r, http.MethodGet, "/canteens/c1/phones", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestUnbindPhone(t *testing.T) {
	binder := &fakeBinder{}
	r := newTestRouter(New(&fakeIssuer{}, binder, &fakeNotifier{}))

	w := doJSON(t, r, http.MethodDelete, "/canteens/c1/phones/+8613800138000", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if binder.gotCanteen != "c1" || binder.gotPhone != "+8613800138000" {
		t.Fatalf("service got canteen=%q phone=%q", binder.gotCanteen, binder.gotPhone)
	}
}

func TestUnbindPhone_ServiceError(t *testing.T) {
	r := newTestRouter(New(&fakeIssuer{}, &fakeBinder{unbindErr: errors.New("db down")}, &fakeNotifier{}))

	w := doJSON(t, r, http.MethodDelete, "/canteens/c1/phones/+8613800138000", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
