package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"movimenti/internal/core"
)

func TestResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/v0/savings-goals/1").
		JSON(map[string]int{"n": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Location"); got != "/v0/savings-goals/1" {
		t.Errorf("Location = %q", got)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Body.String(); got != "{\"n\":1}\n" {
		t.Errorf("Body = %q", got)
	}
}

func TestResponseBuilder_NoPayload(t *testing.T) {
	w := httptest.NewRecorder()
	NoContent().Write(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != "" {
		t.Errorf("Content-Type = %q, want none", got)
	}
}

func TestResponseBuilder_NullPayload(t *testing.T) {
	w := httptest.NewRecorder()
	NewResponse().JSON(nil).Write(w)

	if got := w.Body.String(); got != "null\n" {
		t.Errorf("Body = %q, want null", got)
	}
}

func TestResponseBuilder_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	NewResponse().JSON(map[string]any{"ch": make(chan int)}).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if got := w.Body.String(); got != `{"error":"internal server error"}` {
		t.Errorf("Body = %q", got)
	}
}

func TestErrorBuilders(t *testing.T) {
	tests := []struct {
		name     string
		builder  *ResponseBuilder
		wantCode int
		wantBody string
	}{
		{"bad request", BadRequestError("name is required"), http.StatusBadRequest, `{"error":"name is required"}` + "\n"},
		{"not found", NotFoundError("not found"), http.StatusNotFound, `{"error":"not found"}` + "\n"},
		{"internal", InternalServerError(), http.StatusInternalServerError, `{"error":"internal server error"}` + "\n"},
		{"too many", TooManyRequestsError(), http.StatusTooManyRequests, `{"error":"rate limit exceeded, please try again later"}` + "\n"},
		{"custom", ErrorResponse(http.StatusServiceUnavailable, "down"), http.StatusServiceUnavailable, `{"error":"down"}` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.wantCode {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantCode)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("Body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestErrorFor(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"not found", fmt.Errorf("get goal: %w", core.ErrNotFound), http.StatusNotFound},
		{"saved above target", fmt.Errorf("invalid goal: %w", core.ErrSavedExceedsTarget), http.StatusBadRequest},
		{"invalid target", core.ErrInvalidTarget, http.StatusBadRequest},
		{"invalid direction", &core.InvalidDirectionError{Value: "sideways"}, http.StatusBadRequest},
		{"request validation", invalidf("limit must be a positive integer"), http.StatusBadRequest},
		{"unexpected", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorFor(tt.err).Write(w)
			if w.Code != tt.wantCode {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestErrorFor_HidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorFor(errors.New("sqlite: table transactions is locked")).Write(w)

	if got := w.Body.String(); got != `{"error":"internal server error"}`+"\n" {
		t.Errorf("Body = %q leaks details", got)
	}
}
