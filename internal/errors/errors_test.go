package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{ErrMissingParameter, http.StatusBadRequest},
		{ErrUnknownEntity, http.StatusBadRequest},
		{ErrUnknownMetric, http.StatusBadRequest},
		{ErrInvalidDateFormat, http.StatusBadRequest},
		{ErrSourceLoad, http.StatusBadGateway},
		{ErrRefresh, http.StatusBadGateway},
		{ErrInternal, http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", ErrUnknownEntity), http.StatusBadRequest},
	}

	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestClientMessage(t *testing.T) {
	if got := ClientMessage(fmt.Errorf("x: %w", ErrUnknownEntity)); got != MsgUnknownEntity {
		t.Errorf("entity message = %q", got)
	}
	if got := ClientMessage(fmt.Errorf("x: %w", ErrUnknownMetric)); got != MsgUnknownMetric {
		t.Errorf("metric message = %q", got)
	}
	if got := ClientMessage(fmt.Errorf("x: %w", ErrInvalidDateFormat)); got != MsgInvalidDateFormat {
		t.Errorf("date message = %q", got)
	}
	if got := ClientMessage(ErrRefresh); got != ErrRefresh.Error() {
		t.Errorf("fallback message = %q", got)
	}
}

func TestNewSourceLoad(t *testing.T) {
	err := NewSourceLoad("signups", fmt.Errorf("boom"))
	if !Is(err, ErrSourceLoad) {
		t.Errorf("expected ErrSourceLoad, got %v", err)
	}
	if !IsSource(err) {
		t.Error("IsSource = false")
	}
}
