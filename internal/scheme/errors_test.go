package scheme

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestStatusErrorFrom(t *testing.T) {
	tests := []struct {
		code int
		want StatusKind
	}{
		{401, StatusUnauthorized},
		{403, StatusForbidden},
		{404, StatusNotFound},
		{410, StatusNotFound},
		{408, StatusTimeout},
		{504, StatusTimeout},
		{429, StatusTooManyRequests},
		{500, StatusServer},
		{503, StatusServer},
		{304, StatusUnexpected},
		{418, StatusUnexpected},
	}
	for _, tt := range tests {
		err := StatusErrorFrom(tt.code)
		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("StatusErrorFrom(%d) = %v, want *StatusError", tt.code, err)
		}
		if se.Kind != tt.want || se.Code != tt.code {
			t.Errorf("StatusErrorFrom(%d) = %+v, want kind %s", tt.code, se, tt.want)
		}
	}
	for _, code := range []int{200, 204, 206} {
		if err := StatusErrorFrom(code); err != nil {
			t.Errorf("StatusErrorFrom(%d) = %v, want nil", code, err)
		}
	}
}

func TestIsCancelled(t *testing.T) {
	if !IsCancelled(ErrCancelled) {
		t.Fatal("ErrCancelled not recognised")
	}
	if !IsCancelled(fmt.Errorf("wrapped: %w", context.Canceled)) {
		t.Fatal("context.Canceled not recognised")
	}
	if IsCancelled(ErrInvalidParameters) {
		t.Fatal("ErrInvalidParameters reported as cancelled")
	}
}
