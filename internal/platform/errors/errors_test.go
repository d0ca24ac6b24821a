package errors

import (
	stderrs "errors"
	"net/http"
	"testing"
)

func TestHTTPStatusCode_Mapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrorCodeValidation, http.StatusBadRequest},
		{ErrorCodeJSON, http.StatusBadRequest},
		{ErrorCodeNotFound, http.StatusNotFound},
		{ErrorCodeConflict, http.StatusConflict},
		{ErrorCodeDuplicateKey, http.StatusConflict},
		{ErrorCodeTooManyRequests, http.StatusTooManyRequests},
		{ErrorCodeUnauthorized, http.StatusUnauthorized},
		{ErrorCodeUnavailable, http.StatusServiceUnavailable},
		{ErrorCodeDB, http.StatusInternalServerError},
		{ErrorCodeUnknown, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatusCode(c.code); got != c.want {
			t.Errorf("HTTPStatusCode(%d) = %d, want %d", c.code, got, c.want)
		}
	}
}

func TestWrap_PreservesCauseAndCode(t *testing.T) {
	t.Parallel()

	cause := stderrs.New("boom")
	err := Wrap(cause, ErrorCodeUnavailable, "upstream failed")

	if !stderrs.Is(err, cause) {
		t.Fatal("wrapped cause lost")
	}
	if CodeOf(err) != ErrorCodeUnavailable {
		t.Fatalf("CodeOf = %d", CodeOf(err))
	}
	if Root(err) != cause {
		t.Fatalf("Root = %v", Root(err))
	}
}

func TestWireFrom_ForeignError(t *testing.T) {
	t.Parallel()

	w := WireFrom(stderrs.New("plain"))
	if w.Code != ErrorCodeUnknown || w.Message != "plain" {
		t.Fatalf("Wire = %+v", w)
	}
}

func TestWithField_CopyOnWrite(t *testing.T) {
	t.Parallel()

	base := Validationf("bad input")
	withField := WithField(base, "limit")

	e1, _ := As(base)
	e2, _ := As(withField)
	if e1.Field() != "" {
		t.Fatal("original mutated")
	}
	if e2.Field() != "limit" {
		t.Fatalf("field = %q", e2.Field())
	}
}

func TestWithHTTPStatus_OverridesCodeMapping(t *testing.T) {
	t.Parallel()

	base := Unavailablef("upstream returned 404")
	if HTTPStatus(base) != http.StatusServiceUnavailable {
		t.Fatalf("HTTPStatus = %d before override", HTTPStatus(base))
	}

	pinned := WithHTTPStatus(base, http.StatusNotFound)
	if HTTPStatus(pinned) != http.StatusNotFound {
		t.Fatalf("HTTPStatus = %d, want the pinned 404", HTTPStatus(pinned))
	}
	// copy-on-write: the original keeps its code mapping
	if HTTPStatus(base) != http.StatusServiceUnavailable {
		t.Fatal("override mutated the original error")
	}
	// foreign errors pass through unchanged
	if err := WithHTTPStatus(stderrs.New("plain"), http.StatusNotFound); HTTPStatus(err) != http.StatusInternalServerError {
		t.Fatal("foreign errors must not gain an override")
	}
}

func TestIsCode(t *testing.T) {
	t.Parallel()

	if !IsCode(TooManyRequestsf("slow down"), ErrorCodeTooManyRequests) {
		t.Fatal("IsCode must match the constructor's code")
	}
	if IsCode(stderrs.New("x"), ErrorCodeTooManyRequests) {
		t.Fatal("foreign errors are Unknown")
	}
}
