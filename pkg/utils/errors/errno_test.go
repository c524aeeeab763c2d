package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMakeCode(t *testing.T) {
	code := MakeCode(20, 7, 3)
	if code != 2007003 {
		t.Errorf("MakeCode(20, 7, 3) = %d, want 2007003", code)
	}

	service, category, sequence := ParseCode(code)
	if service != 20 || category != 7 || sequence != 3 {
		t.Errorf("ParseCode(%d) = (%d, %d, %d), want (20, 7, 3)", code, service, category, sequence)
	}
}

func TestCategoryClassification(t *testing.T) {
	if !IsClientError(ErrKnowledgeInvalidRequest.Code) {
		t.Error("request errors should classify as client errors")
	}
	if !IsServerError(ErrIngestFailed.Code) {
		t.Error("internal errors should classify as server errors")
	}
	if IsClientError(ErrIngestFailed.Code) {
		t.Error("internal errors should not classify as client errors")
	}
}

func TestWithCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrDatabase.WithCause(cause)

	if err.Code != ErrDatabase.Code {
		t.Errorf("WithCause changed code: %d != %d", err.Code, ErrDatabase.Code)
	}
	if !errors.Is(err, ErrDatabase) {
		t.Error("wrapped error should match its base errno")
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}

	// The base errno must not be mutated.
	if ErrDatabase.cause != nil {
		t.Error("WithCause must not mutate the base errno")
	}
}

func TestWithMessage(t *testing.T) {
	err := ErrInvalidParam.WithMessage("tenant_id is required")
	if err.Message != "tenant_id is required" {
		t.Errorf("WithMessage() = %q", err.Message)
	}
	if ErrInvalidParam.Message == err.Message {
		t.Error("WithMessage must not mutate the base errno")
	}

	errf := ErrInvalidParam.WithMessagef("field %q is required", "question")
	if errf.Message != `field "question" is required` {
		t.Errorf("WithMessagef() = %q", errf.Message)
	}
}

func TestHTTPStatus(t *testing.T) {
	if got := ErrDocumentNotFound.HTTPStatus(); got != http.StatusNotFound {
		t.Errorf("HTTPStatus() = %d, want %d", got, http.StatusNotFound)
	}

	// Zero HTTP falls back to 500.
	e := &Errno{Code: 1, Message: "x"}
	if got := e.HTTPStatus(); got != http.StatusInternalServerError {
		t.Errorf("HTTPStatus() fallback = %d, want %d", got, http.StatusInternalServerError)
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil) != nil {
		t.Error("FromError(nil) should be nil")
	}

	plain := errors.New("boom")
	wrapped := FromError(plain)
	if wrapped.Code != ErrInternal.Code {
		t.Errorf("FromError should wrap as ErrInternal, got code %d", wrapped.Code)
	}

	same := FromError(ErrIngestTimeout)
	if same != ErrIngestTimeout {
		t.Error("FromError should return an Errno unchanged")
	}
}

func TestFormat(t *testing.T) {
	err := ErrQueryFailed.WithCause(errors.New("milvus unreachable"))

	plain := fmt.Sprintf("%v", err)
	if plain == "" {
		t.Error("plain format should not be empty")
	}

	verbose := fmt.Sprintf("%+v", err)
	if verbose == plain {
		t.Error("verbose format should include additional detail")
	}
}

func TestLookup(t *testing.T) {
	e, ok := Lookup(ErrUnreadableDoc.Code)
	if !ok {
		t.Fatal("registered errno should be found")
	}
	if e != ErrUnreadableDoc {
		t.Error("Lookup returned a different errno")
	}

	if _, ok := Lookup(9999999); ok {
		t.Error("unregistered code should not be found")
	}
}
