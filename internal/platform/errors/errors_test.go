package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/louisbranch/tablecards/internal/platform/i18n/catalog"
)

func TestCodeHTTPStatus(t *testing.T) {
	tests := map[Code]int{
		CodeNotFound:                http.StatusNotFound,
		CodeAlreadyExists:           http.StatusConflict,
		CodeBadgeDuplicate:          http.StatusConflict,
		CodeLayoutInvalidImageWidth: http.StatusBadRequest,
		CodeBadgeStatUnknown:        http.StatusBadRequest,
		CodeEventInvalidTimestamp:   http.StatusBadRequest,
		CodeUnknown:                 http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := code.HTTPStatus(); got != want {
			t.Fatalf("%s.HTTPStatus() = %d, want %d", code, got, want)
		}
	}
}

func TestErrorChain(t *testing.T) {
	cause := stderrors.New("no rows")
	err := fmt.Errorf("get layout: %w", Wrap(CodeNotFound, "layout missing", cause))

	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause")
	}
	if !stderrors.Is(err, New(CodeNotFound, "")) {
		t.Fatal("expected match by code")
	}
	if stderrors.Is(err, New(CodeAlreadyExists, "")) {
		t.Fatal("expected mismatch for other code")
	}
	if got := CodeOf(err); got != CodeNotFound {
		t.Fatalf("CodeOf = %s, want %s", got, CodeNotFound)
	}
	if got := CodeOf(cause); got != CodeUnknown {
		t.Fatalf("CodeOf(plain) = %s, want %s", got, CodeUnknown)
	}
}

func TestLocalize(t *testing.T) {
	bundle := catalog.Default()
	tests := []struct {
		accept string
		code   Code
		want   string
	}{
		{accept: "en-US", code: CodeNotFound, want: "The requested resource was not found."},
		{accept: "pt-BR", code: CodeBadgeDuplicate, want: "Esse atributo já tem um emblema."},
		{accept: "en-US", code: CodeLayoutInvalidImageWidth, want: "Image width must be between 25% and 40%."},
		{accept: "en-US", code: Code("NOT_IN_CATALOG"), want: "NOT_IN_CATALOG"},
	}
	for _, tc := range tests {
		if got := Localize(bundle.Printer(tc.accept), tc.code); got != tc.want {
			t.Fatalf("Localize(%s, %s) = %q, want %q", tc.accept, tc.code, got, tc.want)
		}
	}
	if got := Localize(nil, CodeNotFound); got != "NOT_FOUND" {
		t.Fatalf("Localize(nil) = %q, want code", got)
	}
}
