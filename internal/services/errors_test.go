package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarkerAndContext(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ErrEncode, "encoder", "run ffmpeg", "process exited", cause)

	if !errors.Is(err, ErrEncode) {
		t.Fatalf("expected ErrEncode in chain: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause in chain: %v", err)
	}
	for _, part := range []string{"encoder", "run ffmpeg", "process exited"} {
		if !strings.Contains(err.Error(), part) {
			t.Fatalf("missing %q in %q", part, err.Error())
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "encoder", "spawn", "", nil)
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool default, got %v", err)
	}
}

func TestCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation", Wrap(ErrValidation, "rsvp", "segment", "empty text", nil), CodeValidation},
		{"extraction", Wrap(ErrExtraction, "extract", "markdown", "", nil), CodeExtraction},
		{"capacity", ErrCapacity, CodeCapacity},
		{"not_found", Wrap(ErrNotFound, "jobs", "status", "", nil), CodeNotFound},
		{"render", Wrap(ErrRender, "render", "load font", "", nil), CodeRender},
		{"encode", Wrap(ErrEncode, "encoder", "ffmpeg", "", errors.New("exit 1")), CodeEncode},
		{"timeout marker", ErrTimeout, CodeTimeout},
		{"deadline", context.DeadlineExceeded, CodeTimeout},
		{"cancelled marker", ErrCancelled, CodeCancelled},
		{"context cancel", context.Canceled, CodeCancelled},
		{"unclassified", errors.New("mystery"), CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Code(tc.err); got != tc.want {
				t.Fatalf("Code(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestTimeoutWinsOverEncodeWhenBothPresent(t *testing.T) {
	err := Wrap(ErrEncode, "encoder", "ffmpeg", "killed", context.DeadlineExceeded)
	if got := Code(err); got != CodeTimeout {
		t.Fatalf("expected timeout classification, got %q", got)
	}
}

func TestIsCancellation(t *testing.T) {
	if !IsCancellation(Wrap(ErrCancelled, "jobs", "worker", "", nil)) {
		t.Fatal("wrapped cancellation not detected")
	}
	if IsCancellation(ErrEncode) {
		t.Fatal("encode error misclassified as cancellation")
	}
}
