package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

// engineErrors are environment errors as capture, restore and the document
// reader raise them.
func engineErrors() []struct {
	name    string
	err     error
	code    Code
	text    string
	message string
} {
	_, statErr := os.Stat(filepath.Join(os.TempDir(), "nodeio-missing", "material.bnodes"))
	return []struct {
		name    string
		err     error
		code    Code
		text    string
		message string
	}{
		{
			name:    "wrong graph kind",
			err:     New(ErrCodeWrongGraphKind, "document holds %s graphs, active mode is %s", "compositing", "shader"),
			code:    ErrCodeWrongGraphKind,
			text:    "WRONG_GRAPH_KIND: document holds compositing graphs, active mode is shader",
			message: "document holds compositing graphs, active mode is shader",
		},
		{
			name:    "group cycle",
			err:     New(ErrCodeGroupCycle, "group %q binds %q, which is already being captured", "A", "B"),
			code:    ErrCodeGroupCycle,
			text:    `GROUP_CYCLE: group "A" binds "B", which is already being captured`,
			message: `group "A" binds "B", which is already being captured`,
		},
		{
			name:    "unsupported version",
			err:     New(ErrCodeUnsupportedVersion, "document version %d (supported: 1..%d)", 7, 1),
			code:    ErrCodeUnsupportedVersion,
			text:    "UNSUPPORTED_VERSION: document version 7 (supported: 1..1)",
			message: "document version 7 (supported: 1..1)",
		},
		{
			name:    "missing file keeps its cause",
			err:     Wrap(ErrCodeFileNotFound, statErr, "read %s", "material.bnodes"),
			code:    ErrCodeFileNotFound,
			text:    "FILE_NOT_FOUND: read material.bnodes: " + statErr.Error(),
			message: "read material.bnodes",
		},
	}
}

func TestEngineErrors(t *testing.T) {
	for _, tt := range engineErrors() {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.text {
				t.Errorf("Error() = %q, want %q", got, tt.text)
			}
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %v, want %v", got, tt.code)
			}
			if !Is(tt.err, tt.code) {
				t.Errorf("Is(%v) = false, want true", tt.code)
			}
			if got := UserMessage(tt.err); got != tt.message {
				t.Errorf("UserMessage() = %q, want %q", got, tt.message)
			}
		})
	}
}

func TestWrapKeepsStdlibChain(t *testing.T) {
	_, statErr := os.Stat(filepath.Join(t.TempDir(), "wood.png"))
	err := Wrap(ErrCodeFileNotFound, statErr, "image %q", "wood.png")

	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("errors.Is(err, fs.ErrNotExist) = false through Wrap")
	}
	var pathErr *fs.PathError
	if !errors.As(err, &pathErr) {
		t.Error("errors.As(*fs.PathError) = false through Wrap")
	}
	if errors.Unwrap(err) != statErr {
		t.Errorf("Unwrap() = %v, want the stat error", errors.Unwrap(err))
	}
}

func TestCodeThroughFmtWrapping(t *testing.T) {
	inner := New(ErrCodeGroupCycle, "group %q binds itself", "Loop")
	err := fmt.Errorf("capture Material: %w", inner)

	if got := GetCode(err); got != ErrCodeGroupCycle {
		t.Errorf("GetCode() = %v, want GROUP_CYCLE", got)
	}
	if got := UserMessage(err); got != `group "Loop" binds itself` {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestOutermostCodeWins(t *testing.T) {
	inner := New(ErrCodeFileNotFound, "missing.bnodes")
	err := Wrap(ErrCodeInvalidDocument, inner, "import")

	if !Is(err, ErrCodeInvalidDocument) {
		t.Error("Is(INVALID_DOCUMENT) = false, want true")
	}
	if Is(err, ErrCodeFileNotFound) {
		t.Error("Is(FILE_NOT_FOUND) = true, want the outer code only")
	}
	if got := GetCode(errors.Unwrap(err)); got != ErrCodeFileNotFound {
		t.Errorf("GetCode(Unwrap()) = %v, want FILE_NOT_FOUND", got)
	}
}

func TestPlainErrors(t *testing.T) {
	plain := errors.New("disk full")
	if got := GetCode(plain); got != "" {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
	if got := GetCode(nil); got != "" {
		t.Errorf("GetCode(nil) = %v, want empty", got)
	}
	if Is(plain, ErrCodeInternal) {
		t.Error("Is(plain, INTERNAL_ERROR) = true")
	}
	if got := UserMessage(plain); got != "disk full" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}
