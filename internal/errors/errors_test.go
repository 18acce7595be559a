package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *BaseError
		want string
	}{
		{
			name: "message only",
			err:  New(InvariantErrorCode, "two artifacts share a path"),
			want: "two artifacts share a path",
		},
		{
			name: "with cause",
			err:  Wrap(FileSystemErrorCode, "failed to write", fs.ErrPermission),
			want: "failed to write: permission denied",
		},
		{
			name: "with file",
			err:  New(MetadataShapeErrorCode, "bad node").WithLocation(SourceLocation{File: "/w/a.metadata.json"}),
			want: "/w/a.metadata.json: bad node",
		},
		{
			name: "with symbol",
			err:  NewResolutionError("/w/a.metadata.json", "AControl", "./b", "OPTIONS"),
			want: "/w/a.metadata.json#AControl: cannot resolve OPTIONS from './b'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestBaseError_Builders(t *testing.T) {
	err := NewDuplicateExportError("@acme/ui", "UiButton", "/w/a.metadata.json", "/w/b.metadata.json")
	assert.Equal(t, DuplicateExportErrorCode, err.ErrorCode())
	assert.Equal(t, "/w/b.metadata.json", err.Location().File)
	assert.Equal(t, "/w/a.metadata.json", err.Context()["first_owner"])
	assert.Len(t, err.Suggestions(), 2)

	assert.Empty(t, New(GenerationErrorCode, "x").Context())
}

func TestCodeOf(t *testing.T) {
	cause := WrapFileSystemError("write", "/w/out/A.ts", fs.ErrPermission)
	wrapped := fmt.Errorf("emit: %w", cause)

	assert.Equal(t, FileSystemErrorCode, CodeOf(wrapped))
	assert.Equal(t, UnknownErrorCode, CodeOf(stderrors.New("plain")))
	assert.Equal(t, UnknownErrorCode, CodeOf(nil))
	assert.True(t, stderrors.Is(wrapped, fs.ErrPermission))
}

func TestMultipleErrors(t *testing.T) {
	multi := &MultipleErrors{}
	assert.True(t, multi.IsEmpty())
	assert.Equal(t, "no errors", multi.Error())

	multi.Add(WrapFileSystemError("write", "/w/out/A.ts", fs.ErrPermission))
	assert.Equal(t, "failed to write file '/w/out/A.ts': permission denied", multi.Error())

	multi.Add(WrapFileSystemError("remove", "/w/out/B.ts", fs.ErrNotExist))
	require.Equal(t, 2, multi.Count())
	assert.Contains(t, multi.Error(), "multiple errors (2 total):\n  1. failed to write")
	assert.Equal(t, FileSystemErrorCode, CodeOf(multi))
	assert.True(t, stderrors.Is(multi, fs.ErrNotExist))
}

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "DuplicateExportError", DuplicateExportErrorCode.String())
	assert.Equal(t, "UnknownError", ErrorCode(99).String())
}
