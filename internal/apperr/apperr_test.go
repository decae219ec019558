package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "op path and cause",
			err:  New(NotFound, "read", "src/x.go", errors.New("404 Not Found")),
			want: `read "src/x.go": 404 Not Found`,
		},
		{
			name: "op only",
			err:  New(InvalidInput, "push", "", errors.New("commit message cannot be empty")),
			want: "push: commit message cannot be empty",
		},
		{
			name: "no cause falls back to kind",
			err:  New(AuthError, "", "", nil),
			want: "auth_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindMatchesThroughWrapping(t *testing.T) {
	base := New(NotFound, "snapshot", "o/r", errors.New("branch missing"))
	wrapped := fmt.Errorf("compare failed: %w", base)

	assert.True(t, errors.Is(wrapped, NotFound))
	assert.False(t, errors.Is(wrapped, AuthError))
	assert.Equal(t, NotFound, KindOf(wrapped))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestPartialFailureKeepsCauseKind(t *testing.T) {
	cause := New(RemoteWriteError, "update", "b.txt", errors.New("409 conflict"))
	err := Partial("push", "b.txt", []string{"a.txt"}, cause)

	assert.True(t, errors.Is(err, PartialFailure))
	assert.True(t, errors.Is(err, RemoteWriteError))
	assert.Equal(t, PartialFailure, KindOf(err))
	assert.Equal(t, []string{"a.txt"}, Completed(fmt.Errorf("wrapped: %w", err)))

	var inner *Error
	require.True(t, errors.As(err.Unwrap(), &inner))
	assert.Equal(t, "b.txt", inner.Path)
}

func TestPartialCopiesCompleted(t *testing.T) {
	done := []string{"a", "b"}
	err := Partial("pull", "c", done, errors.New("boom"))
	done[0] = "mutated"

	assert.Equal(t, []string{"a", "b"}, err.Completed)
}

func TestCompletedWithoutPartialFailure(t *testing.T) {
	assert.Nil(t, Completed(New(NotFound, "read", "x", nil)))
	assert.Nil(t, Completed(nil))
}
