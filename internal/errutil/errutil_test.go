package errutil

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"validation", Validation("bad significance", goerr.V("significance", 11)), ExitInvalid},
		{"not found", NotFound("memory not found", goerr.V("id", "x")), ExitNotFound},
		{"storage", Storage(errors.New("disk I/O error"), "read memories"), ExitStorage},
		{"external", External(errors.New("timeout"), "gemini call"), ExitExternal},
		{"external no cause", External(nil, "missing GOOGLE_API_KEY"), ExitExternal},
		{"plain", errors.New("boom"), ExitGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestStorageKeepsCause(t *testing.T) {
	cause := errors.New("file is not a database")
	err := Storage(cause, "open store")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "file is not a database")
	assert.Nil(t, Storage(nil, "nothing"))
}

func TestHandleLogsValues(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	err := Validation("unknown category", goerr.V("category", "trivia"))
	got := Handle(logger, err, "add failed")

	assert.Equal(t, err, got)
	assert.Contains(t, buf.String(), "add failed")
	assert.Contains(t, buf.String(), "trivia")
	assert.Nil(t, Handle(logger, nil, "ignored"))
}
