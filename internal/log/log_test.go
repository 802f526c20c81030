package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
		} else {
			require.NoError(t, err, tt.in)
		}
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentWorker, Output: &buf})
	l.Debug("Sync done", FieldRecordID, "abc")

	out := buf.String()
	for _, want := range []string{"component=worker", "record_id=abc", `msg="Sync done"`} {
		assert.Contains(t, out, want)
	}
	assert.Equal(t, ComponentWorker, l.Component())
}

func TestFieldsKeepOrder(t *testing.T) {
	got := NewFields().
		WithRecord("id1", "item", "hobby").
		WithError(nil).
		WithError(errors.New("boom")).
		ToSlice()
	want := []any{FieldRecordID, "id1", FieldRecordType, "item", FieldCategory, "hobby", FieldError, "boom"}
	assert.Equal(t, want, got)
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l.Logger)
	assert.Equal(t, "unknown", l.Component())
}

func TestRequestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	rl := NewRequestLogger(New(Config{Level: slog.LevelInfo, Output: &buf}))

	req := httptest.NewRequest(http.MethodPost, "/api/records?x=1", nil)
	ctx := rl.Start(req, "req_1", "10.0.0.1")
	require.Equal(t, ComponentHTTP, FromContext(ctx).Component())

	rl.End(ctx, req, http.StatusUnprocessableEntity, 3, "10.0.0.1")
	rl.End(ctx, req, http.StatusInternalServerError, 3, "10.0.0.1")

	out := buf.String()
	for _, want := range []string{
		`msg="Request started"`, "request_id=req_1", `query="x=1"`,
		"level=WARN", "level=ERROR", "status_code=422", "success=false",
	} {
		assert.Contains(t, out, want)
	}
}

func TestWithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf}).With(FieldRequestID, "r1").WithComponent(ComponentSheets)
	l.Info("Mirrored")

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "component="), out)
	assert.Contains(t, out, "component=sheets")
	assert.Contains(t, out, "request_id=r1")
}
