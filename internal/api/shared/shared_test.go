package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/transcribe-api/internal/domain"
	"github.com/phrazzld/transcribe-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceID(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))

	ctx := SetTraceID(context.Background())
	id := GetTraceID(ctx)
	assert.Len(t, id, 2*TraceIDLength)
	assert.NotEqual(t, id, GetTraceID(SetTraceID(context.Background())))

	assert.Len(t, fallbackTraceID(), 2*TraceIDLength)
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		input   string
		limit   int64
		wantErr bool
		tooBig  bool
	}{
		{name: "valid", input: `{"name":"x"}`},
		{name: "unknown fields ignored", input: `{"name":"x","extra":1}`},
		{name: "malformed", input: `{"name":`, wantErr: true},
		{name: "empty", input: ``, wantErr: true},
		{name: "trailing value", input: `{"name":"x"} {"name":"y"}`, wantErr: true},
		{name: "too large", input: `{"name":"` + strings.Repeat("a", 64) + `"}`, limit: 16, wantErr: true, tooBig: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.input))
			if tc.limit > 0 {
				r.Body = http.MaxBytesReader(httptest.NewRecorder(), r.Body, tc.limit)
			}
			var b body
			err := DecodeJSON(r, &b)
			if !tc.wantErr {
				require.NoError(t, err)
				assert.Equal(t, "x", b.Name)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.tooBig, errors.Is(err, ErrBodyTooLarge))
		})
	}
}

func TestRespondWithErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/submissions", nil)

	RespondWithErrors(rr, r, http.StatusBadRequest, []domain.ValidationError{
		{Code: domain.CodeInvalidType, Message: "user is not a string"},
		{Code: domain.CodeInvalidType, Message: "total contains elements of the wrong format"},
	})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"errors":[
		{"code":"invalid_type","message":"user is not a string"},
		{"code":"invalid_type","message":"total contains elements of the wrong format"}
	]}`, rr.Body.String())
}

func TestRespondWithErrorAndLog(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		opts      []ResponseOption
		wantLevel string
	}{
		{name: "server error", status: http.StatusInternalServerError, wantLevel: "ERROR"},
		{name: "client error", status: http.StatusBadRequest, wantLevel: "DEBUG"},
		{name: "elevated client error", status: http.StatusRequestEntityTooLarge, opts: []ResponseOption{WithElevatedLogLevel()}, wantLevel: "WARN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			log, buf := logger.NewTestLogger()
			r := httptest.NewRequest(http.MethodPost, "/submissions", nil)
			r = r.WithContext(logger.WithLogger(r.Context(), log))
			rr := httptest.NewRecorder()

			err := errors.New("write /home/study/store/study.json: no space left on device")
			RespondWithErrorAndLog(rr, r, tc.status, domain.CodeSemantic, "failed", err, tc.opts...)

			assert.Equal(t, tc.status, rr.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, []domain.ValidationError{{Code: domain.CodeSemantic, Message: "failed"}}, resp.Errors)
			assert.NotContains(t, rr.Body.String(), "/home/study")

			entry, ok := buf.Find("API error response")
			require.True(t, ok)
			assert.Equal(t, tc.wantLevel, entry["level"])
			assert.NotContains(t, entry["error"], "/home/study")
			assert.Equal(t, "*errors.errorString", entry["error_type"])
		})
	}
}
