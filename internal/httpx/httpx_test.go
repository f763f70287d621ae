package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name string `json:"name" validate:"required,max=5"`
}

func TestDecode(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"abc"}`))
		require.NoError(t, Decode(req, &p))
		assert.Equal(t, "abc", p.Name)
	})

	t.Run("malformed json", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
		err := Decode(req, &p)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("tag violation names the field", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"toolong"}`))
		err := Decode(req, &p)
		require.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "'Name'")
		assert.Contains(t, err.Error(), "'max'")
	})
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, http.StatusTeapot, "nope")

	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"nope"}`, rr.Body.String())
}
