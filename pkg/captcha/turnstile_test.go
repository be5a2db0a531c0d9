package captcha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnstile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "secret", r.PostForm.Get("secret"))
		ok := r.PostForm.Get("response") == "good"
		resp := TurnstileResponse{Success: ok}
		if !ok {
			resp.ErrorCodes = []string{"invalid-input-response"}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	v := NewVerifier("secret", srv.URL)
	ctx := context.Background()

	assert.NoError(t, v.Verify(ctx, "good", "127.0.0.1"))
	assert.ErrorIs(t, v.Verify(ctx, "bad", ""), ErrRejected)
	assert.ErrorIs(t, v.Verify(ctx, "", ""), ErrMissingToken)
}

func TestDisabledWithoutSecret(t *testing.T) {
	v := NewVerifier("", "")
	assert.IsType(t, Disabled{}, v)
	assert.NoError(t, v.Verify(context.Background(), "", ""))
}
