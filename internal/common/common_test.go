package common_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/revo-studio/storefront/internal/common"
)

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:4431"
	require.Equal(t, "10.0.0.9", common.ClientIP(req))

	req.Header.Set("X-Real-IP", "203.0.113.7")
	require.Equal(t, "203.0.113.7", common.ClientIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.2, 10.0.0.1")
	require.Equal(t, "198.51.100.2", common.ClientIP(req), "first forwarded hop wins")

	require.Equal(t, "", common.ClientIP(nil))
}

func TestAppErrorUnwraps(t *testing.T) {
	sentinel := errors.New("cart is empty")
	appErr := common.NewAppError("EMPTY_CART", "cart is empty", http.StatusConflict, sentinel)

	require.ErrorIs(t, appErr, sentinel, "wrapping must keep errors.Is working")
	require.True(t, common.IsAppError(appErr))
	require.False(t, common.IsAppError(sentinel))
}

func TestAtoiDefault(t *testing.T) {
	require.Equal(t, 42, common.AtoiDefault("42", 7))
	require.Equal(t, 7, common.AtoiDefault("", 7))
	require.Equal(t, 7, common.AtoiDefault("junk", 7))
}
