package invoice

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewMetadataFormat(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	for i := 0; i < 50; i++ {
		meta := NewMetadata(now)
		require.True(t, ValidID(meta.ID), meta.ID)
		require.True(t, strings.HasPrefix(meta.ID, "INV-20260901-"), meta.ID)
		suffix, err := strconv.Atoi(meta.ID[len("INV-20260901-"):])
		require.NoError(t, err)
		require.GreaterOrEqual(t, suffix, 1000)
		require.LessOrEqual(t, suffix, 9999)
		require.Equal(t, now, meta.IssuedAt)
	}
}

func TestValidIDRejectsTraversal(t *testing.T) {
	for _, id := range []string{"", "..", "../../etc/passwd", "INV-2026-0001", "inv-20260901-1234", "INV-20260901-12345"} {
		require.False(t, ValidID(id), id)
	}
	require.True(t, ValidID("INV-20260901-1234"))
}
