package auto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes(t *testing.T) {
	var b Bytes
	require.NoError(t, b.Set("100MB"))
	assert.Equal(t, uint64(100<<20), b.Bytes)
	assert.Equal(t, "100MiB", b.String())
	require.NoError(t, b.Set("1KiB"))
	assert.Equal(t, uint64(1024), b.Bytes)
	assert.Error(t, b.Set("ten"))
}
