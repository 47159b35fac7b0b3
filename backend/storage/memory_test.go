package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackend(t *testing.T) {
	m := NewMemory()

	_, err := m.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set("slot", []byte("value")))
	got, err := m.Get("slot")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)

	// Removing a missing key is a no-op
	require.NoError(t, m.Remove("missing"))
	require.NoError(t, m.Remove("slot"))
	_, err = m.Get("slot")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryBackendFailWrites(t *testing.T) {
	m := NewMemory()
	m.FailWrites(true)
	assert.Error(t, m.Set("slot", []byte("value")))

	m.FailWrites(false)
	assert.NoError(t, m.Set("slot", []byte("value")))
}

func TestMemoryBackendCopiesValues(t *testing.T) {
	m := NewMemory()
	value := []byte("value")
	require.NoError(t, m.Set("slot", value))
	value[0] = 'x'

	got, err := m.Get("slot")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}
