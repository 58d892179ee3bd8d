package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exercise(t *testing.T, s Store) {
	t.Helper()

	_, ok, err := s.Load(7)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(7, []byte{1, 2, 3}))
	require.NoError(t, s.Save(0x107, []byte{9}))

	v, ok, err := s.Load(7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, v)

	require.NoError(t, s.Save(7, []byte{4}))
	v, _, err = s.Load(7)
	require.NoError(t, err)
	assert.Equal(t, []byte{4}, v)
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	exercise(t, m)
	assert.Equal(t, 3, m.Writes())

	// Stored values do not alias the caller's slice.
	b := []byte{5}
	require.NoError(t, m.Save(1, b))
	b[0] = 6
	v, _, _ := m.Load(1)
	assert.Equal(t, []byte{5}, v)
}

func TestSQLite(t *testing.T) {
	file := filepath.Join(t.TempDir(), "persist.db")

	s, err := OpenSQLite(file)
	require.NoError(t, err)
	exercise(t, s)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(file)
	require.NoError(t, err)
	defer s.Close()

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []uint32{7, 0x107}, keys)

	v, ok, err := s.Load(0x107)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte{9}, v)
}
