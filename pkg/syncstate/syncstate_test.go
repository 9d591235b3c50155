package syncstate

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

func TestReadMissingState(t *testing.T) {
	fs = afero.NewMemMapFs()
	store := New("/data")

	// A missing state file isn't an error. It just means nothing has been
	// synced yet.
	timestamp, ok, err := store.Read()
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, timestamp)
}

func TestWriteAndRead(t *testing.T) {
	fs = afero.NewMemMapFs()
	store := New("/data")

	assert.NoError(t, store.Write(1567282755.8090842))

	timestamp, ok, err := store.Read()
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1567282755.8090842, timestamp)
}

func TestRewrite(t *testing.T) {
	fs = afero.NewMemMapFs()
	store := New("/data")

	assert.NoError(t, store.Write(100.5))
	assert.NoError(t, store.Write(200.25))

	timestamp, ok, err := store.Read()
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 200.25, timestamp)
}

func TestReadCorruptState(t *testing.T) {
	fs = afero.NewMemMapFs()
	store := New("/data")
	assert.NoError(t, afero.WriteFile(fs, store.Path(), []byte("not a number"), 0644))

	_, _, err := store.Read()
	assert.Error(t, err)
}

func TestReadToleratesWhitespace(t *testing.T) {
	fs = afero.NewMemMapFs()
	store := New("/data")
	assert.NoError(t, afero.WriteFile(fs, store.Path(), []byte("1234.5\n"), 0644))

	timestamp, ok, err := store.Read()
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1234.5, timestamp)
}
