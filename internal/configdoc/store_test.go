package configdoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	content := []byte("site:\n  title: Example\n  pages:\n    - home\n    - about\n")
	require.NoError(t, store.Put("site", content))

	got, err := store.Get("site")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	infos, err := store.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "site", infos[0].Name)
	assert.Equal(t, int64(len(content)), infos[0].Size)
}

func TestStorePutOverwritesAtomically(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put("site", []byte("version: 1\n")))
	require.NoError(t, store.Put("site", []byte("version: 2\n")))

	got, err := store.Get("site")
	require.NoError(t, err)
	assert.Equal(t, []byte("version: 2\n"), got)

	infos, err := store.List()
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestStoreRejectsInvalidYAML(t *testing.T) {
	store := newTestStore(t)

	err := store.Put("site", []byte("key: [unclosed"))
	assert.ErrorIs(t, err, ErrInvalidYAML)

	_, err = store.Get("site")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreRejectsUnsafeNames(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"../escape", "a/b", "", ".hidden", "UPPER", "name with spaces"} {
		assert.ErrorIs(t, store.Put(name, []byte("ok: true\n")), ErrInvalidName, "name %q", name)
	}
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put("site", []byte("ok: true\n")))
	require.NoError(t, store.Delete("site"))
	assert.ErrorIs(t, store.Delete("site"), ErrNotFound)

	infos, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, infos)
}
