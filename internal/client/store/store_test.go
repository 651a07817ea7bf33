package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := Open(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestStore_GetMissingKey(t *testing.T) {
	st := openTestStore(t)

	value, found, err := st.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, value)
}

func TestStore_SetGetDelete(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "k", []byte("v1")))

	value, found, err := st.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("v1"), value)

	// Upsert overwrites in place.
	require.NoError(t, st.Set(ctx, "k", []byte("v2")))
	value, _, err = st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), value)

	require.NoError(t, st.Delete(ctx, "k"))
	_, found, err = st.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting an absent key succeeds.
	assert.NoError(t, st.Delete(ctx, "k"))
}

func TestStore_JSONRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	type prefs struct {
		Currency string `json:"currency"`
		DarkMode bool   `json:"dark_mode"`
	}

	require.NoError(t, st.SetJSON(ctx, "prefs", prefs{Currency: "EUR", DarkMode: true}))

	var got prefs
	found, err := st.GetJSON(ctx, "prefs", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, prefs{Currency: "EUR", DarkMode: true}, got)

	var missing prefs
	found, err = st.GetJSON(ctx, "absent", &missing)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, prefs{}, missing, "target must stay untouched on miss")
}

func TestStore_CorruptValueWrapsErrPersistence(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "broken", []byte("{not json")))

	var out map[string]any
	_, err := st.GetJSON(ctx, "broken", &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "client.db")
	ctx := context.Background()

	st, err := Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, st.Set(ctx, "k", []byte("durable")))
	require.NoError(t, st.Close())

	st, err = Open(ctx, dsn)
	require.NoError(t, err)
	defer st.Close()

	value, found, err := st.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("durable"), value)
}
