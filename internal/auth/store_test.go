package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zchat/pkg/types"
)

func tempTokenPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "tokens.json")
}

func TestTokenStore_ReadEmpty(t *testing.T) {
	store := NewTokenStore(tempTokenPath(t))
	assert.Nil(t, store.Read())
}

func TestTokenStore_WriteAndRead(t *testing.T) {
	store := NewTokenStore(tempTokenPath(t))
	pair := &types.TokenPair{AccessToken: "access", RefreshToken: "refresh"}

	store.Write(pair)

	got := store.Read()
	require.NotNil(t, got)
	assert.Equal(t, "access", got.AccessToken)
	assert.Equal(t, "refresh", got.RefreshToken)
}

func TestTokenStore_ReadReturnsCopy(t *testing.T) {
	store := NewTokenStore(tempTokenPath(t))
	store.Write(&types.TokenPair{AccessToken: "access", RefreshToken: "refresh"})

	first := store.Read()
	first.AccessToken = "mutated"

	assert.Equal(t, "access", store.Read().AccessToken)
}

func TestTokenStore_PersistsAcrossInstances(t *testing.T) {
	path := tempTokenPath(t)

	NewTokenStore(path).Write(&types.TokenPair{AccessToken: "a", RefreshToken: "r"})

	reloaded := NewTokenStore(path).Read()
	require.NotNil(t, reloaded)
	assert.Equal(t, "a", reloaded.AccessToken)
}

func TestTokenStore_ClearRemovesFile(t *testing.T) {
	path := tempTokenPath(t)
	store := NewTokenStore(path)
	store.Write(&types.TokenPair{AccessToken: "a", RefreshToken: "r"})

	store.Clear()

	assert.Nil(t, store.Read())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestTokenStore_ObserversReceiveWritesInOrder(t *testing.T) {
	store := NewTokenStore(tempTokenPath(t))

	var seen []*types.TokenPair
	store.Subscribe(func(pair *types.TokenPair) {
		seen = append(seen, pair)
	})

	store.Write(&types.TokenPair{AccessToken: "one", RefreshToken: "r1"})
	store.Write(&types.TokenPair{AccessToken: "two", RefreshToken: "r2"})
	store.Clear()

	require.Len(t, seen, 3)
	assert.Equal(t, "one", seen[0].AccessToken)
	assert.Equal(t, "two", seen[1].AccessToken)
	assert.Nil(t, seen[2])
}

func TestTokenStore_MultipleObserversInRegistrationOrder(t *testing.T) {
	store := NewTokenStore(tempTokenPath(t))

	var order []string
	store.Subscribe(func(*types.TokenPair) { order = append(order, "first") })
	store.Subscribe(func(*types.TokenPair) { order = append(order, "second") })

	store.Write(&types.TokenPair{AccessToken: "a", RefreshToken: "r"})

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestTokenStore_Unsubscribe(t *testing.T) {
	store := NewTokenStore(tempTokenPath(t))

	calls := 0
	unsubscribe := store.Subscribe(func(*types.TokenPair) { calls++ })

	store.Write(&types.TokenPair{AccessToken: "a", RefreshToken: "r"})
	unsubscribe()
	store.Clear()

	assert.Equal(t, 1, calls)
}

func TestTokenStore_DuplicateWriteNotifiesEqualPayload(t *testing.T) {
	store := NewTokenStore(tempTokenPath(t))
	pair := &types.TokenPair{AccessToken: "a", RefreshToken: "r"}

	var seen []*types.TokenPair
	store.Subscribe(func(p *types.TokenPair) { seen = append(seen, p) })

	store.Write(pair)
	store.Write(pair)

	require.Len(t, seen, 2)
	assert.Equal(t, seen[0], seen[1])
}

func TestTokenStore_MemoryOnlyStillNotifies(t *testing.T) {
	// Empty path means no persistent medium at all.
	store := NewTokenStore("")

	notified := false
	store.Subscribe(func(pair *types.TokenPair) {
		notified = true
		assert.Equal(t, "a", pair.AccessToken)
	})

	store.Write(&types.TokenPair{AccessToken: "a", RefreshToken: "r"})

	assert.True(t, notified)
	assert.Equal(t, "a", store.Read().AccessToken)
}

func TestTokenStore_UnwritablePathDegradesToMemory(t *testing.T) {
	dir := t.TempDir()
	// A directory where the token file should be makes the rename fail.
	path := filepath.Join(dir, "tokens.json")
	require.NoError(t, os.Mkdir(path, 0700))

	store := NewTokenStore(path)
	store.Write(&types.TokenPair{AccessToken: "a", RefreshToken: "r"})

	got := store.Read()
	require.NotNil(t, got)
	assert.Equal(t, "a", got.AccessToken)
}

func TestTokenStore_CorruptFileIgnored(t *testing.T) {
	path := tempTokenPath(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	store := NewTokenStore(path)
	assert.Nil(t, store.Read())
}
