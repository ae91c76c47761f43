package session_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStore(t *testing.T) (*session.Store, *session.MemoryStorage) {
	t.Helper()
	storage := session.NewMemoryStorage()
	return session.Open(storage, zap.NewNop()), storage
}

func TestStore_SetAndGet(t *testing.T) {
	store, _ := newStore(t)

	require.NoError(t, store.Set("tok-1", domain.RoleUser, map[string]any{"userId": 7, "fullName": "Asha Rao"}))

	sess, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, "tok-1", sess.Token)
	assert.Equal(t, domain.RoleUser, sess.Role)
	assert.Equal(t, "Asha Rao", sess.DisplayName())

	id, err := sess.UserID()
	require.NoError(t, err)
	assert.Equal(t, "7", id)
}

func TestStore_EmptyIsAbsent(t *testing.T) {
	store, _ := newStore(t)

	_, ok := store.Get()
	assert.False(t, ok)
}

func TestStore_Clear(t *testing.T) {
	store, storage := newStore(t)
	require.NoError(t, store.Set("tok-1", domain.RoleAdmin, nil))

	require.NoError(t, store.Clear())

	_, ok := store.Get()
	assert.False(t, ok)
	for _, key := range []string{session.KeyToken, session.KeyRole, session.KeyProfile} {
		_, present := storage.Get(key)
		assert.False(t, present, "slot %s should be gone", key)
	}
}

func TestStore_RejectsHalfSessions(t *testing.T) {
	store, _ := newStore(t)

	assert.Error(t, store.Set("", domain.RoleUser, nil))
	assert.Error(t, store.Set("tok", domain.Role("teller"), nil))

	_, ok := store.Get()
	assert.False(t, ok)
}

func TestStore_PartialSlotsReadAsLoggedOut(t *testing.T) {
	tests := []struct {
		name  string
		slots map[string]string
	}{
		{"profile only", map[string]string{session.KeyProfile: `{"userId":1}`}},
		{"token without role", map[string]string{session.KeyToken: "tok"}},
		{"role without token", map[string]string{session.KeyRole: "user"}},
		{"unknown role", map[string]string{session.KeyToken: "tok", session.KeyRole: "root"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := session.NewMemoryStorage()
			for k, v := range tt.slots {
				require.NoError(t, storage.Set(k, v))
			}
			store := session.Open(storage, zap.NewNop())

			_, ok := store.Get()
			assert.False(t, ok)
		})
	}
}

func TestStore_CorruptProfileKeepsSession(t *testing.T) {
	storage := session.NewMemoryStorage()
	require.NoError(t, storage.Set(session.KeyToken, "tok"))
	require.NoError(t, storage.Set(session.KeyRole, "user"))
	require.NoError(t, storage.Set(session.KeyProfile, "{not json"))
	store := session.Open(storage, zap.NewNop())

	sess, ok := store.Get()
	require.True(t, ok)
	assert.Nil(t, sess.Profile)

	_, err := sess.UserID()
	var sessErr *domain.ErrSession
	assert.ErrorAs(t, err, &sessErr)
}

func TestStore_CloseRejectsWrites(t *testing.T) {
	store, _ := newStore(t)
	require.NoError(t, store.Set("tok", domain.RoleUser, nil))
	require.NoError(t, store.Close())

	assert.ErrorIs(t, store.Set("tok-2", domain.RoleUser, nil), session.ErrClosed)
	assert.ErrorIs(t, store.Clear(), session.ErrClosed)

	sess, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, "tok", sess.Token)
}

func TestFileStorage_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	storage, err := session.OpenFileStorage(path)
	require.NoError(t, err)
	store := session.Open(storage, zap.NewNop())
	require.NoError(t, store.Set("tok-file", domain.RoleAdmin, map[string]any{"username": "admin"}))

	reopened, err := session.OpenFileStorage(path)
	require.NoError(t, err)
	sess, ok := session.Open(reopened, zap.NewNop()).Get()
	require.True(t, ok)
	assert.Equal(t, "tok-file", sess.Token)
	assert.Equal(t, domain.RoleAdmin, sess.Role)
	assert.Equal(t, "admin", sess.Profile["username"])
}

func TestFileStorage_MissingFileIsEmpty(t *testing.T) {
	storage, err := session.OpenFileStorage(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	_, ok := storage.Get(session.KeyToken)
	assert.False(t, ok)
}

func TestFileStorage_DeleteKeepsSlotWhenFlushFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	storage, err := session.OpenFileStorage(path)
	require.NoError(t, err)
	require.NoError(t, storage.Set(session.KeyToken, "tok"))

	// A directory where the temp file goes makes every flush fail.
	require.NoError(t, os.Mkdir(path+".tmp", 0o700))

	require.Error(t, storage.Delete(session.KeyToken))
	v, ok := storage.Get(session.KeyToken)
	require.True(t, ok, "memory must match the file after a failed delete")
	assert.Equal(t, "tok", v)

	reopened, err := session.OpenFileStorage(path)
	require.NoError(t, err)
	v, ok = reopened.Get(session.KeyToken)
	require.True(t, ok)
	assert.Equal(t, "tok", v)
}
