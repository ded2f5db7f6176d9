package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const testKey = "soloLevelingGym_data"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
	)
}

// exerciseBlobStore runs the shared Get/Put/Delete contract against a store.
func exerciseBlobStore(t *testing.T, s BlobStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, testKey)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, testKey, []byte(`{"version":1}`)))
	data, err := s.Get(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(data))

	require.NoError(t, s.Put(ctx, testKey, []byte(`{"version":2}`)))
	data, err = s.Get(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, `{"version":2}`, string(data))

	require.NoError(t, s.Delete(ctx, testKey))
	_, err = s.Get(ctx, testKey)
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting a missing key is not an error
	assert.NoError(t, s.Delete(ctx, testKey))
}

func TestMemoryStore(t *testing.T) {
	exerciseBlobStore(t, NewMemoryStore())
}

func TestMemoryStore_CopiesData(t *testing.T) {
	s := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, s.Put(context.Background(), testKey, buf))
	buf[0] = 'x'

	data, err := s.Get(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	exerciseBlobStore(t, s)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenSQLite(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), testKey, []byte("persisted")))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(dir)
	require.NoError(t, err)
	defer s.Close()

	data, err := s.Get(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(data))
}

func TestRedisStore_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db, "levelgym:")
	defer s.Close()

	mock.ExpectGet("levelgym:" + testKey).SetVal(`{"version":1}`)
	data, err := s.Get(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(data))

	mock.ExpectGet("levelgym:" + testKey).RedisNil()
	_, err = s.Get(context.Background(), testKey)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_PutDelete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db, "levelgym:")
	defer s.Close()

	mock.ExpectSet("levelgym:"+testKey, `{"version":1}`, 0).SetVal("OK")
	require.NoError(t, s.Put(context.Background(), testKey, []byte(`{"version":1}`)))

	mock.ExpectDel("levelgym:" + testKey).SetVal(1)
	require.NoError(t, s.Delete(context.Background(), testKey))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Errors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db, "")
	defer s.Close()

	boom := errors.New("connection refused")
	mock.ExpectSet(testKey, "x", 0).SetErr(boom)
	err := s.Put(context.Background(), testKey, []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	mock.ExpectGet(testKey).SetErr(boom)
	_, err = s.Get(context.Background(), testKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
