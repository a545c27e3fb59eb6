package repos_test

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alquitones/internal/domain"
	"alquitones/internal/repos"
)

func TestSQLiteStorage(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	defer db.Close()
	s := repos.NewSQLiteStorage(db)
	ctx := context.Background()

	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, repos.ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "k", []byte(`{"a":1}`)))
	require.NoError(t, s.Set(ctx, "k", []byte(`{"a":2}`)))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(got))

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, repos.ErrKeyNotFound)
}

func TestStoreOverSQLiteSurvivesReopen(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	defer db.Close()
	storage := repos.NewSQLiteStorage(db)

	st := openStore(t, storage)
	_, err = repos.NewUserRepo(st).Update(context.Background(), 2, domain.UserPatch{IsActive: ptr(false)})
	require.NoError(t, err)

	again := openStore(t, storage)
	u, err := repos.NewUserRepo(again).ByID(2)
	require.NoError(t, err)
	assert.False(t, u.IsActive)
}

func TestRedisStorage(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := repos.NewRedisStorage(rdb, "alq")
	ctx := context.Background()

	mock.ExpectGet("alq:db").RedisNil()
	_, err := s.Get(ctx, "db")
	assert.ErrorIs(t, err, repos.ErrKeyNotFound)

	mock.ExpectSet("alq:db", `{"x":1}`, 0).SetVal("OK")
	require.NoError(t, s.Set(ctx, "db", []byte(`{"x":1}`)))

	mock.ExpectGet("alq:db").SetVal(`{"x":1}`)
	got, err := s.Get(ctx, "db")
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, string(got))

	mock.ExpectDel("alq:db").SetVal(1)
	require.NoError(t, s.Delete(ctx, "db"))

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet redis expectations: %v", err)
	}
}

func TestRedisStorageCorruptBlob(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet("alq:alquitones:db").SetVal("not-json")

	_, err := repos.OpenStore(context.Background(), repos.NewRedisStorage(rdb, "alq"), repos.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage corrupted")
}
