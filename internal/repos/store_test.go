package repos_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"alquitones/internal/domain"
	"alquitones/internal/repos"
)

var fixedNow = func() time.Time { return time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC) }

func openStore(t *testing.T, storage repos.Storage) *repos.Store {
	t.Helper()
	st, err := repos.OpenStore(context.Background(), storage, repos.Options{BcryptCost: bcrypt.MinCost, Now: fixedNow})
	require.NoError(t, err)
	return st
}

type flakyStorage struct {
	*repos.MemoryStorage
	fail bool
}

func (f *flakyStorage) Set(ctx context.Context, key string, value []byte) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.MemoryStorage.Set(ctx, key, value)
}

func TestOpenStore_SeedsWhenAbsent(t *testing.T) {
	ms := repos.NewMemoryStorage()
	st := openStore(t, ms)

	snap := st.Snapshot()
	assert.NotEmpty(t, snap.Categories)
	assert.NotEmpty(t, snap.Products)

	blob, err := ms.Get(context.Background(), repos.DefaultKey)
	require.NoError(t, err)
	assert.NotEmpty(t, blob)
}

func TestOpenStore_LoadsWhenPresent(t *testing.T) {
	ms := repos.NewMemoryStorage()
	st := openStore(t, ms)
	_, err := repos.NewCategoryRepo(st).Create(context.Background(), domain.CategoryInput{
		Name: "Ukeleles", Icon: domain.SymbolicIcon("ukulele"),
	})
	require.NoError(t, err)

	reopened := openStore(t, ms)
	names := []string{}
	for _, c := range repos.NewCategoryRepo(reopened).List() {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "Ukeleles")
}

func TestOpenStore_CorruptBlob(t *testing.T) {
	for name, blob := range map[string]string{"garbage": "{not json", "empty": "  "} {
		t.Run(name, func(t *testing.T) {
			ms := repos.NewMemoryStorage()
			require.NoError(t, ms.Set(context.Background(), repos.DefaultKey, []byte(blob)))

			_, err := repos.OpenStore(context.Background(), ms, repos.Options{BcryptCost: bcrypt.MinCost})
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrStorageCorruption)
			var sce *domain.StorageCorruptionError
			require.ErrorAs(t, err, &sce)
			assert.Equal(t, repos.DefaultKey, sce.Key)

			// nothing was overwritten
			got, _ := ms.Get(context.Background(), repos.DefaultKey)
			assert.Equal(t, blob, string(got))
		})
	}
}

func TestRoundTripIsIdempotent(t *testing.T) {
	ms := repos.NewMemoryStorage()
	st := openStore(t, ms)
	ctx := context.Background()

	_, err := repos.NewReservationRepo(st).Create(ctx, domain.Reservation{
		InstrumentID: 1, UserID: 2, Quantity: 1,
		StartDate: domain.MustDate("2025-03-10"), EndDate: domain.MustDate("2025-03-12"),
	}, func(repos.Inventory, *domain.Reservation) error { return nil })
	require.NoError(t, err)

	first, err := ms.Get(ctx, repos.DefaultKey)
	require.NoError(t, err)

	require.NoError(t, st.Reload(ctx))
	require.NoError(t, st.Save(ctx))
	second, err := ms.Get(ctx, repos.DefaultKey)
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))
	assert.Equal(t, string(first), string(second))

	decoded, err := repos.Decode("k", first)
	require.NoError(t, err)
	reencoded, err := repos.Encode(decoded)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(reencoded))
}

func TestFailedPersistLeavesStateUntouched(t *testing.T) {
	fs := &flakyStorage{MemoryStorage: repos.NewMemoryStorage()}
	st := openStore(t, fs)
	cats := repos.NewCategoryRepo(st)
	before := len(cats.List())

	fs.fail = true
	_, err := cats.Create(context.Background(), domain.CategoryInput{Name: "Arpas", Icon: domain.SymbolicIcon("harp")})
	require.Error(t, err)
	assert.Len(t, cats.List(), before)

	fs.fail = false
	c, err := cats.Create(context.Background(), domain.CategoryInput{Name: "Arpas", Icon: domain.SymbolicIcon("harp")})
	require.NoError(t, err)
	assert.Equal(t, "Arpas", c.Name)
}

func TestIDsAreMonotonicAfterDeletes(t *testing.T) {
	st := openStore(t, repos.NewMemoryStorage())
	ctx := context.Background()
	cats := repos.NewCategoryRepo(st)

	maxID := 0
	for _, c := range cats.List() {
		maxID = max(maxID, c.ID)
	}
	a, err := cats.Create(ctx, domain.CategoryInput{Name: "A", Icon: domain.SymbolicIcon("a")})
	require.NoError(t, err)
	b, err := cats.Create(ctx, domain.CategoryInput{Name: "B", Icon: domain.SymbolicIcon("b")})
	require.NoError(t, err)
	assert.Greater(t, a.ID, maxID)
	assert.Greater(t, b.ID, a.ID)

	ok, err := cats.Delete(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	c, err := cats.Create(ctx, domain.CategoryInput{Name: "C", Icon: domain.SymbolicIcon("c")})
	require.NoError(t, err)
	assert.Greater(t, c.ID, b.ID, "deleted id must not be reissued")
}

func TestDecodeLiftsSequencesFromIDs(t *testing.T) {
	snap, err := repos.Decode("k", []byte(`{"categories":[{"id":9,"name":"x","icon":{"kind":"symbolic","value":"x"}}]}`))
	require.NoError(t, err)
	assert.Equal(t, 9, snap.Seq.Category)
	assert.NotNil(t, snap.Products)
}
