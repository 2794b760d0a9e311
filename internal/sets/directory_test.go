package sets

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterkuimelis/tcgdeck/internal/catalog"
	"github.com/peterkuimelis/tcgdeck/internal/catalog/catalogtest"
)

func newTestDirectory(t *testing.T) (*Directory, *catalogtest.Server) {
	t.Helper()
	srv := catalogtest.NewServer(t)
	srv.AddSets(
		catalog.Set{ID: "sv1", Name: "Scarlet & Violet", Code: "SVI", ReleaseDate: "2023/03/31"},
		catalog.Set{ID: "sv2", Name: "Paldea Evolved", Code: "PAL", ReleaseDate: "2023/06/09"},
		catalog.Set{ID: "base1", Name: "Base", ReleaseDate: "1999/01/09"},
	)
	return NewDirectory(srv.Client()), srv
}

func TestCodeAndSetID(t *testing.T) {
	dir, srv := newTestDirectory(t)
	ctx := context.Background()

	assert.Equal(t, "SVI", dir.Code(ctx, "sv1"))
	assert.Equal(t, "PAL", dir.Code(ctx, "sv2"))

	id, ok, err := dir.SetID(ctx, "PAL")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sv2", id)

	id, ok, err = dir.SetID(ctx, "svi")
	require.NoError(t, err)
	assert.True(t, ok, "case-insensitive fallback")
	assert.Equal(t, "sv1", id)

	_, ok, err = dir.SetID(ctx, "PRC")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 1, srv.Requests("sets"), "set list fetched once")
}

func TestUnknownIDFallsBackOnce(t *testing.T) {
	dir, srv := newTestDirectory(t)
	ctx := context.Background()

	assert.Equal(t, UnknownCode, dir.Code(ctx, "base1"), "set without code")
	assert.Equal(t, UnknownCode, dir.Code(ctx, "base1"))
	assert.Equal(t, UnknownCode, dir.Code(ctx, ""))
	assert.Equal(t, 1, srv.Requests("set"))
}

func TestSetAddedAfterLoadIsFetchedIndividually(t *testing.T) {
	dir, srv := newTestDirectory(t)
	ctx := context.Background()
	require.NoError(t, dir.Load(ctx))

	srv.AddSets(catalog.Set{ID: "sv9", Name: "Journey Together", Code: "JTG"})
	assert.Equal(t, "JTG", dir.Code(ctx, "sv9"))

	id, ok, err := dir.SetID(ctx, "JTG")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sv9", id)
}

func TestFailedLoadIsRetried(t *testing.T) {
	dir, srv := newTestDirectory(t)
	ctx := context.Background()

	srv.SetFailing(true)
	_, _, err := dir.SetID(ctx, "SVI")
	assert.ErrorIs(t, err, catalog.ErrUnavailable)

	srv.SetFailing(false)
	id, ok, err := dir.SetID(ctx, "SVI")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sv1", id)
}

func TestSetsSortedNewestFirst(t *testing.T) {
	dir, _ := newTestDirectory(t)
	list, err := dir.Sets(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "sv2", list[0].ID)
	assert.Equal(t, "base1", list[2].ID)
}

func TestEnrich(t *testing.T) {
	dir, _ := newTestDirectory(t)
	ctx := context.Background()

	c := dir.Enrich(ctx, catalogtest.Pokemon("sv1-1", "Sprigatito", "sv1", "1"))
	assert.Equal(t, "SVI", c.Set.Code)

	withCode := catalogtest.Pokemon("sv1-2", "Floragato", "sv1", "2")
	withCode.Set.Code = "XYZ"
	assert.Equal(t, "XYZ", dir.Enrich(ctx, withCode).Set.Code)
}

// slowSource counts calls and blocks until released so concurrent Loads
// overlap.
type slowSource struct {
	calls   atomic.Int32
	release chan struct{}
}

func (s *slowSource) Sets(ctx context.Context) ([]catalog.Set, error) {
	s.calls.Add(1)
	<-s.release
	return []catalog.Set{{ID: "sv1", Code: "SVI"}}, nil
}

func (s *slowSource) Set(ctx context.Context, id string) (catalog.Set, error) {
	return catalog.Set{}, catalog.ErrNotFound
}

func TestConcurrentLoadsShareOneFetch(t *testing.T) {
	src := &slowSource{release: make(chan struct{})}
	dir := NewDirectory(src)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "SVI", dir.Code(context.Background(), "sv1"))
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
}

func TestCancelledLoadDoesNotFailSharedFetch(t *testing.T) {
	src := &slowSource{release: make(chan struct{})}
	dir := NewDirectory(src)

	first, cancel := context.WithCancel(context.Background())
	defer cancel()
	firstErr := make(chan error, 1)
	go func() { firstErr <- dir.Load(first) }()
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	secondErr := make(chan error, 1)
	go func() { secondErr <- dir.Load(context.Background()) }()

	cancel()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled Load kept waiting")
	}

	close(src.release)
	select {
	case err := <-secondErr:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("second Load never finished")
	}
	assert.Equal(t, "SVI", dir.Code(context.Background(), "sv1"))
	assert.Equal(t, int32(1), src.calls.Load())
}

type listSource []catalog.Set

func (l listSource) Sets(ctx context.Context) ([]catalog.Set, error) { return l, nil }

func (l listSource) Set(ctx context.Context, id string) (catalog.Set, error) {
	return catalog.Set{}, catalog.ErrNotFound
}

func TestCaseInsensitiveMatchPrefersFirstListed(t *testing.T) {
	src := listSource{
		{ID: "mep", Code: "MEP"},
		{ID: "mep-alt", Code: "Mep"},
		{ID: "svp", Code: "SVP"},
	}
	ctx := context.Background()
	for i := 0; i < 50; i++ {
		dir := NewDirectory(src)

		id, ok, err := dir.SetID(ctx, "mep")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "mep", id)

		id, _, _ = dir.SetID(ctx, "Mep")
		assert.Equal(t, "mep-alt", id, "exact match wins")
	}
}
