package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devispro/devispro/internal/quote"
	"github.com/devispro/devispro/internal/shared"
)

type fakeRepo struct {
	saved     map[string]quote.Status
	expirable []string
	updated   map[string]quote.Status
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{saved: make(map[string]quote.Status), updated: make(map[string]quote.Status)}
}

func (f *fakeRepo) Save(_ context.Context, q *quote.Quotation) error {
	f.saved[q.ID] = q.Status
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (*quote.Quotation, error) {
	return nil, shared.ErrNotFound
}

func (f *fakeRepo) List(_ context.Context, _ quote.ListRequest) ([]quote.Summary, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id string, status quote.Status) error {
	f.updated[id] = status
	return nil
}

func (f *fakeRepo) ListExpirable(_ context.Context, _ time.Time) ([]string, error) {
	return f.expirable, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func draftQuotation(id string, status quote.Status) *quote.Quotation {
	return &quote.Quotation{
		ID:     id,
		Status: status,
		Hierarchy: []*quote.HierarchyNode{{
			OperationID: "finition",
			Kind:        quote.KindLeaf,
			IsActive:    true,
			Task: &quote.Task{
				ProductTaskCode:     "PROC-PEINTURE",
				SurfaceArea:         50,
				EffectiveLaborPrice: 450,
				LaborerCount:        1,
				IsActive:            true,
			},
		}},
	}
}

func TestFlushDraftsJob(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	drafts := quote.NewDraftStore(client, time.Hour)
	repo := newFakeRepo()
	ctx := context.Background()

	require.NoError(t, drafts.Put(ctx, draftQuotation("q-1", quote.StatusDraft)))
	require.NoError(t, drafts.Put(ctx, draftQuotation("q-2", quote.StatusDraft)))
	// A stale draft for an already-sent quotation must be dropped, not
	// written back over the durable state.
	require.NoError(t, drafts.Put(ctx, draftQuotation("q-3", quote.StatusSent)))

	job := NewFlushDraftsJob(repo, drafts, discardLogger(), nil)
	require.NoError(t, job.Handle(ctx, NewFlushDraftsTask()))

	assert.Equal(t, quote.StatusDraft, repo.saved["q-1"])
	assert.Equal(t, quote.StatusDraft, repo.saved["q-2"])
	assert.NotContains(t, repo.saved, "q-3")

	_, err := drafts.Get(ctx, "q-3")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestExpireSweepJob(t *testing.T) {
	repo := newFakeRepo()
	repo.expirable = []string{"q-old-1", "q-old-2"}

	job := NewExpireSweepJob(repo, discardLogger(), nil)
	require.NoError(t, job.Handle(context.Background(), NewExpireSweepTask()))

	assert.Equal(t, quote.StatusExpired, repo.updated["q-old-1"])
	assert.Equal(t, quote.StatusExpired, repo.updated["q-old-2"])
}

func TestExpireSweepJobNothingToDo(t *testing.T) {
	repo := newFakeRepo()
	job := NewExpireSweepJob(repo, discardLogger(), nil)
	require.NoError(t, job.Handle(context.Background(), NewExpireSweepTask()))
	assert.Empty(t, repo.updated)
}
