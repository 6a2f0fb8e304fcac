package quote

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devispro/devispro/internal/chantier"
	"github.com/devispro/devispro/internal/observability"
	"github.com/devispro/devispro/internal/shared"
	"github.com/devispro/devispro/internal/template"
)

// memRepository stores snapshots so tests observe persistence semantics
// instead of sharing pointers with the service.
type memRepository struct {
	snapshots map[string][]byte
	saves     int
}

func newMemRepository() *memRepository {
	return &memRepository{snapshots: make(map[string][]byte)}
}

func (m *memRepository) Save(_ context.Context, q *Quotation) error {
	data, err := Serialize(q)
	if err != nil {
		return err
	}
	m.snapshots[q.ID] = data
	m.saves++
	return nil
}

func (m *memRepository) Get(_ context.Context, id string) (*Quotation, error) {
	data, ok := m.snapshots[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return Deserialize(data)
}

func (m *memRepository) List(_ context.Context, _ ListRequest) ([]Summary, int, error) {
	return nil, 0, nil
}

func (m *memRepository) UpdateStatus(_ context.Context, id string, status Status) error {
	q, err := m.Get(context.Background(), id)
	if err != nil {
		return err
	}
	q.Status = status
	return m.Save(context.Background(), q)
}

func (m *memRepository) ListExpirable(_ context.Context, _ time.Time) ([]string, error) {
	return nil, nil
}

type memDrafts struct {
	snapshots map[string][]byte
}

func newMemDrafts() *memDrafts {
	return &memDrafts{snapshots: make(map[string][]byte)}
}

func (m *memDrafts) Put(_ context.Context, q *Quotation) error {
	data, err := Serialize(q)
	if err != nil {
		return err
	}
	m.snapshots[q.ID] = data
	return nil
}

func (m *memDrafts) Get(_ context.Context, id string) (*Quotation, error) {
	data, ok := m.snapshots[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return Deserialize(data)
}

func (m *memDrafts) Delete(_ context.Context, id string) error {
	delete(m.snapshots, id)
	return nil
}

type stubTemplates struct {
	tpl *template.Template
}

func (s stubTemplates) Match(_ context.Context, _ template.FinishingCriteria) (*template.Template, error) {
	if s.tpl == nil {
		return nil, shared.ErrNotFound
	}
	return s.tpl, nil
}

func (s stubTemplates) Get(_ context.Context, _ string) (*template.Template, error) {
	return s.Match(context.Background(), template.FinishingCriteria{})
}

type stubChantiers struct {
	known map[string]bool
}

func (s stubChantiers) Get(_ context.Context, id string) (*chantier.Chantier, error) {
	if !s.known[id] {
		return nil, shared.ErrNotFound
	}
	return &chantier.Chantier{ID: id}, nil
}

type serviceFixture struct {
	service *Service
	repo    *memRepository
	drafts  *memDrafts
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	repo := newMemRepository()
	drafts := newMemDrafts()
	service := NewService(
		repo,
		drafts,
		stubTemplates{tpl: testTemplate()},
		stubChantiers{known: map[string]bool{"ch-1": true}},
		testBuilder(),
		observability.NewMetrics(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return &serviceFixture{service: service, repo: repo, drafts: drafts}
}

func (f *serviceFixture) create(t *testing.T) *Quotation {
	t.Helper()
	q, _, err := f.service.Create(context.Background(), CreateRequest{
		ChantierID: "ch-1",
		Objet:      "Réfection peinture bureaux",
		Criteria:   template.FinishingCriteria{FinishingLevel: "A", CoveringType: "peinture"},
	})
	require.NoError(t, err)
	return q
}

func TestServiceCreate(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	q, notices, err := f.service.Create(ctx, CreateRequest{
		ChantierID: "ch-1",
		Criteria:   template.FinishingCriteria{FinishingLevel: "A", CoveringType: "peinture"},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, q.Status)
	assert.True(t, strings.HasPrefix(q.Reference, "DEV-"))
	assert.Equal(t, "tpl-standard", q.TemplateID)
	require.Len(t, q.Hierarchy, 2)
	assert.Positive(t, q.Financial.SubtotalHT)
	require.NotNil(t, q.ExpirationDate)
	assert.Equal(t, 30, int(q.ExpirationDate.Sub(q.EmissionDate).Hours()/24))

	// Fallback codes from the template surface as data-quality notices.
	assert.NotEmpty(t, notices)

	// The new quotation is durably saved and autosaved as a draft.
	_, err = f.repo.Get(ctx, q.ID)
	require.NoError(t, err)
	_, err = f.drafts.Get(ctx, q.ID)
	require.NoError(t, err)
}

func TestServiceCreateUnknownChantier(t *testing.T) {
	f := newServiceFixture(t)

	_, _, err := f.service.Create(context.Background(), CreateRequest{ChantierID: "nope"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestServiceCreateNoMatchingTemplate(t *testing.T) {
	repo := newMemRepository()
	service := NewService(
		repo,
		newMemDrafts(),
		stubTemplates{},
		stubChantiers{known: map[string]bool{"ch-1": true}},
		testBuilder(),
		observability.NewMetrics(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	_, _, err := service.Create(context.Background(), CreateRequest{ChantierID: "ch-1"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, repo.snapshots)
}

func TestServiceGetPrefersDraft(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	q := f.create(t)

	// Age the draft copy: a later edit exists only in the draft store.
	draft, err := f.drafts.Get(ctx, q.ID)
	require.NoError(t, err)
	draft.Notes = "draft only"
	require.NoError(t, f.drafts.Put(ctx, draft))

	got, err := f.service.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft only", got.Notes)

	// Without a draft the durable copy is served.
	require.NoError(t, f.drafts.Delete(ctx, q.ID))
	got, err = f.service.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Notes)
}

func TestServiceUpdateSurfaceRecomputes(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	q := f.create(t)
	before := q.Financial.SubtotalHT

	updated, notices, err := f.service.UpdateSurface(ctx, q.ID, NodePath{"finition"}, 100)
	require.NoError(t, err)
	assert.Empty(t, notices)
	assert.Greater(t, updated.Financial.SubtotalHT, before)

	// The edit reaches the draft store without a durable save.
	saves := f.repo.saves
	draft, err := f.drafts.Get(ctx, q.ID)
	require.NoError(t, err)
	leaf := FindByPath(draft.Hierarchy, NodePath{"finition"})
	require.NotNil(t, leaf)
	assert.Equal(t, 100.0, leaf.Task.SurfaceArea)
	assert.Equal(t, saves, f.repo.saves)
}

func TestServiceUpdateSurfaceUnknownPath(t *testing.T) {
	f := newServiceFixture(t)
	q := f.create(t)

	_, _, err := f.service.UpdateSurface(context.Background(), q.ID, NodePath{"nope"}, 100)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestServiceEditRejectedOutsideDraft(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	q := f.create(t)

	_, err := f.service.Submit(ctx, q.ID)
	require.NoError(t, err)

	_, _, err = f.service.UpdateSurface(ctx, q.ID, NodePath{"finition"}, 100)
	assert.ErrorIs(t, err, shared.ErrNotEditable)
}

func TestServiceSetDiscountCapNotice(t *testing.T) {
	f := newServiceFixture(t)
	q := f.create(t)

	updated, notices, err := f.service.SetDiscount(context.Background(), q.ID, DiscountAmount, q.Financial.SubtotalHT)
	require.NoError(t, err)
	require.Len(t, notices, 1)
	assert.Equal(t, NoticePriceOutOfBounds, notices[0].Kind)
	assert.InDelta(t, updated.Financial.SubtotalHT/2, updated.Financial.GlobalDiscount, 1)
}

func TestServiceSubmit(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	q := f.create(t)

	submitted, err := f.service.Submit(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingValidation, submitted.Status)

	// Leaving DRAFT drops the autosave; the durable copy is canonical.
	_, err = f.drafts.Get(ctx, q.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	durable, err := f.repo.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingValidation, durable.Status)
}

func TestServiceSubmitValidationFailure(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	q := f.create(t)

	_, _, err := f.service.UpdateSurface(ctx, q.ID, NodePath{"finition"}, 0)
	require.NoError(t, err)
	_, _, err = f.service.UpdateSurface(ctx, q.ID, NodePath{"prep", "prep.egrenage"}, 0)
	require.NoError(t, err)

	_, err = f.service.Submit(ctx, q.ID)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Errors)

	// A failed submit leaves the quotation editable.
	got, err := f.service.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, got.Status)
}

func TestServiceLifecycle(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	q := f.create(t)

	_, err := f.service.Submit(ctx, q.ID)
	require.NoError(t, err)

	sent, err := f.service.Send(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, sent.Status)

	accepted, err := f.service.Accept(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, accepted.Status)

	// Terminal states admit no further transitions.
	_, err = f.service.Cancel(ctx, q.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestServiceReopen(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	q := f.create(t)

	_, err := f.service.Submit(ctx, q.ID)
	require.NoError(t, err)

	reopened, err := f.service.Reopen(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, reopened.Status)

	// Back in DRAFT the quotation is editable again.
	_, _, err = f.service.UpdateSurface(ctx, q.ID, NodePath{"finition"}, 80)
	require.NoError(t, err)
}

func TestServiceInvalidTransitions(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	q := f.create(t)

	_, err := f.service.Send(ctx, q.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)
	_, err = f.service.Accept(ctx, q.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestServiceMarginView(t *testing.T) {
	f := newServiceFixture(t)
	q := f.create(t)

	m, err := f.service.MarginView(context.Background(), q.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, m.MarginTotal, 0.0)
}
