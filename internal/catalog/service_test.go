package catalog

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devispro/devispro/internal/shared"
)

type mockRepository struct {
	products map[string]*Product
	getError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{products: make(map[string]*Product)}
}

func (m *mockRepository) Get(ctx context.Context, code string) (*Product, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	p, ok := m.products[code]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (m *mockRepository) List(ctx context.Context) ([]Product, error) {
	var out []Product
	for _, p := range m.products {
		out = append(out, *p)
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProductReturnsCatalogRecord(t *testing.T) {
	repo := newMockRepository()
	repo.products["MI-300-30"] = &Product{
		Code:         "MI-300-30",
		Designation:  "Peinture mate intérieure 30kg",
		UOM:          "pcs",
		YieldPerUnit: 195,
		LayersCount:  2,
		Prices: map[PriceTier]float64{
			TierTechnicien: 266,
			TierPatron:     320,
		},
	}
	svc := NewService(repo, testLogger())

	p, found := svc.Product(context.Background(), "MI-300-30")
	require.True(t, found)
	assert.Equal(t, "Peinture mate intérieure 30kg", p.Designation)

	price, ok := p.Price(TierTechnicien)
	require.True(t, ok)
	assert.Equal(t, 266.0, price)
}

func TestProductFallsBackOnMissingCode(t *testing.T) {
	svc := NewService(newMockRepository(), testLogger())

	p, found := svc.Product(context.Background(), "PROC-EGRENAGE")
	assert.False(t, found)
	assert.Equal(t, "PROC-EGRENAGE", p.Code)
	assert.Equal(t, "m2", p.UOM)

	price, ok := p.Price(TierTechnicien)
	require.True(t, ok)
	assert.Equal(t, 800.0, price, "known process codes resolve from the fallback price table")
}

func TestProductFallbackDefaultsForUnknownCode(t *testing.T) {
	svc := NewService(newMockRepository(), testLogger())

	p, found := svc.Product(context.Background(), "XX-UNKNOWN-99")
	assert.False(t, found)

	price, _ := p.Price(TierTechnicien)
	assert.Equal(t, FallbackPrice, price)
	assert.Equal(t, FallbackYield, p.YieldPerUnit)
	assert.Equal(t, 1, p.LayersCount)
	assert.Equal(t, 5.0, p.DefaultSecurityPercent)
}

func TestFallbackSecurityPercentByFamily(t *testing.T) {
	cases := []struct {
		code string
		want float64
	}{
		{"PROC-PONCAGE", 5},
		{"EM-1500-25", 10},
		{"CC-GRIS-20", 10},
		{"ROULEAU-180-1", 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, fallbackSecurityPercent(tc.code), tc.code)
	}
}

func TestProductDegradesOnRepositoryFailure(t *testing.T) {
	repo := newMockRepository()
	repo.getError = assert.AnError
	svc := NewService(repo, testLogger())

	p, found := svc.Product(context.Background(), "MI-300-30")
	assert.False(t, found)
	assert.Equal(t, "MI-300-30", p.Code, "infrastructure failures degrade to fallback instead of blocking")
}
