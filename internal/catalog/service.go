package catalog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/devispro/devispro/internal/shared"
)

// Service resolves catalog records, degrading to the fallback tables when a
// referenced code has no entry. A miss is a data-quality problem to report,
// never a reason to block quotation building.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a catalog service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Product returns the catalog record for code. found is false when the
// record was synthesized from the fallback tables; the caller is expected
// to surface that as a data-quality warning.
func (s *Service) Product(ctx context.Context, code string) (Product, bool) {
	p, err := s.repo.Get(ctx, code)
	if err == nil {
		return *p, true
	}
	if !errors.Is(err, shared.ErrNotFound) {
		// Infrastructure failure, not a data gap. Still degrade so the
		// wizard keeps working, but log at error level.
		s.logger.Error("catalog lookup failed", slog.String("code", code), slog.Any("error", err))
		return FallbackProduct(code), false
	}
	s.logger.Warn("catalog code missing, using fallback", slog.String("code", code))
	return FallbackProduct(code), false
}

// List returns all active catalog products.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}
