package template

import (
	"context"
	"fmt"

	"github.com/devispro/devispro/internal/shared"
)

// Service exposes template lookup and criteria matching.
type Service struct {
	repo Repository
}

// NewService constructs a template service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a template by id.
func (s *Service) Get(ctx context.Context, id string) (*Template, error) {
	return s.repo.Get(ctx, id)
}

// List returns all active templates.
func (s *Service) List(ctx context.Context) ([]Template, error) {
	return s.repo.List(ctx)
}

// Match finds the template serving the requested finishing criteria.
// Returns shared.ErrNotFound when no active template covers them.
func (s *Service) Match(ctx context.Context, req FinishingCriteria) (*Template, error) {
	templates, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("template: match: %w", err)
	}
	for i := range templates {
		if templates[i].Matches(req) {
			return &templates[i], nil
		}
	}
	return nil, shared.ErrNotFound
}
