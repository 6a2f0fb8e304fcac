package quote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/devispro/devispro/internal/chantier"
	"github.com/devispro/devispro/internal/observability"
	"github.com/devispro/devispro/internal/shared"
	"github.com/devispro/devispro/internal/template"
)

// defaultValidityDays is the client-facing offer validity applied when the
// technician does not choose one.
const defaultValidityDays = 30

// TemplateSource is the template module contract the service depends on.
type TemplateSource interface {
	Match(ctx context.Context, req template.FinishingCriteria) (*template.Template, error)
	Get(ctx context.Context, id string) (*template.Template, error)
}

// ChantierSource verifies the client site a quotation is drawn up for.
type ChantierSource interface {
	Get(ctx context.Context, id string) (*chantier.Chantier, error)
}

// Drafts is the autosave store contract.
type Drafts interface {
	Put(ctx context.Context, q *Quotation) error
	Get(ctx context.Context, id string) (*Quotation, error)
	Delete(ctx context.Context, id string) error
}

// Service drives the quotation lifecycle: creation from a matched template,
// the edit loop with eager recomputation, and status transitions.
type Service struct {
	repo      Repository
	drafts    Drafts
	templates TemplateSource
	chantiers ChantierSource
	builder   *Builder
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewService constructs a quotation service.
func NewService(
	repo Repository,
	drafts Drafts,
	templates TemplateSource,
	chantiers ChantierSource,
	builder *Builder,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		drafts:    drafts,
		templates: templates,
		chantiers: chantiers,
		builder:   builder,
		metrics:   metrics,
		logger:    logger,
	}
}

// CreateRequest carries the wizard's first-step choices.
type CreateRequest struct {
	ChantierID   string
	Objet        string
	Criteria     template.FinishingCriteria
	ValidityDays int
}

// Create matches a template against the finishing criteria, instantiates
// the hierarchy with default pricing and persists the new DRAFT quotation.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Quotation, []Notice, error) {
	if _, err := s.chantiers.Get(ctx, req.ChantierID); err != nil {
		return nil, nil, fmt.Errorf("verify chantier: %w", err)
	}

	tpl, err := s.templates.Match(ctx, req.Criteria)
	if err != nil {
		return nil, nil, fmt.Errorf("match template: %w", err)
	}

	hierarchy, notices := s.builder.Build(ctx, tpl)

	now := time.Now().UTC()
	validity := req.ValidityDays
	if validity <= 0 {
		validity = defaultValidityDays
	}
	expiration := now.AddDate(0, 0, validity)

	q := &Quotation{
		ID:             uuid.NewString(),
		Reference:      newReference(now),
		ChantierID:     req.ChantierID,
		TemplateID:     tpl.ID,
		Criteria:       req.Criteria,
		Objet:          req.Objet,
		Hierarchy:      hierarchy,
		Status:         StatusDraft,
		EmissionDate:   now,
		ExpirationDate: &expiration,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	q.Financial.DiscountMode = DiscountAmount
	q.Financial.DepositMode = DepositPercent

	notices = append(notices, RecomputeAll(q)...)
	s.observe(notices)

	if err := s.repo.Save(ctx, q); err != nil {
		return nil, nil, err
	}
	if err := s.drafts.Put(ctx, q); err != nil {
		s.logger.Warn("draft autosave failed", slog.String("quotation", q.ID), slog.Any("error", err))
	}
	return q, notices, nil
}

func newReference(now time.Time) string {
	return fmt.Sprintf("DEV-%s-%s", now.Format("20060102"), uuid.NewString()[:8])
}

// Get loads a quotation, preferring the fresher autosaved draft.
func (s *Service) Get(ctx context.Context, id string) (*Quotation, error) {
	q, err := s.drafts.Get(ctx, id)
	if err == nil {
		return q, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		s.logger.Warn("draft load failed", slog.String("quotation", id), slog.Any("error", err))
	}
	return s.repo.Get(ctx, id)
}

// List returns quotation summaries from the durable store.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Summary, int, error) {
	return s.repo.List(ctx, req)
}

// MarginView returns the technician-facing margin breakdown.
func (s *Service) MarginView(ctx context.Context, id string) (MarginBreakdown, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return MarginBreakdown{}, err
	}
	return Margins(q), nil
}

// mutate runs one edit on an editable quotation, recomputes everything and
// autosaves the draft.
func (s *Service) mutate(ctx context.Context, id string, fn func(q *Quotation) ([]Notice, error)) (*Quotation, []Notice, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !q.Status.Editable() {
		return nil, nil, shared.ErrNotEditable
	}

	notices, err := fn(q)
	if err != nil {
		return nil, nil, err
	}

	notices = append(notices, RecomputeAll(q)...)
	q.UpdatedAt = time.Now().UTC()
	s.observe(notices)

	if err := s.drafts.Put(ctx, q); err != nil {
		// The draft store is the autosave path; losing one write must not
		// lose the edit, so fall back to the durable store.
		s.logger.Warn("draft autosave failed, saving durably", slog.String("quotation", q.ID), slog.Any("error", err))
		if err := s.repo.Save(ctx, q); err != nil {
			return nil, nil, err
		}
	}
	return q, notices, nil
}

func (s *Service) leafTask(q *Quotation, path NodePath) (*Task, error) {
	node := FindByPath(q.Hierarchy, path)
	if node == nil {
		return nil, fmt.Errorf("node %v: %w", path, shared.ErrNotFound)
	}
	if node.Kind != KindLeaf || node.Task == nil {
		return nil, fmt.Errorf("quote: node %s carries no task", node.OperationID)
	}
	return node.Task, nil
}

// UpdateSurface sets the measured surface of a task.
func (s *Service) UpdateSurface(ctx context.Context, id string, path NodePath, value float64) (*Quotation, []Notice, error) {
	return s.mutate(ctx, id, func(q *Quotation) ([]Notice, error) {
		task, err := s.leafTask(q, path)
		if err != nil {
			return nil, err
		}
		return ApplySurface(task, value), nil
	})
}

// UpdateLaborPrice sets a task's effective labor price.
func (s *Service) UpdateLaborPrice(ctx context.Context, id string, path NodePath, value float64) (*Quotation, []Notice, error) {
	return s.mutate(ctx, id, func(q *Quotation) ([]Notice, error) {
		task, err := s.leafTask(q, path)
		if err != nil {
			return nil, err
		}
		_, notices := ApplyLaborPrice(task, value)
		return notices, nil
	})
}

// UpdateLinePrice sets a linked product line's effective price.
func (s *Service) UpdateLinePrice(ctx context.Context, id string, path NodePath, lineIndex int, value float64) (*Quotation, []Notice, error) {
	return s.mutate(ctx, id, func(q *Quotation) ([]Notice, error) {
		task, err := s.leafTask(q, path)
		if err != nil {
			return nil, err
		}
		_, notices, err := ApplyLinePrice(task, lineIndex, value)
		return notices, err
	})
}

// UpdateSecurityPercent sets a line's safety-stock percentage.
func (s *Service) UpdateSecurityPercent(ctx context.Context, id string, path NodePath, lineIndex int, value float64) (*Quotation, []Notice, error) {
	return s.mutate(ctx, id, func(q *Quotation) ([]Notice, error) {
		task, err := s.leafTask(q, path)
		if err != nil {
			return nil, err
		}
		return ApplySecurityPercent(task, lineIndex, value)
	})
}

// UpdateLaborerCount sets a task's crew size.
func (s *Service) UpdateLaborerCount(ctx context.Context, id string, path NodePath, count int) (*Quotation, []Notice, error) {
	return s.mutate(ctx, id, func(q *Quotation) ([]Notice, error) {
		task, err := s.leafTask(q, path)
		if err != nil {
			return nil, err
		}
		return ApplyLaborerCount(task, count), nil
	})
}

// Toggle flips a hierarchy node's activation with cascading deactivation.
func (s *Service) Toggle(ctx context.Context, id string, path NodePath) (*Quotation, []Notice, error) {
	return s.mutate(ctx, id, func(q *Quotation) ([]Notice, error) {
		node := FindByPath(q.Hierarchy, path)
		if node == nil {
			return nil, fmt.Errorf("node %v: %w", path, shared.ErrNotFound)
		}
		ToggleActivation(node)
		return nil, nil
	})
}

// ToggleLinkedProduct flips one linked product line's activation.
func (s *Service) ToggleLinkedProduct(ctx context.Context, id string, path NodePath, lineIndex int) (*Quotation, []Notice, error) {
	return s.mutate(ctx, id, func(q *Quotation) ([]Notice, error) {
		task, err := s.leafTask(q, path)
		if err != nil {
			return nil, err
		}
		return nil, ToggleLine(task, lineIndex)
	})
}

// SetDiscount sets the global discount mode and input.
func (s *Service) SetDiscount(ctx context.Context, id string, mode DiscountMode, input float64) (*Quotation, []Notice, error) {
	return s.mutate(ctx, id, func(q *Quotation) ([]Notice, error) {
		q.Financial.DiscountMode = mode
		q.Financial.DiscountInput = input
		return nil, nil
	})
}

// SetDeposit sets the deposit mode and input.
func (s *Service) SetDeposit(ctx context.Context, id string, mode DepositMode, input float64) (*Quotation, []Notice, error) {
	return s.mutate(ctx, id, func(q *Quotation) ([]Notice, error) {
		q.Financial.DepositMode = mode
		q.Financial.DepositInput = input
		return nil, nil
	})
}

// Submit validates the DRAFT and moves it to PENDING_VALIDATION. On
// validation failure the quotation is left intact for correction.
func (s *Service) Submit(ctx context.Context, id string) (*Quotation, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.Status.CanTransitionTo(StatusPendingValidation) {
		return nil, fmt.Errorf("%w: %s cannot be submitted", shared.ErrInvalidStatus, q.Status)
	}

	RecomputeAll(q)
	if errs := ValidateForSubmission(q); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return s.finalizeTransition(ctx, q, StatusPendingValidation)
}

// Send marks a validated quotation as sent to the client.
func (s *Service) Send(ctx context.Context, id string) (*Quotation, error) {
	return s.transition(ctx, id, StatusSent)
}

// Accept marks a sent quotation as accepted by the client.
func (s *Service) Accept(ctx context.Context, id string) (*Quotation, error) {
	return s.transition(ctx, id, StatusAccepted)
}

// Refuse marks a sent quotation as refused by the client.
func (s *Service) Refuse(ctx context.Context, id string) (*Quotation, error) {
	return s.transition(ctx, id, StatusRefused)
}

// Cancel abandons a quotation that has not been sent.
func (s *Service) Cancel(ctx context.Context, id string) (*Quotation, error) {
	return s.transition(ctx, id, StatusCancelled)
}

// Reopen brings a pending quotation back to DRAFT for correction.
func (s *Service) Reopen(ctx context.Context, id string) (*Quotation, error) {
	return s.transition(ctx, id, StatusDraft)
}

func (s *Service) transition(ctx context.Context, id string, next Status) (*Quotation, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", shared.ErrInvalidStatus, q.Status, next)
	}
	return s.finalizeTransition(ctx, q, next)
}

func (s *Service) finalizeTransition(ctx context.Context, q *Quotation, next Status) (*Quotation, error) {
	q.Status = next
	q.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, q); err != nil {
		return nil, err
	}
	if next != StatusDraft {
		if err := s.drafts.Delete(ctx, q.ID); err != nil {
			s.logger.Warn("draft cleanup failed", slog.String("quotation", q.ID), slog.Any("error", err))
		}
	}
	return q, nil
}

func (s *Service) observe(notices []Notice) {
	s.metrics.ObserveRecompute()
	for _, n := range notices {
		s.metrics.ObserveNotice(string(n.Kind))
	}
}
