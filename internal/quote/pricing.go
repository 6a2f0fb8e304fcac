package quote

import (
	"context"
	"math"

	"github.com/devispro/devispro/internal/catalog"
)

const (
	// DefaultSurfaceArea is the placeholder surface a task starts with
	// until the technician enters the measured value.
	DefaultSurfaceArea = 50.0

	// missingTierMarkup derives a ceiling price when a product defines no
	// Patron tier: ceiling = round(floor × 1.15).
	missingTierMarkup = 1.15

	// missingLaborFloorRatio derives the labor floor when a process defines
	// no Tâcheron tier: floor = round(technicien × 0.85).
	missingLaborFloorRatio = 0.85

	// squareMetersPerLaborerDay sizes the duration estimate: one laborer
	// covers 20 m² per day.
	squareMetersPerLaborerDay = 20.0

	// SecurityPercentMin and SecurityPercentMax bound the user-adjustable
	// safety-stock percentage.
	SecurityPercentMin = 10.0
	SecurityPercentMax = 50.0
)

// PriceStatus reports the outcome of a price validation.
type PriceStatus string

const (
	PriceValid       PriceStatus = "valid"
	PriceClampedLow  PriceStatus = "clamped_low"
	PriceClampedHigh PriceStatus = "clamped_high"
	PriceInvalid     PriceStatus = "invalid"
)

// PriceCheck is the corrected price plus how it was corrected. Accepted is
// always within [floor, ceiling].
type PriceCheck struct {
	Accepted float64     `json:"accepted"`
	Status   PriceStatus `json:"status"`
}

// ValidateAndClampPrice validates a candidate price against its band. Every
// price mutation, user-entered or programmatic, goes through here. The
// function is total: invalid input degrades to the floor.
func ValidateAndClampPrice(candidate, floor, ceiling float64) PriceCheck {
	if ceiling < floor {
		ceiling = floor
	}
	switch {
	case math.IsNaN(candidate) || math.IsInf(candidate, 0) || candidate <= 0:
		return PriceCheck{Accepted: floor, Status: PriceInvalid}
	case candidate < floor:
		return PriceCheck{Accepted: floor, Status: PriceClampedLow}
	case candidate > ceiling:
		return PriceCheck{Accepted: ceiling, Status: PriceClampedHigh}
	default:
		return PriceCheck{Accepted: math.Round(candidate), Status: PriceValid}
	}
}

// PriceBand is a resolved [floor, ceiling] pair with its default effective
// price (the floor).
type PriceBand struct {
	Floor     float64
	Ceiling   float64
	Effective float64
}

// CatalogLookup is the catalog contract the engine depends on. found is
// false when the record came from the fallback tables.
type CatalogLookup interface {
	Product(ctx context.Context, code string) (p catalog.Product, found bool)
}

// Engine resolves default pricing from the catalog. It is the only
// component allowed to write effective prices, ordered quantities and
// aggregate totals.
type Engine struct {
	catalog CatalogLookup
}

// NewEngine constructs a pricing engine over a catalog.
func NewEngine(c CatalogLookup) *Engine {
	return &Engine{catalog: c}
}

// ResolveTaskPricing returns the labor price band for a process code.
// Floor comes from the Tâcheron tier, ceiling from the Patron tier; missing
// tiers follow the documented markup policy.
func (e *Engine) ResolveTaskPricing(ctx context.Context, code string) (PriceBand, catalog.Product, bool) {
	product, found := e.catalog.Product(ctx, code)

	floor, ok := product.Price(catalog.TierTacheron)
	if !ok {
		base, baseOK := product.Price(catalog.TierTechnicien)
		if !baseOK {
			base = catalog.FallbackPrice
		}
		floor = math.Round(base * missingLaborFloorRatio)
	}
	ceiling, ok := product.Price(catalog.TierPatron)
	if !ok {
		ceiling = math.Round(floor * missingTierMarkup)
	}
	if ceiling < floor {
		ceiling = floor
	}
	return PriceBand{Floor: floor, Ceiling: ceiling, Effective: floor}, product, found
}

// ResolveProductPricing returns the price band for a physical product:
// floor from the Technicien tier, ceiling from the Patron tier, with the
// same markup fallback.
func (e *Engine) ResolveProductPricing(ctx context.Context, code string) (PriceBand, catalog.Product, bool) {
	product, found := e.catalog.Product(ctx, code)

	floor, ok := product.Price(catalog.TierTechnicien)
	if !ok {
		floor = catalog.FallbackPrice
	}
	ceiling, ok := product.Price(catalog.TierPatron)
	if !ok {
		ceiling = math.Round(floor * missingTierMarkup)
	}
	if ceiling < floor {
		ceiling = floor
	}
	return PriceBand{Floor: floor, Ceiling: ceiling, Effective: floor}, product, found
}

// ComputeLinkedQuantities recomputes every linked product line's quantities
// from the task surface. Idempotent: the derivation reads only inputs, so
// repeated calls cannot drift.
func ComputeLinkedQuantities(t *Task) {
	for i := range t.LinkedProducts {
		line := &t.LinkedProducts[i]

		layers := float64(line.LayersCount)
		if layers < 1 {
			layers = 1
		}
		if line.YieldPerUnit <= 0 || t.SurfaceArea <= 0 {
			// Conservative: no usable inputs means no ordered quantity.
			line.EstimatedQuantity = 0
			line.SafetyQuantity = 0
			line.OrderedQuantity = 0
			continue
		}
		line.EstimatedQuantity = math.Ceil(t.SurfaceArea * layers / line.YieldPerUnit)
		line.SafetyQuantity = math.Ceil(line.EstimatedQuantity * line.SecurityPercent / 100)
		line.OrderedQuantity = line.EstimatedQuantity + line.SafetyQuantity
	}
}

// TaskTotal is the task's contribution: labor plus active linked products.
// Inactive tasks contribute zero even while still rendered for visibility.
func TaskTotal(t *Task) float64 {
	if t == nil || !t.IsActive {
		return 0
	}
	total := t.EffectiveLaborPrice * t.SurfaceArea
	for i := range t.LinkedProducts {
		line := &t.LinkedProducts[i]
		if !line.IsActive {
			continue
		}
		total += line.EffectivePrice * line.OrderedQuantity
	}
	return total
}

// NodeTotal aggregates a subtree. Inactive or structurally unsound nodes
// contribute zero.
func NodeTotal(n *HierarchyNode) float64 {
	if n == nil || !n.IsActive || !n.sound() {
		return 0
	}
	if n.Kind == KindLeaf {
		return TaskTotal(n.Task)
	}
	var total float64
	for _, child := range n.Children {
		total += NodeTotal(child)
	}
	return total
}

// AggregateSubtotal sums every root operation.
func AggregateSubtotal(hierarchy []*HierarchyNode) float64 {
	var total float64
	for _, root := range hierarchy {
		total += NodeTotal(root)
	}
	return total
}

// TaskMargin returns the labor and product margins for one task. Margins
// are not floored here; a single underpriced task may show a negative
// contribution in detail views.
func TaskMargin(t *Task) (labor, products float64) {
	if t == nil || !t.IsActive {
		return 0, 0
	}
	labor = (t.EffectiveLaborPrice - t.LaborFloorPrice) * t.SurfaceArea
	for i := range t.LinkedProducts {
		line := &t.LinkedProducts[i]
		if !line.IsActive {
			continue
		}
		products += (line.EffectivePrice - line.FloorPrice) * line.OrderedQuantity
	}
	return labor, products
}

func nodeMargin(n *HierarchyNode) (labor, products float64) {
	if n == nil || !n.IsActive || !n.sound() {
		return 0, 0
	}
	if n.Kind == KindLeaf {
		return TaskMargin(n.Task)
	}
	for _, child := range n.Children {
		l, p := nodeMargin(child)
		labor += l
		products += p
	}
	return labor, products
}

// EstimatedDurationDays estimates execution time over the active leaves:
// one laborer covers 20 m² per day, never less than one day overall.
func EstimatedDurationDays(hierarchy []*HierarchyNode) int {
	total := 0
	for _, root := range hierarchy {
		total += nodeDuration(root)
	}
	if total < 1 {
		total = 1
	}
	return total
}

func nodeDuration(n *HierarchyNode) int {
	if n == nil || !n.IsActive || !n.sound() {
		return 0
	}
	if n.Kind == KindLeaf {
		t := n.Task
		if !t.IsActive || t.SurfaceArea <= 0 {
			return 0
		}
		laborers := float64(t.LaborerCount)
		if laborers < 1 {
			laborers = 1
		}
		return int(math.Ceil(t.SurfaceArea / (squareMetersPerLaborerDay * laborers)))
	}
	total := 0
	for _, child := range n.Children {
		total += nodeDuration(child)
	}
	return total
}
