package quote

import (
	"fmt"
	"math"
)

// NodePath addresses a hierarchy node by the operation ids from a root down
// to the node. Edits carry their full path instead of relying on a mutable
// "current editing task" pointer, so repeated or interleaved edits stay
// deterministic.
type NodePath []string

// FindByPath resolves a path against the hierarchy. Returns nil when any
// segment does not match.
func FindByPath(hierarchy []*HierarchyNode, path NodePath) *HierarchyNode {
	if len(path) == 0 {
		return nil
	}
	nodes := hierarchy
	var current *HierarchyNode
	for _, id := range path {
		current = nil
		for _, n := range nodes {
			if n.OperationID == id {
				current = n
				break
			}
		}
		if current == nil {
			return nil
		}
		nodes = current.Children
	}
	return current
}

// FindNode locates a node anywhere in the hierarchy by operation id and
// returns it with its full path.
func FindNode(hierarchy []*HierarchyNode, operationID string) (*HierarchyNode, NodePath) {
	var search func(nodes []*HierarchyNode, prefix NodePath) (*HierarchyNode, NodePath)
	search = func(nodes []*HierarchyNode, prefix NodePath) (*HierarchyNode, NodePath) {
		for _, n := range nodes {
			path := append(append(NodePath{}, prefix...), n.OperationID)
			if n.OperationID == operationID {
				return n, path
			}
			if found, foundPath := search(n.Children, path); found != nil {
				return found, foundPath
			}
		}
		return nil, nil
	}
	return search(hierarchy, nil)
}

func validNumber(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ApplySurface sets a task's surface area and rederives every linked
// product quantity. Invalid input degrades to zero, which zeroes the
// dependent totals rather than hiding the mistake behind a stale value.
func ApplySurface(t *Task, candidate float64) []Notice {
	var notices []Notice
	if !validNumber(candidate) || candidate < 0 {
		notices = append(notices, Notice{
			Kind:      NoticeInvalidNumericInput,
			Field:     "surface_area",
			Ref:       t.ProductTaskCode,
			Message:   "surface area is not a valid measure, reset to 0",
			Corrected: 0,
		})
		candidate = 0
	}
	t.SurfaceArea = candidate
	ComputeLinkedQuantities(t)
	return notices
}

// ApplyLaborPrice validates a candidate labor price against the task's band
// and stores the accepted value.
func ApplyLaborPrice(t *Task, candidate float64) (PriceCheck, []Notice) {
	check := ValidateAndClampPrice(candidate, t.LaborFloorPrice, t.LaborCeilingPrice)
	t.EffectiveLaborPrice = check.Accepted
	return check, priceNotices(check, "effective_labor_price", t.ProductTaskCode)
}

// ApplyLinePrice validates a candidate price for one linked product line.
func ApplyLinePrice(t *Task, lineIndex int, candidate float64) (PriceCheck, []Notice, error) {
	if lineIndex < 0 || lineIndex >= len(t.LinkedProducts) {
		return PriceCheck{}, nil, fmt.Errorf("quote: task %s has no linked product %d", t.ProductTaskCode, lineIndex)
	}
	line := &t.LinkedProducts[lineIndex]
	check := ValidateAndClampPrice(candidate, line.FloorPrice, line.CeilingPrice)
	line.EffectivePrice = check.Accepted
	return check, priceNotices(check, "effective_price", line.ProductCode), nil
}

// ApplySecurityPercent sets a line's safety-stock percentage, clamped to
// the allowed band, and rederives quantities.
func ApplySecurityPercent(t *Task, lineIndex int, candidate float64) ([]Notice, error) {
	if lineIndex < 0 || lineIndex >= len(t.LinkedProducts) {
		return nil, fmt.Errorf("quote: task %s has no linked product %d", t.ProductTaskCode, lineIndex)
	}
	line := &t.LinkedProducts[lineIndex]

	var notices []Notice
	corrected := candidate
	switch {
	case !validNumber(candidate):
		corrected = SecurityPercentMin
		notices = append(notices, Notice{
			Kind:      NoticeInvalidNumericInput,
			Field:     "security_percent",
			Ref:       line.ProductCode,
			Message:   "security percentage is not a valid number",
			Corrected: corrected,
		})
	case candidate < SecurityPercentMin:
		corrected = SecurityPercentMin
		notices = append(notices, Notice{
			Kind:      NoticePriceOutOfBounds,
			Field:     "security_percent",
			Ref:       line.ProductCode,
			Message:   "security percentage raised to the minimum",
			Corrected: corrected,
		})
	case candidate > SecurityPercentMax:
		corrected = SecurityPercentMax
		notices = append(notices, Notice{
			Kind:      NoticePriceOutOfBounds,
			Field:     "security_percent",
			Ref:       line.ProductCode,
			Message:   "security percentage lowered to the maximum",
			Corrected: corrected,
		})
	}
	line.SecurityPercent = corrected
	ComputeLinkedQuantities(t)
	return notices, nil
}

// ApplyLaborerCount sets the crew size, never below one.
func ApplyLaborerCount(t *Task, count int) []Notice {
	if count < 1 {
		t.LaborerCount = 1
		return []Notice{{
			Kind:      NoticeInvalidNumericInput,
			Field:     "laborer_count",
			Ref:       t.ProductTaskCode,
			Message:   "crew size must be at least one",
			Corrected: 1,
		}}
	}
	t.LaborerCount = count
	return nil
}

// ToggleLine flips a linked product line's activation.
func ToggleLine(t *Task, lineIndex int) error {
	if lineIndex < 0 || lineIndex >= len(t.LinkedProducts) {
		return fmt.Errorf("quote: task %s has no linked product %d", t.ProductTaskCode, lineIndex)
	}
	t.LinkedProducts[lineIndex].IsActive = !t.LinkedProducts[lineIndex].IsActive
	return nil
}

func priceNotices(check PriceCheck, field, ref string) []Notice {
	switch check.Status {
	case PriceClampedLow:
		return []Notice{{
			Kind:      NoticePriceOutOfBounds,
			Field:     field,
			Ref:       ref,
			Message:   "price below the floor, raised to the floor",
			Corrected: check.Accepted,
		}}
	case PriceClampedHigh:
		return []Notice{{
			Kind:      NoticePriceOutOfBounds,
			Field:     field,
			Ref:       ref,
			Message:   "price above the ceiling, lowered to the ceiling",
			Corrected: check.Accepted,
		}}
	case PriceInvalid:
		return []Notice{{
			Kind:      NoticeInvalidNumericInput,
			Field:     field,
			Ref:       ref,
			Message:   "price is not a valid amount, floor applied",
			Corrected: check.Accepted,
		}}
	default:
		return nil
	}
}
