package quote

import "math"

// maxDiscountRatio caps the global discount at half the subtotal.
const maxDiscountRatio = 0.5

// RecomputeAll refreshes every derived financial field from the current
// tree: subtotal, applied discount, final price, deposit and duration.
// Called eagerly after every mutating edit; returns the corrections it had
// to make.
func RecomputeAll(q *Quotation) []Notice {
	var notices []Notice

	q.Financial.SubtotalHT = AggregateSubtotal(q.Hierarchy)

	discount, dn := resolveDiscount(&q.Financial)
	notices = append(notices, dn...)
	q.Financial.GlobalDiscount = discount
	q.Financial.FinalPrice = q.Financial.SubtotalHT - discount

	deposit, pn := resolveDeposit(&q.Financial)
	notices = append(notices, pn...)
	q.Financial.Deposit = deposit

	q.Planning.EstimatedDurationDays = EstimatedDurationDays(q.Hierarchy)

	notices = append(notices, structuralNotices(q.Hierarchy)...)
	return notices
}

func resolveDiscount(f *FinancialDetails) (float64, []Notice) {
	input := f.DiscountInput
	if math.IsNaN(input) || math.IsInf(input, 0) || input < 0 {
		return 0, []Notice{{
			Kind:      NoticeInvalidNumericInput,
			Field:     "global_discount",
			Message:   "discount input is not a valid amount, no discount applied",
			Corrected: 0,
		}}
	}

	var requested float64
	switch f.DiscountMode {
	case DiscountPercent:
		requested = math.Round(f.SubtotalHT * input / 100)
	default:
		requested = math.Round(input)
	}

	limit := math.Round(f.SubtotalHT * maxDiscountRatio)
	if requested > limit {
		return limit, []Notice{{
			Kind:      NoticePriceOutOfBounds,
			Field:     "global_discount",
			Message:   "discount exceeds half of the subtotal, capped",
			Corrected: limit,
		}}
	}
	return requested, nil
}

func resolveDeposit(f *FinancialDetails) (float64, []Notice) {
	input := f.DepositInput
	if math.IsNaN(input) || math.IsInf(input, 0) || input < 0 {
		return 0, []Notice{{
			Kind:      NoticeInvalidNumericInput,
			Field:     "deposit",
			Message:   "deposit input is not a valid amount, no deposit applied",
			Corrected: 0,
		}}
	}

	switch f.DepositMode {
	case DepositPercent:
		return math.Round(f.FinalPrice * input / 100), nil
	default:
		// A fixed deposit above the final price is tolerated while editing;
		// submission validation rejects it.
		return math.Round(input), nil
	}
}

func structuralNotices(hierarchy []*HierarchyNode) []Notice {
	var notices []Notice
	var walk func(n *HierarchyNode)
	walk = func(n *HierarchyNode) {
		if n == nil {
			return
		}
		if !n.sound() {
			notices = append(notices, Notice{
				Kind:    NoticeStructuralViolation,
				Field:   "hierarchy",
				Ref:     n.OperationID,
				Message: "node is malformed and excluded from totals",
			})
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	for _, root := range hierarchy {
		walk(root)
	}
	return notices
}

// ToggleActivation flips a node. Deactivation cascades to every descendant;
// activation re-enables only the node itself, each child keeping its own
// state.
func ToggleActivation(n *HierarchyNode) {
	n.IsActive = !n.IsActive
	if n.Kind == KindLeaf && n.Task != nil {
		n.Task.IsActive = n.IsActive
	}
	if !n.IsActive {
		for _, child := range n.Children {
			deactivateSubtree(child)
		}
	}
}

func deactivateSubtree(n *HierarchyNode) {
	n.IsActive = false
	if n.Task != nil {
		n.Task.IsActive = false
	}
	for _, child := range n.Children {
		deactivateSubtree(child)
	}
}

// MarginBreakdown is the technician-facing margin view, never shown to the
// end client.
type MarginBreakdown struct {
	MarginLabor    float64 `json:"margin_labor"`
	MarginProducts float64 `json:"margin_products"`
	MarginTotal    float64 `json:"margin_total"`
	NetGain        float64 `json:"net_gain"`
}

// Margins computes the margin breakdown for the current tree. The total is
// clamped to zero only here at the top; per-task details may go negative.
func Margins(q *Quotation) MarginBreakdown {
	var labor, products float64
	for _, root := range q.Hierarchy {
		l, p := nodeMargin(root)
		labor += l
		products += p
	}
	total := labor + products
	if total < 0 {
		total = 0
	}
	return MarginBreakdown{
		MarginLabor:    labor,
		MarginProducts: products,
		MarginTotal:    total,
		NetGain:        total - q.Financial.GlobalDiscount,
	}
}

// ValidateForSubmission checks the rules gating the DRAFT exit: a positive
// final price, a deposit within the final price, and a measured surface on
// every active task. It never mutates the quotation.
func ValidateForSubmission(q *Quotation) []SubmissionError {
	var errs []SubmissionError
	if q.Financial.FinalPrice <= 0 {
		errs = append(errs, SubmissionError{
			Field:   "final_price",
			Message: "final price must be positive",
		})
	}
	if q.Financial.Deposit > q.Financial.FinalPrice {
		errs = append(errs, SubmissionError{
			Field:   "deposit",
			Message: "deposit cannot exceed the final price",
		})
	}

	var walk func(n *HierarchyNode)
	walk = func(n *HierarchyNode) {
		if n == nil || !n.IsActive {
			return
		}
		if n.Kind == KindLeaf && n.Task != nil && n.Task.IsActive && n.Task.SurfaceArea <= 0 {
			errs = append(errs, SubmissionError{
				Field:   "surface_area",
				Ref:     n.OperationID,
				Message: "active task has no measured surface",
			})
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	for _, root := range q.Hierarchy {
		walk(root)
	}
	return errs
}
