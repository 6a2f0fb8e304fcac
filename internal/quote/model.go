// Package quote implements the quotation core: hierarchy building from a
// template, the pricing and quantity derivation engine, and the financial
// aggregate with its discount and deposit rules.
package quote

import (
	"time"

	"github.com/devispro/devispro/internal/template"
)

// Status is the quotation lifecycle state.
type Status string

const (
	StatusDraft             Status = "DRAFT"
	StatusPendingValidation Status = "PENDING_VALIDATION"
	StatusSent              Status = "SENT"
	StatusAccepted          Status = "ACCEPTED"
	StatusRefused           Status = "REFUSED"
	StatusCancelled         Status = "CANCELLED"
	StatusExpired           Status = "EXPIRED"
)

var transitions = map[Status][]Status{
	StatusDraft:             {StatusPendingValidation, StatusCancelled},
	StatusPendingValidation: {StatusSent, StatusDraft, StatusCancelled},
	StatusSent:              {StatusAccepted, StatusRefused, StatusExpired},
}

// CanTransitionTo reports whether the status machine allows moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Editable reports whether prices, surfaces and activation may still change.
func (s Status) Editable() bool {
	return s == StatusDraft
}

// NodeKind discriminates the hierarchy node union.
type NodeKind string

const (
	// KindBranch groups child nodes.
	KindBranch NodeKind = "branch"
	// KindLeaf carries a priced Task.
	KindLeaf NodeKind = "leaf"
)

// LinkedProductLine is a physical product consumed by a task. Quantities are
// always derived from surface, layers, yield and security percent; they are
// never edited directly.
type LinkedProductLine struct {
	ProductCode     string  `json:"product_code"`
	Designation     string  `json:"designation"`
	UOM             string  `json:"uom"`
	YieldPerUnit    float64 `json:"yield_per_unit"`
	LayersCount     int     `json:"layers_count"`
	SecurityPercent float64 `json:"security_percent"`

	EstimatedQuantity float64 `json:"estimated_quantity"`
	SafetyQuantity    float64 `json:"safety_quantity"`
	OrderedQuantity   float64 `json:"ordered_quantity"`

	FloorPrice     float64 `json:"floor_price"`
	CeilingPrice   float64 `json:"ceiling_price"`
	EffectivePrice float64 `json:"effective_price"`

	IsActive bool `json:"is_active"`
}

// Task is a leaf unit of billable labor plus its linked products.
type Task struct {
	ProductTaskCode string  `json:"product_task_code"`
	Name            string  `json:"name"`
	SurfaceArea     float64 `json:"surface_area"`
	UOM             string  `json:"uom"`

	LaborFloorPrice     float64 `json:"labor_floor_price"`
	LaborCeilingPrice   float64 `json:"labor_ceiling_price"`
	EffectiveLaborPrice float64 `json:"effective_labor_price"`

	LaborerCount int  `json:"laborer_count"`
	IsActive     bool `json:"is_active"`

	LinkedProducts []LinkedProductLine `json:"linked_products"`
}

// HierarchyNode mirrors a template operation with per-quotation runtime
// state. Exactly one of Task or Children is set, according to Kind.
type HierarchyNode struct {
	OperationID string   `json:"operation_id"`
	Name        string   `json:"name"`
	IsMandatory bool     `json:"is_mandatory"`
	IsActive    bool     `json:"is_active"`
	IsExpanded  bool     `json:"is_expanded"`
	Kind        NodeKind `json:"kind"`

	Task     *Task            `json:"task,omitempty"`
	Children []*HierarchyNode `json:"children,omitempty"`
}

// sound reports whether the node respects the leaf/branch invariant. An
// unsound node is treated as inactive by every aggregation, failing safe
// toward excluding value.
func (n *HierarchyNode) sound() bool {
	switch n.Kind {
	case KindLeaf:
		return n.Task != nil && len(n.Children) == 0
	case KindBranch:
		return n.Task == nil
	default:
		return false
	}
}

// DiscountMode selects how the global discount input is interpreted.
type DiscountMode string

const (
	DiscountAmount  DiscountMode = "amount"
	DiscountPercent DiscountMode = "percent"
)

// DepositMode selects how the deposit input is interpreted.
type DepositMode string

const (
	DepositAmount  DepositMode = "amount"
	DepositPercent DepositMode = "percent"
)

// FinancialDetails is the quotation's money summary. Derived fields
// (SubtotalHT, GlobalDiscount, FinalPrice, Deposit) are written only by
// RecomputeAll.
type FinancialDetails struct {
	SubtotalHT float64 `json:"subtotal_ht"`

	DiscountMode   DiscountMode `json:"discount_mode"`
	DiscountInput  float64      `json:"discount_input"`
	GlobalDiscount float64      `json:"global_discount"`

	FinalPrice float64 `json:"final_price"`

	DepositMode  DepositMode `json:"deposit_mode"`
	DepositInput float64     `json:"deposit_input"`
	Deposit      float64     `json:"deposit"`
}

// Planning carries the execution estimate shown to the client.
type Planning struct {
	EstimatedDurationDays int `json:"estimated_duration_days"`
}

// Quotation is the aggregate root for one devis. It owns its hierarchy
// exclusively; nothing in it aliases template state.
type Quotation struct {
	ID         string                     `json:"id"`
	Reference  string                     `json:"reference"`
	ChantierID string                     `json:"chantier_id"`
	TemplateID string                     `json:"template_id"`
	Criteria   template.FinishingCriteria `json:"criteria"`

	Objet    string `json:"objet,omitempty"`
	Notes    string `json:"notes,omitempty"`
	Garantie string `json:"garantie,omitempty"`

	Hierarchy []*HierarchyNode `json:"hierarchy"`
	Financial FinancialDetails `json:"financial"`
	Planning  Planning         `json:"planning"`

	Status         Status     `json:"status"`
	EmissionDate   time.Time  `json:"emission_date"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
