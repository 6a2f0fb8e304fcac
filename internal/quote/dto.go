package quote

import (
	"strings"

	"github.com/devispro/devispro/internal/i18n"
	"github.com/devispro/devispro/internal/template"
)

// CreateQuotationRequest is the wizard's creation payload.
type CreateQuotationRequest struct {
	ChantierID       string   `json:"chantier_id" validate:"required"`
	Objet            string   `json:"objet" validate:"max=500"`
	FinishingLevel   string   `json:"finishing_level" validate:"required"`
	CoveringType     string   `json:"covering_type" validate:"required"`
	FinishingAspects []string `json:"finishing_aspects"`
	ValidityDays     int      `json:"validity_days" validate:"omitempty,min=1,max=365"`
}

func (r CreateQuotationRequest) toCreateRequest() CreateRequest {
	return CreateRequest{
		ChantierID: r.ChantierID,
		Objet:      strings.TrimSpace(r.Objet),
		Criteria: template.FinishingCriteria{
			FinishingLevel:   r.FinishingLevel,
			CoveringType:     r.CoveringType,
			FinishingAspects: r.FinishingAspects,
		},
		ValidityDays: r.ValidityDays,
	}
}

// NodeEditRequest addresses one hierarchy node and carries a numeric value.
// Values arrive as raw floats; the engine decides validity and clamping.
type NodeEditRequest struct {
	Path  []string `json:"path" validate:"required,min=1,dive,required"`
	Value float64  `json:"value"`
}

// LineEditRequest addresses one linked product line within a task.
type LineEditRequest struct {
	Path      []string `json:"path" validate:"required,min=1,dive,required"`
	LineIndex int      `json:"line_index" validate:"min=0"`
	Value     float64  `json:"value"`
}

// CountEditRequest sets an integer field such as the crew size.
type CountEditRequest struct {
	Path  []string `json:"path" validate:"required,min=1,dive,required"`
	Count int      `json:"count"`
}

// TogglePathRequest addresses a node for activation toggling.
type TogglePathRequest struct {
	Path []string `json:"path" validate:"required,min=1,dive,required"`
}

// ToggleLineRequest addresses one linked product line for toggling.
type ToggleLineRequest struct {
	Path      []string `json:"path" validate:"required,min=1,dive,required"`
	LineIndex int      `json:"line_index" validate:"min=0"`
}

// DiscountRequest sets the global discount.
type DiscountRequest struct {
	Mode  DiscountMode `json:"mode" validate:"required,oneof=amount percent"`
	Value float64      `json:"value"`
}

// DepositRequest sets the deposit.
type DepositRequest struct {
	Mode  DepositMode `json:"mode" validate:"required,oneof=amount percent"`
	Value float64     `json:"value"`
}

// QuotationResponse wraps a quotation with display-ready money strings and
// the notices raised by the last recomputation.
type QuotationResponse struct {
	Quotation *Quotation       `json:"quotation"`
	Display   QuotationDisplay `json:"display"`
	Notices   []Notice         `json:"notices,omitempty"`
}

// QuotationDisplay carries locale-formatted fields for direct rendering.
type QuotationDisplay struct {
	SubtotalHT     string `json:"subtotal_ht"`
	GlobalDiscount string `json:"global_discount"`
	FinalPrice     string `json:"final_price"`
	Deposit        string `json:"deposit"`
}

func newQuotationResponse(q *Quotation, notices []Notice) QuotationResponse {
	return QuotationResponse{
		Quotation: q,
		Display: QuotationDisplay{
			SubtotalHT:     i18n.FormatFCFA(q.Financial.SubtotalHT),
			GlobalDiscount: i18n.FormatFCFA(q.Financial.GlobalDiscount),
			FinalPrice:     i18n.FormatFCFA(q.Financial.FinalPrice),
			Deposit:        i18n.FormatFCFA(q.Financial.Deposit),
		},
		Notices: notices,
	}
}
