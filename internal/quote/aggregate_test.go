package quote

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureQuotation builds a two-operation tree worth 100000 FCFA:
// labor 650*100 = 65000 plus products 500*70 = 35000.
func fixtureQuotation() *Quotation {
	return &Quotation{
		ID:     "q-1",
		Status: StatusDraft,
		Hierarchy: []*HierarchyNode{
			{
				OperationID: "prep",
				Kind:        KindBranch,
				IsActive:    true,
				Children: []*HierarchyNode{
					{
						OperationID: "prep.egrenage",
						Kind:        KindLeaf,
						IsActive:    true,
						Task: &Task{
							ProductTaskCode:     "PROC-EGRENAGE",
							SurfaceArea:         100,
							LaborFloorPrice:     450,
							EffectiveLaborPrice: 650,
							LaborerCount:        2,
							IsActive:            true,
						},
					},
				},
			},
			{
				OperationID: "finition",
				Kind:        KindLeaf,
				IsActive:    true,
				Task: &Task{
					ProductTaskCode: "PROC-PEINTURE",
					SurfaceArea:     70,
					LaborerCount:    1,
					IsActive:        true,
					LinkedProducts: []LinkedProductLine{{
						ProductCode:     "MI-300-30",
						FloorPrice:      400,
						EffectivePrice:  500,
						OrderedQuantity: 70,
						IsActive:        true,
					}},
				},
			},
		},
	}
}

func TestRecomputeAll(t *testing.T) {
	q := fixtureQuotation()
	notices := RecomputeAll(q)

	assert.Empty(t, notices)
	assert.Equal(t, 100000.0, q.Financial.SubtotalHT)
	assert.Equal(t, 100000.0, q.Financial.FinalPrice)
	assert.Zero(t, q.Financial.GlobalDiscount)
	// ceil(100/(20*2)) + ceil(70/20) = 3 + 4
	assert.Equal(t, 7, q.Planning.EstimatedDurationDays)
}

func TestRecomputeAllDiscountCap(t *testing.T) {
	q := fixtureQuotation()
	q.Financial.DiscountMode = DiscountAmount
	q.Financial.DiscountInput = 60000

	notices := RecomputeAll(q)

	require.Len(t, notices, 1)
	assert.Equal(t, NoticePriceOutOfBounds, notices[0].Kind)
	assert.Equal(t, 50000.0, q.Financial.GlobalDiscount)
	assert.Equal(t, 50000.0, q.Financial.FinalPrice)
}

func TestRecomputeAllDiscountPercent(t *testing.T) {
	q := fixtureQuotation()
	q.Financial.DiscountMode = DiscountPercent
	q.Financial.DiscountInput = 10

	notices := RecomputeAll(q)

	assert.Empty(t, notices)
	assert.Equal(t, 10000.0, q.Financial.GlobalDiscount)
	assert.Equal(t, 90000.0, q.Financial.FinalPrice)
}

func TestRecomputeAllInvalidDiscount(t *testing.T) {
	for _, input := range []float64{math.NaN(), math.Inf(1), -500} {
		q := fixtureQuotation()
		q.Financial.DiscountInput = input

		notices := RecomputeAll(q)

		require.Len(t, notices, 1)
		assert.Equal(t, NoticeInvalidNumericInput, notices[0].Kind)
		assert.Zero(t, q.Financial.GlobalDiscount)
		assert.Equal(t, 100000.0, q.Financial.FinalPrice)
	}
}

func TestRecomputeAllDeposit(t *testing.T) {
	q := fixtureQuotation()
	q.Financial.DepositMode = DepositPercent
	q.Financial.DepositInput = 30
	RecomputeAll(q)
	assert.Equal(t, 30000.0, q.Financial.Deposit)

	q.Financial.DepositMode = DepositAmount
	q.Financial.DepositInput = 25000
	RecomputeAll(q)
	assert.Equal(t, 25000.0, q.Financial.Deposit)

	// Percent deposit follows the discounted final price.
	q.Financial.DiscountInput = 20000
	q.Financial.DepositMode = DepositPercent
	q.Financial.DepositInput = 50
	RecomputeAll(q)
	assert.Equal(t, 40000.0, q.Financial.Deposit)
}

func TestRecomputeAllStructuralNotice(t *testing.T) {
	q := fixtureQuotation()
	// Corrupt one leaf: no task, still marked active.
	q.Hierarchy[1].Task = nil

	notices := RecomputeAll(q)

	require.Len(t, notices, 1)
	assert.Equal(t, NoticeStructuralViolation, notices[0].Kind)
	assert.Equal(t, "finition", notices[0].Ref)
	// The malformed node is excluded, not counted at face value.
	assert.Equal(t, 65000.0, q.Financial.SubtotalHT)
}

func TestToggleActivationCascade(t *testing.T) {
	q := fixtureQuotation()
	prep := q.Hierarchy[0]

	ToggleActivation(prep)
	assert.False(t, prep.IsActive)
	assert.False(t, prep.Children[0].IsActive)
	assert.False(t, prep.Children[0].Task.IsActive)

	RecomputeAll(q)
	assert.Equal(t, 35000.0, q.Financial.SubtotalHT)

	// Reactivating the branch restores the child it deactivated, but only
	// because the child keeps no independent off state here.
	ToggleActivation(prep)
	assert.True(t, prep.IsActive)
	assert.False(t, prep.Children[0].IsActive, "activation must not cascade")

	ToggleActivation(prep.Children[0])
	RecomputeAll(q)
	assert.Equal(t, 100000.0, q.Financial.SubtotalHT)
}

func TestToggleActivationSyncsLeafTask(t *testing.T) {
	q := fixtureQuotation()
	leaf := q.Hierarchy[1]

	ToggleActivation(leaf)
	assert.False(t, leaf.IsActive)
	assert.False(t, leaf.Task.IsActive)

	RecomputeAll(q)
	assert.Equal(t, 65000.0, q.Financial.SubtotalHT)
}

func TestMargins(t *testing.T) {
	q := fixtureQuotation()
	q.Financial.DiscountInput = 25000
	RecomputeAll(q)

	m := Margins(q)
	assert.Equal(t, 20000.0, m.MarginLabor) // (650-450)*100
	assert.Equal(t, 7000.0, m.MarginProducts)
	assert.Equal(t, 27000.0, m.MarginTotal)
	assert.Equal(t, 2000.0, m.NetGain)
}

func TestMarginsTotalClampedAtZero(t *testing.T) {
	q := fixtureQuotation()
	// Sell labor far below floor on the big task.
	q.Hierarchy[0].Children[0].Task.EffectiveLaborPrice = 100
	RecomputeAll(q)

	m := Margins(q)
	assert.Equal(t, -35000.0, m.MarginLabor)
	assert.Zero(t, m.MarginTotal)
}

func TestValidateForSubmission(t *testing.T) {
	t.Run("valid quotation passes", func(t *testing.T) {
		q := fixtureQuotation()
		RecomputeAll(q)
		assert.Empty(t, ValidateForSubmission(q))
	})

	t.Run("zero final price", func(t *testing.T) {
		q := fixtureQuotation()
		for _, root := range q.Hierarchy {
			deactivateSubtree(root)
		}
		RecomputeAll(q)
		errs := ValidateForSubmission(q)
		require.Len(t, errs, 1)
		assert.Equal(t, "final_price", errs[0].Field)
	})

	t.Run("deposit above final price", func(t *testing.T) {
		q := fixtureQuotation()
		q.Financial.DepositMode = DepositAmount
		q.Financial.DepositInput = 150000
		RecomputeAll(q)
		errs := ValidateForSubmission(q)
		require.Len(t, errs, 1)
		assert.Equal(t, "deposit", errs[0].Field)
	})

	t.Run("active task without surface", func(t *testing.T) {
		q := fixtureQuotation()
		q.Hierarchy[1].Task.SurfaceArea = 0
		RecomputeAll(q)
		errs := ValidateForSubmission(q)
		require.Len(t, errs, 1)
		assert.Equal(t, "surface_area", errs[0].Field)
		assert.Equal(t, "finition", errs[0].Ref)
	})
}
