package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeRoundTrip(t *testing.T) {
	q := fixtureQuotation()
	q.Reference = "DEV-20260830-abcd1234"
	RecomputeAll(q)

	data, err := Serialize(q)
	require.NoError(t, err)

	restored, err := Deserialize(data)
	require.NoError(t, err)

	assert.Equal(t, q.Reference, restored.Reference)
	assert.Equal(t, q.Financial, restored.Financial)
	require.Len(t, restored.Hierarchy, 2)
	assert.Equal(t, q.Hierarchy[0].Children[0].Task.EffectiveLaborPrice,
		restored.Hierarchy[0].Children[0].Task.EffectiveLaborPrice)

	// The totals must survive the trip unchanged: recomputing on the
	// restored tree yields the same subtotal.
	subtotal := restored.Financial.SubtotalHT
	RecomputeAll(restored)
	assert.Equal(t, subtotal, restored.Financial.SubtotalHT)
}

func TestDeserializeRejectsGarbage(t *testing.T) {
	_, err := Deserialize([]byte("not json"))
	assert.Error(t, err)

	_, err = Deserialize([]byte(`{"@version":1}`))
	assert.Error(t, err)
}

func TestDeserializeMigratesLegacyFlatShape(t *testing.T) {
	// Historical snapshots carried no version marker and a flat items
	// array where each operation held its tasks directly.
	legacy := []byte(`{
		"quotation": {
			"id": "q-legacy",
			"status": "DRAFT",
			"items": [
				{
					"operation_id": "prep",
					"name": "Préparation",
					"is_mandatory": true,
					"is_active": true,
					"tasks": [
						{
							"product_task_code": "PROC-EGRENAGE",
							"name": "Égrenage",
							"surface_area": 80,
							"effective_labor_price": 650,
							"laborer_count": 1,
							"is_active": true
						}
					]
				}
			]
		}
	}`)

	q, err := Deserialize(legacy)
	require.NoError(t, err)

	require.Len(t, q.Hierarchy, 1)
	root := q.Hierarchy[0]
	assert.Equal(t, "prep", root.OperationID)
	assert.Equal(t, KindBranch, root.Kind)

	require.Len(t, root.Children, 1)
	leaf := root.Children[0]
	assert.Equal(t, "prep.1", leaf.OperationID)
	assert.Equal(t, KindLeaf, leaf.Kind)
	require.NotNil(t, leaf.Task)
	assert.Equal(t, 80.0, leaf.Task.SurfaceArea)

	// The migrated tree feeds the same aggregation as a native one.
	RecomputeAll(q)
	assert.Equal(t, 52000.0, q.Financial.SubtotalHT)
}

func TestDeserializeCurrentVersionSkipsMigration(t *testing.T) {
	q := fixtureQuotation()
	data, err := Serialize(q)
	require.NoError(t, err)

	restored, err := Deserialize(data)
	require.NoError(t, err)
	assert.Len(t, restored.Hierarchy, 2)
}
