package quote

import (
	"encoding/json"
	"fmt"
)

// The serialized form is the persistence and rendering boundary: a plain
// data tree with no behavior attached. Version 1 is the canonical nested
// hierarchy; version 0 is the historical flat shape (operations holding a
// tasks array) which is migrated on read and never written back.

const snapshotVersion = 1

type snapshotEnvelope struct {
	Version   int        `json:"@version"`
	Quotation *Quotation `json:"quotation"`
}

// Serialize renders a quotation as its canonical snapshot.
func Serialize(q *Quotation) ([]byte, error) {
	data, err := json.Marshal(snapshotEnvelope{Version: snapshotVersion, Quotation: q})
	if err != nil {
		return nil, fmt.Errorf("quote: serialize %s: %w", q.ID, err)
	}
	return data, nil
}

// Deserialize restores a quotation from a snapshot, migrating the legacy
// flat shape when encountered.
func Deserialize(data []byte) (*Quotation, error) {
	var env snapshotEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("quote: deserialize: %w", err)
	}
	if env.Quotation == nil {
		return nil, fmt.Errorf("quote: deserialize: empty snapshot")
	}
	if env.Version == 0 {
		migrateLegacyItems(env.Quotation, data)
	}
	return env.Quotation, nil
}

// legacySnapshot mirrors the historical persisted shape where top-level
// operations carried a flat tasks array instead of a hierarchy.
type legacySnapshot struct {
	Quotation struct {
		Items []struct {
			OperationID string  `json:"operation_id"`
			Name        string  `json:"name"`
			IsMandatory bool    `json:"is_mandatory"`
			IsActive    bool    `json:"is_active"`
			Tasks       []*Task `json:"tasks"`
		} `json:"items"`
	} `json:"quotation"`
}

func migrateLegacyItems(q *Quotation, data []byte) {
	if len(q.Hierarchy) > 0 {
		return
	}
	var legacy legacySnapshot
	if err := json.Unmarshal(data, &legacy); err != nil {
		return
	}
	for _, item := range legacy.Quotation.Items {
		root := &HierarchyNode{
			OperationID: item.OperationID,
			Name:        item.Name,
			IsMandatory: item.IsMandatory,
			IsActive:    item.IsActive,
			Kind:        KindBranch,
		}
		for i, task := range item.Tasks {
			if task == nil {
				continue
			}
			root.Children = append(root.Children, &HierarchyNode{
				OperationID: fmt.Sprintf("%s.%d", item.OperationID, i+1),
				Name:        task.Name,
				IsMandatory: item.IsMandatory,
				IsActive:    task.IsActive,
				Kind:        KindLeaf,
				Task:        task,
			})
		}
		q.Hierarchy = append(q.Hierarchy, root)
	}
}
