// Package template holds the immutable quote templates: named trees of
// operations describing the standard scope of work for a finishing
// level / covering type / aspect combination.
package template

import "fmt"

// NodeKind discriminates the operation tree union.
type NodeKind string

const (
	// KindBranch groups child operations.
	KindBranch NodeKind = "branch"
	// KindLeaf references a billable task and its linked products.
	KindLeaf NodeKind = "leaf"
)

// TaskSpec is the leaf payload: the labor process to price and the catalog
// codes of the physical products it consumes.
type TaskSpec struct {
	ProductTaskCode    string   `json:"product_task_code"`
	LinkedProductCodes []string `json:"linked_product_codes"`
}

// OperationNode is one node of a template tree. Exactly one of Task or
// Children is set, according to Kind.
type OperationNode struct {
	OperationID string           `json:"operation_id"`
	Name        string           `json:"name"`
	IsMandatory bool             `json:"is_mandatory"`
	Kind        NodeKind         `json:"kind"`
	Task        *TaskSpec        `json:"task,omitempty"`
	Children    []*OperationNode `json:"children,omitempty"`
}

// Validate checks the leaf/branch invariant over the whole subtree.
func (n *OperationNode) Validate() error {
	switch n.Kind {
	case KindLeaf:
		if n.Task == nil || len(n.Children) > 0 {
			return fmt.Errorf("template: node %s: leaf must carry a task and no children", n.OperationID)
		}
		if n.Task.ProductTaskCode == "" {
			return fmt.Errorf("template: node %s: leaf task has no product code", n.OperationID)
		}
	case KindBranch:
		if n.Task != nil {
			return fmt.Errorf("template: node %s: branch must not carry a task", n.OperationID)
		}
		for _, child := range n.Children {
			if err := child.Validate(); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("template: node %s: unknown kind %q", n.OperationID, n.Kind)
	}
	return nil
}

// FinishingCriteria are the template selection criteria picked by the
// technician in the wizard's first step.
type FinishingCriteria struct {
	FinishingLevel   string   `json:"finishing_level"`
	CoveringType     string   `json:"covering_type"`
	FinishingAspects []string `json:"finishing_aspects"`
}

// Template is a named, versioned operation tree.
type Template struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Status      string            `json:"status"`
	Criteria    FinishingCriteria `json:"criteria"`
	Operations  []*OperationNode  `json:"operations"`
}

// Validate checks the structural invariant over every operation tree.
func (t *Template) Validate() error {
	for _, op := range t.Operations {
		if err := op.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Matches reports whether the template serves the requested criteria:
// exact level and covering match, and the template's aspect set must cover
// every requested aspect.
func (t *Template) Matches(req FinishingCriteria) bool {
	if t.Criteria.FinishingLevel != req.FinishingLevel {
		return false
	}
	if t.Criteria.CoveringType != req.CoveringType {
		return false
	}
	offered := make(map[string]struct{}, len(t.Criteria.FinishingAspects))
	for _, a := range t.Criteria.FinishingAspects {
		offered[a] = struct{}{}
	}
	for _, a := range req.FinishingAspects {
		if _, ok := offered[a]; !ok {
			return false
		}
	}
	return true
}
