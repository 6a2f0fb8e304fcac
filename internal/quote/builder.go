package quote

import (
	"context"
	"fmt"

	"github.com/devispro/devispro/internal/template"
)

// Builder instantiates a quotation hierarchy from a template. The result is
// a deep, independent copy: later per-quotation edits never touch shared
// template state.
type Builder struct {
	engine *Engine
}

// NewBuilder constructs a hierarchy builder over a pricing engine.
func NewBuilder(engine *Engine) *Builder {
	return &Builder{engine: engine}
}

// Build walks the template once and produces the runtime tree, with every
// leaf resolved into a fully priced task at the default surface area.
// Missing catalog codes degrade to the fallback tables and come back as
// data-quality notices; the builder never aborts.
func (b *Builder) Build(ctx context.Context, tpl *template.Template) ([]*HierarchyNode, []Notice) {
	var notices []Notice
	roots := make([]*HierarchyNode, 0, len(tpl.Operations))
	for _, op := range tpl.Operations {
		roots = append(roots, b.buildNode(ctx, op, &notices))
	}
	return roots, notices
}

func (b *Builder) buildNode(ctx context.Context, op *template.OperationNode, notices *[]Notice) *HierarchyNode {
	node := &HierarchyNode{
		OperationID: op.OperationID,
		Name:        op.Name,
		IsMandatory: op.IsMandatory,
		IsActive:    op.IsMandatory,
	}

	if op.Kind == template.KindLeaf && op.Task != nil {
		node.Kind = KindLeaf
		node.Task = b.buildTask(ctx, op, notices)
		return node
	}

	node.Kind = KindBranch
	node.Children = make([]*HierarchyNode, 0, len(op.Children))
	for _, child := range op.Children {
		node.Children = append(node.Children, b.buildNode(ctx, child, notices))
	}
	return node
}

func (b *Builder) buildTask(ctx context.Context, op *template.OperationNode, notices *[]Notice) *Task {
	spec := op.Task
	band, mainProduct, found := b.engine.ResolveTaskPricing(ctx, spec.ProductTaskCode)
	if !found {
		*notices = append(*notices, Notice{
			Kind:    NoticeDataQuality,
			Field:   "product_task_code",
			Ref:     spec.ProductTaskCode,
			Message: fmt.Sprintf("task product %s missing from catalog, default pricing applied", spec.ProductTaskCode),
		})
	}

	uom := mainProduct.UOM
	if uom == "" {
		uom = "m2"
	}

	task := &Task{
		ProductTaskCode:     spec.ProductTaskCode,
		Name:                op.Name,
		SurfaceArea:         DefaultSurfaceArea,
		UOM:                 uom,
		LaborFloorPrice:     band.Floor,
		LaborCeilingPrice:   band.Ceiling,
		EffectiveLaborPrice: band.Effective,
		LaborerCount:        1,
		IsActive:            op.IsMandatory,
	}

	task.LinkedProducts = make([]LinkedProductLine, 0, len(spec.LinkedProductCodes))
	for _, code := range spec.LinkedProductCodes {
		lineBand, product, lineFound := b.engine.ResolveProductPricing(ctx, code)
		if !lineFound {
			*notices = append(*notices, Notice{
				Kind:    NoticeDataQuality,
				Field:   "linked_product_code",
				Ref:     code,
				Message: fmt.Sprintf("linked product %s missing from catalog, default pricing applied", code),
			})
		}
		task.LinkedProducts = append(task.LinkedProducts, LinkedProductLine{
			ProductCode:     code,
			Designation:     product.Designation,
			UOM:             product.UOM,
			YieldPerUnit:    product.YieldPerUnit,
			LayersCount:     product.LayersCount,
			SecurityPercent: product.DefaultSecurityPercent,
			FloorPrice:      lineBand.Floor,
			CeilingPrice:    lineBand.Ceiling,
			EffectivePrice:  lineBand.Effective,
			IsActive:        true,
		})
	}

	ComputeLinkedQuantities(task)
	return task
}
