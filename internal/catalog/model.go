package catalog

// PriceTier names a role-specific fixed price on a product's price list.
type PriceTier string

const (
	// TierPatron is the list price, the ceiling any line may be priced at.
	TierPatron PriceTier = "Patron"
	// TierTechnicien is the technician buy price, the floor for product lines.
	TierTechnicien PriceTier = "Technicien"
	// TierTacheron is the labor cost price, the floor for task labor.
	TierTacheron PriceTier = "Tâcheron"
)

// Product is an immutable catalog record: a physical product or a labor
// process (codes prefixed PROC-). Priced per UOM, with application specs
// used to derive quantities from surface area.
type Product struct {
	Code                   string                `json:"code"`
	Designation            string                `json:"designation"`
	UOM                    string                `json:"uom"`
	Conditioning           string                `json:"conditioning,omitempty"`
	YieldPerUnit           float64               `json:"yield_per_unit"`
	LayersCount            int                   `json:"layers_count"`
	DefaultSecurityPercent float64               `json:"default_security_percent"`
	Prices                 map[PriceTier]float64 `json:"prices"`
	Status                 string                `json:"status"`
}

// Price returns the fixed price for a tier when the product defines it.
func (p Product) Price(tier PriceTier) (float64, bool) {
	v, ok := p.Prices[tier]
	return v, ok
}

// IsProcess reports whether the product is a labor process rather than a
// physical product.
func (p Product) IsProcess() bool {
	return len(p.Code) >= 5 && p.Code[:5] == "PROC-"
}
