package catalog

import "strings"

// Fallback tables for codes referenced by templates but absent from the
// catalog. A quotation must never show a zero-value line because of a data
// gap, so lookups degrade to these defaults and the caller flags the code
// as a data-quality warning.

const (
	// FallbackPrice is used when a code has no entry in fallbackPrices.
	FallbackPrice = 1000.0
	// FallbackYield is used when a code has no entry in fallbackYields.
	FallbackYield = 10.0
)

// fallbackPrices carries the Technicien (floor) price per known code.
var fallbackPrices = map[string]float64{
	// Processes (labor, priced per m²)
	"PROC-EGRENAGE":             800,
	"PROC-ENDUIT-COLORE":        1200,
	"PROC-ENDUIT-EPAIS":         1400,
	"PROC-PRIMAIRE":             1000,
	"PROC-PEINTURE-FINITION":    1500,
	"PROC-NETTOYAGE":            600,
	"PROC-PROTECTION":           50,
	"PROC-REBOUCHAGE":           200,
	"PROC-PONCAGE":              120,
	"PROC-IMPRESSION":           250,
	"PROC-COUCHE-INTERMEDIAIRE": 300,
	"PROC-FINITION-MATE":        650,
	"PROC-FINITION-VELOURS":     850,
	"PROC-FINITION-SATINEE":     950,
	"PROC-HUMID-DECAPER":        2000,
	"PROC-HUMID-ASSAINIR":       500,

	// Paints
	"MI-100-30":  150,
	"MI-300-30":  266,
	"ME-500-30":  307,
	"ME-1900-25": 620,
	"ME-6000-25": 621,

	// Impressions and renders
	"IM-2000-25": 541,
	"EM-1500-25": 257,

	// Adhesive cements
	"CC-GRIS-20":  23,
	"CC-BLANC-20": 50,

	// Tooling
	"ROULEAU-180-1":      25,
	"ROULEAU-250-1":      40,
	"PINCEAU-PLAT-50":    18,
	"PAPIER-ABRASIF-120": 4,
}

// fallbackYields carries surface coverage per conditioning unit.
var fallbackYields = map[string]float64{
	"MI-100-30":  195,
	"MI-300-30":  195,
	"ME-500-30":  210,
	"ME-1900-25": 225,
	"ME-6000-25": 250,

	"IM-2000-25": 250,
	"EM-1500-25": 40,

	"CC-GRIS-20":  5,
	"CC-BLANC-20": 5,

	"ROULEAU-180-1":      50,
	"ROULEAU-250-1":      80,
	"PINCEAU-PLAT-50":    20,
	"PAPIER-ABRASIF-120": 2,
}

func fallbackSecurityPercent(code string) float64 {
	switch {
	case strings.HasPrefix(code, "PROC-"):
		return 5
	case strings.Contains(code, "ENDUIT") || strings.HasPrefix(code, "EM-") || strings.HasPrefix(code, "CC-"):
		return 10
	default:
		return 5
	}
}

func fallbackLayersCount(code string) int {
	// Paints and impressions go on in two coats, everything else in one.
	if strings.HasPrefix(code, "MI-") || strings.HasPrefix(code, "ME-") || strings.HasPrefix(code, "IM-") {
		return 2
	}
	return 1
}

// FallbackProduct synthesizes a catalog record for an unknown code from the
// fallback tables. Only the Technicien tier is populated; ceiling prices are
// derived downstream by the pricing engine's markup policy.
func FallbackProduct(code string) Product {
	price, ok := fallbackPrices[code]
	if !ok {
		price = FallbackPrice
	}
	yield, ok := fallbackYields[code]
	if !ok {
		yield = FallbackYield
	}
	uom := "pcs"
	if strings.HasPrefix(code, "PROC-") {
		uom = "m2"
	}
	return Product{
		Code:                   code,
		Designation:            code,
		UOM:                    uom,
		YieldPerUnit:           yield,
		LayersCount:            fallbackLayersCount(code),
		DefaultSecurityPercent: fallbackSecurityPercent(code),
		Prices: map[PriceTier]float64{
			TierTechnicien: price,
		},
		Status: "Fallback",
	}
}
