// Package i18n holds locale-specific display formatting. Amounts inside the
// domain stay plain numbers; only the presentation layer goes through here.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var frPrinter = message.NewPrinter(language.French)

// FormatFCFA renders an amount in whole CFA francs with French digit
// grouping, e.g. 1 250 000 FCFA.
func FormatFCFA(amount float64) string {
	return frPrinter.Sprintf("%.0f FCFA", amount)
}

// FormatSurface renders a surface area with its unit symbol.
func FormatSurface(area float64, uom string) string {
	return frPrinter.Sprintf("%.0f %s", area, uom)
}
