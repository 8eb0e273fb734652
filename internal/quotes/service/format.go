package service

import (
	"fmt"
	"strings"

	"ovidio_backend/internal/quotes/transport"
)

// FormatMoney renders an ARS amount with Argentine separators: thousands
// with '.', decimals with ','.
func FormatMoney(v float64) string {
	raw := fmt.Sprintf("%.2f", v)
	parts := strings.SplitN(raw, ".", 2)
	intPart, decPart := parts[0], parts[1]

	negative := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%s$%s,%s", sign, b.String(), decPart)
}

// FormatSummary renders the customer-facing quotation text. The same output
// feeds the chat reply and the PDF body, so amounts are formatted exactly
// once.
func FormatSummary(q transport.Quotation, customerName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*Presupuesto N° %06d*\n", q.Number)
	if customerName != "" {
		fmt.Fprintf(&b, "Cliente: %s\n", customerName)
	}
	b.WriteString("\n")

	for _, item := range q.Items {
		fmt.Fprintf(&b, "• %s\n", item.Name)
		fmt.Fprintf(&b, "   %d x %s (IVA %s%%)\n",
			item.Quantity, FormatMoney(item.UnitPrice), trimRate(item.TaxRate))
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", FormatMoney(q.Subtotal))
	fmt.Fprintf(&b, "IVA: %s\n", FormatMoney(q.TaxTotal))
	fmt.Fprintf(&b, "*Total: %s*\n", FormatMoney(q.Total))
	fmt.Fprintf(&b, "\nVálido hasta el %s.", q.ValidUntil.Format("02/01/2006"))

	return b.String()
}

// trimRate prints 21 as "21" and 10.5 as "10,5".
func trimRate(rate float64) string {
	if rate == float64(int(rate)) {
		return fmt.Sprintf("%d", int(rate))
	}
	return strings.ReplaceAll(fmt.Sprintf("%.1f", rate), ".", ",")
}
