package chat

import (
	"fmt"
	"strings"

	catalog "ovidio_backend/internal/catalog/transport"
	"ovidio_backend/internal/quotes/service"
	"ovidio_backend/internal/quotes/transport"
)

// apologyReply is the last-resort answer when the pipeline failed and
// nothing better can be said.
const apologyReply = "Disculpá, tuve un inconveniente procesando tu mensaje. ¿Podés intentarlo de nuevo en unos minutos?"

const confirmHint = "Si te sirve, respondé *listo* y te mando el presupuesto formal en PDF."

func greetingReply(name string) string {
	who := ""
	if name != "" {
		who = " " + firstName(name)
	}
	return fmt.Sprintf("¡Hola%s! Soy Ovidio, el asistente de GRUPO SER. Contame qué equipo estás buscando y te paso precio y stock al toque.", who)
}

func genericReply() string {
	return "Contame qué producto estás buscando (marca y tipo me alcanzan) y lo reviso en el stock."
}

func notFoundReply(term string) string {
	if term == "" {
		return genericReply()
	}
	return fmt.Sprintf("No encontré *%s* en el catálogo. ¿Me pasás la marca o el modelo exacto y lo vuelvo a buscar?", term)
}

func productReply(item catalog.CatalogItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", item.Name)
	if item.Code != "" {
		fmt.Fprintf(&b, "Código: %s\n", item.Code)
	}
	b.WriteString(priceLine(item))
	b.WriteString("\n")
	if item.InStock() {
		fmt.Fprintf(&b, "Stock disponible: %d unidades\n\n", item.Stock)
		b.WriteString("¿Querés que te arme un presupuesto?")
	} else {
		b.WriteString("Por el momento sin stock.\n")
	}
	return b.String()
}

func optionsReply(options []catalog.CatalogItem, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Encontré %d productos que coinciden. Los más relevantes:\n\n", total)
	for i, item := range options {
		fmt.Fprintf(&b, "%d. %s - %s", i+1, item.Name, priceLine(item))
		if !item.InStock() {
			b.WriteString(" (sin stock)")
		}
		b.WriteString("\n")
	}
	b.WriteString("\n¿Cuál de estos te interesa?")
	return b.String()
}

func outOfStockReply(item catalog.CatalogItem, alternatives []catalog.CatalogItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* está sin stock en este momento.", item.Name)
	if len(alternatives) == 0 {
		b.WriteString("\n\nYa le pasé la consulta al equipo de Compras y te aviso apenas tengamos novedades.")
		return b.String()
	}
	b.WriteString(" Te puedo ofrecer estas alternativas disponibles:\n\n")
	for i, alt := range alternatives {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, alt.Name, priceLine(alt))
	}
	b.WriteString("\n¿Te sirve alguna?")
	return b.String()
}

func quotationReply(q transport.Quotation, customerName string) string {
	return service.FormatSummary(q, customerName) + "\n\n" + "Respondé *listo* para confirmarlo y te mando el PDF."
}

func confirmationReply(q transport.Quotation) string {
	return fmt.Sprintf("¡Listo! Presupuesto N° %06d confirmado. Te mando el documento en PDF. Cualquier consulta, estoy acá.", q.Number)
}

func confirmFailedReply() string {
	return "No pude generar el documento recién. El presupuesto sigue pendiente; probá confirmarlo de nuevo en unos minutos."
}

func priceLine(item catalog.CatalogItem) string {
	switch {
	case item.PriceARS > 0:
		return fmt.Sprintf("Precio: %s + IVA", service.FormatMoney(item.PriceARS))
	case item.PriceUSD > 0:
		return fmt.Sprintf("Precio: USD %.2f + IVA", item.PriceUSD)
	default:
		return "Precio: a consultar"
	}
}

func firstName(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return full
	}
	return fields[0]
}
