package engine

import (
	"fmt"
	"strings"
)

// RouteDescriptor renders a PathResult as a single human-readable line,
// e.g. "USD -[USD/EUR]-> EUR -[EUR/BTC]-> BTC" followed by the total
// spent/received. Each bracket names the leg's from/to currencies; the
// order side and the order's base/quote pair are not shown. It mirrors the teacher's RouteHop/RouteResult
// table-row rendering for its CLI banner output. Purely a presentation
// convenience; the search core never consults it.
func RouteDescriptor(p PathResult) string {
	if len(p.Legs) == 0 {
		return fmt.Sprintf("%s (0 hops)", p.TotalSpent.Currency())
	}

	var b strings.Builder
	b.WriteString(p.Legs[0].From)
	for _, leg := range p.Legs {
		fmt.Fprintf(&b, " -[%s/%s]-> %s", leg.From, leg.To, leg.To)
	}
	fmt.Fprintf(&b, " (spent %s %s, received %s %s)",
		p.TotalSpent.String(), p.TotalSpent.Currency(),
		p.TotalReceived.String(), p.TotalReceived.Currency())
	return b.String()
}
