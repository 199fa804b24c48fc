package scenario

import (
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Schema describes the scenario file format.
func Schema() *jsonschema.Schema {
	return jsonschema.Reflect(&Scenario{})
}

// Summary renders a table with one row per robot and the totals.
func (r *Result) Summary() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Type", "Cost", "Steps", "Motions", "Constraints", "Expansions"})
	for i, rr := range r.Robots {
		t.AppendRow(table.Row{
			i, rr.Kind, fmt.Sprintf("%.2f", rr.Cost), len(rr.Actions), len(rr.Splits), len(rr.Constraints), rr.Expansions,
		})
	}
	t.AppendFooter(table.Row{
		"", "total", fmt.Sprintf("%.2f", r.Cost), "", "", "",
		fmt.Sprintf("%d (%d nodes)", r.Stats.LowLevelExpansions, r.Stats.Generated),
	})
	return t.Render()
}
