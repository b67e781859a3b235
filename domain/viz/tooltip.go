package viz

import "fmt"

// tooltipFields is the declared whitelist of optional node attributes the
// tooltip may display, in render order. Only fields actually present on the
// node produce a line.
var tooltipFields = []struct {
	key   string
	label string
}{
	{"team", "Team"},
	{"oncall", "Oncall"},
	{"port", "Port"},
	{"lead", "Lead"},
	{"slack_channel", "Channel"},
}

// TooltipLine is one labeled attribute line
type TooltipLine struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Tooltip is the hover panel content for a node: type and display name are
// always present, attribute lines only when the node carries them.
type Tooltip struct {
	Type  string        `json:"type"`
	Name  string        `json:"name"`
	Lines []TooltipLine `json:"lines"`
}

// BuildTooltip assembles the tooltip for a node. It reads node state only;
// hover never changes simulation state.
func BuildTooltip(node *SimNode) Tooltip {
	tooltip := Tooltip{
		Type: node.Type,
		Name: node.Label,
	}
	for _, field := range tooltipFields {
		value, ok := node.Properties[field.key]
		if !ok || value == nil {
			continue
		}
		tooltip.Lines = append(tooltip.Lines, TooltipLine{
			Label: field.label,
			Value: fmt.Sprintf("%v", value),
		})
	}
	return tooltip
}
