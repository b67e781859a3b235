package connectors

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/domain/graph"
)

type teamsFile struct {
	Teams []teamEntry `yaml:"teams"`
}

type teamEntry struct {
	Name              string   `yaml:"name"`
	Lead              string   `yaml:"lead"`
	SlackChannel      string   `yaml:"slack_channel"`
	PagerdutySchedule string   `yaml:"pagerduty_schedule"`
	Owns              []string `yaml:"owns"`
}

// TeamsConnector builds team nodes from a team registry file. Ownership
// edges reference the owned entries verbatim; ResolveOwnershipTargets maps
// them onto real node ids once every source has been parsed.
type TeamsConnector struct {
	path  string
	edges []*graph.Edge
}

// NewTeamsConnector creates a connector over the given registry file
func NewTeamsConnector(path string) *TeamsConnector {
	return &TeamsConnector{path: path}
}

// Source implements Connector
func (c *TeamsConnector) Source() string {
	return c.path
}

// Parse implements Connector
func (c *TeamsConnector) Parse() ([]*graph.Node, []*graph.Edge, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", c.path, err)
	}

	var file teamsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", c.path, err)
	}

	out := newCollector()

	for _, team := range file.Teams {
		if team.Name == "" {
			continue
		}

		properties := make(map[string]interface{})
		if team.Lead != "" {
			properties["lead"] = team.Lead
		}
		if team.SlackChannel != "" {
			properties["slack_channel"] = team.SlackChannel
		}
		if team.PagerdutySchedule != "" {
			properties["pagerduty_schedule"] = team.PagerdutySchedule
		}

		out.addNode(&graph.Node{
			ID:         "team:" + team.Name,
			Type:       graph.TypeTeam,
			Name:       team.Name,
			Properties: properties,
		})

		for _, owned := range team.Owns {
			out.addEdge(&graph.Edge{
				ID:     fmt.Sprintf("edge:%s-owns-%s", team.Name, owned),
				Type:   graph.EdgeOwns,
				Source: "team:" + team.Name,
				Target: owned,
			})
		}
	}

	c.edges = out.edges
	return out.nodes, out.edges, nil
}

// ResolveOwnershipTargets rewrites the targets of parsed ownership edges
// onto real node ids. Targets may be given as full ids or bare names; a
// bare name falls back to a substring match over the known nodes, first
// match wins.
func (c *TeamsConnector) ResolveOwnershipTargets(allNodes []*graph.Node) []*graph.Edge {
	byKey := make(map[string]string, len(allNodes)*2)
	for _, node := range allNodes {
		if _, ok := byKey[node.Name]; !ok {
			byKey[node.Name] = node.ID
		}
		byKey[node.ID] = node.ID
	}

	var resolved []*graph.Edge
	for _, edge := range c.edges {
		if edge.Type != graph.EdgeOwns {
			continue
		}

		if id, ok := byKey[edge.Target]; ok {
			resolved = append(resolved, &graph.Edge{
				ID:     edge.ID,
				Type:   edge.Type,
				Source: edge.Source,
				Target: id,
			})
			continue
		}

		for _, node := range allNodes {
			if strings.Contains(node.Name, edge.Target) || strings.HasSuffix(node.Name, edge.Target) {
				resolved = append(resolved, &graph.Edge{
					ID:     fmt.Sprintf("edge:%s-owns-%s", idFragment(edge.Source), idFragment(node.ID)),
					Type:   edge.Type,
					Source: edge.Source,
					Target: node.ID,
				})
				break
			}
		}
	}
	return resolved
}

// idFragment returns the part of a typed id after its prefix
func idFragment(id string) string {
	if _, frag, found := strings.Cut(id, ":"); found {
		return frag
	}
	return id
}
