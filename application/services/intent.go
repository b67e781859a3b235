// Package services holds the application services that orchestrate domain
// and infrastructure components.
package services

import (
	"fmt"
	"strings"

	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/domain/graph"
	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/infrastructure/llm"
)

// Intent names the parser understands
const (
	IntentOwnership  = "OWNERSHIP"
	IntentDownstream = "DEPENDENCY_DOWNSTREAM"
	IntentUpstream   = "DEPENDENCY_UPSTREAM"
	IntentBlastRad   = "BLAST_RADIUS"
	IntentPath       = "PATH"
	IntentListNodes  = "LIST_NODES"
	IntentNodeInfo   = "NODE_INFO"
	IntentSearch     = "SEARCH"
	IntentTeamOwns   = "TEAM_OWNS"
	IntentUnknown    = "UNKNOWN"
)

// IntentParser executes classified intents against the graph. Results are
// loosely-typed maps because they are handed straight to the formatting
// model; the "type" key tells it what shape to expect.
type IntentParser struct {
	engine *graph.QueryEngine
}

// NewIntentParser creates a parser over the query engine
func NewIntentParser(engine *graph.QueryEngine) *IntentParser {
	return &IntentParser{engine: engine}
}

// Schema describes the loaded graph for the model's system prompt
func (p *IntentParser) Schema() map[string]interface{} {
	return p.engine.Schema()
}

// Execute runs one intent and returns its structured result. A clarification
// short-circuits execution; unknown or underspecified intents come back as
// error-typed results rather than Go errors, since they are conversation
// content.
func (p *IntentParser) Execute(intent llm.Intent) map[string]interface{} {
	if intent.Clarification != "" {
		return map[string]interface{}{
			"type":    "clarification",
			"message": intent.Clarification,
		}
	}

	switch intent.Intent {
	case IntentOwnership:
		return p.ownership(intent.Params)
	case IntentDownstream:
		return p.downstream(intent.Params)
	case IntentUpstream:
		return p.upstream(intent.Params)
	case IntentBlastRad:
		return p.blastRadius(intent.Params)
	case IntentPath:
		return p.path(intent.Params)
	case IntentListNodes:
		return p.listNodes(intent.Params)
	case IntentNodeInfo:
		return p.nodeInfo(intent.Params)
	case IntentSearch:
		return p.search(intent.Params)
	case IntentTeamOwns:
		return p.teamOwns(intent.Params)
	default:
		return errorResult("I couldn't understand that query. Try asking about ownership, dependencies, blast radius, or connections between services.")
	}
}

func (p *IntentParser) ownership(params map[string]interface{}) map[string]interface{} {
	nodeID, ok := stringParam(params, "node_id")
	if !ok {
		return errorResult("Please specify which service or resource you're asking about.")
	}

	resolved := p.engine.ResolveNodeID(nodeID)
	if resolved == "" {
		return notFoundResult(nodeID)
	}

	return map[string]interface{}{
		"type":  "ownership",
		"node":  p.engine.Node(resolved),
		"owner": p.engine.Owner(resolved),
	}
}

func (p *IntentParser) downstream(params map[string]interface{}) map[string]interface{} {
	nodeID, ok := stringParam(params, "node_id")
	if !ok {
		return errorResult("Please specify which service you're asking about.")
	}

	resolved := p.engine.ResolveNodeID(nodeID)
	if resolved == "" {
		return notFoundResult(nodeID)
	}

	return map[string]interface{}{
		"type":         "dependencies",
		"direction":    "downstream",
		"node":         p.engine.Node(resolved),
		"dependencies": p.engine.Downstream(resolved, nil),
	}
}

func (p *IntentParser) upstream(params map[string]interface{}) map[string]interface{} {
	nodeID, ok := stringParam(params, "node_id")
	if !ok {
		return errorResult("Please specify which resource you're asking about.")
	}

	resolved := p.engine.ResolveNodeID(nodeID)
	if resolved == "" {
		return notFoundResult(nodeID)
	}

	return map[string]interface{}{
		"type":       "dependents",
		"direction":  "upstream",
		"node":       p.engine.Node(resolved),
		"dependents": p.engine.Upstream(resolved, nil),
	}
}

func (p *IntentParser) blastRadius(params map[string]interface{}) map[string]interface{} {
	nodeID, ok := stringParam(params, "node_id")
	if !ok {
		return errorResult("Please specify which resource you're asking about.")
	}

	resolved := p.engine.ResolveNodeID(nodeID)
	if resolved == "" {
		return notFoundResult(nodeID)
	}

	result := p.engine.BlastRadius(resolved)
	if result == nil {
		return errorResult(fmt.Sprintf("Could not analyze blast radius for '%s'.", nodeID))
	}

	return map[string]interface{}{
		"type":           "blast_radius",
		"node":           result.Node,
		"upstream":       result.Upstream,
		"downstream":     result.Downstream,
		"affected_teams": result.AffectedTeams,
		"total_affected": result.TotalAffected,
	}
}

func (p *IntentParser) path(params map[string]interface{}) map[string]interface{} {
	fromID, okFrom := stringParam(params, "from_id")
	toID, okTo := stringParam(params, "to_id")
	if !okFrom || !okTo {
		return errorResult("Please specify both the start and end points.")
	}

	resolvedFrom := p.engine.ResolveNodeID(fromID)
	if resolvedFrom == "" {
		return notFoundResult(fromID)
	}
	resolvedTo := p.engine.ResolveNodeID(toID)
	if resolvedTo == "" {
		return notFoundResult(toID)
	}

	return map[string]interface{}{
		"type": "path",
		"from": p.engine.Node(resolvedFrom),
		"to":   p.engine.Node(resolvedTo),
		"path": p.engine.Path(resolvedFrom, resolvedTo),
	}
}

func (p *IntentParser) listNodes(params map[string]interface{}) map[string]interface{} {
	nodeType, _ := stringParam(params, "node_type")
	nodes := p.engine.Nodes(nodeType, nil)

	return map[string]interface{}{
		"type":      "list",
		"node_type": nodeType,
		"nodes":     nodes,
		"count":     len(nodes),
	}
}

func (p *IntentParser) nodeInfo(params map[string]interface{}) map[string]interface{} {
	nodeID, ok := stringParam(params, "node_id")
	if !ok {
		return errorResult("Please specify which node you're asking about.")
	}

	resolved := p.engine.ResolveNodeID(nodeID)
	if resolved == "" {
		return notFoundResult(nodeID)
	}

	return map[string]interface{}{
		"type":       "node_info",
		"node":       p.engine.Node(resolved),
		"owner":      p.engine.Owner(resolved),
		"downstream": p.engine.Downstream(resolved, nil),
		"upstream":   p.engine.Upstream(resolved, nil),
	}
}

func (p *IntentParser) search(params map[string]interface{}) map[string]interface{} {
	text, ok := stringParam(params, "query_text")
	if !ok {
		return errorResult("Please specify what to search for.")
	}

	results := p.engine.Search(text)
	return map[string]interface{}{
		"type":    "search",
		"query":   text,
		"results": results,
		"count":   len(results),
	}
}

func (p *IntentParser) teamOwns(params map[string]interface{}) map[string]interface{} {
	teamName, ok := stringParam(params, "team_name")
	if !ok {
		return errorResult("Please specify which team you're asking about.")
	}

	// Users say "core", "@core-team" or "team:core-team" interchangeably;
	// the registry stores bare team names like "core-team".
	var clean string
	if strings.HasPrefix(teamName, "team:") {
		clean = strings.TrimPrefix(teamName, "team:")
	} else {
		clean = strings.ReplaceAll(teamName, "@", "")
		if !strings.Contains(clean, "-team") && clean != "" {
			clean += "-team"
		}
	}

	return map[string]interface{}{
		"type":            "team_ownership",
		"team":            p.engine.Node("team:" + clean),
		"owned_resources": p.engine.NodesOwnedByTeam(clean),
	}
}

func stringParam(params map[string]interface{}, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func errorResult(message string) map[string]interface{} {
	return map[string]interface{}{
		"type":    "error",
		"message": message,
	}
}

func notFoundResult(identifier string) map[string]interface{} {
	return errorResult(fmt.Sprintf("Could not find '%s' in the graph.", identifier))
}
