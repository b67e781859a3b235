package connectors

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/domain/graph"
)

// Image substrings that classify a compose service as a backing store
var (
	databaseImages = []string{"postgres", "mysql", "mariadb", "mongodb", "cassandra"}
	cacheImages    = []string{"redis", "memcached"}
)

// URL shapes a dependency can hide in: scheme://host:port, scheme://host/path,
// user@host:port and bare http://host.
var urlHostPatterns = []*regexp.Regexp{
	regexp.MustCompile(`://([^:/@]+):`),
	regexp.MustCompile(`://([^:/@]+)/`),
	regexp.MustCompile(`@([^:/@]+):`),
	regexp.MustCompile(`http://([^:/@]+)`),
}

type composeFile struct {
	Services map[string]composeService `yaml:"services"`
}

// composeService tolerates the flexible shapes compose allows: ports as
// strings or ints, environment as a map or a KEY=VALUE list, depends_on as a
// list or a map with conditions.
type composeService struct {
	Image       string            `yaml:"image"`
	Labels      map[string]string `yaml:"labels"`
	Ports       []interface{}     `yaml:"ports"`
	DependsOn   interface{}       `yaml:"depends_on"`
	Environment interface{}       `yaml:"environment"`
}

// DockerComposeConnector builds service, database and cache nodes from a
// compose file. Dependency edges come from depends_on entries and from
// *_URL environment variables whose host names another service in the file.
type DockerComposeConnector struct {
	path string
}

// NewDockerComposeConnector creates a connector over the given compose file
func NewDockerComposeConnector(path string) *DockerComposeConnector {
	return &DockerComposeConnector{path: path}
}

// Source implements Connector
func (c *DockerComposeConnector) Source() string {
	return c.path
}

// Parse implements Connector
func (c *DockerComposeConnector) Parse() ([]*graph.Node, []*graph.Edge, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", c.path, err)
	}

	var file composeFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", c.path, err)
	}

	out := newCollector()

	names := make([]string, 0, len(file.Services))
	for name := range file.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		out.addNode(c.buildNode(name, file.Services[name]))
	}
	for _, name := range names {
		c.buildEdges(out, name, file.Services[name], file.Services)
	}

	return out.nodes, out.edges, nil
}

func (c *DockerComposeConnector) buildNode(name string, svc composeService) *graph.Node {
	nodeType := inferNodeType(name, svc)

	properties := make(map[string]interface{})
	if team := svc.Labels["team"]; team != "" {
		properties["team"] = team
	}
	if oncall := svc.Labels["oncall"]; oncall != "" {
		properties["oncall"] = oncall
	}
	if port, ok := firstPublishedPort(svc.Ports); ok {
		properties["port"] = port
	}
	for key, value := range svc.Labels {
		if key != "team" && key != "oncall" {
			properties[key] = value
		}
	}

	return &graph.Node{
		ID:         nodeType + ":" + name,
		Type:       nodeType,
		Name:       name,
		Properties: properties,
	}
}

func (c *DockerComposeConnector) buildEdges(out *collector, name string, svc composeService, services map[string]composeService) {
	sourceType := inferNodeType(name, svc)
	sourceID := sourceType + ":" + name

	for _, dep := range dependsOnList(svc.DependsOn) {
		depType := inferNodeType(dep, services[dep])
		edgeType := inferEdgeType(depType)
		out.addEdge(&graph.Edge{
			ID:     fmt.Sprintf("edge:%s-%s-%s", name, edgeType, dep),
			Type:   edgeType,
			Source: sourceID,
			Target: depType + ":" + dep,
		})
	}

	env := environmentMap(svc.Environment)
	keys := make([]string, 0, len(env))
	for key := range env {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := env[key]
		if !strings.Contains(key, "_URL") || value == "" {
			continue
		}
		target := extractServiceFromURL(value)
		if target == "" {
			continue
		}
		targetSvc, ok := services[target]
		if !ok {
			continue
		}
		targetType := inferNodeType(target, targetSvc)
		targetID := targetType + ":" + target
		if targetID == sourceID {
			continue
		}
		edgeType := inferEdgeType(targetType)
		out.addEdge(&graph.Edge{
			ID:     fmt.Sprintf("edge:%s-%s-%s", name, edgeType, target),
			Type:   edgeType,
			Source: sourceID,
			Target: targetID,
		})
	}
}

// inferNodeType classifies a compose service: an explicit type label wins,
// then known images, then name heuristics.
func inferNodeType(name string, svc composeService) string {
	switch svc.Labels["type"] {
	case graph.TypeDatabase:
		return graph.TypeDatabase
	case graph.TypeCache:
		return graph.TypeCache
	}

	image := strings.ToLower(svc.Image)
	for _, db := range databaseImages {
		if strings.Contains(image, db) {
			return graph.TypeDatabase
		}
	}
	for _, cache := range cacheImages {
		if strings.Contains(image, cache) {
			return graph.TypeCache
		}
	}

	lower := strings.ToLower(name)
	for _, hint := range []string{"db", "database", "postgres", "mysql"} {
		if strings.Contains(lower, hint) {
			return graph.TypeDatabase
		}
	}
	for _, hint := range []string{"redis", "cache", "memcached"} {
		if strings.Contains(lower, hint) {
			return graph.TypeCache
		}
	}

	return graph.TypeService
}

func inferEdgeType(targetType string) string {
	switch targetType {
	case graph.TypeDatabase:
		return graph.EdgeReadsFrom
	case graph.TypeCache:
		return graph.EdgeUses
	default:
		return graph.EdgeCalls
	}
}

// firstPublishedPort reads the container port from the first ports entry
func firstPublishedPort(ports []interface{}) (int, bool) {
	if len(ports) == 0 {
		return 0, false
	}
	switch p := ports[0].(type) {
	case int:
		return p, true
	case string:
		parts := strings.Split(p, ":")
		if len(parts) < 2 {
			return 0, false
		}
		port, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, false
		}
		return port, true
	}
	return 0, false
}

func dependsOnList(v interface{}) []string {
	switch deps := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(deps))
		for _, dep := range deps {
			if s, ok := dep.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case map[string]interface{}:
		out := make([]string, 0, len(deps))
		for dep := range deps {
			out = append(out, dep)
		}
		sort.Strings(out)
		return out
	}
	return nil
}

func environmentMap(v interface{}) map[string]string {
	out := make(map[string]string)
	switch env := v.(type) {
	case map[string]interface{}:
		for key, value := range env {
			out[key] = fmt.Sprintf("%v", value)
		}
	case []interface{}:
		for _, item := range env {
			s, ok := item.(string)
			if !ok {
				continue
			}
			if key, value, found := strings.Cut(s, "="); found {
				out[key] = value
			}
		}
	}
	return out
}

func extractServiceFromURL(url string) string {
	for _, pattern := range urlHostPatterns {
		if m := pattern.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}
