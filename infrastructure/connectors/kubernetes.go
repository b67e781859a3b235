package connectors

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/domain/graph"
)

// Cluster-internal DNS shapes: http://name.namespace... and scheme://name
// followed by a dot or port.
var k8sURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`http://([^.]+)\.`),
	regexp.MustCompile(`://([^:/.]+)[.:]`),
}

type k8sDocument struct {
	Kind     string `yaml:"kind"`
	Metadata struct {
		Name      string            `yaml:"name"`
		Namespace string            `yaml:"namespace"`
		Labels    map[string]string `yaml:"labels"`
	} `yaml:"metadata"`
	Spec struct {
		// Deployment fields
		Replicas *int `yaml:"replicas"`
		Template struct {
			Spec struct {
				Containers []k8sContainer `yaml:"containers"`
			} `yaml:"spec"`
		} `yaml:"template"`
		// Service fields
		Ports []struct {
			Port int `yaml:"port"`
		} `yaml:"ports"`
	} `yaml:"spec"`
}

type k8sContainer struct {
	Image     string `yaml:"image"`
	Resources struct {
		Limits   map[string]string `yaml:"limits"`
		Requests map[string]string `yaml:"requests"`
	} `yaml:"resources"`
	Env []struct {
		Name  string `yaml:"name"`
		Value string `yaml:"value"`
	} `yaml:"env"`
}

// KubernetesConnector builds service nodes from Deployment manifests and
// overlays exposed-port information from Service documents in the same
// multi-document file. Call edges come from *_URL env vars pointing at
// cluster-internal hosts.
type KubernetesConnector struct {
	path string
}

// NewKubernetesConnector creates a connector over the given manifest file
func NewKubernetesConnector(path string) *KubernetesConnector {
	return &KubernetesConnector{path: path}
}

// Source implements Connector
func (c *KubernetesConnector) Source() string {
	return c.path
}

// Parse implements Connector
func (c *KubernetesConnector) Parse() ([]*graph.Node, []*graph.Edge, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", c.path, err)
	}
	defer f.Close()

	out := newCollector()
	decoder := yaml.NewDecoder(f)
	for {
		var doc k8sDocument
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("parsing %s: %w", c.path, err)
		}

		switch doc.Kind {
		case "Deployment":
			c.parseDeployment(out, doc)
		case "Service":
			c.parseService(out, doc)
		}
	}

	return out.nodes, out.edges, nil
}

func (c *KubernetesConnector) parseDeployment(out *collector, doc k8sDocument) {
	name := doc.Metadata.Name
	if name == "" {
		return
	}
	namespace := doc.Metadata.Namespace
	if namespace == "" {
		namespace = "default"
	}
	replicas := 1
	if doc.Spec.Replicas != nil {
		replicas = *doc.Spec.Replicas
	}

	properties := map[string]interface{}{
		"k8s_namespace": namespace,
		"k8s_replicas":  replicas,
	}
	if team := doc.Metadata.Labels["team"]; team != "" {
		properties["team"] = team
	}

	envVars := make(map[string]string)
	containers := doc.Spec.Template.Spec.Containers
	if len(containers) > 0 {
		main := containers[0]
		properties["image"] = main.Image
		properties["replicas"] = replicas
		properties["namespace"] = namespace

		if cpu := main.Resources.Limits["cpu"]; cpu != "" {
			properties["resource_limit_cpu"] = cpu
		}
		if mem := main.Resources.Limits["memory"]; mem != "" {
			properties["resource_limit_memory"] = mem
		}
		if cpu := main.Resources.Requests["cpu"]; cpu != "" {
			properties["resource_request_cpu"] = cpu
		}
		if mem := main.Resources.Requests["memory"]; mem != "" {
			properties["resource_request_memory"] = mem
		}

		for _, env := range main.Env {
			if env.Name != "" && env.Value != "" {
				envVars[env.Name] = env.Value
			}
		}
	}

	out.addNode(&graph.Node{
		ID:         graph.TypeService + ":" + name,
		Type:       graph.TypeService,
		Name:       name,
		Properties: properties,
	})

	keys := make([]string, 0, len(envVars))
	for key := range envVars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := envVars[key]
		if !strings.Contains(key, "_URL") {
			continue
		}
		target := extractServiceFromK8sURL(value)
		if target == "" || target == name {
			continue
		}
		out.addEdge(&graph.Edge{
			ID:         fmt.Sprintf("edge:%s-calls-%s", name, target),
			Type:       graph.EdgeCalls,
			Source:     graph.TypeService + ":" + name,
			Target:     graph.TypeService + ":" + target,
			Properties: map[string]interface{}{"via": "k8s_env"},
		})
	}
}

func (c *KubernetesConnector) parseService(out *collector, doc k8sDocument) {
	name := doc.Metadata.Name
	if name == "" {
		return
	}

	node := out.node(name)
	if node == nil {
		return
	}
	if len(doc.Spec.Ports) > 0 && doc.Spec.Ports[0].Port != 0 {
		node.Properties["k8s_port"] = doc.Spec.Ports[0].Port
	}
	node.Properties["k8s_service"] = true
}

func extractServiceFromK8sURL(url string) string {
	for _, pattern := range k8sURLPatterns {
		if m := pattern.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}
