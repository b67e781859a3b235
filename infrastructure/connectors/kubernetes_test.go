package connectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/domain/graph"
)

const k8sFixture = `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: checkout
  namespace: shop
  labels:
    team: payments
spec:
  replicas: 3
  template:
    spec:
      containers:
        - name: checkout
          image: acme/checkout:5.1
          resources:
            limits:
              cpu: "500m"
              memory: 512Mi
            requests:
              cpu: "250m"
          env:
            - name: INVENTORY_URL
              value: http://inventory.shop.svc.cluster.local:8080
            - name: SELF_URL
              value: http://checkout.shop.svc.cluster.local
---
apiVersion: apps/v1
kind: Deployment
metadata:
  name: inventory
  namespace: shop
spec:
  template:
    spec:
      containers:
        - name: inventory
          image: acme/inventory:2.2
---
apiVersion: v1
kind: Service
metadata:
  name: checkout
  namespace: shop
spec:
  ports:
    - port: 443
---
apiVersion: v1
kind: ConfigMap
metadata:
  name: ignored
`

func parseK8s(t *testing.T) ([]*graph.Node, []*graph.Edge) {
	t.Helper()
	path := writeFixture(t, "k8s-deployments.yaml", k8sFixture)
	nodes, edges, err := NewKubernetesConnector(path).Parse()
	require.NoError(t, err)
	return nodes, edges
}

func TestKubernetes_DeploymentNodes(t *testing.T) {
	nodes, _ := parseK8s(t)

	require.Len(t, nodes, 2, "only Deployment kinds become nodes")

	checkout := nodes[0]
	assert.Equal(t, "service:checkout", checkout.ID)
	assert.Equal(t, graph.TypeService, checkout.Type)
	assert.Equal(t, "payments", checkout.Properties["team"])
	assert.Equal(t, "shop", checkout.Properties["k8s_namespace"])
	assert.Equal(t, 3, checkout.Properties["k8s_replicas"])
	assert.Equal(t, "acme/checkout:5.1", checkout.Properties["image"])
	assert.Equal(t, "500m", checkout.Properties["resource_limit_cpu"])
	assert.Equal(t, "512Mi", checkout.Properties["resource_limit_memory"])
	assert.Equal(t, "250m", checkout.Properties["resource_request_cpu"])
	_, hasReqMem := checkout.Properties["resource_request_memory"]
	assert.False(t, hasReqMem)

	inventory := nodes[1]
	assert.Equal(t, 1, inventory.Properties["k8s_replicas"], "replicas defaults to 1")
	assert.Equal(t, "default", inventory.Properties["k8s_namespace"], "namespace defaults")
}

func TestKubernetes_EnvURLEdges(t *testing.T) {
	_, edges := parseK8s(t)

	require.Len(t, edges, 1, "self-referencing URL produces no edge")
	edge := edges[0]
	assert.Equal(t, "edge:checkout-calls-inventory", edge.ID)
	assert.Equal(t, graph.EdgeCalls, edge.Type)
	assert.Equal(t, "service:checkout", edge.Source)
	assert.Equal(t, "service:inventory", edge.Target)
	assert.Equal(t, "k8s_env", edge.Properties["via"])
}

func TestKubernetes_ServiceOverlay(t *testing.T) {
	nodes, _ := parseK8s(t)

	checkout := nodes[0]
	assert.Equal(t, 443, checkout.Properties["k8s_port"])
	assert.Equal(t, true, checkout.Properties["k8s_service"])
}

func TestKubernetes_MissingFile(t *testing.T) {
	_, _, err := NewKubernetesConnector("/nonexistent/k8s.yaml").Parse()
	assert.Error(t, err)
}

func TestExtractServiceFromK8sURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://inventory.shop.svc.cluster.local:8080", "inventory"},
		{"grpc://inventory:50051", "inventory"},
		{"not a url", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractServiceFromK8sURL(tt.url), tt.url)
	}
}
