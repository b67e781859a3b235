package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/domain/graph"
)

const composeFixture = `
services:
  api:
    image: acme/api:1.0
    labels:
      team: core
    depends_on:
      - users-db
  users-db:
    image: postgres:15
`

const teamsFixture = `
teams:
  - name: core
    lead: jsmith
    owns:
      - api
      - users-db
`

const k8sFixture = `
kind: Deployment
metadata:
  name: api
  namespace: prod
spec:
  replicas: 2
  template:
    spec:
      containers:
        - name: api
          image: acme/api:1.0
`

func writeDataDir(t *testing.T, withK8s bool) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, composeFile), []byte(composeFixture), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, teamsFile), []byte(teamsFixture), 0o644))
	if withK8s {
		require.NoError(t, os.WriteFile(filepath.Join(dir, kubernetesFile), []byte(k8sFixture), 0o644))
	}
	return dir
}

func TestLoader_Load(t *testing.T) {
	store := graph.NewStore()
	loader := NewLoader(store, writeDataDir(t, false), nil, zap.NewNop())

	require.NoError(t, loader.Load(context.Background()))

	stats := store.Stats()
	assert.Equal(t, 3, stats.TotalNodes)
	assert.Equal(t, map[string]int{"service": 1, "database": 1, "team": 1}, stats.NodesByType)

	// depends_on edge plus two resolved ownership edges.
	assert.Equal(t, 3, stats.TotalEdges)
	require.NotNil(t, store.Node("team:core"))
	assert.Equal(t, "jsmith", store.Node("team:core").Properties["lead"])
}

func TestLoader_OwnershipResolvedAcrossSources(t *testing.T) {
	store := graph.NewStore()
	loader := NewLoader(store, writeDataDir(t, false), nil, zap.NewNop())
	require.NoError(t, loader.Load(context.Background()))

	var owns int
	for _, edge := range store.Edges() {
		if edge.Type == graph.EdgeOwns {
			owns++
			assert.Equal(t, "team:core", edge.Source)
			assert.Contains(t, []string{"service:api", "database:users-db"}, edge.Target)
		}
	}
	assert.Equal(t, 2, owns)
}

func TestLoader_KubernetesOptional(t *testing.T) {
	store := graph.NewStore()
	loader := NewLoader(store, writeDataDir(t, true), nil, zap.NewNop())
	require.NoError(t, loader.Load(context.Background()))

	// The k8s deployment merges into the compose-derived api node.
	api := store.Node("service:api")
	require.NotNil(t, api)
	assert.Equal(t, "core", api.Properties["team"])
	assert.Equal(t, "prod", api.Properties["k8s_namespace"])
	assert.Equal(t, 2, api.Properties["k8s_replicas"])
}

func TestLoader_MissingComposeFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, teamsFile), []byte(teamsFixture), 0o644))

	store := graph.NewStore()
	loader := NewLoader(store, dir, nil, zap.NewNop())
	assert.Error(t, loader.Load(context.Background()))
}

func TestLoader_NewVersionPerLoadAndSubscribers(t *testing.T) {
	store := graph.NewStore()
	loader := NewLoader(store, writeDataDir(t, false), nil, zap.NewNop())

	var versions []string
	loader.Subscribe(func(version string) { versions = append(versions, version) })

	require.NoError(t, loader.Load(context.Background()))
	first := store.Version()
	require.NoError(t, loader.Load(context.Background()))
	second := store.Version()

	assert.NotEqual(t, first, second)
	assert.Equal(t, []string{first, second}, versions)
}

func TestLoader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := graph.NewStore()
	loader := NewLoader(store, writeDataDir(t, false), nil, zap.NewNop())
	assert.Error(t, loader.Load(ctx))
}
