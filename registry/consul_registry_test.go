package registry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"recipe-restful/config"

	consulapi "github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeAgent implements the few Consul agent endpoints the registry touches.
type fakeAgent struct {
	mu         sync.Mutex
	registered map[string]consulapi.AgentServiceRegistration
}

func (f *fakeAgent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/v1/agent/self":
		_ = json.NewEncoder(w).Encode(map[string]any{"Config": map[string]any{"NodeName": "test-node"}})
	case r.Method == http.MethodPut && r.URL.Path == "/v1/agent/service/register":
		var reg consulapi.AgentServiceRegistration
		if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.registered[reg.ID] = reg
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/v1/agent/service/deregister/"):
		id := strings.TrimPrefix(r.URL.Path, "/v1/agent/service/deregister/")
		if _, ok := f.registered[id]; !ok {
			http.Error(w, "Unknown service ID", http.StatusNotFound)
			return
		}
		delete(f.registered, id)
	default:
		http.NotFound(w, r)
	}
}

func TestConsulRegistry(t *testing.T) {
	agent := &fakeAgent{registered: map[string]consulapi.AgentServiceRegistration{}}
	srv := httptest.NewServer(agent)
	defer srv.Close()

	reg, err := NewConsulRegistry(config.ConsulConfig{Enabled: true, Address: srv.URL}, zap.NewNop())
	require.NoError(t, err)

	inst := Instance{
		ID:      "recipe-api-host-8000",
		Name:    "recipe-api",
		Address: "10.0.0.5",
		Port:    8000,
		Tags:    []string{"http"},
		Checks: consulapi.AgentServiceChecks{
			CreateHTTPCheck("recipe-api-host-8000", "10.0.0.5", 8000, "/healthz", "10s", "1s"),
			CreateGRPCCheck("recipe-api-host-8000", "10.0.0.5:50051/recipe-api", "10s", "1s", false),
		},
	}
	require.NoError(t, reg.Register(inst))

	agent.mu.Lock()
	got, ok := agent.registered[inst.ID]
	agent.mu.Unlock()
	require.True(t, ok)
	assert.Equal(t, "recipe-api", got.Name)
	assert.Equal(t, 8000, got.Port)
	require.Len(t, got.Checks, 2)
	assert.Equal(t, "http://10.0.0.5:8000/healthz", got.Checks[0].HTTP)
	assert.Equal(t, "10.0.0.5:50051/recipe-api", got.Checks[1].GRPC)

	require.NoError(t, reg.Deregister(inst.ID))
	assert.Error(t, reg.Deregister(inst.ID))
}

func TestConsulRegistryUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewConsulRegistry(config.ConsulConfig{Enabled: true, Address: addr}, zap.NewNop())
	assert.Error(t, err)
}
