package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/fleetwatch/fleetwatch/pkg/log"
	"github.com/fleetwatch/fleetwatch/pkg/manager"
	"github.com/fleetwatch/fleetwatch/pkg/monitor"
	"github.com/fleetwatch/fleetwatch/pkg/notify"
	"github.com/fleetwatch/fleetwatch/pkg/storage"
	"github.com/fleetwatch/fleetwatch/pkg/types"
	"github.com/fleetwatch/fleetwatch/pkg/uptime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.Init(log.Config{Level: log.ErrorLevel, Output: io.Discard})
	os.Exit(m.Run())
}

type apiFixture struct {
	server  *httptest.Server
	manager *manager.Manager
	emitter *notify.Emitter
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	emitter := notify.NewEmitter(store, nil)
	engine := monitor.NewEngine(store, emitter, nil, nil, monitor.Config{})
	calc := uptime.NewCalculator(store, nil)
	mgr := manager.NewManager(store, nil, calc, nil)

	srv := httptest.NewServer(NewServer(mgr, engine, calc, emitter).routes())
	t.Cleanup(srv.Close)

	return &apiFixture{server: srv, manager: mgr, emitter: emitter}
}

func (f *apiFixture) request(t *testing.T, method, path, apiKey string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (f *apiFixture) registerNode(t *testing.T) *types.Node {
	t.Helper()
	category, err := f.manager.CreateCategory("production")
	require.NoError(t, err)
	node, err := f.manager.CreateNode("web-1", "eu-west", category.ID)
	require.NoError(t, err)
	return node
}

func TestRecordSampleAuth(t *testing.T) {
	f := newAPIFixture(t)
	f.registerNode(t)

	body := map[string]float64{"cpu": 10, "ram": 20, "disk": 30}

	tests := []struct {
		name   string
		apiKey string
		want   int
	}{
		{"missing key", "", http.StatusUnauthorized},
		{"wrong key", "sk_not-a-real-key", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.request(t, http.MethodPost, "/api/v1/samples", tt.apiKey, body)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRecordSample(t *testing.T) {
	f := newAPIFixture(t)
	node := f.registerNode(t)

	resp := f.request(t, http.MethodPost, "/api/v1/samples", node.APIKey,
		map[string]float64{"cpu": 10.5, "ram": 20, "disk": 30})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	sample := decode[types.Sample](t, resp)
	assert.Equal(t, node.ID, sample.NodeID)
	assert.Equal(t, types.StatusOnline, sample.Status)
	assert.Equal(t, 10.5, sample.Usage.CPU)
}

func TestRecordSampleFieldAliases(t *testing.T) {
	f := newAPIFixture(t)
	node := f.registerNode(t)

	resp := f.request(t, http.MethodPost, "/api/v1/samples", node.APIKey,
		map[string]float64{"cpuUsage": 15, "ramUsage": 25, "diskUsage": 35})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	sample := decode[types.Sample](t, resp)
	assert.Equal(t, types.Usage{CPU: 15, RAM: 25, Disk: 35}, sample.Usage)
}

func TestRecordSampleRejectsBadInput(t *testing.T) {
	f := newAPIFixture(t)
	node := f.registerNode(t)

	tests := []struct {
		name string
		body any
	}{
		{"missing field", map[string]float64{"cpu": 10, "ram": 20}},
		{"out of range", map[string]float64{"cpu": 120, "ram": 20, "disk": 30}},
		{"negative", map[string]float64{"cpu": -5, "ram": 20, "disk": 30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.request(t, http.MethodPost, "/api/v1/samples", node.APIKey, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestCreateNodeEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	category, err := f.manager.CreateCategory("production")
	require.NoError(t, err)

	resp := f.request(t, http.MethodPost, "/api/v1/nodes", "",
		map[string]string{"name": "web-1", "location": "eu-west", "categoryId": category.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decode[types.Node](t, resp)
	assert.NotEmpty(t, created.APIKey, "creation is the only response carrying the api key")

	// The key does not leak through reads or updates
	resp = f.request(t, http.MethodPut, "/api/v1/nodes/"+created.ID, "",
		map[string]string{"name": "web-2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[types.Node](t, resp)
	assert.Empty(t, updated.APIKey)
	assert.Equal(t, "web-2", updated.Name)
}

func TestCreateNodeValidationErrors(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.request(t, http.MethodPost, "/api/v1/nodes", "",
		map[string]string{"name": "", "location": "eu-west", "categoryId": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.request(t, http.MethodPost, "/api/v1/nodes", "",
		map[string]string{"name": "web-1", "location": "eu-west", "categoryId": "no-such"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNodeStatusEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	node := f.registerNode(t)

	resp := f.request(t, http.MethodGet, "/api/v1/nodes/"+node.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decode[types.NodeStatus](t, resp)
	assert.Equal(t, types.StatusUnknown, status.Status)

	resp = f.request(t, http.MethodGet, "/api/v1/nodes/no-such-node", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNodeHistoryEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	node := f.registerNode(t)

	resp := f.request(t, http.MethodGet, "/api/v1/nodes/"+node.ID+"/history", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]*types.Sample](t, resp))

	sampleResp := f.request(t, http.MethodPost, "/api/v1/samples", node.APIKey,
		map[string]float64{"cpu": 10, "ram": 20, "disk": 30})
	require.Equal(t, http.StatusCreated, sampleResp.StatusCode)

	resp = f.request(t, http.MethodGet, "/api/v1/nodes/"+node.ID+"/history?hours=48", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]*types.Sample](t, resp), 1)

	resp = f.request(t, http.MethodGet, "/api/v1/nodes/"+node.ID+"/history?hours=zero", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNodeUptimeEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	node := f.registerNode(t)

	sampleResp := f.request(t, http.MethodPost, "/api/v1/samples", node.APIKey,
		map[string]float64{"cpu": 10, "ram": 20, "disk": 30})
	require.Equal(t, http.StatusCreated, sampleResp.StatusCode)

	resp := f.request(t, http.MethodGet, "/api/v1/nodes/"+node.ID+"/uptime?range=1h", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stats := decode[uptime.Stats](t, resp)
	assert.Equal(t, 100.0, stats.Uptime)
	assert.Equal(t, 1, stats.TotalChecks)
	assert.Equal(t, "1h", stats.Window)
}

func TestOverviewEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	node := f.registerNode(t)

	sampleResp := f.request(t, http.MethodPost, "/api/v1/samples", node.APIKey,
		map[string]float64{"cpu": 10, "ram": 20, "disk": 30})
	require.Equal(t, http.StatusCreated, sampleResp.StatusCode)

	resp := f.request(t, http.MethodGet, "/api/v1/overview", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	overview := decode[types.Overview](t, resp)
	assert.Equal(t, 1, overview.TotalNodes)
	assert.Equal(t, 1, overview.OnlineNodes)
}

func TestListNodesGrouped(t *testing.T) {
	f := newAPIFixture(t)
	f.registerNode(t)

	resp := f.request(t, http.MethodGet, "/api/v1/nodes", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	grouped := decode[map[string][]*types.NodeSummary](t, resp)
	require.Len(t, grouped["production"], 1)
	assert.Empty(t, grouped["production"][0].Node.APIKey)
}

func TestCategoryEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.request(t, http.MethodPost, "/api/v1/categories", "", map[string]string{"name": "edge"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	category := decode[types.Category](t, resp)

	resp = f.request(t, http.MethodGet, "/api/v1/categories", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]*types.Category](t, resp), 1)

	// A category with nodes attached cannot be deleted
	node, err := f.manager.CreateNode("edge-1", "lab", category.ID)
	require.NoError(t, err)
	resp = f.request(t, http.MethodDelete, "/api/v1/categories/"+category.ID, "", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	require.NoError(t, f.manager.DeleteNode(node.ID))
	resp = f.request(t, http.MethodDelete, "/api/v1/categories/"+category.ID, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestNotificationEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	n, err := f.emitter.Info("hello")
	require.NoError(t, err)

	resp := f.request(t, http.MethodGet, "/api/v1/notifications", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]*types.Notification](t, resp), 1)

	resp = f.request(t, http.MethodDelete, "/api/v1/notifications/"+n.ID, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Deactivated notifications disappear from the default listing but stay
	// reachable with all=true
	resp = f.request(t, http.MethodGet, "/api/v1/notifications", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]*types.Notification](t, resp))

	resp = f.request(t, http.MethodGet, "/api/v1/notifications?all=true", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]*types.Notification](t, resp), 1)

	resp = f.request(t, http.MethodDelete, "/api/v1/notifications/no-such-id", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteNodeEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	node := f.registerNode(t)

	resp := f.request(t, http.MethodDelete, "/api/v1/nodes/"+node.ID, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.request(t, http.MethodDelete, "/api/v1/nodes/"+node.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.request(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.request(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "fleetwatch_")
}
