package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/LdDl/osmworld"
	"github.com/LdDl/osmworld/chunks"
	"github.com/LdDl/osmworld/internal/observability"
	"github.com/LdDl/osmworld/pathfinder"
	"github.com/prometheus/client_golang/prometheus"
)

func testDataset() *osmworld.Dataset {
	roads := []osmworld.Road{
		{ID: 1, Type: osmworld.ROAD_PRIMARY, Points: []osmworld.Point3{{0, 0, 0}, {100, 0, 0}}},
		{ID: 2, Type: osmworld.ROAD_PRIMARY, Points: []osmworld.Point3{{100, 0, 0}, {100, 0, 100}}},
		{ID: 3, Type: osmworld.ROAD_SECONDARY, Points: []osmworld.Point3{{2000, 0, 2000}, {2100, 0, 2000}}},
	}
	pois := []osmworld.POI{
		{ID: 10, Type: osmworld.POI_FUEL, Name: osmworld.FuelStationDefaultName, X: 90, Z: 5},
		{ID: 11, Type: osmworld.POI_CITY, Name: "Reykjavik", X: 0, Z: 0},
	}
	return &osmworld.Dataset{
		Projection: osmworld.NewProjection(osmworld.DefaultOrigin),
		Meta:       osmworld.Meta{TotalRoads: len(roads), TotalPOIs: len(pois)},
		Roads:      roads,
		POIs:       pois,
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	pfMetrics, err := observability.NewPathfinderMetrics(reg)
	if err != nil {
		t.Fatal(err)
	}
	chunkMetrics, err := observability.NewChunkMetrics(reg)
	if err != nil {
		t.Fatal(err)
	}
	manager, err := chunks.NewManager(nil, chunks.WithUpdateInterval(0), chunks.WithMetrics(chunkMetrics))
	if err != nil {
		t.Fatal(err)
	}
	world := NewWorld(testDataset(), pathfinder.New(pathfinder.WithMetrics(pfMetrics)), manager)
	srv := httptest.NewServer(New(world, WithGatherer(reg)).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, status int, v interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != status {
		t.Fatalf("GET %s: status should be %d, but got %d", url, status, resp.StatusCode)
	}
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPathEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp := PathResponse{}
	getJSON(t, srv.URL+"/path?x1=1&z1=1&x2=99&z2=99", http.StatusOK, &resp)
	if !resp.Found || len(resp.Points) != 3 || resp.Length != 200 {
		t.Errorf("Path should be found with 3 points and length 200, but got %+v", resp)
	}
	resp = PathResponse{}
	getJSON(t, srv.URL+"/path?x1=0&z1=0&x2=2100&z2=2000", http.StatusOK, &resp)
	if resp.Found || len(resp.Points) != 0 {
		t.Errorf("Path between disconnected roads should not be found, but got %+v", resp)
	}
	getJSON(t, srv.URL+"/path?x1=0&z1=0&x2=abc&z2=1", http.StatusBadRequest, nil)
	getJSON(t, srv.URL+"/path?x1=0", http.StatusBadRequest, nil)
}

func TestObserverAndLoadedEndpoints(t *testing.T) {
	srv := newTestServer(t)
	loaded := LoadedResponse{}
	getJSON(t, srv.URL+"/loaded?x=10&z=10", http.StatusOK, &loaded)
	if loaded.Loaded {
		t.Errorf("Nothing should be loaded before observer moves")
	}

	resp, err := http.Post(srv.URL+"/observer", "application/json", strings.NewReader(`{"x": 10, "z": 10}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	observer := ObserverResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&observer); err != nil {
		t.Fatal(err)
	}
	if !observer.Updated || observer.Chunk != (chunks.Coord{}) || len(observer.Loaded) != 1 {
		t.Errorf("Observer move should load single chunk (0, 0), but got %+v", observer)
	}

	getJSON(t, srv.URL+"/loaded?x=10&z=10", http.StatusOK, &loaded)
	if !loaded.Loaded {
		t.Errorf("Observer position should be loaded")
	}
	list := ChunksResponse{}
	getJSON(t, srv.URL+"/loaded", http.StatusOK, &list)
	if len(list.Chunks) != 1 || list.Stats.Loads != 1 {
		t.Errorf("Loaded list should contain single chunk, but got %+v", list)
	}

	bad, err := http.Post(srv.URL+"/observer", "application/json", strings.NewReader(`{"x":`))
	if err != nil {
		t.Fatal(err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("Malformed body should be rejected with %d, but got %d", http.StatusBadRequest, bad.StatusCode)
	}
}

func TestNearestPOIEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp := POIResponse{}
	getJSON(t, srv.URL+"/poi/nearest?x=100&z=0&type=fuel", http.StatusOK, &resp)
	if resp.POI == nil || resp.POI.ID != 10 {
		t.Errorf("Nearest fuel station should be %d, but got %+v", 10, resp.POI)
	}
	getJSON(t, srv.URL+"/poi/nearest?x=100&z=0&type=town", http.StatusNotFound, nil)
	getJSON(t, srv.URL+"/poi/nearest?x=100&z=0&type=castle", http.StatusBadRequest, nil)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	srv := newTestServer(t)
	health := HealthResponse{}
	getJSON(t, srv.URL+"/healthz", http.StatusOK, &health)
	if health.Status != "ok" || !health.GraphReady || health.Meta.TotalRoads != 3 {
		t.Errorf("Unexpected health response: %+v", health)
	}

	getJSON(t, srv.URL+"/path?x1=0&z1=0&x2=100&z2=100", http.StatusOK, nil)
	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"osmworld_graph_nodes 5", `osmworld_path_searches_total{result="found"} 1`} {
		if !strings.Contains(string(body), name) {
			t.Errorf("Metrics output should contain '%s'", name)
		}
	}
}
