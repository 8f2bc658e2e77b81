package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/LdDl/osmworld"
	"github.com/LdDl/osmworld/chunks"
	"github.com/LdDl/osmworld/internal/observability"
	"github.com/gorilla/mux"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Server routes HTTP queries to the world
type Server struct {
	logger   *zap.Logger
	world    *World
	gatherer prometheus.Gatherer
}

func New(world *World, options ...func(*Server)) *Server {
	s := &Server{
		logger: zap.NewNop(),
		world:  world,
	}
	for _, option := range options {
		option(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

func WithLogger(logger *zap.Logger) func(*Server) {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer sets registry exposed on /metrics. Global registry is used when not set
func WithGatherer(gatherer prometheus.Gatherer) func(*Server) {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

// Handler returns router with every route registered
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	s.RegisterRoutes(router)
	router.Use(s.logRequests)
	return router
}

func (s *Server) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/path", s.FindPath).Methods("GET")
	router.HandleFunc("/observer", s.MoveObserver).Methods("POST")
	router.HandleFunc("/loaded", s.Loaded).Methods("GET")
	router.HandleFunc("/poi/nearest", s.NearestPOI).Methods("GET")
	router.HandleFunc("/healthz", s.Health).Methods("GET")
	router.Handle("/metrics", observability.Handler(s.gatherer)).Methods("GET")
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("Request served", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Duration("elapsed", time.Since(st)))
	})
}

type PathResponse struct {
	Found  bool              `json:"found"`
	Length float64           `json:"length"`
	Points []osmworld.Point3 `json:"points"`
}

// FindPath handles GET /path?x1=&z1=&x2=&z2=
func (s *Server) FindPath(w http.ResponseWriter, r *http.Request) {
	coords, err := floatParams(r, "x1", "z1", "x2", "z2")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	points, found := s.world.FindPath(coords[0], coords[1], coords[2], coords[3])
	resp := PathResponse{
		Found:  found,
		Points: []osmworld.Point3{},
	}
	if found {
		resp.Points = points
		line := make(orb.LineString, len(points))
		for i := range points {
			line[i] = points[i].XZ()
		}
		resp.Length = planar.Length(line)
	}
	writeJSON(w, http.StatusOK, resp)
}

type ObserverRequest struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

type ObserverResponse struct {
	Updated bool           `json:"updated"`
	Chunk   chunks.Coord   `json:"chunk"`
	Loaded  []chunks.Coord `json:"loaded"`
}

// MoveObserver handles POST /observer with {"x": .., "z": ..}
func (s *Server) MoveObserver(w http.ResponseWriter, r *http.Request) {
	var req ObserverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "Invalid request body"))
		return
	}
	updated, coord, loaded := s.world.MoveObserver(req.X, req.Z)
	writeJSON(w, http.StatusOK, ObserverResponse{
		Updated: updated,
		Chunk:   coord,
		Loaded:  loaded,
	})
}

type LoadedResponse struct {
	Loaded bool         `json:"loaded"`
	Chunk  chunks.Coord `json:"chunk"`
}

type ChunksResponse struct {
	Chunks []chunks.Coord `json:"chunks"`
	Stats  chunks.Stats   `json:"stats"`
}

// Loaded handles GET /loaded?x=&z= (position check) and GET /loaded (loaded chunks list)
func (s *Server) Loaded(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("x") && !query.Has("z") {
		coords, stats := s.world.LoadedChunks()
		writeJSON(w, http.StatusOK, ChunksResponse{Chunks: coords, Stats: stats})
		return
	}
	coords, err := floatParams(r, "x", "z")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	loaded, coord := s.world.IsPositionLoaded(coords[0], coords[1])
	writeJSON(w, http.StatusOK, LoadedResponse{Loaded: loaded, Chunk: coord})
}

type POIResponse struct {
	POI      *osmworld.POI `json:"poi"`
	Distance float64       `json:"distance"`
}

// NearestPOI handles GET /poi/nearest?x=&z=&type=
func (s *Server) NearestPOI(w http.ResponseWriter, r *http.Request) {
	coords, err := floatParams(r, "x", "z")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	category := osmworld.POICategory(r.URL.Query().Get("type"))
	switch category {
	case "", osmworld.POI_CITY, osmworld.POI_TOWN, osmworld.POI_FUEL:
	default:
		writeError(w, http.StatusBadRequest, errors.Errorf("unknown POI type '%s'", category))
		return
	}
	poi, distance, ok := s.world.NearestPOI(coords[0], coords[1], category)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("no POI found"))
		return
	}
	writeJSON(w, http.StatusOK, POIResponse{POI: poi, Distance: distance})
}

type HealthResponse struct {
	Status     string        `json:"status"`
	GraphReady bool          `json:"graphReady"`
	Meta       osmworld.Meta `json:"meta"`
}

// Health handles GET /healthz
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		GraphReady: s.world.Ready(),
		Meta:       s.world.Meta(),
	})
}

func floatParams(r *http.Request, names ...string) ([]float64, error) {
	query := r.URL.Query()
	values := make([]float64, len(names))
	for i, name := range names {
		text := query.Get(name)
		if text == "" {
			return nil, errors.Errorf("missing parameter '%s'", name)
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid parameter '%s'", name)
		}
		values[i] = v
	}
	return values, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
