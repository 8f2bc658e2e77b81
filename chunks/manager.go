package chunks

import (
	"fmt"
	"time"

	"github.com/LdDl/osmworld"
	"github.com/LdDl/osmworld/internal/observability"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	// DefaultChunkSize is the side of square chunk (meters)
	DefaultChunkSize = 500.0
	// DefaultLoadDistance is Chebyshev radius of loaded window (chunks)
	DefaultLoadDistance = 2
	// DefaultUnloadDistance is Chebyshev radius beyond which chunks are unloaded (chunks)
	DefaultUnloadDistance = 3
	// DefaultUpdateInterval is the minimum time between two effective updates
	DefaultUpdateInterval = 250 * time.Millisecond
)

var (
	// ErrInvalidConfig is returned for non-positive chunk size, negative distances or unload distance below load distance
	ErrInvalidConfig = errors.New("invalid chunk manager configuration")
)

// Renderable is an object built by renderer for chunk content (mesh, collider, label)
type Renderable interface{}

// Renderer is the external consumer of chunk content. It owns objects it returns
// and must dispose them when the chunk is unloaded
type Renderer interface {
	Load(content *Content) ([]Renderable, error)
	Unload(coord Coord, objects []Renderable)
}

// Stats is a snapshot of manager counters
type Stats struct {
	ChunkSize     float64 `json:"chunkSize"`
	IndexedChunks int     `json:"indexedChunks"`
	LoadedChunks  int     `json:"loadedChunks"`
	Loads         int     `json:"loads"`
	Unloads       int     `json:"unloads"`
	Failures      int     `json:"failures"`
}

// Manager owns chunk lifecycle. Chunk state changes only inside Update, Init and SetChunkSize.
//
// It is not safe for concurrent use: callers drive it from a single control thread.
type Manager struct {
	logger   *zap.Logger
	metrics  *observability.ChunkMetrics
	renderer Renderer
	clock    func() time.Time

	chunkSize      float64
	loadDistance   int
	unloadDistance int
	updateInterval time.Duration

	roads  []osmworld.Road
	pois   []osmworld.POI
	index  map[Coord]*Content
	chunks map[Coord]*Chunk

	updated    bool
	lastUpdate time.Time
	hasCoord   bool
	lastCoord  Coord

	loads    int
	unloads  int
	failures int
}

func (m *Manager) String() string {
	return fmt.Sprintf(`
Chunk manager parameters:
	chunk_size: %f
	load_distance: %d
	unload_distance: %d
	update_interval: %v
	`,
		m.chunkSize,
		m.loadDistance,
		m.unloadDistance,
		m.updateInterval,
	)
}

// NewManager returns manager handing chunk content to renderer. Nil renderer discards content
func NewManager(renderer Renderer, options ...func(*Manager)) (*Manager, error) {
	m := &Manager{
		logger:         zap.NewNop(),
		renderer:       renderer,
		clock:          time.Now,
		chunkSize:      DefaultChunkSize,
		loadDistance:   DefaultLoadDistance,
		unloadDistance: DefaultUnloadDistance,
		updateInterval: DefaultUpdateInterval,
		index:          make(map[Coord]*Content),
		chunks:         make(map[Coord]*Chunk),
	}
	for _, option := range options {
		option(m)
	}
	if m.renderer == nil {
		m.renderer = nopRenderer{}
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.clock == nil {
		m.clock = time.Now
	}
	if err := validate(m.chunkSize, m.loadDistance, m.unloadDistance); err != nil {
		return nil, err
	}
	return m, nil
}

func validate(chunkSize float64, loadDistance, unloadDistance int) error {
	if chunkSize <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "chunk size %f", chunkSize)
	}
	if loadDistance < 0 {
		return errors.Wrapf(ErrInvalidConfig, "load distance %d", loadDistance)
	}
	if unloadDistance < loadDistance {
		return errors.Wrapf(ErrInvalidConfig, "unload distance %d is below load distance %d", unloadDistance, loadDistance)
	}
	return nil
}

func WithChunkSize(size float64) func(*Manager) {
	return func(m *Manager) {
		m.chunkSize = size
	}
}

func WithLoadDistance(chunks int) func(*Manager) {
	return func(m *Manager) {
		m.loadDistance = chunks
	}
}

func WithUnloadDistance(chunks int) func(*Manager) {
	return func(m *Manager) {
		m.unloadDistance = chunks
	}
}

func WithUpdateInterval(interval time.Duration) func(*Manager) {
	return func(m *Manager) {
		m.updateInterval = interval
	}
}

// WithClock replaces time source used for update throttling
func WithClock(clock func() time.Time) func(*Manager) {
	return func(m *Manager) {
		m.clock = clock
	}
}

func WithLogger(logger *zap.Logger) func(*Manager) {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithMetrics(metrics *observability.ChunkMetrics) func(*Manager) {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// Init unloads everything and indexes given dataset. Roads and POIs must not be modified afterwards
func (m *Manager) Init(roads []osmworld.Road, pois []osmworld.POI) {
	m.unloadAll()
	m.roads = roads
	m.pois = pois
	m.rebuild()
}

// SetChunkSize unloads everything and rebuilds index for new chunk size
func (m *Manager) SetChunkSize(size float64) error {
	if err := validate(size, m.loadDistance, m.unloadDistance); err != nil {
		return err
	}
	m.unloadAll()
	m.chunkSize = size
	m.rebuild()
	return nil
}

func (m *Manager) rebuild() {
	st := time.Now()
	m.index = buildIndex(m.roads, m.pois, m.chunkSize)
	m.hasCoord = false
	m.logger.Info("Chunk index built", zap.Duration("elapsed", time.Since(st)), zap.Int("chunks", len(m.index)), zap.Float64("chunk_size", m.chunkSize))
}

// Update moves observer to (x, z). Calls closer than update interval to previous
// effective call are ignored, as are calls which do not change observer chunk.
// Returns true when load window has been recomputed
func (m *Manager) Update(x, z float64) bool {
	now := m.clock()
	if m.updated && now.Sub(m.lastUpdate) < m.updateInterval {
		return false
	}
	m.updated = true
	m.lastUpdate = now

	coord := coordOf(x, z, m.chunkSize)
	if m.hasCoord && coord == m.lastCoord {
		return false
	}
	m.hasCoord = true
	m.lastCoord = coord

	unload := make([]Coord, 0)
	for c := range m.chunks {
		if c.Distance(coord) > m.unloadDistance {
			unload = append(unload, c)
		}
	}
	sortCoords(unload)
	for _, c := range unload {
		m.unloadChunk(c)
	}

	for dx := -m.loadDistance; dx <= m.loadDistance; dx++ {
		for dz := -m.loadDistance; dz <= m.loadDistance; dz++ {
			c := Coord{CX: coord.CX + dx, CZ: coord.CZ + dz}
			if _, ok := m.chunks[c]; ok {
				continue
			}
			content, ok := m.index[c]
			if !ok {
				continue
			}
			m.loadChunk(content)
		}
	}
	return true
}

func (m *Manager) loadChunk(content *Content) {
	chunk := &Chunk{
		Coord:   content.Coord,
		State:   CHUNK_LOADING,
		Content: content,
	}
	m.chunks[content.Coord] = chunk
	objects, err := m.renderer.Load(content)
	if err != nil {
		delete(m.chunks, content.Coord)
		m.failures++
		m.metrics.ChunkFailed()
		m.logger.Warn("Renderer rejected chunk", zap.Stringer("chunk", content.Coord), zap.Error(err))
		return
	}
	chunk.objects = objects
	chunk.State = CHUNK_LOADED
	m.loads++
	m.metrics.ChunkLoaded()
}

func (m *Manager) unloadChunk(c Coord) {
	chunk, ok := m.chunks[c]
	if !ok {
		return
	}
	chunk.State = CHUNK_UNLOADING
	m.renderer.Unload(c, chunk.objects)
	chunk.objects = nil
	delete(m.chunks, c)
	m.unloads++
	m.metrics.ChunkUnloaded()
}

func (m *Manager) unloadAll() {
	for _, c := range m.LoadedChunks() {
		m.unloadChunk(c)
	}
}

// IsPositionLoaded reports whether chunk containing (x, z) is loaded
func (m *Manager) IsPositionLoaded(x, z float64) bool {
	chunk, ok := m.chunks[coordOf(x, z, m.chunkSize)]
	return ok && chunk.State == CHUNK_LOADED
}

// State returns current state of chunk
func (m *Manager) State(c Coord) ChunkState {
	if chunk, ok := m.chunks[c]; ok {
		return chunk.State
	}
	return CHUNK_UNLOADED
}

// CoordOf returns coordinate of chunk containing (x, z)
func (m *Manager) CoordOf(x, z float64) Coord {
	return coordOf(x, z, m.chunkSize)
}

// Content returns indexed content of chunk regardless of its state
func (m *Manager) Content(c Coord) (*Content, bool) {
	content, ok := m.index[c]
	return content, ok
}

// LoadedChunks returns coordinates of loaded chunks in sorted order
func (m *Manager) LoadedChunks() []Coord {
	coords := make([]Coord, 0, len(m.chunks))
	for c, chunk := range m.chunks {
		if chunk.State == CHUNK_LOADED {
			coords = append(coords, c)
		}
	}
	sortCoords(coords)
	return coords
}

// ChunkSize returns current chunk size (meters)
func (m *Manager) ChunkSize() float64 {
	return m.chunkSize
}

func (m *Manager) Stats() Stats {
	return Stats{
		ChunkSize:     m.chunkSize,
		IndexedChunks: len(m.index),
		LoadedChunks:  len(m.LoadedChunks()),
		Loads:         m.loads,
		Unloads:       m.unloads,
		Failures:      m.failures,
	}
}

type nopRenderer struct{}

func (nopRenderer) Load(content *Content) ([]Renderable, error) { return nil, nil }
func (nopRenderer) Unload(coord Coord, objects []Renderable) {}
