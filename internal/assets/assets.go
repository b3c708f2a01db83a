// Package assets is the mesh registry: it loads meshes by path and kind,
// caches them, and converts instance meshes to the semantic format.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/semmesh/internal/logger"
	"github.com/Faultbox/semmesh/internal/mesh"
)

// Kind selects how a mesh file is interpreted.
type Kind int

const (
	KindInstance Kind = iota // instance-schema PLY
	KindSemantic             // semantic-schema PLY, gravity corrected
	KindGltf                 // glTF point cloud
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInstance:
		return "instance"
	case KindSemantic:
		return "semantic"
	case KindGltf:
		return "gltf"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Manager loads and caches meshes. It is safe for concurrent use; the meshes
// it returns are not, and must not be mutated while cached.
type Manager struct {
	opts     mesh.Options
	meshDir  string
	uploader mesh.Uploader
	cache    *Cache
	mu       sync.Mutex // serializes loads so a path is read once
}

// NewManager creates a manager. Relative paths resolve against meshDir.
func NewManager(opts mesh.Options, meshDir string) *Manager {
	return &Manager{
		opts:    opts,
		meshDir: meshDir,
		cache:   NewCache(),
	}
}

// SetUploader makes every subsequent load upload its mesh through u.
// Pass nil to stop uploading. Loads must then run on the graphics thread.
func (m *Manager) SetUploader(u mesh.Uploader) {
	m.mu.Lock()
	m.uploader = u
	m.mu.Unlock()
}

// Resolve returns the path a mesh is read from or written to.
func (m *Manager) Resolve(path string) string {
	if filepath.IsAbs(path) || m.meshDir == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(m.meshDir, path)
}

// LoadInstance returns the instance-schema mesh at path.
func (m *Manager) LoadInstance(path string) (*mesh.InstanceMesh, error) {
	r, err := m.load(path, KindInstance, func(p string) (Resource, error) {
		im := mesh.NewInstanceMesh(m.opts)
		return im, im.LoadInstance(p)
	})
	if err != nil {
		return nil, err
	}
	return r.(*mesh.InstanceMesh), nil
}

// LoadSemantic returns the semantic-schema mesh at path, gravity corrected.
func (m *Manager) LoadSemantic(path string) (*mesh.InstanceMesh, error) {
	r, err := m.load(path, KindSemantic, func(p string) (Resource, error) {
		im := mesh.NewInstanceMesh(m.opts)
		return im, im.LoadSemantic(p)
	})
	if err != nil {
		return nil, err
	}
	return r.(*mesh.InstanceMesh), nil
}

// LoadGltf returns mesh meshIndex of the glTF file at path.
func (m *Manager) LoadGltf(path string, meshIndex int) (*mesh.GltfMesh, error) {
	r, err := m.loadKey(path, KindGltf, fmt.Sprintf("%s%d", gltfKeySep, meshIndex), func(p string) (Resource, error) {
		return mesh.LoadGltf(p, meshIndex)
	})
	if err != nil {
		return nil, err
	}
	return r.(*mesh.GltfMesh), nil
}

// Convert loads the instance mesh at instancePath and saves it in the
// semantic format at semanticPath, mapping segment ids through segments.
// A cached semantic mesh for semanticPath is dropped.
func (m *Manager) Convert(instancePath, semanticPath string, segments mesh.SegmentMap) error {
	im, err := m.LoadInstance(instancePath)
	if err != nil {
		return err
	}

	out := m.Resolve(semanticPath)
	if err := im.SaveSemantic(out, segments); err != nil {
		logFailure("save failed", out, KindSemantic, err)
		return err
	}
	m.Evict(semanticPath, KindSemantic)

	logger.Info("converted mesh",
		zap.String("from", im.Path()),
		zap.String("to", out),
		zap.Int("faces", im.FaceCount()))
	return nil
}

// Evict drops a cached mesh and releases its drawable. For KindGltf every
// mesh index loaded from path goes.
func (m *Manager) Evict(path string, kind Kind) {
	resolved := m.Resolve(path)

	m.mu.Lock()
	defer m.mu.Unlock()
	if kind == KindGltf {
		m.cache.DeletePrefix(cacheKey(kind, resolved, gltfKeySep))
		return
	}
	m.cache.Delete(cacheKey(kind, resolved, ""))
}

// Stats returns cache hits and misses.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// Close releases every cached mesh.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Clear()
}

func (m *Manager) load(path string, kind Kind, read func(string) (Resource, error)) (Resource, error) {
	return m.loadKey(path, kind, "", read)
}

func (m *Manager) loadKey(path string, kind Kind, suffix string, read func(string) (Resource, error)) (Resource, error) {
	resolved := m.Resolve(path)
	key := cacheKey(kind, resolved, suffix)

	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.cache.Get(key); ok {
		return r, nil
	}

	r, err := read(resolved)
	if err != nil {
		logFailure("load failed", resolved, kind, err)
		return nil, err
	}

	if m.uploader != nil {
		if u, ok := r.(uploadable); ok {
			if err := u.Upload(m.uploader, false); err != nil {
				logFailure("upload failed", resolved, kind, err)
				return nil, err
			}
		}
	}

	m.cache.Set(key, r)
	logLoaded(resolved, kind, r)
	return r, nil
}

type uploadable interface {
	Upload(u mesh.Uploader, force bool) error
}

// gltfKeySep separates a glTF path from its mesh index in cache keys.
const gltfKeySep = "#"

func cacheKey(kind Kind, path, suffix string) string {
	return kind.String() + ":" + path + suffix
}

func logLoaded(path string, kind Kind, r Resource) {
	fields := []zap.Field{zap.String("path", path), zap.Stringer("kind", kind)}
	switch v := r.(type) {
	case *mesh.InstanceMesh:
		fields = append(fields,
			zap.Int("vertices", v.VertexCount()),
			zap.Int("faces", v.FaceCount()),
			zap.Stringer("bounds", v.Bounds()))
	case *mesh.GltfMesh:
		fields = append(fields,
			zap.Int("points", v.PointCloud().Len()),
			zap.Stringer("bounds", v.Bounds()))
	}
	logger.Info("loaded mesh", fields...)
}

func logFailure(msg, path string, kind Kind, err error) {
	fields := []zap.Field{zap.String("path", path), zap.Stringer("kind", kind), zap.Error(err)}
	var me *mesh.Error
	if errors.As(err, &me) {
		fields = append(fields, zap.String("stage", string(me.Stage)))
	}
	logger.Error(msg, fields...)
}

// segmentMapFile is the on-disk form of a segment map:
//
//	segments:
//	  12: 3
//	  13: -1
type segmentMapFile struct {
	Segments map[int32]int32 `yaml:"segments"`
}

// LoadSegmentMap reads a segment id to object id map from a YAML file.
func LoadSegmentMap(path string) (mesh.SegmentMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading segment map %s: %w", path, err)
	}
	return ParseSegmentMap(data)
}

// ParseSegmentMap decodes a YAML segment map.
func ParseSegmentMap(data []byte) (mesh.SegmentMap, error) {
	var f segmentMapFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing segment map: %w", err)
	}
	if f.Segments == nil {
		return mesh.SegmentMap{}, nil
	}
	return mesh.SegmentMap(f.Segments), nil
}
