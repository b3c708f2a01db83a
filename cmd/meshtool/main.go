// meshtool is a CLI utility for inspecting and converting semantic meshes.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Faultbox/semmesh/internal/assets"
	"github.com/Faultbox/semmesh/internal/config"
	"github.com/Faultbox/semmesh/internal/logger"
	"github.com/Faultbox/semmesh/internal/mesh"
	"github.com/Faultbox/semmesh/internal/viewer"
	"github.com/Faultbox/semmesh/pkg/geom"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.LoggerOptions()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	manager := assets.NewManager(cfg.MeshOptions(), cfg.Data.MeshDir)
	defer manager.Close()

	command := args[0]
	args = args[1:]

	switch command {
	case "info":
		err = cmdInfo(manager, args)
	case "bbox":
		err = cmdBBox(manager, args)
	case "convert":
		err = cmdConvert(manager, cfg, args)
	case "cloud":
		err = cmdCloud(manager, args)
	case "view":
		err = cmdView(manager, cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshtool - semantic mesh utility

Usage:
  meshtool [global options] <command> [options]

Global options:
  -config <file>        Config file (default ./config.yaml or user config dir)
  -debug                Debug logging
  -gravity x,y,z        Target gravity for semantic loads
  -mesh-dir <dir>       Directory relative paths resolve against
  -segment-map <file>   Default segment map for convert

Commands:
  info [-semantic] <file>                   Show counts, bounds and labels
  bbox [-semantic] [-mesh N] <file>         Show the bounding box
  convert [-segments map.yaml] [-identity] <instance.ply> <semantic.ply>
                                            Write an instance mesh as a semantic mesh
  cloud [-semantic] [-mesh N] [-limit N] <file>
                                            Print the point cloud, one point per line
  view [-semantic] [-labels] <file>...      Show meshes in a window
                                            (drag to orbit, wheel to zoom,
                                             L labels, B bounds, F refit, Esc quit)

Files ending in .gltf or .glb are read as glTF; others as PLY.

Examples:
  meshtool info scene.ply
  meshtool bbox -semantic scene_semantic.ply
  meshtool convert -segments segments.yaml scene.ply scene_semantic.ply
  meshtool cloud -limit 10 scene.glb
  meshtool view -semantic -labels scene_semantic.ply`)
}

// source is the common view of a loaded PLY or glTF mesh.
type source struct {
	path   string
	kind   assets.Kind
	bounds geom.Bounds
	cloud  *geom.PointCloud
	inst   *mesh.InstanceMesh
}

func isGltf(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		return true
	}
	return false
}

func openSource(m *assets.Manager, path string, semantic bool, meshIndex int) (*source, error) {
	if isGltf(path) {
		g, err := m.LoadGltf(path, meshIndex)
		if err != nil {
			return nil, err
		}
		return &source{path: path, kind: assets.KindGltf, bounds: g.Bounds(), cloud: g.PointCloud()}, nil
	}

	var (
		im  *mesh.InstanceMesh
		err error
	)
	kind := assets.KindInstance
	if semantic {
		kind = assets.KindSemantic
		im, err = m.LoadSemantic(path)
	} else {
		im, err = m.LoadInstance(path)
	}
	if err != nil {
		return nil, err
	}
	return &source{path: path, kind: kind, bounds: im.Bounds(), cloud: im.PointCloud(), inst: im}, nil
}

func cmdInfo(m *assets.Manager, args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	semantic := fs.Bool("semantic", false, "Read the semantic schema")
	meshIndex := fs.Int("mesh", 0, "glTF mesh index")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: meshtool info [-semantic] <file>")
	}

	src, err := openSource(m, fs.Arg(0), *semantic, *meshIndex)
	if err != nil {
		return err
	}

	fmt.Printf("File: %s\n", src.path)
	fmt.Printf("Kind: %s\n", src.kind)
	fmt.Printf("Points: %d\n", src.cloud.Len())
	fmt.Printf("Bounds: %s\n", src.bounds)

	if src.inst == nil {
		return nil
	}
	im := src.inst
	fmt.Printf("Faces: %d\n", im.FaceCount())
	fmt.Printf("Labeled vertices: %d of %d\n", im.LabeledVertexCount(), im.VertexCount())

	// Faces per id, most common first
	ids := im.SegmentIDs()
	name := "Segments"
	if src.kind == assets.KindSemantic {
		ids = im.ObjectIDs()
		name = "Objects"
	}
	counts := make(map[int32]int)
	for _, id := range ids {
		counts[id]++
	}
	type idCount struct {
		id    int32
		count int
	}
	var sorted []idCount
	for id, c := range counts {
		sorted = append(sorted, idCount{id, c})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].id < sorted[j].id
	})

	fmt.Printf("\n%s (%d):\n", name, len(sorted))
	for i, ic := range sorted {
		if i == 20 {
			fmt.Printf("  ... and %d more\n", len(sorted)-i)
			break
		}
		fmt.Printf("  %6d: %d faces\n", ic.id, ic.count)
	}
	return nil
}

func cmdBBox(m *assets.Manager, args []string) error {
	fs := flag.NewFlagSet("bbox", flag.ExitOnError)
	semantic := fs.Bool("semantic", false, "Read the semantic schema")
	meshIndex := fs.Int("mesh", 0, "glTF mesh index")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: meshtool bbox [-semantic] [-mesh N] <file>")
	}

	src, err := openSource(m, fs.Arg(0), *semantic, *meshIndex)
	if err != nil {
		return err
	}

	if src.bounds.IsEmpty() {
		fmt.Println("empty")
		return nil
	}
	c := src.bounds.Coords()
	center := src.bounds.Center()
	size := src.bounds.Size()
	fmt.Printf("min:    %g %g %g\n", c[0][0], c[0][1], c[0][2])
	fmt.Printf("max:    %g %g %g\n", c[1][0], c[1][1], c[1][2])
	fmt.Printf("center: %g %g %g\n", center.X, center.Y, center.Z)
	fmt.Printf("size:   %g %g %g\n", size.X, size.Y, size.Z)
	return nil
}

func cmdConvert(m *assets.Manager, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	segmentsPath := fs.String("segments", cfg.Data.SegmentMap, "Segment map YAML file")
	identity := fs.Bool("identity", false, "Use each segment id as its object id")
	fs.Parse(args)
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: meshtool convert [-segments map.yaml] [-identity] <instance.ply> <semantic.ply>")
	}
	in, out := fs.Arg(0), fs.Arg(1)

	var segments mesh.SegmentMap
	switch {
	case *identity:
		im, err := m.LoadInstance(in)
		if err != nil {
			return err
		}
		segments = identityMap(im.SegmentIDs())
	case *segmentsPath != "":
		var err error
		segments, err = assets.LoadSegmentMap(*segmentsPath)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("convert needs -segments, -segment-map or -identity")
	}

	if err := m.Convert(in, out, segments); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", m.Resolve(out))
	return nil
}

// identityMap maps every non-negative segment id to itself.
func identityMap(segmentIDs []int32) mesh.SegmentMap {
	segments := make(mesh.SegmentMap)
	for _, id := range segmentIDs {
		if id >= 0 {
			segments[id] = id
		}
	}
	return segments
}

func cmdCloud(m *assets.Manager, args []string) error {
	fs := flag.NewFlagSet("cloud", flag.ExitOnError)
	semantic := fs.Bool("semantic", false, "Read the semantic schema")
	meshIndex := fs.Int("mesh", 0, "glTF mesh index")
	limit := fs.Int("limit", 0, "Print at most N points (0 = all)")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: meshtool cloud [-semantic] [-mesh N] [-limit N] <file>")
	}

	src, err := openSource(m, fs.Arg(0), *semantic, *meshIndex)
	if err != nil {
		return err
	}

	n := src.cloud.Len()
	if *limit > 0 && *limit < n {
		n = *limit
	}
	for i := 0; i < n; i++ {
		p := src.cloud.At(i)
		fmt.Printf("%g %g %g\n", p.X, p.Y, p.Z)
	}
	if src.cloud.Len() > 0 {
		c := src.cloud.Centroid()
		fmt.Fprintf(os.Stderr, "%d points, centroid %g %g %g\n", src.cloud.Len(), c.X, c.Y, c.Z)
	}
	return nil
}

func cmdView(m *assets.Manager, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	semantic := fs.Bool("semantic", false, "Read PLY files in the semantic schema")
	labels := fs.Bool("labels", cfg.Render.ColorByLabel, "Color by label instead of vertex color")
	meshIndex := fs.Int("mesh", 0, "glTF mesh index")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: meshtool view [-semantic] [-labels] <file>...")
	}

	v, err := viewer.New(viewer.Options{
		Width:        cfg.Render.Width,
		Height:       cfg.Render.Height,
		VSync:        cfg.Render.VSync,
		ColorByLabel: *labels,
		ShowBounds:   cfg.Render.ShowBounds,
	})
	if err != nil {
		return err
	}
	defer v.Close()

	if cfg.Render.UploadOnLoad {
		m.SetUploader(v.Uploader())
		defer m.SetUploader(nil)
	}

	for _, path := range fs.Args() {
		var model viewer.Model
		switch {
		case isGltf(path):
			model, err = m.LoadGltf(path, *meshIndex)
		case *semantic:
			model, err = m.LoadSemantic(path)
		default:
			model, err = m.LoadInstance(path)
		}
		if err != nil {
			return err
		}
		if err := v.Add(path, model); err != nil {
			return err
		}
	}

	v.Run()
	return nil
}
