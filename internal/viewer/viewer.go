package viewer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/semmesh/internal/logger"
	"github.com/Faultbox/semmesh/internal/mesh"
	"github.com/Faultbox/semmesh/internal/render"
	"github.com/Faultbox/semmesh/pkg/geom"
	"github.com/Faultbox/semmesh/pkg/math"
)

// Options controls the viewer.
type Options struct {
	Width        int
	Height       int
	VSync        bool
	ColorByLabel bool
	ShowBounds   bool
}

// Model is a mesh the viewer can draw.
type Model interface {
	Upload(u mesh.Uploader, force bool) error
	Drawable() (mesh.Drawable, bool)
	Bounds() geom.Bounds
}

type item struct {
	name  string
	model Model
	box   *render.GLLines
}

// Viewer owns a window, the shader programs and the models shown in it.
// Every method must run on the main thread.
type Viewer struct {
	opts     Options
	window   *Window
	uploader *render.GLUploader
	program  *render.MeshProgram
	camera   *render.OrbitCamera
	items    []item
	bounds   geom.Bounds
}

// New opens the viewer window.
func New(opts Options) (*Viewer, error) {
	w, err := NewWindow(WindowConfig{Title: "meshtool", Width: opts.Width, Height: opts.Height, VSync: opts.VSync})
	if err != nil {
		return nil, err
	}
	program, err := render.NewMeshProgram()
	if err != nil {
		w.Close()
		return nil, err
	}
	return &Viewer{
		opts:     opts,
		window:   w,
		uploader: render.NewGLUploader(),
		program:  program,
		camera:   render.NewOrbitCamera(),
		bounds:   geom.NewBounds(),
	}, nil
}

// Uploader returns the uploader bound to the viewer's GL context.
func (v *Viewer) Uploader() mesh.Uploader {
	return v.uploader
}

// Add uploads m unless it already is, and frames the camera on everything
// added so far.
func (v *Viewer) Add(name string, m Model) error {
	if err := m.Upload(v.uploader, false); err != nil {
		return fmt.Errorf("uploading %s: %w", name, err)
	}
	it := item{name: name, model: m}
	b := m.Bounds()
	if !b.IsEmpty() {
		box, err := v.uploader.UploadBounds(b, 0)
		if err != nil {
			return fmt.Errorf("uploading bounds of %s: %w", name, err)
		}
		it.box = box
	}
	v.items = append(v.items, it)
	v.bounds = v.bounds.Union(b)
	v.camera.FitBounds(v.bounds)
	return nil
}

// Run shows the window until it is closed or Escape is pressed.
func (v *Viewer) Run() {
	v.updateTitle()
	gl.Enable(gl.DEPTH_TEST)
	gl.ClearColor(0.12, 0.12, 0.14, 1)

	dragging := false
	for {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				return
			case *sdl.KeyboardEvent:
				if e.Type != sdl.KEYDOWN {
					continue
				}
				switch e.Keysym.Sym {
				case sdl.K_ESCAPE, sdl.K_q:
					return
				case sdl.K_l:
					v.opts.ColorByLabel = !v.opts.ColorByLabel
					v.updateTitle()
				case sdl.K_b:
					v.opts.ShowBounds = !v.opts.ShowBounds
				case sdl.K_f:
					v.camera.FitBounds(v.bounds)
				}
			case *sdl.MouseButtonEvent:
				if e.Button == sdl.BUTTON_LEFT {
					dragging = e.State == sdl.PRESSED
				}
			case *sdl.MouseMotionEvent:
				if dragging {
					v.camera.HandleDrag(float32(e.XRel), float32(e.YRel))
				}
			case *sdl.MouseWheelEvent:
				v.camera.HandleZoom(float32(e.Y))
			}
		}

		v.draw()
		v.window.SwapBuffers()
	}
}

func (v *Viewer) draw() {
	width, height := v.window.DrawableSize()
	if height == 0 {
		height = 1
	}
	gl.Viewport(0, 0, width, height)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	far := v.camera.Distance*4 + v.bounds.Size().Length()
	proj := math.Perspective(0.8, float32(width)/float32(height), v.camera.Distance/1000, far)
	mvp := proj.Mul(v.camera.ViewMatrix())

	for _, it := range v.items {
		d, ok := it.model.Drawable()
		if !ok {
			continue
		}
		if glm, ok := d.(*render.GLMesh); ok {
			v.program.DrawMesh(glm, mvp, v.opts.ColorByLabel)
		}
		if v.opts.ShowBounds && it.box != nil {
			v.program.DrawLines(it.box, mvp, math.Vec3{X: 1, Y: 0.8, Z: 0.2})
		}
	}
}

func (v *Viewer) updateTitle() {
	mode := "vertex colors"
	if v.opts.ColorByLabel {
		mode = "labels"
	}
	v.window.SetTitle(fmt.Sprintf("meshtool - %d meshes - %s", len(v.items), mode))
}

// Close releases GPU resources, including the drawables of every added
// model, and then the window.
func (v *Viewer) Close() {
	for _, it := range v.items {
		if it.box != nil {
			it.box.Release()
		}
		if r, ok := it.model.(interface{ Release() }); ok {
			r.Release()
		}
	}
	v.items = nil
	v.program.Release()
	v.window.Close()
	logger.Debug("viewer closed", zap.String("bounds", v.bounds.String()))
}
