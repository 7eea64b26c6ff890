package main

import (
	"fmt"
	"image/color"
	"log"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	subdiv "github.com/smasonuk/gosubdiv"
)

type Game struct {
	base       *subdiv.Mesh
	settings   subdiv.Settings
	resolution int

	sd      *subdiv.Subdiv
	surface *subdiv.Mesh
	normals []mgl64.Vec3

	camera       *Camera
	lastX, lastY int
	dragging     bool
	wireframe    bool
}

func NewGame(base *subdiv.Mesh, settings subdiv.Settings, resolution int) (*Game, error) {
	g := &Game{
		base:       base,
		settings:   settings,
		resolution: resolution,
		camera:     NewCamera(base),
	}
	if err := g.rebuild(); err != nil {
		return nil, err
	}
	return g, nil
}

// rebuild updates the descriptor for the current settings and
// re-tessellates. The descriptor is reused when the settings did not change.
func (g *Game) rebuild() error {
	sd, err := subdiv.UpdateFromMesh(g.sd, g.settings, g.base)
	g.sd = sd
	if err != nil {
		return err
	}
	surface, err := subdiv.ToMesh(g.sd, subdiv.ToMeshSettings{Resolution: g.resolution}, g.base)
	if err != nil {
		return err
	}
	g.surface = surface
	g.normals = make([]mgl64.Vec3, len(surface.Faces))
	for f := range surface.Faces {
		g.normals[f] = surface.FaceNormal(f)
	}
	log.Printf("Surface has %d vertices and %d faces (level %d)", len(surface.Positions), len(surface.Faces), g.settings.Level)
	return nil
}

func (g *Game) stats() *subdiv.Stats { return g.sd.Stats() }

func (g *Game) Close() {
	if g.sd != nil {
		g.sd.Free()
		g.sd = nil
	}
}

func (g *Game) Update() error {
	changed := false
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape), inpututil.IsKeyJustPressed(ebiten.KeyQ):
		return ebiten.Termination
	case inpututil.IsKeyJustPressed(ebiten.KeyUp) && g.settings.Level < subdiv.MaxLevel:
		g.settings.Level++
		changed = true
	case inpututil.IsKeyJustPressed(ebiten.KeyDown) && g.settings.Level > 0:
		g.settings.Level--
		changed = true
	case inpututil.IsKeyJustPressed(ebiten.KeyA):
		g.settings.IsAdaptive = !g.settings.IsAdaptive
		changed = true
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		g.settings.IsSimple = !g.settings.IsSimple
		changed = true
	case inpututil.IsKeyJustPressed(ebiten.KeyW):
		g.wireframe = !g.wireframe
	}
	if changed {
		if err := g.rebuild(); err != nil {
			return err
		}
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.dragging = true
		g.lastX, g.lastY = ebiten.CursorPosition()
	}
	if g.dragging {
		x, y := ebiten.CursorPosition()
		g.camera.AddAngle(float64(y-g.lastY)/200.0, float64(x-g.lastX)/200.0)
		g.lastX, g.lastY = x, y
	} else {
		g.camera.AddAngle(0, 0.005)
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		g.dragging = false
	}
	_, wheel := ebiten.Wheel()
	g.camera.Zoom(wheel)
	return nil
}

type projectedFace struct {
	face  int
	depth float64
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)

	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	viewProj := g.camera.ViewProjection(float64(w) / float64(h))
	eye := g.camera.Eye()

	screenPts := make([][2]float32, len(g.surface.Positions))
	depth := make([]float64, len(g.surface.Positions))
	visible := make([]bool, len(g.surface.Positions))
	for i, p := range g.surface.Positions {
		clip := viewProj.Mul4x1(p.Vec4(1))
		if clip[3] <= 0 {
			continue
		}
		ndc := clip.Vec3().Mul(1 / clip[3])
		screenPts[i] = [2]float32{
			float32((ndc[0] + 1) * 0.5 * float64(w)),
			float32((1 - ndc[1]) * 0.5 * float64(h)),
		}
		depth[i] = ndc[2]
		visible[i] = true
	}

	// Painter's algorithm: far faces first.
	faces := make([]projectedFace, 0, len(g.surface.Faces))
	for f, loop := range g.surface.Faces {
		center := g.surface.FaceCenter(f)
		if g.normals[f].Dot(eye.Sub(center)) <= 0 {
			continue
		}
		d := 0.0
		ok := true
		for _, v := range loop {
			ok = ok && visible[v]
			d += depth[v]
		}
		if ok {
			faces = append(faces, projectedFace{face: f, depth: d / float64(len(loop))})
		}
	}
	sort.Slice(faces, func(i, j int) bool { return faces[i].depth > faces[j].depth })

	light := mgl64.Vec3{0.577, 0.577, 0.577}
	for _, pf := range faces {
		loop := g.surface.Faces[pf.face]
		xp := make([]float32, len(loop))
		yp := make([]float32, len(loop))
		for k, v := range loop {
			xp[k], yp[k] = screenPts[v][0], screenPts[v][1]
		}
		intensity := 0.2 + 0.8*math.Max(0, g.normals[pf.face].Dot(light))
		shade := uint8(200 * intensity)
		fillConvexPolygon(screen, xp, yp, color.RGBA{R: shade, G: shade, B: uint8(255 * intensity), A: 255})
		if g.wireframe {
			drawPolygonOutline(screen, xp, yp, 1, color.RGBA{R: 20, G: 20, B: 20, A: 255})
		}
	}

	mode := "uniform"
	if g.settings.IsAdaptive {
		mode = "adaptive"
	}
	ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %0.2f  level %d (%s)  faces %d\nup/down level, a adaptive, s simple, w wireframe",
		ebiten.ActualFPS(), g.settings.Level, mode, len(g.surface.Faces)))
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}
