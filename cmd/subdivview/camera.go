package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	subdiv "github.com/smasonuk/gosubdiv"
)

// Camera orbits the center of a mesh.
type Camera struct {
	target     mgl64.Vec3
	distance   float64
	yaw, pitch float64
}

// NewCamera frames the bounding sphere of m.
func NewCamera(m *subdiv.Mesh) *Camera {
	var center mgl64.Vec3
	for _, p := range m.Positions {
		center = center.Add(p)
	}
	if len(m.Positions) > 0 {
		center = center.Mul(1 / float64(len(m.Positions)))
	}
	radius := 1.0
	for _, p := range m.Positions {
		radius = math.Max(radius, p.Sub(center).Len())
	}
	return &Camera{target: center, distance: radius * 3, pitch: 0.4}
}

func (c *Camera) AddAngle(pitch, yaw float64) {
	c.yaw += yaw
	c.pitch = mgl64.Clamp(c.pitch+pitch, -math.Pi/2+0.01, math.Pi/2-0.01)
}

func (c *Camera) Zoom(steps float64) {
	c.distance *= math.Pow(0.9, steps)
}

func (c *Camera) Eye() mgl64.Vec3 {
	offset := mgl64.Vec3{0, 0, c.distance}
	rot := mgl64.HomogRotate3DY(c.yaw).Mul4(mgl64.HomogRotate3DX(-c.pitch))
	return c.target.Add(rot.Mul4x1(offset.Vec4(0)).Vec3())
}

func (c *Camera) ViewProjection(aspect float64) mgl64.Mat4 {
	proj := mgl64.Perspective(mgl64.DegToRad(45), aspect, c.distance*0.01, c.distance*10)
	view := mgl64.LookAtV(c.Eye(), c.target, mgl64.Vec3{0, 1, 0})
	return proj.Mul4(view)
}
