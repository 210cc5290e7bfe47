package viz

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera orbits a target point and projects world points onto a canvas.
// Yaw turns about world up, Pitch tilts the view down toward the ground.
type Camera struct {
	Target   mgl64.Vec3
	Yaw      float64
	Pitch    float64
	Distance float64
	// Span is how many metres fit across the shorter canvas side at Zoom 1.
	Span float64
	Zoom float64
}

func NewCamera() *Camera {
	return &Camera{Pitch: 0.35, Distance: 12, Span: 8, Zoom: 1}
}

func (c *Camera) Orbit(dyaw, dpitch float64) {
	c.Yaw += dyaw
	c.Pitch = mgl64.Clamp(c.Pitch+dpitch, -1.4, 1.4)
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// view rotates p into camera space: +X right, +Y up, +Z toward the viewer.
func (c *Camera) view(p mgl64.Vec3) mgl64.Vec3 {
	rel := p.Sub(c.Target)
	q := mgl64.QuatRotate(c.Pitch, mgl64.Vec3{1, 0, 0}).Mul(mgl64.QuatRotate(-c.Yaw, mgl64.Vec3{0, 1, 0}))
	return q.Rotate(rel)
}

// Project maps p to pixel coordinates on a sw x sh pixel canvas. depth grows
// toward the viewer; ok is false for points behind the camera or off screen.
func (c *Camera) Project(p mgl64.Vec3, sw, sh int) (x, y int, depth float64, ok bool) {
	v := c.view(p)
	if v.Z() >= c.Distance-0.1 {
		return 0, 0, 0, false
	}
	persp := c.Distance / (c.Distance - v.Z())
	pxPerM := float64(min(sw, sh)) / c.Span * c.Zoom
	x = int(math.Round(v.X()*persp*pxPerM)) + sw/2
	y = int(math.Round(-v.Y()*persp*pxPerM)) + sh/2
	return x, y, v.Z(), x >= 0 && x < sw && y >= 0 && y < sh
}

type Edge struct {
	Start, End mgl64.Vec3
}

// Wireframe is a set of world-space segments; a zero-length edge is a dot.
type Wireframe struct{ Edges []Edge }

func (w *Wireframe) AddEdge(s, e mgl64.Vec3) { w.Edges = append(w.Edges, Edge{s, e}) }
func (w *Wireframe) AddPoint(p mgl64.Vec3)   { w.Edges = append(w.Edges, Edge{p, p}) }
func (w *Wireframe) Clear()                  { w.Edges = w.Edges[:0] }

type projectedEdge struct {
	x1, y1, x2, y2 int
	depth          float64
}

// Render draws the wireframe back to front. Edges with one visible end are
// still drawn; the canvas clips the rest.
func Render(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	sw, sh := c.PixelSize()
	proj := make([]projectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, v1 := cam.Project(e.Start, sw, sh)
		x2, y2, d2, v2 := cam.Project(e.End, sw, sh)
		if v1 || v2 {
			proj = append(proj, projectedEdge{x1, y1, x2, y2, (d1 + d2) / 2})
		}
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth < proj[j].depth })
	for _, e := range proj {
		c.DrawLine(e.x1, e.y1, e.x2, e.y2)
	}
}

// GroundGrid adds floor lines every step metres around centre.
func GroundGrid(w *Wireframe, centre mgl64.Vec3, floorY, half, step float64) {
	cx := math.Round(centre.X()/step) * step
	cz := math.Round(centre.Z()/step) * step
	for d := -half; d <= half+1e-9; d += step {
		w.AddEdge(mgl64.Vec3{cx + d, floorY, cz - half}, mgl64.Vec3{cx + d, floorY, cz + half})
		w.AddEdge(mgl64.Vec3{cx - half, floorY, cz + d}, mgl64.Vec3{cx + half, floorY, cz + d})
	}
}

// Quad adds an X frame: two diagonals through the hubs, a short mast along
// the body up axis and a nose tick toward the front pair.
func Quad(w *Wireframe, pos mgl64.Vec3, rot mgl64.Quat, hubs [4]mgl64.Vec3, armLength float64) {
	w.AddEdge(hubs[0], hubs[2])
	w.AddEdge(hubs[1], hubs[3])
	w.AddEdge(pos, pos.Add(rot.Rotate(mgl64.Vec3{0, armLength, 0})))
	nose := pos.Add(rot.Rotate(mgl64.Vec3{0, 0, armLength * 1.5}))
	w.AddEdge(pos, nose)
	for _, h := range hubs {
		w.AddPoint(h)
	}
}
