// Package camera implements the Camera collaborator of spec.md §6
// ("Camera.shootRay(px, py, lensU, lensV) -> CameraRay{ray, valid, weight}"),
// camera internals being explicitly out of scope per spec.md §1 beyond that
// ray-generation contract. The concrete thin-lens perspective camera here is
// grounded on the (Center, LookAt, Up, Width, AspectRatio, VFov, Aperture,
// FocusDistance) configuration the teacher's scene builders pass to
// geometry.NewCamera (pkg/scene/default_scene.go and siblings).
package camera

import (
	"math"

	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/vec3"
)

// Config is the camera setup a scene builder supplies, mirroring the
// teacher's geometry.CameraConfig field set.
type Config struct {
	Center        vec3.Vec3
	LookAt        vec3.Vec3
	Up            vec3.Vec3
	Width         int
	AspectRatio   float64
	VFov          float64 // vertical field of view, degrees
	Aperture      float64 // lens diameter; 0 disables depth of field
	FocusDistance float64 // <=0 auto-calculates from |Center-LookAt|
}

// MergeCameraConfig overlays any non-zero field of override onto base,
// matching the teacher's NewDefaultScene(cameraOverrides ...) pattern of
// letting a caller tweak one field of a scene's default camera.
func MergeCameraConfig(base, override Config) Config {
	merged := base
	if override.Center != (vec3.Vec3{}) {
		merged.Center = override.Center
	}
	if override.LookAt != (vec3.Vec3{}) {
		merged.LookAt = override.LookAt
	}
	if override.Up != (vec3.Vec3{}) {
		merged.Up = override.Up
	}
	if override.Width != 0 {
		merged.Width = override.Width
	}
	if override.AspectRatio != 0 {
		merged.AspectRatio = override.AspectRatio
	}
	if override.VFov != 0 {
		merged.VFov = override.VFov
	}
	if override.Aperture != 0 {
		merged.Aperture = override.Aperture
	}
	if override.FocusDistance != 0 {
		merged.FocusDistance = override.FocusDistance
	}
	return merged
}

// Ray is the result of a single shootRay call: a generated camera ray, the
// importance weight it carries, and whether the sample is usable at all
// (some camera models, e.g. orthographic-with-cutoff, may reject a pixel).
type Ray struct {
	R      geometry.Ray
	Valid  bool
	Weight float64
}

// Camera is a thin-lens perspective camera.
type Camera struct {
	origin                    vec3.Vec3
	lowerLeftCorner           vec3.Vec3
	horizontal, vertical      vec3.Vec3
	u, v, w                   vec3.Vec3
	lensRadius                float64
	width, height             int
}

// New builds a Camera from cfg. Width/height pixel counts come from
// cfg.Width and cfg.AspectRatio, matching the teacher's builders.
func New(cfg Config) *Camera {
	width := cfg.Width
	if width <= 0 {
		width = 400
	}
	aspect := cfg.AspectRatio
	if aspect <= 0 {
		aspect = 16.0 / 9.0
	}
	height := int(float64(width) / aspect)
	if height <= 0 {
		height = 1
	}

	focusDist := cfg.FocusDistance
	if focusDist <= 0 {
		focusDist = cfg.Center.Sub(cfg.LookAt).Length()
		if focusDist == 0 {
			focusDist = 1
		}
	}

	vfov := cfg.VFov
	if vfov <= 0 {
		vfov = 40
	}
	theta := vfov * math.Pi / 180
	h := math.Tan(theta / 2)
	viewportHeight := 2 * h
	viewportWidth := aspect * viewportHeight

	up := cfg.Up
	if up == (vec3.Vec3{}) {
		up = vec3.New(0, 1, 0)
	}

	w := cfg.Center.Sub(cfg.LookAt).Unit()
	u := up.Cross(w).Unit()
	v := w.Cross(u)

	origin := cfg.Center
	horizontal := u.Mul(viewportWidth * focusDist)
	vertical := v.Mul(viewportHeight * focusDist)
	lowerLeftCorner := origin.Sub(horizontal.Mul(0.5)).Sub(vertical.Mul(0.5)).Sub(w.Mul(focusDist))

	return &Camera{
		origin:          origin,
		lowerLeftCorner: lowerLeftCorner,
		horizontal:      horizontal,
		vertical:        vertical,
		u:               u,
		v:               v,
		w:               w,
		lensRadius:      cfg.Aperture / 2,
		width:           width,
		height:          height,
	}
}

// Width and Height are the camera's native pixel resolution.
func (c *Camera) Width() int  { return c.width }
func (c *Camera) Height() int { return c.height }

// ShootRay generates a camera ray through pixel (px, py) jittered within the
// pixel by (dx, dy) in [0,1), with lens sample (lensU, lensV) in [0,1) used
// for depth-of-field when Aperture > 0 (spec.md §6 "Camera.shootRay(px, py,
// lensU, lensV) -> CameraRay{ray, valid, weight}").
func (c *Camera) ShootRay(px, py int, dx, dy, lensU, lensV float64) Ray {
	s := (float64(px) + dx) / float64(c.width-1+boolToInt(c.width == 1))
	t := 1 - (float64(py)+dy)/float64(c.height-1+boolToInt(c.height == 1))

	origin := c.origin
	if c.lensRadius > 0 {
		rd := sampleDisk(lensU, lensV).Mul(c.lensRadius)
		offset := c.u.Mul(rd.X).Add(c.v.Mul(rd.Y))
		origin = origin.Add(offset)
	}

	dir := c.lowerLeftCorner.Add(c.horizontal.Mul(s)).Add(c.vertical.Mul(t)).Sub(origin)
	r := geometry.Ray{From: origin, Dir: dir.Unit(), TMin: 0, TMax: geometry.Infinity}
	return Ray{R: r, Valid: true, Weight: 1}
}

func sampleDisk(u1, u2 float64) vec3.Vec3 {
	r := math.Sqrt(u1)
	phi := 2 * math.Pi * u2
	return vec3.New(r*math.Cos(phi), r*math.Sin(phi), 0)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
