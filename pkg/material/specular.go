package material

import (
	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/vec3"
)

// Mirror is a perfectly specular (non-sampled, analytic) reflective
// material, exercised by spec.md §4.2's "Specular/filter" path and §8
// scenario S4.
type Mirror struct {
	Reflectance color.RGB
}

func (m *Mirror) InitBSDF(sp geometry.SurfacePoint) BSDFData { return nil }

func (m *Mirror) Eval(geometry.SurfacePoint, BSDFData, vec3.Vec3, vec3.Vec3, Flags) color.RGB {
	return color.Black // delta BSDFs contribute zero to area-measure eval
}

func (m *Mirror) Sample(geometry.SurfacePoint, BSDFData, vec3.Vec3, float64, float64, Flags) (vec3.Vec3, color.RGB, float64, Flags) {
	return vec3.Vec3{}, color.Black, 0, 0
}

func (m *Mirror) Pdf(geometry.SurfacePoint, BSDFData, vec3.Vec3, vec3.Vec3, Flags) float64 { return 0 }

func (m *Mirror) Specular(sp geometry.SurfacePoint, _ BSDFData, wo vec3.Vec3) (*SpecularRay, *SpecularRay) {
	n := vec3.FaceForward(sp.Normal, wo)
	refl := vec3.Reflect(wo.Neg(), n)
	return &SpecularRay{Dir: refl, Color: m.Reflectance}, nil
}

func (m *Mirror) Emit(geometry.SurfacePoint, BSDFData, vec3.Vec3) color.RGB { return color.Black }

func (m *Mirror) Alpha(geometry.SurfacePoint, BSDFData, vec3.Vec3) float64 { return 1 }

func (m *Mirror) VolumeHandler(bool) VolumeHandler { return nil }

func (m *Mirror) Lobes() Flags { return Specular | Reflect }
