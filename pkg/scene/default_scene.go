package scene

import (
	"github.com/yafaray/yafacore/pkg/accel"
	"github.com/yafaray/yafacore/pkg/camera"
	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/lights"
	"github.com/yafaray/yafacore/pkg/material"
	"github.com/yafaray/yafacore/pkg/vec3"
)

// NewDefaultScene builds a small fixture scene -- three spheres (diffuse,
// mirror, glass) over a diffuse ground sphere, one area light and a dim sky
// background -- exercising every material and light kind the CLI can
// render without needing a scene-file loader (out of scope per spec.md §1),
// generalising the teacher's NewDefaultScene builder.
func NewDefaultScene(cameraOverrides ...camera.Config) *Scene {
	defaultCameraConfig := camera.Config{
		Center:        vec3.New(0, 0.75, 3),
		LookAt:        vec3.New(0, 0.5, -1),
		Up:            vec3.New(0, 1, 0),
		Width:         400,
		AspectRatio:   16.0 / 9.0,
		VFov:          40,
		Aperture:      0.05,
		FocusDistance: 0,
	}
	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = camera.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}
	cam := camera.New(cameraConfig)

	s := &Scene{
		Camera: cam,
		Sampling: SamplingConfig{
			Width:                     cam.Width(),
			Height:                    cam.Height(),
			SamplesPerPixel:           64,
			MaxDepth:                  8,
			AdditionalDepth:           2,
			ShadowDepth:               4,
			RussianRouletteMinBounces: 4,
			TransparentShadows:        true,
			LightSamplesPerArea:       1,
		},
		AccelParams: accel.Params{},
	}

	diffuseRed := s.AddMaterial(&material.Lambertian{Albedo: color.New(0.65, 0.25, 0.2)})
	diffuseGreen := s.AddMaterial(&material.Lambertian{Albedo: color.New(0.3, 0.55, 0.3)})
	mirror := s.AddMaterial(&material.Mirror{Reflectance: color.New(0.9, 0.9, 0.9)})
	glass := s.AddMaterial(&material.Dielectric{
		IOR:    1.5,
		Filter: color.White,
		Interior: &material.BeerVolume{
			SigmaA: color.New(0.15, 0.05, 0.4), // faint amber tint as light crosses the glass's interior
		},
	})

	s.Primitives = append(s.Primitives,
		&geometry.Sphere{Center: vec3.New(0, 0.5, -1), Radius: 0.5, MatID: diffuseRed},
		&geometry.Sphere{Center: vec3.New(-1, 0.5, -1), Radius: 0.5, MatID: mirror},
		&geometry.Sphere{Center: vec3.New(1, 0.5, -1), Radius: 0.5, MatID: glass},
		&geometry.Sphere{Center: vec3.New(0, -1000, -1), Radius: 1000, MatID: diffuseGreen},
	)

	s.Lights = append(s.Lights, &lights.Area{
		Corner:   vec3.New(-2, 4, 1),
		EdgeU:    vec3.New(0, 0, -4),
		EdgeV:    vec3.New(4, 0, 0),
		Radiance: color.New(8, 8, 8),
	})

	s.Background = &lights.Uniform{Color: color.New(0.05, 0.07, 0.1)}

	return s
}
