// Package photon implements the Photon/PhotonMap data model of spec.md
// §4.3 (emission, bounce, balanced kd-tree build, k-NN/radius gather) and
// the binary persistence format of spec.md §6 ("YPM1" magic).
package photon

import (
	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/vec3"
)

// Photon is a single deposited photon: position, incoming direction,
// accumulated power, and emission time (spec.md §3 "Photon").
type Photon struct {
	Pos, DirIn vec3.Vec3
	Power      color.RGB
	Time       float64
}
