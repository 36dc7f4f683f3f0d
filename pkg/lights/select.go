package lights

import "github.com/yafaray/yafacore/pkg/sampling"

// PowerDistribution builds the PDF1D over lights' totalEnergy luminance,
// used to draw a power-proportional light for photon emission (spec.md
// §4.3 "Build PDF1D over lights' totalEnergy").
func PowerDistribution(ls []Light) *sampling.PDF1D {
	weights := make([]float64, len(ls))
	for i, l := range ls {
		weights[i] = l.TotalEnergy().Luminance()
	}
	return sampling.NewPDF1D(weights)
}
