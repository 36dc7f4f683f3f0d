package renderer

// PassStats summarises one progressive pass, mirroring the teacher's
// renderer.RenderStats (TotalPixels/TotalSamples/AverageSamples/MinSamples/
// MaxSamplesUsed).
type PassStats struct {
	PassNumber     int
	TotalPixels    int
	TotalSamples   int
	AverageSamples float64
	MinSamples     int
	MaxSamplesUsed int
}
