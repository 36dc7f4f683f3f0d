package accel

import "github.com/yafaray/yafacore/pkg/logger"

// Stats accumulates build-time counters, grounded on
// original_source/include/accelerator/accelerator_kdtree_common.h's
// `struct Stats` (interior/leaf counts, clip counters, bad-split counts).
// Summed across build threads (spec.md §4.1 "Multi-threaded build... only
// Stats are summed").
type Stats struct {
	InteriorNodes     int
	LeafNodes         int
	EmptyLeaves       int
	LeafPrimitives    int
	Clips             int
	BadClips          int
	NullClips         int
	EarlyOuts         int
	DepthLimitReached int
	BadSplits         int
}

// Add merges o into s, matching Stats::operator+= in the original source.
func (s *Stats) Add(o Stats) {
	s.InteriorNodes += o.InteriorNodes
	s.LeafNodes += o.LeafNodes
	s.EmptyLeaves += o.EmptyLeaves
	s.LeafPrimitives += o.LeafPrimitives
	s.Clips += o.Clips
	s.BadClips += o.BadClips
	s.NullClips += o.NullClips
	s.EarlyOuts += o.EarlyOuts
	s.DepthLimitReached += o.DepthLimitReached
	s.BadSplits += o.BadSplits
}

// LogVerbose mirrors Stats::outputLog, emitted only at verbose log level.
func (s Stats) LogVerbose(log logger.Logger, numPrimitives, maxLeafSize int) {
	if !log.Verbose() {
		return
	}
	log.Debugf("kd-tree: primitives in tree: %d", numPrimitives)
	nonEmptyLeaves := s.LeafNodes - s.EmptyLeaves
	log.Debugf("kd-tree: interior nodes: %d / leaf nodes: %d (empty: %d = %.1f%%)",
		s.InteriorNodes, s.LeafNodes, s.EmptyLeaves, pct(s.EmptyLeaves, s.LeafNodes))
	log.Debugf("kd-tree: leaf prims: %d (%.2fx prims in tree, leaf size: %d)",
		s.LeafPrimitives, ratio(s.LeafPrimitives, numPrimitives), maxLeafSize)
	if nonEmptyLeaves > 0 {
		log.Debugf("kd-tree: => %.2f prims per non-empty leaf", ratio(s.LeafPrimitives, nonEmptyLeaves))
	}
	log.Debugf("kd-tree: leaves due to depth limit/bad splits: %d/%d", s.DepthLimitReached, s.BadSplits)
	log.Debugf("kd-tree: clipped primitives: %d (%d bad clips, %d null clips)", s.Clips, s.BadClips, s.NullClips)
}

func pct(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return 100 * float64(n) / float64(d)
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
