package engine

import (
	"math"
	"math/rand"
	"sort"

	"github.com/piwi3910/BoxFit/internal/model"
)

// BeamConfig holds the tuning knobs of the beam-search compactor.
type BeamConfig struct {
	Width           int     // states kept per step
	BranchPerState  int     // successor cap per state is BranchPerState * Width
	AnchorLimit     int     // nearest anchors tried per state
	RandomOrderings int     // shuffled orderings on top of volume and footprint order
	Extent          float64 // side of the virtual cube packed into, cm
	Weights         ScoreWeights
}

// DefaultBeamConfig returns the tuned defaults.
func DefaultBeamConfig() BeamConfig {
	return BeamConfig{
		Width:           12,
		BranchPerState:  6,
		AnchorLimit:     16,
		RandomOrderings: 4,
		Extent:          10000,
		Weights:         BeamScoreWeights,
	}
}

type beamState struct {
	placed              []model.PlacedItem
	usedW, usedD, usedH float64
	score               float64
}

func (s beamState) cluster() model.Cluster {
	return model.Cluster{Items: s.placed, UsedWidth: s.usedW, UsedDepth: s.usedD, UsedHeight: s.usedH}
}

type extentKey [3]float64

// PlanBeam searches for the smallest cluster holding every product in
// unconstrained space. Several product orderings each run a beam search; the
// cluster with the least bounding volume wins.
func PlanBeam(products []model.Product, cfg BeamConfig, rng *rand.Rand) (*model.Cluster, error) {
	if len(products) == 0 {
		return nil, ErrNoProducts
	}
	if rng == nil {
		rng = newRand(0)
	}

	orderings := [][]int{byVolumeDesc(products), byBaseAreaDesc(products)}
	for i := 0; i < cfg.RandomOrderings; i++ {
		orderings = append(orderings, shuffled(rng, indices(len(products))))
	}

	space := model.Box{ID: "virtual", Width: cfg.Extent, Depth: cfg.Extent, Height: cfg.Extent}
	var best *model.Cluster
	for _, seq := range orderings {
		c, ok := beamSearch(products, seq, space, cfg)
		if !ok {
			continue
		}
		if best == nil || c.Volume() < best.Volume() {
			best = &c
		}
	}
	if best == nil {
		return nil, strategyFailed(StrategyBeam, "no ordering completed")
	}
	finalize(best.Items)
	return best, nil
}

func beamSearch(products []model.Product, seq []int, space model.Box, cfg BeamConfig) (model.Cluster, bool) {
	beam := []beamState{{}}
	limit := cfg.BranchPerState * cfg.Width

	for _, pi := range seq {
		p := products[pi]
		all := productOrientations(p)
		flat, minH := flatOrientations(all)
		nonFlat := make([]model.Orientation, 0, len(all))
		for _, o := range all {
			if o.H != minH {
				nonFlat = append(nonFlat, o)
			}
		}

		var next []beamState
		for _, st := range beam {
			anchors := nextAnchors(st.placed, space)
			if len(anchors) > cfg.AnchorLimit {
				anchors = anchors[:cfg.AnchorLimit]
			}
			succ := expandState(st, p, flat, anchors, space, cfg, limit, 0)
			if len(succ) == 0 {
				succ = expandState(st, p, nonFlat, anchors, space, cfg, limit, minH)
			}
			next = append(next, succ...)
		}
		if len(next) == 0 {
			return model.Cluster{}, false
		}

		sort.SliceStable(next, func(i, j int) bool { return next[i].score < next[j].score })
		seen := make(map[extentKey]bool)
		uniq := make([]beamState, 0, limit)
		for _, s := range next {
			key := extentKey{math.Round(s.usedW), math.Round(s.usedD), math.Round(s.usedH)}
			if seen[key] {
				continue
			}
			seen[key] = true
			uniq = append(uniq, s)
			if len(uniq) >= limit {
				break
			}
		}
		if len(uniq) > cfg.Width {
			uniq = uniq[:cfg.Width]
		}
		beam = uniq
	}

	sort.SliceStable(beam, func(i, j int) bool {
		ai, aj := beam[i].usedW*beam[i].usedD, beam[j].usedW*beam[j].usedD
		if ai != aj {
			return ai < aj
		}
		return beam[i].usedH < beam[j].usedH
	})
	return beam[0].cluster(), true
}

// expandState returns up to limit successors of st placing p at each anchor
// in each orientation. baseH > 0 marks non-flat orientations, penalized by
// how much taller they stand.
func expandState(st beamState, p model.Product, oris []model.Orientation, anchors []Point, space model.Box, cfg BeamConfig, limit int, baseH float64) []beamState {
	var out []beamState
	for _, a := range anchors {
		for _, o := range oris {
			pos, ok := compactedFit(a, o.Size, space, st.placed)
			if !ok {
				continue
			}
			item := placeItem(p, pos, o.Size)
			usedW := max(st.usedW, item.MaxX())
			usedD := max(st.usedD, item.MaxZ())
			usedH := max(st.usedH, item.Top())
			excess := 0.0
			if baseH > 0 {
				excess = o.H - baseH
			}

			placed := make([]model.PlacedItem, len(st.placed), len(st.placed)+1)
			copy(placed, st.placed)
			out = append(out, beamState{
				placed: append(placed, item),
				usedW:  usedW,
				usedD:  usedD,
				usedH:  usedH,
				score:  cfg.Weights.Score(usedW, usedD, usedH, pos.Y, excess),
			})
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}
