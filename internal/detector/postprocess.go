package detector

import (
	"fmt"
	"math"
	"sort"

	"github.com/ironsheep/scanlab/internal/models"
)

// DefaultIoUThreshold is the overlap above which the weaker of two boxes is
// suppressed.
const DefaultIoUThreshold = 0.7

// candidate is a decoded prediction in source pixels, before rounding.
type candidate struct {
	classID        int
	score          float32
	x1, y1, x2, y2 float32
}

// Output describes the layout of a raw detection tensor of shape
// [1, 4+Classes, Anchors]: rows are cx, cy, w, h followed by one score row
// per class, all in model input pixels.
type Output struct {
	Classes   int
	Anchors   int
	InputSize int
}

// Decode converts raw model output into detections for a srcW×srcH image.
//
// Predictions scoring below threshold are dropped, the rest go through
// class-agnostic non-maximum suppression. The result is sorted by
// descending confidence.
func Decode(data []float32, layout Output, srcW, srcH int, threshold, iou float64) ([]models.Detection, error) {
	rows := 4 + layout.Classes
	if layout.Classes <= 0 || layout.Anchors <= 0 || len(data) < rows*layout.Anchors {
		return nil, fmt.Errorf("unexpected output size %d for %d classes x %d anchors", len(data), layout.Classes, layout.Anchors)
	}

	n := layout.Anchors
	sx := float32(srcW) / float32(layout.InputSize)
	sy := float32(srcH) / float32(layout.InputSize)

	var cands []candidate
	for i := 0; i < n; i++ {
		classID, score := 0, float32(0)
		for c := 0; c < layout.Classes; c++ {
			if v := data[(4+c)*n+i]; v > score {
				score = v
				classID = c
			}
		}
		if float64(score) < threshold {
			continue
		}

		cx, cy := data[i], data[n+i]
		w, h := data[2*n+i], data[3*n+i]
		cands = append(cands, candidate{
			classID: classID,
			score:   score,
			x1:      (cx - w/2) * sx,
			y1:      (cy - h/2) * sy,
			x2:      (cx + w/2) * sx,
			y2:      (cy + h/2) * sy,
		})
	}

	kept := suppress(cands, iou)
	dets := make([]models.Detection, len(kept))
	for i, c := range kept {
		dets[i] = models.Detection{
			ClassID:    c.classID,
			Confidence: math.Min(1, math.Max(0, float64(c.score))),
			Box: models.Box{
				X1: int(math.Round(float64(c.x1))),
				Y1: int(math.Round(float64(c.y1))),
				X2: int(math.Round(float64(c.x2))),
				Y2: int(math.Round(float64(c.y2))),
			},
		}
	}
	return dets, nil
}

// suppress keeps the highest-scoring candidates, discarding any candidate
// whose IoU with an already kept one exceeds threshold.
func suppress(cands []candidate, threshold float64) []candidate {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].score > cands[j].score
	})

	removed := make([]bool, len(cands))
	var kept []candidate
	for i := range cands {
		if removed[i] {
			continue
		}
		kept = append(kept, cands[i])
		for j := i + 1; j < len(cands); j++ {
			if !removed[j] && iou(cands[i], cands[j]) > threshold {
				removed[j] = true
			}
		}
	}
	return kept
}

func iou(a, b candidate) float64 {
	ix1 := math.Max(float64(a.x1), float64(b.x1))
	iy1 := math.Max(float64(a.y1), float64(b.y1))
	ix2 := math.Min(float64(a.x2), float64(b.x2))
	iy2 := math.Min(float64(a.y2), float64(b.y2))

	inter := math.Max(0, ix2-ix1) * math.Max(0, iy2-iy1)
	areaA := float64(a.x2-a.x1) * float64(a.y2-a.y1)
	areaB := float64(b.x2-b.x1) * float64(b.y2-b.y1)
	union := areaA + areaB - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
