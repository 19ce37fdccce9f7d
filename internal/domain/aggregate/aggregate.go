// Package aggregate fuses dimension scores into one weighted progress score.
package aggregate

import (
	"github.com/okian/wpr/internal/domain/model"
	"github.com/okian/wpr/internal/domain/normalize"
	"github.com/okian/wpr/internal/domain/scoring"
	"github.com/okian/wpr/internal/domain/types"
)

// Aggregate returns Σ score·coef / Σ coef over the dimensions present in
// scores, clamped to [0,1]. Missing dimensions renormalize the weights. It is
// 0 when scores is empty or the present weights sum to zero.
func Aggregate(scores scoring.Scores, p *model.Profile) float64 {
	if len(scores) == 0 || p == nil {
		return 0
	}
	var weighted, weights float64
	for _, d := range types.AllDimensions() {
		s, ok := scores[d]
		if !ok {
			continue
		}
		c := p.Coefficient(d)
		weighted += s * c
		weights += c
	}
	if weights <= 0 {
		return 0
	}
	return normalize.Clamp(weighted/weights, 0, 1)
}
