package optimizer

import (
	"math"

	"vocab_srs_backend/internal/fsrs"
)

const bceClamp = 1e-7

// bceLoss is the binary cross-entropy -[y*ln(p) + (1-y)*ln(1-p)], with p
// clamped away from 0 and 1.
func bceLoss(p, y float64) float64 {
	p = math.Max(bceClamp, math.Min(p, 1-bceClamp))
	return -(y*math.Log(p) + (1-y)*math.Log(1-p))
}

// batchLoss replays every card's history under the candidate weights and
// averages the BCE between predicted retrievability and the observed outcome
// over all cross-day reviews. Returns 0 when no review contributes.
func batchLoss(w fsrs.Weights, data map[string][]trainReview) float64 {
	sched, err := fsrs.NewScheduler(fsrs.Config{Weights: w})
	if err != nil {
		// Out-of-bounds candidates are rejected with an infinite loss so the
		// optimizer steps away from them.
		return math.Inf(1)
	}

	var total float64
	var count int

	for _, reviews := range data {
		if len(reviews) == 0 {
			continue
		}
		card := fsrs.NewCard(reviews[0].at)

		for _, rev := range reviews {
			pred := sched.Retrievability(card, rev.at)

			if card.LastReview != nil && rev.elapsedDays >= 1.0 {
				total += bceLoss(pred, rev.label)
				count++
			}

			card, err = sched.Review(card, rev.rating, rev.at)
			if err != nil {
				return math.Inf(1)
			}
		}
	}

	if count == 0 {
		return 0
	}
	return total / float64(count)
}

const gradEps = 1e-5

// numericalGradient estimates dL/dw by central differences:
// (L(w+eps) - L(w-eps)) / (2*eps) per coordinate.
func numericalGradient(w fsrs.Weights, data map[string][]trainReview) fsrs.Weights {
	var grad fsrs.Weights
	for i := 0; i < fsrs.NumWeights; i++ {
		plus := w
		plus[i] += gradEps
		minus := w
		minus[i] -= gradEps

		lPlus := batchLoss(plus.Clamp(), data)
		lMinus := batchLoss(minus.Clamp(), data)

		grad[i] = (lPlus - lMinus) / (2 * gradEps)
	}
	return grad
}
