package fsrs

import "math"

// FSRS-4.5 forgetting-curve constants. The curve is
// R(t, S) = (1 + FACTOR * t / S) ^ DECAY, chosen so that R(S, S) = 0.9:
// stability is by definition the interval at which recall drops to 90%.
const (
	decay  = -0.5
	factor = 19.0 / 81.0
)

const (
	minStability  = 0.01
	minDifficulty = 1.0
	maxDifficulty = 10.0
)

// model evaluates the FSRS-4.5 formulas for a fixed weight vector.
type model struct {
	w Weights
}

// retrievability computes the probability of recall after elapsedDays given
// the card's stability.
func (m *model) retrievability(elapsedDays, stability float64) float64 {
	return math.Pow(1+factor*elapsedDays/stability, decay)
}

// initStability returns S0(G) = clamp_s(w[G-1]) for the first rating.
func (m *model) initStability(r Rating) float64 {
	return clampStability(m.w[r-1])
}

// initDifficulty returns D0(G) = w[4] - e^(w[5]*(G-1)) + 1.
func (m *model) initDifficulty(r Rating, clamp bool) float64 {
	d := m.w[4] - math.Exp(m.w[5]*float64(r-1)) + 1
	if clamp {
		return clampDifficulty(d)
	}
	return d
}

// nextDifficulty applies the rating delta with linear damping, then mean
// reversion toward D0(Easy):
//
//	dD  = -w[6] * (G - 3)
//	D'  = D + dD * (10 - D) / 9
//	D'' = clamp_d(w[7]*D0(Easy) + (1-w[7])*D')
func (m *model) nextDifficulty(d float64, r Rating) float64 {
	deltaD := -m.w[6] * (float64(r) - 3)
	dPrime := d + deltaD*(10-d)/9
	return clampDifficulty(m.w[7]*m.initDifficulty(Easy, false) + (1-m.w[7])*dPrime)
}

// nextStability dispatches on the rating: Again takes the post-lapse formula,
// everything else the recall formula.
func (m *model) nextStability(d, s, r float64, rating Rating) float64 {
	if rating == Again {
		return clampStability(m.forgetStability(d, s, r))
	}
	return clampStability(m.recallStability(d, s, r, rating))
}

// recallStability grows stability after a successful recall:
//
//	S' = S * (1 + e^w[8] * (11-D) * S^(-w[9]) * (e^((1-R)*w[10]) - 1) * hard * easy)
//
// hard = w[15] when rated Hard, easy = w[16] when rated Easy, else 1.
func (m *model) recallStability(d, s, r float64, rating Rating) float64 {
	hardPenalty := 1.0
	if rating == Hard {
		hardPenalty = m.w[15]
	}
	easyBonus := 1.0
	if rating == Easy {
		easyBonus = m.w[16]
	}
	return s * (1 + math.Exp(m.w[8])*
		(11-d)*
		math.Pow(s, -m.w[9])*
		(math.Exp((1-r)*m.w[10])-1)*
		hardPenalty*easyBonus)
}

// forgetStability computes the collapsed stability after a lapse:
//
//	S' = w[11] * D^(-w[12]) * ((S+1)^w[13] - 1) * e^((1-R)*w[14])
//
// capped at the prior stability: forgetting never raises it.
func (m *model) forgetStability(d, s, r float64) float64 {
	sf := m.w[11] *
		math.Pow(d, -m.w[12]) *
		(math.Pow(s+1, m.w[13]) - 1) *
		math.Exp((1-r)*m.w[14])
	return math.Min(sf, s)
}

// nextIntervalDays converts a stability into a whole-day interval at the
// desired retention, clamped to [minIvl, maxIvl].
//
//	I(S) = round((S / FACTOR) * (retention^(1/DECAY) - 1))
func (m *model) nextIntervalDays(stability, desiredRetention float64, minIvl, maxIvl int) int {
	ivl := stability / factor * (math.Pow(desiredRetention, 1.0/decay) - 1)
	days := int(math.Round(ivl))
	if days < minIvl {
		days = minIvl
	}
	if days > maxIvl {
		days = maxIvl
	}
	return days
}

func clampStability(s float64) float64 {
	return math.Max(s, minStability)
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, minDifficulty), maxDifficulty)
}
