package optimizer

import (
	"math"

	"vocab_srs_backend/internal/fsrs"
)

// adam implements the Adam update rule with bias correction.
//
//	m[i] = b1*m[i] + (1-b1)*g[i]
//	v[i] = b2*v[i] + (1-b2)*g[i]^2
//	w[i] -= lr * mHat[i] / (sqrt(vHat[i]) + eps)
type adam struct {
	lr           float64
	beta1, beta2 float64
	eps          float64
	m, v         fsrs.Weights
	step         int
}

func newAdam(lr float64) *adam {
	return &adam{
		lr:    lr,
		beta1: 0.9,
		beta2: 0.999,
		eps:   1e-8,
	}
}

// update applies one Adam step and returns the updated weights.
func (a *adam) update(w, grad fsrs.Weights) fsrs.Weights {
	a.step++
	for i := 0; i < fsrs.NumWeights; i++ {
		g := grad[i]
		if g == 0 {
			continue
		}
		a.m[i] = a.beta1*a.m[i] + (1-a.beta1)*g
		a.v[i] = a.beta2*a.v[i] + (1-a.beta2)*g*g

		mHat := a.m[i] / (1 - math.Pow(a.beta1, float64(a.step)))
		vHat := a.v[i] / (1 - math.Pow(a.beta2, float64(a.step)))

		w[i] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
	}
	return w
}

func (a *adam) setLR(lr float64) {
	a.lr = lr
}

// cosineAnnealing decays the learning rate over tMax steps:
// lr(t) = 0.5 * lrMax * (1 + cos(pi * t / tMax)).
type cosineAnnealing struct {
	lrMax float64
	tMax  int
	t     int
}

func newCosineAnnealing(lrMax float64, tMax int) *cosineAnnealing {
	return &cosineAnnealing{lrMax: lrMax, tMax: tMax}
}

func (ca *cosineAnnealing) lr() float64 {
	return 0.5 * ca.lrMax * (1 + math.Cos(math.Pi*float64(ca.t)/float64(ca.tMax)))
}

func (ca *cosineAnnealing) advance() {
	ca.t++
}
