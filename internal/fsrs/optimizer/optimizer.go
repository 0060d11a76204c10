package optimizer

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sort"

	"vocab_srs_backend/internal/fsrs"
)

var (
	// ErrEmptyLogs is returned when no review samples are provided.
	ErrEmptyLogs = errors.New("optimizer: no review samples provided")

	// ErrInsufficientData is returned when the cross-day reviews are fewer
	// than MinSamples. The caller should keep its existing weights.
	ErrInsufficientData = errors.New("optimizer: insufficient cross-day reviews")
)

// Config tunes the training run. Zero values get defaults.
type Config struct {
	Epochs        int     `json:"epochs"`        // default 5
	MiniBatchSize int     `json:"miniBatchSize"` // default 512
	LearningRate  float64 `json:"learningRate"`  // default 0.04
	MaxSeqLen     int     `json:"maxSeqLen"`     // default 64, reviews kept per card
	MinSamples    int     `json:"minSamples"`    // default MiniBatchSize
	Seed          int64   `json:"seed"`          // default 42
}

// Optimizer fits FSRS weights from review samples.
type Optimizer struct {
	epochs        int
	miniBatchSize int
	learningRate  float64
	maxSeqLen     int
	minSamples    int
	seed          int64
}

// New creates an Optimizer, filling zero config fields with defaults.
func New(cfg Config) *Optimizer {
	o := &Optimizer{
		epochs:        cfg.Epochs,
		miniBatchSize: cfg.MiniBatchSize,
		learningRate:  cfg.LearningRate,
		maxSeqLen:     cfg.MaxSeqLen,
		minSamples:    cfg.MinSamples,
		seed:          cfg.Seed,
	}
	if o.epochs == 0 {
		o.epochs = 5
	}
	if o.miniBatchSize == 0 {
		o.miniBatchSize = 512
	}
	if o.learningRate == 0 {
		o.learningRate = 0.04
	}
	if o.maxSeqLen == 0 {
		o.maxSeqLen = 64
	}
	if o.minSamples == 0 {
		o.minSamples = o.miniBatchSize
	}
	if o.seed == 0 {
		o.seed = 42
	}
	return o
}

// Fit trains weights starting from DefaultWeights. The context is checked at
// epoch and mini-batch boundaries; on cancellation the best weights found so
// far are returned along with the context error.
//
// Returns ErrEmptyLogs for an empty input and ErrInsufficientData (with
// DefaultWeights) when the log carries fewer cross-day reviews than
// MinSamples.
func (o *Optimizer) Fit(ctx context.Context, samples []Sample) (fsrs.Weights, int, error) {
	if len(samples) == 0 {
		return fsrs.Weights{}, 0, ErrEmptyLogs
	}

	data := buildDataset(samples)
	for cardID, reviews := range data {
		if len(reviews) > o.maxSeqLen {
			data[cardID] = reviews[:o.maxSeqLen]
		}
	}

	numReviews := countCrossDay(data)
	if numReviews < o.minSamples {
		return fsrs.DefaultWeights, numReviews, ErrInsufficientData
	}

	w := fsrs.DefaultWeights
	tMax := int(math.Ceil(float64(numReviews)/float64(o.miniBatchSize))) * o.epochs
	ad := newAdam(o.learningRate)
	ca := newCosineAnnealing(o.learningRate, tMax)
	rng := rand.New(rand.NewSource(o.seed))

	// Sorted card ids so the seeded shuffle is reproducible.
	cardIDs := make([]string, 0, len(data))
	for id := range data {
		cardIDs = append(cardIDs, id)
	}
	sort.Strings(cardIDs)

	// Seeding with the starting point means a fit can only match or improve
	// on the defaults over the training set.
	best := w
	bestLoss := batchLoss(w, data)

	for epoch := 0; epoch < o.epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return best, numReviews, err
		}

		rng.Shuffle(len(cardIDs), func(i, j int) {
			cardIDs[i], cardIDs[j] = cardIDs[j], cardIDs[i]
		})

		batch := make(map[string][]trainReview)
		crossDay := 0

		for _, cardID := range cardIDs {
			reviews := data[cardID]
			batch[cardID] = reviews
			for _, r := range reviews {
				if r.elapsedDays >= 1.0 {
					crossDay++
				}
			}

			if crossDay < o.miniBatchSize {
				continue
			}
			if err := ctx.Err(); err != nil {
				return best, numReviews, err
			}

			w = o.stepBatch(w, batch, ad, ca)
			batch = make(map[string][]trainReview)
			crossDay = 0
		}

		if crossDay > 0 {
			w = o.stepBatch(w, batch, ad, ca)
		}

		if epochLoss := batchLoss(w, data); epochLoss < bestLoss {
			bestLoss = epochLoss
			best = w
		}
	}

	return best, numReviews, nil
}

// Loss computes the average BCE of the given weights over the samples.
// Exposed so fitted weights can be compared against the defaults.
func (o *Optimizer) Loss(w fsrs.Weights, samples []Sample) float64 {
	return batchLoss(w, buildDataset(samples))
}

func (o *Optimizer) stepBatch(w fsrs.Weights, batch map[string][]trainReview, ad *adam, ca *cosineAnnealing) fsrs.Weights {
	grad := numericalGradient(w, batch)
	ad.setLR(ca.lr())
	w = ad.update(w, grad).Clamp()
	ca.advance()
	return w
}
