package optimizer

import (
	"sort"
	"time"

	"vocab_srs_backend/internal/fsrs"
)

// Sample is one historical review event, the optimizer's unit of input.
type Sample struct {
	CardID string
	Rating fsrs.Rating
	At     time.Time
}

// trainReview is a per-card review prepared for training.
type trainReview struct {
	rating      fsrs.Rating
	elapsedDays float64 // days since the previous review of this card; 0 for the first
	label       float64 // 0 when Again, 1 otherwise
	at          time.Time
}

// buildDataset groups samples by card and sorts each card's reviews by time,
// annotating elapsed days and the binary recall label.
func buildDataset(samples []Sample) map[string][]trainReview {
	if len(samples) == 0 {
		return nil
	}

	byCard := make(map[string][]Sample)
	for _, s := range samples {
		byCard[s.CardID] = append(byCard[s.CardID], s)
	}

	out := make(map[string][]trainReview, len(byCard))
	for cardID, cardSamples := range byCard {
		sort.Slice(cardSamples, func(i, j int) bool {
			return cardSamples[i].At.Before(cardSamples[j].At)
		})

		reviews := make([]trainReview, len(cardSamples))
		for i, s := range cardSamples {
			var elapsed float64
			if i > 0 {
				elapsed = s.At.Sub(cardSamples[i-1].At).Hours() / 24.0
			}
			label := 1.0
			if s.Rating == fsrs.Again {
				label = 0.0
			}
			reviews[i] = trainReview{
				rating:      s.Rating,
				elapsedDays: elapsed,
				label:       label,
				at:          s.At,
			}
		}
		out[cardID] = reviews
	}
	return out
}

// countCrossDay counts reviews with at least one full day since the previous
// review. Only those carry signal about the forgetting curve; same-day
// repeats and first exposures do not.
func countCrossDay(data map[string][]trainReview) int {
	n := 0
	for _, reviews := range data {
		for _, r := range reviews {
			if r.elapsedDays >= 1.0 {
				n++
			}
		}
	}
	return n
}
