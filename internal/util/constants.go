package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

// Review-type tags partition review logs and fitted parameters by exercise
// modality. The empty tag is normalized to ReviewTypeVocabulary.
const (
	ReviewTypeVocabulary = "vocabulary"
	ReviewTypeListening  = "listening"
)

// Session defaults used when the start request leaves the knobs unset.
const (
	DefaultNewCardsPerSession   = 20
	DefaultMaxReviewsPerSession = 200
	DefaultLearnAheadMinutes    = 20
	DefaultOptimizerMinSamples  = 512
	DefaultJobPollSeconds       = 30
	DefaultReviewRetryAttempts  = 3
)
