package consts

// Rating bands. The contract reports a rating too; the local bands must stay
// consistent with it.
const (
	RatingABand = 800
	RatingBBand = 650
	RatingCBand = 500

	EligibilityScoreFloor = 300

	InterestRateTierA = 10.0
	InterestRateTierB = 11.5
)

// RatingForScore classifies a numeric score into the fixed A-D bands.
func RatingForScore(score uint64) string {
	switch {
	case score >= RatingABand:
		return "A"
	case score >= RatingBBand:
		return "B"
	case score >= RatingCBand:
		return "C"
	default:
		return "D"
	}
}

// InterestRateForScore picks the rate tier; scores under the B band fall back
// to the deployment's configured base rate.
func InterestRateForScore(score uint64, baseRate float64) float64 {
	switch {
	case score >= RatingABand:
		return InterestRateTierA
	case score >= RatingBBand:
		return InterestRateTierB
	default:
		return baseRate
	}
}
