package repository

// Band groups signal levels for querying: low covers levels 1-2,
// medium level 3, high levels 4-5.
type Band string

const (
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

// IsValidBand returns true if b is a supported band.
func IsValidBand(b Band) bool {
	switch b {
	case BandLow, BandMedium, BandHigh:
		return true
	default:
		return false
	}
}

// LevelRange maps a band to its inclusive level bounds.
// Unknown bands map to the full range.
func LevelRange(b Band) (min, max int) {
	switch b {
	case BandLow:
		return 1, 2
	case BandMedium:
		return 3, 3
	case BandHigh:
		return 4, 5
	default:
		return 1, 5
	}
}
