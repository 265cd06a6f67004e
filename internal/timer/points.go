package timer

import "math"

// PointsFunc converts a run into a score, given the leaderboard's fastest
// duration, this run's duration and the number of participants. It must be
// pure and deterministic, and must not increase as duration grows relative
// to fastest. The engine treats it as an injected collaborator.
type PointsFunc func(fastest, duration float64, completions int) int

// DefaultPoints scores a run by the squared ratio of the record to its own
// duration, scaled by the field size: the record holder on a leaderboard of n
// runs earns 10n points and everyone else proportionally less.
func DefaultPoints(fastest, duration float64, completions int) int {
	if fastest <= 0 || duration <= 0 {
		return 0
	}
	ratio := fastest / duration
	return int(math.Round(float64(completions) * 10 * ratio * ratio))
}
