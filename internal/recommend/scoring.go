package recommend

import (
	"math"
	"time"
)

// Decay returns the time decay factor for an article of the given age.
// Old articles never fall below DecayFloor. Future-dated articles are not
// clamped and get a factor above one.
func (c Config) Decay(age time.Duration) float64 {
	days := age.Hours() / 24
	return math.Max(c.DecayFloor, math.Exp(-c.decayRate()*days))
}

// NewBoost returns NewArticleBoost for articles inside the new-article window.
func (c Config) NewBoost(age time.Duration) float64 {
	if age <= c.NewArticleWindow {
		return c.NewArticleBoost
	}
	return 0
}

// FinalScore blends the signals into the ranking score.
func (c Config) FinalScore(content, collaborative, comment, decay, newBoost float64) float64 {
	blended := c.Alpha*content + (1-c.Alpha)*collaborative + comment
	return blended*decay + newBoost
}
