package recommend

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Config holds the scoring weights and paging limits.
type Config struct {
	// Alpha weighs content score against collaborative score.
	Alpha float64

	// CommentBoost is added before decay when the requester has commented
	// on the article.
	CommentBoost float64

	// DecayHalfLifeDays is the age at which decay reaches one half.
	DecayHalfLifeDays float64

	// DecayFloor is the lowest decay factor an old article can get.
	DecayFloor float64

	// NewArticleBoost is added after decay to articles no older than
	// NewArticleWindow.
	NewArticleBoost  float64
	NewArticleWindow time.Duration

	DefaultLimit int
	MaxLimit     int
}

// DefaultConfig returns the production scoring constants.
func DefaultConfig() Config {
	return Config{
		Alpha:             0.6,
		CommentBoost:      5,
		DecayHalfLifeDays: 30,
		DecayFloor:        0.2,
		NewArticleBoost:   50,
		NewArticleWindow:  time.Hour,
		DefaultLimit:      10,
		MaxLimit:          100,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Alpha < 0 || c.Alpha > 1:
		return fmt.Errorf("alpha must be in [0,1], got %v", c.Alpha)
	case c.CommentBoost < 0:
		return errors.New("comment boost must not be negative")
	case c.DecayHalfLifeDays <= 0:
		return fmt.Errorf("decay half life must be positive, got %v", c.DecayHalfLifeDays)
	case c.DecayFloor < 0 || c.DecayFloor > 1:
		return fmt.Errorf("decay floor must be in [0,1], got %v", c.DecayFloor)
	case c.NewArticleBoost < 0:
		return errors.New("new article boost must not be negative")
	case c.NewArticleWindow < 0:
		return errors.New("new article window must not be negative")
	case c.DefaultLimit < 1:
		return fmt.Errorf("default limit must be at least 1, got %d", c.DefaultLimit)
	case c.MaxLimit < c.DefaultLimit:
		return fmt.Errorf("max limit %d is below default limit %d", c.MaxLimit, c.DefaultLimit)
	}
	return nil
}

// decayRate is λ in exp(-λ·days).
func (c Config) decayRate() float64 {
	return math.Ln2 / c.DecayHalfLifeDays
}
