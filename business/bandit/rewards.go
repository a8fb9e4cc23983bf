package bandit

import (
	"time"

	"vidShare/domain"
)

// RewardForWatch normalises a watch time to [0, 1] against the video's duration.
func RewardForWatch(watch, duration time.Duration) float64 {
	if watch <= 0 {
		return 0
	}
	if duration <= 0 {
		duration = domain.DefaultWatchDuration
	}

	r := watch.Seconds() / duration.Seconds()
	if r > 1 {
		return 1
	}
	return r
}
