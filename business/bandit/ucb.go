package bandit

import (
	"math"
	"time"

	"vidShare/domain"
)

// UCB1 scores an arm: average reward plus sqrt(2 ln(total) / impressions).
// A never-impressed arm is +Inf so it gets shown at least once.
func UCB1(rewardSum float64, impressions, totalTracked int64) float64 {
	if impressions <= 0 {
		return math.Inf(1)
	}
	if totalTracked < 1 {
		totalTracked = 1
	}

	n := float64(impressions)
	avg := rewardSum / n
	bonus := math.Sqrt(2 * math.Log(float64(totalTracked)) / n)
	return avg + bonus
}

// ExplorationBonus is the confidence term of UCB1 on its own, 0 for a new arm.
func ExplorationBonus(impressions, totalTracked int64) float64 {
	if impressions <= 0 {
		return 0
	}
	if totalTracked < 1 {
		totalTracked = 1
	}
	return math.Sqrt(2 * math.Log(float64(totalTracked)) / float64(impressions))
}

// applyImpression counts one showing of the video.
func applyImpression(s *domain.BanditStats, totalTracked int64) {
	s.ImpressionCount++
	s.UCBScore = UCB1(s.RewardSum, s.ImpressionCount, totalTracked)
}

// applyClick counts a click with its watch time. A click on a video that has no
// unclicked impression left also counts the showing it implies, keeping clicks <= impressions.
func applyClick(s *domain.BanditStats, watch, duration time.Duration, totalTracked int64) {
	if s.ClickCount >= s.ImpressionCount {
		s.ImpressionCount++
	}
	if watch < 0 {
		watch = 0
	}
	s.ClickCount++
	s.TotalWatchTime += watch.Seconds()
	s.RewardSum += RewardForWatch(watch, duration)
	s.UCBScore = UCB1(s.RewardSum, s.ImpressionCount, totalTracked)
}
