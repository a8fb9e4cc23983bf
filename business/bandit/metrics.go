package bandit

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BanditFeedbackEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bandit_feedback_events_total",
			Help: "Count of recorded recommendation events by event_type.",
		},
		[]string{"event_type"},
	)

	BanditRewardTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bandit_reward_sum_total",
			Help: "Sum of normalised watch-time rewards credited to videos.",
		},
	)
)

func init() {
	prometheus.MustRegister(BanditFeedbackEventsTotal, BanditRewardTotal)
}
