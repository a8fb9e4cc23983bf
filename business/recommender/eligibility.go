package recommender

import (
	"context"

	"vidShare/domain"
)

// EligibilityChecker decides if a video may be shown to a user.
type EligibilityChecker interface {
	IsEligible(ctx context.Context, userID uint, video domain.Video) bool
}

// PublishedChecker admits published, approved videos to everyone.
type PublishedChecker struct{}

func (PublishedChecker) IsEligible(_ context.Context, _ uint, video domain.Video) bool {
	return video.Eligible()
}
