//go:build !integration

package recommender

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"vidShare/domain"
)

func newTestGenerators(c *fakeCatalog, v *fakeVectors) *generators {
	return &generators{videos: c, users: c, vectors: v, now: func() time.Time { return testNow }}
}

func testRequest(user uint, n int) Request {
	return Request{UserID: user, N: n, ExcludeWatched: true, Settings: DefaultSettings()}
}

func TestLikedContentRanksBySimilarityToLikes(t *testing.T) {
	cat := newCatalog(
		published(1, 1, 0, daysAgo(3)), // A, liked
		published(2, 1, 0, daysAgo(2)), // B
		published(3, 1, 0, daysAgo(1)), // C
	)
	cat.likes[7] = []uint64{1}
	vecs := &fakeVectors{videos: map[uint64][]float32{
		1: {1, 0},
		2: {0.9, float32(math.Sqrt(1 - 0.81))},
		3: {0.2, float32(math.Sqrt(1 - 0.04))},
	}}

	got, err := newTestGenerators(cat, vecs).likedContent(context.Background(), testRequest(7, 10))
	if err != nil {
		t.Fatalf("likedContent: %v", err)
	}
	if !equalIDs(ids(got), []uint64{2, 3}) {
		t.Fatalf("got %v, want [2 3]", ids(got))
	}
}

func TestLikedContentWithoutLikesIsEmpty(t *testing.T) {
	cat := newCatalog(published(1, 1, 0, daysAgo(1)))
	got, err := newTestGenerators(cat, &fakeVectors{}).likedContent(context.Background(), testRequest(7, 10))
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v; want empty", ids(got), err)
	}
}

func TestLikedContentScoresNewestPoolOnly(t *testing.T) {
	cat := newCatalog(
		published(1, 1, 0, daysAgo(9)), // liked
		published(2, 1, 0, daysAgo(8)), // closest match, outside the pool
		published(3, 1, 0, daysAgo(2)),
		published(4, 1, 0, daysAgo(1)),
	)
	cat.likes[7] = []uint64{1}
	vecs := &fakeVectors{videos: map[uint64][]float32{
		1: {1, 0},
		2: {1, 0},
		3: {0.6, 0.8},
		4: {0, 1},
	}}

	req := testRequest(7, 10)
	req.Settings.CandidatePoolSize = 2
	got, err := newTestGenerators(cat, vecs).likedContent(context.Background(), req)
	if err != nil {
		t.Fatalf("likedContent: %v", err)
	}
	if !equalIDs(ids(got), []uint64{3, 4}) {
		t.Fatalf("got %v, want the two newest videos [3 4]", ids(got))
	}
}

func TestLongWatchKeepsBestSimilarity(t *testing.T) {
	cat := newCatalog(
		published(1, 1, 0, daysAgo(9)),
		published(2, 1, 0, daysAgo(8)),
		published(3, 1, 0, daysAgo(7)),
		published(4, 1, 0, daysAgo(6)),
		published(5, 1, 0, daysAgo(5)),
	)
	cat.watch(7, 1, 120, daysAgo(1))
	cat.watch(7, 5, 90, daysAgo(1))
	cat.watch(7, 2, 30, daysAgo(1))
	vecs := &fakeVectors{videos: map[uint64][]float32{
		1: {1, 0},
		5: {0, 1},
		3: {0.8, 0.6},
		4: {0.1, 0.995},
	}}

	req := testRequest(7, 10)
	req.Watched = []uint64{1, 2, 5}
	got, err := newTestGenerators(cat, vecs).longWatch(context.Background(), req)
	if err != nil {
		t.Fatalf("longWatch: %v", err)
	}
	if !equalIDs(ids(got), []uint64{4, 3}) {
		t.Fatalf("got %v, want [4 3]", ids(got))
	}
}

func TestCollaborativeRanksByNeighbourCount(t *testing.T) {
	var videos []domain.Video
	for id := uint64(1); id <= 9; id++ {
		videos = append(videos, published(id, 1, 0, daysAgo(int(id))))
	}
	cat := newCatalog(videos...)
	for _, v := range []uint64{1, 2, 3} {
		cat.watch(1, v, 10, daysAgo(1))
	}
	for _, v := range []uint64{1, 2, 7} {
		cat.watch(2, v, 10, daysAgo(1))
	}
	for _, v := range []uint64{1, 2, 3, 7, 8} {
		cat.watch(3, v, 10, daysAgo(1))
	}
	// one shared video is not enough to be a neighbour
	for _, v := range []uint64{1, 9} {
		cat.watch(4, v, 10, daysAgo(1))
	}

	req := testRequest(1, 10)
	req.Watched = []uint64{1, 2, 3}
	got, err := newTestGenerators(cat, &fakeVectors{}).collaborative(context.Background(), req)
	if err != nil {
		t.Fatalf("collaborative: %v", err)
	}
	if !equalIDs(ids(got), []uint64{7, 8}) {
		t.Fatalf("got %v, want [7 8]", ids(got))
	}
}

func TestCategoryAffinity(t *testing.T) {
	cat := newCatalog(
		published(1, 1, 0, daysAgo(1)),
		published(2, 1, 0, daysAgo(1)),
		published(3, 1, 0, daysAgo(1)),
		published(4, 1, 2000, daysAgo(1)),
		published(5, 1, 100, daysAgo(1)),
	)
	cat.videoCats = map[uint64][]uint64{
		1: {10},
		2: {10, 20},
		3: {10, 20},
		4: {10},
		5: {20},
	}
	cat.watch(1, 1, 10, daysAgo(1))
	cat.watch(1, 2, 10, daysAgo(1))

	req := testRequest(1, 10)
	req.Watched = []uint64{1, 2}
	got, err := newTestGenerators(cat, &fakeVectors{}).categoryAffinity(context.Background(), req)
	if err != nil {
		t.Fatalf("categoryAffinity: %v", err)
	}
	// 4: 10 + 20, 3: 20 + 0, 5: 10 + 1
	if !equalIDs(ids(got), []uint64{4, 3, 5}) {
		t.Fatalf("got %v, want [4 3 5]", ids(got))
	}
}

func TestScoringHelpers(t *testing.T) {
	if got := PopularityScore(25000); got != 1 {
		t.Fatalf("PopularityScore(25000) = %v, want 1", got)
	}
	if got := PopularityScore(5000); got != 0.5 {
		t.Fatalf("PopularityScore(5000) = %v, want 0.5", got)
	}
	if got := RecencyScore(daysAgo(90), testNow); got != 0.1 {
		t.Fatalf("RecencyScore(90d) = %v, want floor 0.1", got)
	}
	if got := RecencyScore(daysAgo(15), testNow); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("RecencyScore(15d) = %v, want 0.5", got)
	}
	if got := BlendedScore(1, 0.5, 0.5, 0.3, 0.2); math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("BlendedScore = %v, want 0.75", got)
	}
	if CategoryScore(1, 0) <= CategoryScore(0, 999) {
		t.Fatal("a category match should outweigh 999 views")
	}
}

func TestContentSimilarityPrefersSubscriptionsInPool(t *testing.T) {
	cat := newCatalog(
		published(1, 5, 0, daysAgo(20)), // subscribed, old
		published(2, 6, 0, daysAgo(1)),
		published(3, 6, 0, daysAgo(2)),
	)
	cat.subs[1] = []uint{5}
	g := newTestGenerators(cat, &fakeVectors{})

	req := testRequest(1, 10)
	req.Settings.CandidatePoolSize = 2
	pool, err := g.subscriptionBiasedPool(context.Background(), req)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	if !equalIDs(ids(pool), []uint64{1, 2}) {
		t.Fatalf("pool = %v, want [1 2]", ids(pool))
	}
}

func TestContentSimilarityBlendsSignals(t *testing.T) {
	cat := newCatalog(
		published(1, 5, 0, daysAgo(1)),
		published(2, 6, 10000, daysAgo(1)),
		published(3, 6, 0, daysAgo(1)),
	)
	vecs := &fakeVectors{
		users:  map[uint][]float32{1: {1, 0}},
		videos: map[uint64][]float32{1: {1, 0}, 2: {0, 1}, 3: {0, 1}},
	}

	got, err := newTestGenerators(cat, vecs).contentSimilarity(context.Background(), testRequest(1, 10))
	if err != nil {
		t.Fatalf("contentSimilarity: %v", err)
	}
	// 1: similar, 2: popular, 3: neither
	if !equalIDs(ids(got), []uint64{1, 2, 3}) {
		t.Fatalf("got %v, want [1 2 3]", ids(got))
	}
}

func TestPopularTopsUpWithAllTime(t *testing.T) {
	cat := newCatalog(
		published(1, 1, 10, daysAgo(2)),
		published(2, 1, 10, daysAgo(1)),
		published(3, 1, 5000, daysAgo(30)),
		published(4, 1, 100, daysAgo(60)),
	)
	for i := 0; i < 3; i++ {
		cat.watch(uint(10+i), 1, 10, daysAgo(1))
	}
	cat.watch(20, 2, 10, daysAgo(0))

	got, err := newTestGenerators(cat, &fakeVectors{}).popular(context.Background(), 3)
	if err != nil {
		t.Fatalf("popular: %v", err)
	}
	if !equalIDs(ids(got), []uint64{1, 2, 3}) {
		t.Fatalf("got %v, want [1 2 3]", ids(got))
	}
}

func TestExplorationPrefersRecent(t *testing.T) {
	cat := newCatalog(
		published(1, 1, 0, daysAgo(5)),
		published(2, 1, 0, daysAgo(10)),
		published(3, 1, 0, daysAgo(60)),
		published(4, 1, 0, daysAgo(3)),
	)
	req := testRequest(1, 3)
	req.Watched = []uint64{4}

	got, err := newTestGenerators(cat, &fakeVectors{}).exploration(context.Background(), req)
	if err != nil {
		t.Fatalf("exploration: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %v, want 3 videos", ids(got))
	}
	recent := toSet(ids(got[:2]))
	if !recent[1] || !recent[2] || got[2].ID != 3 {
		t.Fatalf("got %v, want recent 1 and 2 before older 3", ids(got))
	}
}

func TestGeneratorFailureDegradesToEmpty(t *testing.T) {
	g := Generator{Name: "broken", Run: func(context.Context, Request) ([]domain.Video, error) {
		return []domain.Video{{ID: 1}}, errors.New("boom")
	}}
	if got := g.Generate(context.Background(), testRequest(1, 5)); len(got) != 0 {
		t.Fatalf("got %v, want empty", ids(got))
	}
}

func TestGenerateTruncates(t *testing.T) {
	g := Generator{Name: "many", Run: func(context.Context, Request) ([]domain.Video, error) {
		return []domain.Video{{ID: 1}, {ID: 2}, {ID: 3}}, nil
	}}
	if got := g.Generate(context.Background(), testRequest(1, 2)); !equalIDs(ids(got), []uint64{1, 2}) {
		t.Fatalf("got %v, want [1 2]", ids(got))
	}
}
