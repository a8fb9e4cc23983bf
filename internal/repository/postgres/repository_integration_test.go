//go:build integration

package postgres

import (
	"context"
	"fmt"
	"math"
	"os"
	"testing"
	"time"

	"vidShare/domain"
	"vidShare/pkg/database"

	"github.com/pgvector/pgvector-go"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testDim = 4

// newTestDB opens POSTGRES_DSN and migrates a private schema inside a transaction that is
// rolled back when the test ends.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}

	db, err := gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}

	tx := db.Begin()
	schema := fmt.Sprintf("vidshare_test_%d", time.Now().UnixNano())
	if err := tx.Exec("CREATE SCHEMA " + schema).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	if err := tx.Exec("SET LOCAL search_path TO " + schema + ", public").Error; err != nil {
		t.Fatalf("search_path: %v", err)
	}
	if err := database.Migrate(tx, testDim); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		tx.Rollback()
		_ = sqlDB.Close()
	})
	return tx
}

var seedNow = time.Now().UTC().Truncate(time.Second)

func mustExec(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

// seedCatalog loads a small catalogue shared by the query tests:
//
//	video 1: 100 views, 2 days old, category 10
//	video 2: 5 views, 3 days old, categories 10 and 20
//	video 3: 10000 views, 20 days old, category 20
//	video 4: unpublished, categories 10 and 20
//	video 5: 50 views, 1 day old
//
// user 7 watched 1 (120s and 30s), 2 (90s) and 5 (10s), liked 2 and commented on 5.
// user 8 watched 1 and 2, user 9 watched 1, user 10 watched 1, 2 and 5.
func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	video := func(id uint64, views int64, age int, published bool) domain.Video {
		return domain.Video{
			ID:               id,
			Title:            fmt.Sprintf("video %d", id),
			CreatorID:        1,
			Views:            views,
			IsPublished:      published,
			ModerationStatus: domain.ModerationApproved,
			CreatedAt:        seedNow.AddDate(0, 0, -age),
		}
	}
	videos := []domain.Video{
		video(1, 100, 2, true),
		video(2, 5, 3, true),
		video(3, 10000, 20, true),
		video(4, 900, 1, false),
		video(5, 50, 1, true),
	}
	mustExec(t, db.Create(&videos).Error)
	mustExec(t, db.Create(&[]domain.Category{{ID: 10, Name: "food"}, {ID: 20, Name: "travel"}}).Error)
	mustExec(t, db.Exec(`INSERT INTO video_categories (video_id, category_id) VALUES
		(1, 10), (2, 10), (2, 20), (3, 20), (4, 10), (4, 20)`).Error)

	views := []domain.VideoView{
		{UserID: 7, VideoID: 1, ViewTime: 120},
		{UserID: 7, VideoID: 1, ViewTime: 30},
		{UserID: 7, VideoID: 2, ViewTime: 90},
		{UserID: 7, VideoID: 5, ViewTime: 10},
		{UserID: 8, VideoID: 1, ViewTime: 20},
		{UserID: 8, VideoID: 2, ViewTime: 20},
		{UserID: 9, VideoID: 1, ViewTime: 20},
		{UserID: 10, VideoID: 1, ViewTime: 20},
		{UserID: 10, VideoID: 2, ViewTime: 20},
		{UserID: 10, VideoID: 5, ViewTime: 20},
	}
	mustExec(t, db.Create(&views).Error)
	mustExec(t, db.Create(&domain.Like{UserID: 7, VideoID: 2}).Error)
	mustExec(t, db.Create(&domain.Comment{UserID: 7, VideoID: 5, Body: "nice"}).Error)
}

func equalUint64s(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestVideosInCategoriesCutsPoolByScore(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	repo := NewVideoRepository(db)
	ctx := context.Background()

	// scores: video 3 = 10 + 100, video 2 = 20 + 0.05, video 1 = 10 + 1
	top, err := repo.VideosInCategories(ctx, []uint64{10, 20}, nil, 1)
	if err != nil {
		t.Fatalf("VideosInCategories: %v", err)
	}
	if len(top) != 1 || top[0].Video.ID != 3 || top[0].Count != 1 {
		t.Fatalf("got %+v, want video 3 with one match", top)
	}

	all, err := repo.VideosInCategories(ctx, []uint64{10, 20}, []uint64{1}, 10)
	if err != nil {
		t.Fatalf("VideosInCategories: %v", err)
	}
	var got []uint64
	for _, c := range all {
		got = append(got, c.Video.ID)
	}
	if !equalUint64s(got, []uint64{3, 2}) {
		t.Fatalf("got %v, want [3 2] without excluded or unpublished videos", got)
	}
}

func TestTopCategoryIDs(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)

	got, err := NewVideoRepository(db).TopCategoryIDs(context.Background(), 7, 5)
	if err != nil {
		t.Fatalf("TopCategoryIDs: %v", err)
	}
	if !equalUint64s(got, []uint64{10, 20}) {
		t.Fatalf("got %v, want [10 20]", got)
	}
}

func TestCoWatchNeighboursAndTheirVideos(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	repo := NewVideoRepository(db)
	ctx := context.Background()

	neighbours, err := repo.CoWatchNeighbours(ctx, 7, 2, 20)
	if err != nil {
		t.Fatalf("CoWatchNeighbours: %v", err)
	}
	if len(neighbours) != 2 || neighbours[0] != 10 || neighbours[1] != 8 {
		t.Fatalf("got %v, want [10 8]", neighbours)
	}

	watched, err := repo.WatchedByUsers(ctx, neighbours, []uint64{1}, 10)
	if err != nil {
		t.Fatalf("WatchedByUsers: %v", err)
	}
	if len(watched) != 2 || watched[0].Video.ID != 2 || watched[0].Count != 2 || watched[1].Video.ID != 5 {
		t.Fatalf("got %+v, want video 2 (2 users) then video 5", watched)
	}
}

func TestLongWatchedVideoIDs(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)

	got, err := NewVideoRepository(db).LongWatchedVideoIDs(context.Background(), 7, 60, 10)
	if err != nil {
		t.Fatalf("LongWatchedVideoIDs: %v", err)
	}
	if !equalUint64s(got, []uint64{1, 2}) {
		t.Fatalf("got %v, want [1 2]", got)
	}
}

func TestTrendingAndMostViewed(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	repo := NewVideoRepository(db)
	ctx := context.Background()

	trending, err := repo.TrendingSince(ctx, seedNow.AddDate(0, 0, -7), 10)
	if err != nil {
		t.Fatalf("TrendingSince: %v", err)
	}
	var got []uint64
	for _, v := range trending {
		got = append(got, v.ID)
	}
	if !equalUint64s(got, []uint64{1, 2, 5}) {
		t.Fatalf("trending = %v, want [1 2 5]", got)
	}

	viewed, err := repo.MostViewed(ctx, []uint64{3}, 10)
	if err != nil {
		t.Fatalf("MostViewed: %v", err)
	}
	got = got[:0]
	for _, v := range viewed {
		got = append(got, v.ID)
	}
	if !equalUint64s(got, []uint64{1, 5, 2}) {
		t.Fatalf("most viewed = %v, want [1 5 2]", got)
	}
}

func TestTopInteractions(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)

	// weights: video 2 = 5 + 90/60, video 5 = 3 + 10/60, video 1 = 150/60
	got, err := NewVideoRepository(db).TopInteractions(context.Background(), 7, 20)
	if err != nil {
		t.Fatalf("TopInteractions: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %+v, want 3 videos", got)
	}
	if got[0].VideoID != 2 || got[0].Likes != 1 || got[0].WatchSeconds != 90 {
		t.Fatalf("first = %+v, want video 2 with one like and 90s", got[0])
	}
	if got[1].VideoID != 5 || got[1].Comments != 1 {
		t.Fatalf("second = %+v, want video 5 with one comment", got[1])
	}
	if got[2].VideoID != 1 || got[2].WatchSeconds != 150 {
		t.Fatalf("third = %+v, want video 1 with 150s", got[2])
	}
}

func TestActiveUserIDs(t *testing.T) {
	db := newTestDB(t)
	recent := seedNow.AddDate(0, 0, -1)
	stale := seedNow.AddDate(0, 0, -40)
	users := []domain.User{
		{ID: 7, Username: "recent", LastLogin: &recent},
		{ID: 8, Username: "stale", LastLogin: &stale},
		{ID: 9, Username: "never"},
	}
	mustExec(t, db.Create(&users).Error)

	got, err := NewUserRepository(db).ActiveUserIDs(context.Background(), seedNow.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("ActiveUserIDs: %v", err)
	}
	if len(got) != 1 || got[0] != 7 {
		t.Fatalf("got %v, want [7]", got)
	}
}

func TestEmbeddingUpsertAndNearest(t *testing.T) {
	db := newTestDB(t)
	repo := NewEmbeddingRepository(db)
	ctx := context.Background()

	mustExec(t, repo.Upsert(ctx, domain.ContentVideo, 1, []float32{1, 0, 0, 0}))
	mustExec(t, repo.Upsert(ctx, domain.ContentVideo, 2, []float32{0, 1, 0, 0}))
	mustExec(t, repo.Upsert(ctx, domain.ContentPost, 1, []float32{1, 0, 0, 0}))

	hits, err := repo.Nearest(ctx, []float32{1, 0.1, 0, 0}, []domain.ContentKind{domain.ContentVideo}, 5)
	if err != nil {
		t.Fatalf("Nearest: %v", err)
	}
	if len(hits) != 2 || hits[0].ID != 1 || hits[0].Kind != domain.ContentVideo {
		t.Fatalf("got %+v, want video 1 first and no posts", hits)
	}
	if hits[0].Score <= hits[1].Score || math.Abs(hits[0].Score-0.995) > 0.01 {
		t.Fatalf("scores = %v, %v", hits[0].Score, hits[1].Score)
	}

	// last writer wins
	mustExec(t, repo.Upsert(ctx, domain.ContentVideo, 2, []float32{0, 0, 1, 0}))
	row, ok, err := repo.Get(ctx, domain.ContentVideo, 2)
	if err != nil || !ok {
		t.Fatalf("Get: %v, found %v", err, ok)
	}
	if !equalVectors(row.Vector, pgvector.NewVector([]float32{0, 0, 1, 0})) {
		t.Fatalf("vector = %v, want the second write", row.Vector.Slice())
	}
}

func equalVectors(a, b pgvector.Vector) bool {
	x, y := a.Slice(), b.Slice()
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

func TestBanditUpdateCreatesAndCountsRows(t *testing.T) {
	db := newTestDB(t)
	repo := NewBanditRepository(db)
	ctx := context.Background()

	if _, err := repo.GetOrCreateMany(ctx, []uint64{1, 2}); err != nil {
		t.Fatalf("GetOrCreateMany: %v", err)
	}

	var seenTotal int64
	stats, err := repo.Update(ctx, 3, func(s *domain.BanditStats, total int64) {
		seenTotal = total
		s.ImpressionCount++
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if stats.ImpressionCount != 1 || seenTotal != 3 {
		t.Fatalf("impressions = %d, total = %d; want 1 and 3", stats.ImpressionCount, seenTotal)
	}

	n, err := repo.CountTracked(ctx)
	if err != nil || n != 3 {
		t.Fatalf("CountTracked = %d, %v", n, err)
	}
}
