package recommender

import (
	"math"
	"sort"

	"vidShare/domain"
)

// Candidate is a merged video with the scores that decided its rank.
type Candidate struct {
	Video      domain.Video
	Source     string
	Similarity float64
	UCB        float64
	Score      float64
}

// mergeByPriority concatenates generator outputs in the given order, keeping the first
// occurrence of every video.
func mergeByPriority(names []string, lists [][]domain.Video) []Candidate {
	seen := make(map[uint64]struct{})
	var out []Candidate
	for i, list := range lists {
		for _, v := range list {
			if _, dup := seen[v.ID]; dup {
				continue
			}
			seen[v.ID] = struct{}{}
			out = append(out, Candidate{Video: v, Source: names[i]})
		}
	}
	return out
}

// backfill appends unseen videos from fill until merged holds n candidates.
func backfill(merged []Candidate, fill []domain.Video, source string, n int) []Candidate {
	if len(merged) >= n {
		return merged
	}

	seen := make(map[uint64]struct{}, len(merged))
	for _, c := range merged {
		seen[c.Video.ID] = struct{}{}
	}
	for _, v := range fill {
		if len(merged) >= n {
			break
		}
		if _, dup := seen[v.ID]; dup {
			continue
		}
		seen[v.ID] = struct{}{}
		merged = append(merged, Candidate{Video: v, Source: source})
	}
	return merged
}

// AdjustedScore boosts an arm's UCB score by the user's affinity to the video.
// A new arm keeps its infinite score whatever the similarity.
func AdjustedScore(ucb, sim float64) float64 {
	if math.IsInf(ucb, 1) {
		return ucb
	}
	return ucb * (1 + sim)
}

// rerank orders candidates by adjusted score, stable on ties so merge priority breaks them.
func rerank(cands []Candidate, stats map[uint64]domain.BanditStats, userVec []float32, vectors map[uint64][]float32, sim func(a, b []float32) float64) {
	for i := range cands {
		c := &cands[i]
		c.UCB = stats[c.Video.ID].Score()
		c.Similarity = sim(userVec, vectors[c.Video.ID])
		c.Score = AdjustedScore(c.UCB, c.Similarity)
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Score > cands[j].Score })
}
