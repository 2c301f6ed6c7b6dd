// Package rank orders classification records into topic lists.
package rank

import (
	"sort"

	"semclass/internal/domain"
)

// Rank deduplicates records by value, keeping the highest score seen for each value, and
// returns at most limit topics ordered by score descending. Records without a score are
// dropped. Equal scores keep the order in which their values first appeared.
func Rank(records []domain.ScoredRecord, limit int) []domain.RankedTopic {
	if limit <= 0 {
		return []domain.RankedTopic{}
	}

	topics := make([]domain.RankedTopic, 0, len(records))
	index := make(map[string]int, len(records))
	for _, rec := range records {
		if rec.Score == nil {
			continue
		}
		score := *rec.Score
		if i, ok := index[rec.Value]; ok {
			if score > topics[i].Score {
				topics[i].Score = score
			}
			continue
		}
		index[rec.Value] = len(topics)
		topics = append(topics, domain.RankedTopic{Topic: rec.Value, Score: score})
	}

	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].Score > topics[j].Score
	})

	if len(topics) > limit {
		topics = topics[:limit]
	}
	return topics
}

// Category ranks the records of one category of pr.
func Category(pr *domain.ParsedResult, category string, limit int) []domain.RankedTopic {
	if pr == nil {
		return []domain.RankedTopic{}
	}
	return Rank(pr.Categories.Records(category), limit)
}

// Top lists scored records across every category by score descending, without
// deduplication, truncated to limit.
func Top(pr *domain.ParsedResult, limit int) []domain.CategorizedTopic {
	out := []domain.CategorizedTopic{}
	if pr == nil || limit <= 0 {
		return out
	}
	for _, name := range pr.Categories.Names() {
		for _, rec := range pr.Categories.Records(name) {
			if rec.Score == nil {
				continue
			}
			out = append(out, domain.CategorizedTopic{
				Category: name,
				Value:    rec.Value,
				Score:    *rec.Score,
				ID:       rec.ID,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
