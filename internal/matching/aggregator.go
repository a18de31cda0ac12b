package matching

import (
	"sort"
	"strings"

	"match-service/internal/models"
)

// Aggregate groups the skills of the given presence records and counts
// how many visible people exhibit each one. Records with invisible
// visibility are excluded. Matching is case-insensitive; the display
// name keeps the casing of the first occurrence. The result is ordered
// by descending count, ties broken by first-seen order, so a fixed
// input always yields the same output.
func Aggregate(records []models.PresenceRecord) []models.AggregatedSkill {
	buckets := map[string]*models.AggregatedSkill{}
	var keys []string

	for _, rec := range records {
		if rec.Visibility == models.VisibilityInvisible {
			continue
		}
		seen := map[string]bool{}
		for _, raw := range rec.Skills {
			name := strings.TrimSpace(raw)
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			if seen[key] {
				continue
			}
			seen[key] = true
			b, ok := buckets[key]
			if !ok {
				b = &models.AggregatedSkill{Name: name}
				buckets[key] = b
				keys = append(keys, key)
			}
			b.Count++
			b.UserIDs = append(b.UserIDs, rec.UserID)
		}
	}

	// keys is in first-seen order, so a stable sort by count keeps
	// first-seen order for ties.
	result := make([]models.AggregatedSkill, 0, len(keys))
	for _, key := range keys {
		result = append(result, *buckets[key])
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})
	return result
}
