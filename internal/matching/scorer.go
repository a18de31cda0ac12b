package matching

import (
	"math"
	"math/rand"
	"strings"
	"sync"

	"match-service/internal/models"
)

// Profile is the scoring input for one side of a pairing. An empty
// LabID means the user is not checked in anywhere.
type Profile struct {
	Skills []string
	LabID  string
}

// Scorer computes pairwise compatibility. The randomness source used
// for icebreaker and topic selection is injected so tests can pin a
// seed and assert exact output.
type Scorer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewScorer builds a Scorer seeded with the given value.
func NewScorer(seed int64) *Scorer {
	return &Scorer{rng: rand.New(rand.NewSource(seed))}
}

// Score computes the compatibility of two users. It never fails:
// empty skill lists or missing locations just produce a lower score
// and generic prompts. The numeric score is symmetric in its
// arguments; the display lists are not (shared skills keep a's
// casing).
func (s *Scorer) Score(a, b Profile) models.CompatibilityResult {
	setA := lowerSet(a.Skills)
	setB := lowerSet(b.Skills)

	shared := make([]string, 0, len(a.Skills))
	uniqueA := make([]string, 0, len(a.Skills))
	sharedKeys := make([]string, 0, len(a.Skills))
	for _, skill := range dedupe(a.Skills) {
		key := strings.ToLower(strings.TrimSpace(skill))
		if key == "" {
			continue
		}
		if setB[key] {
			shared = append(shared, skill)
			sharedKeys = append(sharedKeys, key)
		} else {
			uniqueA = append(uniqueA, skill)
		}
	}

	uniqueB := make([]string, 0, len(b.Skills))
	for _, skill := range dedupe(b.Skills) {
		key := strings.ToLower(strings.TrimSpace(skill))
		if key == "" {
			continue
		}
		if !setA[key] {
			uniqueB = append(uniqueB, skill)
		}
	}

	union := map[string]bool{}
	for key := range setA {
		union[key] = true
	}
	for key := range setB {
		union[key] = true
	}

	ratio := 0.0
	if len(union) > 0 {
		ratio = float64(len(shared)) / float64(len(union))
	}

	sameLocation := a.LabID != "" && b.LabID != "" && a.LabID == b.LabID

	raw := ratio*60 + math.Min(float64(len(shared))*5, 20)
	if sameLocation {
		raw += 20
	}
	score := int(math.Round(math.Max(0, math.Min(raw, 100))))

	category := primaryCategory(sharedKeys)

	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CompatibilityResult{
		Score:         score,
		SharedSkills:  shared,
		UniqueSkillsA: uniqueA,
		UniqueSkillsB: uniqueB,
		SameLocation:  sameLocation,
		Icebreaker:    s.pickIcebreaker(category),
		Topics:        s.pickTopics(sharedKeys),
	}
}

// primaryCategory maps each shared skill to its coarse category and
// returns the most frequent one, ties going to the earliest shared
// skill. Defaults to "tech" when nothing matches.
func primaryCategory(sharedKeys []string) string {
	counts := map[string]int{}
	best := "tech"
	bestCount := 0
	for _, key := range sharedKeys {
		cat, ok := skillCategories[key]
		if !ok {
			continue
		}
		counts[cat]++
		if counts[cat] > bestCount {
			best = cat
			bestCount = counts[cat]
		}
	}
	return best
}

func (s *Scorer) pickIcebreaker(category string) string {
	bank, ok := icebreakerBanks[category]
	if !ok || len(bank) == 0 {
		bank = icebreakerBanks["general"]
	}
	return bank[s.rng.Intn(len(bank))]
}

// pickTopics draws one topic per shared skill that has a specific
// bank, then pads from the general bank until exactly three distinct
// topics are returned.
func (s *Scorer) pickTopics(sharedKeys []string) []string {
	topics := make([]string, 0, 3)
	used := map[string]bool{}

	for _, key := range sharedKeys {
		if len(topics) == 3 {
			break
		}
		bank, ok := skillTopicBanks[key]
		if !ok || len(bank) == 0 {
			continue
		}
		topic := bank[s.rng.Intn(len(bank))]
		if used[topic] {
			continue
		}
		used[topic] = true
		topics = append(topics, topic)
	}

	for len(topics) < 3 {
		topic := generalTopics[s.rng.Intn(len(generalTopics))]
		if used[topic] {
			continue
		}
		used[topic] = true
		topics = append(topics, topic)
	}
	return topics
}

func lowerSet(skills []string) map[string]bool {
	set := make(map[string]bool, len(skills))
	for _, skill := range skills {
		key := strings.ToLower(strings.TrimSpace(skill))
		if key != "" {
			set[key] = true
		}
	}
	return set
}

// dedupe removes case-insensitive duplicates, keeping first
// occurrences and their casing.
func dedupe(skills []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		key := strings.ToLower(strings.TrimSpace(skill))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, skill)
	}
	return out
}
