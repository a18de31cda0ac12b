package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreRoasteryScenario(t *testing.T) {
	s := NewScorer(1)
	a := Profile{Skills: []string{"React", "Figma"}, LabID: "roastery"}
	b := Profile{Skills: []string{"React", "Branding"}, LabID: "roastery"}

	result := s.Score(a, b)

	assert.Equal(t, []string{"React"}, result.SharedSkills)
	assert.Equal(t, []string{"Figma"}, result.UniqueSkillsA)
	assert.Equal(t, []string{"Branding"}, result.UniqueSkillsB)
	assert.True(t, result.SameLocation)
	// overlap 1/3 * 60 = 20, shared bonus 5, location 20
	assert.Equal(t, 45, result.Score)
	assert.Len(t, result.Topics, 3)
	assert.NotEmpty(t, result.Icebreaker)
}

func TestScoreBoundsAndSymmetry(t *testing.T) {
	s := NewScorer(42)
	pairs := []struct{ a, b Profile }{
		{Profile{}, Profile{}},
		{Profile{Skills: []string{"Go"}}, Profile{}},
		{Profile{Skills: []string{"Go", "React", "UX"}, LabID: "l1"}, Profile{Skills: []string{"go", "react", "ux"}, LabID: "l1"}},
		{Profile{Skills: []string{"A", "B", "C"}, LabID: "l1"}, Profile{Skills: []string{"C", "D"}, LabID: "l2"}},
	}
	for _, pair := range pairs {
		ab := s.Score(pair.a, pair.b)
		ba := s.Score(pair.b, pair.a)
		assert.GreaterOrEqual(t, ab.Score, 0)
		assert.LessOrEqual(t, ab.Score, 100)
		assert.Equal(t, ab.Score, ba.Score)
	}
}

func TestScoreIdenticalColocatedIsMaximal(t *testing.T) {
	s := NewScorer(7)
	a := Profile{Skills: []string{"Go"}, LabID: "L"}
	result := s.Score(a, a)
	// ratio 1 -> 60, shared bonus 5, location 20
	assert.Equal(t, 85, result.Score)
}

func TestScoreSameLocationBonus(t *testing.T) {
	s := NewScorer(3)
	colocated := s.Score(
		Profile{Skills: []string{"x"}, LabID: "L"},
		Profile{Skills: []string{"x"}, LabID: "L"},
	)
	apart := s.Score(
		Profile{Skills: []string{"x"}, LabID: "L"},
		Profile{Skills: []string{"x"}, LabID: "M"},
	)
	assert.Greater(t, colocated.Score, apart.Score)
}

func TestScoreMissingLocationIsNotSame(t *testing.T) {
	s := NewScorer(3)
	result := s.Score(
		Profile{Skills: []string{"x"}},
		Profile{Skills: []string{"x"}},
	)
	assert.False(t, result.SameLocation)
}

func TestScoreSharedSkillBeatsNoOverlap(t *testing.T) {
	s := NewScorer(9)
	disjoint := s.Score(
		Profile{Skills: []string{"Go", "UX"}, LabID: "L"},
		Profile{Skills: []string{"Sales", "Music"}, LabID: "M"},
	)
	overlapping := s.Score(
		Profile{Skills: []string{"Go", "UX"}, LabID: "L"},
		Profile{Skills: []string{"Go", "Music"}, LabID: "M"},
	)
	assert.Less(t, disjoint.Score, overlapping.Score)
}

func TestScoreEmptyInputsDegradeGracefully(t *testing.T) {
	s := NewScorer(11)
	result := s.Score(Profile{}, Profile{})

	assert.Equal(t, 0, result.Score)
	assert.Empty(t, result.SharedSkills)
	assert.Empty(t, result.UniqueSkillsA)
	assert.Empty(t, result.UniqueSkillsB)
	assert.False(t, result.SameLocation)
	assert.NotEmpty(t, result.Icebreaker)
	require.Len(t, result.Topics, 3)
	for i, topic := range result.Topics {
		for j := i + 1; j < len(result.Topics); j++ {
			assert.NotEqual(t, topic, result.Topics[j])
		}
	}
}

func TestScoreTopicsAlwaysThreeAndDistinct(t *testing.T) {
	s := NewScorer(5)
	result := s.Score(
		Profile{Skills: []string{"React", "Go", "Figma", "AI"}, LabID: "L"},
		Profile{Skills: []string{"react", "go", "figma", "ai"}, LabID: "L"},
	)
	require.Len(t, result.Topics, 3)
	seen := map[string]bool{}
	for _, topic := range result.Topics {
		assert.False(t, seen[topic])
		seen[topic] = true
	}
}

func TestScoreDeterministicForFixedSeed(t *testing.T) {
	a := Profile{Skills: []string{"React", "Figma"}, LabID: "roastery"}
	b := Profile{Skills: []string{"React", "Branding"}, LabID: "roastery"}

	first := NewScorer(99).Score(a, b)
	second := NewScorer(99).Score(a, b)
	assert.Equal(t, first, second)
}

func TestScoreCasingFromFirstArgument(t *testing.T) {
	s := NewScorer(2)
	result := s.Score(
		Profile{Skills: []string{"REACT"}, LabID: "L"},
		Profile{Skills: []string{"react"}, LabID: "L"},
	)
	assert.Equal(t, []string{"REACT"}, result.SharedSkills)
}

func TestPrimaryCategory(t *testing.T) {
	assert.Equal(t, "tech", primaryCategory(nil))
	assert.Equal(t, "tech", primaryCategory([]string{"underwater basket weaving"}))
	assert.Equal(t, "design", primaryCategory([]string{"figma", "ux", "go"}))
	// ties go to the earliest shared skill's category
	assert.Equal(t, "ai", primaryCategory([]string{"ai", "figma"}))
}

func TestScoreSharedBonusCapped(t *testing.T) {
	skills := []string{"a", "b", "c", "d", "e", "f"}
	s := NewScorer(4)
	result := s.Score(
		Profile{Skills: skills, LabID: "L"},
		Profile{Skills: skills, LabID: "L"},
	)
	// ratio 1 -> 60, shared bonus capped at 20, location 20
	assert.Equal(t, 100, result.Score)
}
