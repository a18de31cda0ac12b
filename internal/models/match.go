package models

// CompatibilityResult is the scored output of pairing two users.
// Computed per request, never stored; only a Connection survives a
// completed session.
type CompatibilityResult struct {
	Score         int      `json:"score"`
	SharedSkills  []string `json:"shared_skills"`
	UniqueSkillsA []string `json:"unique_skills_a"`
	UniqueSkillsB []string `json:"unique_skills_b"`
	SameLocation  bool     `json:"same_location"`
	Icebreaker    string   `json:"icebreaker"`
	Topics        []string `json:"topics"`
}
