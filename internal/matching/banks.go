package matching

// Coarse skill categories used to pick an icebreaker bank. Skills
// without an entry fall through to the "tech" default.
var skillCategories = map[string]string{
	"react":              "tech",
	"vue":                "tech",
	"javascript":         "tech",
	"typescript":         "tech",
	"go":                 "tech",
	"python":             "tech",
	"rust":               "tech",
	"docker":             "tech",
	"kubernetes":         "tech",
	"devops":             "tech",
	"backend":            "tech",
	"frontend":           "tech",
	"figma":              "design",
	"ux":                 "design",
	"ui":                 "design",
	"design":             "design",
	"illustration":       "design",
	"motion design":      "design",
	"branding":           "business",
	"marketing":          "business",
	"sales":              "business",
	"strategy":           "business",
	"finance":            "business",
	"product management": "business",
	"ai":                 "ai",
	"machine learning":   "ai",
	"data science":       "ai",
	"llm":                "ai",
	"prompt engineering": "ai",
	"photography":        "creative",
	"writing":            "creative",
	"copywriting":        "creative",
	"music":              "creative",
	"video":              "creative",
	"content creation":   "creative",
}

// One icebreaker is drawn from the bank of the pair's primary category.
var icebreakerBanks = map[string][]string{
	"tech": {
		"Ask them what they are building right now and what broke last.",
		"Compare stacks: what tool did you adopt this year that stuck?",
		"Ask what side project they would ship if they had a free week.",
	},
	"design": {
		"Ask which product's design they secretly admire and why.",
		"Compare notes on the last design decision a user proved wrong.",
		"Ask what they would redesign in this space if they could.",
	},
	"business": {
		"Ask what market shift they are betting on this year.",
		"Swap stories about the hardest pitch you ever gave.",
		"Ask what they would build if funding were not a constraint.",
	},
	"ai": {
		"Ask where they draw the line between useful AI and a demo.",
		"Compare the most surprising model output you have seen lately.",
		"Ask which workflow of theirs AI actually changed.",
	},
	"creative": {
		"Ask about the last piece of work they were genuinely proud of.",
		"Compare how you each get unstuck when the ideas dry up.",
		"Ask what project they keep postponing and why.",
	},
	"general": {
		"Ask what brought them to this Lab today.",
		"Ask what they are hoping to learn from the people here.",
		"Ask what they are working on that they can talk about.",
	},
}

// Topic prompts keyed by specific shared skills.
var skillTopicBanks = map[string][]string{
	"react":            {"Server components: worth it yet?", "Favourite React state library and why"},
	"go":               {"Generics in Go: where they earn their keep", "Favourite Go concurrency pattern"},
	"python":           {"Notebooks versus real modules", "The Python tooling you actually trust"},
	"typescript":       {"Strictness settings worth fighting for", "Types as documentation"},
	"figma":            {"Design systems that survive handoff", "Prototyping tricks in Figma"},
	"ux":               {"A usability test that changed your mind", "Research on a shoestring"},
	"branding":         {"Brands that rebranded well", "When a brand voice goes wrong"},
	"marketing":        {"Channels that still work in 2026", "Measuring what actually converts"},
	"ai":               {"Agents versus pipelines", "Evaluating model output honestly"},
	"machine learning": {"Features versus foundation models", "The dataset that surprised you"},
	"photography":      {"Gear versus eye", "The photo you waited longest for"},
	"writing":          {"Editing your own work", "Long form in a short form world"},
}

// General topics used to pad the topic list up to three entries.
var generalTopics = []string{
	"What does a great work day look like for you?",
	"Which collaboration tool would you never give up?",
	"What skill are you learning next?",
	"Best piece of career advice you ever ignored?",
	"What would you teach a workshop on?",
	"Remote, hybrid or in a Lab like this one?",
}
