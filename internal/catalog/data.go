package catalog

var seedCourses = []Course{
	{
		ID:            "react-fundamentals",
		Title:         "React Fundamentals",
		Category:      "Frontend",
		Level:         LevelBeginner,
		DurationLabel: "6h 20m",
		Modules: []Module{
			{ID: "jsx-and-components", Title: "JSX and Components", DurationLabel: "1h 10m"},
			{ID: "state-and-props", Title: "State and Props", DurationLabel: "1h 30m"},
			{ID: "hooks-in-practice", Title: "Hooks in Practice", DurationLabel: "2h 05m"},
			{ID: "rendering-patterns", Title: "Rendering Patterns", DurationLabel: "1h 35m"},
		},
	},
	{
		ID:            "typescript-essentials",
		Title:         "TypeScript Essentials",
		Category:      "Frontend",
		Level:         LevelBeginner,
		DurationLabel: "5h 45m",
		Modules: []Module{
			{ID: "types-and-interfaces", Title: "Types and Interfaces", DurationLabel: "1h 25m"},
			{ID: "generics", Title: "Generics", DurationLabel: "1h 40m"},
			{ID: "narrowing", Title: "Narrowing and Guards", DurationLabel: "1h 20m"},
			{ID: "tooling", Title: "Compiler and Tooling", DurationLabel: "1h 20m"},
		},
	},
	{
		ID:            "advanced-react-patterns",
		Title:         "Advanced React Patterns",
		Category:      "Frontend",
		Level:         LevelAdvanced,
		DurationLabel: "7h 10m",
		Modules: []Module{
			{ID: "compound-components", Title: "Compound Components", DurationLabel: "1h 50m"},
			{ID: "render-props", Title: "Render Props and Slots", DurationLabel: "1h 40m"},
			{ID: "concurrent-ui", Title: "Concurrent UI", DurationLabel: "2h 00m"},
			{ID: "performance-tuning", Title: "Performance Tuning", DurationLabel: "1h 40m"},
		},
	},
	{
		ID:            "node-api-design",
		Title:         "Node API Design",
		Category:      "Backend",
		Level:         LevelIntermediate,
		DurationLabel: "6h 50m",
		Modules: []Module{
			{ID: "rest-foundations", Title: "REST Foundations", DurationLabel: "1h 30m"},
			{ID: "auth-and-sessions", Title: "Auth and Sessions", DurationLabel: "1h 55m"},
			{ID: "data-modeling", Title: "Data Modeling", DurationLabel: "1h 45m"},
			{ID: "deployment", Title: "Deployment", DurationLabel: "1h 40m"},
		},
	},
	{
		ID:            "postgres-for-developers",
		Title:         "Postgres for Developers",
		Category:      "Backend",
		Level:         LevelIntermediate,
		DurationLabel: "5h 30m",
		Modules: []Module{
			{ID: "schema-design", Title: "Schema Design", DurationLabel: "1h 30m"},
			{ID: "indexes-and-plans", Title: "Indexes and Query Plans", DurationLabel: "2h 00m"},
			{ID: "transactions", Title: "Transactions", DurationLabel: "2h 00m"},
		},
	},
	{
		ID:            "distributed-systems-primer",
		Title:         "Distributed Systems Primer",
		Category:      "Backend",
		Level:         LevelAdvanced,
		DurationLabel: "8h 15m",
		Modules: []Module{
			{ID: "consistency-models", Title: "Consistency Models", DurationLabel: "2h 10m"},
			{ID: "consensus", Title: "Consensus", DurationLabel: "2h 20m"},
			{ID: "failure-modes", Title: "Failure Modes", DurationLabel: "1h 55m"},
			{ID: "observability", Title: "Observability", DurationLabel: "1h 50m"},
		},
	},
	{
		ID:            "product-discovery",
		Title:         "Product Discovery",
		Category:      "Product",
		Level:         LevelBeginner,
		DurationLabel: "4h 40m",
		Modules: []Module{
			{ID: "user-interviews", Title: "User Interviews", DurationLabel: "1h 20m"},
			{ID: "opportunity-mapping", Title: "Opportunity Mapping", DurationLabel: "1h 30m"},
			{ID: "experiment-design", Title: "Experiment Design", DurationLabel: "1h 50m"},
		},
	},
	{
		ID:            "executive-storytelling",
		Title:         "Executive Storytelling",
		Category:      "Leadership",
		Level:         LevelIntermediate,
		DurationLabel: "3h 55m",
		Modules: []Module{
			{ID: "narrative-structure", Title: "Narrative Structure", DurationLabel: "1h 15m"},
			{ID: "data-storytelling", Title: "Data Storytelling", DurationLabel: "1h 20m"},
			{ID: "the-executive-recap", Title: "The Executive Recap", DurationLabel: "1h 20m"},
		},
	},
	{
		ID:            "systems-design-interviews",
		Title:         "Systems Design Interviews",
		Category:      "Career",
		Level:         LevelAdvanced,
		DurationLabel: "6h 05m",
		Modules: []Module{
			{ID: "framing-the-problem", Title: "Framing the Problem", DurationLabel: "1h 30m"},
			{ID: "capacity-estimation", Title: "Capacity Estimation", DurationLabel: "1h 25m"},
			{ID: "tradeoff-talk", Title: "Trade-off Talk", DurationLabel: "1h 35m"},
			{ID: "mock-rounds", Title: "Mock Rounds", DurationLabel: "1h 35m"},
		},
	},
}

var seedPaths = []Path{
	{
		ID:    "frontend-engineer",
		Title: "Frontend Engineer",
		Stages: []Stage{
			{ID: "foundations", Title: "Foundations", CourseIDs: []string{"react-fundamentals", "typescript-essentials"}},
			{ID: "mastery", Title: "Mastery", CourseIDs: []string{"advanced-react-patterns"}},
		},
	},
	{
		ID:    "backend-engineer",
		Title: "Backend Engineer",
		Stages: []Stage{
			{ID: "foundations", Title: "Foundations", CourseIDs: []string{"node-api-design", "postgres-for-developers"}},
			{ID: "scale", Title: "Scale", CourseIDs: []string{"distributed-systems-primer"}},
		},
	},
	{
		ID:    "staff-track",
		Title: "Staff Track",
		Elite: true,
		Stages: []Stage{
			{ID: "influence", Title: "Influence", CourseIDs: []string{"executive-storytelling", "product-discovery"}},
			{ID: "depth", Title: "Depth", CourseIDs: []string{"distributed-systems-primer", "systems-design-interviews"}},
		},
	},
}

var seedMentors = []Mentor{
	{ID: "mentor-noor", Name: "Noor Abdi", Specialty: "Frontend architecture"},
	{ID: "mentor-dele", Name: "Dele Akande", Specialty: "Distributed systems"},
	{ID: "mentor-wanjiru", Name: "Wanjiru Maina", Specialty: "Career growth"},
	{ID: "mentor-sefu", Name: "Sefu Otieno", Specialty: "Product leadership"},
}

var seedScenes = []Scene{
	{
		ID:    "scene-incident-review",
		Title: "Incident Review War Room",
		Cues: []SceneCue{
			{ID: "cue-timeline", Label: "Reconstruct the timeline", Stage: "orient", FacilitatorCue: "Walk the group through the paging history.", SuccessSignal: "Shared timeline agreed by all participants."},
			{ID: "cue-blameless", Label: "Hold the blameless line", Stage: "discuss", FacilitatorCue: "Redirect 'who' questions to 'what allowed this'.", SuccessSignal: "Contributing factors named without attribution."},
			{ID: "cue-actions", Label: "Commit to actions", Stage: "close", FacilitatorCue: "Push for owners and dates on every follow-up.", SuccessSignal: "Every action item has an owner."},
		},
	},
	{
		ID:    "scene-design-critique",
		Title: "Design Critique Studio",
		Cues: []SceneCue{
			{ID: "cue-context", Label: "Set the context", Stage: "orient", FacilitatorCue: "Have the presenter state the decision they need.", SuccessSignal: "The group can restate the goal."},
			{ID: "cue-probe", Label: "Probe the constraints", Stage: "discuss", FacilitatorCue: "Ask what was already ruled out and why.", SuccessSignal: "At least two alternatives examined."},
			{ID: "cue-converge", Label: "Converge", Stage: "close", FacilitatorCue: "Summarize points of agreement before dissent.", SuccessSignal: "A recommendation the presenter accepts."},
		},
	},
	{
		ID:    "scene-board-pitch",
		Title: "Board Pitch Rehearsal",
		Cues: []SceneCue{
			{ID: "cue-hook", Label: "Land the opening", Stage: "orient", FacilitatorCue: "Cut the throat-clearing, open with the ask.", SuccessSignal: "The ask is stated in the first minute."},
			{ID: "cue-objections", Label: "Survive objections", Stage: "discuss", FacilitatorCue: "Play the skeptical board member.", SuccessSignal: "Three objections answered without notes."},
			{ID: "cue-recap", Label: "Close with the recap", Stage: "close", FacilitatorCue: "End on the one-slide executive recap.", SuccessSignal: "Recap fits in ninety seconds."},
		},
	},
}
