package testmatches

// Config holds configuration for synthetic match generation.
type Config struct {
	EventsDir      string  // Where <match>.json event files go
	ThreeSixtyDir  string  // Where <match>.json 360 files go
	Matches        int     // Number of matches to generate
	EventsPerMatch int     // Events per match
	FirstMatchID   int     // Id of the first match; the rest follow in order
	Coverage       float64 // Share of events that get a 360 frame
	ShotRate       float64 // Share of possessions that end in a shot
	GoalRate       float64 // Share of shots that are goals
	MissingEvents  int     // Matches written with a 360 file only
	Workers        int     // Number of concurrent writers
	Seed           uint64  // Same seed, same files
}

// DefaultConfig returns a config for a small demo season.
func DefaultConfig() Config {
	return Config{
		EventsDir:      "data/events",
		ThreeSixtyDir:  "data/three-sixty",
		Matches:        10,
		EventsPerMatch: defaultEventsPerMatch,
		FirstMatchID:   defaultFirstMatchID,
		Coverage:       defaultCoverage,
		ShotRate:       defaultShotRate,
		GoalRate:       defaultGoalRate,
		Workers:        1,
		Seed:           1,
	}
}

// Stats holds generation statistics.
type Stats struct {
	Matches       int
	Events        int
	Frames        int
	Shots         int
	Goals         int
	MissingEvents int
}
