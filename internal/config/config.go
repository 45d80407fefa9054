// Package config holds the planning engine's resolved configuration: the
// facade's inputs plus the data directory the provider layer reads from and
// syncs into. Trimmed from the teacher's much larger Config (which also
// carried watchlists, alert routing, and a desktop window layout — none of
// which this tool has: no live monitoring, no alerting, no GUI, per
// SPEC_FULL.md §1 Non-goals).
package config

// PlanConfig is the facade's resolved input for one planning run.
type PlanConfig struct {
	Origin       string  `json:"origin"`
	Destination  string  `json:"destination"`
	JumpCapacity float64 `json:"jump_capacity"`
	MinHop       int     `json:"min_hop"`
	Deviation    float64 `json:"deviation"`
	CargoSpace   int64   `json:"cargo_space"`
	MinRange     float64 `json:"min_range"`

	// DataDir is the directory provider/local reads shard files from, and
	// provider/remote syncs into.
	DataDir string `json:"data_dir"`
}

// Default returns a PlanConfig with the same jump-capacity/cargo defaults
// the original tool's TripPlanner.plan used.
func Default() *PlanConfig {
	return &PlanConfig{
		JumpCapacity: 20,
		MinHop:       1,
		Deviation:    2,
		CargoSpace:   8,
		MinRange:     0,
		DataDir:      "data",
	}
}
