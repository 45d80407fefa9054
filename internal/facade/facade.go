// Package facade is the single entry point the CLI front end drives: it
// parses "System" / "System/Station" location strings, orchestrates the
// Route Planner and Trade Optimizer in sequence, and renders the result as
// the same stop-by-stop text report the original tool printed. Grounded on
// the original Python's classes.py TripPlanner.plan/location_parse/
// print_route for the pipeline shape and report format, and the teacher's
// api/server.go request-id-per-call idiom (here: a uuid per plan run,
// threaded into every log line for that run) for the ambient logging.
package facade

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"tradelane/internal/logger"
	"tradelane/internal/planerr"
	"tradelane/internal/provider"
	"tradelane/internal/routeplan"
	"tradelane/internal/tradeplan"
)

// Location is a parsed "System" or "System/Station" string.
type Location struct {
	System  string
	Station string
}

// ParseLocation splits on the first "/" only: the leading part is the
// system name, the optional trailing part is a station name pinning that
// endpoint to one specific docking point.
func ParseLocation(raw string) (Location, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), "/", 2)
	system := strings.TrimSpace(parts[0])
	if system == "" {
		return Location{}, planerr.New(planerr.InputInvalid, "location: "+raw)
	}
	loc := Location{System: system}
	if len(parts) > 1 {
		loc.Station = strings.TrimSpace(parts[1])
	}
	return loc, nil
}

// Params are the facade's resolved inputs, gathered from the CLI surface
// (SPEC_FULL.md §4.6/§6).
type Params struct {
	Origin       string
	Destination  string
	JumpCapacity float64
	MinHop       int
	Deviation    float64
	CargoSpace   int64
	MinRange     float64
}

// Result is the full output of one plan: the per-section routes (in path
// order) plus the run identifier used in the log lines for this run.
type Result struct {
	RunID    string
	Sections []tradeplan.SectionRoute
}

// Plan runs Parse -> RoutePlan -> SectionPlan x N. DataMissing, NoRoute, and
// InputInvalid are fatal (returned as an error, no partial Result); NoTrade
// is per-section and surfaces as a SectionRoute with no Legs, rendered as a
// placeholder line by Render rather than aborting the whole plan.
func Plan(ctx context.Context, p provider.DataProvider, params Params) (*Result, error) {
	originLoc, err := ParseLocation(params.Origin)
	if err != nil {
		return nil, err
	}
	destLoc, err := ParseLocation(params.Destination)
	if err != nil {
		return nil, err
	}
	if params.JumpCapacity <= 0 {
		return nil, planerr.New(planerr.InputInvalid, "jumpCapacity must be positive")
	}
	if params.CargoSpace <= 0 {
		return nil, planerr.New(planerr.InputInvalid, "cargoSpace must be positive")
	}
	if params.Deviation < 0 {
		return nil, planerr.New(planerr.InputInvalid, "deviation must not be negative")
	}
	if params.MinRange < 0 {
		return nil, planerr.New(planerr.InputInvalid, "minRange must not be negative")
	}

	runID := uuid.NewString()
	logger.Info("FACADE", fmt.Sprintf("[%s] planning %s -> %s", runID, originLoc.System, destLoc.System))

	systemPath, rb, err := routeplan.Plan(ctx, p, routeplan.Params{
		Origin:       originLoc.System,
		Destination:  destLoc.System,
		JumpCapacity: params.JumpCapacity,
		MinRange:     params.MinRange,
		Calculate:    params.MinHop > 0,
	})
	if err != nil {
		err = classifyProviderErr("route planning", err)
		logger.Error("FACADE", fmt.Sprintf("[%s] route planning failed: %v", runID, err))
		return nil, err
	}
	logger.Success("FACADE", fmt.Sprintf("[%s] route planned: %d stops", runID, len(systemPath)))

	sections, err := tradeplan.Plan(ctx, p, rb, systemPath, tradeplan.Params{
		MinHop:        params.MinHop,
		Deviation:     params.Deviation,
		JumpCapacity:  params.JumpCapacity,
		CargoSpace:    params.CargoSpace,
		OriginStation: originLoc.Station,
		DestStation:   destLoc.Station,
	})
	if err != nil {
		err = classifyProviderErr("trade planning", err)
		logger.Error("FACADE", fmt.Sprintf("[%s] trade planning failed: %v", runID, err))
		return nil, err
	}

	return &Result{RunID: runID, Sections: sections}, nil
}

// classifyProviderErr tags an error surfacing from the Route Planner or
// Trade Optimizer as DataMissing if it isn't already a *planerr.Error (a
// raw I/O failure from the DataProvider, e.g. a shard file that failed to
// open or decode). Errors already classified upstream (NoRoute from the
// BFS, DataMissing from a missing coord/station lookup) pass through
// unchanged so their kind isn't overwritten at this boundary.
func classifyProviderErr(op string, err error) error {
	var pe *planerr.Error
	if stderrors.As(err, &pe) {
		return err
	}
	return planerr.Wrap(planerr.DataMissing, op, err)
}

// Render prints the plan the way the original tool did: every stop on its
// own line, a "Profit: n" line under every non-first stop, and a "BUY name
// xcount" line per item under every non-terminal stop. A section with no
// positive-profit route renders as a "No Route found" placeholder.
func Render(result *Result) string {
	var b strings.Builder
	for _, sec := range result.Sections {
		b.WriteString(renderSection(sec))
	}
	return b.String()
}

func renderSection(sec tradeplan.SectionRoute) string {
	if sec.Legs == nil {
		return fmt.Sprintf("No Route found for %s to %s\n", sec.FromSystemName, sec.ToSystemName)
	}

	stops := strings.Split(sec.RouteName, " -> ")
	var b strings.Builder
	var previousProfit float64

	for id, stop := range stops {
		b.WriteString(stop)
		b.WriteString("\n")
		if id > 0 {
			fmt.Fprintf(&b, "  Profit: %s\n", humanize.Commaf(previousProfit))
		}
		if id < len(stops)-1 {
			previousProfit = 0
			if id < len(sec.Legs) {
				for _, item := range sec.Legs[id].Items {
					fmt.Fprintf(&b, "   BUY %s x%d \n", item.Name, item.Count)
					previousProfit += item.Profit
				}
			}
		}
	}
	return b.String()
}
