// Package tradeplan partitions an ordered system sequence into contiguous
// sections, gathers lateral-deviation candidate systems around each
// section's interior, and picks the highest-profit station-to-station
// cargo manifest per section. Grounded on the original Python's
// classes.py (RouteInfo, TripPlanner.plan_trip) for the algorithm, and the
// teacher's internal/engine/route.go (candidate struct shapes, sort.Slice
// ranking idiom) for Go style.
package tradeplan

import (
	"context"
	"sort"

	"tradelane/internal/planerr"
	"tradelane/internal/provider"
	"tradelane/internal/spatial"
)

// Pick is one commodity chosen for a manifest: the commodity identifier,
// its display name, the count taken, and the profit that count contributes.
type Pick struct {
	CommodityID int64
	Name        string
	Count       int64
	Profit      float64
}

// Leg is one priced station-to-station hop: the commodities picked for it
// and the profit they contribute.
type Leg struct {
	FromSystem  string
	FromStation string
	ToSystem    string
	ToStation   string
	Items       []Pick
	Profit      float64
}

// SectionRoute is the selected route for one section of the overall path:
// a hyphen-arrow label of "System/Station" stops, the leg-by-leg manifests,
// and the total profit. A section with no positive-profit route has Legs
// == nil; the caller renders a "No Route found" placeholder for it.
type SectionRoute struct {
	FromSystemName string
	ToSystemName   string
	RouteName      string
	Legs           []Leg
	TotalProfit    float64
}

// Params are the Trade Optimizer's inputs (SPEC_FULL.md §4.5).
type Params struct {
	MinHop       int
	Deviation    float64
	JumpCapacity float64
	CargoSpace   int64

	// OriginStation / DestStation pin the first/last system to one
	// explicit station (the facade's "System/Station" parse), instead of
	// scanning every market-bearing station at that system.
	OriginStation string
	DestStation   string
}

// Plan sections the given system path and computes the best route for each
// section in turn, threading continuity between sections (the winning
// route's destination station becomes the next section's starting point).
func Plan(ctx context.Context, p provider.DataProvider, rb *spatial.RuntimeDatabase, systemPath []string, params Params) ([]SectionRoute, error) {
	filtered, err := filterAnarchy(ctx, p, rb, systemPath)
	if err != nil {
		return nil, err
	}
	if len(filtered) == 0 {
		return nil, planerr.New(planerr.NoRoute, "no non-anarchy systems on path")
	}

	sections := section(filtered, params.MinHop)

	var results []SectionRoute
	for i, sec := range sections {
		if len(sec) == 0 {
			continue
		}

		first := rb.System(sec[0])
		last := rb.System(sec[len(sec)-1])

		if i == 0 {
			if err := first.MaterializeStations(ctx, p, params.OriginStation); err != nil {
				return nil, err
			}
		} else if len(first.Stations) == 0 {
			if err := first.MaterializeStations(ctx, p, ""); err != nil {
				return nil, err
			}
		}
		isLastSection := i == len(sections)-1
		if isLastSection {
			if err := last.MaterializeStations(ctx, p, params.DestStation); err != nil {
				return nil, err
			}
		} else if len(last.Stations) == 0 {
			if err := last.MaterializeStations(ctx, p, ""); err != nil {
				return nil, err
			}
		}

		deviations, err := gatherDeviations(ctx, p, rb, sec, params.JumpCapacity, params.Deviation)
		if err != nil {
			return nil, err
		}

		route, err := computeRoute(rb, first, last, deviations, params.CargoSpace)
		if err != nil {
			return nil, err
		}
		results = append(results, route)

		// Between-section continuity: splice the next section's first
		// system to an isolated copy pinned to this section's winning
		// toStation.
		if route.Legs != nil && i < len(sections)-1 {
			lastLeg := route.Legs[len(route.Legs)-1]
			continued := last.Copy()
			if err := continued.IsolateStation(lastLeg.ToStation); err != nil {
				return nil, err
			}
			nextSection := sections[i+1]
			rb.Systems[nextSection[0]] = continued
		}
	}

	return results, nil
}

func filterAnarchy(ctx context.Context, p provider.DataProvider, rb *spatial.RuntimeDatabase, systemPath []string) ([]int, error) {
	filtered := make([]int, 0, len(systemPath))
	for _, name := range systemPath {
		idx, ok := rb.Lookup(name)
		if !ok {
			idx = rb.AddSystem(spatial.System{Name: name})
		}
		anarchy, err := p.IsAnarchy(ctx, name)
		if err != nil {
			return nil, err
		}
		if anarchy {
			continue
		}
		filtered = append(filtered, idx)
	}
	return filtered, nil
}

// section partitions a filtered system-index path into minHop contiguous
// slices. Consecutive sections overlap by one system at the boundary, per
// SPEC_FULL.md §4.5: sectionLength = floor(len(path)/minHop); section i is
// path[i*sectionLength : (i+1)*sectionLength+1].
func section(path []int, minHop int) [][]int {
	if minHop <= 1 {
		return [][]int{path}
	}

	sectionLength := len(path) / minHop
	if sectionLength == 0 {
		sectionLength = 1
		minHop = len(path)
	}

	sections := make([][]int, 0, minHop)
	for i := 0; i < minHop; i++ {
		start := i * sectionLength
		end := (i+1)*sectionLength + 1
		if start >= len(path) {
			continue
		}
		if end > len(path) {
			end = len(path)
		}
		sections = append(sections, path[start:end])
	}
	return sections
}

// gatherDeviations materializes every interior system of the section and,
// when deviation > 0, every system within jumpCapacity*deviation of an
// interior system that isn't already an endpoint or deviation candidate.
func gatherDeviations(ctx context.Context, p provider.DataProvider, rb *spatial.RuntimeDatabase, sec []int, jumpCapacity, deviation float64) ([]int, error) {
	if len(sec) < 3 {
		return nil, nil
	}

	interior := sec[1 : len(sec)-1]
	var deviations []int
	seen := map[int]bool{sec[0]: true, sec[len(sec)-1]: true}

	for _, idx := range interior {
		sys := rb.System(idx)
		if err := sys.MaterializeStations(ctx, p, ""); err != nil {
			return nil, err
		}
		if !seen[idx] {
			seen[idx] = true
			deviations = append(deviations, idx)
		}
	}

	if deviation <= 0 {
		return deviations, nil
	}
	deviationRadius := jumpCapacity * deviation

	for _, idx := range interior {
		sys := rb.System(idx)
		nearby, err := rb.SystemsInRadius(ctx, sys.Coords, deviationRadius, 0, false)
		if err != nil {
			return nil, err
		}
		for _, nearIdx := range nearby {
			if seen[nearIdx] {
				continue
			}
			seen[nearIdx] = true
			nearSys := rb.System(nearIdx)
			if err := nearSys.MaterializeStations(ctx, p, ""); err != nil {
				return nil, err
			}
			deviations = append(deviations, nearIdx)
		}
	}
	return deviations, nil
}

// computeRoute is the Leg Selection step (SPEC_FULL.md §4.5): direct
// routes between the section endpoints, deviated two-hop routes through
// each deviation candidate, and the 3x-profit gate between them.
func computeRoute(rb *spatial.RuntimeDatabase, from, to *spatial.System, deviations []int, cargoSpace int64) (SectionRoute, error) {
	result := SectionRoute{FromSystemName: from.Name, ToSystemName: to.Name}

	directName, directLeg := bestDirect(from, to, cargoSpace)
	result.RouteName = directName
	if directLeg != nil {
		result.Legs = []Leg{*directLeg}
		result.TotalProfit = directLeg.Profit
	}

	deviatedName, deviatedLegs, deviatedProfit := bestDeviated(rb, from, to, deviations, cargoSpace)
	if deviatedLegs != nil {
		if directLeg == nil || deviatedProfit > directLeg.Profit*3 {
			result.RouteName = deviatedName
			result.Legs = deviatedLegs
			result.TotalProfit = deviatedProfit
		}
	}

	return result, nil
}

// bestDirect computes the highest-profit station pair between two systems,
// via the cross product of their materialized stations.
func bestDirect(from, to *spatial.System, cargoSpace int64) (string, *Leg) {
	var best *Leg
	var bestName string
	for _, toStat := range to.Stations {
		for _, fromStat := range from.Stations {
			picks, profit := pickManifest(fromStat, toStat, cargoSpace)
			if len(picks) == 0 || profit <= 0 {
				continue
			}
			if best == nil || profit > best.Profit {
				leg := Leg{
					FromSystem:  from.Name,
					FromStation: fromStat.Name,
					ToSystem:    to.Name,
					ToStation:   toStat.Name,
					Items:       picks,
					Profit:      profit,
				}
				best = &leg
				bestName = from.Name + "/" + fromStat.Name + " -> " + to.Name + "/" + toStat.Name
			}
		}
	}
	return bestName, best
}

// bestDeviated computes the highest-profit two-hop route from -> deviation
// -> to, across every deviation candidate. The midpoint is cloned and
// isolated to the single station that won the first hop before the second
// hop is priced, so the second hop only considers that one docking point —
// mirroring create_copy_of_last_system in the original.
func bestDeviated(rb *spatial.RuntimeDatabase, from, to *spatial.System, deviations []int, cargoSpace int64) (string, []Leg, float64) {
	type candidate struct {
		name   string
		legs   []Leg
		profit float64
	}
	var candidates []candidate

	for _, midIdx := range deviations {
		mid := rb.System(midIdx)
		_, firstLeg := bestDirect(from, mid, cargoSpace)
		if firstLeg == nil {
			continue
		}

		pinned := mid.Copy()
		if err := pinned.IsolateStation(firstLeg.ToStation); err != nil {
			continue
		}

		_, secondLeg := bestDirect(&pinned, to, cargoSpace)
		if secondLeg == nil {
			continue
		}

		combinedName := from.Name + "/" + firstLeg.FromStation + " -> " + mid.Name + "/" + firstLeg.ToStation + " -> " + to.Name + "/" + secondLeg.ToStation

		candidates = append(candidates, candidate{
			name:   combinedName,
			legs:   []Leg{*firstLeg, *secondLeg},
			profit: firstLeg.Profit + secondLeg.Profit,
		})
	}

	if len(candidates) == 0 {
		return "", nil, 0
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].profit > candidates[j].profit })
	winner := candidates[0]
	return winner.name, winner.legs, winner.profit
}

// pickManifest greedily fills cargo by per-unit profit: find the commodity
// maximizing toStation.demandList[c].sellPrice - fromStation
// .availableStock[c].buyPrice among commodities present in both, take
// count = min(availableStock, remainingCargo), then decrement remaining
// cargo by the station's FULL available stock (not count) and recurse.
// This decrement-by-full-stock behavior is preserved verbatim per
// SPEC_FULL.md §4.5/§9 — it is the original program's defined behavior,
// not a bug to fix.
func pickManifest(from, to spatial.Station, cargoSpace int64) ([]Pick, float64) {
	var picks []Pick
	var totalProfit float64
	excluded := make(map[int64]bool)

	for cargoSpace > 0 {
		commodityID, name, perUnitProfit, ok := highestProfitCommodity(from, to, excluded)
		if !ok {
			break
		}

		available := from.Market.AvailableStock[commodityID]
		count := available.Stock
		if cargoSpace < count {
			count = cargoSpace
		}
		profit := perUnitProfit * float64(count)

		picks = append(picks, Pick{
			CommodityID: commodityID,
			Name:        name,
			Count:       count,
			Profit:      profit,
		})
		totalProfit += profit
		cargoSpace -= available.Stock

		if cargoSpace > 0 {
			excluded[commodityID] = true
			continue
		}
		break
	}

	return picks, totalProfit
}

// highestProfitCommodity finds the commodity maximizing sellPrice-buyPrice
// among commodities demanded at to and available at from, excluding any
// already picked. Profit must be strictly positive.
func highestProfitCommodity(from, to spatial.Station, excluded map[int64]bool) (id int64, name string, profit float64, ok bool) {
	var bestProfit float64
	var bestID int64
	var bestName string
	found := false

	for commodityID, demand := range to.Market.DemandList {
		if excluded[commodityID] {
			continue
		}
		stock, ok := from.Market.AvailableStock[commodityID]
		if !ok {
			continue
		}
		curProfit := demand.SellPrice - stock.BuyPrice
		if curProfit > bestProfit {
			bestProfit = curProfit
			bestID = commodityID
			bestName = demand.Name
			found = true
		}
	}
	return bestID, bestName, bestProfit, found
}
