package topology

import (
	"sort"
	"strconv"
	"strings"

	"github.com/tombanbury-cyber/network-rail-integration/berth"
)

// Thresholds for the berth-number proximity fallback. When hop-based
// discovery finds fewer stations than the threshold, stations in the same TD
// area with nearby average berth numbers are added as candidates.
const (
	proximityFallbackThreshold = 5
	proximityMaxDistance       = 50
)

// Direction is the best-effort up/down classification of a neighboring
// station.
type Direction string

// Direction labels
const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// BerthStep is one element of a route between stations.
type BerthStep struct {
	TDArea  string
	BerthID string
	Stanox  string // empty when the berth belongs to no station
}

// FindAdjacentStations walks the berth graph breadth-first from the given
// seed berths and reports every station other than excludeStanox reachable
// within maxHops berth steps, mapped to the minimum hop distance at which one
// of its berths was reached. Both edge directions are followed; berths are
// never revisited.
func (g *Graph) FindAdjacentStations(seeds []berth.Key, excludeStanox string, maxHops int) map[string]int {
	stations := make(map[string]int)
	if g == nil || maxHops <= 0 {
		return stations
	}

	type queued struct {
		key  berth.Key
		dist int
	}
	visited := make(map[berth.Key]bool, len(seeds))
	queue := make([]queued, 0, len(seeds))
	for _, key := range seeds {
		if !visited[key] {
			visited[key] = true
			queue = append(queue, queued{key: key, dist: 0})
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.dist >= maxHops {
			continue
		}

		links := g.links[current.key]
		for _, conns := range [][]Connection{links.From, links.To} {
			for _, conn := range conns {
				if conn.TDArea == "" || conn.Berth == "" {
					continue
				}
				next := berth.Key{Area: conn.TDArea, Berth: conn.Berth}

				if stanox, ok := g.berthStanox[next]; ok && stanox != excludeStanox {
					if prev, seen := stations[stanox]; !seen || current.dist+1 < prev {
						stations[stanox] = current.dist + 1
					}
				}

				if !visited[next] {
					visited[next] = true
					queue = append(queue, queued{key: next, dist: current.dist + 1})
				}
			}
		}
	}

	return stations
}

// FindRoute returns the shortest berth path from any berth of fromStanox to
// any berth of toStanox, following forward step connections, or nil when no
// path exists within maxHops berths.
func (g *Graph) FindRoute(fromStanox, toStanox string, maxHops int) []BerthStep {
	if g == nil {
		return nil
	}

	dest := make(map[berth.Key]bool)
	for _, key := range g.StationBerthKeys(toStanox) {
		dest[key] = true
	}
	if len(dest) == 0 {
		return nil
	}

	type queued struct {
		key  berth.Key
		path []berth.Key
	}
	visited := make(map[berth.Key]bool)
	var queue []queued
	for _, key := range g.StationBerthKeys(fromStanox) {
		if !visited[key] {
			visited[key] = true
			queue = append(queue, queued{key: key, path: []berth.Key{key}})
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if dest[current.key] {
			route := make([]BerthStep, len(current.path))
			for i, key := range current.path {
				route[i] = BerthStep{
					TDArea:  key.Area,
					BerthID: key.Berth,
					Stanox:  g.berthStanox[key],
				}
			}
			return route
		}

		if len(current.path) >= maxHops {
			continue
		}

		for _, conn := range g.links[current.key].To {
			if conn.TDArea == "" || conn.Berth == "" {
				continue
			}
			next := berth.Key{Area: conn.TDArea, Berth: conn.Berth}
			if visited[next] {
				continue
			}
			visited[next] = true
			path := append(append([]berth.Key(nil), current.path...), next)
			queue = append(queue, queued{key: next, path: path})
		}
	}

	return nil
}

// nearbyStation pairs a station with its average-berth-number distance from
// the search center.
type nearbyStation struct {
	Stanox   string
	Distance float64
}

// findNearbyStationsByBerthProximity finds stations in the same TD area whose
// average numeric berth ID is close to the center's. This is an
// approximation with no connectivity evidence behind it; hop-based discovery
// is always preferred when it produces enough results.
func (g *Graph) findNearbyStationsByBerthProximity(
	centerStanox string, centerAvg float64, tdArea string, maxDistance float64,
) []nearbyStation {
	if g == nil || centerAvg == 0 {
		return nil
	}

	var nearby []nearbyStation
	for stanox, recs := range g.stanoxBerths {
		if stanox == centerStanox {
			continue
		}
		avg := averageBerthNumber(recs, tdArea)
		if avg == 0 {
			continue
		}
		distance := centerAvg - avg
		if distance < 0 {
			distance = -distance
		}
		if distance <= maxDistance {
			nearby = append(nearby, nearbyStation{Stanox: stanox, Distance: distance})
		}
	}

	sort.Slice(nearby, func(i, j int) bool { return nearby[i].Distance < nearby[j].Distance })
	return nearby
}

// averageBerthNumber averages the numeric berth IDs of a station's records
// within one TD area. Non-numeric berth IDs are skipped; zero means no
// numeric berths.
func averageBerthNumber(recs []Record, tdArea string) float64 {
	var sum, count float64
	for _, rec := range recs {
		if tdArea != "" && rec.TDArea != tdArea {
			continue
		}
		for _, id := range []string{rec.FromBerth, rec.ToBerth} {
			if n, err := strconv.Atoi(id); err == nil {
				sum += float64(n)
				count++
			}
		}
	}
	if count == 0 {
		return 0
	}
	return sum / count
}

// classifyDirectionHeuristic labels a neighboring station as up or down.
// Line-name evidence wins when present ("UP"/"DOWN" substrings in connection
// line names); otherwise the station with the lower average berth number is
// treated as up. There is no ground truth for this in the dataset; the label
// is a hint only.
func (g *Graph) classifyDirectionHeuristic(adjStanox string, centerAvg float64) Direction {
	upEvidence, downEvidence := 0, 0

	for _, key := range g.StationBerthKeys(adjStanox) {
		links := g.links[key]
		for _, conns := range [][]Connection{links.From, links.To} {
			for _, conn := range conns {
				line := strings.ToUpper(conn.Line)
				if strings.Contains(line, "UP") {
					upEvidence++
				} else if strings.Contains(line, "DOWN") {
					downEvidence++
				}
			}
		}
	}

	if upEvidence > downEvidence {
		return DirectionUp
	}
	if downEvidence > upEvidence {
		return DirectionDown
	}

	adjAvg := averageBerthNumber(g.stanoxBerths[adjStanox], "")
	if adjAvg > 0 && centerAvg > 0 && adjAvg < centerAvg {
		return DirectionUp
	}
	return DirectionDown
}

// StationBerth is one distinct berth at a station.
type StationBerth struct {
	TDArea   string
	BerthID  string
	Platform string
	Event    string
}

// AdjacentStation describes a neighboring station discovered around a
// center.
type AdjacentStation struct {
	Stanox  string
	Stanme  string
	Hops    int
	Berths  []berth.Key
	ByProxy bool // found by berth-number proximity, not connectivity
}

// StationConnections is the full neighborhood picture around a station.
type StationConnections struct {
	Stanox string
	Stanme string
	Berths []StationBerth
	Up     []AdjacentStation
	Down   []AdjacentStation
}

// StationBerthsWithConnections assembles a station's own berths plus its
// neighbors within maxHops, classified up/down by heuristic. When hop
// discovery yields fewer than five stations, berth-number proximity in the
// station's primary TD area supplies additional candidates with estimated
// hop distances.
func (g *Graph) StationBerthsWithConnections(stanox string, maxHops int) StationConnections {
	result := StationConnections{Stanox: stanox}
	if g == nil {
		return result
	}
	result.Stanme = g.StationName(stanox)

	records := g.stanoxBerths[stanox]
	seen := make(map[berth.Key]bool)
	for _, rec := range records {
		for _, id := range []string{rec.FromBerth, rec.ToBerth} {
			if id == "" || rec.TDArea == "" {
				continue
			}
			key := berth.Key{Area: rec.TDArea, Berth: id}
			if !seen[key] {
				seen[key] = true
				result.Berths = append(result.Berths, StationBerth{
					TDArea: rec.TDArea, BerthID: id,
					Platform: rec.Platform, Event: rec.Event,
				})
			}
		}
	}

	centerAvg := averageBerthNumber(records, "")
	seeds := g.StationBerthKeys(stanox)
	adjacent := g.FindAdjacentStations(seeds, stanox, maxHops)
	proxied := make(map[string]bool)

	if len(adjacent) < proximityFallbackThreshold {
		primaryArea := ""
		for _, rec := range records {
			if rec.TDArea != "" {
				primaryArea = rec.TDArea
				break
			}
		}
		if primaryArea != "" && centerAvg > 0 {
			for _, near := range g.findNearbyStationsByBerthProximity(
				stanox, centerAvg, primaryArea, proximityMaxDistance) {
				if _, ok := adjacent[near.Stanox]; ok {
					continue
				}
				estimated := int(near.Distance / 10)
				if estimated < 1 {
					estimated = 1
				}
				adjacent[near.Stanox] = estimated
				proxied[near.Stanox] = true
			}
		}
	}

	for adjStanox, hops := range adjacent {
		station := AdjacentStation{
			Stanox:  adjStanox,
			Stanme:  g.StationName(adjStanox),
			Hops:    hops,
			Berths:  g.StationBerthKeys(adjStanox),
			ByProxy: proxied[adjStanox],
		}
		if g.classifyDirectionHeuristic(adjStanox, centerAvg) == DirectionUp {
			result.Up = append(result.Up, station)
		} else {
			result.Down = append(result.Down, station)
		}
	}

	// Deterministic ordering for consumers and tests.
	sort.Slice(result.Up, func(i, j int) bool { return result.Up[i].Stanox < result.Up[j].Stanox })
	sort.Slice(result.Down, func(i, j int) bool { return result.Down[i].Stanox < result.Down[j].Stanox })

	return result
}
