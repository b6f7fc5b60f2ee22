package topology

import (
	"sort"

	"github.com/tombanbury-cyber/network-rail-integration/berth"
)

// Connection is one directed adjacency entry carrying the edge metadata from
// the source record.
type Connection struct {
	TDArea   string
	Berth    string
	Line     string
	StepType string
}

// Links holds both directions of a berth's adjacency: To lists berths this
// berth steps into, From lists berths that step into it.
type Links struct {
	From []Connection
	To   []Connection
}

// Graph is the immutable berth-connectivity index. Build once, query from
// any goroutine; refreshes construct a new Graph and swap it in wholesale.
type Graph struct {
	links        map[berth.Key]Links
	stanoxBerths map[string][]Record
	berthStanox  map[berth.Key]string
	recordCount  int
}

// BuildGraph indexes the record list in a single pass. Records with both
// berth ends in the same TD area contribute a forward and a reverse adjacency
// entry; records with a STANOX contribute station mappings for whichever
// berth ends are present.
func BuildGraph(records []Record) *Graph {
	g := &Graph{
		links:        make(map[berth.Key]Links),
		stanoxBerths: make(map[string][]Record),
		berthStanox:  make(map[berth.Key]string),
		recordCount:  len(records),
	}

	for _, raw := range records {
		rec := raw.normalized()

		if rec.TDArea != "" && rec.FromBerth != "" && rec.ToBerth != "" {
			fromKey := berth.Key{Area: rec.TDArea, Berth: rec.FromBerth}
			toKey := berth.Key{Area: rec.TDArea, Berth: rec.ToBerth}

			fromLinks := g.links[fromKey]
			fromLinks.To = append(fromLinks.To, Connection{
				TDArea: rec.TDArea, Berth: rec.ToBerth, Line: rec.ToLine, StepType: rec.StepType,
			})
			g.links[fromKey] = fromLinks

			toLinks := g.links[toKey]
			toLinks.From = append(toLinks.From, Connection{
				TDArea: rec.TDArea, Berth: rec.FromBerth, Line: rec.FromLine, StepType: rec.StepType,
			})
			g.links[toKey] = toLinks
		}

		if rec.Stanox != "" {
			g.stanoxBerths[rec.Stanox] = append(g.stanoxBerths[rec.Stanox], rec)
			if rec.FromBerth != "" && rec.TDArea != "" {
				g.berthStanox[berth.Key{Area: rec.TDArea, Berth: rec.FromBerth}] = rec.Stanox
			}
			if rec.ToBerth != "" && rec.TDArea != "" {
				g.berthStanox[berth.Key{Area: rec.TDArea, Berth: rec.ToBerth}] = rec.Stanox
			}
		}
	}

	return g
}

// RecordCount returns the number of source records the graph was built from.
func (g *Graph) RecordCount() int {
	if g == nil {
		return 0
	}
	return g.recordCount
}

// AdjacentBerths returns both directions of a berth's connectivity. The
// returned slices are copies.
func (g *Graph) AdjacentBerths(key berth.Key) Links {
	if g == nil {
		return Links{}
	}
	l := g.links[key]
	return Links{
		From: append([]Connection(nil), l.From...),
		To:   append([]Connection(nil), l.To...),
	}
}

// BerthsForStanox returns the berth records registered for a station. The
// returned slice is a copy.
func (g *Graph) BerthsForStanox(stanox string) []Record {
	if g == nil {
		return nil
	}
	return append([]Record(nil), g.stanoxBerths[stanox]...)
}

// StanoxForBerth returns the station a berth belongs to, if any.
func (g *Graph) StanoxForBerth(key berth.Key) (string, bool) {
	if g == nil {
		return "", false
	}
	stanox, ok := g.berthStanox[key]
	return stanox, ok
}

// StationName returns the STANME recorded for a station, from its first berth
// record.
func (g *Graph) StationName(stanox string) string {
	if g == nil {
		return ""
	}
	recs := g.stanoxBerths[stanox]
	if len(recs) == 0 {
		return ""
	}
	return recs[0].Stanme
}

// StationBerthKeys returns the distinct berth keys registered for a station.
func (g *Graph) StationBerthKeys(stanox string) []berth.Key {
	if g == nil {
		return nil
	}

	seen := make(map[berth.Key]bool)
	var keys []berth.Key
	for _, rec := range g.stanoxBerths[stanox] {
		for _, id := range []string{rec.FromBerth, rec.ToBerth} {
			if id == "" || rec.TDArea == "" {
				continue
			}
			key := berth.Key{Area: rec.TDArea, Berth: id}
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	return keys
}

// PlatformsForArea returns the distinct platform identifiers appearing in a
// TD area, sorted naturally (shorter identifiers first, then lexically, so
// "2" precedes "10").
func (g *Graph) PlatformsForArea(tdArea string) []string {
	if g == nil {
		return nil
	}

	set := make(map[string]bool)
	for _, recs := range g.stanoxBerths {
		for _, rec := range recs {
			if rec.TDArea == tdArea && rec.Platform != "" {
				set[rec.Platform] = true
			}
		}
	}
	return sortPlatforms(set)
}

// StationPlatforms returns the distinct platform identifiers at one station,
// sorted naturally.
func (g *Graph) StationPlatforms(stanox string) []string {
	if g == nil {
		return nil
	}

	set := make(map[string]bool)
	for _, rec := range g.stanoxBerths[stanox] {
		if rec.Platform != "" {
			set[rec.Platform] = true
		}
	}
	return sortPlatforms(set)
}

func sortPlatforms(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) < len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// BerthToPlatformMapping returns berth key to platform ID for every record in
// a TD area that names a platform. Both berth ends of a record map to its
// platform. Feed the result to the berth state machine.
func (g *Graph) BerthToPlatformMapping(tdArea string) map[berth.Key]string {
	if g == nil {
		return nil
	}

	mapping := make(map[berth.Key]string)
	for _, recs := range g.stanoxBerths {
		for _, rec := range recs {
			if rec.TDArea != tdArea || rec.Platform == "" {
				continue
			}
			if rec.FromBerth != "" {
				mapping[berth.Key{Area: tdArea, Berth: rec.FromBerth}] = rec.Platform
			}
			if rec.ToBerth != "" {
				mapping[berth.Key{Area: tdArea, Berth: rec.ToBerth}] = rec.Platform
			}
		}
	}
	return mapping
}
