package refdata

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/tombanbury-cyber/network-rail-integration/errors"
)

// DefaultSearchLimit caps station searches when the caller passes no limit.
const DefaultSearchLimit = 100

// Station is one STANOX reference entry.
type Station struct {
	Stanox string
	Stanme string
}

// Lookup is a read-only reference-data service: station names keyed by
// STANOX plus the static TD area, operator, direction, and line code tables.
// Construct once and inject; it is safe for concurrent use.
type Lookup struct {
	stations []Station
	byStanox map[string]string
}

// NewLookup reads "stanox,name" lines from r. Lines without both fields are
// skipped; whitespace around fields is trimmed. Names may themselves contain
// commas.
func NewLookup(r io.Reader) (*Lookup, error) {
	l := &Lookup{byStanox: make(map[string]string)}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.SplitN(scanner.Text(), ",", 2)
		if len(fields) < 2 {
			continue
		}
		stanox := strings.TrimSpace(fields[0])
		stanme := strings.TrimSpace(fields[1])
		if stanox == "" || stanme == "" {
			continue
		}
		if _, dup := l.byStanox[stanox]; !dup {
			l.byStanox[stanox] = stanme
			l.stations = append(l.stations, Station{Stanox: stanox, Stanme: stanme})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WrapInvalid(err, "Lookup", "NewLookup", "read station data")
	}
	return l, nil
}

// StationName returns the name recorded for a STANOX code.
func (l *Lookup) StationName(stanox string) (string, bool) {
	name, ok := l.byStanox[stanox]
	return name, ok
}

// StationCount reports how many station entries were loaded.
func (l *Lookup) StationCount() int {
	return len(l.stations)
}

// SearchStations matches stations whose name contains the query
// (case-insensitive) or whose STANOX equals it exactly, up to limit results
// in load order. An empty query matches nothing.
func (l *Lookup) SearchStations(query string, limit int) []Station {
	if query == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	needle := strings.ToLower(query)
	var results []Station
	for _, s := range l.stations {
		if strings.Contains(strings.ToLower(s.Stanme), needle) || query == s.Stanox {
			results = append(results, s)
			if len(results) >= limit {
				break
			}
		}
	}
	return results
}

// TDAreaName returns the geographical name for a TD area code.
func (l *Lookup) TDAreaName(areaID string) (string, bool) {
	name, ok := tdAreaNames[strings.ToUpper(strings.TrimSpace(areaID))]
	return name, ok
}

// TDAreaTitle formats a TD area code for display: "TD Area Sheffield (SK)",
// or "TD Area XX" for codes without a known name.
func (l *Lookup) TDAreaTitle(areaID string) string {
	if name, ok := l.TDAreaName(areaID); ok {
		return fmt.Sprintf("TD Area %s (%s)", name, areaID)
	}
	return fmt.Sprintf("TD Area %s", areaID)
}

// TOCName returns the operating company name for a numeric TOC code,
// "Operator <code>" for unlisted codes, and "Unknown" for an empty one.
func (l *Lookup) TOCName(tocID string) string {
	code := strings.TrimSpace(tocID)
	if code == "" {
		return "Unknown"
	}
	if name, ok := tocNames[code]; ok {
		return name
	}
	return fmt.Sprintf("Operator %s", code)
}

// DirectionDescription describes a movement direction indicator.
func (l *Lookup) DirectionDescription(ind string) string {
	code := strings.ToUpper(strings.TrimSpace(ind))
	if desc, ok := directionNames[code]; ok {
		return desc
	}
	if code == "" {
		return "Not specified"
	}
	return code
}

// LineDescription describes a running-line indicator. These vary by
// location, so the descriptions are generic.
func (l *Lookup) LineDescription(ind string) string {
	code := strings.ToUpper(strings.TrimSpace(ind))
	if desc, ok := lineNames[code]; ok {
		return desc
	}
	if code == "" {
		return "Not specified"
	}
	return code
}
