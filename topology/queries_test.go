package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// corridorGraph models two stations joined by a three-step berth chain plus a
// longer four-step detour:
//
//	ALPHA(0001) -> 0002 -> 0003 -> BRAVO(0004)        direct, 3 hops
//	ALPHA(0001) -> 0020 -> 0021 -> 0022 -> BRAVO(0004) detour, 4 hops
//
// DELTA(0040) sits in the same TD area with no connections at all; it is only
// discoverable through berth-number proximity.
func corridorGraph() *Graph {
	return BuildGraph([]Record{
		{TDArea: "AA", FromBerth: "0001", ToBerth: "0002"},
		{TDArea: "AA", FromBerth: "0002", ToBerth: "0003"},
		{TDArea: "AA", FromBerth: "0003", ToBerth: "0004", FromLine: "UP MAIN"},
		{TDArea: "AA", FromBerth: "0001", ToBerth: "0020"},
		{TDArea: "AA", FromBerth: "0020", ToBerth: "0021"},
		{TDArea: "AA", FromBerth: "0021", ToBerth: "0022"},
		{TDArea: "AA", FromBerth: "0022", ToBerth: "0004"},
		{TDArea: "AA", FromBerth: "0001", Stanox: "11111", Stanme: "ALPHA"},
		{TDArea: "AA", FromBerth: "0004", Stanox: "22222", Stanme: "BRAVO"},
		{TDArea: "AA", FromBerth: "0040", Stanox: "44444", Stanme: "DELTA"},
	})
}

func TestFindAdjacentStations(t *testing.T) {
	g := corridorGraph()
	seeds := g.StationBerthKeys("11111")

	t.Run("minimum hop distance wins", func(t *testing.T) {
		stations := g.FindAdjacentStations(seeds, "11111", 6)
		require.Contains(t, stations, "22222")
		assert.Equal(t, 3, stations["22222"], "direct chain should beat the detour")
	})

	t.Run("maxHops cuts off discovery", func(t *testing.T) {
		stations := g.FindAdjacentStations(seeds, "11111", 2)
		assert.NotContains(t, stations, "22222")
	})

	t.Run("exact hop budget still reaches", func(t *testing.T) {
		stations := g.FindAdjacentStations(seeds, "11111", 3)
		assert.Equal(t, 3, stations["22222"])
	})

	t.Run("seed station never returned", func(t *testing.T) {
		g := BuildGraph([]Record{
			{TDArea: "AA", FromBerth: "1000", ToBerth: "1001"},
			{TDArea: "AA", FromBerth: "1000", Stanox: "55555"},
			{TDArea: "AA", FromBerth: "1001", Stanox: "55555"},
		})
		stations := g.FindAdjacentStations(g.StationBerthKeys("55555"), "55555", 5)
		assert.Empty(t, stations)
	})

	t.Run("reverse edges are walked", func(t *testing.T) {
		stations := g.FindAdjacentStations(g.StationBerthKeys("22222"), "22222", 6)
		assert.Equal(t, 3, stations["11111"])
	})
}

func TestFindRoute(t *testing.T) {
	g := corridorGraph()

	t.Run("shortest forward path", func(t *testing.T) {
		route := g.FindRoute("11111", "22222", 10)
		require.Len(t, route, 4)
		assert.Equal(t, BerthStep{TDArea: "AA", BerthID: "0001", Stanox: "11111"}, route[0])
		assert.Equal(t, BerthStep{TDArea: "AA", BerthID: "0002"}, route[1])
		assert.Equal(t, BerthStep{TDArea: "AA", BerthID: "0003"}, route[2])
		assert.Equal(t, BerthStep{TDArea: "AA", BerthID: "0004", Stanox: "22222"}, route[3])
	})

	t.Run("forward edges only", func(t *testing.T) {
		assert.Nil(t, g.FindRoute("22222", "11111", 10))
	})

	t.Run("hop budget too small", func(t *testing.T) {
		assert.Nil(t, g.FindRoute("11111", "22222", 3))
	})

	t.Run("unknown stations", func(t *testing.T) {
		assert.Nil(t, g.FindRoute("11111", "99999", 10))
		assert.Nil(t, g.FindRoute("99999", "22222", 10))
	})
}

func TestStationBerthsWithConnections(t *testing.T) {
	g := corridorGraph()

	result := g.StationBerthsWithConnections("11111", 6)
	assert.Equal(t, "11111", result.Stanox)
	assert.Equal(t, "ALPHA", result.Stanme)
	require.Len(t, result.Berths, 1)
	assert.Equal(t, "0001", result.Berths[0].BerthID)

	all := append(append([]AdjacentStation(nil), result.Up...), result.Down...)
	byStanox := make(map[string]AdjacentStation, len(all))
	for _, s := range all {
		byStanox[s.Stanox] = s
	}

	t.Run("connected neighbor via hops", func(t *testing.T) {
		bravo, ok := byStanox["22222"]
		require.True(t, ok)
		assert.Equal(t, 3, bravo.Hops)
		assert.False(t, bravo.ByProxy)
		assert.Equal(t, "BRAVO", bravo.Stanme)
	})

	t.Run("isolated station found by proximity", func(t *testing.T) {
		delta, ok := byStanox["44444"]
		require.True(t, ok)
		assert.True(t, delta.ByProxy)
		// avg berth 40 vs 1: distance 39, estimated at one hop per ten berths
		assert.Equal(t, 3, delta.Hops)
	})

	t.Run("line name evidence classifies up", func(t *testing.T) {
		// BRAVO's berth 0004 is entered over "UP MAIN".
		for _, s := range result.Up {
			if s.Stanox == "22222" {
				return
			}
		}
		t.Fatal("station 22222 not classified up")
	})

	t.Run("berth number fallback classifies down", func(t *testing.T) {
		// DELTA has no connections; its higher average berth number puts it down.
		for _, s := range result.Down {
			if s.Stanox == "44444" {
				return
			}
		}
		t.Fatal("station 44444 not classified down")
	})
}

func TestStationBerthsWithConnectionsProximitySkippedWhenEnoughNeighbors(t *testing.T) {
	// Five connected stations around the center keep the proximity fallback
	// off, so the isolated station is not reported.
	records := []Record{
		{TDArea: "AA", FromBerth: "0500", Stanox: "10000", Stanme: "CENTR"},
		{TDArea: "AA", FromBerth: "0510", Stanox: "70000", Stanme: "LONER"},
	}
	neighbors := []struct{ berthID, stanox string }{
		{"0501", "20000"}, {"0502", "30000"}, {"0503", "40000"},
		{"0504", "50000"}, {"0505", "60000"},
	}
	for _, n := range neighbors {
		records = append(records,
			Record{TDArea: "AA", FromBerth: "0500", ToBerth: n.berthID},
			Record{TDArea: "AA", FromBerth: n.berthID, Stanox: n.stanox},
		)
	}
	g := BuildGraph(records)

	result := g.StationBerthsWithConnections("10000", 3)
	all := append(append([]AdjacentStation(nil), result.Up...), result.Down...)
	assert.Len(t, all, 5)
	for _, s := range all {
		assert.NotEqual(t, "70000", s.Stanox)
		assert.False(t, s.ByProxy)
	}
}
