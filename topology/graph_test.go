package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombanbury-cyber/network-rail-integration/berth"
)

func TestBuildGraphIndexes(t *testing.T) {
	g := BuildGraph([]Record{
		{TDArea: "WH", FromBerth: "0100", ToBerth: "0102", ToLine: "DN MAIN", FromLine: "DN SLOW", StepType: "B", Stanox: "87700", Stanme: "CLPHMJC"},
		{TDArea: "WH", FromBerth: "0102", ToBerth: "0104"},
		{TDArea: "QQ", Stanox: "87700", Platform: "3"}, // no berths, station record only
		{FromBerth: "0200", ToBerth: "0202"},           // no TD area, ignored for links
	})

	assert.Equal(t, 4, g.RecordCount())

	t.Run("forward and reverse links", func(t *testing.T) {
		from := g.AdjacentBerths(berth.Key{Area: "WH", Berth: "0100"})
		require.Len(t, from.To, 1)
		assert.Equal(t, Connection{TDArea: "WH", Berth: "0102", Line: "DN MAIN", StepType: "B"}, from.To[0])
		assert.Empty(t, from.From)

		mid := g.AdjacentBerths(berth.Key{Area: "WH", Berth: "0102"})
		require.Len(t, mid.From, 1)
		assert.Equal(t, Connection{TDArea: "WH", Berth: "0100", Line: "DN SLOW", StepType: "B"}, mid.From[0])
		require.Len(t, mid.To, 1)
		assert.Equal(t, "0104", mid.To[0].Berth)
	})

	t.Run("station mappings", func(t *testing.T) {
		stanox, ok := g.StanoxForBerth(berth.Key{Area: "WH", Berth: "0100"})
		require.True(t, ok)
		assert.Equal(t, "87700", stanox)

		_, ok = g.StanoxForBerth(berth.Key{Area: "WH", Berth: "0104"})
		assert.False(t, ok)

		assert.Equal(t, "CLPHMJC", g.StationName("87700"))
		assert.Equal(t, "", g.StationName("00000"))

		keys := g.StationBerthKeys("87700")
		assert.Equal(t, []berth.Key{{Area: "WH", Berth: "0100"}, {Area: "WH", Berth: "0102"}}, keys)
	})

	t.Run("berthless record still registers station", func(t *testing.T) {
		recs := g.BerthsForStanox("87700")
		assert.Len(t, recs, 2)
	})
}

func TestGraphNilSafety(t *testing.T) {
	var g *Graph
	assert.Equal(t, 0, g.RecordCount())
	assert.Empty(t, g.AdjacentBerths(berth.Key{Area: "WH", Berth: "0100"}).To)
	assert.Nil(t, g.BerthsForStanox("87700"))
	assert.Nil(t, g.StationBerthKeys("87700"))
	assert.Empty(t, g.FindAdjacentStations(nil, "", 3))
	assert.Nil(t, g.FindRoute("87700", "87705", 10))
}

func TestPlatformQueries(t *testing.T) {
	g := BuildGraph([]Record{
		{TDArea: "WH", FromBerth: "0100", ToBerth: "0102", Stanox: "87700", Platform: "10"},
		{TDArea: "WH", FromBerth: "0102", ToBerth: "0104", Stanox: "87700", Platform: "2"},
		{TDArea: "WH", FromBerth: "0104", ToBerth: "0106", Stanox: "87700", Platform: "2"},
		{TDArea: "WH", FromBerth: "0300", ToBerth: "0302", Stanox: "87705", Platform: "1"},
	})

	// Shorter identifiers sort before longer, so numeric platforms come out
	// in natural order.
	assert.Equal(t, []string{"1", "2", "10"}, g.PlatformsForArea("WH"))
	assert.Equal(t, []string{"2", "10"}, g.StationPlatforms("87700"))

	mapping := g.BerthToPlatformMapping("WH")
	assert.Equal(t, "10", mapping[berth.Key{Area: "WH", Berth: "0100"}])
	assert.Equal(t, "2", mapping[berth.Key{Area: "WH", Berth: "0104"}])
}
