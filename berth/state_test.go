package berth

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombanbury-cyber/network-rail-integration/feed"
)

func stepEvent(area, from, to, train, ts string) feed.TDEvent {
	return feed.TDEvent{
		MsgType: feed.TDStep, AreaID: area, Time: ts,
		FromBerth: from, ToBerth: to, Description: train,
	}
}

func cancelEvent(area, from, train, ts string) feed.TDEvent {
	return feed.TDEvent{
		MsgType: feed.TDCancel, AreaID: area, Time: ts,
		FromBerth: from, Description: train,
	}
}

func interposeEvent(area, to, train, ts string) feed.TDEvent {
	return feed.TDEvent{
		MsgType: feed.TDInterpose, AreaID: area, Time: ts,
		ToBerth: to, Description: train,
	}
}

func TestStepMovesTrain(t *testing.T) {
	s := New(DefaultHistorySize)
	s.Apply(stepEvent("SK", "101", "102", "1A23", "1600000000000"))

	occ, ok := s.GetBerth("SK", "102")
	require.True(t, ok)
	assert.Equal(t, "1A23", occ.Description)
	assert.Equal(t, "1600000000000", occ.Timestamp)

	_, ok = s.GetBerth("SK", "101")
	assert.False(t, ok, "source berth must be cleared")
}

func TestStepOverwritesDestination(t *testing.T) {
	s := New(DefaultHistorySize)
	s.Apply(interposeEvent("SK", "102", "9X99", "1"))
	s.Apply(stepEvent("SK", "101", "102", "1A23", "2"))

	occ, ok := s.GetBerth("SK", "102")
	require.True(t, ok)
	assert.Equal(t, "1A23", occ.Description, "last write wins")
}

func TestCancelAfterInterposeLeavesBerthEmpty(t *testing.T) {
	s := New(DefaultHistorySize)
	s.Apply(interposeEvent("G1", "G669", "2J01", "1"))
	// Unrelated steps must not resurrect the berth.
	s.Apply(stepEvent("G1", "G100", "G101", "5Z55", "2"))
	s.Apply(cancelEvent("G1", "G669", "2J01", "3"))

	_, ok := s.GetBerth("G1", "G669")
	assert.False(t, ok)
	_, ok = s.GetBerth("G1", "G101")
	assert.True(t, ok, "unrelated berth unaffected")
}

func TestCancelUnknownBerthIsNoop(t *testing.T) {
	s := New(DefaultHistorySize)
	s.Apply(cancelEvent("SK", "999", "1A23", "1"))
	assert.Empty(t, s.AllBerths())
	assert.Len(t, s.EventHistory(), 1, "cancel is still recorded")
}

func TestHeartbeatAndSignallingDoNotMutate(t *testing.T) {
	s := New(DefaultHistorySize)
	s.Apply(feed.TDEvent{MsgType: feed.TDHeartbeat, AreaID: "SK", Time: "1", ReportTime: "091105"})
	s.Apply(feed.TDEvent{MsgType: feed.TDSignalUpdate, AreaID: "SK", Time: "2", Address: "16", Data: "43"})

	assert.Empty(t, s.AllBerths())
	assert.Empty(t, s.EventHistory())
}

func TestBerthsInArea(t *testing.T) {
	s := New(DefaultHistorySize)
	s.Apply(interposeEvent("SK", "101", "1A23", "1"))
	s.Apply(interposeEvent("G1", "G669", "2J01", "2"))

	sk := s.BerthsInArea("SK")
	require.Len(t, sk, 1)
	assert.Equal(t, "1A23", sk["101"].Description)

	assert.Empty(t, s.BerthsInArea("ZZ"))
}

func TestPlatformTracking(t *testing.T) {
	s := New(DefaultHistorySize)
	s.SetPlatformMapping(map[Key]string{
		{Area: "SK", Berth: "101"}: "1",
		{Area: "SK", Berth: "102"}: "2",
	})

	s.Apply(interposeEvent("SK", "101", "1A23", "1"))
	p, ok := s.PlatformState("1")
	require.True(t, ok)
	assert.Equal(t, PlatformActive, p.Status)
	assert.Equal(t, PlatformInterpose, p.CurrentEvent)
	assert.Equal(t, "1A23", p.CurrentTrain)

	// Step from platform 1's berth to platform 2's berth.
	s.Apply(stepEvent("SK", "101", "102", "1A23", "2"))

	p1, ok := s.PlatformState("1")
	require.True(t, ok)
	assert.Equal(t, PlatformIdle, p1.Status)
	assert.Empty(t, p1.CurrentTrain)

	p2, ok := s.PlatformState("2")
	require.True(t, ok)
	assert.Equal(t, PlatformActive, p2.Status)
	assert.Equal(t, PlatformArrive, p2.CurrentEvent)
	assert.Equal(t, "1A23", p2.CurrentTrain)

	history := s.EventHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "1", history[1].FromPlatform)
	assert.Equal(t, "2", history[1].ToPlatform)
}

func TestEmptyPlatformMappingTolerated(t *testing.T) {
	s := New(DefaultHistorySize)
	s.Apply(stepEvent("SK", "101", "102", "1A23", "1"))

	assert.Empty(t, s.AllPlatformStates())
	history := s.EventHistory()
	require.Len(t, history, 1)
	assert.Empty(t, history[0].FromPlatform)
	assert.Empty(t, history[0].ToPlatform)
}

func TestHistoryRingEviction(t *testing.T) {
	const size, extra = 5, 3
	s := New(size)
	for i := 0; i < size+extra; i++ {
		s.Apply(interposeEvent("SK", fmt.Sprintf("%d", 100+i), "1A23", fmt.Sprintf("%d", i)))
	}

	history := s.EventHistory()
	require.Len(t, history, size)
	for i, rec := range history {
		assert.Equal(t, fmt.Sprintf("%d", extra+i), rec.Timestamp, "most recent entries in arrival order")
	}
}

func TestHistoryResizePreservesRecent(t *testing.T) {
	s := New(10)
	for i := 0; i < 6; i++ {
		s.Apply(interposeEvent("SK", fmt.Sprintf("%d", 100+i), "1A23", fmt.Sprintf("%d", i)))
	}

	s.SetEventHistorySize(3)
	assert.Equal(t, 3, s.HistorySize())
	history := s.EventHistory()
	require.Len(t, history, 3)
	assert.Equal(t, "3", history[0].Timestamp)
	assert.Equal(t, "5", history[2].Timestamp)
}

func TestHistorySizeClamped(t *testing.T) {
	assert.Equal(t, MinHistorySize, New(0).HistorySize())
	assert.Equal(t, MinHistorySize, New(-5).HistorySize())
	assert.Equal(t, MaxHistorySize, New(500).HistorySize())

	s := New(10)
	s.SetEventHistorySize(200)
	assert.Equal(t, MaxHistorySize, s.HistorySize())
	s.SetEventHistorySize(0)
	assert.Equal(t, MinHistorySize, s.HistorySize())
}

func TestSnapshotsAreIndependentCopies(t *testing.T) {
	s := New(DefaultHistorySize)
	s.Apply(interposeEvent("SK", "101", "1A23", "1"))

	all := s.AllBerths()
	all[Key{Area: "SK", Berth: "101"}] = Occupant{Description: "mutated"}
	occ, ok := s.GetBerth("SK", "101")
	require.True(t, ok)
	assert.Equal(t, "1A23", occ.Description)

	area := s.BerthsInArea("SK")
	area["101"] = Occupant{Description: "mutated"}
	occ, _ = s.GetBerth("SK", "101")
	assert.Equal(t, "1A23", occ.Description)
}

func TestParseKey(t *testing.T) {
	k, ok := ParseKey("SK:3647")
	require.True(t, ok)
	assert.Equal(t, Key{Area: "SK", Berth: "3647"}, k)
	assert.Equal(t, "SK:3647", k.String())

	_, ok = ParseKey("no-separator")
	assert.False(t, ok)
	_, ok = ParseKey(":101")
	assert.False(t, ok)
}
