package tracksection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadcodeSchedules(t *testing.T) {
	lookup := HeadcodeSchedules{}

	sched, err := lookup.Lookup(context.Background(), "1A23")
	require.NoError(t, err)
	require.NotNil(t, sched)
	assert.Equal(t, "1A23", sched.Headcode)

	for _, bad := range []string{"", "XXXX", "1a23", "12345", "0000"} {
		sched, err = lookup.Lookup(context.Background(), bad)
		require.NoError(t, err)
		assert.Nil(t, sched, "headcode %q should not resolve", bad)
	}
}

func TestStaticSchedules(t *testing.T) {
	lookup := StaticSchedules{
		"6M11": {UID: "C54321", Headcode: "6M11", TrainCategory: "B1"},
	}

	sched, err := lookup.Lookup(context.Background(), "6M11")
	require.NoError(t, err)
	require.NotNil(t, sched)
	assert.Equal(t, "C54321", sched.UID)

	sched, err = lookup.Lookup(context.Background(), "1A23")
	require.NoError(t, err)
	assert.Nil(t, sched)
}

func TestHeadcodeClassifier(t *testing.T) {
	classifier := HeadcodeClassifier{}

	cases := map[string]string{
		"1A23": ClassPassenger,
		"2C45": ClassPassenger,
		"9O10": ClassPassenger,
		"4M56": ClassFreight,
		"6E78": ClassFreight,
		"3J02": ClassFreight,
		"5Q90": ClassEmptyStock,
		"0B01": ClassLightLoco,
		"":     "",
	}
	for headcode, want := range cases {
		assert.Equal(t, want, classifier.Classify(Schedule{Headcode: headcode}), "headcode %q", headcode)
	}
}
