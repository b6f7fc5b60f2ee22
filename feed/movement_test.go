package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMovementBatch(t *testing.T) {
	payload := []byte(`[
		{
			"header": {"msg_type": "0003", "source_dev_id": "V2PY"},
			"body": {
				"train_id": "172F47MT30",
				"toc_id": "88",
				"event_type": "ARRIVAL",
				"loc_stanox": "88487",
				"platform": "2",
				"actual_timestamp": "1600000020000"
			}
		},
		{
			"header": {"msg_type": "0001"},
			"body": {"train_id": "activation-only"}
		},
		{
			"header": {"msg_type": "0003"},
			"body": {"train_id": "175E21MX30", "toc_id": "25", "event_type": "DEPARTURE", "loc_stanox": "72277"}
		}
	]`)

	records, err := ParseMovementBatch(payload)
	require.NoError(t, err)
	require.Len(t, records, 2, "only msg_type 0003 records are movements")

	assert.Equal(t, "172F47MT30", records[0].Body.TrainID)
	assert.Equal(t, "88487", records[0].Body.LocStanox)
	assert.Equal(t, "ARRIVAL", records[0].Body.EventType)
	assert.Equal(t, "72277", records[1].Body.LocStanox)
}

func TestParseMovementBatchEmpty(t *testing.T) {
	records, err := ParseMovementBatch([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseMovementBatchIgnoresOddShapes(t *testing.T) {
	payload := []byte(`[
		"just a string",
		42,
		{"unexpected": true},
		{"header": {"msg_type": "0003"}, "body": {"loc_stanox": "88487"}}
	]`)

	records, err := ParseMovementBatch(payload)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "88487", records[0].Body.LocStanox)
}

func TestParseMovementBatchNotArray(t *testing.T) {
	_, err := ParseMovementBatch([]byte(`{"header": {}}`))
	assert.Error(t, err)
}

func TestDecodeFrameMovement(t *testing.T) {
	raw := []byte(`[{"header":{"msg_type":"0003"},"body":{"loc_stanox":"88487","event_type":"ARRIVAL","toc_id":"88"}}]`)

	frame, ok := DecodeFrame(raw)
	require.True(t, ok)
	mf, ok := frame.(MovementFrame)
	require.True(t, ok)
	require.Len(t, mf.Records, 1)
	assert.Equal(t, 1, mf.BatchSize)
	assert.Equal(t, "88487", mf.Records[0].Body.LocStanox)
}

func TestDecodeFrameEmptyArray(t *testing.T) {
	frame, ok := DecodeFrame([]byte(`[]`))
	require.True(t, ok)
	mf, ok := frame.(MovementFrame)
	require.True(t, ok)
	assert.Empty(t, mf.Records)
	assert.Zero(t, mf.BatchSize)
}

func TestDecodeFrameSingleTD(t *testing.T) {
	raw := []byte(`{"CA_MSG":{"time":"1600000000000","area_id":"SK","msg_type":"CA","from":"101","to":"102","descr":"1A23"}}`)

	frame, ok := DecodeFrame(raw)
	require.True(t, ok)
	tf, ok := frame.(TDFrame)
	require.True(t, ok)
	require.Len(t, tf.Events, 1)
	assert.Equal(t, TDStep, tf.Events[0].MsgType)
}

func TestDecodeFrameTDArray(t *testing.T) {
	// TD traffic also arrives as arrays; these must not be read as movements.
	raw := []byte(`[
		{"CA_MSG":{"time":"1","area_id":"SK","msg_type":"CA","from":"101","to":"102","descr":"1A23"}},
		{"CC_MSG":{"time":"2","area_id":"SK","msg_type":"CC","to":"103","descr":"2B34"}},
		{"XX_MSG":{"msg_type":"XX"}}
	]`)

	frame, ok := DecodeFrame(raw)
	require.True(t, ok)
	tf, ok := frame.(TDFrame)
	require.True(t, ok)
	require.Len(t, tf.Events, 2, "invalid elements are skipped")
	assert.Equal(t, TDStep, tf.Events[0].MsgType)
	assert.Equal(t, TDInterpose, tf.Events[1].MsgType)
}

func TestDecodeFrameVSTPTakesPriority(t *testing.T) {
	raw := []byte(`{"JsonScheduleV1":{"CIF_train_uid":"Y63031","schedule_segment":{}},"CA_MSG":{"msg_type":"CA"}}`)

	frame, ok := DecodeFrame(raw)
	require.True(t, ok)
	vf, ok := frame.(VSTPFrame)
	require.True(t, ok)
	assert.NotEmpty(t, vf.Raw)
}

func TestDecodeFrameRejectsUnknown(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not JSON", "PING"},
		{"empty", ""},
		{"object with no markers", `{"hello":"world"}`},
		{"number", "42"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, ok := DecodeFrame([]byte(test.raw))
			assert.False(t, ok)
		})
	}
}
