package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTDMessageStep(t *testing.T) {
	payload := []byte(`{
		"CA_MSG": {
			"time": "1349696911000",
			"area_id": "SK",
			"msg_type": "CA",
			"from": "3647",
			"to": "3649",
			"descr": "1F42"
		}
	}`)

	event, ok := ParseTDMessage(payload)
	require.True(t, ok)
	assert.Equal(t, TDStep, event.MsgType)
	assert.Equal(t, "SK", event.AreaID)
	assert.Equal(t, "1349696911000", event.Time)
	assert.Equal(t, "3647", event.FromBerth)
	assert.Equal(t, "3649", event.ToBerth)
	assert.Equal(t, "1F42", event.Description)
}

func TestParseTDMessageCancel(t *testing.T) {
	payload := []byte(`{
		"CB_MSG": {
			"time": "1349696911000",
			"area_id": "G1",
			"msg_type": "CB",
			"from": "G669",
			"descr": "2J01"
		}
	}`)

	event, ok := ParseTDMessage(payload)
	require.True(t, ok)
	assert.Equal(t, TDCancel, event.MsgType)
	assert.Equal(t, "G669", event.FromBerth)
	assert.Empty(t, event.ToBerth)
	assert.Equal(t, "2J01", event.Description)
}

func TestParseTDMessageInterpose(t *testing.T) {
	payload := []byte(`{
		"CC_MSG": {
			"time": "1349696911000",
			"area_id": "G1",
			"msg_type": "CC",
			"descr": "2J01",
			"to": "G669"
		}
	}`)

	event, ok := ParseTDMessage(payload)
	require.True(t, ok)
	assert.Equal(t, TDInterpose, event.MsgType)
	assert.Equal(t, "G669", event.ToBerth)
	assert.Empty(t, event.FromBerth)
}

func TestParseTDMessageHeartbeat(t *testing.T) {
	payload := []byte(`{
		"CT_MSG": {
			"time": "1349696911000",
			"area_id": "SK",
			"msg_type": "CT",
			"report_time": "091105"
		}
	}`)

	event, ok := ParseTDMessage(payload)
	require.True(t, ok)
	assert.Equal(t, TDHeartbeat, event.MsgType)
	assert.Equal(t, "091105", event.ReportTime)
	assert.False(t, event.MsgType.IsBerthOperation())
}

func TestParseTDMessageSignalling(t *testing.T) {
	payload := []byte(`{
		"SF_MSG": {
			"time": "1422404915000",
			"area_id": "SI",
			"address": "16",
			"msg_type": "SF",
			"data": "43"
		}
	}`)

	event, ok := ParseTDMessage(payload)
	require.True(t, ok)
	assert.Equal(t, TDSignalUpdate, event.MsgType)
	assert.Equal(t, "16", event.Address)
	assert.Equal(t, "43", event.Data)
	assert.False(t, event.MsgType.IsBerthOperation())
}

func TestParseTDMessageRejectsNonTD(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"no _MSG key", `{"header": {"msg_type": "0003"}, "body": {}}`},
		{"unknown msg_type", `{"ZZ_MSG": {"msg_type": "ZZ", "area_id": "SK"}}`},
		{"wrapper not an object", `{"CA_MSG": "nope"}`},
		{"not JSON", `hello`},
		{"array payload", `[1,2,3]`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, ok := ParseTDMessage([]byte(test.payload))
			assert.False(t, ok)
		})
	}
}

func TestPassesAreaFilter(t *testing.T) {
	event := TDEvent{MsgType: TDStep, AreaID: "SK"}

	assert.True(t, event.PassesAreaFilter(nil))
	assert.True(t, event.PassesAreaFilter(map[string]bool{}))
	assert.True(t, event.PassesAreaFilter(map[string]bool{"SK": true, "G1": true}))
	assert.False(t, event.PassesAreaFilter(map[string]bool{"G1": true}))
}

func TestBerthOperationClassification(t *testing.T) {
	assert.True(t, TDStep.IsBerthOperation())
	assert.True(t, TDCancel.IsBerthOperation())
	assert.True(t, TDInterpose.IsBerthOperation())
	assert.False(t, TDHeartbeat.IsBerthOperation())
	assert.False(t, TDSignalUpdate.IsBerthOperation())
	assert.False(t, TDSignalRefresh.IsBerthOperation())
	assert.False(t, TDSignalRefreshEnd.IsBerthOperation())
}
