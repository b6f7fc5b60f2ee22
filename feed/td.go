package feed

import (
	"encoding/json"
	"strings"
)

// TDMsgType identifies a Train Describer message type.
type TDMsgType string

// C-class types report berth occupancy; S-class types report raw signalling
// element state; CT is the area heartbeat.
const (
	TDStep             TDMsgType = "CA" // berth step: train moves from one berth to the next
	TDCancel           TDMsgType = "CB" // berth cancel: train removed from a berth
	TDInterpose        TDMsgType = "CC" // berth interpose: train inserted into a berth
	TDHeartbeat        TDMsgType = "CT" // area heartbeat
	TDSignalUpdate     TDMsgType = "SF" // signalling update
	TDSignalRefresh    TDMsgType = "SG" // signalling refresh
	TDSignalRefreshEnd TDMsgType = "SH" // signalling refresh finished
)

var tdMessageTypes = map[TDMsgType]bool{
	TDStep: true, TDCancel: true, TDInterpose: true, TDHeartbeat: true,
	TDSignalUpdate: true, TDSignalRefresh: true, TDSignalRefreshEnd: true,
}

// IsBerthOperation reports whether this message type mutates berth occupancy.
func (t TDMsgType) IsBerthOperation() bool {
	return t == TDStep || t == TDCancel || t == TDInterpose
}

// TDEvent is a decoded Train Describer message. Timestamps are kept as the
// wire's millisecond strings; consumers that need numeric time parse on
// demand.
type TDEvent struct {
	MsgType TDMsgType `json:"msg_type"`
	AreaID  string    `json:"area_id"`
	Time    string    `json:"time"`

	// Berth operations (CA/CB/CC)
	FromBerth   string `json:"from_berth,omitempty"`
	ToBerth     string `json:"to_berth,omitempty"`
	Description string `json:"description,omitempty"`

	// Heartbeat (CT)
	ReportTime string `json:"report_time,omitempty"`

	// Signalling (SF/SG/SH)
	Address string `json:"address,omitempty"`
	Data    string `json:"data,omitempty"`
}

// tdBody is the wire shape inside a "*_MSG" wrapper.
type tdBody struct {
	Time       string `json:"time"`
	AreaID     string `json:"area_id"`
	MsgType    string `json:"msg_type"`
	From       string `json:"from"`
	To         string `json:"to"`
	Descr      string `json:"descr"`
	ReportTime string `json:"report_time"`
	Address    string `json:"address"`
	Data       string `json:"data"`
}

// ParseTDMessage decodes a Train Describer message. TD messages are objects
// with a single key like "CA_MSG" wrapping the body. Returns ok=false when
// the payload is not a recognizable TD message (no _MSG key, or an unknown
// msg_type) so callers can try other interpretations; this is not an error.
func ParseTDMessage(payload []byte) (TDEvent, bool) {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(payload, &wrapper); err != nil {
		return TDEvent{}, false
	}
	return parseTDWrapper(wrapper)
}

func parseTDWrapper(wrapper map[string]json.RawMessage) (TDEvent, bool) {
	for key, raw := range wrapper {
		if !strings.HasSuffix(key, "_MSG") {
			continue
		}
		var body tdBody
		if err := json.Unmarshal(raw, &body); err != nil {
			continue
		}
		msgType := TDMsgType(body.MsgType)
		if !tdMessageTypes[msgType] {
			continue
		}

		event := TDEvent{
			MsgType: msgType,
			AreaID:  body.AreaID,
			Time:    body.Time,
		}
		switch msgType {
		case TDStep:
			event.FromBerth = body.From
			event.ToBerth = body.To
			event.Description = body.Descr
		case TDCancel:
			event.FromBerth = body.From
			event.Description = body.Descr
		case TDInterpose:
			event.ToBerth = body.To
			event.Description = body.Descr
		case TDHeartbeat:
			event.ReportTime = body.ReportTime
		case TDSignalUpdate, TDSignalRefresh, TDSignalRefreshEnd:
			event.Address = body.Address
			event.Data = body.Data
		}
		return event, true
	}
	return TDEvent{}, false
}

// PassesAreaFilter reports whether the event survives the configured TD area
// filter. An empty filter passes everything.
func (e TDEvent) PassesAreaFilter(areas map[string]bool) bool {
	if len(areas) == 0 {
		return true
	}
	return areas[e.AreaID]
}
