package feed

import (
	"bytes"
	"encoding/json"
)

// VSTP schedule messages are recognized by their versioned schedule field.
const vstpDiscriminator = "JsonScheduleV1"

// Frame is the result of classifying one raw broker message.
type Frame interface{ frame() }

// VSTPFrame carries a short-term schedule message, passed through undecoded;
// schedule interpretation belongs to the schedule store, not the feed layer.
type VSTPFrame struct {
	Raw json.RawMessage
}

// TDFrame carries one or more decoded Train Describer events. A single TD
// object yields one event; the feed also delivers arrays of TD wrappers on
// the movement-shaped channel, which classify here rather than as movements.
type TDFrame struct {
	Events []TDEvent
}

// MovementFrame carries a decoded movement batch. BatchSize is the element
// count of the wire array before filtering, including non-movement records.
type MovementFrame struct {
	Records   []MovementRecord
	BatchSize int
}

func (VSTPFrame) frame()     {}
func (TDFrame) frame()       {}
func (MovementFrame) frame() {}

// DecodeFrame classifies a raw broker message. Priority order: VSTP schedule
// message, TD message, TD array, movement array. The first successful
// classification wins. Returns ok=false for frames that are not JSON or match
// no known shape; such frames are skipped, not errors.
func DecodeFrame(raw []byte) (Frame, bool) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, false
	}

	if trimmed[0] == '{' {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, false
		}
		if _, ok := wrapper[vstpDiscriminator]; ok {
			return VSTPFrame{Raw: append(json.RawMessage(nil), trimmed...)}, true
		}
		if event, ok := parseTDWrapper(wrapper); ok {
			return TDFrame{Events: []TDEvent{event}}, true
		}
		return nil, false
	}

	if trimmed[0] != '[' {
		return nil, false
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, false
	}
	if len(elems) == 0 {
		return MovementFrame{}, true
	}

	// TD messages also arrive batched in array form. If the first element
	// looks like a TD wrapper, the whole array is treated as TD traffic;
	// each element is still validated individually.
	if firstElementIsTDWrapper(elems[0]) {
		events := make([]TDEvent, 0, len(elems))
		for _, elem := range elems {
			if event, ok := ParseTDMessage(elem); ok {
				events = append(events, event)
			}
		}
		if len(events) > 0 {
			return TDFrame{Events: events}, true
		}
	}

	records, err := ParseMovementBatch(trimmed)
	if err != nil {
		return nil, false
	}
	return MovementFrame{Records: records, BatchSize: len(elems)}, true
}

func firstElementIsTDWrapper(elem json.RawMessage) bool {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(elem, &wrapper); err != nil {
		return false
	}
	for key := range wrapper {
		if len(key) > 4 && key[len(key)-4:] == "_MSG" {
			return true
		}
	}
	return false
}
