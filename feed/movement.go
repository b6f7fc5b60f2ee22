package feed

import "encoding/json"

// Movement message type tag. The movement feed multiplexes several message
// kinds (activation, cancellation, movement, ...); only type 0003 is an
// actual train movement.
const msgTypeMovement = "0003"

// MovementHeader is the envelope of a train-movement record.
type MovementHeader struct {
	MsgType            string `json:"msg_type"`
	SourceDevID        string `json:"source_dev_id"`
	OriginalDataSource string `json:"original_data_source"`
	MsgQueueTimestamp  string `json:"msg_queue_timestamp"`
}

// MovementBody carries the movement details. All fields arrive as strings on
// the wire.
type MovementBody struct {
	TrainID            string `json:"train_id"`
	TocID              string `json:"toc_id"`
	EventType          string `json:"event_type"`
	PlannedTimestamp   string `json:"planned_timestamp"`
	ActualTimestamp    string `json:"actual_timestamp"`
	TimetableVariation string `json:"timetable_variation"`
	VariationStatus    string `json:"variation_status"`
	LocStanox          string `json:"loc_stanox"`
	Platform           string `json:"platform"`
	LineInd            string `json:"line_ind"`
	DirectionInd       string `json:"direction_ind"`
	CorrID             string `json:"corr_id"`
	EventSource        string `json:"event_source"`
	TrainTerminated    string `json:"train_terminated"`
	OffrouteInd        string `json:"offroute_ind"`
}

// MovementRecord is one decoded train-movement message.
type MovementRecord struct {
	Header MovementHeader `json:"header"`
	Body   MovementBody   `json:"body"`
}

// ParseMovementBatch decodes a JSON array of movement messages, keeping only
// records whose header tags them as actual movements (msg_type 0003).
// Elements of any other shape are ignored silently; an empty array yields an
// empty slice and no error.
func ParseMovementBatch(payload []byte) ([]MovementRecord, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(payload, &elems); err != nil {
		return nil, err
	}

	records := make([]MovementRecord, 0, len(elems))
	for _, elem := range elems {
		var rec MovementRecord
		if err := json.Unmarshal(elem, &rec); err != nil {
			continue
		}
		if rec.Header.MsgType != msgTypeMovement {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
