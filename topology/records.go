package topology

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"strings"

	"github.com/tombanbury-cyber/network-rail-integration/errors"
)

// Wrapper field used by one historical rendering of the dataset.
const berthDataField = "BERTHDATA"

// gzip magic bytes
var gzipMagic = []byte{0x1f, 0x8b}

// Record is one SMART berth-step record as published.
type Record struct {
	TDArea    string `json:"TD"`
	FromBerth string `json:"FROMBERTH"`
	ToBerth   string `json:"TOBERTH"`
	FromLine  string `json:"FROMLINE"`
	ToLine    string `json:"TOLINE"`
	Stanox    string `json:"STANOX"`
	Stanme    string `json:"STANME"`
	Platform  string `json:"PLATFORM"`
	Event     string `json:"EVENT"`
	StepType  string `json:"STEPTYPE"`
}

func (r Record) normalized() Record {
	return Record{
		TDArea:    strings.TrimSpace(r.TDArea),
		FromBerth: strings.TrimSpace(r.FromBerth),
		ToBerth:   strings.TrimSpace(r.ToBerth),
		FromLine:  strings.TrimSpace(r.FromLine),
		ToLine:    strings.TrimSpace(r.ToLine),
		Stanox:    strings.TrimSpace(r.Stanox),
		Stanme:    strings.TrimSpace(r.Stanme),
		Platform:  strings.TrimSpace(r.Platform),
		Event:     strings.TrimSpace(r.Event),
		StepType:  strings.TrimSpace(r.StepType),
	}
}

// Load decompresses (when gzip-compressed, detected by magic bytes) and
// parses a raw SMART download, then builds the graph. Parse attempts run in
// order: JSON array, BERTHDATA wrapper object, single object, newline-
// delimited objects; the first attempt yielding at least one record wins.
func Load(raw []byte) (*Graph, error) {
	content, err := decompress(raw)
	if err != nil {
		return nil, errors.WrapInvalid(err, "topology", "Load", "decompress")
	}

	records, err := parseRecords(content)
	if err != nil {
		return nil, err
	}
	return BuildGraph(records), nil
}

func decompress(raw []byte) ([]byte, error) {
	if !bytes.HasPrefix(raw, gzipMagic) {
		return raw, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func parseRecords(content []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return nil, errors.WrapInvalid(errors.ErrEmptyDataset, "topology", "parseRecords", "empty content")
	}

	// JSON array.
	var records []Record
	if err := json.Unmarshal(trimmed, &records); err == nil {
		if len(records) > 0 {
			return records, nil
		}
		return nil, errors.WrapInvalid(errors.ErrEmptyDataset, "topology", "parseRecords", "empty array")
	}

	// Object: either a BERTHDATA wrapper or a single record.
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err == nil {
		if rawList, ok := wrapper[berthDataField]; ok {
			if err := json.Unmarshal(rawList, &records); err == nil && len(records) > 0 {
				return records, nil
			}
			return nil, errors.WrapInvalid(errors.ErrEmptyDataset, "topology", "parseRecords", "empty BERTHDATA")
		}
		var single Record
		if err := json.Unmarshal(trimmed, &single); err == nil {
			return []Record{single}, nil
		}
	}

	// Newline-delimited objects.
	for _, line := range bytes.Split(trimmed, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if len(records) > 0 {
		return records, nil
	}

	return nil, errors.WrapInvalid(errors.ErrParsingFailed, "topology", "parseRecords", "unrecognized dataset format")
}
