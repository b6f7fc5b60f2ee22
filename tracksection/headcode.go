package tracksection

import (
	"context"
	"regexp"
)

// Service classes produced by the default classifier.
const (
	ClassPassenger  = "passenger"
	ClassFreight    = "freight"
	ClassEmptyStock = "empty-stock"
	ClassLightLoco  = "light-loco"
)

// headcodePattern matches a standard four-character train reporting number:
// class digit, letter, two digits.
var headcodePattern = regexp.MustCompile(`^[0-9][A-Z][0-9]{2}$`)

// HeadcodeSchedules is the fallback ScheduleLookup used when no schedule
// store is wired: it synthesizes a minimal schedule from the headcode alone,
// which is enough for class-based alerting. Descriptions that are not
// well-formed headcodes resolve to nothing.
type HeadcodeSchedules struct{}

// Lookup implements ScheduleLookup.
func (HeadcodeSchedules) Lookup(_ context.Context, headcode string) (*Schedule, error) {
	if !headcodePattern.MatchString(headcode) {
		return nil, nil
	}
	return &Schedule{Headcode: headcode}, nil
}

// StaticSchedules is a ScheduleLookup backed by a fixed map, for configs and
// tests that know their services up front.
type StaticSchedules map[string]Schedule

// Lookup implements ScheduleLookup.
func (s StaticSchedules) Lookup(_ context.Context, headcode string) (*Schedule, error) {
	if sched, ok := s[headcode]; ok {
		return &sched, nil
	}
	return nil, nil
}

// HeadcodeClassifier buckets services by the class digit of their reporting
// number: 1/2/9 passenger, 3/4/6/7/8 freight, 5 empty coaching stock,
// 0 light locomotive.
type HeadcodeClassifier struct{}

// Classify implements ServiceClassifier.
func (HeadcodeClassifier) Classify(sched Schedule) string {
	if len(sched.Headcode) == 0 {
		return ""
	}
	switch sched.Headcode[0] {
	case '1', '2', '9':
		return ClassPassenger
	case '3', '4', '6', '7', '8':
		return ClassFreight
	case '5':
		return ClassEmptyStock
	case '0':
		return ClassLightLoco
	}
	return ""
}
