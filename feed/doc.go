// Package feed contains stateless decoders for the two Network Rail wire
// formats carried on the broker: bulk train-movement batches (JSON arrays of
// header/body records) and Train Describer messages (single objects keyed by a
// "*_MSG" wrapper, or arrays of such objects).
//
// Decoders never fail on unrecognized shapes: an element that does not match
// the expected format is skipped, and a payload that is not a TD message
// reports absence rather than an error, so callers can attempt the next
// interpretation. Frame classification for the hub lives in DecodeFrame, which
// applies the priority order VSTP, TD, TD array, movement array.
package feed
