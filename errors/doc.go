// Package errors provides standardized error handling for the Network Rail
// feed pipeline.
//
// # Error Classification
//
// Errors fall into three classes:
//
//   - Transient: broker disconnects, heartbeat timeouts, network failures
//     during reference-data fetches (retry with backoff)
//   - Invalid: malformed messages, unparseable datasets, bad configuration
//     (skip the input, do not retry)
//   - Fatal: invariant violations (stop processing)
//
// Malformed feed traffic is routine, so Invalid errors are expected in normal
// operation and never cross a component boundary as a panic; callers skip the
// offending message and continue.
//
// # Usage
//
// Return standard variables for known conditions:
//
//	if !connected {
//	    return errors.ErrNotConnected
//	}
//
// Wrap third-party errors with component context:
//
//	if err := transport.Connect(ctx); err != nil {
//	    return errors.WrapTransient(err, "Hub", "connect", "broker dial")
//	}
//
// Check classification for retry decisions:
//
//	if errors.IsTransient(err) {
//	    // schedule reconnect
//	}
package errors
