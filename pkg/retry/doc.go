// Package retry provides simple exponential backoff retry logic for transient failures.
//
// # Overview
//
// Two primitives cover the pipeline's retry needs:
//
//   - Do: bounded retry of an operation (reference-data fetches)
//   - Backoff: an unbounded delay sequence for reconnect loops, where the
//     caller loops forever and only shutdown stops it (the hub's broker
//     connection worker)
//
// Both honour context cancellation during the backoff sleep, so shutdown is
// never delayed by a pending retry.
//
// # Usage
//
//	b := retry.NewBackoff(5*time.Second, time.Minute)
//	for {
//	    if err := connect(ctx); err != nil {
//	        if retry.Sleep(ctx, b.Next()) != nil {
//	            return // shutting down
//	        }
//	        continue
//	    }
//	    b.Reset()
//	    ...
//	}
package retry
