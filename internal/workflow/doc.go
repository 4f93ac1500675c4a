// Package workflow drives queued downloads through their lifecycle.
//
// The Manager polls the queue for pending items and moves each one through
// searching, grabbing, and downloading before organizing the fetched file
// into the library. Failures are captured on the item; transient errors go
// back to pending for another attempt. The manager owns its goroutines and
// stops cleanly when asked.
package workflow
