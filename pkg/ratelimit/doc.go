// Package ratelimit groups the limiters used to pace operation producers:
//
//   - bucket: token bucket limiting how often operations start
//   - concurrency: semaphore limiting how many operations run at once
//
// Both are safe for concurrent use and honor context cancellation, so an
// aborted request stops waiting for its turn.
package ratelimit
