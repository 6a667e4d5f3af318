// Package engine runs the explorer's network calls.
//
// ARCHITECTURE:
//
// Single Worker:
// Calls are executed one at a time by the goroutine running Engine.Run, in
// the order they were submitted. This keeps the session's state machine
// simple: responses are applied in exactly the order the server answered
// them, and the journal replays in the same order.
//
// Call Processing Flow:
// 1. Do() enqueues the call on a FIFO queue and waits
// 2. Run() dequeues it and stamps it with Clock.Next()
// 3. The Executor performs the HTTP exchange
// 4. The call is journaled when a store is attached
// 5. The session applies the response; Do() returns
//
// Calls are never retried. A failed call is journaled and applied like any
// other so the session can show why it failed.
//
// Logical Clock:
// Every executed call is stamped with a monotonic seq from Clock.Next().
// Wall-clock time is never used for ordering.
package engine
