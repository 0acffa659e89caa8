// Package engine implements the mrqart client event loop.
//
// The engine is the heart of the client: it receives push frames, decides
// whether the view needs a full-state resync, applies pull results, and
// publishes snapshots of the station view to subscribers.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Frames, pull results and injected records are queued and handled in one
// goroutine. The station.Store is touched only there, so there is no
// locking around view state and handling order is queue order.
//
// Event Processing Flow:
//  1. Producers (push reader, pull goroutines, debug injection) call Enqueue
//  2. Engine.Run dequeues events one at a time
//  3. dispatch parses frames: "new" renders, "update" goes to the reconciler
//  4. The reconciler launches one pull per update while the view is empty
//  5. Pull goroutines enqueue their result; the loop rebuilds the view
//  6. Every handled event is journaled with its verdict
//
// The queue is bounded. Enqueue blocks while it is full, so a slow loop
// slows the push reader instead of dropping frames.
//
// Freshness:
// The view is "empty" until any record has been rendered, and it never
// becomes empty again. Only updates seen while empty trigger pulls.
//
// Overlapping pulls are not sequenced: each completion is applied as it is
// handled and the last handled wins.
package engine
