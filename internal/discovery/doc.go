// Package discovery tracks the participants, endpoints and types announced on
// the network and fans endpoint discoveries out to registered listeners.
//
// Listeners are plain single-method capabilities injected at construction time:
//
//	db := discovery.NewDatabase(logger)
//	db.Subscribe(discovery.NewBridge(registry))
//
// Database notifies listeners from whichever goroutine reported the discovery,
// so listeners must be safe for concurrent use.
package discovery
