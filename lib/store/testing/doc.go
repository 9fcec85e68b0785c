// Package testing provides a standardised test suite for store implementations
// that satisfy the store.IStore interface.
//
// The suite validates the keyed operations (Get, Set, MGet, Keys) and the
// publish/subscribe contract (PSubscribe pattern matching, Publish, closing
// subscriptions) that the relay relies on.
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func(t *testing.T) store.IStore {
//		return NewMyStore()
//	}
//
//	// Running the standard test suite
//	storetesting.RunStoreTests(t, "MyStore", factory)
package testing
