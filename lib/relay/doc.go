// Package relay implements the real-time synchronization core: it bridges the
// publish/subscribe channel of a store.IStore with a set of client sessions.
//
// Key Components:
//
//   - Session: The server side state of one connection, its identity and the
//     collections it is subscribed to. Outbound events are handed to the
//     connection's Peer.
//
//   - Subscription Manager (Subscribe, Unsubscribe): Joins and leaves collection
//     rooms. A new subscription is hydrated with a snapshot of all documents
//     stored under "<collection>:", sent as "initial_data:<collection>" before the
//     request is acknowledged.
//
//   - Direct Access Gateway (SetData, GetData): Keyed reads and writes against the
//     store. Writes flagged for durable persistence are published as WriteRequest
//     to "<write-request-prefix>:<collection>" instead of being stored.
//
//   - Change Propagation Listener (Listen, HandleNotification): Subscribes to
//     "<data-update-prefix>:*" and multicasts every decoded change to the room of
//     its collection as a "collection_update" event.
//
//   - Dispatcher (Dispatch): Decodes a client request into its typed form, runs
//     the handler and turns the result into exactly one Response for the request's
//     AckFunc. Failures are classified by ErrorKind and logged.
//
// Concurrency:
//
// Every method is safe for concurrent use. Rooms are copy-on-write member sets in
// an xsync.MapOf, so a broadcast works on a stable snapshot while sessions join
// and leave. The subscription set of a session is guarded by the session itself;
// subscribing, unsubscribing and disconnecting keep it equal to the rooms the
// session is in.
//
// Delivery is at most once. The order of a snapshot and a concurrent
// collection_update for the same collection is not defined.
//
// Usage Example:
//
//	r := relay.New(st, relay.DefaultConfig())
//	go r.Listen(ctx)
//
//	s, _ := r.Connect(id, peer)
//	defer r.Disconnect(s)
//	r.Dispatch(ctx, s, "subscribe_collections", []any{"units"}, func(resp relay.Response) {
//		// ...
//	})
package relay
