// Package client implements a Go client for the relay server. It speaks the same
// protocol as browser clients and is used by the CLI and the server tests.
//
// Key Components:
//
//   - Dial: Connects through any client transport (ws, tcp, unix) with the
//     serializer the server uses.
//
//   - Request / Emit: Send a request and wait for its acknowledgement, or fire
//     and forget. Acks are matched to requests by id; every request gets a new
//     id from an atomic counter.
//
//   - On: Registers handlers for pushed events (initial_data:<collection>,
//     subscription_error:<collection>, collection_update). Handlers run on the
//     read goroutine in arrival order, so a snapshot handler has run before the
//     matching Subscribe call returns.
//
//   - SetData, Enqueue, GetData, GetDocument, Subscribe, Unsubscribe: Typed
//     helpers for the relay events.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  Endpoint:      "ws://localhost:8080/api/data-socket/connect",
//	  Transport:     "ws",
//	  Serializer:    "json",
//	  TimeoutSecond: 5,
//	}
//	c, _ := client.Dial(ctx, config, ws.NewWSClientTransport(), serializer.NewJSONSerializer())
//	defer c.Close()
//
//	c.On("collection_update", func(event string, payload any) {
//	  fmt.Println(payload)
//	})
//	_, _ = c.Subscribe(ctx, "units")
//
// Thread Safety:
//
//	All methods are safe for concurrent use.
package client
