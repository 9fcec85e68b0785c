package client

import (
	"context"

	"github.com/akeylesspro/nx-data-socket/lib/relay"
)

// SetData writes data under key
func (c *Client) SetData(ctx context.Context, key string, data any) (relay.Response, error) {
	return c.Request(ctx, relay.EventSetData, map[string]any{
		"key":  key,
		"data": data,
	})
}

// Enqueue asks the server to publish a durable write request for
// collection/documentId. operation is one of set, update or delete; merge may be nil.
func (c *Client) Enqueue(ctx context.Context, collection, documentID string, data any, operation string, merge *bool) (relay.Response, error) {
	payload := map[string]any{
		"collectionName":    collection,
		"documentId":        documentID,
		"data":              data,
		"persistToFirebase": true,
	}
	if operation != "" {
		payload["firebaseOperation"] = operation
	}
	if merge != nil {
		payload["firebaseMerge"] = *merge
	}
	return c.Request(ctx, relay.EventSetData, payload)
}

// GetData reads the value stored under key
func (c *Client) GetData(ctx context.Context, key string) (relay.Response, error) {
	return c.Request(ctx, relay.EventGetData, map[string]any{"key": key})
}

// GetDocument reads the document collection/documentID
func (c *Client) GetDocument(ctx context.Context, collection, documentID string) (relay.Response, error) {
	return c.Request(ctx, relay.EventGetData, map[string]any{
		"collectionName": collection,
		"documentId":     documentID,
	})
}

// Subscribe subscribes to collections. Their snapshots arrive as
// "initial_data:<collection>" events before this call returns.
func (c *Client) Subscribe(ctx context.Context, collections ...string) (relay.Response, error) {
	return c.Request(ctx, relay.EventSubscribeCollections, collections)
}

// Unsubscribe unsubscribes from collections
func (c *Client) Unsubscribe(ctx context.Context, collections ...string) (relay.Response, error) {
	return c.Request(ctx, relay.EventUnsubscribeCollections, collections)
}
