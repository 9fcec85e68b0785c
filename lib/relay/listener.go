package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/akeylesspro/nx-data-socket/lib/store"
)

// EventCollectionUpdate is pushed to every subscriber of a changed collection
const EventCollectionUpdate = "collection_update"

// ChangeNotification is a change event decoded from a notification channel and body.
type ChangeNotification struct {
	Collection string
	DocumentID string
	// ChangeType is the "type" field of the payload, informational only
	ChangeType string
	Payload    any
}

// ParseChangeNotification decodes a notification published on
// "<prefix>:<collection>:<documentId>". The payload must be JSON; its "id" and
// "type" fields are picked up when present but not required.
func ParseChangeNotification(prefix string, n store.Notification) (ChangeNotification, error) {
	parts := strings.SplitN(n.Channel, ":", 3)
	if len(parts) < 3 || parts[0] != prefix {
		return ChangeNotification{}, validationError(fmt.Sprintf("malformed channel %q", n.Channel))
	}

	var payload any
	if err := json.Unmarshal(n.Payload, &payload); err != nil {
		return ChangeNotification{}, decodeError(fmt.Sprintf("invalid payload on %s", n.Channel), err)
	}

	c := ChangeNotification{
		Collection: parts[1],
		DocumentID: parts[2],
		Payload:    payload,
	}
	if obj, ok := payload.(map[string]any); ok {
		if id, ok := obj["id"].(string); ok && id != "" {
			c.DocumentID = id
		}
		if t, ok := obj["type"].(string); ok {
			c.ChangeType = t
		}
	}
	return c, nil
}

// HandleNotification forwards a store notification to the room of its collection
// and returns the number of sessions it was queued for. Malformed notifications
// are logged and discarded.
func (r *Relay) HandleNotification(n store.Notification) int {
	change, err := ParseChangeNotification(r.cfg.DataUpdatePrefix, n)
	if err != nil {
		Logger.Warningf("discarding notification: %v", err)
		notificationDiscarded(KindOf(err))
		return 0
	}
	notificationReceived()

	delivered := 0
	for _, s := range r.rooms.members(change.Collection) {
		if s.peer.TryEmit(EventCollectionUpdate, change.Payload) {
			delivered++
			continue
		}
		eventDropped()
		Logger.Warningf("[session %s] dropped %s for %s/%s, send queue full", s.id, EventCollectionUpdate, change.Collection, change.DocumentID)
	}
	Logger.Debugf("%s change of %s/%s sent to %d sessions", change.ChangeType, change.Collection, change.DocumentID, delivered)
	return delivered
}

// Listen subscribes to the notification pattern and forwards notifications until
// the context is canceled. It returns an error if the subscription fails or ends
// while the context is still active.
func (r *Relay) Listen(ctx context.Context) error {
	pattern := r.cfg.NotificationPattern()
	sub, err := r.store.PSubscribe(ctx, pattern)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", pattern, err)
	}
	defer func() {
		if err := sub.Close(); err != nil {
			Logger.Warningf("closing subscription %s: %v", pattern, err)
		}
	}()

	Logger.Infof("listening for changes on %s", pattern)
	ch := sub.Notifications()
	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-ch:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("notification subscription closed")
			}
			r.HandleNotification(n)
		}
	}
}
