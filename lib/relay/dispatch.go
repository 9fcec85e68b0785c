package relay

import (
	"context"
	"fmt"
	"time"
)

// Client request events
const (
	EventSetData                = "set_data"
	EventGetData                = "get_data"
	EventSubscribeCollections   = "subscribe_collections"
	EventUnsubscribeCollections = "unsubscribe_collections"
)

// Dispatch runs one client request and delivers the result to ack, exactly once
// if ack is not nil. Validation, store and decode failures as well as panics in a
// handler are converted into a negative response and logged; they never reach
// the caller.
func (r *Relay) Dispatch(ctx context.Context, s *Session, event string, payload any, ack AckFunc) {
	start := time.Now()
	resp, err := r.handle(ctx, s, event, payload)
	requestObserved(event, start)

	if err != nil {
		resp = failed(clientMessage(err))
		kind := KindOf(err)
		requestFailed(event, kind)
		switch kind {
		case KindValidation:
			Logger.Infof("[session %s] %s rejected: %v", s.id, event, err)
		case KindDecode:
			Logger.Warningf("[session %s] %s failed: %v", s.id, event, err)
		default:
			Logger.Errorf("[session %s] %s failed: %v", s.id, event, err)
		}
	}

	if ack != nil {
		ack(resp)
	}
}

// handle decodes the payload and calls the handler of the event
func (r *Relay) handle(ctx context.Context, s *Session, event string, payload any) (resp Response, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in %s handler: %v", event, p)
		}
	}()

	switch event {
	case EventSetData:
		req, err := DecodeSetData(payload)
		if err != nil {
			return Response{}, err
		}
		return r.SetData(ctx, s, req)

	case EventGetData:
		req, err := DecodeGetData(payload)
		if err != nil {
			return Response{}, err
		}
		return r.GetData(ctx, s, req)

	case EventSubscribeCollections:
		names, err := DecodeCollections(payload)
		if err != nil {
			return Response{}, err
		}
		return r.Subscribe(ctx, s, names)

	case EventUnsubscribeCollections:
		names, err := DecodeCollections(payload)
		if err != nil {
			return Response{}, err
		}
		return r.Unsubscribe(ctx, s, names)

	default:
		return Response{}, validationError("Unknown event " + event)
	}
}

// clientMessage returns the message shown to the client for err
func clientMessage(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Msg
	}
	return "An error occurred"
}
