package services

import (
	"context"
	"time"

	"github.com/rajarshidattapy/anymind-qd/internal/vectorstore"
)

// mutatePayload reads a record, applies fn and writes the payload back with
// SetPayload so vectors are kept. It returns nil when the record is absent.
//
// This is a plain read-modify-write: two callers updating the same record
// concurrently can lose one update. All counter, aggregate and merge updates
// go through here or upsertPayload so a conditional write can replace them
// in one place.
func mutatePayload(ctx context.Context, c vectorstore.Client, collection, id string, fn func(vectorstore.Payload)) (vectorstore.Payload, error) {
	rec, err := c.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	p := rec.Payload
	if p == nil {
		p = vectorstore.Payload{}
	}
	fn(p)
	p.Touch(time.Now())
	if err := c.SetPayload(ctx, collection, id, p); err != nil {
		return nil, err
	}
	return p, nil
}

// incrementCounter adds delta to a numeric payload field.
func incrementCounter(ctx context.Context, c vectorstore.Client, collection, id, key string, delta float64) (vectorstore.Payload, error) {
	return mutatePayload(ctx, c, collection, id, func(p vectorstore.Payload) {
		current, _ := p.Number(key)
		p[key] = current + delta
	})
}

// upsertPayload is mutatePayload for records that may not exist yet. A
// missing record starts from a fresh base payload of recordType; an existing
// one keeps its created_at. fn sees the payload before it is written back.
func upsertPayload(ctx context.Context, c vectorstore.Client, collection, id, recordType string, fn func(vectorstore.Payload)) (vectorstore.Payload, error) {
	rec, err := c.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	now := nowUTC()
	if rec == nil {
		p := newPayload(recordType, now)
		fn(p)
		if err := c.Upsert(ctx, collection, id, p, nil); err != nil {
			return nil, err
		}
		return p, nil
	}

	p := rec.Payload
	if p == nil {
		p = newPayload(recordType, now)
	}
	fn(p)
	p.Touch(now)
	if err := c.SetPayload(ctx, collection, id, p); err != nil {
		return nil, err
	}
	return p, nil
}
