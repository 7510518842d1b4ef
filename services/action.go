package services

import (
	"context"
	"crm-realtime/contract"
	"crm-realtime/domain"
	"crm-realtime/domain/event"
	crmerrors "crm-realtime/errors"
)

// Action is one kind of inbound event: Validate turns the raw payload into typed fields,
// Execute runs the effects. Nothing is persisted or broadcast when Validate fails.
type Action[T any] struct {
	Validate func(ctx context.Context, payload []byte) (T, error)
	Execute  func(ctx context.Context, fields T) error
}

func (a Action[T]) Handle(ctx context.Context, payload []byte) error {
	fields, err := a.Validate(ctx, payload)
	if err != nil {
		return err
	}
	return a.Execute(ctx, fields)
}

// broadcast encodes the envelope and hands it to the publisher.
func broadcast(ctx context.Context, p contract.Publisher, group domain.GroupName, envelope any) error {
	payload, err := event.Encode(envelope)
	if err != nil {
		return err
	}
	if err := p.Publish(ctx, group, payload); err != nil {
		return crmerrors.BackingStore("publish "+string(group), err)
	}
	return nil
}
