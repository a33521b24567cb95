// Package event provides the publish/subscribe bus that carries block
// mutations and toolbar notifications from the editing core to the
// surrounding UI.
//
// Publishers never wait on subscribers in async mode: the editing core
// reports what changed and moves on. Sync delivery is available for
// subscribers that must observe a change before the publisher returns, and
// for tests.
//
// Basic usage:
//
//	bus := event.NewBus()
//	bus.Start()
//	defer bus.Stop(ctx)
//
//	bus.SubscribeFunc("blocks.*", func(ctx context.Context, ev any) error {
//	    e := ev.(event.Event[event.BlockPayload])
//	    fmt.Println(e.Type, e.Payload.ID)
//	    return nil
//	})
//
//	bus.PublishAsync(ctx, event.NewEvent(event.TopicBlockInserted, payload, "manager"))
package event
