package service

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"github.com/parleyhq/parley/pubsub"
	"github.com/parleyhq/parley/types"
)

var (
	publishesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_event_publishes_total",
		Help: "Realtime event publishes attempted, by event name.",
	}, []string{"event"})

	publishFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_event_publish_failures_total",
		Help: "Realtime event publishes that failed, by event name.",
	}, []string{"event"})
)

// fanoutToUsers publishes one copy of the event to each audience member's
// private topic, so a client only ever subscribes to its own topic to
// receive everything addressed to it. Delivery is at-most-once and
// best-effort: failures are logged and counted, never retried. The
// durable write already happened, so a dropped publish only delays
// visibility until the next full reload.
func (svc *Service) fanoutToUsers(name string, payload any, audience []string) error {
	b, err := types.EncodeEvent(name, payload)
	if err != nil {
		return err
	}

	var g errgroup.Group
	for _, userID := range audience {
		topic := pubsub.UserTopic(userID)
		g.Go(func() error {
			publishesTotal.WithLabelValues(name).Inc()
			if err := svc.PubSub.Pub(topic, b); err != nil {
				publishFailuresTotal.WithLabelValues(name).Inc()
				svc.Logger.Error("publish event", "event", name, "topic", topic, "err", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// broadcast publishes once to a shared topic: every current subscriber
// receives it, with no per-identity routing. Same best-effort contract as
// fanoutToUsers.
func (svc *Service) broadcast(topic, name string, payload any) error {
	b, err := types.EncodeEvent(name, payload)
	if err != nil {
		return err
	}

	publishesTotal.WithLabelValues(name).Inc()
	if err := svc.PubSub.Pub(topic, b); err != nil {
		publishFailuresTotal.WithLabelValues(name).Inc()
		svc.Logger.Error("broadcast event", "event", name, "topic", topic, "err", err)
	}
	return nil
}

// eventStream subscribes to a topic and exposes it as a channel of decoded
// envelopes until done closes. The channel is never closed; consumers stop
// on their own done signal. A consumer that stops listening before done
// closes would block publishers, so sends also select on done.
func (svc *Service) eventStream(topic string, done <-chan struct{}) (<-chan types.Event, error) {
	events := make(chan types.Event)
	unsub, err := svc.PubSub.Sub(topic, func(data []byte) {
		ev, err := types.DecodeEvent(data)
		if err != nil {
			svc.Logger.Error("decode streamed event", "topic", topic, "err", err)
			return
		}

		select {
		case events <- ev:
		case <-done:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	go func() {
		<-done
		if err := unsub(); err != nil {
			svc.Logger.Error("unsubscribe stream", "topic", topic, "err", err)
		}
	}()

	return events, nil
}
