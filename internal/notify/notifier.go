package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
)

// Notifier delivers one message to the real-time fan-out service.
type Notifier interface {
	Publish(ctx context.Context, channel, eventName string, payload any) error
}

// Dispatcher forwards committed state changes to a Notifier without blocking the caller.
type Dispatcher interface {
	Dispatch(events ...*domain.Event)
}

// Channel returns the per-hotel routing channel for an entity type.
func Channel(hotelID, entityType string) string {
	return fmt.Sprintf("hotel.%s.%s", hotelID, entityType)
}

type AsyncDispatcher struct {
	notifier Notifier
	logger   *logrus.Logger
	timeout  time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a fire-and-forget dispatcher. Delivery failures are
// logged and never surface to the operation that produced the event.
func NewDispatcher(notifier Notifier, logger *logrus.Logger, timeout time.Duration) *AsyncDispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AsyncDispatcher{notifier: notifier, logger: logger, timeout: timeout}
}

// Dispatch publishes events in the background. After Wait has been called
// events are dropped with a warning.
func (d *AsyncDispatcher) Dispatch(events ...*domain.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		for _, ev := range events {
			if ev != nil {
				d.logger.WithFields(logrus.Fields{
					"event":     ev.Name,
					"entity_id": ev.EntityID,
					"hotel_id":  ev.HotelID,
				}).Warn("dispatcher closed, event dropped")
			}
		}
		return
	}

	for _, ev := range events {
		if ev == nil {
			continue
		}
		d.wg.Add(1)
		go func(ev *domain.Event) {
			defer d.wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()

			if err := d.notifier.Publish(ctx, Channel(ev.HotelID, ev.EntityType), ev.Name, ev); err != nil {
				d.logger.WithFields(logrus.Fields{
					"event":     ev.Name,
					"entity_id": ev.EntityID,
					"hotel_id":  ev.HotelID,
				}).WithError(err).Warn("notification publish failed")
			}
		}(ev)
	}
}

// Wait stops accepting events and blocks until in-flight deliveries finish.
// Used on shutdown.
func (d *AsyncDispatcher) Wait() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}

type discard struct{}

// Discard drops every event.
var Discard Dispatcher = discard{}

func (discard) Dispatch(...*domain.Event) {}

// LogNotifier writes events to the log. It stands in for the broker when
// no AMQP URL is configured.
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Publish(_ context.Context, channel, eventName string, payload any) error {
	n.logger.WithFields(logrus.Fields{
		"channel": channel,
		"event":   eventName,
		"payload": payload,
	}).Info("notification")
	return nil
}
