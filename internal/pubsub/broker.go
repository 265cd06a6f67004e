package pubsub

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// TopicRecords carries every world-record announcement across all maps.
// MapTopic narrows the feed to one map.
const TopicRecords = "records"

func MapTopic(mapID uint) string {
	return fmt.Sprintf("records:%d", mapID)
}

// Broker is a simple in-memory pub/sub fan-out used to push world-record
// announcements to websocket clients. Subscribers that fall behind lose
// messages instead of blocking the publisher; a record feed has no replay
// requirement, so nothing is cached.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string][]chan []byte
}

func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[string][]chan []byte),
	}
}

// Subscribe registers for live messages on a topic and returns the channel
// plus an unsubscribe func that also closes it.
func (b *Broker) Subscribe(topic string) (<-chan []byte, func()) {
	b.mu.Lock()
	ch := make(chan []byte, 16)
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subscribers := b.subscribers[topic]
		for i, sub := range subscribers {
			if sub == ch {
				b.subscribers[topic] = append(subscribers[:i], subscribers[i+1:]...)
				close(ch)
				break
			}
		}
		zap.S().Debugf("unsubscribed from topic %s", topic)
	}

	zap.S().Debugf("new subscription to topic %s", topic)
	return ch, unsubscribe
}

// Publish delivers a message to all current subscribers of a topic without
// blocking on slow ones.
func (b *Broker) Publish(topic string, msg []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- msg:
		default:
			// Slow client, drop the message for them.
		}
	}
}
