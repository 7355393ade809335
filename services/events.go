package services

import (
	"encoding/json"
	"log"
	"strings"

	"optimile-backend-go/models"
	"optimile-backend-go/pkg/rabbitmq"

	amqp "github.com/rabbitmq/amqp091-go"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

// EventBus fans engine events out to socket.io rooms (realtime UI) and the
// RabbitMQ notification exchange (external dispatch layer). It satisfies
// engine.Emitter.
type EventBus struct {
	Io       *socketio.Server
	Ch       *amqp.Channel
	Exchange string
}

func (b *EventBus) Emit(ev models.Event) {
	if b.Io != nil {
		b.Io.To(socketio.Room("lane:"+ev.LaneID)).Emit("auction_event", ev)
		if ev.VendorID != "" {
			b.Io.To(socketio.Room("vendor:"+ev.VendorID)).Emit("auction_event", ev)
		}
	}

	if b.Ch != nil {
		body, err := json.Marshal(ev)
		if err != nil {
			log.Printf("event marshal failed: %v", err)
			return
		}
		key := "auction." + strings.ToLower(ev.Type)
		if err := rabbitmq.PublishToExchange(b.Ch, b.Exchange, key, body); err != nil {
			// Notification delivery is best effort; auction state already moved.
			log.Printf("event publish failed: %v", err)
		}
	}
}
