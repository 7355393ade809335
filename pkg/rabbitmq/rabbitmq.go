package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Thin wrapper around amqp091-go used by the notification event publisher.

func Connect(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	return conn, ch, nil
}

func DeclareExchange(ch *amqp.Channel, name, typ string) error {
	return ch.ExchangeDeclare(
		name,
		typ,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
}

func PublishToExchange(ch *amqp.Channel, exchange, key string, body []byte) error {
	err := ch.Publish(
		exchange,
		key,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to exchange %s: %w", exchange, err)
	}
	return nil
}
