/*
Package events provides a lightweight publish/subscribe broker for fleet
events.

The monitoring engine publishes an event on every recorded sample, status
transition and high-usage breach; interested consumers (the serve command's
event logger, tests) subscribe and receive events on a buffered channel.
Slow subscribers have events dropped rather than blocking the broker.

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	for event := range sub {
		// handle event
	}

Event delivery is best-effort and in-process only; durable records of
operator-facing events are notifications, not events.
*/
package events
