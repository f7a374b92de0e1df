// Package rabbitmqtest provides an in-memory stand-in for an AMQP channel.
package rabbitmqtest

import (
	"context"
	"errors"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Binding is a recorded queue binding.
type Binding struct {
	Queue    string
	Key      string
	Exchange string
}

// Published is a recorded publish call.
type Published struct {
	Exchange string
	Key      string
	Msg      amqp.Publishing
}

// Channel records topology and publishes in memory. Declarations behave like
// the broker: re-declaring an identical entity is a no-op.
type Channel struct {
	mu sync.Mutex

	Exchanges   map[string]string // name -> kind
	Queues      map[string]bool   // name -> durable
	Bindings    map[Binding]bool
	Published   []Published
	DeclareCall int

	PublishErr error
	DeclareErr error
	Prefetch   int

	deliveries map[string]chan amqp.Delivery
	notify     []chan *amqp.Error
	closed     bool
}

// NewChannel returns an empty fake channel.
func NewChannel() *Channel {
	return &Channel{
		Exchanges:  map[string]string{},
		Queues:     map[string]bool{},
		Bindings:   map[Binding]bool{},
		deliveries: map[string]chan amqp.Delivery{},
	}
}

func (c *Channel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.DeclareErr != nil {
		return c.DeclareErr
	}
	if existing, ok := c.Exchanges[name]; ok && existing != kind {
		return errors.New("PRECONDITION_FAILED - inequivalent arg 'type' for exchange " + name)
	}
	c.Exchanges[name] = kind
	return nil
}

func (c *Channel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DeclareCall++
	if c.DeclareErr != nil {
		return amqp.Queue{}, c.DeclareErr
	}
	if existing, ok := c.Queues[name]; ok && existing != durable {
		return amqp.Queue{}, errors.New("PRECONDITION_FAILED - inequivalent arg 'durable' for queue " + name)
	}
	c.Queues[name] = durable
	return amqp.Queue{Name: name}, nil
}

func (c *Channel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.Queues[name]; !ok {
		return errors.New("NOT_FOUND - no queue " + name)
	}
	c.Bindings[Binding{Queue: name, Key: key, Exchange: exchange}] = true
	return nil
}

func (c *Channel) Qos(prefetchCount, prefetchSize int, global bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Prefetch = prefetchCount
	return nil
}

func (c *Channel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return c.queue(queue), nil
}

func (c *Channel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return amqp.ErrClosed
	}
	if c.PublishErr != nil {
		return c.PublishErr
	}
	c.Published = append(c.Published, Published{Exchange: exchange, Key: key, Msg: msg})
	return nil
}

func (c *Channel) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notify = append(c.notify, receiver)
	return receiver
}

// Close closes all NotifyClose receivers without an error, as a client-side
// close does.
func (c *Channel) Close() error {
	return c.shutdown(nil)
}

// Drop simulates the broker closing the channel with err.
func (c *Channel) Drop(err *amqp.Error) {
	_ = c.shutdown(err)
}

func (c *Channel) shutdown(err *amqp.Error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	for _, n := range c.notify {
		if err != nil {
			n <- err
		}
		close(n)
	}
	return nil
}

// Deliver pushes a message onto queue as if the broker delivered it.
func (c *Channel) Deliver(queue string, d amqp.Delivery) {
	c.queue(queue) <- d
}

// CloseQueue closes the delivery stream of queue.
func (c *Channel) CloseQueue(queue string) {
	close(c.queue(queue))
}

// Snapshot returns a copy of the published messages.
func (c *Channel) Snapshot() []Published {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Published(nil), c.Published...)
}

func (c *Channel) queue(name string) chan amqp.Delivery {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.deliveries[name]
	if !ok {
		ch = make(chan amqp.Delivery, 64)
		c.deliveries[name] = ch
	}
	return ch
}

// Acknowledger records acks and nacks by delivery tag.
type Acknowledger struct {
	mu     sync.Mutex
	Acked  []uint64
	Nacked []uint64
	OnAck  func(tag uint64)
}

func (a *Acknowledger) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	a.Acked = append(a.Acked, tag)
	hook := a.OnAck
	a.mu.Unlock()
	if hook != nil {
		hook(tag)
	}
	return nil
}

func (a *Acknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Nacked = append(a.Nacked, tag)
	return nil
}

func (a *Acknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

// Counts returns the number of acks and nacks so far.
func (a *Acknowledger) Counts() (acks, nacks int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.Acked), len(a.Nacked)
}
