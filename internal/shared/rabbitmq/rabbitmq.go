package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"git.platform.alem.school/amibragim/shop-events/internal/shared/contracts"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/logger"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/metrics"

	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrNotConnected = errors.New("rabbitmq: channel is not open")

// Channel is the subset of *amqp.Channel the services use. It is the single
// mutator of broker state in a process.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	Close() error
}

// DialFunc opens a connection and a channel on it.
type DialFunc func(url string) (io.Closer, Channel, error)

// SleepFunc waits for d and reports false if ctx ended first.
type SleepFunc func(ctx context.Context, d time.Duration) bool

// State is the lifecycle of the process-wide connection.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

// Client owns the one connection/channel pair of a process. Pass it explicitly
// to publishers and consumers; it is safe for concurrent use.
type Client struct {
	url     string
	logger  *logger.Logger
	metrics *metrics.Registry
	dial    DialFunc
	sleep   SleepFunc

	state atomic.Int32
	conn  io.Closer
	ch    Channel

	closeOnce sync.Once
	closed    chan struct{}
	lost      chan struct{}
}

// Option customizes a Client.
type Option func(*Client)

// WithDialer replaces the AMQP dialer.
func WithDialer(dial DialFunc) Option {
	return func(c *Client) { c.dial = dial }
}

// WithSleep replaces the backoff sleeper.
func WithSleep(sleep SleepFunc) Option {
	return func(c *Client) { c.sleep = sleep }
}

// WithMetrics records connect attempts in the registry.
func WithMetrics(reg *metrics.Registry) Option {
	return func(c *Client) { c.metrics = reg }
}

// NewClient creates a disconnected client. Call Open to connect it.
func NewClient(url string, log *logger.Logger, opts ...Option) *Client {
	client := &Client{
		url:    url,
		logger: log,
		dial:   dialAMQP,
		sleep:  sleepWithContext,
		closed: make(chan struct{}),
		lost:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Connect creates a client and blocks in Open until it is connected.
func Connect(ctx context.Context, url string, log *logger.Logger, opts ...Option) (*Client, error) {
	client := NewClient(url, log, opts...)
	if err := client.Open(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// Open blocks until a channel is open and the shared exchange is declared.
// Failed attempts are retried forever with Backoff(attempt); the only error it
// returns is the context's, when shutdown is requested while retrying.
// Until Open succeeds, Channel reports ErrNotConnected.
func (client *Client) Open(ctx context.Context) error {
	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			client.setState(StateDisconnected)
			return err
		}

		client.setState(StateConnecting)
		start := time.Now()
		err := client.connectOnce()
		if err == nil {
			client.metrics.RecordConnectAttempt(true)
			chClosed := client.ch.NotifyClose(make(chan *amqp.Error, 1))
			client.setState(StateConnected)
			client.logger.Info(ctx, "rabbitmq_connected",
				fmt.Sprintf("Connected to RabbitMQ; exchange: %s", contracts.Exchange),
				map[string]any{"attempts": attempt + 1, "duration_ms": time.Since(start).Milliseconds()})
			go client.watch(chClosed)
			return nil
		}

		attempt++
		delay := Backoff(attempt)
		client.metrics.RecordConnectAttempt(false)
		client.setState(StateFailed)
		client.logger.Warn(ctx, "rabbitmq_connect_failed",
			fmt.Sprintf("RabbitMQ connect failed (attempt %d), retrying in %dms", attempt, delay.Milliseconds()),
			map[string]any{"attempt": attempt, "backoff_ms": delay.Milliseconds(), "error": err.Error()})

		if !client.sleep(ctx, delay) {
			client.setState(StateDisconnected)
			return ctx.Err()
		}
	}
}

// State returns the current connection state.
func (client *Client) State() State {
	return State(client.state.Load())
}

// Channel returns the shared channel.
func (client *Client) Channel() (Channel, error) {
	if client.State() != StateConnected || client.ch == nil {
		return nil, ErrNotConnected
	}
	return client.ch, nil
}

// Lost is closed when the broker drops the connection or channel after a
// successful Connect. The client does not redial by itself.
func (client *Client) Lost() <-chan struct{} {
	return client.lost
}

// Close releases the channel and connection. It is safe to call more than
// once and from several goroutines.
func (client *Client) Close() {
	client.closeOnce.Do(func() {
		close(client.closed)

		client.setState(StateDisconnected)
		if client.ch != nil {
			_ = client.ch.Close()
		}
		if client.conn != nil {
			_ = client.conn.Close()
		}
	})
}

// --- internals ---

func (client *Client) setState(s State) {
	client.state.Store(int32(s))
}

// connectOnce dials and declares the shared exchange.
func (client *Client) connectOnce() error {
	conn, ch, err := client.dial(client.url)
	if err != nil {
		return err
	}

	if err := ch.ExchangeDeclare(contracts.Exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange %s: %w", contracts.Exchange, err)
	}

	client.conn = conn
	client.ch = ch
	return nil
}

// watch flips the state to failed once the channel closes underneath us.
func (client *Client) watch(chClosed <-chan *amqp.Error) {
	select {
	case <-client.closed:
		return
	case amqpErr := <-chClosed:
		// our own Close() also fires NotifyClose
		select {
		case <-client.closed:
			return
		default:
		}

		client.setState(StateFailed)
		if amqpErr != nil {
			client.logger.Error(context.Background(), "rabbitmq_connection_lost", "RabbitMQ channel closed", amqpErr)
		} else {
			client.logger.Error(context.Background(), "rabbitmq_connection_lost", "RabbitMQ channel closed", errors.New("channel closed"))
		}
		close(client.lost)
	}
}

// dialAMQP uses DialConfig to set heartbeat and TCP dial timeout.
func dialAMQP(url string) (io.Closer, Channel, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(10 * time.Second),
	})
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	return conn, ch, nil
}

// sleepWithContext sleeps for the given duration or returns early if ctx is done.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Health reports the connection state for /healthz.
func (client *Client) Health(context.Context) (string, bool) {
	s := client.State()
	return s.String(), s == StateConnected
}
