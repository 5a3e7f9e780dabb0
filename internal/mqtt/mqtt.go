// Package mqtt carries dispatcher commands over an MQTT broker. Commands
// arrive on <prefix>/cmd/<name> with a JSON argument object; results are
// published to <prefix>/result/<name>.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/Mavwarf/cleartone/internal/command"
	"github.com/Mavwarf/cleartone/internal/metrics"
)

const timeout = 5 * time.Second

// Options describes a broker connection.
type Options struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	Username    string
	Password    string
	QoS         byte
}

func (o Options) clientOptions() *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetConnectTimeout(timeout)
	if o.Username != "" {
		opts.SetUsername(o.Username)
	}
	if o.Password != "" {
		opts.SetPassword(o.Password)
	}
	return opts
}

// CommandTopic is where callers publish a named command.
func CommandTopic(prefix, name string) string {
	return prefix + "/cmd/" + name
}

// ResultTopic is where the result of a named command is published.
func ResultTopic(prefix, name string) string {
	return prefix + "/result/" + name
}

// commandName extracts <name> from <prefix>/cmd/<name>.
func commandName(prefix, topic string) (string, bool) {
	name, ok := strings.CutPrefix(topic, prefix+"/cmd/")
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

// Caller runs a named command with a JSON body. *command.Dispatcher
// satisfies it.
type Caller interface {
	CallJSON(ctx context.Context, name string, body []byte, source string) command.Result
}

// Listener subscribes to command topics and answers on result topics.
type Listener struct {
	client pahomqtt.Client
	opts   Options
	caller Caller
	logger *zap.Logger
	ctx    context.Context
}

// Listen connects to the broker and subscribes to <prefix>/cmd/+. The
// subscription is renewed on every reconnect. Commands run with ctx.
func Listen(ctx context.Context, opts Options, caller Caller, logger *zap.Logger) (*Listener, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Listener{opts: opts, caller: caller, logger: logger, ctx: ctx}

	co := opts.clientOptions().
		SetAutoReconnect(true).
		SetOnConnectHandler(l.subscribe).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			logger.Warn("mqtt connection lost", zap.Error(err))
		})
	l.client = pahomqtt.NewClient(co)

	tok := l.client.Connect()
	if !tok.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt: connect timeout")
	}
	if tok.Error() != nil {
		return nil, fmt.Errorf("mqtt: connect: %w", tok.Error())
	}
	return l, nil
}

func (l *Listener) subscribe(c pahomqtt.Client) {
	topic := CommandTopic(l.opts.TopicPrefix, "+")
	tok := c.Subscribe(topic, l.opts.QoS, func(_ pahomqtt.Client, m pahomqtt.Message) {
		l.handle(m.Topic(), m.Payload(), l.publish)
	})
	if !tok.WaitTimeout(timeout) || tok.Error() != nil {
		l.logger.Error("mqtt subscribe failed", zap.String("topic", topic), zap.Error(tok.Error()))
		return
	}
	l.logger.Info("mqtt subscribed", zap.String("broker", l.opts.Broker), zap.String("topic", topic))
}

// handle runs one command message and hands the encoded result to publish.
func (l *Listener) handle(topic string, payload []byte, publish func(topic string, payload []byte) error) {
	name, ok := commandName(l.opts.TopicPrefix, topic)
	if !ok {
		metrics.TransportErrorsTotal.WithLabelValues("mqtt").Inc()
		l.logger.Warn("mqtt message on unexpected topic", zap.String("topic", topic))
		return
	}
	res := l.caller.CallJSON(l.ctx, name, payload, "mqtt")
	out, err := json.Marshal(res)
	if err != nil {
		l.logger.Error("mqtt marshal result", zap.Error(err))
		return
	}
	if err := publish(ResultTopic(l.opts.TopicPrefix, name), out); err != nil {
		metrics.TransportErrorsTotal.WithLabelValues("mqtt").Inc()
		l.logger.Warn("mqtt publish result failed", zap.String("command", name), zap.Error(err))
	}
}

func (l *Listener) publish(topic string, payload []byte) error {
	tok := l.client.Publish(topic, l.opts.QoS, false, payload)
	if !tok.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt: publish timeout")
	}
	return tok.Error()
}

// Close disconnects, giving in-flight work 250 ms to finish.
func (l *Listener) Close() {
	l.client.Disconnect(250)
}

// Publish connects to an MQTT broker, publishes a message to the given
// topic, and disconnects. Each invocation creates a fresh connection.
func Publish(opts Options, topic string, message []byte, retain bool) error {
	client := pahomqtt.NewClient(opts.clientOptions())
	tok := client.Connect()
	if !tok.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt: connect timeout")
	}
	if tok.Error() != nil {
		return fmt.Errorf("mqtt: connect: %w", tok.Error())
	}
	defer client.Disconnect(250)

	pub := client.Publish(topic, opts.QoS, retain, message)
	if !pub.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt: publish timeout")
	}
	if pub.Error() != nil {
		return fmt.Errorf("mqtt: publish: %w", pub.Error())
	}
	return nil
}
