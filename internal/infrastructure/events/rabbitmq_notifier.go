// Package events publica los avisos de cambio de estado hacia el servicio de notificaciones push.
package events

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wagslane/go-rabbitmq"

	"github.com/jhoicas/materiales-api/internal/application/ports"
	"github.com/jhoicas/materiales-api/pkg/config"
)

// RequestStatusRoutingKey routing key de los cambios de estado de solicitudes.
const RequestStatusRoutingKey = "material_request.status_changed"

var _ ports.Notifier = (*RabbitNotifier)(nil)

// confirmPublisher lo que el notifier usa de *rabbitmq.Publisher.
type confirmPublisher interface {
	PublishWithDeferredConfirmWithContext(ctx context.Context, data []byte, routingKeys []string, optionFuncs ...func(*rabbitmq.PublishOptions)) (rabbitmq.PublisherConfirmation, error)
	Close()
}

// RabbitNotifier publica eventos JSON persistentes en un exchange topic y espera el confirm del broker.
type RabbitNotifier struct {
	pub      confirmPublisher
	conn     *rabbitmq.Conn
	exchange string
	timeout  time.Duration
}

// NewRabbitNotifier abre la conexión administrada (con reconexión) y el publisher con confirms.
func NewRabbitNotifier(cfg config.MQConfig) (*RabbitNotifier, error) {
	connOpts := []func(*rabbitmq.ConnectionOptions){
		rabbitmq.WithConnectionOptionsReconnectInterval(5 * time.Second),
	}
	amqpCfg := rabbitmq.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(30 * time.Second),
	}
	if cfg.TLS {
		rootCAs, _ := x509.SystemCertPool()
		amqpCfg.TLSClientConfig = &tls.Config{RootCAs: rootCAs, MinVersion: tls.VersionTLS12}
	}
	connOpts = append(connOpts, rabbitmq.WithConnectionOptionsConfig(amqpCfg))

	conn, err := rabbitmq.NewConn(cfg.URL(), connOpts...)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: conectar: %w", err)
	}
	pub, err := rabbitmq.NewPublisher(
		conn,
		rabbitmq.WithPublisherOptionsExchangeName(cfg.Exchange),
		rabbitmq.WithPublisherOptionsExchangeKind("topic"),
		rabbitmq.WithPublisherOptionsExchangeDurable,
		rabbitmq.WithPublisherOptionsExchangeDeclare,
		rabbitmq.WithPublisherOptionsConfirm,
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: publisher: %w", err)
	}
	n := newRabbitNotifier(pub, cfg.Exchange)
	n.conn = conn
	return n, nil
}

func newRabbitNotifier(pub confirmPublisher, exchange string) *RabbitNotifier {
	return &RabbitNotifier{pub: pub, exchange: exchange, timeout: 5 * time.Second}
}

// NotifyRequestStatus publica el evento y espera el ack del broker.
func (n *RabbitNotifier) NotifyRequestStatus(ctx context.Context, e ports.RequestStatusEvent) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("rabbitmq: serializar evento: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	confirms, err := n.pub.PublishWithDeferredConfirmWithContext(ctx, body,
		[]string{RequestStatusRoutingKey},
		rabbitmq.WithPublishOptionsExchange(n.exchange),
		rabbitmq.WithPublishOptionsContentType("application/json"),
		rabbitmq.WithPublishOptionsPersistentDelivery,
		rabbitmq.WithPublishOptionsMessageID(uuid.New().String()),
		rabbitmq.WithPublishOptionsTimestamp(e.OccurredAt),
		rabbitmq.WithPublishOptionsHeaders(rabbitmq.Table{
			"worker_id": e.WorkerID,
			"status":    e.Status,
		}),
	)
	if err != nil {
		return fmt.Errorf("rabbitmq: publicar: %w", err)
	}
	for _, c := range confirms {
		if c == nil {
			continue
		}
		ok, err := c.WaitContext(ctx)
		if err != nil {
			return fmt.Errorf("rabbitmq: esperar confirm: %w", err)
		}
		if !ok {
			return fmt.Errorf("rabbitmq: el broker rechazó el evento %s", e.RequestID)
		}
	}
	return nil
}

// Close cierra publisher y conexión.
func (n *RabbitNotifier) Close() error {
	n.pub.Close()
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
