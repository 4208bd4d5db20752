package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	pkgkafka "github.com/utafrali/EcommerceGo/storefront/pkg/kafka"
)

// Kafka topics for storefront session events.
var (
	TopicOrderCreated     = pkgkafka.Topic("order", "created")
	TopicOrderItemAdded   = pkgkafka.Topic("order", "item_added")
	TopicOrderItemRemoved = pkgkafka.Topic("order", "item_removed")
	TopicOrderFinalized   = pkgkafka.Topic("order", "finalized")
	TopicOrderPaid        = pkgkafka.Topic("order", "paid")
	TopicSessionLoggedOut = pkgkafka.Topic("session", "logged_out")
)

// Aggregate types.
const (
	AggregateTypeOrder   = "order"
	AggregateTypeSession = "session"
)

// OrderCreatedData is the payload for an order.created event.
type OrderCreatedData struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
}

// ItemData is the payload for item_added and item_removed events.
type ItemData struct {
	OrderID   string `json:"order_id"`
	ItemID    string `json:"item_id"`
	ProductID string `json:"product_id,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
	UnitPrice int64  `json:"unit_price,omitempty"`
	Total     int64  `json:"total,omitempty"`
}

// OrderFinalizedData is the payload for an order.finalized event.
type OrderFinalizedData struct {
	OrderID         string `json:"order_id"`
	CustomerID      string `json:"customer_id"`
	DeliveryAddress string `json:"delivery_address"`
	ItemCount       int    `json:"item_count"`
	TotalAmount     int64  `json:"total_amount"`
}

// OrderPaidData is the payload for an order.paid event.
type OrderPaidData struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
}

// LoggedOutData is the payload for a session.logged_out event.
type LoggedOutData struct {
	CustomerID string `json:"customer_id"`
}

// Publisher receives session lifecycle events. Implementations must not
// block the caller for long; errors are logged by the caller and never fail
// the operation that triggered them.
type Publisher interface {
	OrderCreated(ctx context.Context, orderID, customerID string) error
	ItemAdded(ctx context.Context, orderID string, item domain.LineItem) error
	ItemRemoved(ctx context.Context, orderID, itemID string) error
	OrderFinalized(ctx context.Context, order *domain.Order) error
	OrderPaid(ctx context.Context, orderID, customerID string) error
	LoggedOut(ctx context.Context, customerID string) error
}

// Producer publishes storefront events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a Kafka-backed event publisher.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// OrderCreated publishes an order.created event.
func (p *Producer) OrderCreated(ctx context.Context, orderID, customerID string) error {
	data := OrderCreatedData{OrderID: orderID, CustomerID: customerID}
	return p.publish(ctx, TopicOrderCreated, orderID, AggregateTypeOrder, data)
}

// ItemAdded publishes an order.item_added event.
func (p *Producer) ItemAdded(ctx context.Context, orderID string, item domain.LineItem) error {
	data := ItemData{
		OrderID:   orderID,
		ItemID:    item.ID,
		ProductID: item.Product.ID,
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice,
		Total:     item.Total,
	}
	return p.publish(ctx, TopicOrderItemAdded, orderID, AggregateTypeOrder, data)
}

// ItemRemoved publishes an order.item_removed event.
func (p *Producer) ItemRemoved(ctx context.Context, orderID, itemID string) error {
	data := ItemData{OrderID: orderID, ItemID: itemID}
	return p.publish(ctx, TopicOrderItemRemoved, orderID, AggregateTypeOrder, data)
}

// OrderFinalized publishes an order.finalized event.
func (p *Producer) OrderFinalized(ctx context.Context, order *domain.Order) error {
	data := OrderFinalizedData{
		OrderID:         order.ID,
		CustomerID:      order.CustomerID,
		DeliveryAddress: order.DeliveryAddress,
		ItemCount:       len(order.Items),
		TotalAmount:     order.DisplayTotal(),
	}
	return p.publish(ctx, TopicOrderFinalized, order.ID, AggregateTypeOrder, data)
}

// OrderPaid publishes an order.paid event.
func (p *Producer) OrderPaid(ctx context.Context, orderID, customerID string) error {
	data := OrderPaidData{OrderID: orderID, CustomerID: customerID}
	return p.publish(ctx, TopicOrderPaid, orderID, AggregateTypeOrder, data)
}

// LoggedOut publishes a session.logged_out event.
func (p *Producer) LoggedOut(ctx context.Context, customerID string) error {
	data := LoggedOutData{CustomerID: customerID}
	return p.publish(ctx, TopicSessionLoggedOut, customerID, AggregateTypeSession, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	evt, err := pkgkafka.NewEvent(ctx, topic, aggregateID, aggregateType, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// Close releases the underlying Kafka writer.
func (p *Producer) Close() error {
	return p.kafka.Close()
}

// Nop discards every event. It is used when events are disabled.
type Nop struct{}

func (Nop) OrderCreated(context.Context, string, string) error { return nil }
func (Nop) ItemAdded(context.Context, string, domain.LineItem) error { return nil }
func (Nop) ItemRemoved(context.Context, string, string) error { return nil }
func (Nop) OrderFinalized(context.Context, *domain.Order) error { return nil }
func (Nop) OrderPaid(context.Context, string, string) error { return nil }
func (Nop) LoggedOut(context.Context, string) error { return nil }
