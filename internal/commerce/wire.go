package commerce

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
)

// ID is an identifier that the order service sends either as a JSON number
// or as a string. It is always handled as a string locally.
type ID string

// UnmarshalJSON accepts numbers, strings and null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		*id = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("decode id %s: %w", b, err)
		}
		*id = ID(n.String())
		return nil
	}
}

// MarshalJSON writes canonical integer ids as numbers so a backend with
// integer keys accepts them. Anything else, including "007" or "+5", goes
// out as a string so it survives the round trip unchanged.
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

type productJSON struct {
	ID            ID     `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Price         int64  `json:"price"`
	StockQuantity int    `json:"stock_quantity"`
}

func (p productJSON) toDomain() domain.Product {
	return domain.Product{
		ID:          string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.StockQuantity,
	}
}

func productFromDomain(p domain.Product) productJSON {
	return productJSON{
		ID:            ID(p.ID),
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		StockQuantity: p.Stock,
	}
}

type lineItemJSON struct {
	ID       ID          `json:"idOrderCostumer"`
	Product  productJSON `json:"productsEntity"`
	Quantity int         `json:"quantity"`
	Price    int64       `json:"price"`
	Total    int64       `json:"total"`
}

func (li lineItemJSON) toDomain() domain.LineItem {
	unit := li.Price
	if unit == 0 {
		unit = li.Product.Price
	}
	return domain.LineItem{
		ID:        string(li.ID),
		Product:   li.Product.toDomain(),
		Quantity:  li.Quantity,
		UnitPrice: unit,
		Total:     li.Total,
	}
}

func lineItemFromDomain(li domain.LineItem) lineItemJSON {
	return lineItemJSON{
		ID:       ID(li.ID),
		Product:  productFromDomain(li.Product),
		Quantity: li.Quantity,
		Price:    li.UnitPrice,
		Total:    li.Total,
	}
}

type orderJSON struct {
	ID              ID             `json:"id_order"`
	CustomerID      ID             `json:"id_costumer,omitempty"`
	Status          string         `json:"status"`
	ValueTotal      int64          `json:"value_total"`
	DeliveryAddress string         `json:"delivery_address"`
	Items           []lineItemJSON `json:"order_items_entity"`
}

func (o orderJSON) toDomain() *domain.Order {
	order := &domain.Order{
		ID:              string(o.ID),
		CustomerID:      string(o.CustomerID),
		Status:          domain.ParseOrderStatus(o.Status),
		DeliveryAddress: o.DeliveryAddress,
		Total:           o.ValueTotal,
		Items:           make([]domain.LineItem, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		order.Items = append(order.Items, it.toDomain())
	}
	return order
}

// OrderToJSON renders an order in the order service wire format. The sandbox
// uses it to answer requests.
func OrderToJSON(o *domain.Order) any {
	out := orderJSON{
		ID:              ID(o.ID),
		CustomerID:      ID(o.CustomerID),
		Status:          string(o.Status),
		ValueTotal:      o.Total,
		DeliveryAddress: o.DeliveryAddress,
		Items:           make([]lineItemJSON, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		out.Items = append(out.Items, lineItemFromDomain(it))
	}
	return out
}

// LineItemToJSON renders a line item in the order service wire format.
func LineItemToJSON(li domain.LineItem) any {
	return lineItemFromDomain(li)
}

// ProductToJSON renders a catalog entry in the order service wire format.
func ProductToJSON(p domain.Product) any {
	return productFromDomain(p)
}

type customerJSON struct {
	ID        ID     `json:"id,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	CreatedAt string `json:"create_at"`
}

func (c customerJSON) toDomain() domain.Customer {
	return domain.Customer{
		ID:        string(c.ID),
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt,
	}
}

// CustomerToJSON renders a customer profile in the order service wire format.
func CustomerToJSON(c domain.Customer) any {
	return customerJSON{
		ID:        ID(c.ID),
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt,
	}
}

// Request bodies.

type CreateOrderRequest struct {
	CustomerID ID `json:"id_costumer"`
}

type CreateOrderResponse struct {
	OrderID ID `json:"id_order"`
}

type AttachItemRequest struct {
	Quantity  int `json:"quantity"`
	OrderID   ID  `json:"id_order"`
	ProductID ID  `json:"id_product"`
}

type FinalizeRequest struct {
	OrderID         ID     `json:"id_order"`
	DeliveryAddress string `json:"delivery_address"`
}

type CompletePaymentRequest struct {
	OrderID ID `json:"id_order"`
}

type SignInResponse struct {
	AccessToken string `json:"access_token"`
	ID          ID     `json:"id"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}
