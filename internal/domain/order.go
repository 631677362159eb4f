package domain

import (
	"time"
)

// OrderStatus é um tipo string para representar o status do ciclo de vida do pedido.
type OrderStatus string

// Constantes de status do pedido. Os status cancelled e refunded são terminais:
// nenhuma transição parte deles.
const (
	StatusPending    OrderStatus = "pending"
	StatusPaid       OrderStatus = "paid"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRefunded   OrderStatus = "refunded"
)

// PaymentMethod é um tipo string para a forma de pagamento do pedido.
type PaymentMethod string

const (
	PaymentPix        PaymentMethod = "pix"
	PaymentBoleto     PaymentMethod = "boleto"
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentDebitCard  PaymentMethod = "debit_card"
)

// Address representa um endereço de entrega ou cobrança.
// É persistido desnormalizado junto ao pedido (snapshot no momento da compra).
type Address struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	ZipCode    string `json:"zip_code"`
	Country    string `json:"country"`
}

// OrderItem representa um item de linha do pedido. Nome e preço são snapshots
// do produto no momento da criação: edições posteriores do catálogo não alteram
// pedidos históricos.
type OrderItem struct {
	ID        string  `json:"id"`
	OrderID   string  `json:"order_id"`
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// StatusHistoryEntry é uma entrada do histórico de status do pedido (append-only).
type StatusHistoryEntry struct {
	Status  OrderStatus `json:"status"`
	Date    time.Time   `json:"date"`
	Comment string      `json:"comment"`
}

// Order representa uma tentativa de compra de um cliente (o agregado central).
type Order struct {
	ID              string               `json:"id"`
	OrderNumber     string               `json:"order_number"` // Prefixo de data + sufixo aleatório (único por índice)
	TenantID        string               `json:"tenant_id"`
	CustomerID      string               `json:"customer_id,omitempty"`
	Status          OrderStatus          `json:"status"`
	PaymentMethod   PaymentMethod        `json:"payment_method"`
	Subtotal        float64              `json:"subtotal"`
	Shipping        float64              `json:"shipping"`
	Discount        float64              `json:"discount"`
	Total           float64              `json:"total"`
	Items           []OrderItem          `json:"items"`
	ShippingAddress Address              `json:"shipping_address"`
	BillingAddress  *Address             `json:"billing_address,omitempty"`
	TrackingCode    string               `json:"tracking_code,omitempty"`
	ShippingCarrier string               `json:"shipping_carrier,omitempty"`
	Notes           string               `json:"notes,omitempty"`
	StatusHistory   []StatusHistoryEntry `json:"status_history"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// IsTerminal indica se o pedido está em um status terminal (sem transições de saída).
func (o *Order) IsTerminal() bool {
	return o.Status == StatusCancelled || o.Status == StatusRefunded
}

// OrderCreateRequest é o payload esperado para a criação de um pedido.
// Os valores monetários são fornecidos pelo chamador; o sistema não recalcula
// total = subtotal + shipping - discount.
type OrderCreateRequest struct {
	TenantID        string          `json:"tenant_id"`
	CustomerID      string          `json:"customer_id,omitempty"`
	PaymentMethod   PaymentMethod   `json:"payment_method,omitempty"`
	Subtotal        float64         `json:"subtotal"`
	Shipping        float64         `json:"shipping"`
	Discount        float64         `json:"discount"`
	Total           float64         `json:"total"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress Address         `json:"shipping_address"`
	BillingAddress  *Address        `json:"billing_address,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

// StatusUpdateRequest é o payload esperado para a atualização de status de um pedido.
type StatusUpdateRequest struct {
	Status          OrderStatus `json:"status"`
	Comment         string      `json:"comment,omitempty"`
	TrackingCode    string      `json:"tracking_code,omitempty"`
	ShippingCarrier string      `json:"shipping_carrier,omitempty"`
}

// OrderFilter define os parâmetros de busca, paginação e ordenação da listagem de pedidos.
type OrderFilter struct {
	TenantID      string
	CustomerID    string
	Status        OrderStatus
	PaymentMethod PaymentMethod
	Search        string // Busca por substring no order_number
	StartDate     *time.Time
	EndDate       *time.Time
	Page          int
	Limit         int
	SortBy        string
	SortDirection string
}

// PageMeta descreve a paginação de uma listagem.
type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// OrderPage é o resultado paginado da listagem de pedidos.
type OrderPage struct {
	Data []Order  `json:"data"`
	Meta PageMeta `json:"meta"`
}
