package domain

import (
	"time"
)

// ProductStatus é um tipo string para o status do produto no catálogo.
type ProductStatus string

const (
	ProductActive     ProductStatus = "active"
	ProductInactive   ProductStatus = "inactive"
	ProductOutOfStock ProductStatus = "out_of_stock"
)

// Product representa o item do catálogo de uma loja (a Entidade).
// O controle de estoque é feito no próprio produto: Stock guarda a quantidade
// disponível e TrackStock liga/desliga o controle (false = estoque ilimitado).
type Product struct {
	ID          string        `json:"id"`
	TenantID    string        `json:"tenant_id"`
	SKU         string        `json:"sku"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Price       float64       `json:"price"`
	Stock       int           `json:"stock"`
	TrackStock  bool          `json:"track_stock"`
	Status      ProductStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// --- Interfaces de Contrato ---

// ProductService é a interface que a camada de Serviço (Business Logic) DEVE implementar.
// Ela define o que o Handler (Camada API) pode pedir para a camada de Serviço fazer.
type ProductService interface {
	CreateProduct(ctx Context, product Product) (Product, error)
	GetProductByID(ctx Context, id string) (Product, error)
	ListProducts(ctx Context, filter ProductFilter) ([]Product, error)
	UpdateProduct(ctx Context, product Product) (Product, error)
	DeleteProduct(ctx Context, id string) error
}

// --- Estruturas Auxiliares (Filtros e Contexto) ---

// ProductFilter define os parâmetros de busca e paginação do catálogo.
type ProductFilter struct {
	TenantID   string
	Name       string
	SKU        string
	ActiveOnly bool
	Page       int
	Limit      int
}

// Reservation representa a intenção de reservar estoque de um produto
// para um pedido em criação.
type Reservation struct {
	ProductID string
	Quantity  int
}

// Context é uma interface que encapsula o Go context.Context.
// É usado para propagar o timeout e sinais de cancelamento pelas camadas.
// Isso evita a dependência direta do pacote "context".
type Context interface{}
