package domain

import "time"

// CartItem representa um item de linha do carrinho, com snapshot de nome e preço.
type CartItem struct {
	ID        string   `json:"id"`
	ProductID string   `json:"product_id"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	SalePrice *float64 `json:"sale_price,omitempty"`
	ImageURL  string   `json:"image_url,omitempty"`
	Quantity  int      `json:"quantity"`
}

// Cart representa o carrinho de um usuário em uma loja.
// Existe no máximo um carrinho por par (usuário, loja); é criado de forma
// preguiçosa no primeiro acesso. Não há versionamento: escritas concorrentes
// seguem last-write-wins.
type Cart struct {
	TenantID  string     `json:"tenant_id"`
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}
