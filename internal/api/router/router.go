package router

import (
	"net/http"
	"time"

	"goloja/internal/api/cart"
	"goloja/internal/api/order"
	"goloja/internal/api/product"
	"goloja/internal/api/stock"
	"goloja/internal/api/tenant"
	"goloja/internal/api/user"
	"goloja/internal/domain"
	"goloja/internal/pkg/cache"
	"goloja/internal/pkg/middleware"
)

// Handlers agrupa todos os Handlers já inicializados por injeção de dependências.
type Handlers struct {
	Order   *order.Handler
	Product *product.Handler
	Tenant  *tenant.Handler
	Cart    *cart.Handler
	Stock   *stock.Handler
	User    *user.Handler
}

// NewRouter configura e retorna o roteador HTTP principal.
// Usamos o ServeMux padrão do net/http com os padrões de método e wildcard
// (Go 1.22+); um mux de terceiros (gorilla/mux, chi) não é necessário.
func NewRouter(h Handlers, tokenSvc middleware.TokenService, cacheClient cache.Client, rateLimit int, ratePeriod time.Duration) http.Handler {
	mux := http.NewServeMux()

	auth := middleware.NewAuthMiddleware(tokenSvc)
	adminOnly := middleware.PermissionMiddleware(domain.RoleAdmin)
	staffOnly := middleware.PermissionMiddleware(domain.RoleAdmin, domain.RoleMerchant)

	// --- 1. Health Check ---
	mux.HandleFunc("GET /ping", PingHandler)

	// --- 2. Usuários (rotas públicas) ---
	mux.HandleFunc("POST /v1/users/register", h.User.RegisterHandler)
	mux.HandleFunc("POST /v1/users/login", h.User.LoginHandler)

	// --- 3. Pedidos ---
	// A criação de pedido é pública (checkout de convidado também cria pedidos);
	// consulta e gestão do ciclo de vida exigem autenticação.
	mux.HandleFunc("POST /v1/orders", h.Order.CreateOrderHandler)
	mux.HandleFunc("GET /v1/orders", auth(h.Order.ListOrdersHandler))
	mux.HandleFunc("GET /v1/orders/{id}", auth(h.Order.GetOrderByIDHandler))
	mux.HandleFunc("GET /v1/orders/number/{orderNumber}", auth(h.Order.GetOrderByNumberHandler))
	mux.HandleFunc("PATCH /v1/orders/{id}/status", auth(staffOnly(h.Order.UpdateStatusHandler)))
	mux.HandleFunc("DELETE /v1/orders/{id}", auth(h.Order.CancelOrderHandler))

	// --- 4. Catálogo de Produtos ---
	mux.HandleFunc("GET /v1/products", h.Product.ListProductsHandler)
	mux.HandleFunc("GET /v1/products/{id}", h.Product.GetProductByIDHandler)
	mux.HandleFunc("POST /v1/products", auth(staffOnly(h.Product.CreateProductHandler)))
	mux.HandleFunc("PUT /v1/products/{id}", auth(staffOnly(h.Product.UpdateProductHandler)))
	mux.HandleFunc("DELETE /v1/products/{id}", auth(staffOnly(h.Product.DeleteProductHandler)))

	// --- 5. Lojas (Tenants) ---
	mux.HandleFunc("GET /v1/tenants", h.Tenant.ListTenantsHandler)
	mux.HandleFunc("GET /v1/tenants/{id}", h.Tenant.GetTenantByIDHandler)
	mux.HandleFunc("POST /v1/tenants", auth(adminOnly(h.Tenant.CreateTenantHandler)))
	mux.HandleFunc("PATCH /v1/tenants/{id}", auth(adminOnly(h.Tenant.UpdateTenantHandler)))
	mux.HandleFunc("PUT /v1/tenants/{id}/domain", auth(adminOnly(h.Tenant.AssignDomainHandler)))

	// --- 6. Carrinho (sempre autenticado: o dono vem das claims) ---
	mux.HandleFunc("GET /v1/carts/{tenantID}", auth(h.Cart.GetCartHandler))
	mux.HandleFunc("DELETE /v1/carts/{tenantID}", auth(h.Cart.ClearCartHandler))
	mux.HandleFunc("POST /v1/carts/{tenantID}/items", auth(h.Cart.AddItemHandler))
	mux.HandleFunc("PATCH /v1/carts/{tenantID}/items/{itemID}", auth(h.Cart.UpdateItemHandler))
	mux.HandleFunc("DELETE /v1/carts/{tenantID}/items/{itemID}", auth(h.Cart.RemoveItemHandler))
	mux.HandleFunc("POST /v1/carts/{tenantID}/merge", auth(h.Cart.MergeCartHandler))

	// --- 7. Movimentação manual de estoque (operação administrativa) ---
	mux.HandleFunc("POST /v1/stock/reserve", auth(staffOnly(h.Stock.ReserveHandler)))
	mux.HandleFunc("POST /v1/stock/release", auth(staffOnly(h.Stock.ReleaseHandler)))

	// --- 8. Middlewares globais ---
	return middleware.RateLimiter(cacheClient, rateLimit, ratePeriod)(mux)
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
