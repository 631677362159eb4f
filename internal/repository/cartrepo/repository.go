package cartrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"goloja/internal/domain"
	"goloja/internal/errors"
	"goloja/internal/pkg/cache"
	"goloja/internal/pkg/logger"
)

// CartRepository guarda os carrinhos no Redis, um por par (usuário, loja).
// Não há versionamento: escritas concorrentes seguem last-write-wins.
type CartRepository struct {
	Cache  cache.Client
	TTL    time.Duration
	logger logger.Logger
}

// NewCartRepository cria e retorna uma nova instância do Repositório de Carrinhos.
func NewCartRepository(cacheClient cache.Client, ttl time.Duration, logger logger.Logger) *CartRepository {
	return &CartRepository{
		Cache:  cacheClient,
		TTL:    ttl,
		logger: logger,
	}
}

// Chave do carrinho no Redis.
const cartKey = "cart:%s:%s"

// Find busca o carrinho de um usuário em uma loja.
// Retorna NotFoundError quando a chave não existe (o serviço cria o carrinho
// vazio de forma preguiçosa).
func (r *CartRepository) Find(ctx context.Context, tenantID, userID string) (domain.Cart, error) {
	key := fmt.Sprintf(cartKey, tenantID, userID)

	data, err := r.Cache.Get(ctx, key)
	if err == cache.ErrCacheMiss {
		return domain.Cart{}, errors.NewNotFoundError(
			fmt.Sprintf("Carrinho do usuário %s na loja %s não encontrado.", userID, tenantID))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar carrinho no Redis.", err)
		return domain.Cart{}, errors.NewInternalError("Falha ao buscar carrinho", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		r.logger.Error("Falha ao desserializar carrinho do Redis.", err)
		return domain.Cart{}, errors.NewInternalError("Falha ao desserializar carrinho", err)
	}

	return cart, nil
}

// Save grava o carrinho inteiro (last-write-wins), renovando a expiração.
func (r *CartRepository) Save(ctx context.Context, cart domain.Cart) error {
	key := fmt.Sprintf(cartKey, cart.TenantID, cart.UserID)

	data, err := json.Marshal(cart)
	if err != nil {
		return errors.NewInternalError("Falha ao serializar carrinho", err)
	}

	if err := r.Cache.Set(ctx, key, string(data), r.TTL); err != nil {
		r.logger.Error("Falha ao gravar carrinho no Redis.", err)
		return errors.NewInternalError("Falha ao gravar carrinho", err)
	}

	return nil
}

// Delete remove o carrinho de um usuário em uma loja.
func (r *CartRepository) Delete(ctx context.Context, tenantID, userID string) error {
	key := fmt.Sprintf(cartKey, tenantID, userID)

	if err := r.Cache.Delete(ctx, key); err != nil {
		r.logger.Error("Falha ao remover carrinho do Redis.", err)
		return errors.NewInternalError("Falha ao remover carrinho", err)
	}

	return nil
}
