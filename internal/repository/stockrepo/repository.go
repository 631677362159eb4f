package stockrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"goloja/internal/domain"
	"goloja/internal/errors"
	"goloja/internal/pkg/cache"
	"goloja/internal/pkg/logger"
)

// StockRepository é o livro-razão de estoque: reserva e devolve quantidades
// diretamente sobre a tabela de produtos.
type StockRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewStockRepository cria e retorna uma nova instância do Repositório de Estoque.
func NewStockRepository(db *sql.DB, cacheClient cache.Client, dbTimeout time.Duration, logger logger.Logger) *StockRepository {
	return &StockRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const productCacheKey = "product:%s"

// ReserveItems reserva o estoque de todos os itens de um pedido em uma única
// transação (tudo-ou-nada): se qualquer item não tiver estoque suficiente, a
// transação inteira é revertida e nenhum decremento é aplicado.
//
// Regras por item:
//   - produto inexistente               -> NotFoundError
//   - track_stock = false               -> no-op (estoque ilimitado)
//   - quantidade > estoque disponível   -> InsufficientStockError (rollback total)
//   - estoque resultante exatamente 0   -> status do produto vira out_of_stock
func (r *StockRepository) ReserveItems(ctx context.Context, items []domain.Reservation) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de reserva de estoque.", err)
		return errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // Rollback em caso de erro

	for _, item := range items {
		if err := r.reserveOne(ctxTimeout, tx, item); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar transação de reserva de estoque.", err)
		return errors.NewDBError("Falha ao commitar transação", err)
	}

	// Invalida o cache dos produtos alterados apenas após o commit.
	for _, item := range items {
		r.Cache.Delete(ctx, fmt.Sprintf(productCacheKey, item.ProductID))
	}

	r.logger.Info("Estoque reservado com sucesso.", map[string]interface{}{"items": len(items)})
	return nil
}

// reserveOne aplica a reserva de um único item dentro da transação aberta.
// A linha do produto é bloqueada com FOR UPDATE para evitar a corrida clássica
// de leitura-verificação-escrita entre pedidos concorrentes.
func (r *StockRepository) reserveOne(ctx context.Context, tx *sql.Tx, item domain.Reservation) error {
	const querySelect = `
        SELECT stock, track_stock, status
        FROM products
        WHERE id = $1 FOR UPDATE`

	var (
		stock      int
		trackStock bool
		status     string
	)
	err := tx.QueryRowContext(ctx, querySelect, item.ProductID).Scan(&stock, &trackStock, &status)
	if err == sql.ErrNoRows {
		return errors.NewNotFoundError(fmt.Sprintf("Produto %s não encontrado.", item.ProductID))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar produto para reserva de estoque.", err)
		return errors.NewDBError("Falha ao buscar produto para reserva", err)
	}

	// Produto sem controle de estoque: reserva é um no-op de sucesso.
	if !trackStock {
		return nil
	}

	if item.Quantity > stock {
		r.logger.Warn("Estoque insuficiente para reserva.", map[string]interface{}{
			"product_id": item.ProductID,
			"requested":  item.Quantity,
			"available":  stock,
		})
		return errors.NewInsufficientStockError(item.ProductID, item.Quantity, stock)
	}

	newStock := stock - item.Quantity
	newStatus := status
	if newStock == 0 {
		newStatus = string(domain.ProductOutOfStock)
	}

	const queryUpdate = `
        UPDATE products
        SET stock = $1, status = $2, updated_at = $3
        WHERE id = $4`

	if _, err := tx.ExecContext(ctx, queryUpdate, newStock, newStatus, time.Now(), item.ProductID); err != nil {
		r.logger.Error("Falha ao decrementar estoque do produto.", err)
		return errors.NewDBError("Falha ao decrementar estoque", err)
	}

	return nil
}

// ReleaseItems devolve ao estoque as quantidades previamente reservadas.
// É a ação compensatória usada quando a persistência do pedido falha depois
// da reserva ter sido commitada.
func (r *StockRepository) ReleaseItems(ctx context.Context, items []domain.Reservation) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de devolução de estoque.", err)
		return errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	for _, item := range items {
		const querySelect = `
            SELECT stock, track_stock, status
            FROM products
            WHERE id = $1 FOR UPDATE`

		var (
			stock      int
			trackStock bool
			status     string
		)
		err := tx.QueryRowContext(ctxTimeout, querySelect, item.ProductID).Scan(&stock, &trackStock, &status)
		if err == sql.ErrNoRows {
			// Produto removido entre a reserva e a devolução: nada a devolver.
			continue
		}
		if err != nil {
			r.logger.Error("Falha ao buscar produto para devolução de estoque.", err)
			return errors.NewDBError("Falha ao buscar produto para devolução", err)
		}

		if !trackStock {
			continue
		}

		newStock := stock + item.Quantity
		newStatus := status
		if status == string(domain.ProductOutOfStock) && newStock > 0 {
			newStatus = string(domain.ProductActive)
		}

		const queryUpdate = `
            UPDATE products
            SET stock = $1, status = $2, updated_at = $3
            WHERE id = $4`

		if _, err := tx.ExecContext(ctxTimeout, queryUpdate, newStock, newStatus, time.Now(), item.ProductID); err != nil {
			r.logger.Error("Falha ao devolver estoque do produto.", err)
			return errors.NewDBError("Falha ao devolver estoque", err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar transação de devolução de estoque.", err)
		return errors.NewDBError("Falha ao commitar transação", err)
	}

	for _, item := range items {
		r.Cache.Delete(ctx, fmt.Sprintf(productCacheKey, item.ProductID))
	}

	r.logger.Info("Estoque devolvido com sucesso.", map[string]interface{}{"items": len(items)})
	return nil
}
