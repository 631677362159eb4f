package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"goloja/internal/domain"
	"goloja/internal/errors"
	"goloja/internal/pkg/cache"
	"goloja/internal/pkg/logger"
)

// ProductRepository contém as conexões necessárias para acessar os dados do catálogo.
type ProductRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
// Aqui injetamos as dependências de Infraestrutura (DB e Cache).
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout time.Duration, logger logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Chave de cache para produtos (cache-aside).
const productCacheKey = "product:%s"

// Expiração do cache de produto.
const productCacheTTL = 10 * time.Minute

const productColumns = `id, tenant_id, sku, name, description, price, stock, track_stock, status, created_at, updated_at`

// Save persiste um novo Produto no banco de dados.
// SKU duplicado dentro da mesma loja vira ConflictError.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const productSQL = `
        INSERT INTO products (id, tenant_id, sku, name, description, price, stock, track_stock, status, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	_, err := r.DB.ExecContext(ctxTimeout, productSQL,
		product.ID,
		product.TenantID,
		product.SKU,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
		product.TrackStock,
		product.Status,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.Product{}, errors.NewConflictError(
				fmt.Sprintf("SKU '%s' já existe nesta loja.", product.SKU))
		}
		r.logger.Error("Falha ao inserir produto no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao inserir produto", err)
	}

	return product, nil
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, id)
	var product domain.Product

	// 1. Tentar obter do Cache (Redis)
	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		// Cache HIT
		if json.Unmarshal([]byte(cachedData), &product) == nil {
			return product, nil
		}
		// Desserialização falhou: segue para o DB e o Set abaixo reescreve a chave.
	} else if err != cache.ErrCacheMiss {
		// Erro real de cache (ex: conexão perdida): logamos e degradamos para o DB.
		r.logger.Warn("Falha ao ler do cache Redis.", map[string]interface{}{"key": key, "error": err.Error()})
	}

	// 2. Busca no Banco de Dados (PostgreSQL)
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)
	row := r.DB.QueryRowContext(ctxTimeout, query, id)

	err = row.Scan(
		&product.ID,
		&product.TenantID,
		&product.SKU,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Stock,
		&product.TrackStock,
		&product.Status,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar produto no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao buscar produto", err)
	}

	// 3. Popular o cache para as próximas leituras (best-effort).
	if data, err := json.Marshal(product); err == nil {
		r.Cache.Set(ctxTimeout, key, string(data), productCacheTTL)
	}

	return product, nil
}

// FindAll lista produtos de acordo com o filtro (loja, nome, SKU, ativos, paginação).
func (r *ProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	conditions := []string{}
	args := []interface{}{}

	add := func(condition string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.TenantID != "" {
		add("tenant_id = $%d", filter.TenantID)
	}
	if filter.Name != "" {
		add("name ILIKE $%d", "%"+filter.Name+"%")
	}
	if filter.SKU != "" {
		add("sku = $%d", filter.SKU)
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "status = 'active'")
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		productColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, offset)

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar produtos no DB.", err)
		return nil, errors.NewDBError("Falha ao listar produtos", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.TenantID, &p.SKU, &p.Name, &p.Description, &p.Price,
			&p.Stock, &p.TrackStock, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, errors.NewDBError("Falha ao mapear produto", err)
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

// Update atualiza os dados do produto e invalida a entrada de cache correspondente.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `
        UPDATE products
        SET sku = $1, name = $2, description = $3, price = $4, stock = $5,
            track_stock = $6, status = $7, updated_at = $8
        WHERE id = $9`

	result, err := r.DB.ExecContext(ctxTimeout, updateSQL,
		product.SKU,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
		product.TrackStock,
		product.Status,
		product.UpdatedAt,
		product.ID,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar produto no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao atualizar produto", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.Product{}, errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto %s não encontrado.", product.ID))
	}

	// Invalida o cache: a próxima leitura repopula com os dados novos.
	r.Cache.Delete(ctxTimeout, fmt.Sprintf(productCacheKey, product.ID))

	return product, nil
}

// Delete remove um produto do catálogo e invalida o cache.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao remover produto no DB.", err)
		return errors.NewDBError("Falha ao remover produto", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Produto %s não encontrado.", id))
	}

	r.Cache.Delete(ctxTimeout, fmt.Sprintf(productCacheKey, id))
	return nil
}
