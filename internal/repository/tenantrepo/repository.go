package tenantrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"goloja/internal/domain"
	"goloja/internal/errors"
	"goloja/internal/pkg/logger"
)

// TenantRepository persiste as lojas (tenants) da plataforma.
type TenantRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewTenantRepository cria e retorna uma nova instância do Repositório de Lojas.
func NewTenantRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *TenantRepository {
	return &TenantRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const tenantColumns = `id, name, slug, COALESCE(domain, ''), is_active, created_at, updated_at`

// Save insere uma nova loja. Slug duplicado (índice único) vira ConflictError.
func (r *TenantRepository) Save(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const insertSQL = `
        INSERT INTO tenants (id, name, slug, domain, is_active, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err := r.DB.ExecContext(ctxTimeout, insertSQL,
		tenant.ID,
		tenant.Name,
		tenant.Slug,
		nullable(tenant.Domain),
		tenant.IsActive,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.Tenant{}, errors.NewConflictError(
				fmt.Sprintf("O slug '%s' já está em uso.", tenant.Slug))
		}
		r.logger.Error("Falha ao inserir loja no DB.", err)
		return domain.Tenant{}, errors.NewDBError("Falha ao inserir loja", err)
	}

	return tenant, nil
}

// FindByID busca uma loja pelo ID.
func (r *TenantRepository) FindByID(ctx context.Context, id string) (domain.Tenant, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM tenants WHERE id = $1`, tenantColumns)
	return r.scanTenant(r.DB.QueryRowContext(ctxTimeout, query, id), id)
}

// FindBySlug busca uma loja pelo slug (usado na resolução de vitrine).
func (r *TenantRepository) FindBySlug(ctx context.Context, slug string) (domain.Tenant, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM tenants WHERE slug = $1`, tenantColumns)
	return r.scanTenant(r.DB.QueryRowContext(ctxTimeout, query, slug), slug)
}

// FindAll lista todas as lojas da plataforma.
func (r *TenantRepository) FindAll(ctx context.Context) ([]domain.Tenant, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM tenants ORDER BY created_at DESC`, tenantColumns)
	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao listar lojas no DB.", err)
		return nil, errors.NewDBError("Falha ao listar lojas", err)
	}
	defer rows.Close()

	tenants := []domain.Tenant{}
	for rows.Next() {
		var t domain.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Domain, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, errors.NewDBError("Falha ao mapear loja", err)
		}
		tenants = append(tenants, t)
	}

	return tenants, rows.Err()
}

// Update atualiza nome e flag de ativação da loja.
func (r *TenantRepository) Update(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `
        UPDATE tenants
        SET name = $1, is_active = $2, updated_at = $3
        WHERE id = $4`

	result, err := r.DB.ExecContext(ctxTimeout, updateSQL,
		tenant.Name, tenant.IsActive, tenant.UpdatedAt, tenant.ID)
	if err != nil {
		r.logger.Error("Falha ao atualizar loja no DB.", err)
		return domain.Tenant{}, errors.NewDBError("Falha ao atualizar loja", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.Tenant{}, errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return domain.Tenant{}, errors.NewNotFoundError(fmt.Sprintf("Loja %s não encontrada.", tenant.ID))
	}

	return tenant, nil
}

// AssignDomain vincula um domínio customizado à loja.
// Domínio já usado por outra loja (índice único) vira ConflictError.
func (r *TenantRepository) AssignDomain(ctx context.Context, id, domainName string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `
        UPDATE tenants
        SET domain = $1, updated_at = $2
        WHERE id = $3`

	result, err := r.DB.ExecContext(ctxTimeout, updateSQL, nullable(domainName), time.Now(), id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return errors.NewConflictError(
				fmt.Sprintf("O domínio '%s' já está em uso por outra loja.", domainName))
		}
		r.logger.Error("Falha ao vincular domínio à loja.", err)
		return errors.NewDBError("Falha ao vincular domínio", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Loja %s não encontrada.", id))
	}

	return nil
}

func (r *TenantRepository) scanTenant(row *sql.Row, identifier string) (domain.Tenant, error) {
	var t domain.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Domain, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return domain.Tenant{}, errors.NewNotFoundError(fmt.Sprintf("Loja %s não encontrada.", identifier))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar loja no DB.", err)
		return domain.Tenant{}, errors.NewDBError("Falha ao buscar loja", err)
	}
	return t, nil
}

// nullable converte string vazia em NULL para colunas opcionais com índice único.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
