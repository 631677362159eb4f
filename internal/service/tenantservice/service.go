package tenantservice

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"

	"goloja/internal/domain"
	apperror "goloja/internal/errors"
	"goloja/internal/pkg/logger"
)

// TenantRepository define o contrato que o Serviço de Lojas espera da camada de Persistência.
type TenantRepository interface {
	Save(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error)
	FindByID(ctx context.Context, id string) (domain.Tenant, error)
	FindBySlug(ctx context.Context, slug string) (domain.Tenant, error)
	FindAll(ctx context.Context) ([]domain.Tenant, error)
	Update(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error)
	AssignDomain(ctx context.Context, id, domainName string) error
}

// Formato aceito para slugs: minúsculas, dígitos e hífens.
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Formato simplificado de nomes de domínio.
var domainPattern = regexp.MustCompile(`^[a-z0-9]+([\-.][a-z0-9]+)*\.[a-z]{2,}$`)

// Service é o Serviço de Lojas (tenants) da plataforma.
type Service struct {
	repo   TenantRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Lojas.
func NewService(repo TenantRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateTenant cria uma nova loja. O slug precisa ser único na plataforma:
// duplicidade chega do repositório como ConflictError (409).
func (s *Service) CreateTenant(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error) {
	if tenant.Name == "" {
		return domain.Tenant{}, apperror.NewValidationError("O nome da loja é obrigatório.")
	}
	if !slugPattern.MatchString(tenant.Slug) {
		return domain.Tenant{}, apperror.NewValidationError("Slug inválido: use minúsculas, dígitos e hífens.")
	}

	tenant.ID = uuid.NewString()
	tenant.IsActive = true
	now := time.Now()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now

	created, err := s.repo.Save(ctx, tenant)
	if err != nil {
		s.logger.Error("Falha ao criar loja no repositório.", err)
		return domain.Tenant{}, err
	}

	s.logger.Info("Loja criada com sucesso.", map[string]interface{}{
		"tenant_id": created.ID,
		"slug":      created.Slug,
	})
	return created, nil
}

// GetTenantByID busca uma loja pelo ID.
func (s *Service) GetTenantByID(ctx context.Context, id string) (domain.Tenant, error) {
	if id == "" {
		return domain.Tenant{}, apperror.NewValidationError("O ID da loja é obrigatório.")
	}
	return s.repo.FindByID(ctx, id)
}

// GetTenantBySlug busca uma loja pelo slug (resolução de vitrine).
func (s *Service) GetTenantBySlug(ctx context.Context, slug string) (domain.Tenant, error) {
	if slug == "" {
		return domain.Tenant{}, apperror.NewValidationError("O slug da loja é obrigatório.")
	}
	return s.repo.FindBySlug(ctx, slug)
}

// ListTenants lista todas as lojas da plataforma.
func (s *Service) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	return s.repo.FindAll(ctx)
}

// UpdateTenant atualiza nome e flag de ativação de uma loja existente.
// O slug é imutável após a criação.
func (s *Service) UpdateTenant(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error) {
	if tenant.ID == "" {
		return domain.Tenant{}, apperror.NewValidationError("O ID da loja é obrigatório.")
	}
	if tenant.Name == "" {
		return domain.Tenant{}, apperror.NewValidationError("O nome da loja é obrigatório.")
	}

	tenant.UpdatedAt = time.Now()

	updated, err := s.repo.Update(ctx, tenant)
	if err != nil {
		s.logger.Error("Falha ao atualizar loja no repositório.", err)
		return domain.Tenant{}, err
	}

	return updated, nil
}

// AssignDomain vincula um domínio customizado à loja. Domínio já usado por
// outra loja chega do repositório como ConflictError (409).
func (s *Service) AssignDomain(ctx context.Context, id, domainName string) error {
	if id == "" {
		return apperror.NewValidationError("O ID da loja é obrigatório.")
	}
	if !domainPattern.MatchString(domainName) {
		return apperror.NewValidationError("Domínio inválido.")
	}

	if err := s.repo.AssignDomain(ctx, id, domainName); err != nil {
		s.logger.Error("Falha ao vincular domínio à loja.", err)
		return err
	}

	s.logger.Info("Domínio vinculado à loja.", map[string]interface{}{
		"tenant_id": id,
		"domain":    domainName,
	})
	return nil
}
