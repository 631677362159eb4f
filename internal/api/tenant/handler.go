package tenant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"goloja/internal/domain"
	apperror "goloja/internal/errors"
	"goloja/internal/pkg/logger"
)

// TenantService define o contrato que o Handler espera da camada de Serviço.
type TenantService interface {
	CreateTenant(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error)
	GetTenantByID(ctx context.Context, id string) (domain.Tenant, error)
	GetTenantBySlug(ctx context.Context, slug string) (domain.Tenant, error)
	ListTenants(ctx context.Context) ([]domain.Tenant, error)
	UpdateTenant(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error)
	AssignDomain(ctx context.Context, id, domainName string) error
}

// Handler agrupa todos os métodos de Handler de lojas (tenants).
type Handler struct {
	Service TenantService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc TenantService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
				http.Error(w, "Erro ao codificar resposta", http.StatusInternalServerError)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	errorResponse := domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse)
}

// CreateTenantHandler lida com a requisição POST /v1/tenants.
func (h *Handler) CreateTenantHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var tenant domain.Tenant
	if err := json.NewDecoder(r.Body).Decode(&tenant); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	newTenant, err := h.Service.CreateTenant(ctx, tenant)
	h.handleServiceResponse(w, r, newTenant, err, http.StatusCreated)
}

// ListTenantsHandler lida com a requisição GET /v1/tenants.
// Aceita o parâmetro de consulta ?slug= para resolver uma loja pelo slug.
func (h *Handler) ListTenantsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if slug := r.URL.Query().Get("slug"); slug != "" {
		tenant, err := h.Service.GetTenantBySlug(ctx, slug)
		h.handleServiceResponse(w, r, tenant, err, http.StatusOK)
		return
	}

	tenants, err := h.Service.ListTenants(ctx)
	h.handleServiceResponse(w, r, tenants, err, http.StatusOK)
}

// GetTenantByIDHandler lida com a requisição GET /v1/tenants/{id}.
func (h *Handler) GetTenantByIDHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := r.PathValue("id")

	tenant, err := h.Service.GetTenantByID(ctx, tenantID)
	h.handleServiceResponse(w, r, tenant, err, http.StatusOK)
}

// UpdateTenantHandler lida com a requisição PATCH /v1/tenants/{id}.
// O slug é imutável após a criação; apenas nome e flag de ativação mudam.
func (h *Handler) UpdateTenantHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := r.PathValue("id")

	var tenant domain.Tenant
	if err := json.NewDecoder(r.Body).Decode(&tenant); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}
	tenant.ID = tenantID

	updated, err := h.Service.UpdateTenant(ctx, tenant)
	h.handleServiceResponse(w, r, updated, err, http.StatusOK)
}

// AssignDomainHandler lida com a requisição PUT /v1/tenants/{id}/domain.
func (h *Handler) AssignDomainHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := r.PathValue("id")

	var req struct {
		Domain string `json:"domain"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	err := h.Service.AssignDomain(ctx, tenantID, req.Domain)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	tenant, err := h.Service.GetTenantByID(ctx, tenantID)
	h.handleServiceResponse(w, r, tenant, err, http.StatusOK)
}
