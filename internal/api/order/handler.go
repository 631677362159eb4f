package order

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"goloja/internal/domain"
	apperror "goloja/internal/errors"
	"goloja/internal/pkg/logger"
)

// OrderService define o contrato que o Handler espera da camada de Serviço.
type OrderService interface {
	CreateOrder(ctx context.Context, req domain.OrderCreateRequest) (domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, req domain.StatusUpdateRequest) (domain.Order, error)
	CancelOrder(ctx context.Context, orderID string) (domain.Order, error)
	GetOrderByID(ctx context.Context, id string) (domain.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) (domain.OrderPage, error)
}

// Handler agrupa todos os métodos de Handler de pedidos.
type Handler struct {
	Service OrderService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc OrderService, log logger.Logger) *Handler {
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

// CreateOrderHandler lida com a requisição POST /v1/orders.
func (h *Handler) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.OrderCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	order, err := h.Service.CreateOrder(ctx, req)
	h.handleServiceResponse(w, r, order, err, http.StatusCreated)
}

// ListOrdersHandler lida com a requisição GET /v1/orders.
func (h *Handler) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	filter := domain.OrderFilter{
		TenantID:      query.Get("tenantId"),
		CustomerID:    query.Get("customerId"),
		Status:        domain.OrderStatus(query.Get("status")),
		PaymentMethod: domain.PaymentMethod(query.Get("paymentMethod")),
		Search:        query.Get("search"),
		SortBy:        query.Get("sortBy"),
		SortDirection: query.Get("sortDirection"),
	}

	filter.Page, _ = strconv.Atoi(query.Get("page"))
	filter.Limit, _ = strconv.Atoi(query.Get("limit"))

	if raw := query.Get("startDate"); raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("startDate inválido: use o formato RFC3339."), http.StatusOK)
			return
		}
		filter.StartDate = &start
	}
	if raw := query.Get("endDate"); raw != "" {
		end, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("endDate inválido: use o formato RFC3339."), http.StatusOK)
			return
		}
		filter.EndDate = &end
	}

	page, err := h.Service.ListOrders(ctx, filter)
	h.handleServiceResponse(w, r, page, err, http.StatusOK)
}

// GetOrderByIDHandler lida com a requisição GET /v1/orders/{id}.
func (h *Handler) GetOrderByIDHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := r.PathValue("id")

	order, err := h.Service.GetOrderByID(ctx, orderID)
	h.handleServiceResponse(w, r, order, err, http.StatusOK)
}

// GetOrderByNumberHandler lida com a requisição GET /v1/orders/number/{orderNumber}.
func (h *Handler) GetOrderByNumberHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderNumber := r.PathValue("orderNumber")

	order, err := h.Service.GetOrderByNumber(ctx, orderNumber)
	h.handleServiceResponse(w, r, order, err, http.StatusOK)
}

// UpdateStatusHandler lida com a requisição PATCH /v1/orders/{id}/status.
func (h *Handler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := r.PathValue("id")

	var req domain.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	order, err := h.Service.UpdateStatus(ctx, orderID, req)
	h.handleServiceResponse(w, r, order, err, http.StatusOK)
}

// CancelOrderHandler lida com a requisição DELETE /v1/orders/{id}.
// O cancelamento é uma transição de status, não uma remoção do registro.
func (h *Handler) CancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := r.PathValue("id")

	order, err := h.Service.CancelOrder(ctx, orderID)
	h.handleServiceResponse(w, r, order, err, http.StatusOK)
}
