package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"goloja/internal/domain"
	apperror "goloja/internal/errors"
	"goloja/internal/pkg/logger"
)

// StockService define o contrato que o Handler espera da camada de Serviço.
type StockService interface {
	ReserveStock(ctx context.Context, productID string, quantity int) error
	ReleaseStock(ctx context.Context, productID string, quantity int) error
}

// MovementRequest representa o payload de reserva ou devolução manual de estoque.
type MovementRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Handler agrupa os métodos de Handler de movimentação de estoque.
type Handler struct {
	Service StockService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc StockService, log logger.Logger) *Handler {
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

// decodeMovement decodifica e valida o payload de movimentação.
func (h *Handler) decodeMovement(w http.ResponseWriter, r *http.Request) (MovementRequest, bool) {
	var req MovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return req, false
	}
	return req, true
}

// ReserveHandler lida com a requisição POST /v1/stock/reserve.
// Reserva estoque de um único produto fora do fluxo de criação de pedido.
func (h *Handler) ReserveHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := h.decodeMovement(w, r)
	if !ok {
		return
	}

	err := h.Service.ReserveStock(ctx, req.ProductID, req.Quantity)
	h.handleServiceResponse(w, r, map[string]string{"result": "reserved"}, err, http.StatusOK)
}

// ReleaseHandler lida com a requisição POST /v1/stock/release.
// Devolve ao estoque uma quantidade previamente reservada.
func (h *Handler) ReleaseHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := h.decodeMovement(w, r)
	if !ok {
		return
	}

	err := h.Service.ReleaseStock(ctx, req.ProductID, req.Quantity)
	h.handleServiceResponse(w, r, map[string]string{"result": "released"}, err, http.StatusOK)
}
