package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"goloja/internal/domain"
	apperror "goloja/internal/errors"
	"goloja/internal/pkg/logger"
	"goloja/internal/pkg/middleware"
)

// CartService define o contrato que o Handler espera da camada de Serviço.
type CartService interface {
	GetCart(ctx context.Context, tenantID, userID string) (domain.Cart, error)
	AddItem(ctx context.Context, tenantID, userID string, item domain.CartItem) (domain.Cart, error)
	UpdateItemQuantity(ctx context.Context, tenantID, userID, itemID string, quantity int) (domain.Cart, error)
	RemoveItem(ctx context.Context, tenantID, userID, itemID string) (domain.Cart, error)
	ClearCart(ctx context.Context, tenantID, userID string) error
	MergeCarts(ctx context.Context, tenantID, guestID, userID string) (domain.Cart, error)
}

// Handler agrupa todos os métodos de Handler do carrinho.
type Handler struct {
	Service CartService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc CartService, log logger.Logger) *Handler {
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

// userID extrai o ID do usuário autenticado das claims do contexto.
func (h *Handler) userID(r *http.Request) (string, error) {
	claims, ok := middleware.GetUserClaimsFromContext(r.Context())
	if !ok {
		return "", apperror.NewUnauthorizedError("Autorização necessária.")
	}
	return claims.UserID, nil
}

// GetCartHandler lida com a requisição GET /v1/carts/{tenantID}.
// O carrinho é criado de forma preguiçosa se ainda não existir.
func (h *Handler) GetCartHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := r.PathValue("tenantID")

	userID, err := h.userID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	cart, err := h.Service.GetCart(ctx, tenantID, userID)
	h.handleServiceResponse(w, r, cart, err, http.StatusOK)
}

// AddItemHandler lida com a requisição POST /v1/carts/{tenantID}/items.
func (h *Handler) AddItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := r.PathValue("tenantID")

	userID, err := h.userID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	var item domain.CartItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	cart, err := h.Service.AddItem(ctx, tenantID, userID, item)
	h.handleServiceResponse(w, r, cart, err, http.StatusOK)
}

// UpdateItemHandler lida com a requisição PATCH /v1/carts/{tenantID}/items/{itemID}.
func (h *Handler) UpdateItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := r.PathValue("tenantID")
	itemID := r.PathValue("itemID")

	userID, err := h.userID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	cart, err := h.Service.UpdateItemQuantity(ctx, tenantID, userID, itemID, req.Quantity)
	h.handleServiceResponse(w, r, cart, err, http.StatusOK)
}

// RemoveItemHandler lida com a requisição DELETE /v1/carts/{tenantID}/items/{itemID}.
func (h *Handler) RemoveItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := r.PathValue("tenantID")
	itemID := r.PathValue("itemID")

	userID, err := h.userID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	cart, err := h.Service.RemoveItem(ctx, tenantID, userID, itemID)
	h.handleServiceResponse(w, r, cart, err, http.StatusOK)
}

// ClearCartHandler lida com a requisição DELETE /v1/carts/{tenantID}.
func (h *Handler) ClearCartHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := r.PathValue("tenantID")

	userID, err := h.userID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
		return
	}

	err = h.Service.ClearCart(ctx, tenantID, userID)
	h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
}

// MergeCartHandler lida com a requisição POST /v1/carts/{tenantID}/merge.
// Funde o carrinho de convidado (sessão anônima) no carrinho do usuário autenticado.
func (h *Handler) MergeCartHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := r.PathValue("tenantID")

	userID, err := h.userID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	var req struct {
		GuestID string `json:"guest_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}
	if req.GuestID == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("guest_id é obrigatório para a fusão de carrinhos."), http.StatusOK)
		return
	}

	cart, err := h.Service.MergeCarts(ctx, tenantID, req.GuestID, userID)
	h.handleServiceResponse(w, r, cart, err, http.StatusOK)
}
