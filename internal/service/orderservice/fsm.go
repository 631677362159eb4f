package orderservice

import (
	"fmt"
	"time"

	"goloja/internal/domain"
	apperror "goloja/internal/errors"
)

// transitions é a máquina de estados do ciclo de vida do pedido:
// mapa de status de origem para o conjunto de destinos permitidos.
// cancelled e refunded são terminais (nenhuma aresta de saída) e
// auto-transições não são permitidas (a tabela não lista o próprio status).
var transitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.StatusPending:    {domain.StatusPaid, domain.StatusProcessing, domain.StatusCancelled},
	domain.StatusProcessing: {domain.StatusPaid, domain.StatusShipped, domain.StatusCancelled},
	domain.StatusPaid:       {domain.StatusProcessing, domain.StatusShipped, domain.StatusRefunded, domain.StatusCancelled},
	domain.StatusShipped:    {domain.StatusDelivered, domain.StatusRefunded},
	domain.StatusDelivered:  {domain.StatusCompleted, domain.StatusRefunded},
	domain.StatusCompleted:  {domain.StatusRefunded},
	domain.StatusCancelled:  {},
	domain.StatusRefunded:   {},
}

// terminalStatuses são os status sem transições de saída.
var terminalStatuses = map[domain.OrderStatus]bool{
	domain.StatusCancelled: true,
	domain.StatusRefunded:  true,
}

// cancellableStatuses são os únicos status a partir dos quais o atalho de
// cancelamento (DELETE /orders/{id}) é permitido.
var cancellableStatuses = map[domain.OrderStatus]bool{
	domain.StatusPending: true,
	domain.StatusPaid:    true,
}

// CanTransition indica se a transição from -> to está na tabela.
func CanTransition(from, to domain.OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition valida e aplica uma transição de status sobre o pedido em memória.
// Em caso de sucesso, atualiza o status e o UpdatedAt; se um comentário for
// informado, a entrada de histórico correspondente é anexada e retornada para
// que o repositório a persista. Repetir a transição com o mesmo status de
// destino falha: o status atual já é o destino e a tabela não contém
// auto-transições.
func Transition(order *domain.Order, newStatus domain.OrderStatus, comment string) (*domain.StatusHistoryEntry, error) {
	if !CanTransition(order.Status, newStatus) {
		return nil, apperror.NewInvalidTransitionError(string(order.Status), string(newStatus))
	}

	now := time.Now()
	order.Status = newStatus
	order.UpdatedAt = now

	if comment == "" {
		return nil, nil
	}

	entry := domain.StatusHistoryEntry{
		Status:  newStatus,
		Date:    now,
		Comment: comment,
	}
	order.StatusHistory = append(order.StatusHistory, entry)
	return &entry, nil
}

// ValidateTransitionTable verifica a consistência da tabela de transições na
// inicialização: todo status não-terminal precisa de ao menos uma aresta de
// saída e todo destino precisa existir como origem na tabela.
func ValidateTransitionTable() error {
	for from, destinations := range transitions {
		if !terminalStatuses[from] && len(destinations) == 0 {
			return fmt.Errorf("status não-terminal sem transições de saída: %s", from)
		}
		if terminalStatuses[from] && len(destinations) > 0 {
			return fmt.Errorf("status terminal com transições de saída: %s", from)
		}
		for _, to := range destinations {
			if _, ok := transitions[to]; !ok {
				return fmt.Errorf("transição %s -> %s aponta para status desconhecido", from, to)
			}
			if to == from {
				return fmt.Errorf("auto-transição não permitida: %s", from)
			}
		}
	}
	return nil
}
