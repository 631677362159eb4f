package orderservice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"goloja/internal/domain"
	apperror "goloja/internal/errors"
)

// allStatuses cobre todos os status conhecidos do ciclo de vida.
var allStatuses = []domain.OrderStatus{
	domain.StatusPending,
	domain.StatusPaid,
	domain.StatusProcessing,
	domain.StatusShipped,
	domain.StatusDelivered,
	domain.StatusCompleted,
	domain.StatusCancelled,
	domain.StatusRefunded,
}

// TestCanTransition_TabelaCompleta verifica a matriz inteira de transições:
// apenas os pares listados na tabela são permitidos.
func TestCanTransition_TabelaCompleta(t *testing.T) {
	allowed := map[domain.OrderStatus]map[domain.OrderStatus]bool{
		domain.StatusPending:    {domain.StatusPaid: true, domain.StatusProcessing: true, domain.StatusCancelled: true},
		domain.StatusProcessing: {domain.StatusPaid: true, domain.StatusShipped: true, domain.StatusCancelled: true},
		domain.StatusPaid:       {domain.StatusProcessing: true, domain.StatusShipped: true, domain.StatusRefunded: true, domain.StatusCancelled: true},
		domain.StatusShipped:    {domain.StatusDelivered: true, domain.StatusRefunded: true},
		domain.StatusDelivered:  {domain.StatusCompleted: true, domain.StatusRefunded: true},
		domain.StatusCompleted:  {domain.StatusRefunded: true},
		domain.StatusCancelled:  {},
		domain.StatusRefunded:   {},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			got := CanTransition(from, to)
			want := allowed[from][to]
			assert.Equal(t, want, got, "transição %s -> %s", from, to)
		}
	}
}

// TestCanTransition_TerminaisSaoAbsorventes garante que cancelled e refunded
// não têm nenhuma transição de saída, nem mesmo entre si.
func TestCanTransition_TerminaisSaoAbsorventes(t *testing.T) {
	for _, from := range []domain.OrderStatus{domain.StatusCancelled, domain.StatusRefunded} {
		for _, to := range allStatuses {
			assert.False(t, CanTransition(from, to), "%s deveria ser terminal (tentou %s)", from, to)
		}
	}
}

// TestTransition_Sucesso aplica uma transição válida e verifica status,
// UpdatedAt e a entrada de histórico com comentário.
func TestTransition_Sucesso(t *testing.T) {
	order := domain.Order{ID: "o1", Status: domain.StatusPending}

	entry, err := Transition(&order, domain.StatusPaid, "Pagamento confirmado")

	assert.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, order.Status)
	assert.False(t, order.UpdatedAt.IsZero())
	if assert.NotNil(t, entry) {
		assert.Equal(t, domain.StatusPaid, entry.Status)
		assert.Equal(t, "Pagamento confirmado", entry.Comment)
	}
	assert.Len(t, order.StatusHistory, 1)
}

// TestTransition_SemComentarioNaoGeraHistorico — sem comentário, nada é
// anexado ao histórico e a entrada retornada é nil.
func TestTransition_SemComentarioNaoGeraHistorico(t *testing.T) {
	order := domain.Order{ID: "o1", Status: domain.StatusPending}

	entry, err := Transition(&order, domain.StatusPaid, "")

	assert.NoError(t, err)
	assert.Nil(t, entry)
	assert.Empty(t, order.StatusHistory)
	assert.Equal(t, domain.StatusPaid, order.Status)
}

// TestTransition_Invalida — transição fora da tabela falha com
// InvalidTransitionError e não altera o pedido.
func TestTransition_Invalida(t *testing.T) {
	order := domain.Order{ID: "o1", Status: domain.StatusPending}

	entry, err := Transition(&order, domain.StatusShipped, "")

	assert.Error(t, err)
	assert.Nil(t, entry)
	assert.IsType(t, &apperror.InvalidTransitionError{}, err)
	assert.Equal(t, domain.StatusPending, order.Status, "pedido não deve mudar em transição inválida")
	assert.True(t, order.UpdatedAt.IsZero())
}

// TestTransition_MesmoStatusFalha — repetir a transição para o status atual
// falha, pois a tabela não contém auto-transições.
func TestTransition_MesmoStatusFalha(t *testing.T) {
	order := domain.Order{ID: "o1", Status: domain.StatusPaid}

	_, err := Transition(&order, domain.StatusPaid, "de novo")

	assert.Error(t, err)
	assert.IsType(t, &apperror.InvalidTransitionError{}, err)
}

// TestValidateTransitionTable_TabelaEmbarcada — a tabela do código passa na
// validação de consistência.
func TestValidateTransitionTable_TabelaEmbarcada(t *testing.T) {
	assert.NoError(t, ValidateTransitionTable())
}

// TestValidateTransitionTable_NaoTerminalSemSaida — um status não-terminal sem
// arestas de saída é rejeitado na validação.
func TestValidateTransitionTable_NaoTerminalSemSaida(t *testing.T) {
	original := transitions[domain.StatusCompleted]
	transitions[domain.StatusCompleted] = nil
	defer func() { transitions[domain.StatusCompleted] = original }()

	err := ValidateTransitionTable()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sem transições de saída")
}

// TestValidateTransitionTable_AutoTransicao — a validação rejeita uma tabela
// com auto-transição.
func TestValidateTransitionTable_AutoTransicao(t *testing.T) {
	original := transitions[domain.StatusPending]
	transitions[domain.StatusPending] = append([]domain.OrderStatus{domain.StatusPending}, original...)
	defer func() { transitions[domain.StatusPending] = original }()

	err := ValidateTransitionTable()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "auto-transição")
}
