package stockservice

import (
	"context"

	"goloja/internal/domain"
	apperror "goloja/internal/errors"
	"goloja/internal/pkg/logger"
)

// StockRepository define o contrato que o Serviço de Estoque espera da camada de Persistência.
type StockRepository interface {
	ReserveItems(ctx context.Context, items []domain.Reservation) error
	ReleaseItems(ctx context.Context, items []domain.Reservation) error
}

// Service é o Serviço de Estoque: expõe a reserva e a devolução manuais
// usadas pelos lojistas, sobre o mesmo livro-razão usado pelos pedidos.
type Service struct {
	repo   StockRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Estoque.
func NewService(repo StockRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ReserveStock reserva (decrementa) estoque de um único produto.
// Produto com track_stock desligado é um no-op de sucesso.
func (s *Service) ReserveStock(ctx context.Context, productID string, quantity int) error {
	if productID == "" {
		return apperror.NewValidationError("O product_id é obrigatório.")
	}
	if quantity < 1 {
		return apperror.NewValidationError("A quantidade deve ser no mínimo 1.")
	}

	err := s.repo.ReserveItems(ctx, []domain.Reservation{{ProductID: productID, Quantity: quantity}})
	if err != nil {
		s.logger.Warn("Falha ao reservar estoque.", map[string]interface{}{
			"product_id": productID,
			"quantity":   quantity,
			"error":      err.Error(),
		})
		return err
	}

	s.logger.Info("Estoque reservado.", map[string]interface{}{
		"product_id": productID,
		"quantity":   quantity,
	})
	return nil
}

// ReleaseStock devolve (incrementa) estoque de um único produto.
// Usado no processo manual de reposição após cancelamentos e devoluções.
func (s *Service) ReleaseStock(ctx context.Context, productID string, quantity int) error {
	if productID == "" {
		return apperror.NewValidationError("O product_id é obrigatório.")
	}
	if quantity < 1 {
		return apperror.NewValidationError("A quantidade deve ser no mínimo 1.")
	}

	err := s.repo.ReleaseItems(ctx, []domain.Reservation{{ProductID: productID, Quantity: quantity}})
	if err != nil {
		s.logger.Warn("Falha ao devolver estoque.", map[string]interface{}{
			"product_id": productID,
			"quantity":   quantity,
			"error":      err.Error(),
		})
		return err
	}

	s.logger.Info("Estoque devolvido.", map[string]interface{}{
		"product_id": productID,
		"quantity":   quantity,
	})
	return nil
}
