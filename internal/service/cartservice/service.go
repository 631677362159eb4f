package cartservice

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"goloja/internal/domain"
	apperror "goloja/internal/errors"
	"goloja/internal/pkg/logger"
)

// CartRepository define o contrato que o Serviço de Carrinho espera da camada de Persistência.
type CartRepository interface {
	Find(ctx context.Context, tenantID, userID string) (domain.Cart, error)
	Save(ctx context.Context, cart domain.Cart) error
	Delete(ctx context.Context, tenantID, userID string) error
}

// Service é o Serviço de Carrinho: um carrinho por par (usuário, loja),
// criado de forma preguiçosa no primeiro acesso. Não há controle de
// concorrência: escritas simultâneas seguem last-write-wins.
type Service struct {
	repo   CartRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Carrinho.
func NewService(repo CartRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// GetCart busca o carrinho do usuário na loja, criando um carrinho vazio
// se ainda não existir (criação preguiçosa).
func (s *Service) GetCart(ctx context.Context, tenantID, userID string) (domain.Cart, error) {
	if tenantID == "" || userID == "" {
		return domain.Cart{}, apperror.NewValidationError("Loja e usuário são obrigatórios.")
	}

	cart, err := s.repo.Find(ctx, tenantID, userID)
	if err != nil {
		var notFound *apperror.NotFoundError
		if !errors.As(err, &notFound) {
			return domain.Cart{}, err
		}

		// Primeiro acesso: cria o carrinho vazio.
		cart = domain.Cart{
			TenantID:  tenantID,
			UserID:    userID,
			Items:     []domain.CartItem{},
			UpdatedAt: time.Now(),
		}
		if err := s.repo.Save(ctx, cart); err != nil {
			return domain.Cart{}, err
		}
		s.logger.Debug("Carrinho criado no primeiro acesso.", map[string]interface{}{
			"tenant_id": tenantID,
			"user_id":   userID,
		})
	}

	return cart, nil
}

// AddItem adiciona um item ao carrinho. Se já houver item do mesmo produto,
// as quantidades são somadas.
func (s *Service) AddItem(ctx context.Context, tenantID, userID string, item domain.CartItem) (domain.Cart, error) {
	if item.ProductID == "" {
		return domain.Cart{}, apperror.NewValidationError("O product_id do item é obrigatório.")
	}
	if item.Quantity < 1 {
		return domain.Cart{}, apperror.NewValidationError("A quantidade do item deve ser no mínimo 1.")
	}

	cart, err := s.GetCart(ctx, tenantID, userID)
	if err != nil {
		return domain.Cart{}, err
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == item.ProductID {
			cart.Items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		item.ID = uuid.NewString()
		cart.Items = append(cart.Items, item)
	}

	cart.UpdatedAt = time.Now()
	if err := s.repo.Save(ctx, cart); err != nil {
		return domain.Cart{}, err
	}

	return cart, nil
}

// UpdateItemQuantity altera a quantidade de um item existente do carrinho.
func (s *Service) UpdateItemQuantity(ctx context.Context, tenantID, userID, itemID string, quantity int) (domain.Cart, error) {
	if quantity < 1 {
		return domain.Cart{}, apperror.NewValidationError("A quantidade do item deve ser no mínimo 1.")
	}

	cart, err := s.GetCart(ctx, tenantID, userID)
	if err != nil {
		return domain.Cart{}, err
	}

	found := false
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			cart.Items[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		return domain.Cart{}, apperror.NewNotFoundError("Item não encontrado no carrinho.")
	}

	cart.UpdatedAt = time.Now()
	if err := s.repo.Save(ctx, cart); err != nil {
		return domain.Cart{}, err
	}

	return cart, nil
}

// RemoveItem remove um item do carrinho.
func (s *Service) RemoveItem(ctx context.Context, tenantID, userID, itemID string) (domain.Cart, error) {
	cart, err := s.GetCart(ctx, tenantID, userID)
	if err != nil {
		return domain.Cart{}, err
	}

	items := cart.Items[:0]
	found := false
	for _, item := range cart.Items {
		if item.ID == itemID {
			found = true
			continue
		}
		items = append(items, item)
	}
	if !found {
		return domain.Cart{}, apperror.NewNotFoundError("Item não encontrado no carrinho.")
	}

	cart.Items = items
	cart.UpdatedAt = time.Now()
	if err := s.repo.Save(ctx, cart); err != nil {
		return domain.Cart{}, err
	}

	return cart, nil
}

// ClearCart esvazia o carrinho do usuário na loja.
func (s *Service) ClearCart(ctx context.Context, tenantID, userID string) error {
	if tenantID == "" || userID == "" {
		return apperror.NewValidationError("Loja e usuário são obrigatórios.")
	}
	return s.repo.Delete(ctx, tenantID, userID)
}

// MergeCarts mescla o carrinho de visitante no carrinho do usuário autenticado
// (fluxo de login): quantidades de produtos em comum são somadas e os demais
// itens são anexados. O carrinho de origem é removido ao final.
func (s *Service) MergeCarts(ctx context.Context, tenantID, guestID, userID string) (domain.Cart, error) {
	if guestID == "" || userID == "" {
		return domain.Cart{}, apperror.NewValidationError("Carrinhos de origem e destino são obrigatórios.")
	}

	guestCart, err := s.repo.Find(ctx, tenantID, guestID)
	if err != nil {
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			// Visitante sem carrinho: nada a mesclar.
			return s.GetCart(ctx, tenantID, userID)
		}
		return domain.Cart{}, err
	}

	userCart, err := s.GetCart(ctx, tenantID, userID)
	if err != nil {
		return domain.Cart{}, err
	}

	for _, guestItem := range guestCart.Items {
		merged := false
		for i := range userCart.Items {
			if userCart.Items[i].ProductID == guestItem.ProductID {
				userCart.Items[i].Quantity += guestItem.Quantity
				merged = true
				break
			}
		}
		if !merged {
			userCart.Items = append(userCart.Items, guestItem)
		}
	}

	userCart.UpdatedAt = time.Now()
	if err := s.repo.Save(ctx, userCart); err != nil {
		return domain.Cart{}, err
	}

	if err := s.repo.Delete(ctx, tenantID, guestID); err != nil {
		// O merge já foi gravado; a sobra do carrinho de visitante expira pelo TTL.
		s.logger.Warn("Falha ao remover carrinho de visitante após merge.", map[string]interface{}{
			"tenant_id": tenantID,
			"guest_id":  guestID,
			"error":     err.Error(),
		})
	}

	s.logger.Info("Carrinhos mesclados.", map[string]interface{}{
		"tenant_id": tenantID,
		"user_id":   userID,
		"items":     len(userCart.Items),
	})
	return userCart, nil
}
