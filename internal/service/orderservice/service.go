package orderservice

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"goloja/internal/domain"
	apperror "goloja/internal/errors"
	"goloja/internal/pkg/logger"
	"goloja/internal/pkg/notifier"
)

// Limite superior de itens por página na listagem de pedidos.
const maxPageLimit = 100

// Página padrão quando o chamador não informa limit.
const defaultPageLimit = 20

// Tentativas de geração de order_number antes de desistir por colisão.
const orderNumberAttempts = 3

// OrderRepository define o contrato que o Serviço de Pedidos espera da camada de Persistência.
type OrderRepository interface {
	Save(ctx context.Context, order domain.Order) (domain.Order, error)
	FindByID(ctx context.Context, id string) (domain.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (domain.Order, error)
	FindAll(ctx context.Context, filter domain.OrderFilter) (domain.OrderPage, error)
	UpdateStatus(ctx context.Context, order domain.Order, entry *domain.StatusHistoryEntry) error
}

// StockReserver é o livro-razão de estoque visto pelo Serviço de Pedidos.
type StockReserver interface {
	ReserveItems(ctx context.Context, items []domain.Reservation) error
	ReleaseItems(ctx context.Context, items []domain.Reservation) error
}

// UserFinder resolve o usuário do pedido para o envio de notificações.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (domain.User, error)
}

// Service orquestra a criação de pedidos, o ciclo de vida de status e a listagem.
type Service struct {
	repo     OrderRepository
	stock    StockReserver
	users    UserFinder
	notifier notifier.Notifier
	logger   logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Pedidos.
func NewService(repo OrderRepository, stock StockReserver, users UserFinder, n notifier.Notifier, logger logger.Logger) *Service {
	return &Service{
		repo:     repo,
		stock:    stock,
		users:    users,
		notifier: n,
		logger:   logger,
	}
}

// CreateOrder valida o payload, reserva o estoque de todos os itens
// (tudo-ou-nada), persiste o pedido com status pending e dispara a
// notificação de confirmação (best-effort).
//
// Se a persistência falhar depois da reserva ter sido commitada, a reserva é
// desfeita pela ação compensatória ReleaseItems.
func (s *Service) CreateOrder(ctx context.Context, req domain.OrderCreateRequest) (domain.Order, error) {
	if err := validateCreateRequest(req); err != nil {
		return domain.Order{}, err
	}

	// 1. Reserva de estoque: uma única transação cobre todos os itens.
	reservations := make([]domain.Reservation, len(req.Items))
	for i, item := range req.Items {
		reservations[i] = domain.Reservation{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	if err := s.stock.ReserveItems(ctx, reservations); err != nil {
		s.logger.Warn("Reserva de estoque recusada para o pedido.", map[string]interface{}{
			"tenant_id": req.TenantID,
			"error":     err.Error(),
		})
		return domain.Order{}, err
	}

	// 2. Montagem do agregado
	now := time.Now()
	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = domain.PaymentPix
	}

	order := domain.Order{
		ID:              uuid.NewString(),
		TenantID:        req.TenantID,
		CustomerID:      req.CustomerID,
		Status:          domain.StatusPending,
		PaymentMethod:   paymentMethod,
		Subtotal:        req.Subtotal,
		Shipping:        req.Shipping,
		Discount:        req.Discount,
		Total:           req.Total,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
		StatusHistory: []domain.StatusHistoryEntry{
			{Status: domain.StatusPending, Date: now, Comment: "Pedido criado"},
		},
	}

	order.Items = make([]domain.OrderItem, len(req.Items))
	for i, item := range req.Items {
		order.Items[i] = domain.OrderItem{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		}
	}

	// 3. Persistência com retentativa de número: uma colisão de order_number
	// (índice único) gera um número novo e tenta de novo.
	backoff := retry.WithMaxRetries(orderNumberAttempts-1, retry.NewConstant(10*time.Millisecond))
	created := domain.Order{}
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		order.OrderNumber = GenerateOrderNumber()
		saved, err := s.repo.Save(ctx, order)
		if err != nil {
			var conflictErr *apperror.ConflictError
			if errors.As(err, &conflictErr) {
				s.logger.Warn("Colisão de número de pedido, gerando novo número.", map[string]interface{}{
					"order_number": order.OrderNumber,
				})
				return retry.RetryableError(err)
			}
			return err
		}
		created = saved
		return nil
	})

	if err != nil {
		// A reserva já foi commitada: desfaz antes de propagar o erro.
		if releaseErr := s.stock.ReleaseItems(ctx, reservations); releaseErr != nil {
			s.logger.Error("Falha ao devolver estoque após erro na persistência do pedido.", releaseErr)
		}
		s.logger.Error("Falha ao persistir pedido.", err)
		return domain.Order{}, err
	}

	s.logger.Info("Pedido criado com sucesso.", map[string]interface{}{
		"order_id":     created.ID,
		"order_number": created.OrderNumber,
		"tenant_id":    created.TenantID,
		"total":        created.Total,
	})

	// 4. Notificação de confirmação: falha nunca afeta o pedido já commitado.
	s.notifyBestEffort(ctx, created, func(user domain.User) error {
		return s.notifier.SendOrderConfirmation(ctx, created, user)
	})

	return created, nil
}

// UpdateStatus carrega o pedido, valida a transição pela máquina de estados,
// persiste e dispara a notificação adequada (best-effort).
func (s *Service) UpdateStatus(ctx context.Context, orderID string, req domain.StatusUpdateRequest) (domain.Order, error) {
	if req.Status == "" {
		return domain.Order{}, apperror.NewValidationError("O novo status é obrigatório.")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	entry, err := Transition(&order, req.Status, req.Comment)
	if err != nil {
		s.logger.Debug("Transição de status recusada.", map[string]interface{}{
			"order_id": orderID,
			"from":     order.Status,
			"to":       req.Status,
		})
		return domain.Order{}, err
	}

	// Caso especial: envio com código de rastreio.
	shippedWithTracking := req.Status == domain.StatusShipped && req.TrackingCode != ""
	if shippedWithTracking {
		order.TrackingCode = req.TrackingCode
		order.ShippingCarrier = req.ShippingCarrier
	}

	if err := s.repo.UpdateStatus(ctx, order, entry); err != nil {
		s.logger.Error("Falha ao persistir atualização de status.", err)
		return domain.Order{}, err
	}

	s.logger.Info("Status do pedido atualizado.", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"status":       order.Status,
	})

	s.notifyBestEffort(ctx, order, func(user domain.User) error {
		if shippedWithTracking {
			return s.notifier.SendShippingConfirmation(ctx, order, user, order.TrackingCode)
		}
		return s.notifier.SendStatusUpdate(ctx, order, user)
	})

	return order, nil
}

// CancelOrder é o atalho de cancelamento: permitido apenas a partir de
// pending e paid; qualquer outro status falha com NotCancellableError.
// O cancelamento é uma transição de status, nunca uma remoção do registro.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (domain.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	if !cancellableStatuses[order.Status] {
		return domain.Order{}, apperror.NewNotCancellableError(string(order.Status))
	}

	entry, err := Transition(&order, domain.StatusCancelled, "Pedido cancelado")
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.repo.UpdateStatus(ctx, order, entry); err != nil {
		s.logger.Error("Falha ao persistir cancelamento do pedido.", err)
		return domain.Order{}, err
	}

	// Decisão de negócio em aberto: o estoque reservado NÃO é devolvido no
	// cancelamento; a reposição acontece por processo manual.
	s.logger.Info("Pedido cancelado.", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
	})

	s.notifyBestEffort(ctx, order, func(user domain.User) error {
		return s.notifier.SendStatusUpdate(ctx, order, user)
	})

	return order, nil
}

// GetOrderByID busca o pedido completo pelo ID.
func (s *Service) GetOrderByID(ctx context.Context, id string) (domain.Order, error) {
	if id == "" {
		return domain.Order{}, apperror.NewValidationError("ID do pedido é obrigatório.")
	}
	return s.repo.FindByID(ctx, id)
}

// GetOrderByNumber busca o pedido completo pelo número legível.
func (s *Service) GetOrderByNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	if orderNumber == "" {
		return domain.Order{}, apperror.NewValidationError("Número do pedido é obrigatório.")
	}
	return s.repo.FindByNumber(ctx, orderNumber)
}

// ListOrders lista pedidos com filtros e paginação. O limit é limitado a 100
// para impedir que um chamador carregue a tabela inteira em uma página.
func (s *Service) ListOrders(ctx context.Context, filter domain.OrderFilter) (domain.OrderPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}

	return s.repo.FindAll(ctx, filter)
}

// notifyBestEffort resolve o usuário do pedido e executa o envio, engolindo
// qualquer falha (apenas log). Pedidos sem cliente cadastrado não notificam.
func (s *Service) notifyBestEffort(ctx context.Context, order domain.Order, send func(user domain.User) error) {
	if order.CustomerID == "" {
		return
	}

	user, err := s.users.FindByID(ctx, order.CustomerID)
	if err != nil {
		s.logger.Warn("Usuário do pedido não resolvido para notificação.", map[string]interface{}{
			"order_id":    order.ID,
			"customer_id": order.CustomerID,
			"error":       err.Error(),
		})
		return
	}

	if err := send(user); err != nil {
		s.logger.Warn("Falha ao enviar notificação do pedido.", map[string]interface{}{
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}
}

// validateCreateRequest aplica as validações de forma do payload de criação.
func validateCreateRequest(req domain.OrderCreateRequest) error {
	if req.TenantID == "" {
		return apperror.NewValidationError("O tenant_id é obrigatório.")
	}
	if len(req.Items) == 0 {
		return apperror.NewValidationError("O pedido precisa de ao menos um item.")
	}
	for _, item := range req.Items {
		if item.ProductID == "" {
			return apperror.NewValidationError("Todo item precisa de um product_id.")
		}
		if item.Quantity < 1 {
			return apperror.NewValidationError("A quantidade de cada item deve ser no mínimo 1.")
		}
	}
	if req.Subtotal < 0 || req.Shipping < 0 || req.Discount < 0 || req.Total < 0 {
		return apperror.NewValidationError("Valores monetários não podem ser negativos.")
	}
	if req.ShippingAddress.Street == "" || req.ShippingAddress.City == "" || req.ShippingAddress.ZipCode == "" {
		return apperror.NewValidationError("Endereço de entrega é obrigatório (rua, cidade e CEP).")
	}
	return nil
}
