package orderservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"goloja/internal/domain"
	apperror "goloja/internal/errors"
	"goloja/internal/pkg/logger"
	"goloja/internal/service/orderservice"
)

// MockOrderRepository é uma implementação mock da interface OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Save(ctx context.Context, order domain.Order) (domain.Order, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id string) (domain.Order, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	args := m.Called(ctx, orderNumber)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter domain.OrderFilter) (domain.OrderPage, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(domain.OrderPage), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, order domain.Order, entry *domain.StatusHistoryEntry) error {
	args := m.Called(ctx, order, entry)
	return args.Error(0)
}

// MockStockReserver é uma implementação mock do livro-razão de estoque.
type MockStockReserver struct {
	mock.Mock
}

func (m *MockStockReserver) ReserveItems(ctx context.Context, items []domain.Reservation) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockStockReserver) ReleaseItems(ctx context.Context, items []domain.Reservation) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

// MockUserFinder resolve usuários para notificação.
type MockUserFinder struct {
	mock.Mock
}

func (m *MockUserFinder) FindByID(ctx context.Context, id string) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

// MockNotifier registra as notificações enviadas.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendOrderConfirmation(ctx context.Context, order domain.Order, user domain.User) error {
	args := m.Called(ctx, order, user)
	return args.Error(0)
}

func (m *MockNotifier) SendStatusUpdate(ctx context.Context, order domain.Order, user domain.User) error {
	args := m.Called(ctx, order, user)
	return args.Error(0)
}

func (m *MockNotifier) SendShippingConfirmation(ctx context.Context, order domain.Order, user domain.User, trackingCode string) error {
	args := m.Called(ctx, order, user, trackingCode)
	return args.Error(0)
}

func newTestService(repo *MockOrderRepository, stock *MockStockReserver, users *MockUserFinder, n *MockNotifier) *orderservice.Service {
	return orderservice.NewService(repo, stock, users, n, logger.NewLogger("debug"))
}

func validCreateRequest() domain.OrderCreateRequest {
	return domain.OrderCreateRequest{
		TenantID:   "t1",
		CustomerID: "u1",
		Subtotal:   100,
		Shipping:   10,
		Total:      110,
		Items: []domain.OrderItem{
			{ProductID: "p1", Name: "Camiseta", Price: 50, Quantity: 2},
		},
		ShippingAddress: domain.Address{
			Street:  "Rua das Flores",
			City:    "São Paulo",
			ZipCode: "01000-000",
		},
	}
}

// TestCreateOrder_Sucesso — fluxo feliz: reserva, persiste com status pending,
// histórico inicial "Pedido criado" e notificação de confirmação.
func TestCreateOrder_Sucesso(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockStock := new(MockStockReserver)
	mockUsers := new(MockUserFinder)
	mockNotifier := new(MockNotifier)

	mockStock.On("ReserveItems", mock.Anything, []domain.Reservation{{ProductID: "p1", Quantity: 2}}).Return(nil)
	mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(o domain.Order) bool {
		return o.Status == domain.StatusPending &&
			len(o.StatusHistory) == 1 &&
			o.StatusHistory[0].Comment == "Pedido criado" &&
			len(o.OrderNumber) == 14
	})).Return(domain.Order{ID: "o1", OrderNumber: "20260831123456", CustomerID: "u1", Status: domain.StatusPending}, nil)
	mockUsers.On("FindByID", mock.Anything, "u1").Return(domain.User{ID: "u1", Email: "ana@example.com"}, nil)
	mockNotifier.On("SendOrderConfirmation", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(mockRepo, mockStock, mockUsers, mockNotifier)
	order, err := svc.CreateOrder(context.Background(), validCreateRequest())

	assert.NoError(t, err)
	assert.Equal(t, "o1", order.ID)
	assert.Equal(t, domain.StatusPending, order.Status)
	mockRepo.AssertExpectations(t)
	mockStock.AssertExpectations(t)
	mockNotifier.AssertExpectations(t)
}

// TestCreateOrder_SemItens — pedido sem itens falha na validação antes de
// qualquer reserva.
func TestCreateOrder_SemItens(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockStock := new(MockStockReserver)

	svc := newTestService(mockRepo, mockStock, new(MockUserFinder), new(MockNotifier))

	req := validCreateRequest()
	req.Items = nil

	_, err := svc.CreateOrder(context.Background(), req)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockStock.AssertNotCalled(t, "ReserveItems", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestCreateOrder_EstoqueInsuficiente — a recusa da reserva aborta a criação
// e propaga o InsufficientStockError.
func TestCreateOrder_EstoqueInsuficiente(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockStock := new(MockStockReserver)

	stockErr := apperror.NewInsufficientStockError("p1", 2, 1)
	mockStock.On("ReserveItems", mock.Anything, mock.Anything).Return(stockErr)

	svc := newTestService(mockRepo, mockStock, new(MockUserFinder), new(MockNotifier))
	_, err := svc.CreateOrder(context.Background(), validCreateRequest())

	assert.Error(t, err)
	assert.IsType(t, &apperror.InsufficientStockError{}, err)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestCreateOrder_FalhaNaPersistenciaDevolveEstoque — se o Save falhar depois
// da reserva commitada, a ação compensatória ReleaseItems é executada.
func TestCreateOrder_FalhaNaPersistenciaDevolveEstoque(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockStock := new(MockStockReserver)

	reservations := []domain.Reservation{{ProductID: "p1", Quantity: 2}}
	mockStock.On("ReserveItems", mock.Anything, reservations).Return(nil)
	mockRepo.On("Save", mock.Anything, mock.Anything).Return(domain.Order{}, apperror.NewDBError("insert falhou", assert.AnError))
	mockStock.On("ReleaseItems", mock.Anything, reservations).Return(nil)

	svc := newTestService(mockRepo, mockStock, new(MockUserFinder), new(MockNotifier))
	_, err := svc.CreateOrder(context.Background(), validCreateRequest())

	assert.Error(t, err)
	mockStock.AssertCalled(t, "ReleaseItems", mock.Anything, reservations)
}

// TestCreateOrder_ColisaoDeNumeroRetenta — uma colisão de order_number
// (ConflictError do índice único) gera um número novo e tenta de novo.
func TestCreateOrder_ColisaoDeNumeroRetenta(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockStock := new(MockStockReserver)
	mockUsers := new(MockUserFinder)
	mockNotifier := new(MockNotifier)

	mockStock.On("ReserveItems", mock.Anything, mock.Anything).Return(nil)
	mockRepo.On("Save", mock.Anything, mock.Anything).
		Return(domain.Order{}, apperror.NewConflictError("Número de pedido já existe.")).Once()
	mockRepo.On("Save", mock.Anything, mock.Anything).
		Return(domain.Order{ID: "o1", CustomerID: "u1"}, nil).Once()
	mockUsers.On("FindByID", mock.Anything, "u1").Return(domain.User{ID: "u1", Email: "ana@example.com"}, nil)
	mockNotifier.On("SendOrderConfirmation", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(mockRepo, mockStock, mockUsers, mockNotifier)
	order, err := svc.CreateOrder(context.Background(), validCreateRequest())

	assert.NoError(t, err)
	assert.Equal(t, "o1", order.ID)
	mockRepo.AssertNumberOfCalls(t, "Save", 2)
	mockStock.AssertNotCalled(t, "ReleaseItems", mock.Anything, mock.Anything)
}

// TestCreateOrder_FalhaDeNotificacaoNaoPropaga — erro no envio da confirmação
// é apenas logado; o pedido criado é retornado normalmente.
func TestCreateOrder_FalhaDeNotificacaoNaoPropaga(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockStock := new(MockStockReserver)
	mockUsers := new(MockUserFinder)
	mockNotifier := new(MockNotifier)

	mockStock.On("ReserveItems", mock.Anything, mock.Anything).Return(nil)
	mockRepo.On("Save", mock.Anything, mock.Anything).Return(domain.Order{ID: "o1", CustomerID: "u1"}, nil)
	mockUsers.On("FindByID", mock.Anything, "u1").Return(domain.User{ID: "u1", Email: "ana@example.com"}, nil)
	mockNotifier.On("SendOrderConfirmation", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	svc := newTestService(mockRepo, mockStock, mockUsers, mockNotifier)
	order, err := svc.CreateOrder(context.Background(), validCreateRequest())

	assert.NoError(t, err)
	assert.Equal(t, "o1", order.ID)
}

// TestUpdateStatus_EnvioComRastreioSetaCamposENotifica — paid -> shipped com
// código de rastreio preenche TrackingCode/ShippingCarrier e dispara a
// confirmação de envio (não a notificação genérica de status).
func TestUpdateStatus_EnvioComRastreioSetaCamposENotifica(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockUsers := new(MockUserFinder)
	mockNotifier := new(MockNotifier)

	stored := domain.Order{ID: "o1", CustomerID: "u1", Status: domain.StatusPaid}
	mockRepo.On("FindByID", mock.Anything, "o1").Return(stored, nil)
	mockRepo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(o domain.Order) bool {
		return o.Status == domain.StatusShipped && o.TrackingCode == "BR123" && o.ShippingCarrier == "Correios"
	}), mock.Anything).Return(nil)
	mockUsers.On("FindByID", mock.Anything, "u1").Return(domain.User{ID: "u1", Email: "ana@example.com"}, nil)
	mockNotifier.On("SendShippingConfirmation", mock.Anything, mock.Anything, mock.Anything, "BR123").Return(nil)

	svc := newTestService(mockRepo, new(MockStockReserver), mockUsers, mockNotifier)
	order, err := svc.UpdateStatus(context.Background(), "o1", domain.StatusUpdateRequest{
		Status:          domain.StatusShipped,
		TrackingCode:    "BR123",
		ShippingCarrier: "Correios",
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, order.Status)
	assert.Equal(t, "BR123", order.TrackingCode)
	mockNotifier.AssertExpectations(t)
	mockNotifier.AssertNotCalled(t, "SendStatusUpdate", mock.Anything, mock.Anything, mock.Anything)
}

// TestUpdateStatus_TransicaoInvalida — pending -> shipped não está na tabela
// e falha com InvalidTransitionError sem persistir nada.
func TestUpdateStatus_TransicaoInvalida(t *testing.T) {
	mockRepo := new(MockOrderRepository)

	stored := domain.Order{ID: "o1", Status: domain.StatusPending}
	mockRepo.On("FindByID", mock.Anything, "o1").Return(stored, nil)

	svc := newTestService(mockRepo, new(MockStockReserver), new(MockUserFinder), new(MockNotifier))
	_, err := svc.UpdateStatus(context.Background(), "o1", domain.StatusUpdateRequest{Status: domain.StatusShipped})

	assert.Error(t, err)
	assert.IsType(t, &apperror.InvalidTransitionError{}, err)
	mockRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

// TestUpdateStatus_PedidoInexistente propaga o NotFoundError do repositório.
func TestUpdateStatus_PedidoInexistente(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockRepo.On("FindByID", mock.Anything, "nao-existe").Return(domain.Order{}, apperror.NewNotFoundError("Pedido não encontrado."))

	svc := newTestService(mockRepo, new(MockStockReserver), new(MockUserFinder), new(MockNotifier))
	_, err := svc.UpdateStatus(context.Background(), "nao-existe", domain.StatusUpdateRequest{Status: domain.StatusPaid})

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)
}

// TestCancelOrder_PedidoEnviadoNaoCancela — cancelamento só é permitido em
// pending/paid; um pedido shipped falha com NotCancellableError.
func TestCancelOrder_PedidoEnviadoNaoCancela(t *testing.T) {
	mockRepo := new(MockOrderRepository)

	stored := domain.Order{ID: "o1", Status: domain.StatusShipped}
	mockRepo.On("FindByID", mock.Anything, "o1").Return(stored, nil)

	svc := newTestService(mockRepo, new(MockStockReserver), new(MockUserFinder), new(MockNotifier))
	_, err := svc.CancelOrder(context.Background(), "o1")

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotCancellableError{}, err)
	mockRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

// TestCancelOrder_Sucesso — pedido pending cancela com o comentário padrão
// "Pedido cancelado" no histórico.
func TestCancelOrder_Sucesso(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockUsers := new(MockUserFinder)
	mockNotifier := new(MockNotifier)

	stored := domain.Order{ID: "o1", CustomerID: "u1", Status: domain.StatusPending}
	mockRepo.On("FindByID", mock.Anything, "o1").Return(stored, nil)
	mockRepo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(o domain.Order) bool {
		return o.Status == domain.StatusCancelled
	}), mock.MatchedBy(func(entry *domain.StatusHistoryEntry) bool {
		return entry != nil && entry.Comment == "Pedido cancelado"
	})).Return(nil)
	mockUsers.On("FindByID", mock.Anything, "u1").Return(domain.User{ID: "u1", Email: "ana@example.com"}, nil)
	mockNotifier.On("SendStatusUpdate", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(mockRepo, new(MockStockReserver), mockUsers, mockNotifier)
	order, err := svc.CancelOrder(context.Background(), "o1")

	assert.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, order.Status)
	mockRepo.AssertExpectations(t)
}

// TestListOrders_NormalizaPaginacao — page/limit ausentes viram 1/20 e um
// limit acima de 100 é reduzido para 100.
func TestListOrders_NormalizaPaginacao(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockRepo.On("FindAll", mock.Anything, mock.MatchedBy(func(f domain.OrderFilter) bool {
		return f.Page == 1 && f.Limit == 20
	})).Return(domain.OrderPage{}, nil).Once()
	mockRepo.On("FindAll", mock.Anything, mock.MatchedBy(func(f domain.OrderFilter) bool {
		return f.Page == 3 && f.Limit == 100
	})).Return(domain.OrderPage{}, nil).Once()

	svc := newTestService(mockRepo, new(MockStockReserver), new(MockUserFinder), new(MockNotifier))

	_, err := svc.ListOrders(context.Background(), domain.OrderFilter{})
	assert.NoError(t, err)

	_, err = svc.ListOrders(context.Background(), domain.OrderFilter{Page: 3, Limit: 500})
	assert.NoError(t, err)

	mockRepo.AssertExpectations(t)
}

// TestGetOrderByNumber_Inexistente propaga o NotFoundError do repositório.
func TestGetOrderByNumber_Inexistente(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockRepo.On("FindByNumber", mock.Anything, "20260101000000").Return(domain.Order{}, apperror.NewNotFoundError("Pedido não encontrado."))

	svc := newTestService(mockRepo, new(MockStockReserver), new(MockUserFinder), new(MockNotifier))
	_, err := svc.GetOrderByNumber(context.Background(), "20260101000000")

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)
}
