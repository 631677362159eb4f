package stockrepo_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"goloja/internal/domain"
	apperror "goloja/internal/errors"
	"goloja/internal/pkg/logger"
	"goloja/internal/repository/stockrepo"
)

// fakeCache é um cache.Client nulo para os testes do repositório.
type fakeCache struct{}

func (fakeCache) Get(ctx context.Context, key string) (string, error) { return "", nil }
func (fakeCache) GetInt(ctx context.Context, key string) (int, error) { return 0, nil }
func (fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}
func (fakeCache) Incr(ctx context.Context, key string) error   { return nil }
func (fakeCache) Delete(ctx context.Context, key string) error { return nil }

func newTestRepo(t *testing.T) (*stockrepo.StockRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("erro ao criar sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := stockrepo.NewStockRepository(db, fakeCache{}, 2*time.Second, logger.NewLogger("debug"))
	return repo, mock
}

var selectForUpdate = `SELECT stock, track_stock, status`
var updateProducts = regexp.QuoteMeta(`UPDATE products`)

// TestReserveItems_Sucesso — dois itens decrementados na mesma transação.
func TestReserveItems_Sucesso(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectForUpdate).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"stock", "track_stock", "status"}).AddRow(10, true, "active"))
	mock.ExpectExec(updateProducts).WithArgs(8, "active", sqlmock.AnyArg(), "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectForUpdate).WithArgs("p2").
		WillReturnRows(sqlmock.NewRows([]string{"stock", "track_stock", "status"}).AddRow(5, true, "active"))
	mock.ExpectExec(updateProducts).WithArgs(4, "active", sqlmock.AnyArg(), "p2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReserveItems(context.Background(), []domain.Reservation{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestReserveItems_SemControleDeEstoque — track_stock=false não gera UPDATE.
func TestReserveItems_SemControleDeEstoque(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectForUpdate).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"stock", "track_stock", "status"}).AddRow(0, false, "active"))
	mock.ExpectCommit()

	err := repo.ReserveItems(context.Background(), []domain.Reservation{{ProductID: "p1", Quantity: 99}})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestReserveItems_EstoqueInsuficienteRevertTudo — o segundo item sem estoque
// faz rollback da transação inteira: o decremento do primeiro não sobrevive.
func TestReserveItems_EstoqueInsuficienteRevertTudo(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectForUpdate).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"stock", "track_stock", "status"}).AddRow(10, true, "active"))
	mock.ExpectExec(updateProducts).WithArgs(8, "active", sqlmock.AnyArg(), "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectForUpdate).WithArgs("p2").
		WillReturnRows(sqlmock.NewRows([]string{"stock", "track_stock", "status"}).AddRow(1, true, "active"))
	mock.ExpectRollback()

	err := repo.ReserveItems(context.Background(), []domain.Reservation{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 5},
	})

	assert.Error(t, err)
	var stockErr *apperror.InsufficientStockError
	assert.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "p2", stockErr.ProductID)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestReserveItems_EstoqueZeradoViraOutOfStock — reservar exatamente o estoque
// restante flipa o status do produto para out_of_stock.
func TestReserveItems_EstoqueZeradoViraOutOfStock(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectForUpdate).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"stock", "track_stock", "status"}).AddRow(3, true, "active"))
	mock.ExpectExec(updateProducts).WithArgs(0, "out_of_stock", sqlmock.AnyArg(), "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReserveItems(context.Background(), []domain.Reservation{{ProductID: "p1", Quantity: 3}})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestReserveItems_ProdutoInexistente — id desconhecido falha com NotFound.
func TestReserveItems_ProdutoInexistente(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectForUpdate).WithArgs("fantasma").
		WillReturnRows(sqlmock.NewRows([]string{"stock", "track_stock", "status"}))
	mock.ExpectRollback()

	err := repo.ReserveItems(context.Background(), []domain.Reservation{{ProductID: "fantasma", Quantity: 1}})

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestReleaseItems_DevolveEReativa — devolução sobre produto out_of_stock
// restaura o estoque e volta o status para active.
func TestReleaseItems_DevolveEReativa(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectForUpdate).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"stock", "track_stock", "status"}).AddRow(0, true, "out_of_stock"))
	mock.ExpectExec(updateProducts).WithArgs(2, "active", sqlmock.AnyArg(), "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReleaseItems(context.Background(), []domain.Reservation{{ProductID: "p1", Quantity: 2}})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestReleaseItems_ProdutoRemovidoEhIgnorado — produto apagado entre a reserva
// e a devolução é pulado sem erro.
func TestReleaseItems_ProdutoRemovidoEhIgnorado(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectForUpdate).WithArgs("apagado").
		WillReturnRows(sqlmock.NewRows([]string{"stock", "track_stock", "status"}))
	mock.ExpectCommit()

	err := repo.ReleaseItems(context.Background(), []domain.Reservation{{ProductID: "apagado", Quantity: 1}})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
