package cartservice_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"goloja/internal/domain"
	apperror "goloja/internal/errors"
	"goloja/internal/pkg/logger"
	"goloja/internal/service/cartservice"
)

// memoryCartRepository é um CartRepository em memória para os testes.
type memoryCartRepository struct {
	carts   map[string]domain.Cart
	saveErr error
}

func newMemoryRepo() *memoryCartRepository {
	return &memoryCartRepository{carts: map[string]domain.Cart{}}
}

func (m *memoryCartRepository) key(tenantID, userID string) string {
	return fmt.Sprintf("%s:%s", tenantID, userID)
}

func (m *memoryCartRepository) Find(ctx context.Context, tenantID, userID string) (domain.Cart, error) {
	cart, ok := m.carts[m.key(tenantID, userID)]
	if !ok {
		return domain.Cart{}, apperror.NewNotFoundError("Carrinho não encontrado.")
	}
	return cart, nil
}

func (m *memoryCartRepository) Save(ctx context.Context, cart domain.Cart) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.carts[m.key(cart.TenantID, cart.UserID)] = cart
	return nil
}

func (m *memoryCartRepository) Delete(ctx context.Context, tenantID, userID string) error {
	delete(m.carts, m.key(tenantID, userID))
	return nil
}

func newTestService(repo cartservice.CartRepository) *cartservice.Service {
	return cartservice.NewService(repo, logger.NewLogger("debug"))
}

// TestGetCart_CriacaoPreguicosa — o primeiro acesso cria e persiste um
// carrinho vazio.
func TestGetCart_CriacaoPreguicosa(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	cart, err := svc.GetCart(context.Background(), "t1", "u1")

	assert.NoError(t, err)
	assert.Equal(t, "t1", cart.TenantID)
	assert.Equal(t, "u1", cart.UserID)
	assert.Empty(t, cart.Items)
	assert.Contains(t, repo.carts, "t1:u1", "o carrinho vazio deve ser persistido")
}

// TestAddItem_MesmoProdutoSomaQuantidade — adicionar o mesmo produto duas
// vezes resulta em um único item com as quantidades somadas.
func TestAddItem_MesmoProdutoSomaQuantidade(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	_, err := svc.AddItem(context.Background(), "t1", "u1", domain.CartItem{ProductID: "p1", Name: "Caneca", Price: 25, Quantity: 1})
	assert.NoError(t, err)

	cart, err := svc.AddItem(context.Background(), "t1", "u1", domain.CartItem{ProductID: "p1", Quantity: 2})
	assert.NoError(t, err)

	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

// TestAddItem_ProdutosDiferentes viram itens separados com IDs próprios.
func TestAddItem_ProdutosDiferentes(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	_, err := svc.AddItem(context.Background(), "t1", "u1", domain.CartItem{ProductID: "p1", Quantity: 1})
	assert.NoError(t, err)
	cart, err := svc.AddItem(context.Background(), "t1", "u1", domain.CartItem{ProductID: "p2", Quantity: 1})
	assert.NoError(t, err)

	assert.Len(t, cart.Items, 2)
	assert.NotEmpty(t, cart.Items[0].ID)
	assert.NotEmpty(t, cart.Items[1].ID)
	assert.NotEqual(t, cart.Items[0].ID, cart.Items[1].ID)
}

// TestAddItem_QuantidadeInvalida rejeita quantidade menor que 1.
func TestAddItem_QuantidadeInvalida(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	_, err := svc.AddItem(context.Background(), "t1", "u1", domain.CartItem{ProductID: "p1", Quantity: 0})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
}

// TestUpdateItemQuantity_ItemInexistente falha com NotFound.
func TestUpdateItemQuantity_ItemInexistente(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	_, err := svc.GetCart(context.Background(), "t1", "u1")
	assert.NoError(t, err)

	_, err = svc.UpdateItemQuantity(context.Background(), "t1", "u1", "nao-existe", 5)

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)
}

// TestRemoveItem_Sucesso remove apenas o item indicado.
func TestRemoveItem_Sucesso(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	cart, err := svc.AddItem(context.Background(), "t1", "u1", domain.CartItem{ProductID: "p1", Quantity: 1})
	assert.NoError(t, err)
	cart, err = svc.AddItem(context.Background(), "t1", "u1", domain.CartItem{ProductID: "p2", Quantity: 1})
	assert.NoError(t, err)

	removeID := cart.Items[0].ID
	cart, err = svc.RemoveItem(context.Background(), "t1", "u1", removeID)

	assert.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, "p2", cart.Items[0].ProductID)
}

// TestClearCart_RemoveDoRepositorio — esvaziar apaga a chave; o próximo acesso
// recria o carrinho vazio.
func TestClearCart_RemoveDoRepositorio(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	_, err := svc.AddItem(context.Background(), "t1", "u1", domain.CartItem{ProductID: "p1", Quantity: 1})
	assert.NoError(t, err)

	err = svc.ClearCart(context.Background(), "t1", "u1")
	assert.NoError(t, err)
	assert.NotContains(t, repo.carts, "t1:u1")

	cart, err := svc.GetCart(context.Background(), "t1", "u1")
	assert.NoError(t, err)
	assert.Empty(t, cart.Items)
}

// TestMergeCarts_SomaEAnexa — produtos em comum somam quantidades, os demais
// são anexados, e o carrinho de visitante é removido.
func TestMergeCarts_SomaEAnexa(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	_, err := svc.AddItem(context.Background(), "t1", "guest-1", domain.CartItem{ProductID: "p1", Quantity: 2})
	assert.NoError(t, err)
	_, err = svc.AddItem(context.Background(), "t1", "guest-1", domain.CartItem{ProductID: "p3", Quantity: 1})
	assert.NoError(t, err)

	_, err = svc.AddItem(context.Background(), "t1", "u1", domain.CartItem{ProductID: "p1", Quantity: 1})
	assert.NoError(t, err)
	_, err = svc.AddItem(context.Background(), "t1", "u1", domain.CartItem{ProductID: "p2", Quantity: 1})
	assert.NoError(t, err)

	merged, err := svc.MergeCarts(context.Background(), "t1", "guest-1", "u1")

	assert.NoError(t, err)
	assert.Len(t, merged.Items, 3)

	byProduct := map[string]int{}
	for _, item := range merged.Items {
		byProduct[item.ProductID] = item.Quantity
	}
	assert.Equal(t, 3, byProduct["p1"], "quantidades do produto em comum devem ser somadas")
	assert.Equal(t, 1, byProduct["p2"])
	assert.Equal(t, 1, byProduct["p3"])

	assert.NotContains(t, repo.carts, "t1:guest-1", "carrinho de visitante deve ser removido após o merge")
}

// TestMergeCarts_VisitanteSemCarrinho — sem carrinho de origem, o resultado é
// simplesmente o carrinho do usuário.
func TestMergeCarts_VisitanteSemCarrinho(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	_, err := svc.AddItem(context.Background(), "t1", "u1", domain.CartItem{ProductID: "p1", Quantity: 1})
	assert.NoError(t, err)

	merged, err := svc.MergeCarts(context.Background(), "t1", "guest-sem-carrinho", "u1")

	assert.NoError(t, err)
	assert.Len(t, merged.Items, 1)
}
