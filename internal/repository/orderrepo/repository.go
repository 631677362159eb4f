package orderrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lib/pq"

	"goloja/internal/domain"
	"goloja/internal/errors"
	"goloja/internal/pkg/logger"
)

// OrderRepository persiste o agregado de pedido (pedido, itens e histórico de status).
type OrderRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewOrderRepository cria e retorna uma nova instância do Repositório de Pedidos.
func NewOrderRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *OrderRepository {
	return &OrderRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Colunas ordenáveis permitidas na listagem. Qualquer outro valor de sort_by
// cai no padrão created_at.
var sortableColumns = map[string]string{
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"total":        "total",
	"status":       "status",
	"order_number": "order_number",
}

// Save persiste um novo Pedido, seus itens e a entrada inicial do histórico
// em uma única transação. Uma violação do índice único de order_number é
// traduzida para ConflictError (o serviço tenta gerar um novo número).
func (r *OrderRepository) Save(ctx context.Context, order domain.Order) (domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Order{}, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	shippingJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return domain.Order{}, errors.NewInternalError("Falha ao serializar endereço de entrega.", err)
	}

	var billingJSON []byte
	if order.BillingAddress != nil {
		billingJSON, err = json.Marshal(order.BillingAddress)
		if err != nil {
			return domain.Order{}, errors.NewInternalError("Falha ao serializar endereço de cobrança.", err)
		}
	}

	const orderSQL = `
        INSERT INTO orders (id, order_number, tenant_id, customer_id, status, payment_method,
                            subtotal, shipping, discount, total, shipping_address, billing_address,
                            tracking_code, shipping_carrier, notes, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`

	_, err = tx.ExecContext(ctxTimeout, orderSQL,
		order.ID,
		order.OrderNumber,
		order.TenantID,
		nullable(order.CustomerID),
		order.Status,
		order.PaymentMethod,
		order.Subtotal,
		order.Shipping,
		order.Discount,
		order.Total,
		shippingJSON,
		billingJSON,
		order.TrackingCode,
		order.ShippingCarrier,
		order.Notes,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			// Colisão de order_number: o índice único é a última linha de defesa.
			return domain.Order{}, errors.NewConflictError(
				fmt.Sprintf("Número de pedido %s já existe.", order.OrderNumber))
		}
		return domain.Order{}, errors.NewDBError("Falha ao inserir pedido", err)
	}

	const itemSQL = `
        INSERT INTO order_items (id, order_id, product_id, name, price, quantity)
        VALUES ($1,$2,$3,$4,$5,$6)`

	for _, item := range order.Items {
		if _, err = tx.ExecContext(ctxTimeout, itemSQL,
			item.ID, order.ID, item.ProductID, item.Name, item.Price, item.Quantity,
		); err != nil {
			return domain.Order{}, errors.NewDBError("Falha ao inserir itens do pedido", err)
		}
	}

	const historySQL = `
        INSERT INTO order_status_history (order_id, status, date, comment)
        VALUES ($1,$2,$3,$4)`

	for _, entry := range order.StatusHistory {
		if _, err = tx.ExecContext(ctxTimeout, historySQL,
			order.ID, entry.Status, entry.Date, entry.Comment,
		); err != nil {
			return domain.Order{}, errors.NewDBError("Falha ao inserir histórico do pedido", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, errors.NewDBError("Falha ao commitar transação", err)
	}

	return order, nil
}

const orderColumns = `id, order_number, tenant_id, customer_id, status, payment_method,
       subtotal, shipping, discount, total, shipping_address, billing_address,
       tracking_code, shipping_carrier, notes, created_at, updated_at`

// FindByID busca o pedido completo (itens e histórico) pelo ID.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (domain.Order, error) {
	return r.findOne(ctx, "id", id)
}

// FindByNumber busca o pedido completo pelo número legível (order_number).
func (r *OrderRepository) FindByNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	return r.findOne(ctx, "order_number", orderNumber)
}

func (r *OrderRepository) findOne(ctx context.Context, column, value string) (domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM orders WHERE %s = $1`, orderColumns, column)

	row := r.DB.QueryRowContext(ctxTimeout, query, value)
	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return domain.Order{}, errors.NewNotFoundError(fmt.Sprintf("Pedido %s não encontrado.", value))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar pedido no DB.", err)
		return domain.Order{}, errors.NewDBError("Falha ao buscar pedido", err)
	}

	if err := r.loadItems(ctxTimeout, []*domain.Order{&order}); err != nil {
		return domain.Order{}, err
	}
	if err := r.loadHistory(ctxTimeout, &order); err != nil {
		return domain.Order{}, err
	}

	return order, nil
}

// FindAll lista pedidos com filtros, busca, intervalo de datas, ordenação e paginação.
func (r *OrderRepository) FindAll(ctx context.Context, filter domain.OrderFilter) (domain.OrderPage, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	where, args := buildWhere(filter)

	// 1. Total para o cálculo de páginas
	countQuery := "SELECT COUNT(*) FROM orders" + where
	var total int
	if err := r.DB.QueryRowContext(ctxTimeout, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error("Falha ao contar pedidos no DB.", err)
		return domain.OrderPage{}, errors.NewDBError("Falha ao contar pedidos", err)
	}

	// 2. Ordenação (whitelist) e paginação
	sortColumn, ok := sortableColumns[filter.SortBy]
	if !ok {
		sortColumn = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortDirection, "asc") {
		direction = "ASC"
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf("SELECT %s FROM orders%s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		orderColumns, where, sortColumn, direction, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, offset)

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar pedidos no DB.", err)
		return domain.OrderPage{}, errors.NewDBError("Falha ao listar pedidos", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error("Falha ao mapear pedido da listagem.", err)
			return domain.OrderPage{}, errors.NewDBError("Falha ao mapear pedido", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return domain.OrderPage{}, errors.NewDBError("Falha ao iterar pedidos", err)
	}

	// 3. Itens dos pedidos listados em uma única consulta
	refs := make([]*domain.Order, len(orders))
	for i := range orders {
		refs[i] = &orders[i]
	}
	if err := r.loadItems(ctxTimeout, refs); err != nil {
		return domain.OrderPage{}, err
	}

	totalPages := 0
	if filter.Limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(filter.Limit)))
	}

	return domain.OrderPage{
		Data: orders,
		Meta: domain.PageMeta{
			Total:      total,
			Page:       filter.Page,
			Limit:      filter.Limit,
			TotalPages: totalPages,
		},
	}, nil
}

// UpdateStatus persiste a mudança de status (e campos de envio) de um pedido já
// validado pela máquina de estados, inserindo a entrada de histórico quando houver.
func (r *OrderRepository) UpdateStatus(ctx context.Context, order domain.Order, entry *domain.StatusHistoryEntry) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	const updateSQL = `
        UPDATE orders
        SET status = $1, tracking_code = $2, shipping_carrier = $3, updated_at = $4
        WHERE id = $5`

	result, err := tx.ExecContext(ctxTimeout, updateSQL,
		order.Status, order.TrackingCode, order.ShippingCarrier, order.UpdatedAt, order.ID)
	if err != nil {
		return errors.NewDBError("Falha ao atualizar status do pedido", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Pedido %s não encontrado.", order.ID))
	}

	if entry != nil {
		const historySQL = `
            INSERT INTO order_status_history (order_id, status, date, comment)
            VALUES ($1,$2,$3,$4)`
		if _, err = tx.ExecContext(ctxTimeout, historySQL,
			order.ID, entry.Status, entry.Date, entry.Comment,
		); err != nil {
			return errors.NewDBError("Falha ao inserir histórico do pedido", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.NewDBError("Falha ao commitar transação", err)
	}

	return nil
}

// --- Auxiliares de mapeamento ---

// rowScanner abstrai *sql.Row e *sql.Rows para o scanOrder.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order        domain.Order
		customerID   sql.NullString
		shippingJSON []byte
		billingJSON  []byte
	)

	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.TenantID,
		&customerID,
		&order.Status,
		&order.PaymentMethod,
		&order.Subtotal,
		&order.Shipping,
		&order.Discount,
		&order.Total,
		&shippingJSON,
		&billingJSON,
		&order.TrackingCode,
		&order.ShippingCarrier,
		&order.Notes,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}

	order.CustomerID = customerID.String

	if len(shippingJSON) > 0 {
		if err := json.Unmarshal(shippingJSON, &order.ShippingAddress); err != nil {
			return domain.Order{}, err
		}
	}
	if len(billingJSON) > 0 {
		var billing domain.Address
		if err := json.Unmarshal(billingJSON, &billing); err != nil {
			return domain.Order{}, err
		}
		order.BillingAddress = &billing
	}

	return order, nil
}

// loadItems carrega os itens de um conjunto de pedidos em uma única consulta.
func (r *OrderRepository) loadItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	byID := make(map[string]*domain.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}

	const query = `
        SELECT id, order_id, product_id, name, price, quantity
        FROM order_items
        WHERE order_id = ANY($1)
        ORDER BY id`

	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		r.logger.Error("Falha ao buscar itens dos pedidos.", err)
		return errors.NewDBError("Falha ao buscar itens dos pedidos", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return errors.NewDBError("Falha ao mapear item do pedido", err)
		}
		if order, ok := byID[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}
	return rows.Err()
}

// loadHistory carrega o histórico de status de um pedido, em ordem de inserção.
func (r *OrderRepository) loadHistory(ctx context.Context, order *domain.Order) error {
	const query = `
        SELECT status, date, comment
        FROM order_status_history
        WHERE order_id = $1
        ORDER BY id`

	rows, err := r.DB.QueryContext(ctx, query, order.ID)
	if err != nil {
		r.logger.Error("Falha ao buscar histórico do pedido.", err)
		return errors.NewDBError("Falha ao buscar histórico do pedido", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry domain.StatusHistoryEntry
		if err := rows.Scan(&entry.Status, &entry.Date, &entry.Comment); err != nil {
			return errors.NewDBError("Falha ao mapear histórico do pedido", err)
		}
		order.StatusHistory = append(order.StatusHistory, entry)
	}
	return rows.Err()
}

// buildWhere monta a cláusula WHERE da listagem a partir do filtro.
func buildWhere(filter domain.OrderFilter) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}

	add := func(condition string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.TenantID != "" {
		add("tenant_id = $%d", filter.TenantID)
	}
	if filter.CustomerID != "" {
		add("customer_id = $%d", filter.CustomerID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.PaymentMethod != "" {
		add("payment_method = $%d", filter.PaymentMethod)
	}
	if filter.Search != "" {
		add("order_number ILIKE $%d", "%"+filter.Search+"%")
	}
	if filter.StartDate != nil {
		add("created_at >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("created_at <= $%d", *filter.EndDate)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// nullable converte string vazia em NULL para colunas opcionais.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
