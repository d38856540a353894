package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/storefront-labs/order-svc/internal/service/models/errs"
	"github.com/storefront-labs/order-svc/internal/service/models/money"
	"github.com/storefront-labs/order-svc/internal/service/models/order"
	"github.com/storefront-labs/order-svc/internal/service/models/orderitem"
)

// OrderDal represents order data access layer model.
type OrderDal struct {
	Id                 string     `db:"id"`
	UserId             *string    `db:"user_id"`
	Email              string     `db:"email"`
	ShippingAddress    string     `db:"shipping_address"`
	ShippingCity       string     `db:"shipping_city"`
	ShippingState      string     `db:"shipping_state"`
	ShippingPostalCode string     `db:"shipping_postal_code"`
	ShippingCountry    string     `db:"shipping_country"`
	PaymentMethod      string     `db:"payment_method"`
	PaymentId          *string    `db:"payment_id"`
	PaymentStatus      *string    `db:"payment_status"`
	PaymentUpdateTime  *string    `db:"payment_update_time"`
	PaymentEmail       *string    `db:"payment_email"`
	ItemsPriceCents    int64      `db:"items_price_cents"`
	TaxPriceCents      int64      `db:"tax_price_cents"`
	ShippingPriceCents int64      `db:"shipping_price_cents"`
	TotalPriceCents    int64      `db:"total_price_cents"`
	IsPaid             bool       `db:"is_paid"`
	PaidAt             *time.Time `db:"paid_at"`
	IsDelivered        bool       `db:"is_delivered"`
	DeliveredAt        *time.Time `db:"delivered_at"`
	Status             string     `db:"status"`
	TrackingNumber     *string    `db:"tracking_number"`
	Notes              *string    `db:"notes"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

// ToModel converts OrderDal to service layer Order model.
func (o *OrderDal) ToModel() (*order.Order, error) {
	status, err := order.ParseStatus(o.Status)
	if err != nil {
		return nil, err
	}
	method, err := order.ParsePaymentMethod(o.PaymentMethod)
	if err != nil {
		return nil, err
	}

	model := &order.Order{
		ID:     o.Id,
		UserID: deref(o.UserId),
		Email:  o.Email,
		Items:  []orderitem.OrderItem{}, // populated separately
		ShippingAddress: order.ShippingAddress{
			Address:    o.ShippingAddress,
			City:       o.ShippingCity,
			State:      o.ShippingState,
			PostalCode: o.ShippingPostalCode,
			Country:    o.ShippingCountry,
		},
		PaymentMethod:      method,
		ItemsPriceCents:    money.Cents(o.ItemsPriceCents),
		TaxPriceCents:      money.Cents(o.TaxPriceCents),
		ShippingPriceCents: money.Cents(o.ShippingPriceCents),
		TotalPriceCents:    money.Cents(o.TotalPriceCents),
		IsPaid:             o.IsPaid,
		PaidAt:             o.PaidAt,
		IsDelivered:        o.IsDelivered,
		DeliveredAt:        o.DeliveredAt,
		Status:             status,
		TrackingNumber:     deref(o.TrackingNumber),
		Notes:              deref(o.Notes),
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}

	if o.PaymentId != nil {
		model.PaymentResult = &order.PaymentResult{
			ID:         deref(o.PaymentId),
			Status:     deref(o.PaymentStatus),
			UpdateTime: deref(o.PaymentUpdateTime),
			Email:      deref(o.PaymentEmail),
		}
	}

	return model, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

// GenericConn is an interface that works with both pgxpool.Pool and pgx.Tx
type GenericConn interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresOrderRepository represents a Postgres order repository.
type PostgresOrderRepository struct {
	conn GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderRepository creates a new Postgres order repository.
func NewPostgresOrderRepository(conn GenericConn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var orderColumns = []string{
	"id",
	"user_id",
	"email",
	"shipping_address",
	"shipping_city",
	"shipping_state",
	"shipping_postal_code",
	"shipping_country",
	"payment_method",
	"payment_id",
	"payment_status",
	"payment_update_time",
	"payment_email",
	"items_price_cents",
	"tax_price_cents",
	"shipping_price_cents",
	"total_price_cents",
	"is_paid",
	"paid_at",
	"is_delivered",
	"delivered_at",
	"status",
	"tracking_number",
	"notes",
	"created_at",
	"updated_at",
}

func (r *PostgresOrderRepository) scanOrder(row pgx.Row) (*order.Order, error) {
	var dal OrderDal
	err := row.Scan(
		&dal.Id,
		&dal.UserId,
		&dal.Email,
		&dal.ShippingAddress,
		&dal.ShippingCity,
		&dal.ShippingState,
		&dal.ShippingPostalCode,
		&dal.ShippingCountry,
		&dal.PaymentMethod,
		&dal.PaymentId,
		&dal.PaymentStatus,
		&dal.PaymentUpdateTime,
		&dal.PaymentEmail,
		&dal.ItemsPriceCents,
		&dal.TaxPriceCents,
		&dal.ShippingPriceCents,
		&dal.TotalPriceCents,
		&dal.IsPaid,
		&dal.PaidAt,
		&dal.IsDelivered,
		&dal.DeliveredAt,
		&dal.Status,
		&dal.TrackingNumber,
		&dal.Notes,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return dal.ToModel()
}

// Insert persists a new order together with its items.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	sql, args, err := r.sb.
		Insert("orders").
		Columns(orderColumns...).
		Values(
			o.ID,
			nullable(o.UserID),
			o.Email,
			o.ShippingAddress.Address,
			o.ShippingAddress.City,
			o.ShippingAddress.State,
			o.ShippingAddress.PostalCode,
			o.ShippingAddress.Country,
			o.PaymentMethod.String(),
			nil,
			nil,
			nil,
			nil,
			int64(o.ItemsPriceCents),
			int64(o.TaxPriceCents),
			int64(o.ShippingPriceCents),
			int64(o.TotalPriceCents),
			o.IsPaid,
			o.PaidAt,
			o.IsDelivered,
			o.DeliveredAt,
			o.Status.String(),
			nullable(o.TrackingNumber),
			nullable(o.Notes),
			o.CreatedAt,
			o.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return order.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	items, err := r.insertItems(ctx, o.ID, o.Items)
	if err != nil {
		return order.Order{}, err
	}
	o.Items = items

	return o, nil
}

func (r *PostgresOrderRepository) insertItems(
	ctx context.Context,
	orderID string,
	items []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	if len(items) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	builder := r.sb.
		Insert("order_items").
		Columns(
			"order_id",
			"product_id",
			"name",
			"image_url",
			"price_cents",
			"quantity",
			"created_at",
			"updated_at",
		).
		Suffix("RETURNING id")

	for _, item := range items {
		builder = builder.Values(
			orderID,
			item.ProductID,
			item.Name,
			item.ImageURL,
			int64(item.PriceCents),
			item.Quantity,
			item.CreatedAt,
			item.UpdatedAt,
		)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order items: %w", err)
	}
	defer rows.Close()

	result := make([]orderitem.OrderItem, 0, len(items))
	i := 0
	for rows.Next() {
		item := items[i]
		if err := rows.Scan(&item.ID); err != nil {
			return nil, fmt.Errorf("failed to scan order item id: %w", err)
		}
		item.OrderID = orderID
		result = append(result, item)
		i++
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// GetByID retrieves a single order with its items.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	sql, args, err := r.sb.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	model, err := r.scanOrder(r.conn.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.queryItems(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	model.Items = items

	return model, nil
}

// Query retrieves orders based on filter criteria, items included.
func (r *PostgresOrderRepository) Query(
	ctx context.Context,
	filter *order.QueryOrdersModel,
) ([]order.Order, error) {
	query := r.sb.
		Select(orderColumns...).
		From("orders").
		OrderBy("created_at DESC")

	if len(filter.Ids) > 0 {
		query = query.Where(sq.Eq{"id": filter.Ids})
	}

	if len(filter.UserIds) > 0 {
		query = query.Where(sq.Eq{"user_id": filter.UserIds})
	}

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		model, err := r.scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		result = append(result, *model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	if len(result) == 0 {
		return []order.Order{}, nil
	}

	orderIds := make([]string, len(result))
	for i := range result {
		orderIds[i] = result[i].ID
	}

	items, err := r.queryItems(ctx, orderIds)
	if err != nil {
		return nil, err
	}

	for i := range result {
		for _, item := range items {
			if item.OrderID == result[i].ID {
				result[i].Items = append(result[i].Items, item)
			}
		}
	}

	return result, nil
}

func (r *PostgresOrderRepository) queryItems(ctx context.Context, orderIds []string) ([]orderitem.OrderItem, error) {
	sql, args, err := r.sb.
		Select(
			"id",
			"order_id",
			"product_id",
			"name",
			"image_url",
			"price_cents",
			"quantity",
			"created_at",
			"updated_at",
		).
		From("order_items").
		Where(sq.Eq{"order_id": orderIds}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	result := []orderitem.OrderItem{}
	for rows.Next() {
		var item orderitem.OrderItem
		var priceCents int64
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.ImageURL,
			&priceCents,
			&item.Quantity,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		item.PriceCents = money.Cents(priceCents)
		result = append(result, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// MarkPaid applies the payment confirmation in a single conditional statement.
// The WHERE is_paid = false guard closes the double-confirmation race: exactly
// one concurrent caller observes RowsAffected() == 1.
func (r *PostgresOrderRepository) MarkPaid(
	ctx context.Context,
	id string,
	result order.PaymentResult,
	paidAt time.Time,
) (bool, error) {
	sql, args, err := r.sb.
		Update("orders").
		Set("is_paid", true).
		Set("paid_at", paidAt).
		Set("status", order.StatusProcessing.String()).
		Set("payment_id", result.ID).
		Set("payment_status", result.Status).
		Set("payment_update_time", nullable(result.UpdateTime)).
		Set("payment_email", nullable(result.Email)).
		Set("updated_at", paidAt).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"is_paid": false}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// UpdateStatus sets the order status and optional tracking number.
func (r *PostgresOrderRepository) UpdateStatus(
	ctx context.Context,
	id string,
	status order.Status,
	trackingNumber string,
	deliveredAt *time.Time,
) error {
	builder := r.sb.
		Update("orders").
		Set("status", status.String()).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id})

	if trackingNumber != "" {
		builder = builder.Set("tracking_number", trackingNumber)
	}

	if deliveredAt != nil {
		builder = builder.
			Set("is_delivered", true).
			Set("delivered_at", *deliveredAt)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}

	return nil
}

// Cancel flips the order to cancelled in a single conditional statement so
// that concurrent cancellations restitute stock at most once.
func (r *PostgresOrderRepository) Cancel(ctx context.Context, id string) (bool, error) {
	sql, args, err := r.sb.
		Update("orders").
		Set("status", order.StatusCancelled.String()).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id}).
		Where(sq.NotEq{"status": []string{
			order.StatusShipped.String(),
			order.StatusDelivered.String(),
			order.StatusCancelled.String(),
		}}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("failed to cancel order: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
