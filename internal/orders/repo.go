package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-rental-checkout/internal/bag"
)

type Repo struct{ DB *pgxpool.Pool }

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// OrderName is the display name stored on an order header.
func OrderName(at time.Time) string { return "Order " + at.UTC().Format(time.RFC3339) }

// ItemName is the display name stored on an order item.
func ItemName(title string) string { return "Order Item - " + title }

// CreateOrder inserts the header only, with status CREATED.
func (r *Repo) CreateOrder(ctx context.Context, d Draft) (CreateResult, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := r.DB.Exec(ctx, `
		INSERT INTO orders(id, name, first_name, last_name, street_address, apt_suite,
		                   city, state, zip_code, country, phone, email,
		                   subtotal, shipping_fee, tax, discount, total, promo_code,
		                   status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$20)`,
		id, OrderName(now), d.FirstName, d.LastName, d.StreetAddress, d.AptSuite,
		d.City, d.State, d.ZipCode, d.Country, d.Phone, d.Email,
		d.Subtotal, d.ShippingFee, d.Tax, d.Discount, d.Total, d.PromoCode,
		string(StatusCreated), now,
	)
	if err != nil {
		return CreateResult{}, fmt.Errorf("insert order: %w", err)
	}
	return CreateResult{Success: true, ID: id}, nil
}

// CreateOrderItems writes one record per line item and moves the header to
// ITEMS_RECORDED in the same transaction.
func (r *Repo) CreateOrderItems(ctx context.Context, items []bag.LineItem, orderID string) (CreateResult, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return CreateResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// lock header supaya dua request tidak mencatat items bersamaan
	var s string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return CreateResult{}, ErrOrderNotFound
	}
	if err != nil {
		return CreateResult{}, err
	}
	if !CanTransition(Status(s), StatusItemsRecorded) {
		return CreateResult{}, fmt.Errorf("order %s is %s: %w", orderID, s, ErrStatusConflict)
	}

	for _, it := range items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, name, item_id, title, designer, price,
			                        image, color, size, quantity, rental_days, rental_start, rental_end)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
			uuid.NewString(), orderID, ItemName(it.Title), it.ProductID, it.Title, it.Designer, it.UnitPrice,
			it.Image, it.Color, it.Size, it.Quantity, it.RentalDays, it.RentalStart, it.RentalEnd,
		)
		if err != nil {
			return CreateResult{}, fmt.Errorf("insert order item %s/%s: %w", it.ProductID, it.Size, err)
		}
	}

	if _, err = tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`,
		orderID, string(StatusItemsRecorded)); err != nil {
		return CreateResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return CreateResult{}, err
	}
	return CreateResult{Success: true, ID: orderID}, nil
}

func (r *Repo) GetOrder(ctx context.Context, orderID string) (Order, error) {
	var o Order
	var s string
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, first_name, last_name, street_address, apt_suite, city, state,
		       zip_code, country, phone, email, subtotal, shipping_fee, tax, discount,
		       total, promo_code, status, created_at, updated_at
		FROM orders WHERE id=$1`, orderID).Scan(
		&o.ID, &o.Name, &o.FirstName, &o.LastName, &o.StreetAddress, &o.AptSuite, &o.City, &o.State,
		&o.ZipCode, &o.Country, &o.Phone, &o.Email, &o.Subtotal, &o.ShippingFee, &o.Tax, &o.Discount,
		&o.Total, &o.PromoCode, &s, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	o.Status = Status(s)
	return o, nil
}

// ListItems returns the items of an order sorted by title and size.
func (r *Repo) ListItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, name, item_id, title, designer, price, image, color, size,
		       quantity, rental_days, rental_start, rental_end
		FROM order_items WHERE order_id=$1 ORDER BY title, size`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Name, &it.ItemID, &it.Title, &it.Designer, &it.Price,
			&it.Image, &it.Color, &it.Size, &it.Quantity, &it.RentalDays, &it.RentalStart, &it.RentalEnd); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repo) GetOrderStatus(ctx context.Context, orderID string) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", err
	}
	return Status(s), nil
}

// UpdateStatus moves an order from one status to the next. It fails with
// ErrStatusConflict when the order is no longer in from.
func (r *Repo) UpdateStatus(ctx context.Context, orderID string, from, to Status) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%s -> %s: %w", from, to, ErrStatusConflict)
	}
	tag, err := r.DB.Exec(ctx, `UPDATE orders SET status=$3, updated_at=now() WHERE id=$1 AND status=$2`,
		orderID, string(from), string(to))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.GetOrderStatus(ctx, orderID); err != nil {
		return err
	}
	return ErrStatusConflict
}
