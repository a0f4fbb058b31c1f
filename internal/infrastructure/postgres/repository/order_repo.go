package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

type DefaultOrderRepository struct {
	DB *gorm.DB
}

func NewDefaultOrderRepository(db *gorm.DB) *DefaultOrderRepository {
	return &DefaultOrderRepository{DB: db}
}

func (r *DefaultOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	orderModel := mappers.ToGORMOrder(order)
	if err := r.DB.WithContext(ctx).Omit("Items").Create(orderModel).Error; err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *DefaultOrderRepository) DeleteOrder(ctx context.Context, orderID string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", orderID).Delete(&models.OrderModel{})
	if res.Error != nil {
		return fmt.Errorf("delete order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Entity: "order", ID: orderID, Err: domain.ErrOrderNotFound}
	}
	return nil
}

func (r *DefaultOrderRepository) DeletePendingOrder(ctx context.Context, orderID string, expectedVersion int64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND status = ? AND version = ?", orderID, string(domain.StatusPending), expectedVersion).
			Delete(&models.OrderModel{})
		if res.Error != nil {
			return fmt.Errorf("delete order: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var row models.OrderModel
			err := tx.Select("status", "version").Where("id = ?", orderID).First(&row).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &domain.NotFoundError{Entity: "order", ID: orderID, Err: domain.ErrOrderNotFound}
			}
			if err != nil {
				return fmt.Errorf("delete order: %w", err)
			}
			if row.Status != string(domain.StatusPending) {
				return &domain.StateError{
					Code:    domain.CodeCannotDelete,
					Message: "only pending orders can be deleted",
					From:    domain.OrderStatus(row.Status),
				}
			}
			return domain.ErrVersionConflict
		}

		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderItemModel{}).Error; err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}
		return nil
	})
}

func (r *DefaultOrderRepository) GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var orderModel models.OrderModel
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", orderID).
		First(&orderModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Entity: "order", ID: orderID, Err: domain.ErrOrderNotFound}
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return mappers.ToDomainOrder(&orderModel), nil
}

func (r *DefaultOrderRepository) UpdateOrder(ctx context.Context, order *domain.Order, expectedVersion int64) error {
	orderModel := mappers.ToGORMOrder(order)
	orderModel.Version = expectedVersion + 1

	res := r.DB.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", order.ID, expectedVersion).
		Select("*").
		Omit("id", "number", "created_at", "Items").
		Updates(orderModel)
	if res.Error != nil {
		return fmt.Errorf("update order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.DB.WithContext(ctx).Model(&models.OrderModel{}).Where("id = ?", order.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if count == 0 {
			return &domain.NotFoundError{Entity: "order", ID: order.ID, Err: domain.ErrOrderNotFound}
		}
		return domain.ErrVersionConflict
	}

	order.Version = orderModel.Version
	order.UpdatedAt = orderModel.UpdatedAt
	return nil
}

func (r *DefaultOrderRepository) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int64, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)

	query := r.DB.WithContext(ctx).Model(&models.OrderModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", string(filter.PaymentStatus))
	}
	if filter.AwaitingValidation != nil {
		query = query.Where("awaiting_validation = ?", *filter.AwaitingValidation)
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		if digits := domain.DigitsOnly(q); digits != "" {
			query = query.Where(
				"LOWER(number) LIKE ? OR LOWER(customer_name) LIKE ? OR customer_whatsapp LIKE ?",
				like, like, "%"+digits+"%",
			)
		} else {
			query = query.Where("LOWER(number) LIKE ? OR LOWER(customer_name) LIKE ?", like, like)
		}
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	var rows []models.OrderModel
	err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	orders := make([]*domain.Order, 0, len(rows))
	for i := range rows {
		orders = append(orders, mappers.ToDomainOrder(&rows[i]))
	}
	return orders, total, nil
}

func (r *DefaultOrderRepository) CreateItems(ctx context.Context, orderID string, items []domain.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]models.OrderItemModel, 0, len(items))
	for i, item := range items {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		row := mappers.ToGORMLineItem(orderID, i, item)
		rows = append(rows, row)
	}
	if err := r.DB.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

func (r *DefaultOrderRepository) DeleteItems(ctx context.Context, orderID string) error {
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).Delete(&models.OrderItemModel{}).Error; err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	return nil
}

func (r *DefaultOrderRepository) FindAutoFinalizeCandidates(ctx context.Context, receivedBefore, shippedBefore time.Time, limit int) ([]*domain.Order, error) {
	var rows []models.OrderModel
	err := r.DB.WithContext(ctx).
		Where("(status = ? AND received_at <= ?) OR (status = ? AND received_at IS NULL AND shipped_at <= ?)",
			string(domain.StatusReceived), receivedBefore.UTC(),
			string(domain.StatusShipped), shippedBefore.UTC()).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find auto-finalize candidates: %w", err)
	}
	return toDomainOrders(rows), nil
}

func (r *DefaultOrderRepository) FindAwaitingPayment(ctx context.Context, confirmedBefore time.Time, limit int) ([]*domain.Order, error) {
	var rows []models.OrderModel
	err := r.DB.WithContext(ctx).
		Where("status = ?", string(domain.StatusConfirmed)).
		Where("payment_status = ?", string(domain.PaymentNone)).
		Where("confirmed_at <= ?", confirmedBefore.UTC()).
		Order("confirmed_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find orders awaiting payment: %w", err)
	}
	return toDomainOrders(rows), nil
}

func toDomainOrders(rows []models.OrderModel) []*domain.Order {
	orders := make([]*domain.Order, 0, len(rows))
	for i := range rows {
		orders = append(orders, mappers.ToDomainOrder(&rows[i]))
	}
	return orders
}
