package order

import (
	"context"
	"errors"
)

// Service provides business logic for orders.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// Checkout turns the user's cart into a new order. ErrEmptyCart means
// nothing was written.
func (s *Service) Checkout(ctx context.Context, userID int) (Order, error) {
	if userID <= 0 {
		return Order{}, errors.New("invalid user")
	}
	return s.repo.Checkout(ctx, userID, Price)
}

func (s *Service) ListForUser(ctx context.Context, userID int) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]Order, error) {
	return s.repo.ListAll(ctx)
}

// GetForUser returns an order only to the user who placed it; any other
// viewer gets ErrNotFound.
func (s *Service) GetForUser(ctx context.Context, userID, id int) (Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if o.UserID != userID {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (s *Service) MarkProcessed(ctx context.Context, id int) (Order, error) {
	return s.repo.UpdateStatus(ctx, id, FieldStatus, StatusProcessed)
}

func (s *Service) MarkDelivered(ctx context.Context, id int) (Order, error) {
	return s.repo.UpdateStatus(ctx, id, FieldDeliveryStatus, DeliveryDelivered)
}

// MarkPaid records a payment callback for one of the user's orders. The
// callback carries no provider signature, so nothing here proves payment.
func (s *Service) MarkPaid(ctx context.Context, userID, id int) (Order, error) {
	if _, err := s.GetForUser(ctx, userID, id); err != nil {
		return Order{}, err
	}
	return s.repo.UpdateStatus(ctx, id, FieldStatus, StatusPaid)
}
