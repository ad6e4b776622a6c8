package order

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/atelier/client/internal/client"
)

// Summary is one row of GET /orders/ — display strings, not ids.
type Summary struct {
	ID                    int              `json:"id"`
	Client                string           `json:"client"`
	Car                   string           `json:"car"`
	Status                string           `json:"status"`
	Urgency               string           `json:"urgency"`
	CreatedAt             string           `json:"created_at"`
	PlannedCompletionDate *string          `json:"planned_completion_date"`
	TotalCost             *decimal.Decimal `json:"total_cost"`
	ClientComment         *string          `json:"client_comment"`
	Performers            []string         `json:"performers"`
}

// Service fetches and deletes stored orders.
type Service struct {
	api *client.Client
	log *zap.Logger
}

// NewService creates an order service.
func NewService(api *client.Client, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{api: api, log: log}
}

// List returns a page of the caller's orders. A page of 0 requests the
// server's first page.
func (s *Service) List(ctx context.Context, page int) (client.Page[Summary], error) {
	var query map[string]string
	if page > 0 {
		query = map[string]string{"page": strconv.Itoa(page)}
	}
	var result client.Page[Summary]
	if err := s.api.GetJSON(ctx, "/orders/", query, &result); err != nil {
		return client.Page[Summary]{}, fmt.Errorf("listing orders: %w", err)
	}
	return result, nil
}

// Get fetches a stored order by id for editing. Unlike the reference
// lists, this failure is fatal to the edit flow: editing without the true
// current state risks silently discarding data.
func (s *Service) Get(ctx context.Context, id int) (*Snapshot, error) {
	var snap Snapshot
	if err := s.api.GetJSON(ctx, fmt.Sprintf("/orders/%d/", id), nil, &snap); err != nil {
		return nil, fmt.Errorf("fetching order %d: %w", id, err)
	}
	return &snap, nil
}

// Delete removes a stored order.
func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.api.DeleteJSON(ctx, fmt.Sprintf("/orders/%d/", id)); err != nil {
		return fmt.Errorf("deleting order %d: %w", id, err)
	}
	s.log.Info("order deleted", zap.Int("order_id", id))
	return nil
}
