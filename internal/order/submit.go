package order

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atelier/client/internal/client"
)

// ErrSubmitInFlight is returned when a create or update is attempted while
// a previous submission has not finished. Submissions are never issued
// concurrently: a retried create could register the order twice.
var ErrSubmitInFlight = errors.New("order: submission already in progress")

// Submitter sends drafts to the API. The draft itself is never mutated on
// failure, so the caller can correct and resubmit it as-is.
type Submitter struct {
	api      *client.Client
	log      *zap.Logger
	validate *validator.Validate
	inFlight atomic.Bool
}

// NewSubmitter creates a submitter.
func NewSubmitter(api *client.Client, log *zap.Logger) *Submitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Submitter{
		api:      api,
		log:      log,
		validate: validator.New(),
	}
}

// Create registers a new order built from the draft.
func (s *Submitter) Create(ctx context.Context, d *Draft) error {
	return s.submit(ctx, d, func(p Payload) error {
		return s.api.PostJSON(ctx, "/orders/create/", p, nil)
	})
}

// Update replaces the stored order id with the draft's current state.
func (s *Submitter) Update(ctx context.Context, id int, d *Draft) error {
	return s.submit(ctx, d, func(p Payload) error {
		return s.api.PutJSON(ctx, fmt.Sprintf("/orders/%d/", id), p, nil)
	})
}

func (s *Submitter) submit(ctx context.Context, d *Draft, send func(Payload) error) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrSubmitInFlight
	}
	defer s.inFlight.Store(false)

	payload := d.Payload()
	if err := s.validate.Struct(payload); err != nil {
		return fmt.Errorf("validating order payload: %w", err)
	}

	if err := send(payload); err != nil {
		s.log.Warn("order submission failed", zap.Error(err))
		return err
	}

	s.log.Info("order submitted",
		zap.Int("client", payload.Client),
		zap.Int("items", len(payload.OrderItems)),
		zap.String("total", d.Total().String()),
	)
	return nil
}
