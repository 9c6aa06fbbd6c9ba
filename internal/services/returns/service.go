package returns

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/cornjacket/returns-service/internal/client/orders"
	"github.com/cornjacket/returns-service/internal/shared/domain/events"
	"github.com/cornjacket/returns-service/internal/shared/metrics"
)

// Reason length bounds, in characters.
const (
	MinReasonLength = 2
	MaxReasonLength = 200
)

var (
	// ErrValidation marks malformed input. Wrapped with the failing field.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound means no return exists with the requested ID.
	ErrNotFound = errors.New("return not found")
)

// OrderValidator verifies that an order exists in the Orders service.
type OrderValidator interface {
	CheckExists(ctx context.Context, orderID int64) (*orders.Order, error)
}

// EventPublisher dispatches an event without waiting for the broker.
type EventPublisher interface {
	PublishAsync(ctx context.Context, routingKey string, payload any)
}

// CreateRequest is the input of Create.
type CreateRequest struct {
	OrderID int64  `json:"order_id"`
	Reason  string `json:"reason"`
}

// UpdateRequest is the input of UpdateStatus.
type UpdateRequest struct {
	Status string `json:"status"`
}

// Service runs the return lifecycle: validate, persist, then publish.
type Service struct {
	repo      Repository
	orders    OrderValidator
	publisher EventPublisher
	shape     PayloadShaper
	logger    *slog.Logger
}

// NewService creates a new returns service. A nil shape defaults to SummaryPayload.
func NewService(repo Repository, validator OrderValidator, publisher EventPublisher, shape PayloadShaper, logger *slog.Logger) *Service {
	if shape == nil {
		shape = SummaryPayload
	}
	return &Service{
		repo:      repo,
		orders:    validator,
		publisher: publisher,
		shape:     shape,
		logger:    logger.With("service", "returns"),
	}
}

// Create checks the order upstream, stores a new return in status "created"
// and then announces it with a return.created event.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Return, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	order, err := s.orders.CheckExists(ctx, req.OrderID)
	if err != nil {
		s.logger.Warn("order check failed",
			"order_id", req.OrderID,
			"error", err,
		)
		return nil, err
	}

	ret, err := s.repo.Create(ctx, Return{
		OrderID: req.OrderID,
		Reason:  req.Reason,
		Status:  StatusCreated,
	})
	if err != nil {
		s.logger.Error("failed to store return", "order_id", req.OrderID, "error", err)
		return nil, fmt.Errorf("failed to store return: %w", err)
	}
	metrics.ReturnsCreatedTotal.Inc()

	payload := createdPayload(ret)
	s.shape(payload, order)
	s.publisher.PublishAsync(ctx, events.ReturnRoutingKey(string(StatusCreated)), payload)

	s.logger.Info("return created",
		"return_id", ret.ID,
		"order_id", ret.OrderID,
	)

	return ret, nil
}

// List returns all returns in store order.
func (s *Service) List(ctx context.Context) ([]Return, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list returns", "error", err)
		return nil, fmt.Errorf("failed to list returns: %w", err)
	}
	if list == nil {
		list = []Return{}
	}
	return list, nil
}

// Get returns a single return by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Return, error) {
	ret, err := s.repo.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("failed to get return", "return_id", id, "error", err)
		}
		return nil, err
	}
	return ret, nil
}

// UpdateStatus overwrites the status of a return and publishes return.<status>.
// Any enumerated status is accepted from any current status.
func (s *Service) UpdateStatus(ctx context.Context, id int64, req *UpdateRequest) (*Return, error) {
	status := Status(req.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("%w: status must be one of %v, got %q", ErrValidation, Statuses, req.Status)
	}

	ret, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("failed to update return status", "return_id", id, "error", err)
		}
		return nil, err
	}
	metrics.ReturnStatusUpdatesTotal.WithLabelValues(string(status)).Inc()

	s.publisher.PublishAsync(ctx, events.ReturnRoutingKey(string(status)), statusPayload(ret))

	s.logger.Info("return status updated",
		"return_id", ret.ID,
		"status", ret.Status,
	)

	return ret, nil
}

// Delete removes a return permanently. No event is published.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("failed to delete return", "return_id", id, "error", err)
		}
		return err
	}
	metrics.ReturnsDeletedTotal.Inc()

	s.logger.Info("return deleted", "return_id", id)
	return nil
}

func validateCreate(req *CreateRequest) error {
	if req.OrderID < 1 {
		return fmt.Errorf("%w: order_id must be >= 1", ErrValidation)
	}
	n := utf8.RuneCountInString(req.Reason)
	if n < MinReasonLength || n > MaxReasonLength {
		return fmt.Errorf("%w: reason must be between %d and %d characters", ErrValidation, MinReasonLength, MaxReasonLength)
	}
	return nil
}
