package returns

import (
	"context"
	"sync"

	"github.com/cornjacket/returns-service/internal/client/orders"
)

// mockRepository implements Repository for testing.
type mockRepository struct {
	CreateFn       func(ctx context.Context, ret Return) (*Return, error)
	ListFn         func(ctx context.Context) ([]Return, error)
	GetFn          func(ctx context.Context, id int64) (*Return, error)
	UpdateStatusFn func(ctx context.Context, id int64, status Status) (*Return, error)
	DeleteFn       func(ctx context.Context, id int64) error
}

func (m *mockRepository) Create(ctx context.Context, ret Return) (*Return, error) {
	return m.CreateFn(ctx, ret)
}

func (m *mockRepository) List(ctx context.Context) ([]Return, error) {
	return m.ListFn(ctx)
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Return, error) {
	return m.GetFn(ctx, id)
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id int64, status Status) (*Return, error) {
	return m.UpdateStatusFn(ctx, id, status)
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	return m.DeleteFn(ctx, id)
}

// newFakeRepository returns a mockRepository backed by a map with sequential IDs.
func newFakeRepository() *mockRepository {
	var (
		mu     sync.Mutex
		nextID int64
		rows   = map[int64]Return{}
		order  []int64
	)

	return &mockRepository{
		CreateFn: func(ctx context.Context, ret Return) (*Return, error) {
			mu.Lock()
			defer mu.Unlock()
			nextID++
			ret.ID = nextID
			rows[ret.ID] = ret
			order = append(order, ret.ID)
			return &ret, nil
		},
		ListFn: func(ctx context.Context) ([]Return, error) {
			mu.Lock()
			defer mu.Unlock()
			var list []Return
			for _, id := range order {
				if ret, ok := rows[id]; ok {
					list = append(list, ret)
				}
			}
			return list, nil
		},
		GetFn: func(ctx context.Context, id int64) (*Return, error) {
			mu.Lock()
			defer mu.Unlock()
			ret, ok := rows[id]
			if !ok {
				return nil, ErrNotFound
			}
			return &ret, nil
		},
		UpdateStatusFn: func(ctx context.Context, id int64, status Status) (*Return, error) {
			mu.Lock()
			defer mu.Unlock()
			ret, ok := rows[id]
			if !ok {
				return nil, ErrNotFound
			}
			ret.Status = status
			rows[id] = ret
			return &ret, nil
		},
		DeleteFn: func(ctx context.Context, id int64) error {
			mu.Lock()
			defer mu.Unlock()
			if _, ok := rows[id]; !ok {
				return ErrNotFound
			}
			delete(rows, id)
			return nil
		},
	}
}

// mockOrderValidator implements OrderValidator for testing.
type mockOrderValidator struct {
	calls         []int64
	CheckExistsFn func(ctx context.Context, orderID int64) (*orders.Order, error)
}

func (m *mockOrderValidator) CheckExists(ctx context.Context, orderID int64) (*orders.Order, error) {
	m.calls = append(m.calls, orderID)
	return m.CheckExistsFn(ctx, orderID)
}

// orderExists is a validator that reports every order as present with the given document.
func orderExists(status, totalPrice string) *mockOrderValidator {
	return &mockOrderValidator{
		CheckExistsFn: func(ctx context.Context, orderID int64) (*orders.Order, error) {
			return &orders.Order{
				Status:     []byte(status),
				TotalPrice: []byte(totalPrice),
				Raw:        []byte(`{"status":` + status + `,"total_price":` + totalPrice + `}`),
			}, nil
		},
	}
}

// orderFails is a validator that always fails with err.
func orderFails(err error) *mockOrderValidator {
	return &mockOrderValidator{
		CheckExistsFn: func(ctx context.Context, orderID int64) (*orders.Order, error) {
			return nil, err
		},
	}
}

type publishedEvent struct {
	RoutingKey string
	Payload    map[string]any
}

// recordingPublisher implements EventPublisher by recording every dispatch.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) PublishAsync(ctx context.Context, routingKey string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{RoutingKey: routingKey, Payload: payload.(map[string]any)})
}

func (p *recordingPublisher) published() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}
