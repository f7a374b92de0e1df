// Package portstest provides in-memory implementations of the repository and
// publisher ports for service tests.
package portstest

import (
	"context"
	"sort"
	"sync"
	"time"

	"git.platform.alem.school/amibragim/shop-events/internal/domain/orders"
	"git.platform.alem.school/amibragim/shop-events/internal/domain/products"
	"git.platform.alem.school/amibragim/shop-events/internal/domain/users"
	"git.platform.alem.school/amibragim/shop-events/internal/ports"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/contracts"
)

// UnitOfWork runs fn directly and records whether it committed.
type UnitOfWork struct {
	Commits   int
	Rollbacks int
}

func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		u.Rollbacks++
		return err
	}
	u.Commits++
	return nil
}

// Users is an in-memory ports.UserRepository.
type Users struct {
	mu   sync.Mutex
	rows map[string]users.User
	Err  error
}

func NewUsers() *Users { return &Users{rows: map[string]users.User{}} }

func (r *Users) Create(_ context.Context, u *users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, existing := range r.rows {
		if existing.Email == u.Email {
			return ports.ErrConflict
		}
	}
	u.CreatedAt = time.Now().UTC()
	r.rows[u.ID] = *u
	return nil
}

func (r *Users) GetByID(_ context.Context, id string) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &u, nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *Users) List(context.Context) ([]users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]users.User, 0, len(r.rows))
	for _, u := range r.rows {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Products is an in-memory ports.ProductRepository.
type Products struct {
	mu   sync.Mutex
	rows map[string]products.Product
	Err  error
}

func NewProducts() *Products { return &Products{rows: map[string]products.Product{}} }

func (r *Products) Create(_ context.Context, p *products.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	r.rows[p.ID] = *p
	return nil
}

func (r *Products) GetByID(_ context.Context, id string) (*products.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &p, nil
}

func (r *Products) List(context.Context) ([]products.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]products.Product, 0, len(r.rows))
	for _, p := range r.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Products) Update(_ context.Context, p *products.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.rows[p.ID]
	if !ok {
		return ports.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	r.rows[p.ID] = *p
	return nil
}

func (r *Products) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// Orders is an in-memory ports.OrderRepository.
type Orders struct {
	mu   sync.Mutex
	Rows []orders.Order
	Err  error
}

func (r *Orders) Create(_ context.Context, o *orders.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Rows = append(r.Rows, *o)
	return nil
}

func (r *Orders) GetByID(_ context.Context, id string) (*orders.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.Rows {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *Orders) List(_ context.Context, userID string) ([]orders.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []orders.Order{}
	for _, o := range r.Rows {
		if userID == "" || o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *Orders) UpdateStatus(_ context.Context, id string, from, to orders.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.Rows {
		if r.Rows[i].ID == id {
			if r.Rows[i].Status != from {
				return ports.ErrConflict
			}
			r.Rows[i].Status = to
			r.Rows[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ports.ErrNotFound
}

// Publisher records published events and can be told to fail.
type Publisher struct {
	mu     sync.Mutex
	Events []contracts.Event
	Topics []string
	Err    error
}

func (p *Publisher) Publish(_ context.Context, topic string, evt contracts.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	if err := contracts.CheckTopic(topic, evt); err != nil {
		return err
	}
	p.Topics = append(p.Topics, topic)
	p.Events = append(p.Events, evt)
	return nil
}

// Published returns a copy of the recorded events.
func (p *Publisher) Published() []contracts.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]contracts.Event(nil), p.Events...)
}
