package dinner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"restaurant-orders/internal/apperror"
	"restaurant-orders/internal/auth"
	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
)

// memStore is an in-memory Store enforcing the same uniqueness rules as the schema
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	dinners map[int64]models.Dinner
	items   []models.LineItem
	dishes  *memDishes
}

func newMemStore(dishes *memDishes) *memStore {
	return &memStore{dinners: make(map[int64]models.Dinner), dishes: dishes}
}

func (m *memStore) FindDraft(_ context.Context, creatorID int64) (*models.Dinner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.dinners {
		if d.CreatorID == creatorID && d.Status == models.DinnerDraft {
			d := d
			return &d, nil
		}
	}
	return nil, apperror.NotFound("no draft")
}

func (m *memStore) CreateDinner(_ context.Context, dinner *models.Dinner) (*models.Dinner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if dinner.Status == models.DinnerDraft {
		for _, d := range m.dinners {
			if d.CreatorID == dinner.CreatorID && d.Status == models.DinnerDraft {
				return nil, apperror.Conflict("caller already has a draft dinner")
			}
		}
	}
	m.nextID++
	created := *dinner
	created.ID = m.nextID
	m.dinners[created.ID] = created
	return &created, nil
}

func (m *memStore) GetDinner(_ context.Context, id int64) (*models.Dinner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dinners[id]
	if !ok {
		return nil, apperror.NotFound(fmt.Sprintf("dinner %d not found", id))
	}
	return &d, nil
}

func (m *memStore) ListDinners(_ context.Context, filter models.DinnerFilter) ([]models.Dinner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Dinner
	for id := int64(1); id <= m.nextID; id++ {
		d, ok := m.dinners[id]
		if !ok {
			continue
		}
		if filter.CreatorID != nil && d.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.Status != nil && d.Status != *filter.Status {
			continue
		}
		if filter.DateFrom != nil && d.CreatedAt.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && d.CreatedAt.After(*filter.DateTo) {
			continue
		}
		excluded := false
		for _, s := range filter.ExcludeStatuses {
			if d.Status == s {
				excluded = true
			}
		}
		if !excluded {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) UpdateDinner(_ context.Context, id int64, mutate func(*models.Dinner, []models.LineItem) error) (*models.Dinner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dinners[id]
	if !ok {
		return nil, apperror.NotFound(fmt.Sprintf("dinner %d not found", id))
	}
	if err := mutate(&d, m.itemsOf(id)); err != nil {
		return nil, err
	}
	m.dinners[id] = d
	return &d, nil
}

func (m *memStore) ListLineItems(_ context.Context, dinnerID int64) ([]models.LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.itemsOf(dinnerID), nil
}

func (m *memStore) SumDishCount(_ context.Context, dinnerID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, item := range m.itemsOf(dinnerID) {
		total += int64(item.Count)
	}
	return total, nil
}

func (m *memStore) LineItemExists(_ context.Context, dinnerID, dishID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexOf(dinnerID, dishID) >= 0, nil
}

func (m *memStore) AddLineItem(ctx context.Context, item *models.DinnerDish, check func(*models.Dinner) error) (*models.DinnerDish, error) {
	dish, err := m.dishes.GetDish(ctx, item.DishID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dinners[item.DinnerID]
	if !ok {
		return nil, apperror.NotFound("dinner not found")
	}
	if err := check(&d); err != nil {
		return nil, err
	}
	if m.indexOf(item.DinnerID, item.DishID) >= 0 {
		return nil, apperror.Conflict("dish is already in the draft")
	}
	created := *item
	created.ID = int64(len(m.items) + 1)
	m.items = append(m.items, models.LineItem{DinnerDish: created, DishName: dish.Name, DishPrice: dish.Price})
	return &created, nil
}

func (m *memStore) UpdateLineItem(_ context.Context, dinnerID, dishID int64, mutate func(*models.Dinner, *models.LineItem) error) (*models.LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dinners[dinnerID]
	if !ok {
		return nil, apperror.NotFound("dinner not found")
	}
	i := m.indexOf(dinnerID, dishID)
	if i < 0 {
		return nil, apperror.NotFound("line item not found")
	}
	item := m.items[i]
	if err := mutate(&d, &item); err != nil {
		return nil, err
	}
	m.items[i] = item
	return &item, nil
}

func (m *memStore) DeleteLineItem(_ context.Context, dinnerID, dishID int64, check func(*models.Dinner) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dinners[dinnerID]
	if !ok {
		return apperror.NotFound("dinner not found")
	}
	if err := check(&d); err != nil {
		return err
	}
	i := m.indexOf(dinnerID, dishID)
	if i < 0 {
		return apperror.NotFound("line item not found")
	}
	m.items = append(m.items[:i], m.items[i+1:]...)
	return nil
}

// itemsOf joins the line items of a dinner with the current dish rows
func (m *memStore) itemsOf(dinnerID int64) []models.LineItem {
	var out []models.LineItem
	for _, item := range m.items {
		if item.DinnerID != dinnerID {
			continue
		}
		if dish, ok := m.dishes.dishes[item.DishID]; ok {
			item.DishName = dish.Name
			item.DishPrice = dish.Price
		}
		out = append(out, item)
	}
	return out
}

func (m *memStore) indexOf(dinnerID, dishID int64) int {
	for i, item := range m.items {
		if item.DinnerID == dinnerID && item.DishID == dishID {
			return i
		}
	}
	return -1
}

func (m *memStore) draftCount(creatorID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, d := range m.dinners {
		if d.CreatorID == creatorID && d.Status == models.DinnerDraft {
			n++
		}
	}
	return n
}

type memDishes struct {
	dishes map[int64]models.Dish
}

func newMemDishes(dishes ...models.Dish) *memDishes {
	m := &memDishes{dishes: make(map[int64]models.Dish)}
	for _, d := range dishes {
		m.dishes[d.ID] = d
	}
	return m
}

func (m *memDishes) GetDish(_ context.Context, id int64) (*models.Dish, error) {
	d, ok := m.dishes[id]
	if !ok {
		return nil, apperror.NotFound(fmt.Sprintf("dish %d not found", id))
	}
	return &d, nil
}

// softDelete marks a dish deleted the way the catalog does, keeping its row
func (m *memDishes) softDelete(id int64) {
	d := m.dishes[id]
	d.Status = models.DishDeleted
	d.Photo = nil
	m.dishes[id] = d
}

type stubRenderer struct {
	err   error
	texts []string
}

func (r *stubRenderer) Render(text string) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.texts = append(r.texts, text)
	return []byte("png:" + text), nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	err    error
	events []models.DinnerStatusEvent
}

func (n *recordingNotifier) PublishDinnerEvent(_ context.Context, event *models.DinnerStatusEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, *event)
	return nil
}

var errRender = errors.New("renderer unavailable")

var fixedNow = time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)

var (
	guest     = &auth.Identity{UserID: 1, Email: "guest@example.com"}
	friend    = &auth.Identity{UserID: 2, Email: "friend@example.com"}
	staff     = &auth.Identity{UserID: 3, Email: "staff@example.com", IsStaff: true}
	moderator = &auth.Identity{UserID: 4, Email: "mod@example.com", IsModerator: true}
	admin     = &auth.Identity{UserID: 5, Email: "admin@example.com", IsAdmin: true}
)

func defaultDishes() *memDishes {
	return newMemDishes(
		models.Dish{ID: 1, Name: "Borscht", Price: 150, Status: models.DishActive},
		models.Dish{ID: 2, Name: "Kiev cutlet", Price: 300, Status: models.DishActive},
		models.Dish{ID: 3, Name: "Retired pie", Price: 90, Status: models.DishDeleted},
	)
}

type fixture struct {
	service  *Service
	store    *memStore
	renderer *stubRenderer
	notifier *recordingNotifier
}

func newFixture() *fixture {
	dishes := defaultDishes()
	store := newMemStore(dishes)
	renderer := &stubRenderer{}
	notifier := &recordingNotifier{}
	svc := NewService(store, dishes, renderer, notifier, logger.Discard(), WithClock(func() time.Time { return fixedNow }))
	return &fixture{service: svc, store: store, renderer: renderer, notifier: notifier}
}

func intPtr(v int) *int { return &v }

func int64Ptr(v int64) *int64 { return &v }

func statusPtr(s models.DinnerStatus) *models.DinnerStatus { return &s }
