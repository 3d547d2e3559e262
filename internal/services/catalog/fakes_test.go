package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"restaurant-orders/internal/apperror"
	"restaurant-orders/internal/auth"
	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
)

type memDishStore struct {
	mu     sync.Mutex
	nextID int64
	dishes map[int64]models.Dish

	// updateErr fails the write after mutate ran, leaving the row untouched
	updateErr error
}

func newMemDishStore() *memDishStore {
	return &memDishStore{dishes: make(map[int64]models.Dish)}
}

func (m *memDishStore) ListDishes(_ context.Context, filter models.DishFilter) ([]models.Dish, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Dish
	for _, d := range m.dishes {
		if !d.IsActive() {
			continue
		}
		if filter.MinPrice != nil && d.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && d.Price > *filter.MaxPrice {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memDishStore) GetDish(_ context.Context, id int64) (*models.Dish, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dishes[id]
	if !ok {
		return nil, apperror.NotFound(fmt.Sprintf("dish %d not found", id))
	}
	return &d, nil
}

func (m *memDishStore) CreateDish(_ context.Context, req *models.CreateDishRequest) (*models.Dish, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	d := models.Dish{
		ID:          m.nextID,
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Price:       req.Price,
		Weight:      req.Weight,
		Status:      models.DishActive,
	}
	m.dishes[d.ID] = d
	return &d, nil
}

func (m *memDishStore) UpdateDish(_ context.Context, id int64, mutate func(*models.Dish) error) (*models.Dish, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dishes[id]
	if !ok {
		return nil, apperror.NotFound(fmt.Sprintf("dish %d not found", id))
	}
	if err := mutate(&d); err != nil {
		return nil, err
	}
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.dishes[id] = d
	return &d, nil
}

const photoBaseURL = "http://minio.local/dishes"

type memPhotos struct {
	objects   map[string][]byte
	putErr    error
	removeErr error
}

func newMemPhotos() *memPhotos {
	return &memPhotos{objects: make(map[string][]byte)}
}

func (p *memPhotos) Put(_ context.Context, key string, body []byte, _ string) (string, error) {
	if p.putErr != nil {
		return "", apperror.Transport("failed to upload object", p.putErr)
	}
	p.objects[key] = body
	return photoBaseURL + "/" + key, nil
}

func (p *memPhotos) Remove(_ context.Context, key string) error {
	if p.removeErr != nil {
		return apperror.Transport("failed to remove object", p.removeErr)
	}
	delete(p.objects, key)
	return nil
}

func (p *memPhotos) KeyFromURL(url string) string {
	return strings.TrimPrefix(url, photoBaseURL+"/")
}

type stubDrafts struct {
	ids map[int64]int64
}

func (s stubDrafts) CurrentDraftID(_ context.Context, caller *auth.Identity) (*int64, error) {
	if caller == nil {
		return nil, nil
	}
	id, ok := s.ids[caller.UserID]
	if !ok {
		return nil, nil
	}
	return &id, nil
}

var errS3Down = errors.New("s3 unavailable")

var (
	guest = &auth.Identity{UserID: 1, Email: "guest@example.com"}
	staff = &auth.Identity{UserID: 2, Email: "staff@example.com", IsStaff: true}
)

type fixture struct {
	service *Service
	dishes  *memDishStore
	photos  *memPhotos
}

func newFixture() *fixture {
	dishes := newMemDishStore()
	photos := newMemPhotos()
	drafts := stubDrafts{ids: map[int64]int64{guest.UserID: 77}}
	svc := NewService(dishes, photos, drafts, logger.Discard())

	tick := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		tick = tick.Add(time.Millisecond)
		return tick
	}
	return &fixture{service: svc, dishes: dishes, photos: photos}
}

func (f *fixture) seed(name string, price int64) models.Dish {
	d, err := f.dishes.CreateDish(context.Background(), &models.CreateDishRequest{Name: name, Price: price, Weight: 100})
	if err != nil {
		panic(err)
	}
	return *d
}
