package models

// DishStatus represents the catalog status of a dish
type DishStatus string

const (
	DishActive  DishStatus = "active"
	DishDeleted DishStatus = "deleted"
)

// Dish represents a menu item. Price is in whole currency units.
type Dish struct {
	ID          int64      `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Type        *string    `json:"type,omitempty" db:"type"`
	Description string     `json:"description" db:"description"`
	Price       int64      `json:"price" db:"price"`
	Weight      int64      `json:"weight" db:"weight"`
	Photo       *string    `json:"photo,omitempty" db:"photo"`
	Status      DishStatus `json:"status" db:"status"`
}

// IsActive reports whether the dish may be listed and added to drafts
func (d *Dish) IsActive() bool {
	return d.Status == DishActive
}

// DishFilter narrows catalog listings. Nil bounds are ignored.
type DishFilter struct {
	MinPrice *int64
	MaxPrice *int64
}

// CreateDishRequest is the payload for adding a dish to the catalog
type CreateDishRequest struct {
	Name        string  `json:"name"`
	Type        *string `json:"type,omitempty"`
	Description string  `json:"description"`
	Price       int64   `json:"price"`
	Weight      int64   `json:"weight"`
}

// UpdateDishRequest is a partial update; nil fields are left unchanged
type UpdateDishRequest struct {
	Name        *string     `json:"name,omitempty"`
	Type        *string     `json:"type,omitempty"`
	Description *string     `json:"description,omitempty"`
	Price       *int64      `json:"price,omitempty"`
	Weight      *int64      `json:"weight,omitempty"`
	Status      *DishStatus `json:"status,omitempty"`
}

// DishListResponse is the catalog listing together with the caller's open draft
type DishListResponse struct {
	Dishes        []Dish `json:"dishes"`
	DraftDinnerID *int64 `json:"draft_dinner_id"`
}

// PhotoUploadResponse is returned after a dish photo has been stored
type PhotoUploadResponse struct {
	Message  string `json:"message"`
	PhotoURL string `json:"photo_url"`
	Warning  string `json:"warning,omitempty"`
}
