package dishes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrDishExists  = errors.New("a dish with this name already exists in the category")
	ErrDishInUse   = errors.New("dish is used by a weekly menu")
	ErrInvalidDish = errors.New("invalid dish")
)

type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new dish repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns dishes ordered by category then name, optionally filtered by category
func (r *Repository) List(ctx context.Context, category *Category) ([]Dish, error) {
	q := r.db.WithContext(ctx).Order("category").Order("name")
	if category != nil {
		q = q.Where("category = ?", *category)
	}

	dishes := []Dish{}
	if err := q.Find(&dishes).Error; err != nil {
		return nil, err
	}
	return dishes, nil
}

// Grouped returns all dishes grouped by category. Every category has an entry,
// even an empty one, so clients can render the full template.
func (r *Repository) Grouped(ctx context.Context) (ByCategory, error) {
	all, err := r.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	return Group(all), nil
}

// Group buckets dishes by category.
func Group(all []Dish) ByCategory {
	grouped := make(ByCategory, len(Categories))
	for _, c := range Categories {
		grouped[c] = []Dish{}
	}
	for _, d := range all {
		grouped[d.Category] = append(grouped[d.Category], d)
	}
	return grouped
}

// GetByID returns a dish, or nil if it does not exist
func (r *Repository) GetByID(ctx context.Context, id int64) (*Dish, error) {
	var d Dish
	err := r.db.WithContext(ctx).First(&d, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetByIDs returns the dishes that exist among ids, keyed by ID
func (r *Repository) GetByIDs(ctx context.Context, ids []int64) (map[int64]Dish, error) {
	found := make(map[int64]Dish, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	var dishes []Dish
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&dishes).Error; err != nil {
		return nil, err
	}
	for _, d := range dishes {
		found[d.ID] = d
	}
	return found, nil
}

// AllByID returns the whole catalogue keyed by ID
func (r *Repository) AllByID(ctx context.Context) (map[int64]Dish, error) {
	all, err := r.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]Dish, len(all))
	for _, d := range all {
		byID[d.ID] = d
	}
	return byID, nil
}

// Create adds a new dish to the catalogue
func (r *Repository) Create(ctx context.Context, name string, category Category) (*Dish, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidDish)
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidDish, category)
	}

	d := Dish{Name: name, Category: category}
	err := r.db.WithContext(ctx).Create(&d).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrDishExists
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Update renames and/or recategorises a dish. Returns nil if it does not exist.
// A dish that already appears in a menu keeps its category, otherwise the
// stored menus would reference it from the wrong slot.
func (r *Repository) Update(ctx context.Context, id int64, name *string, category *Category) (*Dish, error) {
	var updated *Dish
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d Dish
		err := tx.First(&d, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if name != nil {
			trimmed := strings.TrimSpace(*name)
			if trimmed == "" {
				return fmt.Errorf("%w: name is required", ErrInvalidDish)
			}
			d.Name = trimmed
		}
		if category != nil && *category != d.Category {
			if !category.Valid() {
				return fmt.Errorf("%w: unknown category %q", ErrInvalidDish, *category)
			}
			used, err := usageCount(tx, id)
			if err != nil {
				return err
			}
			if used > 0 {
				return ErrDishInUse
			}
			d.Category = *category
		}

		if err := tx.Save(&d).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDishExists
			}
			return err
		}
		updated = &d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a dish that no menu has used. Returns false if it did not exist.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		used, err := usageCount(tx, id)
		if err != nil {
			return err
		}
		if used > 0 {
			return ErrDishInUse
		}

		res := tx.Delete(&Dish{}, id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

func usageCount(tx *gorm.DB, dishID int64) (int64, error) {
	var count int64
	err := tx.Table("dish_usage").Where("dish_id = ?", dishID).Count(&count).Error
	return count, err
}

//This project is the weekly menu planning backend API for the OpenSourceDUTH team. Plan, publish and share the canteen's weekly menus.
//API Copyright (C) 2025 OpenSourceDUTH
//This program is free software: you can redistribute it and/or modify
//it under the terms of the GNU General Public License as published by
//the Free Software Foundation, either version 3 of the License, or
//(at your option) any later version.
//
//This program is distributed in the hope that it will be useful,
//but WITHOUT ANY WARRANTY; without even the implied warranty of
//MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//GNU General Public License for more details.
//
//You should have received a copy of the GNU General Public License
//along with this program.  If not, see <https://www.gnu.org/licenses/>.
