package dishes

import (
	"fmt"
	"time"
)

// Category tags a dish with the menu slot it can fill.
type Category string

const (
	CategoryMain       Category = "main"
	CategorySide       Category = "side"
	CategoryEgg        Category = "egg"
	CategoryPulav      Category = "pulav"
	CategoryDal        Category = "dal"
	CategoryChicken    Category = "chicken"
	CategorySpecial    Category = "special"
	CategoryDalKhichdi Category = "dalkhichdi"
	CategorySnacks     Category = "snacks"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryMain,
	CategorySide,
	CategoryEgg,
	CategoryPulav,
	CategoryDal,
	CategoryChicken,
	CategorySpecial,
	CategoryDalKhichdi,
	CategorySnacks,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown dish category %q", s)
	}
	return c, nil
}

type Dish struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null;uniqueIndex:idx_dish_name_category"`
	Category  Category  `json:"category" gorm:"not null;index;uniqueIndex:idx_dish_name_category"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Dish) TableName() string {
	return "dishes"
}

// ByCategory groups dishes under their category, every category present.
type ByCategory map[Category][]Dish

type DishCreateRequest struct {
	Name     string   `json:"name" binding:"required,max=100"`
	Category Category `json:"category" binding:"required"`
}

type DishUpdateRequest struct {
	Name     *string   `json:"name" binding:"omitempty,max=100"`
	Category *Category `json:"category"`
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
