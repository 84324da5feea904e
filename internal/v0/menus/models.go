package menus

import (
	"fmt"
	"time"

	"MenuAPI/internal/v0/dishes"
)

type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
)

// Weekdays is the fixed order days are stored, validated and rendered in.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

var weekdayLabels = map[Weekday]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
}

func (d Weekday) Valid() bool {
	_, ok := weekdayLabels[d]
	return ok
}

func (d Weekday) Label() string {
	return weekdayLabels[d]
}

type MenuStatus string

const (
	StatusDraft     MenuStatus = "draft"
	StatusPublished MenuStatus = "published"
)

// ParseStatus accepts an empty string as draft.
func ParseStatus(s string) (MenuStatus, error) {
	switch MenuStatus(s) {
	case "", StatusDraft:
		return StatusDraft, nil
	case StatusPublished:
		return StatusPublished, nil
	}
	return "", fmt.Errorf("unknown menu status %q", s)
}

// MenuDay is one weekday of a menu. A zero dish ID means the slot is empty.
type MenuDay struct {
	IsHoliday     bool                      `json:"isHoliday"`
	Dishes        map[dishes.Category]int64 `json:"dishes"`
	EveningSnacks []int64                   `json:"eveningSnacks"`
}

// MenuData maps each weekday to its assignments. It is stored as a JSON
// document in weekly_menus.data.
type MenuData map[Weekday]MenuDay

type WeeklyMenu struct {
	ID            int64      `json:"id" gorm:"primaryKey"`
	WeekStartDate string     `json:"weekStartDate" gorm:"column:week_start_date;not null"`
	Data          MenuData   `json:"data" gorm:"serializer:json;not null"`
	Status        MenuStatus `json:"status" gorm:"not null"`
	PublishedAt   *time.Time `json:"publishedAt"`
	UpdatedBy     *int64     `json:"updatedBy"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (WeeklyMenu) TableName() string {
	return "weekly_menus"
}

// DishUsage records that a dish appears in the menu of a week.
type DishUsage struct {
	DishID        int64  `gorm:"primaryKey;autoIncrement:false"`
	WeekStartDate string `gorm:"primaryKey"`
}

func (DishUsage) TableName() string {
	return "dish_usage"
}

// Slot names one required (day, category) position.
type Slot struct {
	Day      Weekday         `json:"day"`
	Category dishes.Category `json:"category"`
}

func (s Slot) String() string {
	return fmt.Sprintf("%s %s", s.Day.Label(), s.Category)
}

// MenuSummary is a list entry without the menu document.
type MenuSummary struct {
	WeekStartDate string     `json:"weekStartDate"`
	Week          string     `json:"week"`
	WeekRange     string     `json:"weekRange"`
	Status        MenuStatus `json:"status"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// MenusByPeriod splits the stored menus around the current week. ThisWeek
// is nil when the current week has no menu yet.
type MenusByPeriod struct {
	Past     []MenuSummary `json:"past"`
	ThisWeek *MenuSummary  `json:"thisWeek"`
	Upcoming []MenuSummary `json:"upcoming"`
}

type MenuView struct {
	Menu         *WeeklyMenu `json:"menu"`
	Week         string      `json:"week"`
	WeekRange    string      `json:"weekRange"`
	MissingSlots []Slot      `json:"missingSlots"`
	Complete     bool        `json:"complete"`
}

// EditorView is everything the editor needs to render one week.
type EditorView struct {
	MenuView
	DishesByCategory dishes.ByCategory             `json:"dishesByCategory"`
	Template         map[Weekday][]dishes.Category `json:"template"`
	LastUsed         map[int64]*string             `json:"lastUsed"`
}

type SaveMenuRequest struct {
	Data   MenuData `json:"data" binding:"required"`
	Status string   `json:"status"`
}

// ResolvedDish is a dish reference with its catalogue name filled in.
type ResolvedDish struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Category dishes.Category `json:"category"`
}

type ResolvedDay struct {
	Day           Weekday        `json:"day"`
	Label         string         `json:"label"`
	IsHoliday     bool           `json:"isHoliday"`
	Dishes        []ResolvedDish `json:"dishes"`
	EveningSnacks []ResolvedDish `json:"eveningSnacks"`
}

// PublicMenu is the read-only rendering of a published week.
type PublicMenu struct {
	WeekStartDate string        `json:"weekStartDate"`
	Week          string        `json:"week"`
	WeekRange     string        `json:"weekRange"`
	PublishedAt   *time.Time    `json:"publishedAt"`
	Days          []ResolvedDay `json:"days"`
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
