package menus

import (
	"context"
	"errors"

	"MenuAPI/internal/week"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrMenuExists   = errors.New("a menu already exists for this week")
	ErrMenuNotFound = errors.New("no menu exists for this week")
)

type Repository struct {
	db    *gorm.DB
	clock clockwork.Clock
}

// NewRepository creates a new menu repository
func NewRepository(db *gorm.DB, clock clockwork.Clock) *Repository {
	return &Repository{db: db, clock: clock}
}

// GetByWeek returns the menu stored for a week start date, or nil
func (r *Repository) GetByWeek(ctx context.Context, weekStart string) (*WeeklyMenu, error) {
	return findByWeek(r.db.WithContext(ctx), weekStart)
}

func findByWeek(tx *gorm.DB, weekStart string) (*WeeklyMenu, error) {
	var m WeeklyMenu
	err := tx.Where("week_start_date = ?", weekStart).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if m.Data == nil {
		m.Data = NewMenuData()
	}
	return &m, nil
}

// ListRecent returns menu summaries, newest week first
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]MenuSummary, error) {
	var menus []WeeklyMenu
	q := r.db.WithContext(ctx).
		Select("week_start_date", "status", "updated_at").
		Order("week_start_date DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&menus).Error; err != nil {
		return nil, err
	}

	summaries := make([]MenuSummary, 0, len(menus))
	for _, m := range menus {
		summaries = append(summaries, summarize(m))
	}
	return summaries, nil
}

// ListByPeriod splits every stored menu into past, this week and upcoming
// relative to the repository clock
func (r *Repository) ListByPeriod(ctx context.Context) (*MenusByPeriod, error) {
	all, err := r.ListRecent(ctx, 0)
	if err != nil {
		return nil, err
	}

	now := r.clock.Now()
	out := &MenusByPeriod{Past: []MenuSummary{}, Upcoming: []MenuSummary{}}
	for _, s := range all {
		start, err := week.ParseISO(s.WeekStartDate)
		if err != nil {
			continue
		}
		switch week.Classify(start, now) {
		case week.PeriodPast:
			out.Past = append(out.Past, s)
		case week.PeriodThisWeek:
			out.ThisWeek = &s
		case week.PeriodUpcoming:
			out.Upcoming = append(out.Upcoming, s)
		}
	}
	return out, nil
}

func summarize(m WeeklyMenu) MenuSummary {
	s := MenuSummary{WeekStartDate: m.WeekStartDate, Status: m.Status, UpdatedAt: m.UpdatedAt}
	if start, err := week.ParseISO(m.WeekStartDate); err == nil {
		s.Week = week.FormatURL(start)
		s.WeekRange = week.Range(start)
	}
	return s
}

// Create stores a new menu and its dish usage in one transaction
func (r *Repository) Create(ctx context.Context, weekStart string, data MenuData, status MenuStatus, userID *int64) (*WeeklyMenu, error) {
	data = Normalize(data)
	if status == StatusPublished {
		if err := checkPublishable(data); err != nil {
			return nil, err
		}
	}

	m := &WeeklyMenu{
		WeekStartDate: weekStart,
		Data:          data,
		Status:        status,
		UpdatedBy:     userID,
	}
	if status == StatusPublished {
		now := r.clock.Now().UTC()
		m.PublishedAt = &now
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findByWeek(tx, weekStart)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrMenuExists
		}

		if err := tx.Create(m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrMenuExists
			}
			return err
		}
		return replaceUsage(tx, weekStart, data)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Update replaces the document and status of an existing menu and rebuilds
// its dish usage
func (r *Repository) Update(ctx context.Context, weekStart string, data MenuData, status MenuStatus, userID *int64) (*WeeklyMenu, error) {
	data = Normalize(data)
	if status == StatusPublished {
		if err := checkPublishable(data); err != nil {
			return nil, err
		}
	}

	var updated *WeeklyMenu
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := findByWeek(tx, weekStart)
		if err != nil {
			return err
		}
		if m == nil {
			return ErrMenuNotFound
		}

		r.applyStatus(m, status)
		m.Data = data
		m.UpdatedBy = userID
		if err := tx.Save(m).Error; err != nil {
			return err
		}
		if err := replaceUsage(tx, weekStart, data); err != nil {
			return err
		}
		updated = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// EnsureDraft returns the menu for a week, creating an empty draft when none
// exists. created reports whether a draft was inserted.
func (r *Repository) EnsureDraft(ctx context.Context, weekStart string, userID *int64) (*WeeklyMenu, bool, error) {
	existing, err := r.GetByWeek(ctx, weekStart)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	m, err := r.Create(ctx, weekStart, NewMenuData(), StatusDraft, userID)
	if errors.Is(err, ErrMenuExists) {
		// Lost a race with another editor; theirs wins.
		existing, err := r.GetByWeek(ctx, weekStart)
		return existing, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// Publish makes a stored menu public. Every template slot must be filled.
func (r *Repository) Publish(ctx context.Context, weekStart string, userID *int64) (*WeeklyMenu, error) {
	return r.setStatus(ctx, weekStart, StatusPublished, userID)
}

// Unpublish returns a published menu to draft.
func (r *Repository) Unpublish(ctx context.Context, weekStart string, userID *int64) (*WeeklyMenu, error) {
	return r.setStatus(ctx, weekStart, StatusDraft, userID)
}

func (r *Repository) setStatus(ctx context.Context, weekStart string, status MenuStatus, userID *int64) (*WeeklyMenu, error) {
	var updated *WeeklyMenu
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := findByWeek(tx, weekStart)
		if err != nil {
			return err
		}
		if m == nil {
			return ErrMenuNotFound
		}
		if status == StatusPublished {
			if err := checkPublishable(m.Data); err != nil {
				return err
			}
		}

		r.applyStatus(m, status)
		m.UpdatedBy = userID
		if err := tx.Save(m).Error; err != nil {
			return err
		}
		updated = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// applyStatus keeps the first publication time across republishing.
func (r *Repository) applyStatus(m *WeeklyMenu, status MenuStatus) {
	switch status {
	case StatusPublished:
		if m.Status != StatusPublished || m.PublishedAt == nil {
			now := r.clock.Now().UTC()
			m.PublishedAt = &now
		}
	case StatusDraft:
		m.PublishedAt = nil
	}
	m.Status = status
}

// Delete removes a menu and its dish usage
func (r *Repository) Delete(ctx context.Context, weekStart string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("week_start_date = ?", weekStart).Delete(&DishUsage{}).Error; err != nil {
			return err
		}
		res := tx.Where("week_start_date = ?", weekStart).Delete(&WeeklyMenu{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrMenuNotFound
		}
		return nil
	})
}

// LastUsedRows returns the latest usage week of every dish that has been used
func (r *Repository) LastUsedRows(ctx context.Context) ([]LastUsedRow, error) {
	var rows []LastUsedRow
	err := r.db.WithContext(ctx).
		Model(&DishUsage{}).
		Select("dish_id, MAX(week_start_date) AS last_used").
		Group("dish_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UsageForWeek returns the dish IDs recorded for one week
func (r *Repository) UsageForWeek(ctx context.Context, weekStart string) ([]int64, error) {
	ids := []int64{}
	err := r.db.WithContext(ctx).
		Model(&DishUsage{}).
		Where("week_start_date = ?", weekStart).
		Order("dish_id").
		Pluck("dish_id", &ids).Error
	return ids, err
}

func replaceUsage(tx *gorm.DB, weekStart string, data MenuData) error {
	if err := tx.Where("week_start_date = ?", weekStart).Delete(&DishUsage{}).Error; err != nil {
		return err
	}

	ids := ExtractDishIDs(data)
	if len(ids) == 0 {
		return nil
	}
	rows := make([]DishUsage, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, DishUsage{DishID: id, WeekStartDate: weekStart})
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
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
