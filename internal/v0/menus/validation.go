package menus

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"MenuAPI/internal/v0/dishes"
)

var ErrMenuIncomplete = errors.New("menu has unfilled slots")

// ValidationError collects every problem found in a menu document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid menu: " + strings.Join(e.Problems, "; ")
}

// NewMenuData returns an empty working day for every weekday.
func NewMenuData() MenuData {
	data := make(MenuData, len(Weekdays))
	for _, d := range Weekdays {
		data[d] = MenuDay{Dishes: map[dishes.Category]int64{}, EveningSnacks: []int64{}}
	}
	return data
}

// Normalize fills in missing weekdays and drops empty slots, so stored
// documents always carry all five days with non-nil collections.
func Normalize(data MenuData) MenuData {
	out := NewMenuData()
	for day, md := range data {
		clean := MenuDay{
			IsHoliday:     md.IsHoliday,
			Dishes:        map[dishes.Category]int64{},
			EveningSnacks: []int64{},
		}
		for c, id := range md.Dishes {
			if id != 0 {
				clean.Dishes[c] = id
			}
		}
		for _, id := range md.EveningSnacks {
			if id != 0 {
				clean.EveningSnacks = append(clean.EveningSnacks, id)
			}
		}
		out[day] = clean
	}
	return out
}

// MissingSlots lists the template slots left empty on non-holiday days.
func MissingSlots(data MenuData) []Slot {
	missing := []Slot{}
	for _, day := range Weekdays {
		md := data[day]
		if md.IsHoliday {
			continue
		}
		for _, c := range Template[day] {
			if md.Dishes[c] == 0 {
				missing = append(missing, Slot{Day: day, Category: c})
			}
		}
	}
	return missing
}

func IsComplete(data MenuData) bool {
	return len(MissingSlots(data)) == 0
}

// Validate checks the document's shape against the template and the known
// dishes. It returns a *ValidationError listing every problem, or nil.
func Validate(data MenuData, known map[int64]dishes.Dish) error {
	var problems []string

	var unknownDays []string
	for day := range data {
		if !day.Valid() {
			unknownDays = append(unknownDays, string(day))
		}
	}
	sort.Strings(unknownDays)
	for _, d := range unknownDays {
		problems = append(problems, fmt.Sprintf("unknown day %q", d))
	}

	for _, day := range Weekdays {
		md, ok := data[day]
		if !ok {
			continue
		}

		categories := make([]string, 0, len(md.Dishes))
		for c := range md.Dishes {
			categories = append(categories, string(c))
		}
		sort.Strings(categories)

		for _, name := range categories {
			c := dishes.Category(name)
			id := md.Dishes[c]
			if id == 0 {
				continue
			}
			if !InTemplate(day, c) {
				problems = append(problems, fmt.Sprintf("%s: %s is not a slot on this day", day.Label(), c))
				continue
			}
			dish, ok := known[id]
			if !ok {
				problems = append(problems, fmt.Sprintf("%s %s: dish %d does not exist", day.Label(), c, id))
				continue
			}
			if dish.Category != c {
				problems = append(problems, fmt.Sprintf("%s %s: %q is a %s dish", day.Label(), c, dish.Name, dish.Category))
			}
		}

		if len(md.EveningSnacks) > MaxEveningSnacks {
			problems = append(problems, fmt.Sprintf("%s: at most %d evening snacks", day.Label(), MaxEveningSnacks))
		}
		seen := make(map[int64]bool, len(md.EveningSnacks))
		for _, id := range md.EveningSnacks {
			if id == 0 {
				continue
			}
			if seen[id] {
				problems = append(problems, fmt.Sprintf("%s: evening snack %d listed twice", day.Label(), id))
				continue
			}
			seen[id] = true
			dish, ok := known[id]
			if !ok {
				problems = append(problems, fmt.Sprintf("%s evening snacks: dish %d does not exist", day.Label(), id))
				continue
			}
			if dish.Category != dishes.CategorySnacks {
				problems = append(problems, fmt.Sprintf("%s evening snacks: %q is a %s dish", day.Label(), dish.Name, dish.Category))
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// checkPublishable refuses to publish a menu with unfilled slots.
func checkPublishable(data MenuData) error {
	missing := MissingSlots(data)
	if len(missing) == 0 {
		return nil
	}
	problems := make([]string, 0, len(missing))
	for _, s := range missing {
		problems = append(problems, "missing "+s.String())
	}
	return fmt.Errorf("%w: %w", ErrMenuIncomplete, &ValidationError{Problems: problems})
}
