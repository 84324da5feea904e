package menus

import (
	"strings"

	"MenuAPI/internal/v0/dishes"
	"MenuAPI/internal/week"
)

// Resolve replaces the dish IDs of a menu with catalogue entries, in template
// order. IDs missing from the catalogue are skipped.
func Resolve(data MenuData, catalogue map[int64]dishes.Dish) []ResolvedDay {
	days := make([]ResolvedDay, 0, len(Weekdays))
	for _, day := range Weekdays {
		md := data[day]
		rd := ResolvedDay{
			Day:           day,
			Label:         day.Label(),
			IsHoliday:     md.IsHoliday,
			Dishes:        []ResolvedDish{},
			EveningSnacks: []ResolvedDish{},
		}
		if !md.IsHoliday {
			for _, c := range Template[day] {
				if d, ok := catalogue[md.Dishes[c]]; ok {
					rd.Dishes = append(rd.Dishes, ResolvedDish{ID: d.ID, Name: d.Name, Category: c})
				}
			}
		}
		// snacks are served on holidays too
		for _, id := range md.EveningSnacks {
			if d, ok := catalogue[id]; ok {
				rd.EveningSnacks = append(rd.EveningSnacks, ResolvedDish{ID: d.ID, Name: d.Name, Category: d.Category})
			}
		}
		days = append(days, rd)
	}
	return days
}

// NewPublicMenu builds the read-only view of a stored menu.
func NewPublicMenu(m *WeeklyMenu, catalogue map[int64]dishes.Dish) PublicMenu {
	pm := PublicMenu{
		WeekStartDate: m.WeekStartDate,
		PublishedAt:   m.PublishedAt,
		Days:          Resolve(m.Data, catalogue),
	}
	if start, err := week.ParseISO(m.WeekStartDate); err == nil {
		pm.Week = week.FormatURL(start)
		pm.WeekRange = week.Range(start)
	}
	return pm
}

// WhatsAppText renders a menu as plain text for pasting into a chat: one
// block per day, the day label first, then one dish per line or "Holiday",
// then an "Eve snacks" line when snacks are set.
func WhatsAppText(days []ResolvedDay) string {
	var b strings.Builder
	for i, d := range days {
		b.WriteString(d.Label)
		b.WriteString("\n")
		if d.IsHoliday {
			b.WriteString("Holiday\n")
		} else {
			for _, dish := range d.Dishes {
				b.WriteString(dish.Name)
				b.WriteString("\n")
			}
		}
		if len(d.EveningSnacks) > 0 {
			names := make([]string, 0, len(d.EveningSnacks))
			for _, s := range d.EveningSnacks {
				names = append(names, s.Name)
			}
			b.WriteString("Eve snacks - ")
			b.WriteString(strings.Join(names, ", "))
			b.WriteString("\n")
		}
		if i < len(days)-1 {
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
