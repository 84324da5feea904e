package menus

import (
	"fmt"
	"sort"
	"time"

	"MenuAPI/internal/week"
)

// LastUsedRow is the latest week a dish appeared in, as stored.
type LastUsedRow struct {
	DishID   int64
	LastUsed string
}

// ExtractDishIDs returns the distinct dishes a menu uses, in ascending order.
// Holiday days contribute nothing.
func ExtractDishIDs(data MenuData) []int64 {
	seen := map[int64]bool{}
	for _, day := range Weekdays {
		md := data[day]
		if md.IsHoliday {
			continue
		}
		for _, id := range md.Dishes {
			if id != 0 {
				seen[id] = true
			}
		}
		for _, id := range md.EveningSnacks {
			if id != 0 {
				seen[id] = true
			}
		}
	}

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// LastUsedLabels turns usage rows into human labels relative to the week
// containing target. Dishes without a row get no label.
func LastUsedLabels(rows []LastUsedRow, target time.Time) map[int64]string {
	thisWeek := week.Start(target)
	labels := make(map[int64]string, len(rows))
	for _, r := range rows {
		used, err := week.ParseISO(r.LastUsed)
		if err != nil {
			continue
		}
		labels[r.DishID] = relativeLabel(week.WeeksBetween(used, thisWeek))
	}
	return labels
}

func relativeLabel(weeksAgo int) string {
	switch {
	case weeksAgo == 0:
		return "this week"
	case weeksAgo > 0:
		return fmt.Sprintf("%d %s ago", weeksAgo, plural(weeksAgo, "week"))
	default:
		return fmt.Sprintf("in %d %s", -weeksAgo, plural(-weeksAgo, "week"))
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
