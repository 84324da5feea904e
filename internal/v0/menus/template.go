package menus

import "MenuAPI/internal/v0/dishes"

// MaxEveningSnacks caps the snacks listed for one day.
const MaxEveningSnacks = 5

var baseSlots = []dishes.Category{
	dishes.CategoryMain,
	dishes.CategorySide,
	dishes.CategoryEgg,
	dishes.CategoryDal,
	dishes.CategorySpecial,
	dishes.CategoryPulav,
}

var chickenSlots = append(append([]dishes.Category{}, baseSlots...), dishes.CategoryChicken)

// Template lists the categories a non-holiday weekday must fill, in display order.
var Template = map[Weekday][]dishes.Category{
	Monday:    baseSlots,
	Tuesday:   baseSlots,
	Wednesday: chickenSlots,
	Thursday:  baseSlots,
	Friday:    chickenSlots,
}

// TemplateColumns is the union of every day's slots, in display order.
var TemplateColumns = chickenSlots

// InTemplate reports whether category is a slot on day.
func InTemplate(day Weekday, category dishes.Category) bool {
	for _, c := range Template[day] {
		if c == category {
			return true
		}
	}
	return false
}
