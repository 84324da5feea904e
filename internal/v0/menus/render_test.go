package menus

import (
	"bytes"
	"testing"

	"MenuAPI/internal/v0/dishes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func renderFixture() ([]ResolvedDay, MenuData) {
	catalog := map[int64]dishes.Dish{
		1: {ID: 1, Name: "Rajma", Category: dishes.CategoryMain},
		2: {ID: 2, Name: "Aloo Fry", Category: dishes.CategorySide},
		3: {ID: 3, Name: "Samosa", Category: dishes.CategorySnacks},
		4: {ID: 4, Name: "Poha", Category: dishes.CategorySnacks},
		5: {ID: 5, Name: "Butter Chicken", Category: dishes.CategoryChicken},
	}

	data := NewMenuData()
	data[Monday].Dishes[dishes.CategorySide] = 2
	data[Monday].Dishes[dishes.CategoryMain] = 1
	mon := data[Monday]
	mon.EveningSnacks = []int64{3, 4}
	data[Monday] = mon
	data[Tuesday] = MenuDay{IsHoliday: true, Dishes: map[dishes.Category]int64{dishes.CategoryMain: 1}}
	data[Wednesday].Dishes[dishes.CategoryChicken] = 5
	data[Thursday].Dishes[dishes.CategoryMain] = 42 // deleted from the catalogue
	data[Friday].Dishes[dishes.CategoryMain] = 1

	return Resolve(data, catalog), data
}

func TestResolve(t *testing.T) {
	days, _ := renderFixture()

	require.Len(t, days, 5)
	assert.Equal(t, "Monday", days[0].Label)
	// template order, not insertion order
	require.Len(t, days[0].Dishes, 2)
	assert.Equal(t, "Rajma", days[0].Dishes[0].Name)
	assert.Equal(t, "Aloo Fry", days[0].Dishes[1].Name)
	assert.Len(t, days[0].EveningSnacks, 2)

	assert.True(t, days[1].IsHoliday)
	assert.Empty(t, days[1].Dishes)
	assert.Empty(t, days[3].Dishes)
}

func TestWhatsAppText(t *testing.T) {
	days, _ := renderFixture()

	want := "Monday\n" +
		"Rajma\n" +
		"Aloo Fry\n" +
		"Eve snacks - Samosa, Poha\n" +
		"\n" +
		"Tuesday\n" +
		"Holiday\n" +
		"\n" +
		"Wednesday\n" +
		"Butter Chicken\n" +
		"\n" +
		"Thursday\n" +
		"\n" +
		"Friday\n" +
		"Rajma"

	assert.Equal(t, want, WhatsAppText(days))
}

func TestWriteXLSX(t *testing.T) {
	days, _ := renderFixture()

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "Weekly Menu 05 Jan - 11 Jan 2026", days))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 7)

	assert.Equal(t, "Weekly Menu 05 Jan - 11 Jan 2026", rows[0][0])
	assert.Equal(t, []string{"Day", "Main", "Side", "Egg", "Dal", "Special", "Pulav", "Chicken", "Evening snacks"}, rows[1])
	assert.Equal(t, "Monday", rows[2][0])
	assert.Equal(t, "Rajma", rows[2][1])
	assert.Equal(t, "Aloo Fry", rows[2][2])
	assert.Equal(t, "Samosa, Poha", rows[2][8])
	assert.Equal(t, "Holiday", rows[3][1])
	assert.Equal(t, "Butter Chicken", rows[4][7])
}

func TestRender_HolidayKeepsSnacks(t *testing.T) {
	catalog := map[int64]dishes.Dish{
		1: {ID: 1, Name: "Rajma", Category: dishes.CategoryMain},
		7: {ID: 7, Name: "Samosa", Category: dishes.CategorySnacks},
	}
	data := NewMenuData()
	data[Monday] = MenuDay{
		IsHoliday:     true,
		Dishes:        map[dishes.Category]int64{dishes.CategoryMain: 1},
		EveningSnacks: []int64{7},
	}

	days := Resolve(data, catalog)
	assert.Empty(t, days[0].Dishes)
	require.Len(t, days[0].EveningSnacks, 1)
	assert.Equal(t, "Samosa", days[0].EveningSnacks[0].Name)

	assert.Contains(t, WhatsAppText(days), "Monday\nHoliday\nEve snacks - Samosa\n\nTuesday")

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "Weekly Menu", days))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	assert.Equal(t, "Holiday", rows[2][1])
	assert.Equal(t, "Samosa", rows[2][8])
}
