package menus

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"MenuAPI/internal/auth"
	"MenuAPI/internal/database"
	"MenuAPI/internal/v0/dishes"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// monday is a Monday; the fake clock starts on the Wednesday of that week.
var monday = time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)

type fixture struct {
	sqlDB   *sql.DB
	db      *gorm.DB
	clock   *clockwork.FakeClock
	repo    *Repository
	dishes  *dishes.Repository
	byCat   map[dishes.Category]int64
	snacks  []int64
	catalog map[int64]dishes.Dish
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sqlDB, db := database.OpenTestDB(t)
	clock := clockwork.NewFakeClockAt(monday.Add(2*24*time.Hour + 10*time.Hour))

	f := &fixture{
		sqlDB:  sqlDB,
		db:     db,
		clock:  clock,
		repo:   NewRepository(db, clock),
		dishes: dishes.NewRepository(db),
		byCat:  map[dishes.Category]int64{},
	}

	ctx := context.Background()
	for _, c := range TemplateColumns {
		d, err := f.dishes.Create(ctx, "Dish "+string(c), c)
		require.NoError(t, err)
		f.byCat[c] = d.ID
	}
	for _, name := range []string{"Samosa", "Poha", "Dhokla"} {
		d, err := f.dishes.Create(ctx, name, dishes.CategorySnacks)
		require.NoError(t, err)
		f.snacks = append(f.snacks, d.ID)
	}

	catalog, err := f.dishes.AllByID(ctx)
	require.NoError(t, err)
	f.catalog = catalog
	return f
}

// fullMenu fills every template slot of every day.
func (f *fixture) fullMenu() MenuData {
	data := NewMenuData()
	for _, day := range Weekdays {
		md := data[day]
		for _, c := range Template[day] {
			md.Dishes[c] = f.byCat[c]
		}
		data[day] = md
	}
	return data
}

func (f *fixture) newUser(t *testing.T, email string) *auth.User {
	t.Helper()
	user, err := auth.NewRepository(f.sqlDB).CreateUser(context.Background(), email, "Editor", nil)
	require.NoError(t, err)
	return user
}
