package dishes

import (
	"context"
	"testing"

	"MenuAPI/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	_, db := database.OpenTestDB(t)
	return NewRepository(db), db
}

func markUsed(t *testing.T, db *gorm.DB, dishID int64) {
	t.Helper()
	require.NoError(t, db.Exec("INSERT INTO dish_usage (dish_id, week_start_date) VALUES (?, ?)", dishID, "2026-01-05").Error)
}

func TestRepository_CreateAndList(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "Paneer Butter Masala", CategoryMain)
	require.NoError(t, err)
	_, err = repo.Create(ctx, "  Aloo Gobi ", CategoryMain)
	require.NoError(t, err)
	_, err = repo.Create(ctx, "Samosa", CategorySnacks)
	require.NoError(t, err)

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Aloo Gobi", all[0].Name)
	assert.Equal(t, "Paneer Butter Masala", all[1].Name)
	assert.Equal(t, "Samosa", all[2].Name)

	snacks := CategorySnacks
	filtered, err := repo.List(ctx, &snacks)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Samosa", filtered[0].Name)
}

func TestRepository_CreateRejectsDuplicates(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "Dal Tadka", CategoryDal)
	require.NoError(t, err)

	_, err = repo.Create(ctx, "Dal Tadka", CategoryDal)
	assert.ErrorIs(t, err, ErrDishExists)

	// same name in another category is a different dish
	_, err = repo.Create(ctx, "Dal Tadka", CategorySpecial)
	assert.NoError(t, err)
}

func TestRepository_CreateValidates(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Create(context.Background(), "   ", CategoryMain)
	assert.ErrorIs(t, err, ErrInvalidDish)

	_, err = repo.Create(context.Background(), "Soup", Category("starter"))
	assert.ErrorIs(t, err, ErrInvalidDish)
}

func TestRepository_Grouped(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "Boiled Egg", CategoryEgg)
	require.NoError(t, err)

	grouped, err := repo.Grouped(ctx)
	require.NoError(t, err)
	assert.Len(t, grouped, len(Categories))
	assert.Len(t, grouped[CategoryEgg], 1)
	assert.NotNil(t, grouped[CategoryChicken])
	assert.Empty(t, grouped[CategoryChicken])
}

func TestRepository_GetByIDs(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	a, err := repo.Create(ctx, "Jeera Rice", CategoryPulav)
	require.NoError(t, err)

	found, err := repo.GetByIDs(ctx, []int64{a.ID, 999})
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, "Jeera Rice", found[a.ID].Name)

	empty, err := repo.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	missing, err := repo.GetByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepository_Update(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	d, err := repo.Create(ctx, "Chiken Curry", CategoryChicken)
	require.NoError(t, err)

	name := "Chicken Curry"
	updated, err := repo.Update(ctx, d.ID, &name, nil)
	require.NoError(t, err)
	assert.Equal(t, "Chicken Curry", updated.Name)

	markUsed(t, db, d.ID)

	// renaming a used dish is fine, moving it to another slot is not
	special := CategorySpecial
	_, err = repo.Update(ctx, d.ID, nil, &special)
	assert.ErrorIs(t, err, ErrDishInUse)

	gone, err := repo.Update(ctx, 999, &name, nil)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestRepository_Delete(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	unused, err := repo.Create(ctx, "Poha", CategorySnacks)
	require.NoError(t, err)
	used, err := repo.Create(ctx, "Vada Pav", CategorySnacks)
	require.NoError(t, err)
	markUsed(t, db, used.ID)

	deleted, err := repo.Delete(ctx, unused.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, unused.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.Delete(ctx, used.ID)
	assert.ErrorIs(t, err, ErrDishInUse)
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("dalkhichdi")
	require.NoError(t, err)
	assert.Equal(t, CategoryDalKhichdi, c)

	_, err = ParseCategory("Main")
	assert.Error(t, err)
}
