package repository_test

import (
	"context"
	"testing"

	"github.com/aimarketspace/marketplace-api/internal/repository"
	"github.com/aimarketspace/marketplace-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatorProfileRepository_ListByCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewCreatorProfileRepository(db)
	ctx := context.Background()

	testutil.CreateTestCreator(t, db, "ada@example.com", "Ada", "Automation engineer", []string{"sales", "support"})
	testutil.CreateTestCreator(t, db, "bob@example.com", "Bob", "", []string{"sales"})
	testutil.CreateTestCreator(t, db, "cy@example.com", "Cy", "Consultant", []string{"sales-ops"})
	testutil.CreateTestCreator(t, db, "di@example.com", "Di", "Builder", []string{"marketing"})

	profiles, err := repo.ListByCategory(ctx, "sales")
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Ada", profiles[0].FullName)

	profiles, err = repo.ListByCategory(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestCreatorProfileRepository_ListByCategorySpecialCharacters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewCreatorProfileRepository(db)
	ctx := context.Background()

	testutil.CreateTestCreator(t, db, "ada@example.com", "Ada", "Automation engineer",
		[]string{"Sales & Lead Generation", "Content & Social Media"})
	testutil.CreateTestCreator(t, db, "bob@example.com", "Bob", "Data engineer", []string{"Data_Entry"})
	testutil.CreateTestCreator(t, db, "cy@example.com", "Cy", "Consultant", []string{"DataXEntry"})
	testutil.CreateTestCreator(t, db, "di@example.com", "Di", "Analyst", []string{`100% "custom"`})

	profiles, err := repo.ListByCategory(ctx, "Sales & Lead Generation")
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Ada", profiles[0].FullName)

	profiles, err = repo.ListByCategory(ctx, "Data_Entry")
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Bob", profiles[0].FullName)

	profiles, err = repo.ListByCategory(ctx, `100% "custom"`)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Di", profiles[0].FullName)

	profiles, err = repo.ListByCategory(ctx, "Sales")
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestCreatorProfileRepository_ListsRoundTripJSON(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewCreatorProfileRepository(db)

	user, _ := testutil.CreateTestCreator(t, db, "eve@example.com", "Eve", "Engineer", []string{"finance", "hr"})

	profile, err := repo.GetByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"finance", "hr"}, profile.SolutionsFor)
	assert.Equal(t, user.ID, profile.ID)
}
