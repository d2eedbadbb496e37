package service

import (
	"context"
	"testing"

	"studenthelp/backend/internal/apperr"
	"studenthelp/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.users.Register(ctx, RegisterParams{Name: "Alice", Email: "Alice@Uni.edu", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "alice@uni.edu", user.Email)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "hunter22", user.PasswordHash)

	_, err = f.users.Register(ctx, RegisterParams{Name: "Alice 2", Email: "alice@uni.edu", Password: "x"})
	assert.True(t, apperr.Is(err, apperr.Conflict))

	byEmail, err := f.users.Authenticate(ctx, "ALICE@uni.edu", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byUsername, err := f.users.Authenticate(ctx, "alice", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byUsername.ID)

	_, err = f.users.Authenticate(ctx, "alice", "wrong")
	assert.True(t, apperr.Is(err, apperr.Unauthenticated))

	_, err = f.users.Authenticate(ctx, "nobody", "hunter22")
	assert.True(t, apperr.Is(err, apperr.Unauthenticated))
}

func TestRegisterRequiresNameAndEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.Register(context.Background(), RegisterParams{Email: "a@b.c", Password: "x"})
	assert.True(t, apperr.Is(err, apperr.BadRequest))
}

func TestGuestCannotLogIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	guest, err := f.users.CreateGuest(ctx)
	require.NoError(t, err)
	assert.True(t, guest.IsTemporary)

	_, err = f.users.Authenticate(ctx, guest.Username, "")
	assert.True(t, apperr.Is(err, apperr.Unauthenticated))
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	viewer := f.user(t, "viewer")
	anna := models.User{Name: "Anna Svensson", Username: "anna", Email: "anna@uni.edu", PasswordHash: "x", School: "KTH", Program: "Computer Science"}
	ben := models.User{Name: "Ben", Username: "ben_dev", Email: "ben@uni.edu", PasswordHash: "x", School: "Chalmers"}
	ghost := models.User{Name: "Anna Guest", Username: "guest-anna", Email: "g@guest.invalid", PasswordHash: "x", IsTemporary: true}
	for _, u := range []*models.User{&anna, &ben, &ghost} {
		require.NoError(t, f.db.Create(u).Error)
	}

	_, err := f.connections.Request(ctx, viewer.ID, anna.ID)
	require.NoError(t, err)

	page, err := f.users.Search(ctx, viewer.ID, "anna", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, anna.ID, page.Items[0].User.ID)
	assert.Equal(t, models.StatusPending, page.Items[0].Relation.Status)
	assert.True(t, page.Items[0].Relation.Outgoing)

	page, err = f.users.Search(ctx, viewer.ID, "computer", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, anna.ID, page.Items[0].User.ID)

	// Underscore is a literal, not a wildcard.
	page, err = f.users.Search(ctx, viewer.ID, "n_e", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	page, err = f.users.Search(ctx, viewer.ID, "", 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.TotalPages())
	assert.Equal(t, ben.ID, page.Items[0].User.ID)
	assert.Equal(t, models.StatusNone, page.Items[0].Relation.Status)

	page, err = f.users.Search(ctx, viewer.ID, "", 2, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, anna.ID, page.Items[0].User.ID)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")

	goSkill, err := f.users.CreateSkill(ctx, "Go")
	require.NoError(t, err)
	sqlSkill, err := f.users.CreateSkill(ctx, "SQL")
	require.NoError(t, err)

	school, year := "  KTH ", 3
	updated, err := f.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{
		School:      &school,
		StudentYear: &year,
		SkillIDs:    []uint{goSkill.ID, sqlSkill.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "KTH", updated.School)
	assert.Equal(t, 3, updated.StudentYear)
	assert.Equal(t, "alice", updated.Name)
	assert.Len(t, updated.Skills, 2)

	// Nil SkillIDs leaves skills alone, an empty slice clears them.
	bio := "hi"
	updated, err = f.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Len(t, updated.Skills, 2)

	updated, err = f.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{SkillIDs: []uint{}})
	require.NoError(t, err)
	assert.Empty(t, updated.Skills)

	empty := " "
	_, err = f.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{Name: &empty})
	assert.True(t, apperr.Is(err, apperr.BadRequest))

	_, err = f.users.UpdateProfile(ctx, 9999, ProfileUpdate{Bio: &bio})
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestSkillVocabulary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")

	py, err := f.users.CreateSkill(ctx, "Python")
	require.NoError(t, err)
	_, err = f.users.CreateSkill(ctx, "Algebra")
	require.NoError(t, err)

	_, err = f.users.CreateSkill(ctx, "Python")
	assert.True(t, apperr.Is(err, apperr.Conflict))
	_, err = f.users.CreateSkill(ctx, "")
	assert.True(t, apperr.Is(err, apperr.BadRequest))

	skills, err := f.users.ListSkills(ctx)
	require.NoError(t, err)
	require.Len(t, skills, 2)
	assert.Equal(t, "Algebra", skills[0].Name)

	renamed, err := f.users.RenameSkill(ctx, py.ID, "Python 3")
	require.NoError(t, err)
	assert.Equal(t, "Python 3", renamed.Name)
	_, err = f.users.RenameSkill(ctx, py.ID, "Algebra")
	assert.True(t, apperr.Is(err, apperr.Conflict))
	_, err = f.users.RenameSkill(ctx, 999, "X")
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = f.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{SkillIDs: []uint{py.ID}})
	require.NoError(t, err)

	require.NoError(t, f.users.DeleteSkill(ctx, py.ID))
	assert.True(t, apperr.Is(f.users.DeleteSkill(ctx, py.ID), apperr.NotFound))

	got, err := f.users.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Skills)

	// The name is free again.
	_, err = f.users.CreateSkill(ctx, "Python 3")
	assert.NoError(t, err)
}
