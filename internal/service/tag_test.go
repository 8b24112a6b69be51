package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yabaapp/yaba-server/internal/domain"
	domainerrors "github.com/yabaapp/yaba-server/internal/errors"
)

func TestFindOrCreateTag_CaseInsensitiveIdentity(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	u := env.user(t, "a@example.com")

	first, err := env.tags.FindOrCreateTag(ctx, u.ID, "Groceries")
	require.NoError(t, err)

	again, err := env.tags.FindOrCreateTag(ctx, u.ID, "groceries")
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Groceries", again.Name)

	tags, err := env.tags.ListTags(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestFindOrCreateTag_EmptyNameReturnsUnsavedTag(t *testing.T) {
	env := setupServices(t)
	u := env.user(t, "a@example.com")

	tag, err := env.tags.FindOrCreateTag(context.Background(), u.ID, "   ")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	require.NotNil(t, tag)
	assert.False(t, tag.IsPersisted())

	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Details, "name")
}

func TestFindOrCreateTag_ScopedPerOwner(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.user(t, "alice@example.com")
	bob := env.user(t, "bob@example.com")

	a, err := env.tags.FindOrCreateTag(ctx, alice.ID, "food")
	require.NoError(t, err)
	b, err := env.tags.FindOrCreateTag(ctx, bob.ID, "food")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)

	_, err = env.tags.FindTag(ctx, bob.ID, domain.TagIdentity{ID: a.ID})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestFindTag(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	u := env.user(t, "a@example.com")
	food, err := env.tags.FindOrCreateTag(ctx, u.ID, "Food")
	require.NoError(t, err)
	rent, err := env.tags.FindOrCreateTag(ctx, u.ID, "rent")
	require.NoError(t, err)

	got, err := env.tags.FindTag(ctx, u.ID, domain.TagIdentity{Name: "FOOD"})
	require.NoError(t, err)
	assert.Equal(t, food.ID, got.ID)

	got, err = env.tags.FindTag(ctx, u.ID, domain.TagIdentity{ID: rent.ID, Name: "food"})
	require.NoError(t, err)
	assert.Equal(t, rent.ID, got.ID, "ID wins over name")

	_, err = env.tags.FindTag(ctx, u.ID, domain.TagIdentity{})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestAttachTag_Idempotent(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	u := env.user(t, "a@example.com")
	txn := env.txn(t, u.ID, "lunch", "-12", "2018-01-04")
	tag, err := env.tags.FindOrCreateTag(ctx, u.ID, "food")
	require.NoError(t, err)

	first, attached, err := env.tags.AttachTag(ctx, u.ID, tag, txn.ID)
	require.NoError(t, err)
	assert.True(t, attached)

	second, attached, err := env.tags.AttachTag(ctx, u.ID, tag, txn.ID)
	require.NoError(t, err)
	assert.True(t, attached)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, env.linkCount(t, tag.ID))
}

func TestAttachTag_FailsSoft(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	u := env.user(t, "a@example.com")
	txn := env.txn(t, u.ID, "lunch", "-12", "2018-01-04")
	tag, err := env.tags.FindOrCreateTag(ctx, u.ID, "food")
	require.NoError(t, err)

	t.Run("unknown transaction", func(t *testing.T) {
		got, attached, err := env.tags.AttachTag(ctx, u.ID, tag, "txn-missing")
		require.NoError(t, err)
		assert.False(t, attached)
		assert.Equal(t, tag, got)
	})

	t.Run("unsaved tag", func(t *testing.T) {
		unsaved := &domain.Tag{UserID: u.ID, Name: ""}
		got, attached, err := env.tags.AttachTag(ctx, u.ID, unsaved, txn.ID)
		require.NoError(t, err)
		assert.False(t, attached)
		assert.Same(t, unsaved, got)
	})

	t.Run("another owner's transaction", func(t *testing.T) {
		other := env.user(t, "b@example.com")
		theirs := env.txn(t, other.ID, "rent", "-900", "2018-01-01")
		_, attached, err := env.tags.AttachTag(ctx, u.ID, tag, theirs.ID)
		require.NoError(t, err)
		assert.False(t, attached)
	})

	assert.Equal(t, 0, env.linkCount(t, tag.ID))
}

func TestDetachTag_DeletesOnLastLink(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	u := env.user(t, "a@example.com")
	t1 := env.txn(t, u.ID, "t1", "-1", "2018-01-01")
	t2 := env.txn(t, u.ID, "t2", "-1", "2018-01-02")
	t3 := env.txn(t, u.ID, "t3", "-1", "2018-01-03")

	solo := env.tag(t, u.ID, t1.ID, "solo")
	shared := env.tag(t, u.ID, t2.ID, "shared")
	env.tag(t, u.ID, t3.ID, "shared")

	_, deleted, err := env.tags.DetachTag(ctx, u.ID, solo, t1.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, env.tagExists(t, u.ID, solo.ID))

	_, deleted, err = env.tags.DetachTag(ctx, u.ID, shared, t2.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.True(t, env.tagExists(t, u.ID, shared.ID))
	assert.Equal(t, 1, env.linkCount(t, shared.ID))

	got, err := env.transactions.Get(ctx, u.ID, t3.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"shared"}, got.TagNames())
}

func TestRenameOrMerge_Fork(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	u := env.user(t, "a@example.com")
	t1 := env.txn(t, u.ID, "t1", "-1", "2018-01-01")
	t2 := env.txn(t, u.ID, "t2", "-1", "2018-01-02")
	food := env.tag(t, u.ID, t1.ID, "food")
	env.tag(t, u.ID, t2.ID, "food")

	snacks, outcome, err := env.tags.RenameOrMerge(ctx, u.ID, food, t1.ID, "snacks")
	require.NoError(t, err)
	assert.Equal(t, RenameForked, outcome)
	assert.NotEqual(t, food.ID, snacks.ID)
	assert.Equal(t, "snacks", snacks.Name)

	got1, err := env.transactions.Get(ctx, u.ID, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"snacks"}, got1.TagNames())

	got2, err := env.transactions.Get(ctx, u.ID, t2.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"food"}, got2.TagNames())

	assert.Equal(t, 1, env.linkCount(t, food.ID))
	assert.Equal(t, 1, env.linkCount(t, snacks.ID))
}

func TestRenameOrMerge_Merge(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	u := env.user(t, "a@example.com")
	t1 := env.txn(t, u.ID, "t1", "-1", "2018-01-01")
	t2 := env.txn(t, u.ID, "t2", "-1", "2018-01-02")
	food := env.tag(t, u.ID, t1.ID, "food")
	groceries := env.tag(t, u.ID, t2.ID, "Groceries")

	got, outcome, err := env.tags.RenameOrMerge(ctx, u.ID, food, t1.ID, "groceries")
	require.NoError(t, err)
	assert.Equal(t, RenameMerged, outcome)
	assert.Equal(t, groceries.ID, got.ID)
	assert.Equal(t, "Groceries", got.Name)

	assert.False(t, env.tagExists(t, u.ID, food.ID), "food lost its last link")
	assert.Equal(t, 2, env.linkCount(t, groceries.ID))
}

func TestRenameOrMerge_MergeKeepsSharedSource(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	u := env.user(t, "a@example.com")
	t1 := env.txn(t, u.ID, "t1", "-1", "2018-01-01")
	t2 := env.txn(t, u.ID, "t2", "-1", "2018-01-02")
	t3 := env.txn(t, u.ID, "t3", "-1", "2018-01-03")
	food := env.tag(t, u.ID, t1.ID, "food")
	env.tag(t, u.ID, t2.ID, "food")
	env.tag(t, u.ID, t3.ID, "dining")

	_, outcome, err := env.tags.RenameOrMerge(ctx, u.ID, food, t1.ID, "dining")
	require.NoError(t, err)
	assert.Equal(t, RenameMerged, outcome)
	assert.True(t, env.tagExists(t, u.ID, food.ID))
	assert.Equal(t, 1, env.linkCount(t, food.ID))
}

func TestRenameOrMerge_InPlace(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	u := env.user(t, "a@example.com")
	t1 := env.txn(t, u.ID, "t1", "-1", "2018-01-01")
	food := env.tag(t, u.ID, t1.ID, "food")

	got, outcome, err := env.tags.RenameOrMerge(ctx, u.ID, food, t1.ID, "snacks")
	require.NoError(t, err)
	assert.Equal(t, RenamedInPlace, outcome)
	assert.Equal(t, food.ID, got.ID)
	assert.Equal(t, "snacks", got.Name)

	_, err = env.tags.FindTag(ctx, u.ID, domain.TagIdentity{Name: "food"})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestRenameOrMerge_CaseOnlyChange(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	u := env.user(t, "a@example.com")
	t1 := env.txn(t, u.ID, "t1", "-1", "2018-01-01")
	t2 := env.txn(t, u.ID, "t2", "-1", "2018-01-02")
	food := env.tag(t, u.ID, t1.ID, "food")
	env.tag(t, u.ID, t2.ID, "food")

	got, outcome, err := env.tags.RenameOrMerge(ctx, u.ID, food, t1.ID, "Food")
	require.NoError(t, err)
	assert.Equal(t, RenamedInPlace, outcome)
	assert.Equal(t, food.ID, got.ID)
	assert.Equal(t, "Food", got.Name)
	assert.Equal(t, 2, env.linkCount(t, food.ID))
}

func TestRenameOrMerge_Rejects(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	u := env.user(t, "a@example.com")
	t1 := env.txn(t, u.ID, "t1", "-1", "2018-01-01")
	t2 := env.txn(t, u.ID, "t2", "-1", "2018-01-02")
	food := env.tag(t, u.ID, t1.ID, "food")

	_, _, err := env.tags.RenameOrMerge(ctx, u.ID, food, t1.ID, " ")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, _, err = env.tags.RenameOrMerge(ctx, u.ID, food, "txn-missing", "snacks")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, _, err = env.tags.RenameOrMerge(ctx, u.ID, food, t2.ID, "snacks")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	got, err := env.tags.FindTag(ctx, u.ID, domain.TagIdentity{ID: food.ID})
	require.NoError(t, err)
	assert.Equal(t, "food", got.Name)
}

func TestAddTagToTransaction(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	u := env.user(t, "a@example.com")
	txn := env.txn(t, u.ID, "lunch", "-12", "2018-01-04")

	tag, err := env.tags.AddTagToTransaction(ctx, u.ID, txn.ID, "Food")
	require.NoError(t, err)
	assert.Equal(t, "Food", tag.Name)

	_, err = env.tags.AddTagToTransaction(ctx, u.ID, txn.ID, "food")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Contains(t, err.Error(), "Transaction already has tag")

	_, err = env.tags.AddTagToTransaction(ctx, u.ID, "txn-missing", "food")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not create tag")

	_, err = env.tags.AddTagToTransaction(ctx, u.ID, txn.ID, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not create tag")

	// The failed attach to a missing transaction created nothing.
	tags, err := env.tags.ListTags(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestUpdateTagOnTransaction(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	u := env.user(t, "a@example.com")
	txn := env.txn(t, u.ID, "lunch", "-12", "2018-01-04")
	tag := env.tag(t, u.ID, txn.ID, "food")

	got, outcome, err := env.tags.UpdateTagOnTransaction(ctx, u.ID, txn.ID, domain.TagIdentity{ID: tag.ID}, "meals")
	require.NoError(t, err)
	assert.Equal(t, RenamedInPlace, outcome)
	assert.Equal(t, "meals", got.Name)

	_, _, err = env.tags.UpdateTagOnTransaction(ctx, u.ID, txn.ID, domain.TagIdentity{ID: "tag-missing"}, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not find tag to update")
}

func TestRemoveTagFromTransaction(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	u := env.user(t, "a@example.com")
	t1 := env.txn(t, u.ID, "t1", "-1", "2018-01-01")
	t2 := env.txn(t, u.ID, "t2", "-1", "2018-01-02")
	tag := env.tag(t, u.ID, t1.ID, "food")

	_, _, err := env.tags.RemoveTagFromTransaction(ctx, u.ID, t2.ID, domain.TagIdentity{Name: "food"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not delete tag from transaction")

	got, deleted, err := env.tags.RemoveTagFromTransaction(ctx, u.ID, t1.ID, domain.TagIdentity{Name: "FOOD"})
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, tag.ID, got.ID)
	assert.False(t, env.tagExists(t, u.ID, tag.ID))
}

func TestRenameOutcomeString(t *testing.T) {
	assert.Equal(t, "renamed", RenamedInPlace.String())
	assert.Equal(t, "merged", RenameMerged.String())
	assert.Equal(t, "forked", RenameForked.String())
}
