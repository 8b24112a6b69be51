package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachTag(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.login(t, "alice@example.com")
	txn := ts.createTxn(t, authz, "lunch", "-12", "2018-01-02")

	resp := ts.api.Post("/api/transaction-items/"+txn.ID+"/tags", authz, map[string]any{"name": " Food "})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decodeEnvelope[TagResponse](t, resp)
	assert.Equal(t, "Tag successfully saved", env.Message)
	assert.Equal(t, "Food", env.Data.Name)
	assert.Equal(t, txn.ID, env.Data.TransactionID)
	assert.NotEmpty(t, env.Data.ID)
}

func TestAttachTag_ReusesTagIgnoringCase(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.login(t, "alice@example.com")
	a := ts.createTxn(t, authz, "groceries", "-20", "2018-01-01")
	b := ts.createTxn(t, authz, "lunch", "-12", "2018-01-02")

	first := ts.attachTag(t, authz, a.ID, "food")
	second := ts.attachTag(t, authz, b.ID, "FOOD")

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "food", second.Name, "the first spelling is kept")
}

func TestAttachTag_Failures(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.login(t, "alice@example.com")
	txn := ts.createTxn(t, authz, "lunch", "-12", "2018-01-02")
	ts.attachTag(t, authz, txn.ID, "food")

	t.Run("already attached", func(t *testing.T) {
		resp := ts.api.Post("/api/transaction-items/"+txn.ID+"/tags", authz, map[string]any{"name": "Food"})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "Transaction already has tag", decodeEnvelope[any](t, resp).Message)
	})

	t.Run("blank name", func(t *testing.T) {
		resp := ts.api.Post("/api/transaction-items/"+txn.ID+"/tags", authz, map[string]any{"name": "   "})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "Could not create tag", decodeEnvelope[any](t, resp).Message)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		resp := ts.api.Post("/api/transaction-items/txn-missing/tags", authz, map[string]any{"name": "travel"})
		assert.Equal(t, http.StatusBadRequest, resp.Code)

		tags := decodeEnvelope[[]TagResponse](t, ts.api.Get("/api/tags", authz)).Data
		require.Len(t, tags, 1, "the failed attach creates no tag")
	})
}

func TestListTags_OrderedAndScoped(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.login(t, "alice@example.com")
	bob := ts.login(t, "bob@example.com")
	txn := ts.createTxn(t, alice, "trip", "-300", "2018-03-01")
	ts.attachTag(t, alice, txn.ID, "travel")
	ts.attachTag(t, alice, txn.ID, "Fuel")
	ts.attachTag(t, alice, txn.ID, "hotel")

	resp := ts.api.Get("/api/tags", alice)
	require.Equal(t, http.StatusOK, resp.Code)

	tags := decodeEnvelope[[]TagResponse](t, resp).Data
	require.Len(t, tags, 3)
	assert.Equal(t, []string{"Fuel", "hotel", "travel"}, []string{tags[0].Name, tags[1].Name, tags[2].Name})

	assert.Empty(t, decodeEnvelope[[]TagResponse](t, ts.api.Get("/api/tags", bob)).Data)
}

func TestUpdateTag_RenameInPlace(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.login(t, "alice@example.com")
	txn := ts.createTxn(t, authz, "lunch", "-12", "2018-01-02")
	tag := ts.attachTag(t, authz, txn.ID, "fod")

	resp := ts.api.Post("/api/transaction-items/"+txn.ID+"/tags/update", authz, map[string]any{
		"id":   tag.ID,
		"name": "food",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decodeEnvelope[TagResponse](t, resp)
	assert.Equal(t, "Tag successfully updated for transaction", env.Message)
	assert.Equal(t, tag.ID, env.Data.ID)
	assert.Equal(t, "food", env.Data.Name)
	assert.Equal(t, txn.ID, env.Data.TransactionID)
}

func TestUpdateTag_ForksSharedTag(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.login(t, "alice@example.com")
	a := ts.createTxn(t, authz, "groceries", "-20", "2018-01-01")
	b := ts.createTxn(t, authz, "dinner", "-30", "2018-01-02")
	shared := ts.attachTag(t, authz, a.ID, "food")
	ts.attachTag(t, authz, b.ID, "food")

	resp := ts.api.Post("/api/transaction-items/"+b.ID+"/tags/update", authz, map[string]any{
		"current_name": "FOOD",
		"name":         "eating out",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	forked := decodeEnvelope[TagResponse](t, resp).Data
	assert.NotEqual(t, shared.ID, forked.ID)
	assert.Equal(t, "eating out", forked.Name)

	names := []string{}
	for _, tag := range decodeEnvelope[[]TagResponse](t, ts.api.Get("/api/tags", authz)).Data {
		names = append(names, tag.Name)
	}
	assert.Equal(t, []string{"eating out", "food"}, names)
}

func TestUpdateTag_MissingTag(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.login(t, "alice@example.com")
	txn := ts.createTxn(t, authz, "lunch", "-12", "2018-01-02")

	resp := ts.api.Post("/api/transaction-items/"+txn.ID+"/tags/update", authz, map[string]any{
		"id":   "tag-missing",
		"name": "food",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Could not find tag to update", decodeEnvelope[any](t, resp).Message)
}

func TestDetachTag(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.login(t, "alice@example.com")
	txn := ts.createTxn(t, authz, "lunch", "-12", "2018-01-02")
	tag := ts.attachTag(t, authz, txn.ID, "food")

	resp := ts.api.Post("/api/transaction-items/"+txn.ID+"/tags/delete", authz, map[string]any{"name": "FOOD"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decodeEnvelope[TagResponse](t, resp)
	assert.Equal(t, "Tag successfully deleted from transaction", env.Message)
	assert.Equal(t, tag.ID, env.Data.ID)
	assert.Equal(t, txn.ID, env.Data.TransactionID)

	assert.Empty(t, decodeEnvelope[[]TagResponse](t, ts.api.Get("/api/tags", authz)).Data,
		"a tag left without transactions is deleted")

	again := ts.api.Post("/api/transaction-items/"+txn.ID+"/tags/delete", authz, map[string]any{"name": "food"})
	assert.Equal(t, http.StatusBadRequest, again.Code)
}
