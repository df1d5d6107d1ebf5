package tools

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelworks/skybridge/registry"
)

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

var testPolicies = []Policy{
	{Category: "flights", Title: "Booking class", Body: "Economy class must be booked for flights under six hours."},
	{Category: "flights", Title: "Advance booking", Body: "Flights should be booked at least fourteen days in advance."},
	{Category: "hotels", Title: "Nightly rate caps", Body: "Standard nightly rate is capped at 250 USD in major cities."},
	{Category: "meals", Title: "Daily meal allowance", Body: "Meal expenses are reimbursed up to 75 USD per day."},
}

func seedPolicyDB(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "policies.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE policies (
		id INTEGER PRIMARY KEY,
		category TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL
	)`)
	require.NoError(t, err)

	for _, p := range testPolicies {
		_, err = db.Exec(`INSERT INTO policies (category, title, body) VALUES (?, ?, ?)`,
			p.Category, p.Title, p.Body)
		require.NoError(t, err)
	}
	return path
}

func openSeededStore(t *testing.T) *PolicyStore {
	t.Helper()

	store, err := OpenPolicyStore(seedPolicyDB(t), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenPolicyStoreRejectsUnseededDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")

	_, err := OpenPolicyStore(path, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no policies table")
}

func TestSearchMatchesTitleBodyAndCategory(t *testing.T) {
	store := openSeededStore(t)

	byBody, err := store.Search(context.Background(), "booked", 10)
	require.NoError(t, err)
	require.Len(t, byBody, 2)
	assert.Equal(t, "Booking class", byBody[0].Title, "results keep seed order")
	assert.Equal(t, "Advance booking", byBody[1].Title)

	byCategory, err := store.Search(context.Background(), "hotel", 10)
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Nightly rate caps", byCategory[0].Title)

	byTitle, err := store.Search(context.Background(), "allowance", 10)
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, "meals", byTitle[0].Category)
}

func TestSearchHonorsLimit(t *testing.T) {
	store := openSeededStore(t)

	policies, err := store.Search(context.Background(), "booked", 1)
	require.NoError(t, err)
	assert.Len(t, policies, 1)
}

func TestExecuteFormatsSections(t *testing.T) {
	store := openSeededStore(t)

	reg := registry.New()
	require.NoError(t, store.Register(reg))

	tools := reg.List()
	require.Len(t, tools, 1)
	assert.Equal(t, "search_travel_policy", tools[0].Name)

	exec, ok := reg.Lookup("search_travel_policy")
	require.True(t, ok)

	out, err := exec(context.Background(), map[string]interface{}{"query": "booked"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "[flights] Booking class\n"), "got %q", out)
	assert.Contains(t, out, "Economy class must be booked")
	assert.Contains(t, out, "[flights] Advance booking")
	assert.Equal(t, 1, strings.Count(out, "\n---\n"))
}

func TestExecuteHonorsLimitArgument(t *testing.T) {
	store := openSeededStore(t)

	out, err := store.execute(context.Background(), map[string]interface{}{
		"query": "booked",
		"limit": float64(1),
	})
	require.NoError(t, err)
	assert.NotContains(t, out, "\n---\n")
	assert.Contains(t, out, "Booking class")
}

func TestExecuteNoMatches(t *testing.T) {
	store := openSeededStore(t)

	out, err := store.execute(context.Background(), map[string]interface{}{"query": "submarines"})
	require.NoError(t, err)
	assert.Equal(t, "No matching policy sections found.", out)
}

func TestExecuteRequiresQuery(t *testing.T) {
	store := openSeededStore(t)

	_, err := store.execute(context.Background(), map[string]interface{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query parameter is required")

	_, err = store.execute(context.Background(), map[string]interface{}{"query": "   "})
	require.Error(t, err)
}
