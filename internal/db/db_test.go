package db

import (
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAppliesSchemaTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "blog.db")

	database, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, database.Close())

	database, err = Open(path)
	require.NoError(t, err)
	defer database.Close()

	for _, table := range []string{"articles", "categories", "tags", "article_tags", "images", "users", "live_articles"} {
		var name string
		err := database.QueryRow(`SELECT name FROM sqlite_master WHERE name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestLiveArticlesHidesDeletedRows(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "blog.db"))
	require.NoError(t, err)
	defer database.Close()

	now := FormatTime(time.Now())
	_, err = database.Exec(`INSERT INTO articles (id, title, created_at, updated_at) VALUES ('a1', 'kept', ?, ?)`, now, now)
	require.NoError(t, err)
	_, err = database.Exec(`INSERT INTO articles (id, title, is_deleted, created_at, updated_at) VALUES ('a2', 'gone', 1, ?, ?)`, now, now)
	require.NoError(t, err)

	var count int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM live_articles`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestTimeLayoutSortsLexically(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	times := []time.Time{
		base.Add(500 * time.Millisecond),
		base,
		base.Add(time.Nanosecond),
		base.Add(-time.Hour),
	}
	formatted := make([]string, len(times))
	for i, ts := range times {
		formatted[i] = FormatTime(ts)
	}
	sort.Strings(formatted)

	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	for i, ts := range times {
		parsed, err := ParseTime(formatted[i])
		require.NoError(t, err)
		assert.True(t, ts.Equal(parsed))
	}
}
