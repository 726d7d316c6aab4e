package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestRecordRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	in := sample{Name: "alice", Count: 3}
	require.NoError(t, s.WriteRecord("user 1", in))

	var out sample
	require.NoError(t, s.ReadRecord("user 1", &out))
	assert.Equal(t, in, out)

	ids, err := s.ListIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"user_1"}, ids)

	require.NoError(t, s.DeleteRecord("user 1"))
	_, err = os.Stat(filepath.Join(dir, "user_1.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestSnapshotRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	in := map[string]sample{"bob": {Name: "bob", Count: 1}}
	require.NoError(t, s.WriteSnapshot("budgets.json", in))

	out := map[string]sample{}
	require.NoError(t, s.ReadSnapshot("budgets.json", &out))
	assert.Equal(t, in, out)
}

func TestReadSnapshotMissingIsNotExist(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	var out map[string]sample
	err = s.ReadSnapshot("absent.json", &out)
	assert.True(t, os.IsNotExist(err))
}

func TestAppendJSONLineAppendsEachCall(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, s.AppendJSONLine("feed.jsonl", sample{Name: "a", Count: 1}))
	require.NoError(t, s.AppendJSONLine("feed.jsonl", sample{Name: "b", Count: 2}))

	data, err := os.ReadFile(filepath.Join(dir, "feed.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, 2, len(splitLines(string(data))))
}

func splitLines(s string) []string {
	var lines []string
	cur := ""
	for _, r := range s {
		if r == '\n' {
			if cur != "" {
				lines = append(lines, cur)
			}
			cur = ""
			continue
		}
		cur += string(r)
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}
