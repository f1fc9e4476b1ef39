package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func openTestStore(t *testing.T, profile string) *Store {
	t.Helper()
	s, err := Open(":memory:", profile)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t, "")

	in := testDoc{Name: "addition", Count: 8}
	require.NoError(t, s.Put("doc", in))

	var out testDoc
	found, err := s.Get("doc", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
}

func TestGetAbsentKey(t *testing.T) {
	s := openTestStore(t, "")

	var out testDoc
	found, err := s.Get("missing", &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, testDoc{}, out)
}

func TestPutOverwrites(t *testing.T) {
	s := openTestStore(t, "")

	require.NoError(t, s.Put("doc", testDoc{Name: "first", Count: 1}))
	require.NoError(t, s.Put("doc", testDoc{Name: "second", Count: 2}))

	var out testDoc
	found, err := s.Get("doc", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "second", out.Name)
}

func TestMalformedValueReadsAsAbsent(t *testing.T) {
	s := openTestStore(t, "")

	_, err := s.DB().Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)`,
		"broken", []byte("{not json"), time.Now().UTC(),
	)
	require.NoError(t, err)

	var out testDoc
	found, err := s.Get("broken", &out)
	require.NoError(t, err)
	assert.False(t, found, "malformed rows must degrade to the default-value case")
}

func TestProfileNamespacing(t *testing.T) {
	s, err := Open(":memory:", "")
	require.NoError(t, err)
	defer s.Close()

	dev := &Store{db: s.db, profile: "dev"}

	require.NoError(t, s.Put("streak", testDoc{Name: "real", Count: 5}))
	require.NoError(t, dev.Put("streak", testDoc{Name: "dev", Count: 99}))

	var out testDoc
	found, err := s.Get("streak", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "real", out.Name)

	found, err = dev.Get("streak", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "dev", out.Name)
}

func TestDeleteAllRespectsProfile(t *testing.T) {
	s, err := Open(":memory:", "")
	require.NoError(t, err)
	defer s.Close()

	dev := &Store{db: s.db, profile: "dev"}

	require.NoError(t, s.Put("streak", testDoc{Name: "real"}))
	require.NoError(t, dev.Put("streak", testDoc{Name: "dev"}))

	require.NoError(t, dev.DeleteAll())

	var out testDoc
	found, err := dev.Get("streak", &out)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = s.Get("streak", &out)
	require.NoError(t, err)
	assert.True(t, found, "un-namespaced data must survive a dev-profile reset")
}

func TestDefaultProfileDeleteAllSparesNamespaced(t *testing.T) {
	s, err := Open(":memory:", "")
	require.NoError(t, err)
	defer s.Close()

	dev := &Store{db: s.db, profile: "dev"}

	require.NoError(t, s.Put("streak", testDoc{Name: "real"}))
	require.NoError(t, dev.Put("streak", testDoc{Name: "dev"}))

	require.NoError(t, s.DeleteAll())

	var out testDoc
	found, err := s.Get("streak", &out)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = dev.Get("streak", &out)
	require.NoError(t, err)
	assert.True(t, found, "dev-profile data must survive a default-profile reset")
}

func TestDeleteAbsentKeyIsNoop(t *testing.T) {
	s := openTestStore(t, "")
	assert.NoError(t, s.Delete("nothing"))
}
