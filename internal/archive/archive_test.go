package archive

import (
	"path/filepath"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func openTemp(t *testing.T) (Archive, string) {
	path := filepath.Join(t.TempDir(), "archive.db")
	a, err := Open(path)
	require_.NoError(t, err)
	return a, path
}

func TestArchive(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)
	a, path := openTemp(t)

	record, err := a.Get("aaaaaaaaaaa", "video")
	assert.NoError(err)
	assert.Nil(record)

	savedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(a.Put(&Record{ItemID: "aaaaaaaaaaa", Part: "video", Title: "First", StreamID: "137", Path: "First.mp4", RunID: "run-1", SavedAt: savedAt}))
	require.NoError(a.Put(&Record{ItemID: "aaaaaaaaaaa", Part: "audio", Title: "First", StreamID: "140", RunID: "run-1", SavedAt: savedAt}))
	require.NoError(a.Put(&Record{ItemID: "bbbbbbbbbbb", Part: "video", Title: "Second", RunID: "run-1", SavedAt: savedAt}))

	record, err = a.Get("aaaaaaaaaaa", "video")
	require.NoError(err)
	require.NotNil(record)
	assert.Equal("137", record.StreamID)
	assert.True(savedAt.Equal(record.SavedAt))

	records, err := a.List()
	assert.NoError(err)
	assert.Len(records, 3)

	assert.NoError(a.Delete("aaaaaaaaaaa", "audio"))
	assert.NoError(a.Delete("aaaaaaaaaaa", "audio"))
	record, err = a.Get("aaaaaaaaaaa", "audio")
	assert.NoError(err)
	assert.Nil(record)

	// Records survive reopening
	require.NoError(a.Close())
	a, err = Open(path)
	require.NoError(err)
	defer a.Close()
	records, err = a.List()
	assert.NoError(err)
	assert.Len(records, 2)
}

func TestArchive_PutInvalid(t *testing.T) {
	assert := assert_.New(t)
	a, _ := openTemp(t)
	defer a.Close()

	assert.ErrorIs(a.Put(&Record{Part: "video"}), ErrInvalidRecord)
	assert.ErrorIs(a.Put(&Record{ItemID: "x"}), ErrInvalidRecord)
	assert.ErrorIs(a.Put(&Record{ItemID: "a/b", Part: "video"}), ErrInvalidRecord)
}

func TestArchive_FutureVersion(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)
	path := filepath.Join(t.TempDir(), "archive.db")

	db, err := bbolt.Open(path, 0600, nil)
	require.NoError(err)
	require.NoError(db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(Buckets.Metadata)
		if err != nil {
			return err
		}
		return b.Put(MetadataKeys.Version, []byte("99"))
	}))
	require.NoError(db.Close())

	_, err = Open(path)
	assert.ErrorIs(err, ErrUnsupportedVersion)
}

func TestNil(t *testing.T) {
	assert := assert_.New(t)
	var a Archive = Nil{}
	assert.NoError(a.Put(&Record{ItemID: "x", Part: "video"}))
	record, err := a.Get("x", "video")
	assert.NoError(err)
	assert.Nil(record)
	records, err := a.List()
	assert.NoError(err)
	assert.Empty(records)
	assert.NoError(a.Close())
}

func TestForget(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)
	a, _ := openTemp(t)
	defer a.Close()

	for _, part := range []string{"video", "audio", "metadata"} {
		require.NoError(a.Put(&Record{ItemID: "aaaaaaaaaaa", Part: part, RunID: "run-1"}))
	}
	require.NoError(a.Put(&Record{ItemID: "bbbbbbbbbbb", Part: "video", RunID: "run-1"}))

	deleted, err := Forget(a, "aaaaaaaaaaa")
	assert.NoError(err)
	assert.Equal(3, deleted)

	records, err := a.List()
	assert.NoError(err)
	require.Len(records, 1)
	assert.Equal("bbbbbbbbbbb", records[0].ItemID)

	deleted, err = Forget(a, "aaaaaaaaaaa")
	assert.NoError(err)
	assert.Equal(0, deleted)

	deleted, err = Forget(Nil{}, "aaaaaaaaaaa")
	assert.NoError(err)
	assert.Equal(0, deleted)
}
