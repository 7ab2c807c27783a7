package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestFileSinkCommit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.zip")

	sink, err := NewFileSink(path, false)
	require.NoError(t, err)
	_, err = sink.Write([]byte("payload"))
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist, "nothing is visible before commit")

	require.NoError(t, sink.Commit())
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
	assert.Equal(t, []string{"out.zip"}, listDir(t, dir), "staging file is gone")

	_, err = sink.Write([]byte("late"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, sink.Abort())
}

func TestFileSinkAbort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.zip")

	sink, err := NewFileSink(path, false)
	require.NoError(t, err)
	_, err = sink.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, sink.Abort())

	assert.Empty(t, listDir(t, dir))
}

func TestFileSinkRefusesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.zip")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	_, err := NewFileSink(path, false)
	assert.ErrorIs(t, err, ErrExists)

	sink, err := NewFileSink(path, true)
	require.NoError(t, err)
	_, err = sink.Write([]byte("new"))
	require.NoError(t, err)
	require.NoError(t, sink.Commit())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestFileSinkRefusesDestinationCreatedDuringRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.zip")

	sink, err := NewFileSink(path, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("racer"), 0o644))

	assert.ErrorIs(t, sink.Commit(), ErrExists)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "racer", string(got))
	assert.Equal(t, []string{"out.zip"}, listDir(t, dir))
}

func TestOpenDryRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.zip")

	sink, err := Open(path, true, false)
	require.NoError(t, err)
	n, err := sink.Write(make([]byte, 10))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	require.NoError(t, sink.Commit())

	assert.EqualValues(t, 10, sink.(*DiscardSink).Len())
	assert.Empty(t, listDir(t, dir))
}

func TestOpenDryRunRefusesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.zip")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	_, err := Open(path, true, false)
	assert.ErrorIs(t, err, ErrExists, "a dry run fails where the real run would")
	_, err = Open(path, false, false)
	assert.ErrorIs(t, err, ErrExists)

	sink, err := Open(path, true, true)
	require.NoError(t, err)
	assert.IsType(t, &DiscardSink{}, sink)

	sink, err = Open("", true, false)
	require.NoError(t, err, "a dry run needs no destination")
	assert.IsType(t, &DiscardSink{}, sink)
}

// withoutHardLinks makes link behave like a filesystem lacking hard links.
func withoutHardLinks(t *testing.T, err error) {
	t.Helper()
	saved := link
	link = func(oldname, newname string) error {
		return &os.LinkError{Op: "link", Old: oldname, New: newname, Err: err}
	}
	t.Cleanup(func() { link = saved })
}

func TestFileSinkCommitWithoutHardLinks(t *testing.T) {
	for _, cause := range []error{errors.ErrUnsupported, os.ErrPermission} {
		t.Run(fmt.Sprint(cause), func(t *testing.T) {
			withoutHardLinks(t, cause)
			dir := t.TempDir()
			path := filepath.Join(dir, "out.zip")

			sink, err := NewFileSink(path, false)
			require.NoError(t, err)
			_, err = sink.Write([]byte("payload"))
			require.NoError(t, err)
			require.NoError(t, sink.Commit())

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "payload", string(got))
			assert.Equal(t, []string{"out.zip"}, listDir(t, dir))
		})
	}
}

func TestFileSinkCopyFallbackRefusesDestinationCreatedDuringRun(t *testing.T) {
	withoutHardLinks(t, errors.ErrUnsupported)
	dir := t.TempDir()
	path := filepath.Join(dir, "out.zip")

	sink, err := NewFileSink(path, false)
	require.NoError(t, err)
	_, err = sink.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("racer"), 0o644))

	assert.ErrorIs(t, sink.Commit(), ErrExists)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "racer", string(got))
	assert.Equal(t, []string{"out.zip"}, listDir(t, dir))
}

func TestFileSinkLinkFailureIsReported(t *testing.T) {
	withoutHardLinks(t, errors.New("disk on fire"))
	dir := t.TempDir()
	path := filepath.Join(dir, "out.zip")

	sink, err := NewFileSink(path, false)
	require.NoError(t, err)
	err = sink.Commit()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrExists)
	assert.Empty(t, listDir(t, dir))
}
