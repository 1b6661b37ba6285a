package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
)

type fakeSettledStore struct {
	positions []domain.Position
	listErr   error
	deleteErr error
	deleted   int
}

func (f *fakeSettledStore) ListBefore(_ context.Context, _ time.Time) ([]domain.Position, error) {
	return f.positions, f.listErr
}

func (f *fakeSettledStore) DeleteBefore(_ context.Context, _ time.Time) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	f.deleted++
	return int64(len(f.positions)), nil
}

type fakeBlobWriter struct {
	key         string
	contentType string
	body        []byte
	err         error
	puts        int
}

func (f *fakeBlobWriter) Put(_ context.Context, key string, body io.Reader, contentType string) error {
	f.puts++
	f.key = key
	f.contentType = contentType
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.body = data
	return f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func settledFixture() []domain.Position {
	return []domain.Position{
		{ID: "0xabc:BTC", Asset: "BTC", Direction: domain.DirectionUp, Status: domain.PositionStatusSettled},
		{ID: "0xabc:ETH", Asset: "ETH", Direction: domain.DirectionDown, Status: domain.PositionStatusSettled},
	}
}

func TestArchiveSettledWritesJSONLines(t *testing.T) {
	store := &fakeSettledStore{positions: settledFixture()}
	writer := &fakeBlobWriter{}
	a := NewArchiver(store, writer, true, discardLogger())

	cutoff := time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC)
	n, err := a.ArchiveSettled(context.Background(), cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	assert.Equal(t, "archive/settled/2026-08-01T12-30-00.jsonl", writer.key)
	assert.Equal(t, "application/x-ndjson", writer.contentType)
	assert.Equal(t, 1, store.deleted)

	// One JSON object per line, decodable back to a position.
	lines := bytes.Split(bytes.TrimSpace(writer.body), []byte("\n"))
	require.Len(t, lines, 2)
	var p domain.Position
	require.NoError(t, json.Unmarshal(lines[0], &p))
	assert.Equal(t, "0xabc:BTC", p.ID)
}

func TestArchiveSettledNothingToDo(t *testing.T) {
	writer := &fakeBlobWriter{}
	a := NewArchiver(&fakeSettledStore{}, writer, true, discardLogger())

	n, err := a.ArchiveSettled(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, writer.puts, "an empty run uploads no object")
}

func TestArchiveSettledWithoutPrune(t *testing.T) {
	store := &fakeSettledStore{positions: settledFixture()}
	a := NewArchiver(store, &fakeBlobWriter{}, false, discardLogger())

	_, err := a.ArchiveSettled(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, store.deleted)
}

func TestArchiveSettledUploadFailure(t *testing.T) {
	store := &fakeSettledStore{positions: settledFixture()}
	a := NewArchiver(store, &fakeBlobWriter{err: errors.New("bucket gone")}, true, discardLogger())

	_, err := a.ArchiveSettled(context.Background(), time.Now())
	require.Error(t, err)
	assert.Zero(t, store.deleted, "a failed upload must not prune the store")
}

func TestArchiveSettledPruneFailureStillReportsCount(t *testing.T) {
	store := &fakeSettledStore{positions: settledFixture(), deleteErr: errors.New("pg down")}
	a := NewArchiver(store, &fakeBlobWriter{}, true, discardLogger())

	n, err := a.ArchiveSettled(context.Background(), time.Now())
	require.Error(t, err, "the caller should know pruning failed")
	assert.EqualValues(t, 2, n, "the upload itself succeeded")
}
