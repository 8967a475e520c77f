package gcs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/phrazzld/loopmind-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryWriter struct {
	buf      bytes.Buffer
	closed   bool
	closeErr error
}

func (w *memoryWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *memoryWriter) Close() error {
	w.closed = true
	return w.closeErr
}

type recordedOpen struct {
	bucket, key, contentType string
	writer                   *memoryWriter
}

func recordingOpener(closeErr error) (objectWriter, *[]recordedOpen) {
	var opens []recordedOpen
	return func(_ context.Context, bucket, key, contentType string) io.WriteCloser {
		w := &memoryWriter{closeErr: closeErr}
		opens = append(opens, recordedOpen{bucket: bucket, key: key, contentType: contentType, writer: w})
		return w
	}, &opens
}

func TestBlobStore_Put(t *testing.T) {
	t.Parallel()

	open, opens := recordingOpener(nil)
	store := newBlobStore("cards", open, nil)

	locator, err := store.Put(context.Background(), "users/a/b/c.png", []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "gs://cards/users/a/b/c.png", locator)

	require.Len(t, *opens, 1)
	got := (*opens)[0]
	assert.Equal(t, "cards", got.bucket)
	assert.Equal(t, "users/a/b/c.png", got.key)
	assert.Equal(t, "image/png", got.contentType)
	assert.Equal(t, "png-bytes", got.writer.buf.String())
	assert.True(t, got.writer.closed)
}

func TestBlobStore_PutEmpty(t *testing.T) {
	t.Parallel()

	open, opens := recordingOpener(nil)
	store := newBlobStore("cards", open, nil)

	_, err := store.Put(context.Background(), "k", nil, "image/png")
	assert.ErrorIs(t, err, ErrEmptyObject)
	assert.Empty(t, *opens)
}

func TestBlobStore_PutCloseError(t *testing.T) {
	t.Parallel()

	closeErr := errors.New("upload rejected")
	open, _ := recordingOpener(closeErr)
	store := newBlobStore("cards", open, nil)

	_, err := store.Put(context.Background(), "k", []byte("x"), "image/png")
	require.Error(t, err)
	assert.ErrorIs(t, err, closeErr)
}

func TestNewBlobStore_RequiresBucket(t *testing.T) {
	t.Parallel()

	_, err := NewBlobStore(context.Background(), config.RenderConfig{}, nil)
	assert.Error(t, err)
}

func TestNewBlobStore_Emulator(t *testing.T) {
	t.Parallel()

	store, err := NewBlobStore(context.Background(), config.RenderConfig{
		Bucket:          "cards",
		StorageEndpoint: "http://127.0.0.1:4443/storage/v1/",
	}, nil)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}
