package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(Config{BasePath: t.TempDir(), BaseURL: "/api/v1/files/"})
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "deliverables/o1/logo.png", strings.NewReader("png-bytes"), "image/png"))

	obj, err := s.Open(ctx, "deliverables/o1/logo.png")
	require.NoError(t, err)
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, int64(9), obj.Size)
	assert.Equal(t, "image/png", obj.ContentType)

	url, err := s.GetURL(ctx, "deliverables/o1/logo.png")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/files/deliverables/o1/logo.png", url)

	require.NoError(t, s.Delete(ctx, "deliverables/o1/logo.png"))
	_, err = s.Open(ctx, "deliverables/o1/logo.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(Config{BasePath: t.TempDir()})
	require.NoError(t, err)

	_, err = s.Open(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.ErrorIs(t, s.Save(ctx, "a/../../x", strings.NewReader("x"), ""), ErrObjectNotFound)
}

func TestNewStorage_UnknownType(t *testing.T) {
	_, err := NewStorage(context.Background(), Config{Type: "ftp"})
	assert.Error(t, err)
}
