package services

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"

	"designhub_backend/internal/testutil"
	"designhub_backend/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func TestStore_DetectsTypeFromContent(t *testing.T) {
	env := newTestEnv(t, nil)
	uploads := NewUploadService(env.store, nil)
	content := pngBytes(t)

	stored, err := uploads.Store(env.ctx, ModuleAttachments, env.client.ID,
		testutil.FileHeader(t, "moodboard", "application/octet-stream", content))
	require.NoError(t, err)
	assert.Equal(t, "image/png", stored.ContentType)

	// после определения типа файл сохраняется целиком
	obj, err := env.store.Open(env.ctx, stored.Key)
	require.NoError(t, err)
	defer obj.Body.Close()
	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestStore_RejectsDisguisedAttachment(t *testing.T) {
	env := newTestEnv(t, nil)
	uploads := NewUploadService(env.store, nil)

	html := []byte("<!DOCTYPE html><html><script>alert(document.cookie)</script></html>")
	_, err := uploads.Store(env.ctx, ModuleAttachments, env.client.ID,
		testutil.FileHeader(t, "cat.png", "image/png", html))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestStore_FallsBackToDeclaredType(t *testing.T) {
	env := newTestEnv(t, nil)
	uploads := NewUploadService(env.store, nil)

	stored, err := uploads.Store(env.ctx, ModuleDeliverables, "order-1",
		testutil.FileHeader(t, "brand.ai", "application/postscript", []byte("plain bytes")))
	require.NoError(t, err)
	assert.Equal(t, "application/postscript", stored.ContentType)

	stored, err = uploads.Store(env.ctx, ModuleDeliverables, "order-1",
		testutil.FileHeader(t, "notes.pdf", "application/octet-stream", []byte("short")))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", stored.ContentType, "extension is the last resort")
}

func TestBuildStorageKey(t *testing.T) {
	first := buildStorageKey(ModuleDeliverables, "order-1", "Final Logo.PNG")
	second := buildStorageKey(ModuleDeliverables, "order-1", "Final Logo.PNG")
	assert.NotEqual(t, first, second)

	for _, key := range []string{first, second} {
		require.True(t, strings.HasPrefix(key, "deliverables/order-1/"), key)
		require.True(t, strings.HasSuffix(key, ".png"), key)
		name := strings.TrimSuffix(strings.TrimPrefix(key, "deliverables/order-1/"), ".png")
		_, err := uuid.Parse(name)
		assert.NoError(t, err, key)
	}
}
