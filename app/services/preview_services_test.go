package services_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/fashioncraft/app/models"
	"github.com/shashiranjanraj/fashioncraft/app/repositories"
	"github.com/shashiranjanraj/fashioncraft/app/services"
	"github.com/shashiranjanraj/fashioncraft/pkg/apperr"
)

type memDisk struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemDisk() *memDisk { return &memDisk{objects: map[string][]byte{}} }

func (d *memDisk) Put(_ context.Context, key string, data []byte, _ string) error {
	if d.putErr != nil {
		return d.putErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.objects[key] = data
	return nil
}

func (d *memDisk) Get(_ context.Context, key string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.objects[key], nil
}

func (d *memDisk) Delete(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.objects, key)
	return nil
}

func (d *memDisk) URL(key string) string { return "https://cdn.test/" + key }

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

func TestPreviewUpload(t *testing.T) {
	store := repositories.NewMemoryStore()
	disk := newMemDisk()
	orders := services.NewOrderService(store.Orders(), "")
	previews := services.NewPreviewService(store.Orders(), disk, 0)
	ctx := context.Background()

	o, err := orders.Create(ctx, "u1", models.OrderInput{Client: models.Client{Name: "Ana"}})
	require.NoError(t, err)

	updated, err := previews.Upload(ctx, "u1", o.ID, pngBytes)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(updated.Garment.PreviewReference, "https://cdn.test/previews/u1/"+o.ID+"-"))
	assert.True(t, strings.HasSuffix(updated.Garment.PreviewReference, ".png"))
	assert.Len(t, disk.objects, 1)
	assert.Equal(t, "Ana", updated.Client.Name)
}

func TestPreviewUpload_Rejections(t *testing.T) {
	store := repositories.NewMemoryStore()
	disk := newMemDisk()
	previews := services.NewPreviewService(store.Orders(), disk, 64)
	orders := services.NewOrderService(store.Orders(), "")
	ctx := context.Background()

	o, err := orders.Create(ctx, "u1", models.OrderInput{})
	require.NoError(t, err)

	_, err = previews.Upload(ctx, "u1", o.ID, nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = previews.Upload(ctx, "u1", o.ID, []byte("just some text, not an image"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = previews.Upload(ctx, "u1", o.ID, append(pngBytes, bytes.Repeat([]byte{0}, 64)...))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = previews.Upload(ctx, "u2", o.ID, pngBytes)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.Empty(t, disk.objects)
}

func TestPreviewUpload_DiskFailure(t *testing.T) {
	store := repositories.NewMemoryStore()
	disk := newMemDisk()
	disk.putErr = errors.New("bucket unreachable")
	orders := services.NewOrderService(store.Orders(), "")
	previews := services.NewPreviewService(store.Orders(), disk, 0)
	ctx := context.Background()

	o, err := orders.Create(ctx, "u1", models.OrderInput{})
	require.NoError(t, err)

	_, err = previews.Upload(ctx, "u1", o.ID, pngBytes)
	assert.ErrorIs(t, err, apperr.ErrStore)

	still, err := orders.Get(ctx, "u1", o.ID)
	require.NoError(t, err)
	assert.Empty(t, still.Garment.PreviewReference)
}
