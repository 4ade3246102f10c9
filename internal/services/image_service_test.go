package services_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"stringtracker/internal/models"
	"stringtracker/internal/repositories"
	"stringtracker/internal/services"
	"stringtracker/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pngUpload(data string) services.ImageUpload {
	return services.ImageUpload{Filename: "strat.PNG", ContentType: "image/png", Size: int64(len(data)), Body: bytes.NewReader([]byte(data))}
}

func TestImageService_Attach(t *testing.T) {
	store := newMemoryObjectStore()
	mockRepo := new(MockGuitarRepository)
	service := services.NewImageService(store, mockRepo, 1024)
	ctx := context.Background()

	g := strat()
	g.ImageURL = ptr("/images/guitars/7/old.png")
	mockRepo.On("GetByID", mock.Anything, uint(7)).Return(g, nil).Once()
	mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*models.Guitar"), (*string)(nil)).Return(nil).Once()

	updated, err := service.Attach(ctx, "user-1", 7, pngUpload("png-bytes"))
	require.NoError(t, err)
	require.NotNil(t, updated.ImageURL)
	assert.Regexp(t, `^/images/guitars/7/[0-9a-f-]{36}\.png$`, *updated.ImageURL)
	assert.Equal(t, []string{"guitars/7/old.png"}, store.deleted)
	mockRepo.AssertExpectations(t)

	// The stored object is readable through Open.
	obj, err := service.Open(ctx, (*updated.ImageURL)[len(services.ImagePathPrefix):])
	require.NoError(t, err)
	defer obj.Body.Close()
	data, _ := io.ReadAll(obj.Body)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "image/png", obj.ContentType)
}

func TestImageService_AttachRejections(t *testing.T) {
	mockRepo := new(MockGuitarRepository)
	service := services.NewImageService(newMemoryObjectStore(), mockRepo, 4)
	ctx := context.Background()

	_, err := service.Attach(ctx, "user-1", 7, services.ImageUpload{ContentType: "text/plain", Body: bytes.NewReader(nil)})
	assert.ErrorIs(t, err, services.ErrUnsupportedImage)

	_, err = service.Attach(ctx, "user-1", 7, pngUpload("too-large"))
	assert.ErrorIs(t, err, services.ErrImageTooLarge)

	mockRepo.On("GetByID", mock.Anything, uint(7)).Return(strat(), nil).Once()
	_, err = service.Attach(ctx, "user-2", 7, pngUpload("ok"))
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestImageService_AttachRollsBackUploadOnUpdateFailure(t *testing.T) {
	store := newMemoryObjectStore()
	mockRepo := new(MockGuitarRepository)
	service := services.NewImageService(store, mockRepo, 0)

	mockRepo.On("GetByID", mock.Anything, uint(7)).Return(strat(), nil).Once()
	mockRepo.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	_, err := service.Attach(context.Background(), "user-1", 7, pngUpload("png"))
	require.Error(t, err)
	assert.Empty(t, store.objects)
	assert.Len(t, store.deleted, 1)
}

func TestImageService_OpenAndDiscard(t *testing.T) {
	store := newMemoryObjectStore()
	service := services.NewImageService(store, new(MockGuitarRepository), 0)
	ctx := context.Background()

	_, err := service.Open(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	_, err = service.Open(ctx, "guitars/1/missing.png")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)

	service.Discard(ctx, "https://example.com/strat.png")
	service.Discard(ctx, "data:image/png;base64,AAAA")
	assert.Empty(t, store.deleted)

	service.Discard(ctx, "/images/guitars/1/a.png")
	assert.Equal(t, []string{"guitars/1/a.png"}, store.deleted)
}

func TestBrandService(t *testing.T) {
	mockRepo := new(MockBrandRepository)
	service := services.NewBrandService(mockRepo)
	ctx := context.Background()

	brands := []models.Brand{{ID: 2, Name: "Ibanez"}, {ID: 1, Name: "Fender"}}
	mockRepo.On("List", mock.Anything, "an", models.SortDesc).Return(brands, nil).Once()
	mockRepo.On("DeleteOrphans", mock.Anything).Return(int64(3), nil).Once()

	got, err := service.ListBrands(ctx, "an", models.SortDesc)
	require.NoError(t, err)
	assert.Equal(t, brands, got)

	removed, err := service.PruneOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	mockRepo.AssertExpectations(t)
}
