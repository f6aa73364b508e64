package mocks

import (
	"context"
	"io"

	"signdocs/internal/model"
	"signdocs/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, ownerID string, r io.Reader, originalName, mimetype string, size int64) (*model.Document, error) {
	args := m.Called(ctx, ownerID, r, originalName, mimetype, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, ownerID string) ([]model.Document, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, id, ownerID string) (*model.Document, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Sign(ctx context.Context, id, ownerID string, annotations []model.Annotation) (*model.Document, error) {
	args := m.Called(ctx, id, ownerID, annotations)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, id, ownerID string) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *MockDocumentService) OpenFile(ctx context.Context, storageName string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, storageName)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockDocumentService) OpenDocumentFile(ctx context.Context, id, ownerID string) (io.ReadCloser, storage.ObjectInfo, *model.Document, error) {
	args := m.Called(ctx, id, ownerID)
	rc, _ := args.Get(0).(io.ReadCloser)
	doc, _ := args.Get(2).(*model.Document)
	return rc, args.Get(1).(storage.ObjectInfo), doc, args.Error(3)
}
