package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"strings"
	"testing"

	"signdocs/internal/model"
	repoMocks "signdocs/internal/repository/mocks"
	"signdocs/internal/storage"
	storeMocks "signdocs/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestDocumentService_Upload(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		originalName string
		mimetype     string
		size         int64
		setupMocks   func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader
		wantErr      error
		wantErrMsg   string
		checkDoc     func(t *testing.T, doc *model.Document)
	}{
		{
			name:         "happy path pdf",
			originalName: "Contract Final.PDF",
			mimetype:     "application/pdf",
			size:         11,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				r := strings.NewReader("hello world")
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					// Generated name, never the original filename.
					return strings.HasSuffix(key, ".pdf") && !strings.Contains(key, "Contract")
				}), r, storage.PutObjectOptions{
					Size:        11,
					ContentType: "application/pdf",
					Metadata:    map[string]string{"original-filename": "Contract Final.PDF"},
				}).Return(storage.ObjectInfo{Key: "gen.pdf", Size: 11}, nil)

				mRepo.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.OwnerID == "user-1" &&
						doc.OriginalName == "Contract Final.PDF" &&
						doc.StorageName != "" &&
						!doc.Signed && doc.SignedAt == nil &&
						doc.Annotations != nil && len(doc.Annotations) == 0 &&
						doc.Size == 11
				})).Return(&model.Document{ID: "gen-id", Signed: false}, nil)

				return r
			},
			checkDoc: func(t *testing.T, doc *model.Document) {
				assert.False(t, doc.Signed)
			},
		},
		{
			name:         "validation error - nil reader",
			originalName: "test.pdf",
			mimetype:     "application/pdf",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				return nil
			},
			wantErr: ErrNoFile,
		},
		{
			name:         "validation error - disallowed mimetype",
			originalName: "evil.exe",
			mimetype:     "application/x-msdownload",
			size:         5,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				return strings.NewReader("hello")
			},
			wantErr: ErrDisallowedType,
		},
		{
			name:         "validation error - over size limit",
			originalName: "big.pdf",
			mimetype:     "application/pdf",
			size:         MaxUploadSize + 1,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				return strings.NewReader("pretend this is huge")
			},
			wantErr: ErrFileTooLarge,
		},
		{
			name:         "storage error",
			originalName: "test.pdf",
			mimetype:     "application/pdf",
			size:         5,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				r := strings.NewReader("hello")
				mStore.On("Put", ctx, mock.Anything, r, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("storage fail"))
				return r
			},
			wantErrMsg: "upload to storage: storage fail",
		},
		{
			name:         "repository error with successful rollback",
			originalName: "test.pdf",
			mimetype:     "application/pdf",
			size:         5,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				r := strings.NewReader("hello")
				mStore.On("Put", ctx, mock.Anything, r, mock.Anything).
					Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
						return storage.ObjectInfo{Key: key}
					}, nil)
				mRepo.On("Create", ctx, mock.Anything).
					Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(nil)
				return r
			},
			wantErrMsg: "db save failed: db fail",
		},
		{
			name:         "repository error with failed rollback",
			originalName: "test.pdf",
			mimetype:     "application/pdf",
			size:         5,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				r := strings.NewReader("hello")
				mStore.On("Put", ctx, mock.Anything, r, mock.Anything).
					Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
						return storage.ObjectInfo{Key: key}
					}, nil)
				mRepo.On("Create", ctx, mock.Anything).
					Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(errors.New("delete fail"))
				return r
			},
			wantErrMsg: "rollback delete failed: delete fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewDocumentService(mStore, mRepo)

			r := tt.setupMocks(mStore, mRepo)

			doc, err := svc.Upload(ctx, "user-1", r, tt.originalName, tt.mimetype, tt.size)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else if tt.wantErrMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, doc)
				if tt.checkDoc != nil {
					tt.checkDoc(t, doc)
				}
			}

			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Sign(t *testing.T) {
	ctx := context.Background()

	valid := []model.Annotation{{X: 10, Y: 20, Width: 100, Height: 30, Kind: model.KindSignature, Text: ""}}

	tests := []struct {
		name        string
		annotations []model.Annotation
		setupMocks  func(mRepo *repoMocks.MockDocumentRepository)
		wantErr     error
	}{
		{
			name:        "happy path assigns annotation identity",
			annotations: valid,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("ReplaceAnnotations", ctx, "doc-1", "user-1",
					mock.MatchedBy(func(anns []model.Annotation) bool {
						return len(anns) == 1 && anns[0].ID != "" &&
							anns[0].X == 10 && anns[0].Kind == model.KindSignature
					}),
					mock.AnythingOfType("time.Time"),
				).Return(&model.Document{ID: "doc-1", Signed: true}, nil)
			},
		},
		{
			name:        "nil annotations rejected",
			annotations: nil,
			setupMocks:  func(mRepo *repoMocks.MockDocumentRepository) {},
			wantErr:     ErrInvalidSignature,
		},
		{
			name:        "unknown kind rejected",
			annotations: []model.Annotation{{X: 1, Y: 2, Width: 3, Height: 4, Kind: "stamp"}},
			setupMocks:  func(mRepo *repoMocks.MockDocumentRepository) {},
			wantErr:     ErrInvalidSignature,
		},
		{
			name:        "empty list is a valid replacement",
			annotations: []model.Annotation{},
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("ReplaceAnnotations", ctx, "doc-1", "user-1",
					[]model.Annotation{}, mock.AnythingOfType("time.Time"),
				).Return(&model.Document{ID: "doc-1", Signed: true}, nil)
			},
		},
		{
			name:        "not found",
			annotations: valid,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("ReplaceAnnotations", ctx, "doc-1", "user-1", mock.Anything, mock.AnythingOfType("time.Time")).
					Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrDocumentNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewDocumentService(nil, mRepo)

			tt.setupMocks(mRepo)

			// Copy so identity assignment never leaks between cases.
			var anns []model.Annotation
			if tt.annotations != nil {
				anns = make([]model.Annotation, len(tt.annotations))
				copy(anns, tt.annotations)
			}

			doc, err := svc.Sign(ctx, "doc-1", "user-1", anns)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
			} else {
				assert.NoError(t, err)
				assert.True(t, doc.Signed)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(nil, mRepo)
		mRepo.On("FindByIDForOwner", ctx, "doc-1", "user-1").
			Return(&model.Document{ID: "doc-1", OwnerID: "user-1"}, nil)

		doc, err := svc.Get(ctx, "doc-1", "user-1")
		assert.NoError(t, err)
		assert.Equal(t, "doc-1", doc.ID)
		mRepo.AssertExpectations(t)
	})

	t.Run("foreign document is not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(nil, mRepo)
		// The repository scopes by owner, so a foreign row surfaces as no rows.
		mRepo.On("FindByIDForOwner", ctx, "doc-1", "user-2").Return(nil, sql.ErrNoRows)

		doc, err := svc.Get(ctx, "doc-1", "user-2")
		assert.ErrorIs(t, err, ErrDocumentNotFound)
		assert.Nil(t, doc)
		mRepo.AssertExpectations(t)
	})

	t.Run("generic repository error", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(nil, mRepo)
		mRepo.On("FindByIDForOwner", ctx, "doc-1", "user-1").Return(nil, errors.New("db fail"))

		doc, err := svc.Get(ctx, "doc-1", "user-1")
		assert.Error(t, err)
		assert.Nil(t, doc)
		mRepo.AssertExpectations(t)
	})
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository)
		wantErr    error
	}{
		{
			name: "happy path",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("Delete", ctx, "doc-1", "user-1").
					Return(&model.Document{ID: "doc-1", StorageName: "blob.pdf"}, nil)
				mStore.On("Delete", ctx, "blob.pdf").Return(nil)
			},
		},
		{
			name: "not found",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("Delete", ctx, "doc-1", "user-1").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrDocumentNotFound,
		},
		{
			name: "blob delete failure does not fail the operation",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("Delete", ctx, "doc-1", "user-1").
					Return(&model.Document{ID: "doc-1", StorageName: "blob.pdf"}, nil)
				mStore.On("Delete", ctx, "blob.pdf").Return(errors.New("io fail"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewDocumentService(mStore, mRepo)

			tt.setupMocks(mStore, mRepo)

			err := svc.Delete(ctx, "doc-1", "user-1")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Delete_BlobFailureLogShape(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockDocumentRepository)
	svc := NewDocumentService(mStore, mRepo)

	mRepo.On("Delete", ctx, "doc-1", "user-1").
		Return(&model.Document{ID: "doc-1", StorageName: "blob.pdf"}, nil)
	mStore.On("Delete", ctx, "blob.pdf").Return(errors.New("io fail"))

	assert.NoError(t, svc.Delete(ctx, "doc-1", "user-1"))

	var entry map[string]any
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "blob_delete_failed", entry["msg"])
	assert.Equal(t, "blob.pdf", entry["storage_name"])
	assert.Equal(t, "io fail", entry["error"])
	assert.NotEmpty(t, entry["ts"])
}

func TestDocumentService_OpenFile(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		svc := NewDocumentService(mStore, nil)
		mStore.On("Get", ctx, "blob.pdf").
			Return(io.NopCloser(strings.NewReader("data")), storage.ObjectInfo{Key: "blob.pdf", Size: 4}, nil)

		rc, info, err := svc.OpenFile(ctx, "blob.pdf")
		assert.NoError(t, err)
		assert.Equal(t, int64(4), info.Size)
		rc.Close()
		mStore.AssertExpectations(t)
	})

	t.Run("missing blob", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		svc := NewDocumentService(mStore, nil)
		mStore.On("Get", ctx, "gone.pdf").
			Return(nil, storage.ObjectInfo{}, storage.ErrNotExist)

		_, _, err := svc.OpenFile(ctx, "gone.pdf")
		assert.ErrorIs(t, err, ErrFileNotFound)
		mStore.AssertExpectations(t)
	})
}

func TestDocumentService_OpenDocumentFile(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(mStore, mRepo)

		mRepo.On("FindByIDForOwner", ctx, "doc-1", "user-1").
			Return(&model.Document{ID: "doc-1", StorageName: "blob.pdf", OriginalName: "mine.pdf"}, nil)
		mStore.On("Get", ctx, "blob.pdf").
			Return(io.NopCloser(strings.NewReader("data")), storage.ObjectInfo{Key: "blob.pdf", Size: 4}, nil)

		rc, info, doc, err := svc.OpenDocumentFile(ctx, "doc-1", "user-1")
		assert.NoError(t, err)
		assert.Equal(t, "mine.pdf", doc.OriginalName)
		assert.Equal(t, int64(4), info.Size)
		rc.Close()
		mStore.AssertExpectations(t)
		mRepo.AssertExpectations(t)
	})

	t.Run("dangling record yields not found", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(mStore, mRepo)

		mRepo.On("FindByIDForOwner", ctx, "doc-1", "user-1").
			Return(&model.Document{ID: "doc-1", StorageName: "blob.pdf"}, nil)
		mStore.On("Get", ctx, "blob.pdf").
			Return(nil, storage.ObjectInfo{}, storage.ErrNotExist)

		_, _, _, err := svc.OpenDocumentFile(ctx, "doc-1", "user-1")
		assert.ErrorIs(t, err, ErrBlobGone)
		mStore.AssertExpectations(t)
		mRepo.AssertExpectations(t)
	})

	t.Run("foreign document is not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(nil, mRepo)

		mRepo.On("FindByIDForOwner", ctx, "doc-1", "user-2").Return(nil, sql.ErrNoRows)

		_, _, _, err := svc.OpenDocumentFile(ctx, "doc-1", "user-2")
		assert.ErrorIs(t, err, ErrDocumentNotFound)
		mRepo.AssertExpectations(t)
	})
}

func TestDocumentService_List(t *testing.T) {
	ctx := context.Background()

	mRepo := new(repoMocks.MockDocumentRepository)
	svc := NewDocumentService(nil, mRepo)
	mRepo.On("ListByOwner", ctx, "user-1").
		Return([]model.Document{{ID: "2"}, {ID: "1"}}, nil)

	docs, err := svc.List(ctx, "user-1")
	assert.NoError(t, err)
	assert.Len(t, docs, 2)
	mRepo.AssertExpectations(t)
}
