package api

import (
	"context"
	"io"
)

// GenAIClient defines the interface for interacting with the generation backend
type GenAIClient interface {
	// Categories
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, categoryID int64) (*Category, error)
	CreateCategory(ctx context.Context, name, description string) (*Category, error)
	DeleteCategory(ctx context.Context, categoryID int64) error

	// Category items
	CreateCategoryItem(ctx context.Context, name, description string, categoryID int64) (*CategoryListItem, error)
	GetCategoryItem(ctx context.Context, itemID int64) (*CategoryItemDetails, error)
	DeleteCategoryItem(ctx context.Context, itemID int64) error

	// Generation
	GetItemStatus(ctx context.Context, itemID int64) (*StatusInfo, error)
	GetItemGeneration(ctx context.Context, itemID int64) (*Generation, error)
	StartGeneration(ctx context.Context, itemID int64) error

	// Uploads
	RequestUpload(ctx context.Context, req FileUploadRequest) (*FileInfo, error)
	TransferToPresignedURL(ctx context.Context, body io.Reader, size int64, contentType, destination, method string, onProgress func(int)) error
	CompleteUpload(ctx context.Context, req FileUploadRequest) (*FileInfo, error)
}

var _ GenAIClient = (*HTTPClient)(nil)

// MockGenAIClient is a mock implementation for testing
type MockGenAIClient struct {
	ListCategoriesFunc     func(ctx context.Context) ([]Category, error)
	GetCategoryFunc        func(ctx context.Context, categoryID int64) (*Category, error)
	CreateCategoryFunc     func(ctx context.Context, name, description string) (*Category, error)
	DeleteCategoryFunc     func(ctx context.Context, categoryID int64) error
	CreateCategoryItemFunc func(ctx context.Context, name, description string, categoryID int64) (*CategoryListItem, error)
	GetCategoryItemFunc    func(ctx context.Context, itemID int64) (*CategoryItemDetails, error)
	DeleteCategoryItemFunc func(ctx context.Context, itemID int64) error
	GetItemStatusFunc      func(ctx context.Context, itemID int64) (*StatusInfo, error)
	GetItemGenerationFunc  func(ctx context.Context, itemID int64) (*Generation, error)
	StartGenerationFunc    func(ctx context.Context, itemID int64) error
	RequestUploadFunc      func(ctx context.Context, req FileUploadRequest) (*FileInfo, error)
	TransferFunc           func(ctx context.Context, body io.Reader, size int64, contentType, destination, method string, onProgress func(int)) error
	CompleteUploadFunc     func(ctx context.Context, req FileUploadRequest) (*FileInfo, error)
}

func (m *MockGenAIClient) ListCategories(ctx context.Context) ([]Category, error) {
	if m.ListCategoriesFunc != nil {
		return m.ListCategoriesFunc(ctx)
	}
	return nil, nil
}

func (m *MockGenAIClient) GetCategory(ctx context.Context, categoryID int64) (*Category, error) {
	if m.GetCategoryFunc != nil {
		return m.GetCategoryFunc(ctx, categoryID)
	}
	return nil, nil
}

func (m *MockGenAIClient) CreateCategory(ctx context.Context, name, description string) (*Category, error) {
	if m.CreateCategoryFunc != nil {
		return m.CreateCategoryFunc(ctx, name, description)
	}
	return &Category{Name: name, Description: description}, nil
}

func (m *MockGenAIClient) DeleteCategory(ctx context.Context, categoryID int64) error {
	if m.DeleteCategoryFunc != nil {
		return m.DeleteCategoryFunc(ctx, categoryID)
	}
	return nil
}

func (m *MockGenAIClient) CreateCategoryItem(ctx context.Context, name, description string, categoryID int64) (*CategoryListItem, error) {
	if m.CreateCategoryItemFunc != nil {
		return m.CreateCategoryItemFunc(ctx, name, description, categoryID)
	}
	return &CategoryListItem{Name: name, Description: description}, nil
}

func (m *MockGenAIClient) GetCategoryItem(ctx context.Context, itemID int64) (*CategoryItemDetails, error) {
	return m.GetCategoryItemFunc(ctx, itemID)
}

func (m *MockGenAIClient) DeleteCategoryItem(ctx context.Context, itemID int64) error {
	if m.DeleteCategoryItemFunc != nil {
		return m.DeleteCategoryItemFunc(ctx, itemID)
	}
	return nil
}

func (m *MockGenAIClient) GetItemStatus(ctx context.Context, itemID int64) (*StatusInfo, error) {
	return m.GetItemStatusFunc(ctx, itemID)
}

func (m *MockGenAIClient) GetItemGeneration(ctx context.Context, itemID int64) (*Generation, error) {
	return m.GetItemGenerationFunc(ctx, itemID)
}

func (m *MockGenAIClient) StartGeneration(ctx context.Context, itemID int64) error {
	if m.StartGenerationFunc != nil {
		return m.StartGenerationFunc(ctx, itemID)
	}
	return nil
}

func (m *MockGenAIClient) RequestUpload(ctx context.Context, req FileUploadRequest) (*FileInfo, error) {
	return m.RequestUploadFunc(ctx, req)
}

func (m *MockGenAIClient) TransferToPresignedURL(ctx context.Context, body io.Reader, size int64, contentType, destination, method string, onProgress func(int)) error {
	return m.TransferFunc(ctx, body, size, contentType, destination, method, onProgress)
}

func (m *MockGenAIClient) CompleteUpload(ctx context.Context, req FileUploadRequest) (*FileInfo, error) {
	if m.CompleteUploadFunc != nil {
		return m.CompleteUploadFunc(ctx, req)
	}
	return &FileInfo{FileName: req.FileName, OriginalFileName: req.OriginalFileName}, nil
}
