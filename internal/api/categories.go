package api

import (
	"context"
	"fmt"
	"net/http"
)

const (
	categoryPath     = "/category"
	categoryItemPath = "/category-item"
)

// ListCategories returns all categories with their item headers
func (c *HTTPClient) ListCategories(ctx context.Context) ([]Category, error) {
	var result []Category
	if err := c.doJSON(ctx, http.MethodGet, categoryPath+"/all", nil, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *HTTPClient) GetCategory(ctx context.Context, categoryID int64) (*Category, error) {
	var result Category
	path := fmt.Sprintf("%s/%d", categoryPath, categoryID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) CreateCategory(ctx context.Context, name, description string) (*Category, error) {
	var result Category
	req := CreateCategoryRequest{Name: name, Description: description}
	if err := c.doJSON(ctx, http.MethodPost, categoryPath, nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) DeleteCategory(ctx context.Context, categoryID int64) error {
	path := fmt.Sprintf("%s/%d", categoryPath, categoryID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil)
}

// CreateCategoryItem creates an item under categoryID and returns its header
func (c *HTTPClient) CreateCategoryItem(ctx context.Context, name, description string, categoryID int64) (*CategoryListItem, error) {
	var result CategoryListItem
	req := CreateCategoryItemRequest{Name: name, Description: description, CategoryID: categoryID}
	if err := c.doJSON(ctx, http.MethodPost, categoryItemPath, nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetCategoryItem fetches the full item detail. Never cached.
func (c *HTTPClient) GetCategoryItem(ctx context.Context, itemID int64) (*CategoryItemDetails, error) {
	var result CategoryItemDetails
	path := fmt.Sprintf("%s/%d", categoryItemPath, itemID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &result); err != nil {
		return nil, err
	}
	if result.Status != "" && !result.Status.Valid() {
		return nil, fmt.Errorf("GET %s: %w: unknown item status %q", path, ErrSchema, result.Status)
	}
	return &result, nil
}

func (c *HTTPClient) DeleteCategoryItem(ctx context.Context, itemID int64) error {
	path := fmt.Sprintf("%s/%d", categoryItemPath, itemID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil)
}

// GetItemStatus polls the generation status of an item
func (c *HTTPClient) GetItemStatus(ctx context.Context, itemID int64) (*StatusInfo, error) {
	var result StatusInfo
	path := fmt.Sprintf("%s/%d/status", categoryItemPath, itemID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &result); err != nil {
		return nil, err
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	return &result, nil
}

// GetItemGeneration fetches the summary and flashcards of a completed item
func (c *HTTPClient) GetItemGeneration(ctx context.Context, itemID int64) (*Generation, error) {
	var result Generation
	path := fmt.Sprintf("%s/%d/generation", categoryItemPath, itemID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// StartGeneration triggers the asynchronous generation job. The backend answers
// 202 Accepted with no body.
func (c *HTTPClient) StartGeneration(ctx context.Context, itemID int64) error {
	path := fmt.Sprintf("%s/%d/start-generation", categoryItemPath, itemID)
	return c.doJSON(ctx, http.MethodPost, path, nil, nil, nil)
}
