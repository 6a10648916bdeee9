package api

import (
	"context"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// Entry kinds stored in the cache
const (
	KindRoot     = "root"
	KindCategory = "category"
	KindItem     = "item"
)

// Entry is a node of the category tree: the root, a category or an item header
type Entry struct {
	Name        string
	Kind        string
	Description string
	CreatedAt   string
	ID          int64
	CategoryID  int64 // parent category for items
}

// CategoryCache maps shell paths (/Category/Item) to categories and items
type CategoryCache struct {
	entries map[string]*Entry // path -> entry
	byKey   map[string]string // kind:id -> path
	loaded  bool
	mu      sync.RWMutex
}

func NewCategoryCache() *CategoryCache {
	c := &CategoryCache{}
	c.reset()
	return c
}

func (c *CategoryCache) reset() {
	c.entries = map[string]*Entry{"/": {Name: "/", Kind: KindRoot}}
	c.byKey = make(map[string]string)
	c.loaded = false
}

func cacheKey(kind string, id int64) string {
	return kind + ":" + strconv.FormatInt(id, 10)
}

// Load replaces the cache content with the full category tree from the backend
func (c *CategoryCache) Load(ctx context.Context, client GenAIClient) error {
	categories, err := client.ListCategories(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
	for _, cat := range categories {
		c.addCategoryLocked(cat)
	}
	c.loaded = true
	return nil
}

// Loaded reports whether Load has completed at least once since the last reset
func (c *CategoryCache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// AddCategory inserts a category and its item headers
func (c *CategoryCache) AddCategory(cat Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addCategoryLocked(cat)
}

func (c *CategoryCache) addCategoryLocked(cat Category) {
	catPath := "/" + cat.Name
	c.entries[catPath] = &Entry{
		Name:        cat.Name,
		Kind:        KindCategory,
		Description: cat.Description,
		CreatedAt:   cat.CreatedAt,
		ID:          cat.ID,
	}
	c.byKey[cacheKey(KindCategory, cat.ID)] = catPath
	for _, item := range cat.CategoryItems {
		c.addItemLocked(catPath, cat.ID, item)
	}
}

// AddItem inserts an item header under the category at categoryPath
func (c *CategoryCache) AddItem(categoryPath string, categoryID int64, item CategoryListItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addItemLocked(categoryPath, categoryID, item)
}

func (c *CategoryCache) addItemLocked(categoryPath string, categoryID int64, item CategoryListItem) {
	itemPath := path.Join(categoryPath, item.Name)
	c.entries[itemPath] = &Entry{
		Name:        item.Name,
		Kind:        KindItem,
		Description: item.Description,
		CreatedAt:   item.CreatedAt,
		ID:          item.ID,
		CategoryID:  categoryID,
	}
	c.byKey[cacheKey(KindItem, item.ID)] = itemPath
}

// Get retrieves an entry by path
func (c *CategoryCache) Get(p string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[p]
	return e, ok
}

// PathFor returns the path of the category or item with the given id
func (c *CategoryCache) PathFor(kind string, id int64) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byKey[cacheKey(kind, id)]
	return p, ok
}

// Remove deletes an entry and, for categories, everything below it
func (c *CategoryCache) Remove(p string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[p]
	if !ok || entry.Kind == KindRoot {
		return
	}
	prefix := p + "/"
	for childPath, child := range c.entries {
		if strings.HasPrefix(childPath, prefix) {
			delete(c.byKey, cacheKey(child.Kind, child.ID))
			delete(c.entries, childPath)
		}
	}
	delete(c.byKey, cacheKey(entry.Kind, entry.ID))
	delete(c.entries, p)
}

// Children returns the direct children of parentPath sorted by name
func (c *CategoryCache) Children(parentPath string) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var children []Entry
	for p, e := range c.entries {
		if p == parentPath || p == "/" {
			continue
		}
		if path.Dir(p) == parentPath {
			children = append(children, *e)
		}
	}
	sort.Slice(children, func(i, j int) bool {
		return strings.ToLower(children[i].Name) < strings.ToLower(children[j].Name)
	})
	return children
}

// MatchGlob returns all cached paths directly under parentPath whose name matches
// pattern (doublestar syntax: *, ?, [], {}).
func (c *CategoryCache) MatchGlob(parentPath string, pattern string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var matches []string
	for p := range c.entries {
		if p == parentPath || p == "/" || path.Dir(p) != parentPath {
			continue
		}
		if matched, _ := doublestar.Match(pattern, path.Base(p)); matched {
			matches = append(matches, p)
		}
	}
	sort.Strings(matches)
	return matches
}
