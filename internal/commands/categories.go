package commands

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/gYonder/genai-shell/internal/api"
	"github.com/gYonder/genai-shell/internal/session"
	"github.com/gYonder/genai-shell/internal/ui"
)

func init() {
	Register(&Command{
		Name:        "mkcat",
		Group:       GroupCategories,
		Description: "Create a category",
		Usage:       "mkcat [-d description] <name>\n\nExamples:\n  mkcat Biology\n  mkcat -d \"Second semester\" \"Cell Biology\"",
		Run:         mkcat,
	})
	Register(&Command{
		Name:        "rmcat",
		Group:       GroupCategories,
		Description: "Delete a category and all its items",
		Usage:       "rmcat [-y] <category>\n\nOptions:\n  -y    Do not ask for confirmation",
		Run:         rmcat,
	})
	Register(&Command{
		Name:        "mkitem",
		Group:       GroupCategories,
		Description: "Create an item in a category",
		Usage:       "mkitem [-d description] [-o] <name|category/name>\n\nOptions:\n  -d    Item description\n  -o    Open the item after creating it\n\nExamples:\n  mkitem \"Week 1\"              Create in the current category\n  mkitem -o /Biology/Mitosis   Create and open",
		Run:         mkitem,
	})
	Register(&Command{
		Name:        "rmitem",
		Group:       GroupCategories,
		Description: "Delete an item",
		Usage:       "rmitem [-y] <item>\n\nOptions:\n  -y    Do not ask for confirmation",
		Run:         rmitem,
	})
}

func validName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name must not be empty")
	}
	if strings.Contains(name, "/") {
		return fmt.Errorf("name must not contain '/'")
	}
	return nil
}

func mkcat(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	fs := newFlagSet("mkcat", env)
	description := fs.StringP("description", "d", "", "category description")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: mkcat [-d description] <name>")
	}
	name := fs.Arg(0)
	if err := validName(name); err != nil {
		return fmt.Errorf("mkcat: %w", err)
	}
	if err := ensureCache(ctx, s, env); err != nil {
		return fmt.Errorf("mkcat: %w", err)
	}
	if _, exists := s.Cache.Get("/" + name); exists {
		return fmt.Errorf("mkcat: category '%s' already exists", name)
	}

	cat, err := ui.WithSpinner(env.Stderr, "", false, func() (*api.Category, error) {
		return s.Client.CreateCategory(ctx, name, *description)
	})
	if err != nil {
		return fmt.Errorf("mkcat: %w", err)
	}
	s.Cache.AddCategory(*cat)
	s.Logger.Info("category created", "category_id", cat.ID, "name", cat.Name)

	fmt.Fprintf(env.Stdout, "Created category %s\n", ui.CategoryStyle.Render(cat.Name))
	return nil
}

func rmcat(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	fs := newFlagSet("rmcat", env)
	yes := fs.BoolP("yes", "y", false, "skip confirmation")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: rmcat [-y] <category>")
	}

	resolved, entry, err := ResolveEntry(ctx, s, env, fs.Arg(0))
	if err != nil {
		return fmt.Errorf("rmcat: %w", err)
	}
	if entry.Kind != api.KindCategory {
		return fmt.Errorf("rmcat: %s: Not a category", fs.Arg(0))
	}

	if !*yes {
		n := len(s.Cache.Children(resolved))
		question := fmt.Sprintf("Delete category '%s' and its %d item(s)?", entry.Name, n)
		ok, err := confirm(env, ui.WarningStyle.Render(question))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(env.Stdout, "Cancelled")
			return nil
		}
	}

	err = ui.WithSpinnerErr(env.Stderr, "", false, func() error {
		return s.Client.DeleteCategory(ctx, entry.ID)
	})
	if err != nil {
		return fmt.Errorf("rmcat: %w", err)
	}

	if s.Item != nil && path.Dir(s.Item.Path) == resolved {
		s.Unmount()
	}
	s.Cache.Remove(resolved)
	if s.CWD == resolved {
		s.CWD = "/"
	}
	if s.PreviousDir == resolved {
		s.PreviousDir = ""
	}
	s.Logger.Info("category deleted", "category_id", entry.ID)

	fmt.Fprintf(env.Stdout, "Deleted category %s\n", entry.Name)
	return nil
}

func mkitem(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	fs := newFlagSet("mkitem", env)
	description := fs.StringP("description", "d", "", "item description")
	open := fs.BoolP("open", "o", false, "open the new item")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: mkitem [-d description] [-o] <name|category/name>")
	}
	if err := ensureCache(ctx, s, env); err != nil {
		return fmt.Errorf("mkitem: %w", err)
	}

	itemPath := s.ResolvePath(fs.Arg(0))
	name := path.Base(itemPath)
	if err := validName(name); err != nil || itemPath == "/" {
		return fmt.Errorf("mkitem: invalid item name '%s'", fs.Arg(0))
	}
	parentPath := path.Dir(itemPath)
	parent, ok := s.Cache.Get(parentPath)
	if !ok || parent.Kind != api.KindCategory {
		return fmt.Errorf("mkitem: items must be created inside a category (cd into one first)")
	}
	if _, exists := s.Cache.Get(itemPath); exists {
		return fmt.Errorf("mkitem: '%s' already exists", itemPath)
	}

	item, err := ui.WithSpinner(env.Stderr, "", false, func() (*api.CategoryListItem, error) {
		return s.Client.CreateCategoryItem(ctx, name, *description, parent.ID)
	})
	if err != nil {
		return fmt.Errorf("mkitem: %w", err)
	}
	s.Cache.AddItem(parentPath, parent.ID, *item)
	s.Logger.Info("item created", "item_id", item.ID, "category_id", parent.ID)

	fmt.Fprintf(env.Stdout, "Created item %s in %s\n", ui.ItemStyle.Render(item.Name), ui.CategoryStyle.Render(parent.Name))
	if *open {
		return openItem(ctx, s, env, itemPath, item.ID)
	}
	return nil
}

func rmitem(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	fs := newFlagSet("rmitem", env)
	yes := fs.BoolP("yes", "y", false, "skip confirmation")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: rmitem [-y] <item>")
	}

	resolved, entry, err := ResolveEntry(ctx, s, env, fs.Arg(0))
	if err != nil {
		return fmt.Errorf("rmitem: %w", err)
	}
	if entry.Kind != api.KindItem {
		return fmt.Errorf("rmitem: %s: Not an item", fs.Arg(0))
	}

	if !*yes {
		ok, err := confirm(env, ui.WarningStyle.Render(fmt.Sprintf("Delete item '%s'?", entry.Name)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(env.Stdout, "Cancelled")
			return nil
		}
	}

	err = ui.WithSpinnerErr(env.Stderr, "", false, func() error {
		return s.Client.DeleteCategoryItem(ctx, entry.ID)
	})
	if err != nil {
		return fmt.Errorf("rmitem: %w", err)
	}

	if s.Item != nil && s.Item.Path == resolved {
		s.Unmount()
	}
	s.Cache.Remove(resolved)
	s.Logger.Info("item deleted", "item_id", entry.ID)

	fmt.Fprintf(env.Stdout, "Deleted item %s\n", entry.Name)
	return nil
}
