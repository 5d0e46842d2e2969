package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/artpar/cmscore/app"
	"github.com/artpar/cmscore/domain/cmserr"
	"github.com/artpar/cmscore/domain/hook"
	"github.com/artpar/cmscore/domain/module"
	"github.com/artpar/cmscore/domain/theme"
	"github.com/artpar/cmscore/ports"
	"github.com/rs/zerolog"
)

// DefaultThemeSlug is the system theme deactivation falls back to.
const DefaultThemeSlug = "default"

// Seeder populates a fresh install. Running it again only fills in what is
// missing.
type Seeder struct {
	HookStore ports.HookStore
	Modules   *app.ModuleManager
	Themes    *app.ThemeManager
	Logger    zerolog.Logger
}

// SeedResult counts what a seed run created.
type SeedResult struct {
	Hooks   int
	Modules int
	Themes  int
}

// Seed runs the seeder against the app's stores.
func (a *App) Seed(ctx context.Context) error {
	res, err := a.Seeder().Run(ctx)
	if err != nil {
		return err
	}
	a.Logger.Info().
		Int("hooks", res.Hooks).
		Int("modules", res.Modules).
		Int("themes", res.Themes).
		Msg("seed complete")
	return nil
}

// Seeder returns a seeder bound to the app.
func (a *App) Seeder() Seeder {
	return Seeder{HookStore: a.HookStore, Modules: a.Modules, Themes: a.Themes, Logger: a.Logger}
}

// Run seeds system hooks, core modules and the default theme.
func (s Seeder) Run(ctx context.Context) (SeedResult, error) {
	var res SeedResult

	existing := make(map[string]bool)
	hooks, err := s.HookStore.ListHooks(ctx)
	if err != nil {
		return res, fmt.Errorf("list hooks: %w", err)
	}
	for _, h := range hooks {
		existing[h.Name] = true
	}
	for _, h := range hook.SystemHooks() {
		if _, err := s.HookStore.EnsureHook(ctx, h); err != nil {
			return res, fmt.Errorf("seed hook %s: %w", h.Name, err)
		}
		if !existing[h.Name] {
			res.Hooks++
		}
	}

	for _, d := range CoreModules() {
		_, err := s.Modules.Install(ctx, d)
		switch {
		case err == nil:
			res.Modules++
		case errors.Is(err, cmserr.ErrConflict):
			continue
		default:
			return res, fmt.Errorf("seed module %s: %w", d.Slug, err)
		}
		if _, err := s.Modules.Enable(ctx, d.Slug); err != nil {
			return res, fmt.Errorf("enable module %s: %w", d.Slug, err)
		}
	}

	if _, _, err := s.Themes.Install(ctx, DefaultTheme()); err == nil {
		res.Themes++
	} else if !errors.Is(err, cmserr.ErrConflict) {
		return res, fmt.Errorf("seed theme: %w", err)
	}

	active, err := s.Themes.ActiveTheme(ctx)
	if err != nil {
		return res, err
	}
	if active == nil {
		if _, err := s.Themes.Activate(ctx, DefaultThemeSlug); err != nil {
			return res, fmt.Errorf("activate default theme: %w", err)
		}
		s.Logger.Info().Str("theme", DefaultThemeSlug).Msg("default theme activated")
	}

	return res, nil
}

// CoreModules returns the modules a fresh install ships with, in install
// order.
func CoreModules() []module.Descriptor {
	core := func(slug, name, description string, perms ...string) module.Descriptor {
		var permissions []module.Permission
		for _, action := range perms {
			permissions = append(permissions, module.Permission{
				Name:   slug + "." + action,
				Module: slug,
				Action: action,
			})
		}
		return module.Descriptor{
			Path:     "/modules/" + slug,
			IsCore:   true,
			IsSystem: true,
			Manifest: module.Manifest{
				ID:          slug,
				Name:        name,
				Version:     "1.0.0",
				Description: description,
				Type:        module.TypeCore,
				Provides: module.Provides{
					Routes:      []module.Route{{Method: "GET", Path: "/api/v1/" + slug, Handler: "list"}},
					AdminPages:  []module.AdminPage{{ID: slug, Title: name, Path: "/" + slug}},
					Permissions: permissions,
				},
			},
		}
	}

	notifyPriority := 5
	trackPriority := 20

	return []module.Descriptor{
		core("articles", "Articles", "Articles and news management", "create", "read", "update", "delete", "publish"),
		core("categories", "Categories", "Category tree management", "create", "read", "update", "delete"),
		core("media", "Media", "Media library", "upload", "read", "delete"),
		core("users", "Users", "User and role management", "create", "read", "update", "delete"),
		core("pages", "Pages", "Static pages", "create", "read", "update", "delete"),
		core("menus", "Menus", "Navigation menus", "read", "update"),
		{
			Path: "/modules/breaking-news",
			Manifest: module.Manifest{
				ID:           "breaking-news",
				Name:         "Breaking News",
				Version:      "1.0.0",
				Description:  "Breaking news ticker and alerts",
				Type:         module.TypeExtension,
				Dependencies: []string{"articles"},
				Provides: module.Provides{
					Routes:             []module.Route{{Method: "GET", Path: "/api/v1/breaking-news", Handler: "list"}},
					FrontendComponents: []module.FrontendComponent{{ID: "BreakingNewsBanner", Region: "top-bar"}},
				},
				Settings: []module.SettingSchema{
					{Key: "maxItems", Type: "number", Label: "Items in ticker", Default: 5},
					{Key: "ticker", Type: "boolean", Label: "Show ticker", Default: true},
				},
				Hooks: []module.HookBinding{
					{Name: hook.ArticleAfterPublish, Handler: "notify", Priority: &notifyPriority},
				},
			},
		},
		{
			Path: "/modules/analytics",
			Manifest: module.Manifest{
				ID:          "analytics",
				Name:        "Analytics",
				Version:     "1.0.0",
				Description: "Site analytics and statistics",
				Type:        module.TypeExtension,
				Provides: module.Provides{
					Routes: []module.Route{{Method: "GET", Path: "/api/v1/analytics", Handler: "report"}},
				},
				Settings: []module.SettingSchema{
					{Key: "trackingId", Type: "string", Label: "Tracking ID", IsSecret: true},
					{Key: "sampleRate", Type: "number", Label: "Sample rate (%)", Default: 100},
				},
				Hooks: []module.HookBinding{
					{Name: hook.ArticleAfterPublish, Handler: "track", Priority: &trackPriority},
					{Name: hook.PageAfterCreate, Handler: "track", Priority: &trackPriority},
				},
			},
		},
	}
}

// DefaultTheme returns the system theme seeded on a fresh install.
func DefaultTheme() theme.Descriptor {
	features := []string{"articles", "pages", "categories", "menus", "widgets", "breaking-news", "search", "dark-mode", "rtl"}
	return theme.Descriptor{
		Author:    "NewsCore Team",
		Path:      "/themes/default",
		IsDefault: true,
		IsSystem:  true,
		Features:  features,
		Manifest: theme.Manifest{
			ID:       DefaultThemeSlug,
			Name:     "NewsCore Default Theme",
			Version:  "1.0.0",
			Author:   "NewsCore Team",
			Features: features,
			Templates: []theme.Template{
				{ID: "home", Name: "Home Page", Type: "home", IsDefault: true},
				{ID: "article", Name: "Article Page", Type: "article", IsDefault: true},
				{ID: "category", Name: "Category Page", Type: "category", IsDefault: true},
				{ID: "page-default", Name: "Default Page", Type: "page", IsDefault: true},
			},
			Regions: []theme.Region{
				{ID: "header", Name: "Header", Type: "header"},
				{ID: "sidebar-right", Name: "Right Sidebar", Type: "sidebar", MaxWidgets: 10},
				{ID: "footer", Name: "Footer", Type: "footer"},
			},
			Customizer: theme.Customizer{Sections: []theme.Section{
				{ID: "colors", Title: "Colors", Fields: []theme.Field{
					{ID: "primaryColor", Type: "color", Label: "Primary Color", Default: "#ed7520"},
					{ID: "secondaryColor", Type: "color", Label: "Secondary Color", Default: "#0ea5e9"},
					{ID: "accentColor", Type: "color", Label: "Accent Color", Default: "#f59e0b"},
					{ID: "backgroundColor", Type: "color", Label: "Background Color", Default: "#ffffff"},
					{ID: "textColor", Type: "color", Label: "Text Color", Default: "#1f2937"},
				}},
				{ID: "typography", Title: "Typography", Fields: []theme.Field{
					{ID: "fontFamily", Type: "select", Label: "Font Family", Default: "Cairo"},
					{ID: "fontSize", Type: "text", Label: "Base Font Size", Default: "16px"},
				}},
				{ID: "layout", Title: "Layout", Fields: []theme.Field{
					{ID: "stickyHeader", Type: "toggle", Label: "Sticky Header", Default: true},
					{ID: "showBreakingNews", Type: "toggle", Label: "Show Breaking News", Default: true},
					{ID: "darkModeEnabled", Type: "toggle", Label: "Dark Mode", Default: true},
				}},
			}},
		},
	}
}
