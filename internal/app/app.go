package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"meal-planner/internal/clipper"
	"meal-planner/internal/config"
	"meal-planner/internal/database"
	"meal-planner/internal/format"
	"meal-planner/internal/ghost"
	"meal-planner/internal/metrics"
	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shopping"
)

// historyWeeks is how many past menus feed the engine. Usage weighting
// looks at all of them; the repetition window only at the last few.
const historyWeeks = 52

// menuTag marks the weekly menu posts published to Ghost.
const menuTag = "menu"

// ghostIDPrefix marks recipes that were ingested from Ghost.
const ghostIDPrefix = "ghost-"

// ErrNoGhost is returned by operations that need a Ghost client when none
// is configured.
var ErrNoGhost = errors.New("ghost is not configured")

// App holds the application's dependencies.
type App struct {
	cfg           *config.Config
	engine        *planner.Engine
	ghostClient   ghost.Client
	recipeClipper *clipper.Clipper

	recipeRepo   *recipe.Repository
	planRepo     *planner.PlanRepository
	shoppingRepo *shopping.Repository
	metricsStore *metrics.Store

	now func() time.Time
}

// NewApp creates and initializes a new App instance. ghostClient and
// recipeClipper may be nil when the matching integrations are not
// configured.
func NewApp(
	cfg *config.Config,
	db *database.DB,
	engine *planner.Engine,
	ghostClient ghost.Client,
	recipeClipper *clipper.Clipper,
) *App {
	return &App{
		cfg:           cfg,
		engine:        engine,
		ghostClient:   ghostClient,
		recipeClipper: recipeClipper,
		recipeRepo:    recipe.NewRepository(db.SQL),
		planRepo:      planner.NewPlanRepository(db.SQL),
		shoppingRepo:  shopping.NewRepository(db.SQL),
		metricsStore:  metrics.NewStore(db.SQL),
		now:           time.Now,
	}
}

// Generated is the outcome of a menu generation.
type Generated struct {
	Menu     planner.Menu
	Report   planner.Report
	Shopping shopping.List
	Recipes  []recipe.Recipe
}

// GenerateMenu builds a new weekly menu from the stored catalog and history.
// Unless dryRun is set the menu, its shopping list and a generation metric
// are saved.
func (a *App) GenerateMenu(ctx context.Context, dryRun bool) (*Generated, error) {
	gen, latency, err := a.generate(ctx, 0)
	if err != nil {
		return nil, err
	}
	if dryRun {
		return gen, nil
	}

	if _, err := a.planRepo.Save(ctx, &gen.Menu); err != nil {
		return nil, fmt.Errorf("failed to save menu: %w", err)
	}
	if err := a.saveGenerated(ctx, gen, latency); err != nil {
		return nil, err
	}
	return gen, nil
}

// RegenerateMenu replaces the latest menu with a fresh one. The rejected
// menu is not part of the history the new one is drawn against, and its
// week is reused, so repeated requests leave a single history entry. With
// no stored menu it behaves like GenerateMenu.
func (a *App) RegenerateMenu(ctx context.Context) (*Generated, error) {
	latest, err := a.planRepo.Latest(ctx)
	if errors.Is(err, planner.ErrMenuNotFound) {
		return a.GenerateMenu(ctx, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest menu: %w", err)
	}

	gen, latency, err := a.generate(ctx, latest.ID)
	if err != nil {
		return nil, err
	}
	gen.Menu.ID = latest.ID
	if err := a.planRepo.Replace(ctx, &gen.Menu); err != nil {
		return nil, fmt.Errorf("failed to replace menu %d: %w", latest.ID, err)
	}
	if err := a.saveGenerated(ctx, gen, latency); err != nil {
		return nil, err
	}
	zap.S().Infow("Menu regenerated", "menu_id", latest.ID)
	return gen, nil
}

// generate runs the engine over the catalog and the stored history, leaving
// out the menu with id exclude.
func (a *App) generate(ctx context.Context, exclude int64) (*Generated, time.Duration, error) {
	recipes, err := a.recipeRepo.List(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load recipes: %w", err)
	}

	opts := a.cfg.MenuOptions(a.now())
	limit := max(historyWeeks, opts.MaxRepetitionWeeks)
	if exclude != 0 {
		limit++
	}
	history, err := a.planRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load menu history: %w", err)
	}
	history = slices.DeleteFunc(history, func(m planner.Menu) bool {
		return exclude != 0 && m.ID == exclude
	})

	start := time.Now()
	menu, report := a.engine.Generate(recipes, history, opts)
	latency := time.Since(start)

	if report.EmptyCatalog {
		zap.S().Warn("Recipe catalog is empty, only pinned dinners are set")
	}
	if len(report.UnknownQuotaKeys) > 0 {
		zap.S().Warnw("Quota keys match no categoria", "keys", report.UnknownQuotaKeys)
	}
	zap.S().Infow("Menu generated",
		"season", opts.CurrentSeason,
		"recipes", len(recipes),
		"history", len(history),
		"relaxed", report.Relaxed(),
		"unfilled", report.Unfilled(),
	)

	list := shopping.Build(menu, recipes)
	menu.CreatedAt = a.now().UTC()
	return &Generated{Menu: menu, Report: report, Shopping: list, Recipes: recipes}, latency, nil
}

// saveGenerated stores the shopping list and generation metric of a menu
// that has already been saved.
func (a *App) saveGenerated(ctx context.Context, gen *Generated, latency time.Duration) error {
	id := gen.Menu.ID
	if err := a.shoppingRepo.Save(ctx, id, gen.Shopping); err != nil {
		return fmt.Errorf("failed to save shopping list: %w", err)
	}
	m := metrics.NewGenerationMetric(id, len(gen.Recipes), gen.Report, latency)
	if err := a.metricsStore.RecordGeneration(ctx, m); err != nil {
		zap.S().Warnw("Failed to record generation metric", "menu_id", id, "error", err)
	}
	return nil
}

// Menu returns the stored menu with the given id, or the latest one when id
// is 0.
func (a *App) Menu(ctx context.Context, id int64) (*planner.Menu, error) {
	if id == 0 {
		return a.planRepo.Latest(ctx)
	}
	return a.planRepo.Get(ctx, id)
}

// ShoppingList returns a stored menu and its shopping list. Lists missing
// from storage are rebuilt from the current catalog and saved.
func (a *App) ShoppingList(ctx context.Context, menuID int64) (*planner.Menu, shopping.List, error) {
	menu, err := a.Menu(ctx, menuID)
	if err != nil {
		return nil, nil, err
	}

	list, err := a.shoppingRepo.GetByMenuID(ctx, menu.ID)
	if err == nil {
		return menu, list, nil
	}
	if !errors.Is(err, shopping.ErrNotFound) {
		return nil, nil, err
	}

	recipes, err := a.recipeRepo.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	list = shopping.Build(*menu, recipes)
	if err := a.shoppingRepo.Save(ctx, menu.ID, list); err != nil {
		zap.S().Warnw("Failed to save rebuilt shopping list", "menu_id", menu.ID, "error", err)
	}
	return menu, list, nil
}

// History returns up to limit of the most recent menus, oldest first.
func (a *App) History(ctx context.Context, limit int) ([]planner.Menu, error) {
	return a.planRepo.ListRecent(ctx, limit)
}

// ListRecipes returns the whole catalog.
func (a *App) ListRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	return a.recipeRepo.List(ctx)
}

// ImportCatalog loads a YAML or JSON recipe list and upserts every entry.
// Nothing is saved when the file does not validate.
func (a *App) ImportCatalog(ctx context.Context, r io.Reader) (int, error) {
	recipes, err := recipe.LoadCatalog(r)
	if err != nil {
		return 0, err
	}
	for _, rec := range recipes {
		if err := a.recipeRepo.Save(ctx, rec); err != nil {
			return 0, fmt.Errorf("failed to save recipe %s: %w", rec.ID, err)
		}
	}
	zap.S().Infow("Catalog imported", "recipes", len(recipes))
	return len(recipes), nil
}

// IngestResult summarizes a Ghost ingestion run.
type IngestResult struct {
	Saved   int
	Skipped int
	Removed int
}

// IngestFromGhost fetches every recipe post from Ghost and upserts it into
// the catalog. Posts that cannot be read as a recipe are skipped. Recipes
// previously ingested from posts that no longer exist are removed.
func (a *App) IngestFromGhost(ctx context.Context) (IngestResult, error) {
	var res IngestResult
	if a.ghostClient == nil {
		return res, ErrNoGhost
	}

	posts, err := a.ghostClient.FetchRecipes(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to fetch recipes from ghost: %w", err)
	}
	zap.S().Infow("Fetched recipe posts from Ghost", "posts", len(posts))

	seen := make(map[string]struct{}, len(posts))
	for _, post := range posts {
		seen[ghostIDPrefix+post.ID] = struct{}{}

		r, err := clipper.FromPost(post)
		if err != nil {
			zap.S().Warnw("Skipping post", "title", post.Title, "error", err)
			res.Skipped++
			continue
		}
		if err := a.recipeRepo.Save(ctx, r); err != nil {
			return res, fmt.Errorf("failed to save recipe %q: %w", post.Title, err)
		}
		res.Saved++
	}

	existing, err := a.recipeRepo.List(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list recipes: %w", err)
	}
	for _, r := range existing {
		if !strings.HasPrefix(r.ID, ghostIDPrefix) {
			continue
		}
		if _, ok := seen[r.ID]; ok {
			continue
		}
		if err := a.recipeRepo.Delete(ctx, r.ID); err != nil {
			zap.S().Warnw("Failed to remove stale recipe", "id", r.ID, "error", err)
			continue
		}
		zap.S().Infow("Removed recipe no longer on Ghost", "id", r.ID, "name", r.Name)
		res.Removed++
	}

	zap.S().Infow("Ingestion complete", "saved", res.Saved, "skipped", res.Skipped, "removed", res.Removed)
	return res, nil
}

// Clip reads a recipe from a web page and adds it to the catalog. With
// publish set and Ghost configured, the recipe is also published as a post
// and stored under the post's id so a later ingest updates it in place.
// Ingest only sees published posts, so a draft would be dropped as stale.
func (a *App) Clip(ctx context.Context, url string, publish bool) (*clipper.Clipped, error) {
	if a.recipeClipper == nil {
		return nil, errors.New("clipper is not configured")
	}

	clipped, err := a.recipeClipper.ClipURL(ctx, url)
	if err != nil {
		return nil, err
	}
	if clipped.Meta != nil {
		if err := a.metricsStore.RecordMeta(ctx, *clipped.Meta); err != nil {
			zap.S().Warnw("Failed to record clipper metric", "error", err)
		}
	}

	if publish && a.ghostClient != nil {
		html := clipper.RecipeHTML(clipped.Recipe, clipped.SourceURL)
		post, err := a.ghostClient.CreatePost(ctx, clipped.Recipe.Name, html, clipper.Tags(clipped.Recipe), true)
		if err != nil {
			zap.S().Warnw("Failed to post clipped recipe to Ghost", "url", url, "error", err)
		} else {
			clipped.Recipe.ID = ghostIDPrefix + post.ID
		}
	}

	if err := a.recipeRepo.Save(ctx, clipped.Recipe); err != nil {
		return nil, fmt.Errorf("failed to save clipped recipe: %w", err)
	}
	zap.S().Infow("Recipe clipped", "id", clipped.Recipe.ID, "name", clipped.Recipe.Name, "url", url)
	return clipped, nil
}

// Publish posts the HTML rendering of a stored menu to Ghost as a draft.
// id 0 publishes the latest menu.
func (a *App) Publish(ctx context.Context, id int64) (*ghost.Post, error) {
	if a.ghostClient == nil {
		return nil, ErrNoGhost
	}

	menu, err := a.Menu(ctx, id)
	if err != nil {
		return nil, err
	}
	recipes, err := a.recipeRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}

	html, err := format.HTMLEmail(*menu, recipes)
	if err != nil {
		return nil, fmt.Errorf("failed to render menu: %w", err)
	}

	title := fmt.Sprintf("Menu della settimana del %s", menu.CreatedAt.Format("02/01/2006"))
	post, err := a.ghostClient.CreatePost(ctx, title, html, []string{menuTag}, false)
	if err != nil {
		return nil, fmt.Errorf("failed to publish menu: %w", err)
	}
	zap.S().Infow("Menu published", "menu_id", menu.ID, "post_id", post.ID)
	return post, nil
}

// Usage returns LLM token usage and generation counts for the last days.
func (a *App) Usage(ctx context.Context, days int) ([]metrics.DailyUsage, []metrics.DailyGenerations, error) {
	usage, err := a.metricsStore.GetDailyUsage(ctx, days)
	if err != nil {
		return nil, nil, err
	}
	gens, err := a.metricsStore.GetDailyGenerations(ctx, days)
	if err != nil {
		return nil, nil, err
	}
	return usage, gens, nil
}

// CleanupMetrics deletes metrics older than the given number of days.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	n, err := a.metricsStore.Cleanup(ctx, days)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up metrics: %w", err)
	}
	zap.S().Infow("Metrics cleaned up", "deleted", n, "older_than_days", days)
	return n, nil
}
