// Package catalog keeps the client's copy of the wallpaper catalog in sync
// with the backend and derives the filtered views shown to the user.
package catalog

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/JohnDeved/wallhub/internal/client"
	"github.com/JohnDeved/wallhub/internal/model"
)

// ErrStale is returned by Load when a newer load or an Invalidate call
// superseded it before it resolved. Its result was discarded.
var ErrStale = errors.New("catalog load superseded")

// Source is the primary catalog backend.
type Source interface {
	ListWallpapers(ctx context.Context, device model.Device) ([]model.Wallpaper, error)
	ListCategories(ctx context.Context) ([]string, error)
}

// PhotoSearcher is the secondary image provider.
type PhotoSearcher interface {
	Search(ctx context.Context, query string, perPage int) ([]client.Photo, error)
}

// SourceName identifies one input of a catalog load.
type SourceName string

const (
	SourceWallpapers SourceName = "wallpapers"
	SourceCategories SourceName = "categories"
	SourceProvider   SourceName = "provider"
)

// SourceFailure records a source that failed during a load.
type SourceFailure struct {
	Source SourceName
	Err    error
}

// Catalog is one consistent snapshot of the client's catalog.
type Catalog struct {
	Wallpapers []model.Wallpaper
	Categories []string
	// Generation is the load that produced this snapshot; zero means
	// nothing has been loaded yet.
	Generation uint64
	Failures   []SourceFailure
}

func (c Catalog) clone() Catalog {
	out := Catalog{Generation: c.Generation}
	out.Wallpapers = append([]model.Wallpaper(nil), c.Wallpapers...)
	out.Categories = append([]string(nil), c.Categories...)
	out.Failures = append([]SourceFailure(nil), c.Failures...)
	return out
}

// Failed reports whether the named source failed.
func (c Catalog) Failed(name SourceName) bool {
	for _, f := range c.Failures {
		if f.Source == name {
			return true
		}
	}
	return false
}

type providerSource struct {
	searcher PhotoSearcher
	query    string
	perPage  int
}

// Option configures a Repository.
type Option func(*Repository)

// WithProvider merges photos from a secondary provider into every load.
func WithProvider(s PhotoSearcher, query string, perPage int) Option {
	return func(r *Repository) {
		if s == nil {
			return
		}
		r.provider = &providerSource{searcher: s, query: query, perPage: perPage}
	}
}

// Repository owns the catalog. Only Load mutates it, always by replacing
// the whole snapshot.
type Repository struct {
	backend  Source
	provider *providerSource
	log      zerolog.Logger

	mu         sync.Mutex
	gen        uint64
	lastDevice model.Device
	current    Catalog
}

// NewRepository creates a repository over backend.
func NewRepository(backend Source, log zerolog.Logger, opts ...Option) *Repository {
	r := &Repository{
		backend: backend,
		log:     log.With().Str("component", "catalog").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load fetches the catalog for device ("" for every device) from all
// sources concurrently and applies the merged result. A failing source is
// logged and left out; Load itself only fails with ErrStale, when a later
// Load or Invalidate happened before this one resolved.
func (r *Repository) Load(ctx context.Context, device model.Device) (Catalog, error) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.lastDevice = device
	r.mu.Unlock()

	var (
		primary    []model.Wallpaper
		photos     []client.Photo
		categories []string

		fmu      sync.Mutex
		failures []SourceFailure
	)
	fail := func(name SourceName, err error) {
		r.log.Warn().Err(err).Str("source", string(name)).Uint64("generation", gen).Msg("catalog source failed")
		fmu.Lock()
		failures = append(failures, SourceFailure{Source: name, Err: err})
		fmu.Unlock()
	}

	var g errgroup.Group
	g.Go(func() error {
		ws, err := r.backend.ListWallpapers(ctx, device)
		if err != nil {
			fail(SourceWallpapers, err)
			return nil
		}
		primary = ws
		return nil
	})
	g.Go(func() error {
		cs, err := r.backend.ListCategories(ctx)
		if err != nil {
			fail(SourceCategories, err)
			return nil
		}
		categories = cs
		return nil
	})
	if p := r.provider; p != nil {
		g.Go(func() error {
			ps, err := p.searcher.Search(ctx, p.query, p.perPage)
			if err != nil {
				fail(SourceProvider, err)
				return nil
			}
			photos = ps
			return nil
		})
	}
	_ = g.Wait()

	extra := make([]model.Wallpaper, 0, len(photos))
	for _, p := range photos {
		extra = append(extra, fromPhoto(p))
	}
	if len(extra) > 0 {
		categories = append(categories, ProviderLabel)
	}

	next := Catalog{
		Wallpapers: mergeWallpapers(primary, extra),
		Categories: r.normalizeCategories(categories),
		Generation: gen,
		Failures:   failures,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		r.log.Debug().Uint64("generation", gen).Uint64("current", r.gen).Msg("discarding stale catalog load")
		return Catalog{}, ErrStale
	}
	r.current = next
	r.log.Info().
		Uint64("generation", gen).
		Int("wallpapers", len(next.Wallpapers)).
		Int("categories", len(next.Categories)).
		Int("failures", len(failures)).
		Msg("catalog loaded")
	return next.clone(), nil
}

// Reload repeats the last Load with the same device.
func (r *Repository) Reload(ctx context.Context) (Catalog, error) {
	r.mu.Lock()
	device := r.lastDevice
	r.mu.Unlock()
	return r.Load(ctx, device)
}

// Invalidate marks every in-flight load as stale.
func (r *Repository) Invalidate() {
	r.mu.Lock()
	r.gen++
	r.mu.Unlock()
}

// Generation returns the latest issued generation.
func (r *Repository) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// Snapshot returns a copy of the current catalog.
func (r *Repository) Snapshot() Catalog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.clone()
}

// Wallpapers returns a copy of the current wallpapers.
func (r *Repository) Wallpapers() []model.Wallpaper {
	return r.Snapshot().Wallpapers
}

// Categories returns a copy of the current category names.
func (r *Repository) Categories() []string {
	return r.Snapshot().Categories
}

// mergeWallpapers concatenates the sources and drops repeated ids, keeping
// the first occurrence.
func mergeWallpapers(sources ...[]model.Wallpaper) []model.Wallpaper {
	n := 0
	for _, s := range sources {
		n += len(s)
	}
	out := make([]model.Wallpaper, 0, n)
	seen := make(map[string]struct{}, n)
	for _, s := range sources {
		for _, w := range s {
			if w.ID != "" {
				if _, dup := seen[w.ID]; dup {
					continue
				}
				seen[w.ID] = struct{}{}
			}
			out = append(out, w)
		}
	}
	return out
}

// normalizeCategories removes duplicates and the reserved sentinel while
// preserving order.
func (r *Repository) normalizeCategories(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == model.CreateNewCategory {
			r.log.Warn().Str("category", name).Msg("ignoring category that collides with the reserved sentinel")
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
