package stampcard

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strconv"
	"time"

	"smallbiznis-stampcard/pkg/config"
	"smallbiznis-stampcard/pkg/errutil"

	"github.com/patrickmn/go-cache"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Renderer struct {
	source      ImageSource
	layout      Layout
	lockedRef   string
	revealedRef string
	ttl         time.Duration
	cache       *cache.Cache
	metrics     *Metrics
}

type RendererOptions struct {
	LockedRef   string
	RevealedRef string
	// CacheTTL <= 0 disables the render cache.
	CacheTTL time.Duration
	Metrics  *Metrics
}

func NewRenderer(source ImageSource, layout Layout, opts RendererOptions) *Renderer {
	r := &Renderer{
		source:      source,
		layout:      layout,
		lockedRef:   opts.LockedRef,
		revealedRef: opts.RevealedRef,
		ttl:         opts.CacheTTL,
		metrics:     opts.Metrics,
	}
	if r.ttl > 0 {
		r.cache = cache.New(r.ttl, 2*r.ttl)
	}
	return r
}

type RendererParams struct {
	fx.In
	Config  *config.Config
	Source  ImageSource
	Metrics *Metrics
}

func NewRendererFromConfig(p RendererParams) (*Renderer, error) {
	layout, err := LayoutFromConfig(p.Config.StampCard.Slots)
	if err != nil {
		return nil, err
	}
	return NewRenderer(p.Source, layout, RendererOptions{
		LockedRef:   p.Config.StampCard.LockedRef,
		RevealedRef: p.Config.StampCard.RevealedRef,
		CacheTTL:    p.Config.StampCard.CacheTTL,
		Metrics:     p.Metrics,
	}), nil
}

func (r *Renderer) Layout() Layout {
	return r.layout
}

// Render returns the PNG for stamps revealed slots. Out of range counts are
// clamped. Either source failing fails the whole render with a BadGateway error.
func (r *Renderer) Render(ctx context.Context, stamps int) ([]byte, error) {
	n := r.layout.Clamp(stamps)
	key := strconv.Itoa(n)

	if r.cache != nil {
		if b, ok := r.cache.Get(key); ok {
			r.metrics.cacheHit()
			return b.([]byte), nil
		}
	}

	if r.lockedRef == "" || r.revealedRef == "" {
		r.metrics.rendered("config_error")
		return nil, errutil.Configuration("stamp card images are not configured", nil,
			errutil.WithDetails(missingRefs(r.lockedRef, r.revealedRef)...))
	}

	var locked, revealed image.Image
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		locked, err = r.fetch(gctx, "locked", r.lockedRef)
		return err
	})
	g.Go(func() (err error) {
		revealed, err = r.fetch(gctx, "revealed", r.revealedRef)
		return err
	})
	if err := g.Wait(); err != nil {
		r.metrics.rendered("fetch_error")
		return nil, err
	}

	canvas, err := Compose(locked, revealed, r.layout, n)
	if err != nil {
		r.metrics.rendered("fetch_error")
		return nil, errutil.BadGateway("stamp card images are not compatible", err,
			errutil.WithDetails(errutil.Detail{Field: "images", Message: err.Error()}))
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		r.metrics.rendered("encode_error")
		return nil, errutil.Internal("failed to encode stamp card", err)
	}

	out := buf.Bytes()
	if r.cache != nil {
		r.cache.SetDefault(key, out)
	}
	r.metrics.rendered("ok")
	return out, nil
}

func (r *Renderer) fetch(ctx context.Context, which, ref string) (image.Image, error) {
	img, err := r.source.Fetch(ctx, ref)
	if err != nil {
		zap.L().Warn("stamp card source fetch failed",
			zap.String("image", which),
			zap.String("ref", ref),
			zap.Error(err),
		)
		return nil, errutil.BadGateway("failed to load stamp card image", err,
			errutil.WithDetails(errutil.Detail{Field: which, Message: err.Error()}))
	}
	return img, nil
}

func missingRefs(locked, revealed string) []errutil.Detail {
	var out []errutil.Detail
	if locked == "" {
		out = append(out, errutil.Detail{Field: "stamp_card.locked_ref", Message: "required"})
	}
	if revealed == "" {
		out = append(out, errutil.Detail{Field: "stamp_card.revealed_ref", Message: "required"})
	}
	return out
}
