package evaluation

import (
	"testing"

	"github.com/airframe-trades/optim-core/internal/geometry"
	"github.com/airframe-trades/optim-core/pkg/config"
)

func testVector() geometry.DesignVector {
	return geometry.DesignVector{Span: 330, Sweep: 25, XLoc: 320, Taper: 0.83, Tip: 120, Ctrl: 0.22}
}

func TestCGCacheToleranceCollision(t *testing.T) {
	cache := NewCGCache(config.DefaultConfig().Cache)

	v := testVector()
	cache.Store(v, 310.5)

	// Within tolerance in every parameter: same key, cache hit.
	near := v
	near.Span += 0.3  // tolerance 1.0
	near.Sweep += 0.2 // tolerance 0.5
	cg, ok := cache.Lookup(near)
	if !ok {
		t.Fatalf("expected hit for vector within tolerance")
	}
	if cg != 310.5 {
		t.Fatalf("cg = %v, want 310.5", cg)
	}
}

func TestCGCacheToleranceSeparation(t *testing.T) {
	cache := NewCGCache(config.DefaultConfig().Cache)

	v := testVector()
	cache.Store(v, 310.5)

	// One parameter past its tolerance separates the key even when every
	// other parameter is identical.
	far := v
	far.Sweep += 0.6 // tolerance 0.5
	if _, ok := cache.Lookup(far); ok {
		t.Fatalf("expected miss for vector past tolerance in one parameter")
	}
}

func TestCGCacheWholesaleClear(t *testing.T) {
	cfg := config.DefaultConfig().Cache
	cfg.MaxEntries = 3
	cache := NewCGCache(cfg)

	v := testVector()
	for i := 0; i < 3; i++ {
		entry := v
		entry.Span += float64(i) * 10
		cache.Store(entry, float64(300+i))
	}
	if cache.Len() != 3 {
		t.Fatalf("len = %d, want 3", cache.Len())
	}

	// The next store past the ceiling clears everything first.
	over := v
	over.Span += 40
	cache.Store(over, 350)
	if cache.Len() != 1 {
		t.Fatalf("len after clear = %d, want 1", cache.Len())
	}
	if _, ok := cache.Lookup(v); ok {
		t.Fatalf("pre-clear entry survived the wholesale clear")
	}
	if cg, ok := cache.Lookup(over); !ok || cg != 350 {
		t.Fatalf("post-clear entry missing: cg=%v ok=%v", cg, ok)
	}
}
