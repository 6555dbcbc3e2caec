package driving

import (
	"context"

	"github.com/custodia-labs/sourcemark/internal/outbuf"
)

// OverlayService adds attribution captions to rendered markup.
type OverlayService interface {
	// Inject rewrites a content fragment.
	Inject(ctx context.Context, html string) string

	// InjectPage rewrites a complete page.
	InjectPage(ctx context.Context, html string) string

	// BeginPage starts a capture layer on the stack for whole-page mode.
	BeginPage(stack *outbuf.Stack) *outbuf.Layer

	// EndPage closes the layer, rewrites what it captured and writes the
	// result to the parent layer.
	EndPage(ctx context.Context, stack *outbuf.Stack, layer *outbuf.Layer) error
}
