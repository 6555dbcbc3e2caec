package httpapi

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driving"
	"github.com/custodia-labs/sourcemark/internal/logger"
	"github.com/custodia-labs/sourcemark/internal/outbuf"
)

// handlePreview renders a stored document as a standalone page. The body
// is reindexed before it is rendered, which is a no-op when it already has
// an index entry. Trashed documents are not served.
func (s *Server) handlePreview(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	doc, err := s.services.Content.Get(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	if doc.Status == domain.StatusTrash {
		fail(c, fmt.Errorf("content %d: %w", id, domain.ErrNotFound))
		return
	}

	if _, err := s.services.Index.Reindex(ctx, doc.ID, doc.Body, domain.ReindexOptions{}); err != nil {
		logger.Warn("preview: reindex %d: %v", doc.ID, err)
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(renderPage(doc, s.services.Overlay.Inject(ctx, doc.Body))))
}

func renderPage(doc *domain.ContentDocument, body string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(doc.Title))
	b.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&b, "<article id=\"content-%d\">\n", doc.ID)
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(doc.Title))
	b.WriteString(body)
	b.WriteString("\n</article>\n</body>\n</html>\n")
	return b.String()
}

// captureWriter sends body writes into a capture stack while leaving
// headers and status to the wrapped writer.
type captureWriter struct {
	gin.ResponseWriter
	stack *outbuf.Stack
}

func (w *captureWriter) Write(p []byte) (int, error) {
	return w.stack.Write(p)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	return w.stack.WriteString(s)
}

// wholePage captures every response of the group in an overlay layer and
// emits the rewritten page once the handler returns.
//
// When EndPage reports the overlay's layer is gone, the overlay itself emits
// nothing, but this middleware still flushes the layers other handlers left
// on the stack, unchanged. Those bytes are not the overlay's, so a response
// is never dropped by a layer that was closed early.
func wholePage(overlay driving.OverlayService) gin.HandlerFunc {
	return func(c *gin.Context) {
		original := c.Writer
		stack := outbuf.New(original)
		layer := overlay.BeginPage(stack)
		c.Writer = &captureWriter{ResponseWriter: original, stack: stack}

		c.Next()

		c.Writer = original
		if err := overlay.EndPage(c.Request.Context(), stack, layer); err != nil {
			if ferr := stack.Flush(); ferr != nil {
				logger.Warn("preview: flush page: %v", ferr)
			}
		}
	}
}
