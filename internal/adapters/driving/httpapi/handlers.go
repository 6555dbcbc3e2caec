package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

// ==================== Assets ====================

func (s *Server) handleSaveAsset(c *gin.Context) {
	var asset domain.Asset
	if err := c.ShouldBindJSON(&asset); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.services.Assets.Save(c.Request.Context(), &asset); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, asset)
}

func (s *Server) handleListAssets(c *gin.Context) {
	offset, ok := intQuery(c, "offset", 0)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}
	query := domain.AssetQuery{Offset: offset, Limit: limit}
	if ext := c.Query("ext"); ext != "" {
		query.Extensions = strings.Split(ext, ",")
	}

	assets, err := s.services.Assets.List(c.Request.Context(), query)
	if err != nil {
		fail(c, err)
		return
	}
	if assets == nil {
		assets = []domain.Asset{}
	}
	c.JSON(http.StatusOK, gin.H{"assets": assets, "count": len(assets)})
}

func (s *Server) handleGetAsset(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	asset, err := s.services.Assets.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

func (s *Server) handleDeleteAsset(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := s.services.Assets.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": true})
}

func (s *Server) handleAssetDocuments(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	docs, err := s.services.Content.DocumentsOf(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if docs == nil {
		docs = []int64{}
	}
	c.JSON(http.StatusOK, gin.H{"asset_id": id, "content_ids": docs})
}

func (s *Server) handleAssetUsage(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	status, record, err := s.services.Usage.Status(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"asset_id": id, "status": status, "record": record})
}

// ==================== Content ====================

func (s *Server) handleSaveContent(c *gin.Context) {
	var doc domain.ContentDocument
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := s.services.Content.Save(c.Request.Context(), &doc)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"content": doc, "index": result})
}

func (s *Server) handleGetContent(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	doc, err := s.services.Content.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) handleDeleteContent(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := s.services.Content.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": true})
}

func (s *Server) handleTrashContent(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := s.services.Content.Trash(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": domain.StatusTrash})
}

func (s *Server) handleContentAssets(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	entries, err := s.services.Content.AssetsOf(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if entries == nil {
		entries = domain.ForwardIndex{}
	}
	c.JSON(http.StatusOK, gin.H{"content_id": id, "entries": entries})
}

// ==================== Usage ====================

func (s *Server) handleUsageSummary(c *gin.Context) {
	summary, err := s.services.Usage.Summary(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleUsageBatch(c *gin.Context) {
	size, ok := intQuery(c, "size", domain.DefaultBatchSize)
	if !ok {
		return
	}
	offset, ok := intQuery(c, "offset", 0)
	if !ok {
		return
	}
	onlyMissing := c.Query("only_missing") == "true" || c.Query("only_missing") == "1"

	ids, err := s.services.Usage.GetBatch(c.Request.Context(), size, offset, onlyMissing, nil)
	if err != nil {
		fail(c, err)
		return
	}
	total, err := s.services.Usage.TotalCount(c.Request.Context(), onlyMissing)
	if err != nil {
		fail(c, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	c.JSON(http.StatusOK, gin.H{"ids": ids, "offset": offset, "total": total})
}

type runBatchRequest struct {
	IDs []int64 `json:"ids" binding:"required"`
}

func (s *Server) handleRunUsageBatch(c *gin.Context) {
	var req runBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.services.Usage.RunBatch(c.Request.Context(), req.IDs))
}

// ==================== Index ====================

func (s *Server) handleContentPages(c *gin.Context) {
	offset, ok := intQuery(c, "offset", 0)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", domain.DefaultBatchSize)
	if !ok {
		return
	}
	page, err := s.services.ContentBatch.GetAllContentURLs(c.Request.Context(), offset, limit)
	if err != nil {
		fail(c, err)
		return
	}
	if page.Items == nil {
		page.Items = []domain.ContentURL{}
	}
	c.JSON(http.StatusOK, page)
}

type indexBatchRequest struct {
	Items []domain.ContentURL `json:"items" binding:"required"`
}

func (s *Server) handleIndexBatch(c *gin.Context) {
	var req indexBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	results := s.services.ContentBatch.IndexBatch(c.Request.Context(), req.Items)
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// ==================== Overlay ====================

// handleOverlay rewrites the posted markup and returns it as HTML.
// ?page=1 treats the body as a whole page.
func (s *Server) handleOverlay(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var out string
	if page := c.Query("page"); page == "1" || page == "true" {
		out = s.services.Overlay.InjectPage(c.Request.Context(), string(body))
	} else {
		out = s.services.Overlay.Inject(c.Request.Context(), string(body))
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
}
