package handlers

import (
	"context"
	"net/http"
	"strings"

	"tas-agent/config"
	"tas-agent/links"
	"tas-agent/metadata"
	"tas-agent/resolver"
	"tas-agent/web/format"
	"tas-agent/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Tokenizer counts model tokens in a text.
type Tokenizer interface {
	Tokenize(ctx context.Context, host string, text string) (int, error)
}

// LinksHandler serves citation links, metadata lookups and token counts.
type LinksHandler struct {
	formatter *links.Formatter
	metadata  *metadata.Store
	tokenizer Tokenizer
	cfg       *config.Config
	logger    *zap.Logger
}

func NewLinksHandler(formatter *links.Formatter, store *metadata.Store, tokenizer Tokenizer, cfg *config.Config, logger *zap.Logger) *LinksHandler {
	return &LinksHandler{
		formatter: formatter,
		metadata:  store,
		tokenizer: tokenizer,
		cfg:       cfg,
		logger:    logger,
	}
}

func bindText(c *gin.Context) (string, bool) {
	var req types.TextQuery
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Field 'query' is required")
		return "", false
	}
	return req.Query, true
}

func (h *LinksHandler) GetTokenCount(c *gin.Context) {
	text, ok := bindText(c)
	if !ok {
		return
	}
	n, err := h.tokenizer.Tokenize(c.Request.Context(), h.cfg.MainLLMHost, text)
	if err != nil {
		respondWithError(c, http.StatusBadGateway, err, "Failed to count tokens", h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": n})
}

func (h *LinksHandler) GetIframe(c *gin.Context) {
	text, ok := bindText(c)
	if !ok {
		return
	}
	urls, err := h.formatter.IframeLinks(c.Request.Context(), text)
	if err != nil {
		respondWithLookupError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"iframe": nonNil(urls)})
}

// GetSource returns grouped Markdown citations; ?format=html renders them.
func (h *LinksHandler) GetSource(c *gin.Context) {
	text, ok := bindText(c)
	if !ok {
		return
	}
	sources, err := h.formatter.SourceLinks(c.Request.Context(), text)
	if err != nil {
		respondWithLookupError(c, err, h.logger)
		return
	}
	if strings.EqualFold(c.Query("format"), "html") {
		sources = format.MarkdownLinesToHTML(sources)
	}
	c.JSON(http.StatusOK, gin.H{"sources": sources})
}

func (h *LinksHandler) GetArtistImg(c *gin.Context) {
	text, ok := bindText(c)
	if !ok {
		return
	}
	urls, err := h.formatter.ArtistImageLinks(c.Request.Context(), text)
	if err != nil {
		respondWithLookupError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sources": nonNil(urls)})
}

// GetValidDataID picks the artist document id that best matches a chunk.
func (h *LinksHandler) GetValidDataID(c *gin.Context) {
	var req types.ChunkQuery
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Field 'chunk' is required")
		return
	}
	ids, err := h.metadata.IDsOfType("artist")
	if err != nil {
		respondWithLookupError(c, err, h.logger)
		return
	}
	id, score := resolver.BestMatchIDWithScore(ids, req.Chunk)
	h.logger.Debug("Best data id", zap.String("id", id), zap.Float64("score", score), zap.Int("candidates", len(ids)))
	if id == "" {
		c.JSON(http.StatusOK, gin.H{"best_match_id": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"best_match_id": id})
}

func (h *LinksHandler) GenerateImage(c *gin.Context) {
	heading := strings.TrimSpace(c.Query("heading_text"))
	if heading == "" {
		respondWithClientError(c, http.StatusBadRequest, "Query parameter 'heading_text' is required")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": h.formatter.ImageURL(heading)})
}

func (h *LinksHandler) GetURLs(c *gin.Context) {
	var req types.MetadataURLQuery
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Field 'data_id' is required")
		return
	}
	url, err := h.metadata.BestURL(req.DataID, req.Chunk)
	if err != nil {
		respondWithLookupError(c, err, h.logger, zap.String("data_id", req.DataID))
		return
	}
	c.JSON(http.StatusOK, gin.H{"urls": url})
}

func (h *LinksHandler) bindDataID(c *gin.Context) (string, bool) {
	var req types.MetadataQuery
	if err := c.ShouldBindJSON(&req); err != nil || req.DataID == "" {
		respondWithClientError(c, http.StatusBadRequest, "Field 'data_id' is required")
		return "", false
	}
	return req.DataID, true
}

func (h *LinksHandler) GetIframeLink(c *gin.Context) {
	id, ok := h.bindDataID(c)
	if !ok {
		return
	}
	v, err := h.metadata.IframeLink(id)
	if err != nil {
		respondWithLookupError(c, err, h.logger, zap.String("data_id", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"iframe": v})
}

func (h *LinksHandler) GetArtistImageLink(c *gin.Context) {
	id, ok := h.bindDataID(c)
	if !ok {
		return
	}
	v, err := h.metadata.ArtistImage(id)
	if err != nil {
		respondWithLookupError(c, err, h.logger, zap.String("data_id", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"artist": v})
}

func (h *LinksHandler) GetSourceLink(c *gin.Context) {
	var req types.MetadataQuery
	if err := c.ShouldBindJSON(&req); err != nil || len(req.DataIDs) == 0 {
		respondWithClientError(c, http.StatusBadRequest, "Field 'data_ids' is required")
		return
	}
	source, err := h.metadata.SourceLinks(req.DataIDs)
	if err != nil {
		respondWithLookupError(c, err, h.logger, zap.Strings("data_ids", req.DataIDs))
		return
	}
	if strings.EqualFold(c.Query("format"), "html") {
		source = format.MarkdownLinesToHTML(source)
	}
	c.JSON(http.StatusOK, gin.H{"source": source})
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"Smiling Face": "☺"})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
