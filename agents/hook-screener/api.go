package hookscreener

import (
	"errors"
	"net/http"
	"strconv"

	"hook-screener/internal/models"
	"hook-screener/shared/moderation"
	"hook-screener/shared/storage"

	"github.com/gin-gonic/gin"
)

const defaultVerdictLimit = 20

type screenRequest struct {
	Text            string                    `json:"text"`
	DurationSeconds float64                   `json:"duration_seconds"`
	Category        string                    `json:"category"`
	Signals         *models.StructuralSignals `json:"signals"`
	Ref             models.VideoRef           `json:"ref"`
}

// RegisterRoutes mounts the screening API under /v1.
func (a *Agent) RegisterRoutes(r gin.IRouter) {
	v1 := r.Group("/v1")
	v1.POST("/screen", a.screenHandler)
	v1.GET("/verdicts", a.verdictsHandler)
	v1.GET("/verdicts/:handle", a.verdictsHandler)
}

func (a *Agent) screenHandler(c *gin.Context) {
	var req screenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cat, err := models.ParseCategory(req.Category)
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	// A failed store still yields fallback or empty corpora.
	corpora, err := a.screener.LoadCorpora(ctx)
	if corpora == nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sample := models.ExtractedSample{
		Text:            req.Text,
		DurationSeconds: req.DurationSeconds,
		Signals:         req.Signals,
		Ref:             req.Ref,
	}
	verdict, err := a.screener.Engine().Decide(ctx, sample, cat, corpora)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, moderation.ErrUnknownCategory) || errors.Is(err, moderation.ErrUnknownLanguage) {
			status = http.StatusBadRequest
		}
		c.IndentedJSON(status, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, verdict)
}

func (a *Agent) verdictsHandler(c *gin.Context) {
	limit := defaultVerdictLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	records, err := a.verdicts.ListVerdicts(c.Request.Context(), c.Param("handle"), limit)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []storage.VerdictRecord{}
	}
	c.IndentedJSON(http.StatusOK, gin.H{"verdicts": records})
}
