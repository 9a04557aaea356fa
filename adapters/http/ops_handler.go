package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"

	"github.com/vocmoney/pipeline/adapters/wordpress"
	"github.com/vocmoney/pipeline/internal/application/usecase/publish"
	"github.com/vocmoney/pipeline/internal/domain/article"
	"github.com/vocmoney/pipeline/pkg/logger"
)

type OpsHandler struct {
	runPipeline *publish.RunPipelineUseCase
	articleRepo article.Repository
	wp          *wordpress.Client
	publisher   string
	log         logger.Logger
}

func NewOpsHandler(
	run *publish.RunPipelineUseCase,
	repo article.Repository,
	wp *wordpress.Client,
	publisher string,
	log logger.Logger,
) *OpsHandler {
	return &OpsHandler{
		runPipeline: run,
		articleRepo: repo,
		wp:          wp,
		publisher:   publisher,
		log:         log,
	}
}

func (h *OpsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func (h *OpsHandler) Stats(c *gin.Context) {
	count, err := h.articleRepo.CountPublished(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"published_total": count,
		"wordpress_site":  h.wp.Domain(),
	})
}

// Run triggers a single synchronous pipeline pass. A pass can take minutes;
// callers are expected to use a generous client timeout.
func (h *OpsHandler) Run(c *gin.Context) {
	if err := h.runPipeline.Execute(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

// Probe verifies the WordPress credentials can manage taxonomy by creating
// and deleting a throwaway category.
func (h *OpsHandler) Probe(c *gin.Context) {
	if err := h.wp.ProbeTermCreation(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "category creation and deletion succeeded"})
}

// FeedXML publishes an RSS feed of recently published articles so downstream
// consumers can follow what the pipeline produced.
func (h *OpsHandler) FeedXML(c *gin.Context) {
	articles, err := h.articleRepo.ListRecent(c.Request.Context(), 20)
	if err != nil {
		c.Error(err)
		return
	}

	feed := &feeds.Feed{
		Title:       h.publisher,
		Link:        &feeds.Link{Href: "https://" + h.wp.Domain()},
		Description: "Recently published articles",
		Created:     time.Now(),
	}
	for _, a := range articles {
		item := &feeds.Item{
			Title:       a.Title,
			Link:        &feeds.Link{Href: a.Link},
			Description: a.SourceName,
			Id:          a.GUID,
			Created:     a.CreatedAt,
		}
		if a.PublishedAt != nil {
			item.Created = *a.PublishedAt
		}
		feed.Items = append(feed.Items, item)
	}

	rss, err := feed.ToRss()
	if err != nil {
		c.Error(err)
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}
