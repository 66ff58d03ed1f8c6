package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/cogload-backend/middleware"
	"github.com/vnkhanh/cogload-backend/services"
)

// ArticleController serves the reading and rating flow of ordinary users.
type ArticleController struct {
	assignment *services.AssignmentService
	annotate   *services.AnnotationService
	articles   *services.ArticleService
	stats      *services.StatsService
	writeError func(c *gin.Context, err error)
}

func NewArticleController(
	assignment *services.AssignmentService,
	annotate *services.AnnotationService,
	articles *services.ArticleService,
	stats *services.StatsService,
	writeError func(c *gin.Context, err error),
) *ArticleController {
	return &ArticleController{
		assignment: assignment,
		annotate:   annotate,
		articles:   articles,
		stats:      stats,
		writeError: writeError,
	}
}

func (ac *ArticleController) Dashboard(c *gin.Context) {
	dash, err := ac.stats.UserDashboard(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		ac.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

// Next answers 204 once the user has rated every article.
func (ac *ArticleController) Next(c *gin.Context) {
	article, err := ac.assignment.NextArticle(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		ac.writeError(c, err)
		return
	}
	if article == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article})
}

func (ac *ArticleController) View(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		ac.writeError(c, err)
		return
	}
	article, err := ac.articles.ViewForUser(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		ac.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article})
}

func (ac *ArticleController) Submit(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		ac.writeError(c, err)
		return
	}
	var input services.AnnotationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ac.writeError(c, bindError(err))
		return
	}
	ann, err := ac.annotate.Submit(c.Request.Context(), middleware.CurrentUser(c), id, input)
	if err != nil {
		ac.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "annotation": ann})
}
