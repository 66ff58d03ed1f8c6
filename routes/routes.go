package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/cogload-backend/controllers"
)

type Controllers struct {
	Health   *controllers.HealthController
	Auth     *controllers.AuthController
	Articles *controllers.ArticleController
	Admin    *controllers.AdminController
}

// SetupRouter registers every API route. requireAuth guards the user and
// admin groups; admin checks happen in the service layer.
func SetupRouter(r *gin.Engine, ctrl Controllers, requireAuth gin.HandlerFunc) *gin.Engine {
	r.GET("/ping", ctrl.Health.Ping)
	r.GET("/health", ctrl.Health.Health)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", ctrl.Auth.Register)
		auth.POST("/login", ctrl.Auth.Login)
	}

	me := api.Group("/me", requireAuth)
	{
		me.GET("/dashboard", ctrl.Articles.Dashboard)
	}

	articles := api.Group("/articles", requireAuth)
	{
		articles.GET("/next", ctrl.Articles.Next)
		articles.GET("/:id", ctrl.Articles.View)
		articles.POST("/:id/annotations", ctrl.Articles.Submit)
	}

	admin := api.Group("/admin", requireAuth)
	{
		admin.GET("/dashboard", ctrl.Admin.Dashboard)
		admin.GET("/stats/daily", ctrl.Admin.DailyStats)
		admin.GET("/users/:id/averages", ctrl.Admin.UserAverages)

		admin.GET("/articles", ctrl.Admin.ListArticles)
		admin.POST("/articles", ctrl.Admin.CreateArticle)
		admin.POST("/articles/upload", ctrl.Admin.Upload)
		admin.POST("/articles/import-url", ctrl.Admin.ImportURL)
		admin.GET("/articles/:id/annotations", ctrl.Admin.ArticleAnnotations)
		admin.GET("/articles/:id/export.csv", ctrl.Admin.ExportArticleAnnotations)

		admin.GET("/export/annotations.csv", ctrl.Admin.ExportAnnotationsCSV)
		admin.GET("/export/annotations.xlsx", ctrl.Admin.ExportAnnotationsXLSX)
		admin.GET("/export/articles.csv", ctrl.Admin.ExportArticlesCSV)
		admin.POST("/export/archive", ctrl.Admin.Archive)
	}

	return r
}
