package controllers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/cogload-backend/apperr"
	"github.com/vnkhanh/cogload-backend/middleware"
	"github.com/vnkhanh/cogload-backend/services"
)

const (
	maxUploadSize = 32 << 20
	csvType       = "text/csv; charset=utf-8"
	xlsxType      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type AdminController struct {
	admin      *services.AdminService
	writeError func(c *gin.Context, err error)
}

func NewAdminController(admin *services.AdminService, writeError func(c *gin.Context, err error)) *AdminController {
	return &AdminController{admin: admin, writeError: writeError}
}

func (ac *AdminController) Dashboard(c *gin.Context) {
	dash, err := ac.admin.Dashboard(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		ac.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (ac *AdminController) DailyStats(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			ac.writeError(c, apperr.Validation("days must be a positive integer"))
			return
		}
		days = n
	}
	list, err := ac.admin.DailyHistogram(c.Request.Context(), middleware.CurrentUser(c), days)
	if err != nil {
		ac.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": list})
}

func (ac *AdminController) UserAverages(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		ac.writeError(c, err)
		return
	}
	avg, err := ac.admin.UserAverages(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		ac.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"averages": avg})
}

func (ac *AdminController) ListArticles(c *gin.Context) {
	list, err := ac.admin.ListArticles(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		ac.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": list})
}

func (ac *AdminController) CreateArticle(c *gin.Context) {
	var input services.ArticleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ac.writeError(c, bindError(err))
		return
	}
	article, err := ac.admin.CreateArticle(c.Request.Context(), middleware.CurrentUser(c), input)
	if err != nil {
		ac.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"article": article})
}

func (ac *AdminController) ArticleAnnotations(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		ac.writeError(c, err)
		return
	}
	detail, err := ac.admin.ArticleAnnotations(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		ac.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Upload takes a multipart "file" field in any supported format.
func (ac *AdminController) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		ac.writeError(c, apperr.Validation("no file uploaded"))
		return
	}
	if fileHeader.Size > maxUploadSize {
		ac.writeError(c, apperr.Validation("file exceeds %d bytes", maxUploadSize))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		ac.writeError(c, apperr.Validation("cannot open uploaded file"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		ac.writeError(c, apperr.Validation("cannot read uploaded file"))
		return
	}

	articles, err := ac.admin.ImportFile(c.Request.Context(), middleware.CurrentUser(c), fileHeader.Filename, content)
	if err != nil {
		ac.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":  fmt.Sprintf("Successfully added %d articles.", len(articles)),
		"count":    len(articles),
		"articles": articles,
	})
}

type importURLInput struct {
	URL string `json:"url"`
}

func (ac *AdminController) ImportURL(c *gin.Context) {
	var input importURLInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ac.writeError(c, bindError(err))
		return
	}
	article, err := ac.admin.ImportURL(c.Request.Context(), middleware.CurrentUser(c), input.URL)
	if err != nil {
		ac.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"article": article})
}

func (ac *AdminController) ExportAnnotationsCSV(c *gin.Context) {
	var buf bytes.Buffer
	if err := ac.admin.ExportAnnotationsCSV(c.Request.Context(), middleware.CurrentUser(c), &buf); err != nil {
		ac.writeError(c, err)
		return
	}
	attachment(c, "annotations_export.csv", csvType, buf.Bytes())
}

func (ac *AdminController) ExportAnnotationsXLSX(c *gin.Context) {
	var buf bytes.Buffer
	if err := ac.admin.ExportAnnotationsXLSX(c.Request.Context(), middleware.CurrentUser(c), &buf); err != nil {
		ac.writeError(c, err)
		return
	}
	attachment(c, "annotations_export.xlsx", xlsxType, buf.Bytes())
}

func (ac *AdminController) ExportArticlesCSV(c *gin.Context) {
	var buf bytes.Buffer
	if err := ac.admin.ExportArticlesCSV(c.Request.Context(), middleware.CurrentUser(c), &buf); err != nil {
		ac.writeError(c, err)
		return
	}
	attachment(c, "articles_export.csv", csvType, buf.Bytes())
}

func (ac *AdminController) ExportArticleAnnotations(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		ac.writeError(c, err)
		return
	}
	var buf bytes.Buffer
	name, err := ac.admin.ExportArticleAnnotationsCSV(c.Request.Context(), middleware.CurrentUser(c), id, &buf)
	if err != nil {
		ac.writeError(c, err)
		return
	}
	attachment(c, name, csvType, buf.Bytes())
}

func (ac *AdminController) Archive(c *gin.Context) {
	url, err := ac.admin.ArchiveAnnotations(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		ac.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

func attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
