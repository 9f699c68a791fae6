package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gallformers/apperr"
	"gallformers/models"
	"gallformers/services"
)

func newRouter(filterFields *services.FilterFieldService, search *services.SearchService, images *services.ImageService, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	setupFilterFieldRoutes(router, filterFields, log)
	setupSearchRoutes(router, search, log)
	setupImageRoutes(router, images, log)
	return router
}

// respondError maps service errors onto HTTP status codes.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrUnsupportedKind):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
	}
}

func kindParam(c *gin.Context) (models.FilterFieldKind, error) {
	return models.ParseFilterFieldKind(c.Param("kind"))
}

func setupFilterFieldRoutes(router *gin.Engine, svc *services.FilterFieldService, log *zap.Logger) {
	rg := router.Group("/filter-fields")

	// ?id= or ?name= narrow the list to matching rows
	rg.GET("/:kind", func(c *gin.Context) {
		kind, err := kindParam(c)
		if err != nil {
			respondError(c, log, err)
			return
		}

		var fields []models.FilterField
		switch {
		case c.Query("id") != "":
			id, convErr := strconv.Atoi(c.Query("id"))
			if convErr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
				return
			}
			fields, err = svc.FindByID(c.Request.Context(), kind, id)
		case c.Query("name") != "":
			fields, err = svc.FindByName(c.Request.Context(), kind, c.Query("name"))
		default:
			fields, err = svc.List(c.Request.Context(), kind)
		}
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, fields)
	})

	rg.POST("/:kind", func(c *gin.Context) {
		kind, err := kindParam(c)
		if err != nil {
			respondError(c, log, err)
			return
		}
		var field models.FilterField
		if err := c.ShouldBindJSON(&field); err != nil || field.Field == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		saved, err := svc.Upsert(c.Request.Context(), models.FilterFieldWithKind{FilterField: field, Kind: kind})
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, saved)
	})

	rg.DELETE("/:kind/:id", func(c *gin.Context) {
		kind, err := kindParam(c)
		if err != nil {
			respondError(c, log, err)
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		res, err := svc.Delete(c.Request.Context(), kind, id)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})
}

func setupSearchRoutes(router *gin.Engine, svc *services.SearchService, log *zap.Logger) {
	run := func(c *gin.Context, q models.SearchQuery) {
		galls, err := svc.Search(c.Request.Context(), q)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, galls)
	}

	router.GET("/search", func(c *gin.Context) {
		run(c, models.SearchQuery{
			Host:       c.Query("host"),
			Detachable: c.Query("detachable"),
			Alignment:  c.Query("alignment"),
			Walls:      c.Query("walls"),
			Color:      c.Query("color"),
			Shape:      c.Query("shape"),
			Cells:      c.Query("cells"),
			Locations:  models.RawList(c.QueryArray("locations")...),
			Textures:   models.RawList(c.QueryArray("textures")...),
		})
	})

	router.POST("/search", func(c *gin.Context) {
		var q models.SearchQuery
		if err := c.ShouldBindJSON(&q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		run(c, q)
	})
}

func setupImageRoutes(router *gin.Engine, svc *services.ImageService, log *zap.Logger) {
	router.GET("/species/:id/images", func(c *gin.Context) {
		speciesID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid species id"})
			return
		}
		var ids []int
		for _, raw := range c.QueryArray("id") {
			id, err := strconv.Atoi(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image id"})
				return
			}
			ids = append(ids, id)
		}

		paths, err := svc.Paths(c.Request.Context(), speciesID, ids...)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, paths)
	})

	router.POST("/images/presign", func(c *gin.Context) {
		var req struct {
			SpeciesID int    `json:"species_id"`
			Path      string `json:"path"`
			Ext       string `json:"ext"`
			Mime      string `json:"mime" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		path := req.Path
		if path == "" {
			if req.SpeciesID <= 0 || req.Ext == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "species_id and ext or path required"})
				return
			}
			path = svc.NewUploadPath(req.SpeciesID, req.Ext)
		}

		url, err := svc.PresignUpload(c.Request.Context(), path, req.Mime)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"path": path, "url": url})
	})

	router.DELETE("/images", func(c *gin.Context) {
		var req struct {
			IDs []int `json:"ids" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		n, err := svc.Delete(c.Request.Context(), req.IDs)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": n})
	})
}
