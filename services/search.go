package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gallformers/apperr"
	"gallformers/metrics"
	"gallformers/models"
)

// SearchService finds galls on a host plant narrowed by optional facets.
type SearchService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewSearchService creates a new SearchService.
func NewSearchService(db *gorm.DB, logger *zap.Logger) *SearchService {
	return &SearchService{DB: db, Logger: logger}
}

// Search returns at most one gall per species, ordered by species name.
// Empty facets do not constrain the result. A gall with unknown
// detachability matches either detachable value.
func (s *SearchService) Search(ctx context.Context, q models.SearchQuery) ([]models.Gall, error) {
	if strings.TrimSpace(q.Host) == "" {
		metrics.SearchRequests.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: host is required", apperr.ErrValidation)
	}
	locations, err := NormalizeFacet(q.Locations)
	if err != nil {
		metrics.SearchRequests.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("locations: %w", err)
	}
	textures, err := NormalizeFacet(q.Textures)
	if err != nil {
		metrics.SearchRequests.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("textures: %w", err)
	}

	filter := s.DB.WithContext(ctx).Table("gall").Select("MIN(gall.id)")

	switch q.Detachable {
	case "0":
		filter = filter.Where("(gall.detachable IS NULL OR gall.detachable = ?)", 0)
	case "1":
		filter = filter.Where("(gall.detachable IS NULL OR gall.detachable = ?)", 1)
	}

	scalars := []struct {
		value string
		kind  models.FilterFieldKind
		fk    string
	}{
		{q.Color, models.KindColor, "color_id"},
		{q.Alignment, models.KindAlignment, "alignment_id"},
		{q.Shape, models.KindShape, "shape_id"},
		{q.Cells, models.KindCells, "cells_id"},
		{q.Walls, models.KindWalls, "walls_id"},
	}
	for _, f := range scalars {
		if f.value == "" {
			continue
		}
		spec, err := specFor(f.kind)
		if err != nil {
			return nil, err
		}
		filter = filter.Where("? IN (SELECT id FROM ? WHERE ? = ?)",
			clause.Column{Table: "gall", Name: f.fk},
			clause.Table{Name: spec.table},
			clause.Column{Name: spec.column},
			f.value,
		)
	}

	if len(locations) > 0 {
		filter = filter.Where("gall.id IN (SELECT gall_id FROM galllocation WHERE location_id IN (SELECT id FROM location WHERE location IN ?))", locations)
	}
	if len(textures) > 0 {
		filter = filter.Where("gall.id IN (SELECT gall_id FROM galltexture WHERE texture_id IN (SELECT id FROM texture WHERE texture IN ?))", textures)
	}

	filter = filter.
		Where("gall.species_id IN (SELECT host.gall_species_id FROM host JOIN species hs ON hs.id = host.host_species_id WHERE hs.name = ?)", q.Host).
		Group("gall.species_id")

	start := time.Now()
	var galls []models.Gall
	err = s.DB.WithContext(ctx).
		Preload("Alignment").
		Preload("Cells").
		Preload("Color").
		Preload("Shape").
		Preload("Walls").
		Preload("Locations.Location").
		Preload("Textures.Texture").
		Preload("Species.Hosts.HostSpecies").
		Where("gall.id IN (?)", filter).
		Find(&galls).Error
	metrics.SearchLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchRequests.WithLabelValues("error").Inc()
		metrics.StoreErrors.WithLabelValues("search").Inc()
		s.Logger.Error("Gall search failed", zap.String("host", q.Host), zap.Error(err))
		return nil, apperr.Store("search galls", err)
	}

	// the grouped query cannot order by a related column
	sort.SliceStable(galls, func(i, j int) bool {
		return speciesName(galls[i]) < speciesName(galls[j])
	})

	metrics.SearchRequests.WithLabelValues("ok").Inc()
	metrics.SearchResults.Observe(float64(len(galls)))
	s.Logger.Info("Gall search completed",
		zap.String("host", q.Host),
		zap.Strings("locations", locations),
		zap.Strings("textures", textures),
		zap.Int("results", len(galls)),
	)
	return galls, nil
}

func speciesName(g models.Gall) string {
	if g.Species == nil {
		return ""
	}
	return g.Species.Name
}
