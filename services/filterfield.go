package services

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gallformers/apperr"
	"gallformers/metrics"
	"gallformers/models"
)

// kindSpec describes where a filter field kind lives in the database.
type kindSpec struct {
	table     string
	column    string
	described bool
	sorted    bool
}

func specFor(kind models.FilterFieldKind) (kindSpec, error) {
	switch kind {
	case models.KindLocation:
		return kindSpec{table: "location", column: "location", described: true, sorted: true}, nil
	case models.KindColor:
		return kindSpec{table: "color", column: "color", sorted: true}, nil
	case models.KindSeason:
		// seasons keep their insertion order
		return kindSpec{table: "season", column: "season"}, nil
	case models.KindShape:
		return kindSpec{table: "shape", column: "shape", described: true, sorted: true}, nil
	case models.KindTexture:
		return kindSpec{table: "texture", column: "texture", described: true, sorted: true}, nil
	case models.KindAlignment:
		return kindSpec{table: "alignment", column: "alignment", described: true, sorted: true}, nil
	case models.KindWalls:
		return kindSpec{table: "walls", column: "walls", described: true, sorted: true}, nil
	case models.KindCells:
		return kindSpec{table: "cells", column: "cells", described: true, sorted: true}, nil
	case models.KindForm:
		return kindSpec{table: "form", column: "form", described: true, sorted: true}, nil
	}
	return kindSpec{}, fmt.Errorf("%w: %q", apperr.ErrUnsupportedKind, kind)
}

type filterFieldRow struct {
	ID          int
	Field       string
	Description *string
}

func (r filterFieldRow) toFilterField() models.FilterField {
	return models.FilterField{ID: r.ID, Field: r.Field, Description: r.Description}
}

// FilterFieldService reads and writes the nine taxonomy tables through one interface.
type FilterFieldService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewFilterFieldService creates a new FilterFieldService.
func NewFilterFieldService(db *gorm.DB, logger *zap.Logger) *FilterFieldService {
	return &FilterFieldService{DB: db, Logger: logger}
}

func selectFields(db *gorm.DB, spec kindSpec) *gorm.DB {
	q := db.Table(spec.table)
	if spec.described {
		return q.Select("id, ? AS field, description", clause.Column{Name: spec.column})
	}
	return q.Select("id, ? AS field", clause.Column{Name: spec.column})
}

func (s *FilterFieldService) storeErr(op string, kind models.FilterFieldKind, err error) error {
	metrics.StoreErrors.WithLabelValues(op).Inc()
	s.Logger.Error("Filter field query failed", zap.String("op", op), zap.String("kind", string(kind)), zap.Error(err))
	return apperr.Store(fmt.Sprintf("%s %s", op, kind), err)
}

// List returns all values of kind ordered by value. Seasons come back unordered.
func (s *FilterFieldService) List(ctx context.Context, kind models.FilterFieldKind) ([]models.FilterField, error) {
	spec, err := specFor(kind)
	if err != nil {
		return nil, err
	}

	q := selectFields(s.DB.WithContext(ctx), spec)
	if spec.sorted {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: spec.column}})
	}
	var rows []filterFieldRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, s.storeErr("list", kind, err)
	}
	return toFilterFields(rows), nil
}

// FindByID returns the value with id, or an empty slice.
func (s *FilterFieldService) FindByID(ctx context.Context, kind models.FilterFieldKind, id int) ([]models.FilterField, error) {
	spec, err := specFor(kind)
	if err != nil {
		return nil, err
	}

	var rows []filterFieldRow
	if err := selectFields(s.DB.WithContext(ctx), spec).Where("id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, s.storeErr("find by id", kind, err)
	}
	return toFilterFields(rows), nil
}

// FindByName returns every value of kind whose text equals name exactly.
func (s *FilterFieldService) FindByName(ctx context.Context, kind models.FilterFieldKind, name string) ([]models.FilterField, error) {
	spec, err := specFor(kind)
	if err != nil {
		return nil, err
	}

	var rows []filterFieldRow
	err = selectFields(s.DB.WithContext(ctx), spec).
		Where(clause.Eq{Column: clause.Column{Name: spec.column}, Value: name}).
		Order("id").
		Scan(&rows).Error
	if err != nil {
		return nil, s.storeErr("find by name", kind, err)
	}
	return toFilterFields(rows), nil
}

// Upsert updates the row with in.ID when it exists and inserts a new row
// otherwise. A missing description is written as an empty string.
func (s *FilterFieldService) Upsert(ctx context.Context, in models.FilterFieldWithKind) (models.FilterField, error) {
	spec, err := specFor(in.Kind)
	if err != nil {
		return models.FilterField{}, err
	}

	desc := ""
	if in.Description != nil {
		desc = *in.Description
	}

	var row filterFieldRow
	op := "update"
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id := in.ID
		if id > 0 {
			values := map[string]any{spec.column: in.Field}
			if spec.described {
				values["description"] = desc
			}
			res := tx.Table(spec.table).Where("id = ?", id).Updates(values)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				id = 0
			}
		}

		if id <= 0 {
			op = "create"
			var res *gorm.DB
			if spec.described {
				res = tx.Raw("INSERT INTO ? (?, description) VALUES (?, ?) RETURNING id",
					clause.Table{Name: spec.table}, clause.Column{Name: spec.column}, in.Field, desc)
			} else {
				res = tx.Raw("INSERT INTO ? (?) VALUES (?) RETURNING id",
					clause.Table{Name: spec.table}, clause.Column{Name: spec.column}, in.Field)
			}
			if err := res.Scan(&id).Error; err != nil {
				return err
			}
		}

		return selectFields(tx, spec).Where("id = ?", id).Take(&row).Error
	})
	if err != nil {
		return models.FilterField{}, s.storeErr("upsert", in.Kind, err)
	}

	metrics.FilterFieldMutations.WithLabelValues(string(in.Kind), op).Inc()
	s.Logger.Info("Filter field saved",
		zap.String("kind", string(in.Kind)),
		zap.String("op", op),
		zap.Int("id", row.ID),
		zap.String("field", row.Field),
	)
	return row.toFilterField(), nil
}

// Delete removes exactly one row. A missing row is reported as apperr.ErrNotFound.
func (s *FilterFieldService) Delete(ctx context.Context, kind models.FilterFieldKind, id int) (models.DeleteResult, error) {
	spec, err := specFor(kind)
	if err != nil {
		return models.DeleteResult{}, err
	}

	res := s.DB.WithContext(ctx).Exec("DELETE FROM ? WHERE id = ?", clause.Table{Name: spec.table}, id)
	if res.Error != nil {
		return models.DeleteResult{}, s.storeErr("delete", kind, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.DeleteResult{}, fmt.Errorf("delete %s %d: %w", kind, id, apperr.ErrNotFound)
	}

	metrics.FilterFieldMutations.WithLabelValues(string(kind), "delete").Inc()
	s.Logger.Info("Filter field deleted", zap.String("kind", string(kind)), zap.Int("id", id))
	return models.DeleteResult{Kind: kind, Name: strconv.Itoa(id), Count: 1}, nil
}

func toFilterFields(rows []filterFieldRow) []models.FilterField {
	out := make([]models.FilterField, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toFilterField())
	}
	return out
}
