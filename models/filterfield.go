package models

import (
	"encoding/json"
	"fmt"

	"gallformers/apperr"
)

// FilterFieldKind names one of the taxonomy tables used as search facets.
type FilterFieldKind string

const (
	KindLocation  FilterFieldKind = "location"
	KindColor     FilterFieldKind = "color"
	KindSeason    FilterFieldKind = "season"
	KindShape     FilterFieldKind = "shape"
	KindTexture   FilterFieldKind = "texture"
	KindAlignment FilterFieldKind = "alignment"
	KindWalls     FilterFieldKind = "walls"
	KindCells     FilterFieldKind = "cells"
	KindForm      FilterFieldKind = "form"
)

// FilterFieldKinds lists every kind in a stable order.
var FilterFieldKinds = []FilterFieldKind{
	KindLocation, KindColor, KindSeason, KindShape, KindTexture,
	KindAlignment, KindWalls, KindCells, KindForm,
}

// ParseFilterFieldKind validates a kind tag coming from outside the process.
func ParseFilterFieldKind(s string) (FilterFieldKind, error) {
	for _, k := range FilterFieldKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", apperr.ErrUnsupportedKind, s)
}

// FilterField is the shared read shape of all nine kinds. Description is nil
// for kinds that have no description column.
type FilterField struct {
	ID          int     `json:"id"`
	Field       string  `json:"field"`
	Description *string `json:"description,omitempty"`
}

// FilterFieldWithKind is the upsert input. An ID of 0 or less means the row does not exist yet.
type FilterFieldWithKind struct {
	FilterField
	Kind FilterFieldKind `json:"kind"`
}

// DeleteResult reports a single-row delete. Name echoes the deleted id.
type DeleteResult struct {
	Kind  FilterFieldKind `json:"kind"`
	Name  string          `json:"name"`
	Count int             `json:"count"`
}

// SearchQuery carries the raw facet values of a gall search. Host is required;
// everything else narrows the result only when set.
type SearchQuery struct {
	Host       string     `json:"host" form:"host"`
	Detachable string     `json:"detachable" form:"detachable"`
	Alignment  string     `json:"alignment" form:"alignment"`
	Walls      string     `json:"walls" form:"walls"`
	Color      string     `json:"color" form:"color"`
	Shape      string     `json:"shape" form:"shape"`
	Cells      string     `json:"cells" form:"cells"`
	Locations  StringList `json:"locations"`
	Textures   StringList `json:"textures"`
}

// StringList is a list facet as the caller sent it. Sequence is set when the
// values arrived as a real list; otherwise a single value is raw text that may
// still hold an encoded list.
type StringList struct {
	Values   []string
	Sequence bool
}

// ListOf wraps values that are already a list.
func ListOf(values ...string) StringList {
	if values == nil {
		values = []string{}
	}
	return StringList{Values: values, Sequence: true}
}

// RawList wraps text values such as repeated query parameters.
func RawList(values ...string) StringList {
	return StringList{Values: values}
}

func (l *StringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = StringList{}
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = RawList(one)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("%w: expected string or array of strings", apperr.ErrValidation)
	}
	*l = ListOf(many...)
	return nil
}

func (l StringList) MarshalJSON() ([]byte, error) {
	if l.Values == nil {
		return []byte("null"), nil
	}
	if !l.Sequence && len(l.Values) == 1 {
		return json.Marshal(l.Values[0])
	}
	return json.Marshal(l.Values)
}
