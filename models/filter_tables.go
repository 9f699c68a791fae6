package models

// The nine taxonomy tables share a shape: id, a value column named after the
// table and, for most of them, a free-text description.

type Location struct {
	ID          int    `json:"id" gorm:"primaryKey"`
	Location    string `json:"location" gorm:"not null"`
	Description string `json:"description" gorm:"not null;default:''"`
}

func (Location) TableName() string { return "location" }

type Color struct {
	ID    int    `json:"id" gorm:"primaryKey"`
	Color string `json:"color" gorm:"not null"`
}

func (Color) TableName() string { return "color" }

type Season struct {
	ID     int    `json:"id" gorm:"primaryKey"`
	Season string `json:"season" gorm:"not null"`
}

func (Season) TableName() string { return "season" }

type Shape struct {
	ID          int    `json:"id" gorm:"primaryKey"`
	Shape       string `json:"shape" gorm:"uniqueIndex;not null"`
	Description string `json:"description" gorm:"not null;default:''"`
}

func (Shape) TableName() string { return "shape" }

type Texture struct {
	ID          int    `json:"id" gorm:"primaryKey"`
	Texture     string `json:"texture" gorm:"uniqueIndex;not null"`
	Description string `json:"description" gorm:"not null;default:''"`
}

func (Texture) TableName() string { return "texture" }

type Alignment struct {
	ID          int    `json:"id" gorm:"primaryKey"`
	Alignment   string `json:"alignment" gorm:"uniqueIndex;not null"`
	Description string `json:"description" gorm:"not null;default:''"`
}

func (Alignment) TableName() string { return "alignment" }

type Walls struct {
	ID          int    `json:"id" gorm:"primaryKey"`
	Walls       string `json:"walls" gorm:"uniqueIndex;not null"`
	Description string `json:"description" gorm:"not null;default:''"`
}

func (Walls) TableName() string { return "walls" }

type Cells struct {
	ID          int    `json:"id" gorm:"primaryKey"`
	Cells       string `json:"cells" gorm:"uniqueIndex;not null"`
	Description string `json:"description" gorm:"not null;default:''"`
}

func (Cells) TableName() string { return "cells" }

type Form struct {
	ID          int    `json:"id" gorm:"primaryKey"`
	Form        string `json:"form" gorm:"uniqueIndex;not null"`
	Description string `json:"description" gorm:"not null;default:''"`
}

func (Form) TableName() string { return "form" }
