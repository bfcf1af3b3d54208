package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Layout{},
}

////////////////////////
// PANEL MODELS
////////////////////////

// Layout is a saved arrangement of the panel objects. Positions and labels
// are JSON arrays in registry order.
type Layout struct {
	gorm.Model
	Name      string         `json:"name" gorm:"size:127;uniqueIndex"`
	Objects   int            `json:"objects"`
	Positions datatypes.JSON `json:"positions"`
	Labels    datatypes.JSON `json:"labels"`
	SavedAt   time.Time      `json:"savedAt" gorm:"index"`
}

func (*Layout) TableName() string {
	return "layouts"
}
