// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/oscmix/spatializer/internal/model"
	"github.com/oscmix/spatializer/pkg/core"
)

// toJSON marshals v for a JSON column. A nil slice is stored as an empty array.
func toJSON[T any](v []T) (datatypes.JSON, error) {
	if len(v) == 0 {
		return datatypes.JSON("[]"), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

// CoreToLayout converts a core.Layout to a GORM model.Layout.
func CoreToLayout(l core.Layout) (model.Layout, error) {
	positions, err := toJSON(l.Positions)
	if err != nil {
		return model.Layout{}, fmt.Errorf("encoding positions: %w", err)
	}
	labels, err := toJSON(l.Labels)
	if err != nil {
		return model.Layout{}, fmt.Errorf("encoding labels: %w", err)
	}
	return model.Layout{
		Name:      l.Name,
		Objects:   len(l.Positions),
		Positions: positions,
		Labels:    labels,
		SavedAt:   l.SavedAt.UTC(),
	}, nil
}
