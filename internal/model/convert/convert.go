package convert

import (
	"encoding/json"
	"fmt"

	"github.com/oscmix/spatializer/internal/model"
	"github.com/oscmix/spatializer/pkg/core"
)

// LayoutToCore converts a GORM Layout to a core.Layout.
func LayoutToCore(m model.Layout) (core.Layout, error) {
	l := core.Layout{
		Name:    m.Name,
		SavedAt: m.SavedAt.UTC(),
	}
	if len(m.Positions) > 0 {
		if err := json.Unmarshal(m.Positions, &l.Positions); err != nil {
			return core.Layout{}, fmt.Errorf("decoding positions of %q: %w", m.Name, err)
		}
	}
	if len(m.Labels) > 0 {
		if err := json.Unmarshal(m.Labels, &l.Labels); err != nil {
			return core.Layout{}, fmt.Errorf("decoding labels of %q: %w", m.Name, err)
		}
	}
	return l, nil
}

// LayoutToInfo summarises a GORM Layout without decoding its contents.
func LayoutToInfo(m model.Layout) core.LayoutInfo {
	return core.LayoutInfo{
		Name:    m.Name,
		Objects: m.Objects,
		SavedAt: m.SavedAt.UTC(),
	}
}
