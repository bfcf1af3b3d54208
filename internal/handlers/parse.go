package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oscmix/spatializer/internal/geo"
	"github.com/oscmix/spatializer/internal/selection"
)

// ParseHits parses pointer candidates written as "object:3" or "label:2".
func ParseHits(args []string) ([]selection.Hit, error) {
	hits := make([]selection.Hit, 0, len(args))
	for _, a := range args {
		kind, id, ok := strings.Cut(strings.TrimSpace(a), ":")
		if !ok {
			return nil, fmt.Errorf("hit %q: want kind:id", a)
		}
		n, err := parseInt(id)
		if err != nil {
			return nil, fmt.Errorf("hit %q: %w", a, err)
		}
		switch strings.ToLower(kind) {
		case "object":
			hits = append(hits, selection.ObjectHit(n))
		case "label":
			hits = append(hits, selection.LabelHit(n))
		default:
			return nil, fmt.Errorf("hit %q: unknown kind %q", a, kind)
		}
	}
	return hits, nil
}

// ParsePoint parses an x and y argument pair.
func ParsePoint(args []string) (geo.Position, error) {
	if len(args) != 2 {
		return geo.Position{}, fmt.Errorf("want x and y, got %d args", len(args))
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
	if err != nil {
		return geo.Position{}, fmt.Errorf("x: %w", err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(args[1]), 64)
	if err != nil {
		return geo.Position{}, fmt.Errorf("y: %w", err)
	}
	return geo.Position{X: x, Y: y}, nil
}

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return n, nil
}
