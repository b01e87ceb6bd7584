package models

import (
	"errors"
	"strings"
)

// LabelColors is the palette a label may use.
var LabelColors = []string{"green", "yellow", "orange", "red", "purple", "blue", "sky", "lime", "pink", "black"}

// Label tags cards within a board.
type Label struct {
	ID      string `json:"id"`
	BoardID string `json:"boardId"`
	Name    string `json:"name"`
	Color   string `json:"color"`
}

// Validate checks that the label has valid field values.
func (l *Label) Validate() error {
	if l.BoardID == "" {
		return errors.New("board_id is required")
	}

	if strings.TrimSpace(l.Name) == "" && l.Color == "" {
		return errors.New("name or color is required")
	}

	if l.Color != "" && !validColor(l.Color) {
		return errors.New("color is not in the label palette")
	}

	return nil
}

func validColor(c string) bool {
	for _, known := range LabelColors {
		if known == c {
			return true
		}
	}
	return false
}
