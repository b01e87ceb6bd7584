package models

import (
	"strings"
	"testing"
	"time"
)

func TestCardValidation_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		card    Card
		wantErr bool
		errMsg  string
	}{
		{
			name:    "empty title should fail",
			card:    Card{Title: "", ListID: "l1"},
			wantErr: true,
			errMsg:  "title is required",
		},
		{
			name:    "missing list should fail",
			card:    Card{Title: "Write docs"},
			wantErr: true,
			errMsg:  "list_id is required",
		},
		{
			name:    "long title should fail",
			card:    Card{Title: strings.Repeat("x", 513), ListID: "l1"},
			wantErr: true,
			errMsg:  "title must be 512 characters or fewer",
		},
		{
			name:    "negative position should fail",
			card:    Card{Title: "Write docs", ListID: "l1", Position: -1},
			wantErr: true,
			errMsg:  "position must not be negative",
		},
		{
			name:    "valid card should pass",
			card:    Card{Title: "Write docs", ListID: "l1"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.card.Validate()
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				} else if err.Error() != tt.errMsg {
					t.Errorf("expected error %q, got %q", tt.errMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestCard_IsOverdue(t *testing.T) {
	yesterday := time.Now().AddDate(0, 0, -1)
	tomorrow := time.Now().AddDate(0, 0, 1)

	tests := []struct {
		name     string
		card     Card
		expected bool
	}{
		{name: "past due date is overdue", card: Card{DueDate: &yesterday}, expected: true},
		{name: "future due date is not overdue", card: Card{DueDate: &tomorrow}, expected: false},
		{name: "no due date is not overdue", card: Card{}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.card.IsOverdue(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestListValidation(t *testing.T) {
	tests := []struct {
		name    string
		list    List
		wantErr bool
	}{
		{name: "valid list", list: List{Title: "Todo", BoardID: "b1"}},
		{name: "missing title", list: List{BoardID: "b1"}, wantErr: true},
		{name: "missing board", list: List{Title: "Todo"}, wantErr: true},
		{name: "negative position", list: List{Title: "Todo", BoardID: "b1", Position: -2}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.list.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLabelValidation(t *testing.T) {
	tests := []struct {
		name    string
		label   Label
		wantErr bool
	}{
		{name: "name only", label: Label{BoardID: "b1", Name: "bug"}},
		{name: "color only", label: Label{BoardID: "b1", Color: "red"}},
		{name: "neither name nor color", label: Label{BoardID: "b1"}, wantErr: true},
		{name: "unknown color", label: Label{BoardID: "b1", Name: "bug", Color: "magenta"}, wantErr: true},
		{name: "missing board", label: Label{Name: "bug"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.label.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCommentValidation(t *testing.T) {
	if err := (&Comment{CardID: "c", UserID: "u", Body: " "}).Validate(); err == nil {
		t.Error("expected blank body to fail")
	}
	if err := (&Comment{CardID: "c", UserID: "u", Body: "lgtm"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
