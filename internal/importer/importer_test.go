package importer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/models"
)

type fakeSource struct {
	board *Board
	err   error
}

func (f fakeSource) FetchBoard(ctx context.Context, boardID string) (*Board, error) {
	return f.board, f.err
}

// fakeTarget records creations in order and hands out sequential ids.
type fakeTarget struct {
	calls   []string
	labels  map[string][]string
	failOn  string
	counter int
}

func (f *fakeTarget) next(kind string) string {
	f.counter++
	return kind + "-" + strconv.Itoa(f.counter)
}

func (f *fakeTarget) record(call string) error {
	f.calls = append(f.calls, call)
	if f.failOn != "" && strings.HasPrefix(call, f.failOn) {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeTarget) CreateBoard(ctx context.Context, title string, private bool) (*models.Board, error) {
	if err := f.record("board " + title); err != nil {
		return nil, err
	}
	return &models.Board{ID: f.next("b"), Title: title, Private: private}, nil
}

func (f *fakeTarget) CreateList(ctx context.Context, boardID, title string) (*models.List, error) {
	if err := f.record("list " + title); err != nil {
		return nil, err
	}
	return &models.List{ID: f.next("l"), BoardID: boardID, Title: title}, nil
}

func (f *fakeTarget) CreateCard(ctx context.Context, listID string, card models.Card) (*models.Card, error) {
	if err := f.record("card " + card.Title); err != nil {
		return nil, err
	}
	card.ID = f.next("c")
	card.ListID = listID
	return &card, nil
}

func (f *fakeTarget) CreateLabel(ctx context.Context, boardID, name, color string) (*models.Label, error) {
	if err := f.record("label " + name + ":" + color); err != nil {
		return nil, err
	}
	return &models.Label{ID: "lbl-" + name, BoardID: boardID, Name: name, Color: color}, nil
}

func (f *fakeTarget) AddCardLabel(ctx context.Context, cardID, labelID string) error {
	if f.labels == nil {
		f.labels = map[string][]string{}
	}
	f.labels[cardID] = append(f.labels[cardID], labelID)
	return f.record("tag " + labelID)
}

func sourceBoard() *Board {
	return &Board{
		Name: "Launch",
		Labels: []Label{
			{ID: "t1", Name: "bug", Color: "red"},
			{ID: "t2", Name: "infra", Color: "blue_dark"},
			{ID: "t3", Name: "", Color: ""},
		},
		Lists: []List{
			{Name: "Todo", Cards: []Card{
				{Name: "Write docs", LabelIDs: []string{"t2", "t3"}},
				{Name: "Fix login", Desc: "500 on submit", LabelIDs: []string{"t1"}},
			}},
			{Name: "Done"},
		},
	}
}

func TestImport(t *testing.T) {
	logger, _ := test.NewNullLogger()
	target := &fakeTarget{}
	im := New(fakeSource{board: sourceBoard()}, target, logger)

	sum, err := im.Import(context.Background(), "trello-board")
	require.NoError(t, err)

	assert.Equal(t, Summary{BoardID: "b-1", Lists: 2, Cards: 2, Labels: 2}, sum)
	assert.Equal(t, []string{
		"board Launch",
		"label bug:red",
		"label infra:blue",
		"list Todo",
		"card Write docs",
		"tag lbl-infra",
		"card Fix login",
		"tag lbl-bug",
		"list Done",
	}, target.calls)
}

func TestImport_Errors(t *testing.T) {
	logger, _ := test.NewNullLogger()

	_, err := New(fakeSource{err: errors.New("rate limited")}, &fakeTarget{}, logger).
		Import(context.Background(), "x")
	assert.ErrorContains(t, err, "failed to fetch source board")

	target := &fakeTarget{failOn: "card Fix"}
	sum, err := New(fakeSource{board: sourceBoard()}, target, logger).Import(context.Background(), "x")
	assert.ErrorContains(t, err, `failed to create card "Fix login"`)
	assert.Equal(t, 1, sum.Cards)
}

func TestImport_UntitledBoard(t *testing.T) {
	target := &fakeTarget{}
	_, err := New(fakeSource{board: &Board{Name: "  "}}, target, nil).Import(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"board Imported board"}, target.calls)
}

func TestPaletteColor(t *testing.T) {
	tests := map[string]string{
		"green":       "green",
		"purple_dark": "purple",
		"SKY":         "sky",
		"":            "",
		"teal":        "",
	}
	for in, want := range tests {
		assert.Equal(t, want, paletteColor(in), in)
	}
}

func TestTrelloSource_FetchBoard(t *testing.T) {
	due := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	responses := map[string]any{
		"/boards/tb": map[string]any{"id": "tb", "name": "Launch"},
		"/boards/tb/lists": []map[string]any{
			{"id": "l2", "name": "Done", "pos": 2048},
			{"id": "l1", "name": "Todo", "pos": 1024},
			{"id": "l3", "name": "Old", "pos": 4096, "closed": true},
		},
		"/boards/tb/cards": []map[string]any{
			{"id": "c2", "name": "Second", "idList": "l1", "pos": 200},
			{"id": "c1", "name": "First", "idList": "l1", "pos": 100, "due": due, "idLabels": []string{"t1"}},
			{"id": "c3", "name": "Shipped", "idList": "l2", "pos": 50},
			{"id": "c4", "name": "Orphan", "idList": "l3", "pos": 10},
		},
		"/boards/tb/labels": []map[string]any{
			{"id": "t1", "name": "bug", "color": "red"},
		},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	src := NewTrelloSource("key", "token")
	src.client.BaseURL = srv.URL

	b, err := src.FetchBoard(context.Background(), "tb")
	require.NoError(t, err)

	assert.Equal(t, "Launch", b.Name)
	require.Len(t, b.Lists, 2)
	assert.Equal(t, "Todo", b.Lists[0].Name)
	assert.Equal(t, "Done", b.Lists[1].Name)

	todo := b.Lists[0].Cards
	require.Len(t, todo, 2)
	assert.Equal(t, "First", todo[0].Name)
	assert.Equal(t, []string{"t1"}, todo[0].LabelIDs)
	require.NotNil(t, todo[0].Due)
	assert.True(t, due.Equal(*todo[0].Due))
	assert.Equal(t, "Second", todo[1].Name)
	assert.Equal(t, "Shipped", b.Lists[1].Cards[0].Name)
	assert.Equal(t, []Label{{ID: "t1", Name: "bug", Color: "red"}}, b.Labels)
}
