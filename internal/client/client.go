// Package client is an HTTP client for the taskboard API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taskboard/internal/models"
)

// APIError is a non-successful API response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api error: %d: %s", e.Status, e.Message)
}

// UserMessage is the server's message, suitable for showing to a user.
func (e *APIError) UserMessage() string {
	return e.Message
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client calls the taskboard API with a bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	stream  *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
		stream:  &http.Client{},
	}
}

// WithHTTPClient replaces the client used for regular requests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// do sends a request and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if method == http.MethodGet {
		req.Header.Set("Cache-Control", "no-cache")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	apiErr := &APIError{Status: resp.StatusCode}
	if json.Unmarshal(data, &body) == nil {
		apiErr.Message = body.Error
	}
	return apiErr
}

type boardListsResponse struct {
	Lists     []models.ListWithCards `json:"lists"`
	Timestamp int64                  `json:"timestamp"`
}

// BoardLists returns the lists of a board with their cards and labels.
func (c *Client) BoardLists(ctx context.Context, boardID string) ([]models.ListWithCards, error) {
	var resp boardListsResponse
	if err := c.do(ctx, http.MethodGet, "/api/boards/"+url.PathEscape(boardID)+"/lists", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Lists == nil {
		resp.Lists = []models.ListWithCards{}
	}
	return resp.Lists, nil
}

// MoveCard moves a card to position within listID.
func (c *Client) MoveCard(ctx context.Context, cardID, listID string, position int) error {
	body := map[string]any{"listId": listID, "position": position}
	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/cards/"+url.PathEscape(cardID)+"/move", body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &APIError{Status: http.StatusOK, Message: resp.Error}
	}
	return nil
}

// OpenBoardStream opens the board's event stream. The caller must close the
// returned body; cancelling ctx also ends the stream.
func (c *Client) OpenBoardStream(ctx context.Context, boardID string) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/boards/"+url.PathEscape(boardID)+"/stream", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to open board stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp.Body, nil
}

// ListBoards returns the caller's boards.
func (c *Client) ListBoards(ctx context.Context) ([]models.Board, error) {
	var boards []models.Board
	if err := c.do(ctx, http.MethodGet, "/api/boards", nil, &boards); err != nil {
		return nil, err
	}
	return boards, nil
}

// GetBoard returns a board's metadata.
func (c *Client) GetBoard(ctx context.Context, boardID string) (*models.Board, error) {
	var b models.Board
	if err := c.do(ctx, http.MethodGet, "/api/boards/"+url.PathEscape(boardID), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBoard creates a board owned by the caller.
func (c *Client) CreateBoard(ctx context.Context, title string, private bool) (*models.Board, error) {
	var b models.Board
	body := map[string]any{"title": title, "private": private}
	if err := c.do(ctx, http.MethodPost, "/api/boards", body, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateList appends a list to a board.
func (c *Client) CreateList(ctx context.Context, boardID, title string) (*models.List, error) {
	var l models.List
	body := map[string]string{"title": title}
	if err := c.do(ctx, http.MethodPost, "/api/boards/"+url.PathEscape(boardID)+"/lists", body, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateCard appends a card to a list.
func (c *Client) CreateCard(ctx context.Context, listID string, card models.Card) (*models.Card, error) {
	body := map[string]any{"title": card.Title, "description": card.Description}
	if card.DueDate != nil {
		body["dueDate"] = card.DueDate.Format("2006-01-02")
	}
	var created models.Card
	if err := c.do(ctx, http.MethodPost, "/api/lists/"+url.PathEscape(listID)+"/cards", body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// CreateLabel defines a label on a board.
func (c *Client) CreateLabel(ctx context.Context, boardID, name, color string) (*models.Label, error) {
	var l models.Label
	body := map[string]string{"name": name, "color": color}
	if err := c.do(ctx, http.MethodPost, "/api/boards/"+url.PathEscape(boardID)+"/labels", body, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// AddCardLabel attaches a label to a card.
func (c *Client) AddCardLabel(ctx context.Context, cardID, labelID string) error {
	path := "/api/cards/" + url.PathEscape(cardID) + "/labels/" + url.PathEscape(labelID)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// ListComments returns a card's comments.
func (c *Client) ListComments(ctx context.Context, cardID string) ([]models.Comment, error) {
	var comments []models.Comment
	if err := c.do(ctx, http.MethodGet, "/api/cards/"+url.PathEscape(cardID)+"/comments", nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}
