// Package client provides a Go client for the Inkwell API.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is an Inkwell API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string
	TokenExp   time.Time
}

// New creates a new Inkwell client.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Errors
var (
	ErrAlreadyRegistered  = errors.New("already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User represents a user from the API.
type User struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Nickname      string `json:"nickname"`
	Bio           string `json:"bio"`
	Role          int    `json:"role"`
	FollowerCount int    `json:"follower_count"`
}

// Article represents an article from the API.
type Article struct {
	ID            int64  `json:"id"`
	AuthorID      int64  `json:"author_id"`
	AuthorName    string `json:"author_name"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	LikeCount     int    `json:"like_count"`
	FavoriteCount int    `json:"favorite_count"`
	CommentCount  int    `json:"comment_count"`
}

// Comment represents a comment from the API.
type Comment struct {
	ID         int64  `json:"id"`
	ArticleID  int64  `json:"article_id"`
	AuthorID   int64  `json:"author_id"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
	LikeCount  int    `json:"like_count"`
}

// ToggleResult is the state reported back by a like/favorite/follow call.
type ToggleResult struct {
	Active bool
	Count  int
}

// Register creates a new user account.
func (c *Client) Register(username, password, nickname string) (*User, error) {
	reqBody := map[string]string{
		"username": username,
		"password": password,
		"nickname": nickname,
	}
	resp, err := c.doRequest(http.MethodPost, "/api/users/register", reqBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return nil, ErrAlreadyRegistered
	}
	if resp.StatusCode != http.StatusOK {
		return nil, responseError("register", resp)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a bearer token and stores it on the client.
func (c *Client) Login(username, password string) error {
	reqBody := map[string]string{"username": username, "password": password}
	resp, err := c.doRequest(http.MethodPost, "/api/users/login", reqBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return responseError("login", resp)
	}

	var result struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	c.Token = result.Token
	c.TokenExp = time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
	return nil
}

// RegisterAndLogin is a convenience method that registers (if needed) and logs in.
func (c *Client) RegisterAndLogin(username, password string) error {
	_, err := c.Register(username, password, username)
	if err != nil && !errors.Is(err, ErrAlreadyRegistered) {
		return fmt.Errorf("register: %w", err)
	}
	return c.Login(username, password)
}

// IsAuthenticated returns true if the client has a non-expired token.
func (c *Client) IsAuthenticated() bool {
	return c.Token != "" && time.Now().Before(c.TokenExp)
}

// Me fetches the profile of the token's user.
func (c *Client) Me() (*User, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/users/me", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError("me", resp)
	}
	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// PublishArticle creates a new article.
func (c *Client) PublishArticle(title, content string) (*Article, error) {
	reqBody := map[string]string{"title": title, "content": content}
	resp, err := c.doRequest(http.MethodPost, "/api/articles/publish", reqBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError("publish article", resp)
	}
	var article Article
	if err := json.NewDecoder(resp.Body).Decode(&article); err != nil {
		return nil, err
	}
	return &article, nil
}

// GetArticle fetches a single article.
func (c *Client) GetArticle(id int64) (*Article, error) {
	resp, err := c.doRequest(http.MethodGet, fmt.Sprintf("/api/articles/%d", id), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError("get article", resp)
	}
	var article Article
	if err := json.NewDecoder(resp.Body).Decode(&article); err != nil {
		return nil, err
	}
	return &article, nil
}

// ListArticles fetches the newest articles.
func (c *Client) ListArticles(limit int) ([]Article, error) {
	resp, err := c.doRequest(http.MethodGet, fmt.Sprintf("/api/articles?limit=%d", limit), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError("list articles", resp)
	}
	var result struct {
		Articles []Article `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result.Articles, nil
}

// DeleteArticle deletes an article you own.
func (c *Client) DeleteArticle(id int64) error {
	resp, err := c.doRequest(http.MethodDelete, fmt.Sprintf("/api/articles/delete/%d", id), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return responseError("delete article", resp)
	}
	return nil
}

// LikeArticle toggles the article like ON.
func (c *Client) LikeArticle(id int64) (ToggleResult, error) {
	return c.toggle(fmt.Sprintf("/api/articles/%d/like", id), "liked", "like_count")
}

// UnlikeArticle toggles the article like OFF.
func (c *Client) UnlikeArticle(id int64) (ToggleResult, error) {
	return c.toggle(fmt.Sprintf("/api/articles/%d/unlike", id), "liked", "like_count")
}

// FavoriteArticle toggles the article favorite ON.
func (c *Client) FavoriteArticle(id int64) (ToggleResult, error) {
	return c.toggle(fmt.Sprintf("/api/articles/%d/favorite", id), "favorited", "favorite_count")
}

// Follow toggles the follow relation ON for the target user.
func (c *Client) Follow(userID int64) (ToggleResult, error) {
	return c.toggle(fmt.Sprintf("/api/users/%d/follow", userID), "following", "follower_count")
}

// Unfollow toggles the follow relation OFF for the target user.
func (c *Client) Unfollow(userID int64) (ToggleResult, error) {
	return c.toggle(fmt.Sprintf("/api/users/%d/unfollow", userID), "following", "follower_count")
}

// PostComment creates a comment on an article.
func (c *Client) PostComment(articleID int64, content string) (*Comment, error) {
	reqBody := map[string]any{"article_id": articleID, "content": content}
	resp, err := c.doRequest(http.MethodPost, "/api/comments", reqBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError("post comment", resp)
	}
	var comment Comment
	if err := json.NewDecoder(resp.Body).Decode(&comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetComments fetches comments for an article.
func (c *Client) GetComments(articleID int64) ([]Comment, error) {
	resp, err := c.doRequest(http.MethodGet, fmt.Sprintf("/api/articles/%d/comments", articleID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError("get comments", resp)
	}
	var result struct {
		Comments []Comment `json:"comments"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result.Comments, nil
}

func (c *Client) toggle(path, activeField, countField string) (ToggleResult, error) {
	resp, err := c.doRequest(http.MethodPost, path, nil)
	if err != nil {
		return ToggleResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ToggleResult{}, responseError("toggle", resp)
	}
	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return ToggleResult{}, err
	}
	res := ToggleResult{}
	if v, ok := raw[activeField].(bool); ok {
		res.Active = v
	}
	if v, ok := raw[countField].(float64); ok {
		res.Count = int(v)
	}
	return res, nil
}

// doRequest performs an HTTP request, attaching the bearer token if present.
func (c *Client) doRequest(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return c.HTTPClient.Do(req)
}

func responseError(action string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("%s failed (%d): %s", action, resp.StatusCode, string(body))
}

// TestHelper provides utilities for creating authenticated clients in tests.
type TestHelper struct {
	BaseURL string
}

// NewTestHelper creates a new test helper for the given base URL.
func NewTestHelper(baseURL string) *TestHelper {
	return &TestHelper{BaseURL: baseURL}
}

// CreateAuthenticatedClient registers a user with the given name and returns
// a logged-in client. This is a convenience method for tests.
func (h *TestHelper) CreateAuthenticatedClient(name string) (*Client, error) {
	c := New(h.BaseURL)
	if err := c.RegisterAndLogin(name, name+"-password"); err != nil {
		return nil, err
	}
	return c, nil
}

// GetToken registers a user (if needed) and returns a bearer token.
func (h *TestHelper) GetToken(name string) (string, error) {
	c, err := h.CreateAuthenticatedClient(name)
	if err != nil {
		return "", err
	}
	return c.Token, nil
}
