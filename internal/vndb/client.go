// Package vndb fetches visual novel metadata from the VNDB Kana API.
package vndb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/vrsandeep/vnshelf/internal/models"
)

const (
	DefaultAPIURL = "https://api.vndb.org/kana"

	vnFields = "title, titles.lang, titles.title, titles.main, titles.official, " +
		"image.url, image.sexual, image.violence, rating, length_minutes, developers.name, " +
		"tags.id, tags.name, tags.rating, tags.category, tags.spoiler"

	allAgeTagID = "g235" // "No Sexual Content"
	maxTags     = 10
)

var chineseLangs = []string{"zh-Hans", "zh-Hant", "zh"}

// ErrTokenMissing is returned when no API token has been configured.
var ErrTokenMissing = errors.New("VNDB API token is not configured")

// ProviderError is a non-2xx answer from the API.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("VNDB API error: %d - %s", e.Status, e.Message)
}

// TokenFunc returns the API token to send with each request.
type TokenFunc func(ctx context.Context) (string, error)

// Client implements a single-attempt metadata fetch.
type Client struct {
	client *http.Client
	apiURL string
	token  TokenFunc
}

// New creates a new Client. An empty apiURL selects the public endpoint.
func New(apiURL string, timeout time.Duration, token TokenFunc) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		client: &http.Client{Timeout: timeout},
		apiURL: strings.TrimRight(apiURL, "/"),
		token:  token,
	}
}

// Fetch retrieves and normalizes the metadata of one visual novel.
func (c *Client) Fetch(ctx context.Context, id string) (*models.Metadata, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrTokenMissing
	}

	body, err := json.Marshal(queryRequest{
		Filters: []any{"id", "=", "v" + strings.TrimPrefix(id, "v")},
		Fields:  vnFields,
		Results: 1,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/vn", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &ProviderError{Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	var apiResponse queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("decode VNDB response: %w", err)
	}
	if len(apiResponse.Results) == 0 {
		return nil, &ProviderError{Status: http.StatusNotFound, Message: "visual novel not found: " + id}
	}
	return normalize(&apiResponse.Results[0]), nil
}

func normalize(vn *vnResult) *models.Metadata {
	m := &models.Metadata{
		Title:      vn.Title,
		Developers: make([]string, 0, len(vn.Developers)),
		Tags:       []string{},
	}

	official, fan := "", ""
	for _, lang := range chineseLangs {
		for _, t := range vn.Titles {
			if t.Lang != lang {
				continue
			}
			if t.Official && official == "" {
				official = t.Title
			}
			if !t.Official && fan == "" {
				fan = t.Title
			}
		}
	}
	m.TitleCn = official
	if m.TitleCn == "" {
		m.TitleCn = fan
	}
	for _, t := range vn.Titles {
		if t.Lang == "ja" {
			m.TitleJa = t.Title
			break
		}
	}
	if m.TitleJa == "" {
		m.TitleJa = vn.Title
	}

	if vn.Image != nil {
		m.Image = vn.Image.URL
		m.ImageNsfw = vn.Image.Sexual > 1 || vn.Image.Violence > 1
	}
	if vn.Rating != nil {
		m.Rating = *vn.Rating / 10
	}
	if vn.LengthMinutes != nil {
		m.LengthMinutes = *vn.LengthMinutes
	}
	m.Length = FormatLength(m.LengthMinutes)

	for _, d := range vn.Developers {
		m.Developers = append(m.Developers, d.Name)
	}

	tags := make([]vnTag, 0, len(vn.Tags))
	for _, t := range vn.Tags {
		if t.ID == allAgeTagID {
			m.AllAge = true
		}
		if t.Rating > 1 && t.Category == "cont" && t.Spoiler == 0 {
			tags = append(tags, t)
		}
	}
	sort.SliceStable(tags, func(i, j int) bool { return tags[i].Rating > tags[j].Rating })
	for i, t := range tags {
		if i == maxTags {
			break
		}
		m.Tags = append(m.Tags, t.Name)
	}
	return m
}

// FormatLength renders a length in minutes the way it is shown in the UI.
func FormatLength(minutes int) string {
	if minutes <= 0 {
		return "未知"
	}
	hours, mins := minutes/60, minutes%60
	switch {
	case hours == 0:
		return fmt.Sprintf("%d分钟", mins)
	case mins == 0:
		return fmt.Sprintf("%d小时", hours)
	default:
		return fmt.Sprintf("%d小时%d分钟", hours, mins)
	}
}
