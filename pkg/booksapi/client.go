// Package booksapi fetches book metadata from the Google Books volumes
// API, with rate-limit backoff and a circuit breaker in front of the
// upstream.
package booksapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

const baseURL = "https://www.googleapis.com/books/v1/volumes"

// Backoff schedule applied on 429 and network errors, one entry per retry.
var retryBackoff = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	5 * time.Second,
	10 * time.Second,
	20 * time.Second,
	30 * time.Second,
	60 * time.Second,
	90 * time.Second,
	120 * time.Second,
	180 * time.Second,
}

var (
	// ErrQuotaExceeded marks rate limiting that survived the whole backoff
	// schedule. It also trips the circuit breaker, so later calls fail
	// fast instead of sitting through the schedule again.
	ErrQuotaExceeded = errors.New("google books quota exceeded")
)

// Volume is the metadata extracted from one Google Books result.
type Volume struct {
	Isbn            string
	Isbn13          string
	Title           string
	Author          string
	Description     *string
	Categories      []string
	PageCount       *int
	Publisher       *string
	PublicationYear *int
	Language        *string
	AverageRating   *float64
	RatingsCount    *int
	CoverURL        *string
}

type Client struct {
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*Volume]

	// sleep is swappable in tests so the backoff schedule doesn't run in
	// real time.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(apiKey string) *Client {
	cb := gobreaker.NewCircuitBreaker[*Volume](gobreaker.Settings{
		Name:        "google-books",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     120 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Client{
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		breaker: cb,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FetchByIsbn looks a volume up by ISBN. Returns (nil, nil) when the
// catalog has no match; ErrQuotaExceeded when rate limiting exhausts the
// backoff schedule.
func (c *Client) FetchByIsbn(ctx context.Context, isbn string) (*Volume, error) {
	return c.breaker.Execute(func() (*Volume, error) {
		return c.fetchWithRetry(ctx, isbn)
	})
}

func (c *Client) fetchWithRetry(ctx context.Context, isbn string) (*Volume, error) {
	maxAttempts := len(retryBackoff)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		volume, retry, err := c.fetchOnce(ctx, isbn)
		if !retry {
			return volume, err
		}
		if attempt == maxAttempts-1 {
			break
		}
		wait := retryBackoff[attempt]
		log.Printf("google books backoff for ISBN %s (attempt %d/%d), retrying in %s", isbn, attempt+1, maxAttempts, wait)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("isbn %s: %w", isbn, ErrQuotaExceeded)
}

// fetchOnce returns retry=true only for rate limiting and transport
// errors; everything else resolves the call.
func (c *Client) fetchOnce(ctx context.Context, isbn string) (*Volume, bool, error) {
	params := url.Values{}
	params.Set("q", "isbn:"+isbn)
	params.Set("maxResults", "1")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		log.Printf("google books network error for ISBN %s: %v", isbn, err)
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("google books returned status %d for isbn %s", resp.StatusCode, isbn)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}

	var payload volumesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false, fmt.Errorf("parse google books response: %w", err)
	}

	if payload.TotalItems == 0 || len(payload.Items) == 0 {
		return nil, false, nil
	}

	return parseVolume(isbn, payload.Items[0].VolumeInfo), false, nil
}

type volumesResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo volumeInfo `json:"volumeInfo"`
	} `json:"items"`
}

type volumeInfo struct {
	Title               string   `json:"title"`
	Authors             []string `json:"authors"`
	Description         string   `json:"description"`
	Categories          []string `json:"categories"`
	PageCount           int      `json:"pageCount"`
	Publisher           string   `json:"publisher"`
	PublishedDate       string   `json:"publishedDate"`
	Language            string   `json:"language"`
	AverageRating       float64  `json:"averageRating"`
	RatingsCount        int      `json:"ratingsCount"`
	IndustryIdentifiers []struct {
		Type       string `json:"type"`
		Identifier string `json:"identifier"`
	} `json:"industryIdentifiers"`
	ImageLinks struct {
		Large     string `json:"large"`
		Medium    string `json:"medium"`
		Thumbnail string `json:"thumbnail"`
	} `json:"imageLinks"`
}

func parseVolume(isbn string, info volumeInfo) *Volume {
	v := &Volume{
		Isbn:   isbn,
		Isbn13: extractIsbn13(info),
		Title:  info.Title,
		Author: strings.Join(info.Authors, ", "),
	}
	if v.Title == "" {
		v.Title = "Unknown Title"
	}
	if v.Author == "" {
		v.Author = "Unknown Author"
	}
	if info.Description != "" {
		v.Description = &info.Description
	}
	v.Categories = info.Categories
	if info.PageCount > 0 {
		v.PageCount = &info.PageCount
	}
	if info.Publisher != "" {
		v.Publisher = &info.Publisher
	}
	if year := extractYear(info.PublishedDate); year != 0 {
		v.PublicationYear = &year
	}
	if info.Language != "" {
		v.Language = &info.Language
	}
	if info.AverageRating > 0 {
		v.AverageRating = &info.AverageRating
	}
	if info.RatingsCount > 0 {
		v.RatingsCount = &info.RatingsCount
	}
	if cover := extractCover(info); cover != "" {
		v.CoverURL = &cover
	}
	return v
}

func extractIsbn13(info volumeInfo) string {
	for _, id := range info.IndustryIdentifiers {
		if id.Type == "ISBN_13" {
			return id.Identifier
		}
	}
	return ""
}

// extractYear handles the date shapes the API returns: "2024", "2024-01"
// and "2024-01-15".
func extractYear(publishedDate string) int {
	if publishedDate == "" {
		return 0
	}
	yearStr := strings.SplitN(publishedDate, "-", 2)[0]
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 1000 || year > 2100 {
		return 0
	}
	return year
}

func extractCover(info volumeInfo) string {
	if info.ImageLinks.Large != "" {
		return info.ImageLinks.Large
	}
	if info.ImageLinks.Medium != "" {
		return info.ImageLinks.Medium
	}
	return info.ImageLinks.Thumbnail
}
