package models

import "time"

// ImageCounts aggregates downloader outcomes.
type ImageCounts struct {
	Downloaded int `json:"downloaded"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// RunResult holds the overall result of a scraping run.
type RunResult struct {
	RunID      string             `json:"runId"`
	Success    bool               `json:"success"`
	WebsiteURL string             `json:"websiteUrl"`
	ArtistSlug string             `json:"artistSlug"`
	OutputDir  string             `json:"outputDir"`
	Platform   Platform           `json:"platform"`
	Strategy   string             `json:"strategy"`
	Escalated  bool               `json:"escalated"`
	StartTime  time.Time          `json:"startTime"`
	EndTime    time.Time          `json:"endTime"`
	Duration   time.Duration      `json:"duration"`
	PageCount  int                `json:"pageCount"`
	Listings   int                `json:"listings"`
	CvEntries  int                `json:"cvEntries"`
	Images     ImageCounts        `json:"images"`
	Errors     []ScrapeError      `json:"errors"`
	Warnings   int                `json:"warnings"`
	Data       *ScrapedArtistData `json:"-"`
}
