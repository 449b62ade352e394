// Package handlers holds the view models shared by the page templates.
package handlers

import (
	"html/template"

	"github.com/ZiiHuang/nestguard-website/internal/content"
	"github.com/ZiiHuang/nestguard-website/internal/loader"
)

const (
	defaultTitle   = "Nestguard Rentals"
	defaultHeading = "Available rentals"
	defaultSummary = "Browse the homes currently available for rent."
)

// SEOData is the head metadata for a page.
type SEOData struct {
	Title       string
	Description string
	Canonical   string
}

// PageData is the view model for the base layout.
type PageData struct {
	Title   string
	Heading string
	Summary string
	Intro   template.HTML
	SEO     SEOData
	Path    string

	// GridID and RentalsPath wire the listings container to the loader endpoint.
	GridID      string
	RentalsPath string
	Dev         bool
}

// BuildHomeData constructs the landing page view model. An empty intro page
// keeps the built-in copy.
func BuildHomeData(intro content.Page, path string) PageData {
	vm := PageData{
		Title:       firstNonEmpty(intro.Title, defaultTitle),
		Heading:     firstNonEmpty(intro.Heading, defaultHeading),
		Summary:     firstNonEmpty(intro.Summary, defaultSummary),
		Intro:       intro.Body,
		Path:        path,
		GridID:      loader.GridID,
		RentalsPath: "/rentals",
	}
	vm.SEO.Title = vm.Title
	vm.SEO.Description = vm.Summary
	return vm
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
