package main

import (
	"errors"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/ZiiHuang/nestguard-website/internal/content"
	handlersPkg "github.com/ZiiHuang/nestguard-website/internal/handlers"
	"github.com/ZiiHuang/nestguard-website/internal/listings"
	"github.com/ZiiHuang/nestguard-website/internal/loader"
	mw "github.com/ZiiHuang/nestguard-website/internal/middleware"
	"github.com/ZiiHuang/nestguard-website/internal/observability"
)

const introSlug = "rentals"

// HomeHandler renders the page shell. The listings grid loads itself via htmx.
func HomeHandler(w http.ResponseWriter, r *http.Request) {
	intro, err := content.Load(contentDir, introSlug)
	if err != nil && !errors.Is(err, content.ErrNotFound) {
		observability.FromContext(r.Context()).Warn("intro content unavailable", zap.Error(err))
	}
	vm := handlersPkg.BuildHomeData(intro, r.URL.Path)
	vm.SEO.Canonical = absoluteURL(r)
	vm.Dev = devMode
	renderPage(w, r, "home", vm)
}

// RentalsFrag fetches the export and renders the grid contents. Upstream
// failures render the fallback message, so the status is always 200.
func RentalsFrag(w http.ResponseWriter, r *http.Request) {
	grid := loader.NewGrid()
	rentals.Load(r.Context(), grid)
	w.Header().Set("Cache-Control", "no-store")
	renderTemplate(w, r, "frag_rentals_grid", grid)
}

// CarouselFrag applies one prev/next move to a card's carousel and renders
// that carousel only.
func CarouselFrag(w http.ResponseWriter, r *http.Request) {
	state, move, err := listings.ParseNavState(r.URL.Query())
	if err != nil {
		observability.FromContext(r.Context()).Warn("bad carousel state", zap.Error(err))
		mw.WriteError(w, r, http.StatusBadRequest, "bad carousel state")
		return
	}
	c := listings.CarouselAt(state.Images, state.Index)
	c.Move(move)
	view := listings.BuildCarouselView(state.Card, state.Alt, c, cardOpts)
	renderTemplate(w, r, "frag_carousel", view)
}

// absoluteURL rebuilds the public URL of r without its query.
func absoluteURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path}
	return u.String()
}

type listingsResponse struct {
	Listings []listings.Listing `json:"listings"`
}

// RentalsJSON exposes the active listings as JSON.
func RentalsJSON(w http.ResponseWriter, r *http.Request) {
	items, err := rentals.Listings(r.Context())
	if err != nil {
		observability.FromContext(r.Context()).Error("listings unavailable", zap.Error(err))
		mw.WriteJSONError(w, http.StatusBadGateway, "listings unavailable")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	mw.WriteJSON(w, http.StatusOK, listingsResponse{Listings: items})
}
