// Package listings builds rental listing cards from spreadsheet rows.
package listings

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/ZiiHuang/nestguard-website/internal/sheet"
)

const (
	// DefaultPlaceholder is shown when a listing has no photos.
	DefaultPlaceholder = "/assets/images/placeholder.svg"

	untitled   = "(No title)"
	defaultAlt = "Property photo"
	detailSep  = " · "
)

// Card is the view model for one rendered listing.
type Card struct {
	ID      string
	Title   string
	Alt     string
	Details string
	Price   string
	Link    string
	// Images is the ordered photo list; ImagesJSON is its serialized form
	// exposed on the card element.
	Images     []string
	ImagesJSON string
	Carousel   CarouselView
}

// CarouselView is the renderable state of one card's carousel.
type CarouselView struct {
	CardID    string
	Alt       string
	Src       string
	Index     int
	Count     int
	Navigable bool
	PrevURL   string
	NextURL   string
}

// Options tweak card rendering.
type Options struct {
	Placeholder string
	// CarouselPath is the endpoint the nav buttons request.
	CarouselPath string
}

// DefaultCarouselPath serves carousel navigation fragments.
const DefaultCarouselPath = "/rentals/carousel"

func (o Options) carouselPath() string {
	if strings.TrimSpace(o.CarouselPath) == "" {
		return DefaultCarouselPath
	}
	return o.CarouselPath
}

func (o Options) placeholder() string {
	if strings.TrimSpace(o.Placeholder) == "" {
		return DefaultPlaceholder
	}
	return o.Placeholder
}

// Images derives the photo list from the pipe-delimited images column.
func Images(row sheet.Row) []string {
	raw := row.Get("images")
	out := []string{}
	for _, part := range strings.Split(raw, "|") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Details composes the "<beds> bed · <baths> bath · <sqft> sqft" line, leaving
// out any segment whose column is empty.
func Details(row sheet.Row) string {
	var parts []string
	if v := row.Get("beds"); v != "" {
		parts = append(parts, v+" bed")
	}
	if v := row.Get("baths"); v != "" {
		parts = append(parts, v+" bath")
	}
	if v := row.Get("sqft"); v != "" {
		parts = append(parts, v+" sqft")
	}
	return strings.Join(parts, detailSep)
}

// Price formats the monthly rent line.
func Price(row sheet.Row) string {
	if v := row.Get("price"); v != "" {
		return "$" + v + " / month"
	}
	return ""
}

// BuildCard maps a row onto its card view model. It never fails: missing
// columns degrade to empty text or placeholders.
func BuildCard(row sheet.Row, opts Options) Card {
	images := Images(row)
	title := row.Get("title")
	alt := title
	if alt == "" {
		alt = defaultAlt
	}
	if title == "" {
		title = untitled
	}

	raw, _ := json.Marshal(images)
	card := Card{
		ID:         cardID(row.Get("id")),
		Title:      title,
		Alt:        alt,
		Details:    Details(row),
		Price:      Price(row),
		Link:       row.Get("link"),
		Images:     images,
		ImagesJSON: string(raw),
	}
	card.Carousel = BuildCarouselView(card.ID, alt, NewCarousel(images), opts)
	return card
}

// BuildCards maps rows onto cards in order, keeping DOM ids unique. A
// repeated id gets a numeric suffix: card-7, card-7-2, card-7-3.
func BuildCards(rows []sheet.Row, opts Options) []Card {
	seen := make(map[string]bool, len(rows))
	cards := make([]Card, 0, len(rows))
	for _, row := range rows {
		card := BuildCard(row, opts)
		id := card.ID
		for n := 2; seen[id]; n++ {
			id = fmt.Sprintf("%s-%d", card.ID, n)
		}
		seen[id] = true
		if id != card.ID {
			card.ID = id
			card.Carousel = BuildCarouselView(id, card.Alt, NewCarousel(card.Images), opts)
		}
		cards = append(cards, card)
	}
	return cards
}

// BuildCarouselView renders the carousel state for a card.
func BuildCarouselView(cardID, alt string, c Carousel, opts Options) CarouselView {
	view := CarouselView{
		CardID:    cardID,
		Alt:       alt,
		Src:       c.Current(opts.placeholder()),
		Index:     c.Index(),
		Count:     c.Len(),
		Navigable: c.Navigable(),
	}
	if view.Navigable {
		state := NavState{Card: cardID, Alt: alt, Images: c.Images(), Index: c.Index()}
		view.PrevURL = state.URL(opts.carouselPath(), MovePrev)
		view.NextURL = state.URL(opts.carouselPath(), MoveNext)
	}
	return view
}

// NavState is the per-card carousel state round-tripped through the nav
// buttons. It lives only in that card's markup.
type NavState struct {
	Card   string
	Alt    string
	Images []string
	Index  int
}

// URL encodes the state and the requested move as a query on path.
func (s NavState) URL(path, move string) string {
	images, _ := json.Marshal(s.Images)
	q := url.Values{}
	q.Set("card", s.Card)
	q.Set("alt", s.Alt)
	q.Set("images", string(images))
	q.Set("index", strconv.Itoa(s.Index))
	q.Set("move", move)
	return path + "?" + q.Encode()
}

// ErrBadNavState reports an undecodable carousel query.
var ErrBadNavState = errors.New("listings: malformed carousel state")

// ParseNavState decodes a carousel query produced by NavState.URL. The index
// is wrapped into range by the caller through CarouselAt.
func ParseNavState(q url.Values) (NavState, string, error) {
	var s NavState
	if err := json.Unmarshal([]byte(q.Get("images")), &s.Images); err != nil {
		return NavState{}, "", fmt.Errorf("%w: images: %v", ErrBadNavState, err)
	}
	if raw := q.Get("index"); raw != "" {
		i, err := strconv.Atoi(raw)
		if err != nil {
			return NavState{}, "", fmt.Errorf("%w: index: %v", ErrBadNavState, err)
		}
		s.Index = i
	}
	s.Card = q.Get("card")
	s.Alt = q.Get("alt")
	if s.Alt == "" {
		s.Alt = defaultAlt
	}
	return s, q.Get("move"), nil
}

var nonIDChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func cardID(id string) string {
	id = strings.Trim(nonIDChars.ReplaceAllString(id, "-"), "-")
	if id == "" {
		return "card-" + strings.ToLower(ulid.Make().String())
	}
	return "card-" + id
}
