package menu

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	defaultDiet     = "Nicht-vegetarisch"
	defaultDishType = "meal"
)

var (
	mensaHeading  = regexp.MustCompile(`(?i)\bmensa\b`)
	skippedLines  = regexp.MustCompile(`(?i)^(beilagensalat|regio[- ]?apfel)`)
	inlineBgImage = regexp.MustCompile(`url\(["']?(.*?)["']?\)`)
)

// ParseDayPage extracts all meal cards from a rendered day page. Each h2
// heading containing "Mensa" starts a canteen section; the next div sibling
// holds the meal cards. Cards without a description or an image are skipped.
func ParseDayPage(pageHTML []byte, base *url.URL, day time.Time) ([]Meal, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parse day page: %w", err)
	}

	var meals []Meal
	doc.Find("h2").Each(func(_ int, heading *goquery.Selection) {
		if !mensaHeading.MatchString(heading.Text()) {
			return
		}
		mensa := CleanField(heading.Text())

		container := heading.NextAllFiltered("div").First()
		if container.Length() == 0 {
			return
		}

		container.Find("a[href]").Each(func(_ int, card *goquery.Selection) {
			meal, ok := parseCard(card, base)
			if !ok {
				return
			}
			meal.Mensa = mensa
			meal.Date = day
			meals = append(meals, meal)
		})
	})
	return meals, nil
}

func parseCard(card *goquery.Selection, base *url.URL) (Meal, bool) {
	paragraph := card.Find("div.text-sm > p").First()
	if paragraph.Length() == 0 {
		return Meal{}, false
	}

	var lines []string
	for _, line := range strippedStrings(paragraph) {
		if skippedLines.MatchString(line) {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return Meal{}, false
	}
	description := strings.ReplaceAll(strings.Join(lines, " "), "-------------", " ")
	description = CleanField(description)

	diet := defaultDiet
	card.Find("div.inline-flex").EachWithBreak(func(_ int, badge *goquery.Selection) bool {
		if text := Squash(badge.Text()); text != "" {
			diet = text
			return false
		}
		return true
	})
	diet = CleanField(diet)

	dishType := defaultDishType
	if span := card.Find("span").First(); span.Length() > 0 {
		if text := Squash(span.Text()); text != "" {
			dishType = text
		}
	}
	dishType = CleanField(dishType)

	rawImage := imageURL(card)
	if rawImage == "" {
		return Meal{}, false
	}
	if base != nil {
		if ref, err := url.Parse(rawImage); err == nil {
			rawImage = base.ResolveReference(ref).String()
		}
	}

	return Meal{
		DishType:    dishType,
		Diet:        diet,
		Description: description,
		ImageURL:    rawImage,
	}, true
}

// imageURL resolves the card's image from an img tag (src, data-src, or the
// first srcset candidate) or, failing that, an inline background-image style.
func imageURL(card *goquery.Selection) string {
	if img := card.Find("img").First(); img.Length() > 0 {
		if src, ok := img.Attr("src"); ok && src != "" {
			return src
		}
		if src, ok := img.Attr("data-src"); ok && src != "" {
			return src
		}
		if srcset, ok := img.Attr("srcset"); ok && srcset != "" {
			fields := strings.Fields(strings.Split(srcset, ",")[0])
			if len(fields) > 0 {
				return fields[0]
			}
		}
	}

	var found string
	card.Find("div[style*='background-image']").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		style, _ := div.Attr("style")
		if m := inlineBgImage.FindStringSubmatch(style); m != nil {
			found = m[1]
			return false
		}
		return true
	})
	return found
}

// strippedStrings walks the selection's text nodes in document order and
// returns each one trimmed, dropping empties.
func strippedStrings(sel *goquery.Selection) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n == nil {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				out = append(out, text)
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, node := range sel.Nodes {
		walk(node)
	}
	return out
}
