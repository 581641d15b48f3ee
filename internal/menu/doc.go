// Package menu implements the mensa menu scraping pipeline: rendering day
// pages, extracting meal cards, downloading dish images, and logging the
// results to CSV.
package menu
