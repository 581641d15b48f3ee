package menu

import (
	"context"
	"time"
)

// Meal is one extracted meal card, ready to be logged to CSV.
type Meal struct {
	Date        time.Time
	Mensa       string
	DishType    string
	Diet        string
	Description string
	ImageURL    string
	ImagePath   string
}

// Renderer produces the settled DOM of a day page with JavaScript executed.
type Renderer interface {
	Render(ctx context.Context, day time.Time) ([]byte, error)
	Close(ctx context.Context) error
}

// ImageFetcher downloads a single image by URL.
type ImageFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
