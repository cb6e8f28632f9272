// Package imaging rewrites image references into optimized CDN delivery
// URLs and defers the actual fetch until an element is near the viewport.
package imaging

import "strings"

const (
	cdnHost      = "cloudinary.com"
	uploadMarker = "/upload/"
)

// Options are the CDN transformation parameters. Zero values fall back
// to the CDN's automatic settings.
type Options struct {
	Width   string
	Quality string
	Format  string
	Crop    string
}

func (o Options) withDefaults() Options {
	if o.Width == "" {
		o.Width = "auto"
	}
	if o.Quality == "" {
		o.Quality = "auto"
	}
	if o.Format == "" {
		o.Format = "auto"
	}
	if o.Crop == "" {
		o.Crop = "fill"
	}
	return o
}

// Preset names a fixed bundle of transformation parameters.
type Preset string

const (
	PresetThumbnail Preset = "thumbnail"
	PresetCard      Preset = "card"
	PresetBanner    Preset = "banner"
	PresetCarousel  Preset = "carousel"
)

var presetOptions = map[Preset]Options{
	PresetThumbnail: {Width: "150"},
	PresetCard:      {Width: "400"},
	PresetBanner:    {Width: "1920", Quality: "auto:good"},
	PresetCarousel:  {Width: "600"},
}

// Transform inserts a transformation directive into a CDN URL directly
// after the upload marker. Non-CDN URLs, URLs without the marker, and
// URLs that already carry a directive are returned unchanged; Transform
// never fails.
func Transform(url string, opts Options) string {
	if url == "" || !strings.Contains(url, cdnHost) {
		return url
	}
	parts := strings.SplitN(url, uploadMarker, 2)
	if len(parts) != 2 {
		return url
	}
	if hasDirective(parts[1]) {
		return url
	}
	o := opts.withDefaults()
	directive := strings.Join([]string{
		"w_" + o.Width,
		"q_" + o.Quality,
		"f_" + o.Format,
		"c_" + o.Crop,
	}, ",")
	return parts[0] + uploadMarker + directive + "/" + parts[1]
}

// hasDirective reports whether the first path segment after the upload
// marker is already a transformation directive, which keeps Transform
// idempotent.
func hasDirective(rest string) bool {
	seg, _, _ := strings.Cut(rest, "/")
	return strings.HasPrefix(seg, "w_")
}

// ForPreset applies a named preset; unknown presets behave like card.
func ForPreset(url string, preset Preset) string {
	opts, ok := presetOptions[preset]
	if !ok {
		opts = presetOptions[PresetCard]
	}
	return Transform(url, opts)
}

// Resolve normalizes a raw image reference into a loadable URL: CDN URLs
// get the preset transformation, backend-relative media paths get the
// backend origin prefixed, anything else passes through unchanged.
// Resolving an already-resolved URL yields the same URL.
func Resolve(raw string, preset Preset, apiOrigin string) string {
	switch {
	case raw == "":
		return ""
	case strings.Contains(raw, cdnHost):
		return ForPreset(raw, preset)
	case strings.HasPrefix(raw, "/media/"):
		return strings.TrimRight(apiOrigin, "/") + raw
	default:
		return raw
	}
}

// OriginOf derives the backend origin from an API base URL by stripping
// the trailing /api path.
func OriginOf(apiBaseURL string) string {
	origin := strings.TrimRight(apiBaseURL, "/")
	origin = strings.TrimSuffix(origin, "/api")
	return origin
}
