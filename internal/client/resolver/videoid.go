package resolver

import "regexp"

// videoIDPattern matches the 11-character identifier in the canonical
// YouTube URL shapes (watch?v= and youtu.be/).
var videoIDPattern = regexp.MustCompile(`(?:v=|/)([\w-]{11})`)

var watchURLPattern = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com/watch\?v=|youtu\.be/)[\w-]{11}`)

// ExtractVideoID pulls the video identifier out of a YouTube URL.
// Returns the empty string when no identifier is present; callers treat a
// malformed derived thumbnail as non-fatal.
func ExtractVideoID(videoURL string) string {
	m := videoIDPattern.FindStringSubmatch(videoURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// ThumbnailURL derives the standard thumbnail location for a video id.
func ThumbnailURL(videoID string) string {
	return "https://i.ytimg.com/vi/" + videoID + "/hqdefault.jpg"
}

// IsVideoURL reports whether url looks like a canonical YouTube video URL.
func IsVideoURL(url string) bool {
	return watchURLPattern.MatchString(url)
}

var urlPattern = regexp.MustCompile(`(https?://\S+)`)

// FindVideoURL scans free text for an embedded YouTube video URL.
// Returns the empty string when none is found.
func FindVideoURL(text string) string {
	for _, candidate := range urlPattern.FindAllString(text, -1) {
		if IsVideoURL(candidate) {
			return candidate
		}
	}
	return ""
}
