package audio

import (
	"os"
	"strings"

	"github.com/dhowden/tag"
)

// TrackInfo is what we can learn about an upload without decoding it.
type TrackInfo struct {
	Format   string
	FileType string
	Title    string
	Artist   string
}

// Sniff reads the tag header of an uploaded file. Untagged or headerless
// uploads are normal (the model reads raw audio), so callers treat an error
// here as "nothing known", not as a bad request.
func Sniff(path string) (*TrackInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, err
	}

	return &TrackInfo{
		Format:   string(m.Format()),
		FileType: string(m.FileType()),
		Title:    m.Title(),
		Artist:   m.Artist(),
	}, nil
}

// IsSupportedFormat reports whether the filename has an audio extension the
// model accepts.
func IsSupportedFormat(filename string) bool {
	extensions := []string{
		".mp3", ".flac", ".wav", ".ogg", ".m4a", ".aac", ".wma", ".aiff", ".alac", ".opus",
	}
	lower := strings.ToLower(filename)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
