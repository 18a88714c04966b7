package track

import "fmt"

// Info is the now-playing metadata reported by a player source.
type Info struct {
	Title          string
	Artist         string
	Album          string
	DurationMillis int64
	ArtworkURL     string
	TrackID        string
}

func (t *Info) IsValid() bool {
	if t == nil {
		return false
	}
	return t.Title != "" && t.Artist != ""
}

func (t *Info) IsSameTrack(other *Info) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.TrackID != "" && other.TrackID != "" {
		return t.TrackID == other.TrackID
	}
	return t.Title == other.Title && t.Artist == other.Artist
}

func (t *Info) String() string {
	if t == nil {
		return "<no track>"
	}
	return fmt.Sprintf("%s - %s", t.Artist, t.Title)
}
