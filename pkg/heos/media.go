package heos

// MediaSourceType distinguishes station streams from regular tracks.
type MediaSourceType string

const (
	SourceSong    MediaSourceType = "song"
	SourceStation MediaSourceType = "station"
)

// Media describes what a player is currently playing.
type Media struct {
	SourceType MediaSourceType `json:"type"`
	Song       string          `json:"song,omitempty"`
	Album      string          `json:"album,omitempty"`
	Artist     string          `json:"artist,omitempty"`
	Station    string          `json:"station,omitempty"`
	ImageURL   string          `json:"image_url,omitempty"`
	MediaID    string          `json:"mid,omitempty"`
	SourceID   string          `json:"sid,omitempty"`
}

// Media extracts the now-playing fields from the reply attributes.
func (r *PlayingMediaReply) Media() Media {
	m := Media{
		SourceType: SourceSong,
		Song:       r.Attrs.Get("song"),
		Album:      r.Attrs.Get("album"),
		Artist:     r.Attrs.Get("artist"),
		Station:    r.Attrs.Get("station"),
		ImageURL:   r.Attrs.Get("image_url"),
		MediaID:    r.Attrs.Get("mid"),
		SourceID:   r.Attrs.Get("sid"),
	}
	if r.Attrs.Get("type") == string(SourceStation) {
		m.SourceType = SourceStation
	}
	return m
}
