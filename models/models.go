package models

// Video represents a single playable video from the catalog
type Video struct {
	ID              string  `json:"id" yaml:"id"`
	Title           string  `json:"title" yaml:"title"`
	Description     string  `json:"description" yaml:"description"`
	Thumbnail       string  `json:"thumbnail" yaml:"thumbnail"`
	VideoURL        string  `json:"videoUrl" yaml:"videoUrl"`
	Duration        float64 `json:"duration" yaml:"duration"` // seconds
	Category        string  `json:"category" yaml:"category"`
	Views           int64   `json:"views" yaml:"views"`
	ViewsLabel      string  `json:"viewsLabel" yaml:"-"`
	UploadedAt      string  `json:"uploadedAt" yaml:"uploadedAt"`
	Channel         string  `json:"channel" yaml:"channel"`
	Avatar          string  `json:"avatar" yaml:"avatar"`
	SubscriberCount string  `json:"subscriberCount" yaml:"subscriberCount"`
}

// PexelsVideoFile is one rendition of a Pexels video
type PexelsVideoFile struct {
	ID       int64  `json:"id"`
	Quality  string `json:"quality"`
	FileType string `json:"file_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Link     string `json:"link"`
}

// PexelsUser is the author of a Pexels video
type PexelsUser struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// PexelsVideo is a video as returned by the Pexels API
type PexelsVideo struct {
	ID         int64             `json:"id"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	URL        string            `json:"url"`
	Image      string            `json:"image"`
	Duration   int               `json:"duration"`
	User       PexelsUser        `json:"user"`
	VideoFiles []PexelsVideoFile `json:"video_files"`
}

// PexelsResponse is a page of search results from the Pexels API
type PexelsResponse struct {
	Page         int           `json:"page"`
	PerPage      int           `json:"per_page"`
	TotalResults int           `json:"total_results"`
	URL          string        `json:"url"`
	Videos       []PexelsVideo `json:"videos"`
}

// LibraryState is the listing page state sent to the client
type LibraryState struct {
	Videos         []Video `json:"videos"`
	IsLoading      bool    `json:"isLoading"`
	HasMore        bool    `json:"hasMore"`
	Page           int     `json:"page"`
	ActiveQuery    string  `json:"activeQuery"`
	ActiveCategory string  `json:"activeCategory,omitempty"`
}

// CountdownView describes the autoplay overlay
type CountdownView struct {
	Seconds   int    `json:"seconds"`
	NextID    string `json:"nextId"`
	NextTitle string `json:"nextTitle"`
}

// TransportView describes the transport controls of the full player
type TransportView struct {
	CurrentTime  float64 `json:"currentTime"`
	Duration     float64 `json:"duration"`
	Progress     float64 `json:"progress"` // percentage 0-100
	TimeLabel    string  `json:"timeLabel"`
	Dragging     bool    `json:"dragging"`
	SkipFeedback string  `json:"skipFeedback,omitempty"`
	SkipStep     float64 `json:"skipStep"` // seconds moved by the skip buttons
	Fullscreen   bool    `json:"fullscreen"`
}

// FullPlayerView is the layout of the full screen watch player
type FullPlayerView struct {
	Video         Video          `json:"video"`
	DurationLabel string         `json:"durationLabel"`
	Related       []Video        `json:"related"`
	Transport     TransportView  `json:"transport"`
	Countdown     *CountdownView `json:"countdown,omitempty"`
	DragOffset    float64        `json:"dragOffset"`
}

// MiniPlayerView is the layout of the floating mini player card
type MiniPlayerView struct {
	VideoID string `json:"videoId"`
	Title   string `json:"title"`
	Channel string `json:"channel"`
}

// PlayerSnapshot is the rendered state of the player shell
type PlayerSnapshot struct {
	Mode      string          `json:"mode"` // "closed", "full" or "mini"
	IsPlaying bool            `json:"isPlaying"`
	Location  string          `json:"location"`
	Full      *FullPlayerView `json:"full,omitempty"`
	Mini      *MiniPlayerView `json:"mini,omitempty"`
}

// PlayRequest asks the player to play a video by ID
type PlayRequest struct {
	VideoID string `json:"id"`
}

// DragRequest carries the vertical offset of a drag gesture
type DragRequest struct {
	OffsetY float64 `json:"dy"`
}

// SkipRequest carries a relative seek in seconds
type SkipRequest struct {
	Delta float64 `json:"delta"`
}

// SeekRequest carries a pointer position on the scrub track
type SeekRequest struct {
	X          float64 `json:"x"`
	TrackLeft  float64 `json:"trackLeft"`
	TrackWidth float64 `json:"trackWidth"`
}

// SearchRequest carries a catalog search query
type SearchRequest struct {
	Query string `json:"query"`
}

// CategoryRequest carries a catalog category filter
type CategoryRequest struct {
	Category string `json:"category"`
}

// LocationRequest carries a direct navigation target
type LocationRequest struct {
	Path string `json:"path"`
}
