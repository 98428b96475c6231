package media

// Info describes a remote source before it is downloaded.
type Info struct {
	Title           string
	Channel         string
	DurationSeconds int
	ThumbnailURL    string
}
