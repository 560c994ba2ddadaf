package types

// MediaFile represents a playable file discovered in the media directory.
type MediaFile struct {
	// Stable identifier derived from the file name without extension.
	// example: big-buck-bunny
	ID string `json:"id" example:"big-buck-bunny"`
	// Human-friendly name.
	// example: big buck bunny
	Name string `json:"name" example:"big buck bunny"`
	// Absolute path to the file on disk, suitable for loadfile.
	// example: /home/user/media/big-buck-bunny.mkv
	Path string `json:"path" example:"/home/user/media/big-buck-bunny.mkv"`
	// Lower-case container extension without the dot.
	// example: mkv
	Container string `json:"container" example:"mkv"`
	// Size in bytes.
	// example: 276134947
	SizeBytes int64 `json:"size_bytes" example:"276134947"`
}
