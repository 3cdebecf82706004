package config

const (
	// MaxTitleLength is the maximum length for storyboard and scene
	// titles. Short and descriptive; anything longer breaks the UI.
	MaxTitleLength = 200

	// MaxCommentLength is the maximum length for a frame comment.
	MaxCommentLength = 2000
)
