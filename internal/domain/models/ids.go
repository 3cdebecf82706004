package models

import (
	"fmt"
	"sync/atomic"
	"time"
)

// idSeq disambiguates ids minted within the same millisecond. The original
// editor derived ids from the wall clock alone, which collides when frames
// are created in a tight loop.
var idSeq atomic.Uint64

func newID(prefix string) string {
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixMilli(), idSeq.Add(1))
}

// NewSceneID mints a scene id, unique within the process for the life of
// the project.
func NewSceneID() string { return newID("seq") }

// NewFrameID mints a frame id.
func NewFrameID() string { return newID("frame") }

// NewCommentID mints a comment id.
func NewCommentID() string { return newID("comment") }
