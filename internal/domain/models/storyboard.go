package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Role is a per-user access level stored in a project's roles map.
type Role string

const (
	RoleNone   Role = ""
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleOwner  Role = "owner"
)

// CanView reports whether the role permits reading the project.
func (r Role) CanView() bool {
	return r == RoleViewer || r == RoleEditor || r == RoleOwner
}

// CanEdit reports whether the role permits writing project content.
func (r Role) CanEdit() bool {
	return r == RoleEditor || r == RoleOwner
}

// Validate checks that the role is one of the assignable values.
// RoleNone is not assignable - absence from the roles map expresses it.
func (r Role) Validate() error {
	return validation.Validate(string(r),
		validation.Required,
		validation.In(string(RoleViewer), string(RoleEditor), string(RoleOwner)),
	)
}

// PublicAccess governs access for share-link holders not named in roles.
type PublicAccess string

const (
	PublicAccessNone   PublicAccess = "none"
	PublicAccessViewer PublicAccess = "viewer"
	PublicAccessEditor PublicAccess = "editor"
)

func (p PublicAccess) Validate() error {
	return validation.Validate(string(p),
		validation.Required,
		validation.In(string(PublicAccessNone), string(PublicAccessViewer), string(PublicAccessEditor)),
	)
}

// AspectRatio is the fixed set of frame aspect ratios the editor offers.
type AspectRatio string

const (
	AspectWide     AspectRatio = "16:9"
	AspectClassic  AspectRatio = "4:3"
	AspectSquare   AspectRatio = "1:1"
	AspectVertical AspectRatio = "9:16"
)

func (a AspectRatio) Validate() error {
	return validation.Validate(string(a),
		validation.Required,
		validation.In(string(AspectWide), string(AspectClassic), string(AspectSquare), string(AspectVertical)),
	)
}

// Project is the root storyboard document. The sequences ordering and each
// scene's frames ordering are the sole source of truth for presentation
// order - there is no separate index field.
type Project struct {
	ID           string          `json:"id,omitempty"`
	ProjectTitle string          `json:"projectTitle"`
	OwnerID      string          `json:"ownerId"`
	Roles        map[string]Role `json:"roles"`
	PublicAccess PublicAccess    `json:"publicAccess"`
	AspectRatio  AspectRatio     `json:"aspectRatio"`
	Sequences    []Scene         `json:"sequences"`
	CreatedAt    time.Time       `json:"createdAt,omitzero"`
	LastEdited   time.Time       `json:"lastEdited,omitzero"`
}

// Scene is a named, ordered group of frames.
type Scene struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Frames []Frame `json:"frames"`
}

// Comment is one entry in a frame's append-only comment list.
type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewProject builds the initial document for a freshly created storyboard:
// the creator is the owner, access is restricted, and a single empty scene
// is ready for editing.
func NewProject(ownerID, title string) *Project {
	return &Project{
		ProjectTitle: title,
		OwnerID:      ownerID,
		Roles:        map[string]Role{ownerID: RoleOwner},
		PublicAccess: PublicAccessNone,
		AspectRatio:  AspectWide,
		Sequences: []Scene{
			{
				ID:     NewSceneID(),
				Title:  "Scene 1",
				Frames: []Frame{},
			},
		},
	}
}

// RoleFor resolves the effective role for a user: a named roles entry wins,
// otherwise publicAccess applies (including for anonymous share-link
// holders, whose userID is empty).
func (p *Project) RoleFor(userID string) Role {
	if userID != "" {
		if r, ok := p.Roles[userID]; ok {
			return r
		}
	}
	switch p.PublicAccess {
	case PublicAccessViewer:
		return RoleViewer
	case PublicAccessEditor:
		return RoleEditor
	}
	return RoleNone
}

// FindScene returns the scene with the given id, or nil.
func (p *Project) FindScene(sceneID string) *Scene {
	for i := range p.Sequences {
		if p.Sequences[i].ID == sceneID {
			return &p.Sequences[i]
		}
	}
	return nil
}

// FindFrame returns the frame with the given id and its containing scene,
// or (nil, nil).
func (p *Project) FindFrame(frameID string) (*Scene, *Frame) {
	for i := range p.Sequences {
		for j := range p.Sequences[i].Frames {
			if p.Sequences[i].Frames[j].ID == frameID {
				return &p.Sequences[i], &p.Sequences[i].Frames[j]
			}
		}
	}
	return nil, nil
}

// CloneSequences returns a deep copy of the project's scenes. Edit
// operations mutate the copy and write it back whole, so the document held
// by a sync controller is never mutated in place.
func (p *Project) CloneSequences() []Scene {
	out := make([]Scene, len(p.Sequences))
	for i, s := range p.Sequences {
		frames := make([]Frame, len(s.Frames))
		for j, f := range s.Frames {
			comments := make([]Comment, len(f.Comments))
			copy(comments, f.Comments)
			f.Comments = comments
			frames[j] = f
		}
		s.Frames = frames
		out[i] = s
	}
	return out
}
