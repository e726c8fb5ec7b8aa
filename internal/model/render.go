// Package model defines the core data types for the OG image service.
// In Go, we use structs instead of classes. Struct tags (the `json:"..."` and
// `db:"..."` annotations) tell serialization libraries how to map fields.
package model

import (
	"image"
	"time"
)

// Canvas dimensions for every rendered preview. 1200x630 is the size
// Facebook, LinkedIn and X expect for og:image.
const (
	CanvasWidth  = 1200
	CanvasHeight = 630
)

// DefaultRequesterName is used when the `name` query param is missing.
const DefaultRequesterName = "Unknown"

// RenderRequest holds the query parameters of one preview render.
// It is created at request entry and discarded once the response is written.
type RenderRequest struct {
	BloodGroup      string `json:"blood_group"`
	District        string `json:"district"`
	Upazila         string `json:"upazila"`
	HospitalName    string `json:"hospital_name"`
	RequesterName   string `json:"requester_name"`
	ProfileImageRef string `json:"profile_image,omitempty"`
}

// NewRenderRequest builds a RenderRequest, applying the defaults for missing
// values. Only the requester name has a non-empty default.
func NewRenderRequest(bloodGroup, district, upazila, hospitalName, name, profileImage string) RenderRequest {
	if name == "" {
		name = DefaultRequesterName
	}
	return RenderRequest{
		BloodGroup:      bloodGroup,
		District:        district,
		Upazila:         upazila,
		HospitalName:    hospitalName,
		RequesterName:   name,
		ProfileImageRef: profileImage,
	}
}

// Location returns the "{upazila}, {district}" line drawn under the hospital.
func (r RenderRequest) Location() string {
	return r.Upazila + ", " + r.District
}

// Provenance records where a ResolvedImage came from.
// Go doesn't have enums — we use typed constants with explicit values.
type Provenance string

const (
	ProvenanceRequested Provenance = "requested"
	ProvenanceFallback  Provenance = "fallback"
)

// ResolvedImage is a decoded bitmap ready for compositing.
type ResolvedImage struct {
	Image      image.Image
	Width      int
	Height     int
	Provenance Provenance
}

// NewResolvedImage wraps a decoded image with its intrinsic size.
func NewResolvedImage(img image.Image, provenance Provenance) *ResolvedImage {
	b := img.Bounds()
	return &ResolvedImage{
		Image:      img,
		Width:      b.Dx(),
		Height:     b.Dy(),
		Provenance: provenance,
	}
}

// RenderStatus is the terminal state of a render attempt.
type RenderStatus string

const (
	StatusOK     RenderStatus = "ok"
	StatusFailed RenderStatus = "failed"
)

// RenderStage names the pipeline step a render was in when it stopped.
type RenderStage string

const (
	StageExtracting  RenderStage = "extracting"
	StageResolving   RenderStage = "resolving"
	StageCompositing RenderStage = "compositing"
	StageEncoding    RenderStage = "encoding"
	StageResponded   RenderStage = "responded"
)

// RenderRecord is one row of the diagnostic render log. It never affects
// what gets drawn — it only answers "how are the previews doing?".
type RenderRecord struct {
	ID         int64        `db:"id" json:"id"`
	BloodGroup string       `db:"blood_group" json:"blood_group"`
	Provenance Provenance   `db:"provenance" json:"provenance"`
	Status     RenderStatus `db:"status" json:"status"`
	Stage      RenderStage  `db:"stage" json:"stage"`
	DurationMs int64        `db:"duration_ms" json:"duration_ms"`
	Bytes      int64        `db:"bytes" json:"bytes"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
}
