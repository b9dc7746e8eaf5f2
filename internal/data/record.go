package data

import (
	"fmt"
	"sort"
)

// Domain identifies the annotation type carried by a record.
type Domain string

const (
	// DomainClassification marks records with a single image-level label.
	DomainClassification Domain = "classification"

	// DomainDetection marks records with located, labeled objects.
	DomainDetection Domain = "detection"

	// DomainSegmentation marks records with per-label pixel masks.
	DomainSegmentation Domain = "segmentation"
)

// DefaultLabelKey is the metadata key that holds an object's label
// unless the user configures a different one.
const DefaultLabelKey = "type"

// Record is one annotated image delivered by the stream.
//
// Exactly one of the domain payloads is populated, matching Domain:
// Label for classification, Objects for detection, and either Layers
// (per-label binary mask files) or Mask+Palette (a single color-indexed
// mask plus a label-to-hex-color palette) for segmentation.
type Record struct {
	Domain Domain `json:"domain"`

	// Name is the image name, Source its originating path.
	Name   string `json:"name"`
	Source string `json:"source,omitempty"`

	// Width and Height are the image dimensions in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Image is the path to the raw image file, when available.
	Image string `json:"image,omitempty"`

	Label   string            `json:"label,omitempty"`
	Objects []Object          `json:"objects,omitempty"`
	Layers  map[string]string `json:"layers,omitempty"`
	Mask    string            `json:"mask,omitempty"`
	Palette map[string]string `json:"palette,omitempty"`
}

// Object is one detected instance: an axis-aligned bounding box, an
// optional polygon, and free-form metadata (the label lives under a
// configurable metadata key).
type Object struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`

	Polygon []Point `json:"polygon,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// Point is a polygon vertex in pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Label returns the object's label from its metadata under the given
// key. The second return is false when the key is absent, in which
// case the object counts as unlabeled.
func (o *Object) Label(key string) (string, bool) {
	if o.Metadata == nil {
		return "", false
	}
	label, ok := o.Metadata[key]
	return label, ok
}

// HasPolygon reports whether the object carries a polygon outline.
func (o *Object) HasPolygon() bool {
	return len(o.Polygon) >= 3
}

// BBoxArea returns the bounding box area in square pixels.
func (o *Object) BBoxArea() float64 {
	return float64(o.Width) * float64(o.Height)
}

// Area returns the polygon area when a polygon is present, unless
// forceBBox is set; otherwise the bounding box area.
func (o *Object) Area(forceBBox bool) float64 {
	if !forceBBox && o.HasPolygon() {
		return PolygonArea(o.Polygon)
	}
	return o.BBoxArea()
}

// SegLabels returns the distinct mask labels of a segmentation record
// in sorted order, whether they come from per-label layers or from a
// palette.
func (r *Record) SegLabels() []string {
	var labels []string
	if len(r.Layers) > 0 {
		for label := range r.Layers {
			labels = append(labels, label)
		}
	} else {
		for label := range r.Palette {
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)
	return labels
}

// PixelArea returns the total pixel count of the image.
func (r *Record) PixelArea() float64 {
	return float64(r.Width) * float64(r.Height)
}

// Validate checks that the record's payload matches its domain.
func (r *Record) Validate() error {
	switch r.Domain {
	case DomainClassification, DomainDetection:
		return nil
	case DomainSegmentation:
		if len(r.Layers) == 0 && r.Mask == "" {
			return fmt.Errorf("segmentation record %q has neither layers nor mask", r.Name)
		}
		if r.Mask != "" && len(r.Palette) == 0 {
			return fmt.Errorf("segmentation record %q has a mask but no palette", r.Name)
		}
		return nil
	case "":
		return fmt.Errorf("record %q has no domain", r.Name)
	default:
		return fmt.Errorf("record %q has unknown domain %q", r.Name, r.Domain)
	}
}
