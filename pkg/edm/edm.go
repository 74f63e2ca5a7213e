// Package edm provides helpers for OData v4 primitive (Edm) types and the
// protocol constants shared across the client packages.
package edm

// OData v4 content types.
const (
	ContentTypeJSON           = "application/json;odata.metadata=minimal"
	ContentTypeJSONFull       = "application/json;odata.metadata=full"
	ContentTypeJSONNone       = "application/json;odata.metadata=none"
	ContentTypeMultipartMixed = "multipart/mixed"
)

// System query option names.
const (
	OptionFilter  = "$filter"
	OptionSelect  = "$select"
	OptionExpand  = "$expand"
	OptionOrderBy = "$orderby"
	OptionTop     = "$top"
	OptionSkip    = "$skip"
	OptionCount   = "$count"
	OptionSearch  = "$search"
	OptionApply   = "$apply"
	OptionCompute = "$compute"
	OptionLevels  = "$levels"
)

// Control information annotations.
const (
	AnnotationContext   = "@odata.context"
	AnnotationType      = "@odata.type"
	AnnotationID        = "@odata.id"
	AnnotationETag      = "@odata.etag"
	AnnotationEditLink  = "@odata.editLink"
	AnnotationCount     = "@odata.count"
	AnnotationNextLink  = "@odata.nextLink"
	AnnotationDeltaLink = "@odata.deltaLink"
)

// Protocol version headers sent on every request.
const (
	HeaderODataVersion    = "OData-Version"
	HeaderODataMaxVersion = "OData-MaxVersion"
	Version               = "4.0"
)
