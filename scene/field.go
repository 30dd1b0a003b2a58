package scene

// FieldType combines one of the nine scalar field kinds with the MF bit.
// The values travel on the wire in FIELD_SET_VALUE requests, so the
// numbering is part of the protocol.
type FieldType uint32

const (
	NoField FieldType = 0

	SFBool     FieldType = 0x01
	SFInt32    FieldType = 0x02
	SFFloat    FieldType = 0x03
	SFVec2f    FieldType = 0x04
	SFVec3f    FieldType = 0x05
	SFRotation FieldType = 0x06
	SFColor    FieldType = 0x07
	SFString   FieldType = 0x08
	SFNode     FieldType = 0x09

	// MF flags a multi-valued field; the low bits keep the scalar kind.
	MF FieldType = 0x100

	MFBool     = SFBool | MF
	MFInt32    = SFInt32 | MF
	MFFloat    = SFFloat | MF
	MFVec2f    = SFVec2f | MF
	MFVec3f    = SFVec3f | MF
	MFRotation = SFRotation | MF
	MFColor    = SFColor | MF
	MFString   = SFString | MF
	MFNode     = SFNode | MF
)

// IsMF reports whether the type carries the multi-valued bit.
func (t FieldType) IsMF() bool { return t&MF == MF }

// Scalar strips the MF bit, leaving the per-element kind.
func (t FieldType) Scalar() FieldType { return t &^ MF }

var fieldTypeNames = map[FieldType]string{
	SFBool:     "SFBool",
	SFInt32:    "SFInt32",
	SFFloat:    "SFFloat",
	SFVec2f:    "SFVec2f",
	SFVec3f:    "SFVec3f",
	SFRotation: "SFRotation",
	SFColor:    "SFColor",
	SFString:   "SFString",
	SFNode:     "SFNode",
	MFBool:     "MFBool",
	MFInt32:    "MFInt32",
	MFFloat:    "MFFloat",
	MFVec2f:    "MFVec2f",
	MFVec3f:    "MFVec3f",
	MFRotation: "MFRotation",
	MFColor:    "MFColor",
	MFString:   "MFString",
	MFNode:     "MFNode",
}

// String returns the scene-graph name of the type ("SFBool", "MFNode", ...)
// or "" when the type is unknown.
func (t FieldType) String() string { return fieldTypeNames[t] }

// Value is the payload of a scene-graph field, interpreted according to the
// owning field's type tag. Vec holds vec2f/vec3f/color in its leading
// elements and rotation in all four. NodeID of 0 means a null node.
type Value struct {
	Bool   bool
	Int32  int32
	Float  float64
	Vec    [4]float64
	String string
	NodeID int32
}

// Field is the client-side handle for a scene-graph field, keyed by
// (NodeID, Name). At most one handle exists per key; repeated resolution
// returns the same handle. All mutation happens under the supervisor's
// step lock.
type Field struct {
	Name          string
	Type          FieldType
	Count         int // element count for MF fields, -1 for SF
	NodeID        int
	ID            int // attributed by the simulator
	ProtoInternal bool

	// Data caches the most recently fetched value and backs
	// read-your-writes coalescing.
	Data Value
}
