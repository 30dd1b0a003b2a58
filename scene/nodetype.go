package scene

// NodeType tags the base type of a scene-graph node as reported by the
// simulator. Only the types the supervisor core inspects by name are
// enumerated; everything else round-trips as an opaque value.
type NodeType int32

const (
	NodeNoNode NodeType = iota
	NodeGroup
	NodeTransform
	NodeSolid
	NodeRobot
	NodeViewpoint
	NodeWorldInfo
	NodeCamera
	NodeLidar
	NodeRangeFinder
	NodeProto
)

var nodeTypeNames = map[NodeType]string{
	NodeGroup:       "Group",
	NodeTransform:   "Transform",
	NodeSolid:       "Solid",
	NodeRobot:       "Robot",
	NodeViewpoint:   "Viewpoint",
	NodeWorldInfo:   "WorldInfo",
	NodeCamera:      "Camera",
	NodeLidar:       "Lidar",
	NodeRangeFinder: "RangeFinder",
	NodeProto:       "Proto",
}

// String returns the base type name, or "" for unknown types.
func (t NodeType) String() string { return nodeTypeNames[t] }
