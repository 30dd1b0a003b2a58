package scene

import "strings"

// Node is the client-side handle for a scene-graph node, keyed by the
// simulator-assigned unique id. Id 0 is the synthetic root. Handles are
// never reused: once removed from the registry a handle stays invalid
// forever. All mutation happens under the supervisor's step lock.
type Node struct {
	ID   int
	Type NodeType

	// ModelName is empty when the model equals the base type name.
	ModelName string
	DEFName   string
	ParentID  int

	// Tag links the node to a device when it wraps one.
	Tag int

	IsProto       bool
	ProtoInternal bool
	ParentProto   *Node

	// Lazily populated caches. A nil slice means the attribute was never
	// received; presence means the last answer was valid.
	Position     []float64 // 3
	Orientation  []float64 // 9
	CenterOfMass []float64 // 3

	ContactPoints       []float64 // 3 per point
	ContactPointNodeIDs []int
	NumContactPoints    int
	ContactPointsTime   float64

	StaticBalance bool
	Velocity      []float64 // linear[3] + angular[3]
}

// ExtractDEF resolves a dotted DEF-path expression to its effective DEF
// name: the segment after the last '.'. The prefix names the enclosing
// PROTO scope and is not part of the node's own DEF.
func ExtractDEF(expr string) string {
	if i := strings.LastIndexByte(expr, '.'); i >= 0 {
		return expr[i+1:]
	}
	return expr
}
