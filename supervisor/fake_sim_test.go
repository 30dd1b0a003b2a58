package supervisor

import (
	"fmt"
	"math"
	"testing"

	"github.com/signalsfoundry/scene-supervisor/internal/wire"
	"github.com/signalsfoundry/scene-supervisor/scene"
)

// fakeNode is a node of the fake simulator's scripted scene.
type fakeNode struct {
	id            int
	typ           scene.NodeType
	tag           int
	parent        int
	isProto       bool
	protoInternal bool
	protoScope    int // id of the enclosing PROTO, 0 when top-level
	model         string
	def           string
	removed       bool

	position    []float64 // 3
	orientation []float64 // 9
	com         []float64 // 3
	velocity    []float64 // 6
	balanced    bool

	contactPoints  []float64 // 3 per point
	contactNodeIDs []int
}

// fakeField is a field of the fake simulator's scripted scene, addressed
// both by (node, name) and by the reference the fake hands out on
// resolution.
type fakeField struct {
	ref           int
	nodeID        int
	name          string
	typ           scene.FieldType
	count         int
	protoInternal bool
	values        map[int]scene.Value // index, -1 for SF
}

// recordedSet is one FIELD_SET_VALUE decoded from an outbound frame.
type recordedSet struct {
	nodeRef  int
	fieldRef int
	typ      scene.FieldType
	index    int
	value    scene.Value
}

// fakeSimulator implements Driver by decoding each outbound frame the way
// the simulator's dispatcher would and answering from a scripted scene.
// It also records the decoded traffic so tests can assert on what actually
// went over the wire.
type fakeSimulator struct {
	t *testing.T

	now      float64
	quitting bool

	selfUID  int
	selected int

	nodes  []*fakeNode
	fields []*fakeField

	// nextImportCount is the imported_nodes_number carried by the next
	// FIELD_INSERT_VALUE answer (for SF imports it is the new node's uid).
	nextImportCount int

	movieStatus     *MovieStatus
	animationStart  *bool
	animationStop   *bool
	saveAccepted    *bool
	vrUsed          bool
	vrPosition      []float64
	vrOrientation   []float64
	regenerateOnce  bool
	contactsServed  int
	configured      bool

	frames   int
	lastSets []recordedSet
	allSets  []recordedSet
	lastOps  []wire.Op
}

func newFakeSimulator(t *testing.T) *fakeSimulator {
	t.Helper()
	return &fakeSimulator{t: t, now: 0.032, selfUID: 1, selected: -1, nextImportCount: 1}
}

func (sim *fakeSimulator) Time() float64  { return sim.now }
func (sim *fakeSimulator) Quitting() bool { return sim.quitting }

func (sim *fakeSimulator) addNode(n *fakeNode) *fakeNode {
	sim.nodes = append(sim.nodes, n)
	return n
}

func (sim *fakeSimulator) addField(f *fakeField) *fakeField {
	f.ref = len(sim.fields) + 1
	if f.values == nil {
		f.values = map[int]scene.Value{}
	}
	sim.fields = append(sim.fields, f)
	return f
}

func (sim *fakeSimulator) nodeByID(id int) *fakeNode {
	for _, n := range sim.nodes {
		if n.id == id && !n.removed {
			return n
		}
	}
	return nil
}

func (sim *fakeSimulator) nodeByDEF(def string, protoScope int) *fakeNode {
	effective := scene.ExtractDEF(def)
	for _, n := range sim.nodes {
		if !n.removed && n.def == effective && n.protoScope == protoScope {
			return n
		}
	}
	return nil
}

func (sim *fakeSimulator) fieldByRef(ref int) *fakeField {
	for _, f := range sim.fields {
		if f.ref == ref {
			return f
		}
	}
	return nil
}

func (sim *fakeSimulator) fieldByName(nodeID int, name string) *fakeField {
	for _, f := range sim.fields {
		if f.nodeID == nodeID && f.name == name {
			return f
		}
	}
	return nil
}

// RoundTrip decodes one outbound frame and builds the paired answer frame.
func (sim *fakeSimulator) RoundTrip(frame []byte) ([]byte, error) {
	sim.frames++
	sim.lastSets = nil
	sim.lastOps = nil

	r := wire.NewReader(frame)
	w := wire.NewWriter()

	if !sim.configured {
		sim.configured = true
		w.PutOp(wire.OpConfigure)
		w.PutUint32(uint32(sim.selfUID))
		w.PutBool(false) // is_proto
		w.PutBool(false) // is_proto_internal
		w.PutString("")  // model name
		w.PutString("")  // def name
	}
	if sim.regenerateOnce {
		sim.regenerateOnce = false
		w.PutOp(wire.OpNodeRegenerated)
	}

	gets := 0
	for r.Err() == nil && r.Remaining() > 0 {
		op := r.Op()
		sim.lastOps = append(sim.lastOps, op)
		if op == wire.OpFieldGetValue {
			gets++
		}
		if err := sim.dispatch(op, r, w); err != nil {
			return nil, err
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("fake simulator: malformed request frame: %w", err)
	}
	if gets > 1 {
		sim.t.Errorf("outbound frame carried %d FIELD_GET_VALUE requests, want at most 1", gets)
	}

	if sim.movieStatus != nil {
		w.PutOp(wire.OpMovieStatus)
		w.PutUint8(uint8(*sim.movieStatus))
	}
	return append([]byte(nil), w.Bytes()...), nil
}

func (sim *fakeSimulator) dispatch(op wire.Op, r *wire.Reader, w *wire.Writer) error {
	switch op {
	case wire.OpSimulationChangeMode, wire.OpSimulationQuit:
		r.Int32()
	case wire.OpSimulationReset, wire.OpReloadWorld, wire.OpSimulationResetPhysics,
		wire.OpStopMovie, wire.OpNodeGetSelected:
		// no outbound payload
		if op == wire.OpNodeGetSelected {
			sim.answerNode(w, wire.OpNodeGetSelected, sim.nodeByID(sim.selected))
		}
	case wire.OpLoadWorld:
		_ = r.String()

	case wire.OpNodeGetFromID:
		id := int(r.Uint32())
		sim.answerNode(w, wire.OpNodeGetFromID, sim.nodeByID(id))
	case wire.OpNodeGetFromDEF:
		def := r.String()
		protoScope := int(r.Int32())
		if protoScope < 0 {
			protoScope = 0
		}
		n := sim.nodeByDEF(def, protoScope)
		w.PutOp(wire.OpNodeGetFromDEF)
		if n == nil {
			w.PutUint32(0)
			w.PutUint32(0)
			w.PutInt32(0)
			w.PutUint32(0)
			w.PutBool(false)
			w.PutString("")
			return nil
		}
		w.PutUint32(uint32(n.id))
		w.PutUint32(uint32(n.typ))
		w.PutInt32(int32(n.tag))
		w.PutUint32(uint32(n.parent))
		w.PutBool(n.isProto)
		w.PutString(n.model)
	case wire.OpNodeGetFromTag:
		tag := int(r.Int32())
		var found *fakeNode
		for _, n := range sim.nodes {
			if !n.removed && n.tag == tag {
				found = n
				break
			}
		}
		sim.answerNode(w, wire.OpNodeGetFromTag, found)

	case wire.OpFieldGetFromName:
		nodeRef := int(r.Uint32())
		name := r.String()
		allowProto := r.Bool()
		f := sim.fieldByName(nodeRef, name)
		if f != nil && f.protoInternal && !allowProto {
			f = nil
		}
		w.PutOp(wire.OpFieldGetFromName)
		if f == nil {
			w.PutInt32(-1)
			w.PutUint32(0)
			w.PutBool(false)
			return nil
		}
		w.PutInt32(int32(f.ref))
		w.PutUint32(uint32(f.typ))
		w.PutBool(f.protoInternal)
		if f.typ.IsMF() {
			w.PutInt32(int32(f.count))
		}

	case wire.OpFieldGetValue:
		nodeRef := int(r.Uint32())
		fieldRef := int(r.Uint32())
		r.Bool() // proto_internal
		f := sim.fieldByRef(fieldRef)
		if f == nil {
			return fmt.Errorf("fake simulator: GET for unknown field ref %d on node %d", fieldRef, nodeRef)
		}
		index := -1
		if f.typ.IsMF() {
			index = int(r.Uint32())
		}
		sim.answerFieldValue(w, f, index)

	case wire.OpFieldSetValue:
		nodeRef := int(r.Uint32())
		fieldRef := int(r.Uint32())
		typ := scene.FieldType(r.Uint32())
		index := int(int32(r.Uint32()))
		value := readRequestValue(r, typ)
		f := sim.fieldByRef(fieldRef)
		if f != nil {
			key := index
			if !f.typ.IsMF() {
				key = -1
			}
			f.values[key] = value
		}
		set := recordedSet{nodeRef: nodeRef, fieldRef: fieldRef, typ: typ, index: index, value: value}
		sim.lastSets = append(sim.lastSets, set)
		sim.allSets = append(sim.allSets, set)

	case wire.OpFieldInsertValue:
		r.Uint32() // node
		fieldRef := int(r.Uint32())
		r.Uint32() // index
		f := sim.fieldByRef(fieldRef)
		if f != nil && f.typ.Scalar() == scene.SFNode {
			_ = r.String()
		} else if f != nil {
			readRequestValue(r, f.typ)
		}
		w.PutOp(wire.OpFieldInsertValue)
		w.PutInt32(int32(sim.nextImportCount))
	case wire.OpFieldImportNodeFromString:
		r.Uint32()
		r.Uint32()
		r.Uint32()
		_ = r.String()
		w.PutOp(wire.OpFieldInsertValue)
		w.PutInt32(int32(sim.nextImportCount))
	case wire.OpFieldRemoveValue:
		r.Uint32()
		r.Uint32()
		r.Uint32()

	case wire.OpSetLabel:
		r.Uint16()
		r.Float64()
		r.Float64()
		r.Float64()
		r.Uint32()
		_ = r.String()
		_ = r.String()

	case wire.OpNodeRemoveNode:
		id := int(r.Uint32())
		n := sim.nodeByID(id)
		w.PutOp(wire.OpNodeRemoveNode)
		w.PutUint32(uint32(id))
		if n == nil {
			w.PutInt32(-1)
			w.PutString("")
			w.PutInt32(0)
			return nil
		}
		n.removed = true
		parentField := sim.fieldByName(n.parent, "children")
		w.PutInt32(int32(n.parent))
		if parentField != nil {
			parentField.count--
			w.PutString(parentField.name)
			w.PutInt32(int32(parentField.count))
		} else {
			w.PutString("children")
			w.PutInt32(0)
		}

	case wire.OpNodeGetPosition:
		n := sim.nodeByID(int(r.Uint32()))
		sim.answerVector(w, op, vectorOrNaN(n, func(m *fakeNode) []float64 { return m.position }, 3))
	case wire.OpNodeGetOrientation:
		n := sim.nodeByID(int(r.Uint32()))
		sim.answerVector(w, op, vectorOrNaN(n, func(m *fakeNode) []float64 { return m.orientation }, 9))
	case wire.OpNodeGetCenterOfMass:
		n := sim.nodeByID(int(r.Uint32()))
		sim.answerVector(w, op, vectorOrNaN(n, func(m *fakeNode) []float64 { return m.com }, 3))
	case wire.OpNodeGetVelocity:
		n := sim.nodeByID(int(r.Uint32()))
		sim.answerVector(w, op, vectorOrNaN(n, func(m *fakeNode) []float64 { return m.velocity }, 6))
	case wire.OpNodeGetContactPoints:
		n := sim.nodeByID(int(r.Uint32()))
		r.Bool() // include descendants
		sim.contactsServed++
		w.PutOp(wire.OpNodeGetContactPoints)
		if n == nil {
			w.PutInt32(0)
			return nil
		}
		count := len(n.contactNodeIDs)
		w.PutInt32(int32(count))
		for i := 0; i < count; i++ {
			w.PutFloat64(n.contactPoints[3*i])
			w.PutFloat64(n.contactPoints[3*i+1])
			w.PutFloat64(n.contactPoints[3*i+2])
			w.PutInt32(int32(n.contactNodeIDs[i]))
		}
	case wire.OpNodeGetStaticBalance:
		n := sim.nodeByID(int(r.Uint32()))
		w.PutOp(wire.OpNodeGetStaticBalance)
		w.PutBool(n != nil && n.balanced)
	case wire.OpNodeSetVelocity:
		n := sim.nodeByID(int(r.Uint32()))
		velocity := make([]float64, 6)
		for i := range velocity {
			velocity[i] = r.Float64()
		}
		if n != nil {
			n.velocity = velocity
		}
	case wire.OpNodeResetPhysics, wire.OpNodeRestartController, wire.OpNodeMoveViewpoint:
		r.Uint32()
	case wire.OpNodeSetVisibility:
		r.Uint32()
		r.Uint32()
		r.Bool()
	case wire.OpNodeAddForce, wire.OpNodeAddTorque:
		r.Uint32()
		r.Float64()
		r.Float64()
		r.Float64()
		r.Bool()
	case wire.OpNodeAddForceWithOffset:
		r.Uint32()
		for i := 0; i < 6; i++ {
			r.Float64()
		}
		r.Bool()

	case wire.OpExportImage:
		r.Uint8()
		_ = r.String()
	case wire.OpStartMovie:
		r.Int32()
		r.Int32()
		r.Uint8()
		r.Uint8()
		r.Uint8()
		r.Bool()
		_ = r.String()
	case wire.OpStartAnimation:
		_ = r.String()
		if sim.animationStart != nil {
			w.PutOp(wire.OpAnimationStartStatus)
			w.PutBool(*sim.animationStart)
		}
	case wire.OpStopAnimation:
		if sim.animationStop != nil {
			w.PutOp(wire.OpAnimationStopStatus)
			w.PutBool(*sim.animationStop)
		}
	case wire.OpSaveWorld:
		if r.Bool() {
			_ = r.String()
		}
		if sim.saveAccepted != nil {
			w.PutOp(wire.OpSaveWorld)
			w.PutBool(*sim.saveAccepted)
		}

	case wire.OpVRHeadsetIsUsed:
		w.PutOp(wire.OpVRHeadsetIsUsed)
		w.PutBool(sim.vrUsed)
	case wire.OpVRHeadsetGetPosition:
		sim.answerVector(w, op, sim.vrPosition)
	case wire.OpVRHeadsetGetOrientation:
		sim.answerVector(w, op, sim.vrOrientation)

	default:
		return fmt.Errorf("fake simulator: unexpected request opcode 0x%02x", byte(op))
	}
	return nil
}

// answerNode emits the full node answer used by id, tag, and selection
// resolution.
func (sim *fakeSimulator) answerNode(w *wire.Writer, op wire.Op, n *fakeNode) {
	w.PutOp(op)
	if n == nil {
		w.PutUint32(0)
		w.PutUint32(0)
		w.PutInt32(0)
		w.PutUint32(0)
		w.PutBool(false)
		w.PutBool(false)
		w.PutString("")
		w.PutString("")
		return
	}
	w.PutUint32(uint32(n.id))
	w.PutUint32(uint32(n.typ))
	w.PutInt32(int32(n.tag))
	w.PutUint32(uint32(n.parent))
	w.PutBool(n.isProto)
	w.PutBool(n.protoInternal)
	w.PutString(n.model)
	w.PutString(n.def)
}

func (sim *fakeSimulator) answerFieldValue(w *wire.Writer, f *fakeField, index int) {
	key := index
	if !f.typ.IsMF() {
		key = -1
	}
	v := f.values[key]

	w.PutOp(wire.OpFieldGetValue)
	w.PutUint32(uint32(f.typ))
	switch f.typ.Scalar() {
	case scene.SFBool:
		w.PutBool(v.Bool)
	case scene.SFInt32:
		w.PutInt32(v.Int32)
	case scene.SFFloat:
		w.PutFloat64(v.Float)
	case scene.SFVec2f:
		w.PutFloat64(v.Vec[0])
		w.PutFloat64(v.Vec[1])
	case scene.SFVec3f, scene.SFColor:
		w.PutFloat64(v.Vec[0])
		w.PutFloat64(v.Vec[1])
		w.PutFloat64(v.Vec[2])
	case scene.SFRotation:
		for i := 0; i < 4; i++ {
			w.PutFloat64(v.Vec[i])
		}
	case scene.SFString:
		w.PutString(v.String)
	case scene.SFNode:
		w.PutUint32(uint32(v.NodeID))
		if v.NodeID != 0 {
			n := sim.nodeByID(int(v.NodeID))
			if n == nil {
				sim.t.Fatalf("fake simulator: field %q references unknown node %d", f.name, v.NodeID)
			}
			w.PutUint32(uint32(n.typ))
			w.PutInt32(int32(n.tag))
			w.PutUint32(uint32(n.parent))
			w.PutBool(n.isProto)
			w.PutString(n.model)
			w.PutString(n.def)
		}
	}
}

// answerVector emits a vector answer, or nothing at all when the fake has
// no data for it (the one-shot result slot then keeps its NaN sentinel).
func (sim *fakeSimulator) answerVector(w *wire.Writer, op wire.Op, vec []float64) {
	if vec == nil {
		return
	}
	w.PutOp(op)
	for _, v := range vec {
		w.PutFloat64(v)
	}
}

func vectorOrNaN(n *fakeNode, pick func(*fakeNode) []float64, size int) []float64 {
	if n != nil {
		if vec := pick(n); vec != nil {
			return vec
		}
	}
	vec := make([]float64, size)
	for i := range vec {
		vec[i] = math.NaN()
	}
	return vec
}

func nan() float64         { return math.NaN() }
func inf(sign int) float64 { return math.Inf(sign) }

// readRequestValue decodes the per-kind SET/INSERT payload of an outbound
// request.
func readRequestValue(r *wire.Reader, t scene.FieldType) scene.Value {
	var v scene.Value
	switch t.Scalar() {
	case scene.SFBool:
		v.Bool = r.Bool()
	case scene.SFInt32:
		v.Int32 = r.Int32()
	case scene.SFFloat:
		v.Float = r.Float64()
	case scene.SFVec2f:
		v.Vec[0] = r.Float64()
		v.Vec[1] = r.Float64()
	case scene.SFVec3f, scene.SFColor:
		v.Vec[0] = r.Float64()
		v.Vec[1] = r.Float64()
		v.Vec[2] = r.Float64()
	case scene.SFRotation:
		for i := 0; i < 4; i++ {
			v.Vec[i] = r.Float64()
		}
	case scene.SFString:
		v.String = r.String()
	}
	return v
}
