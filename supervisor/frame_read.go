package supervisor

import (
	"fmt"

	"github.com/signalsfoundry/scene-supervisor/internal/wire"
	"github.com/signalsfoundry/scene-supervisor/scene"
)

// readAnswer decodes one opcode-tagged answer from the inbound frame,
// populating handle caches and one-shot result slots. Unknown opcodes are
// handed back to the fallback dispatcher of the surrounding robot runtime.
// Requires the step lock.
func (s *Supervisor) readAnswer(r *wire.Reader) error {
	st := &s.session
	op := r.Op()

	switch op {
	case wire.OpConfigure:
		uid := int(r.Uint32())
		isProto := r.Bool()
		isProtoInternal := r.Bool()
		modelName := r.String()
		defName := r.String()
		if r.Err() != nil {
			break
		}
		s.self = s.registry.AddNode(uid, scene.NodeRobot, modelName, defName, 0, -1, isProto)
		s.self.ProtoInternal = isProtoInternal

	case wire.OpNodeGetFromDEF:
		uid := int(r.Uint32())
		nodeType := scene.NodeType(r.Uint32())
		tag := int(r.Int32())
		parentUID := int(r.Uint32())
		isProto := r.Bool()
		modelName := r.String()
		if r.Err() != nil {
			break
		}
		if uid != 0 {
			s.registry.AddNode(uid, nodeType, modelName, st.nodeDEFName, tag, parentUID, isProto)
			st.nodeID = uid
		}

	case wire.OpNodeGetSelected, wire.OpNodeGetFromID, wire.OpNodeGetFromTag:
		uid := int(r.Uint32())
		nodeType := scene.NodeType(r.Uint32())
		tag := int(r.Int32())
		parentUID := int(r.Uint32())
		isProto := r.Bool()
		isProtoInternal := r.Bool()
		modelName := r.String()
		defName := r.String()
		if r.Err() != nil {
			break
		}
		// Internal-PROTO nodes stay hidden unless a contact-point sub-node
		// is being resolved.
		if uid != 0 && (!isProtoInternal || st.allowsContactPointInternalNode) {
			n := s.registry.AddNode(uid, nodeType, modelName, defName, tag, parentUID, isProto)
			if isProtoInternal {
				n.ProtoInternal = true
			}
			st.nodeID = uid
		}

	case wire.OpFieldGetFromName:
		fieldRef := int(r.Int32())
		fieldType := scene.FieldType(r.Uint32())
		isProtoInternal := r.Bool()
		count := -1
		if fieldType.IsMF() {
			count = int(r.Int32())
		}
		if r.Err() != nil {
			break
		}
		if fieldRef == -1 {
			// Not found: clearing the name slot signals the caller.
			st.requestedFieldName = ""
			break
		}
		s.registry.AddField(&scene.Field{
			Name:          st.requestedFieldName,
			Type:          fieldType,
			Count:         count,
			NodeID:        st.nodeRef,
			ID:            fieldRef,
			ProtoInternal: isProtoInternal,
		})

	case wire.OpFieldGetValue:
		s.readFieldValue(r)

	case wire.OpNodeRegenerated:
		s.registry.PurgeProtoInternal()

	case wire.OpFieldInsertValue:
		st.importedNodes = int(r.Int32())

	case wire.OpNodeRemoveNode:
		removedUID := int(r.Uint32())
		parentUID := int(r.Int32())
		fieldName := r.String()
		parentFieldCount := int(r.Int32())
		if r.Err() != nil {
			break
		}
		s.registry.RemoveNode(removedUID)
		if parentUID >= 0 {
			if parentField := s.registry.FindField(fieldName, parentUID); parentField != nil {
				parentField.Count = parentFieldCount
			}
		}

	case wire.OpNodeGetPosition:
		vec := readVector(r, 3)
		if r.Err() == nil && st.positionNode != nil {
			st.positionNode.Position = vec
		}

	case wire.OpNodeGetOrientation:
		vec := readVector(r, 9)
		if r.Err() == nil && st.orientationNode != nil {
			st.orientationNode.Orientation = vec
		}

	case wire.OpNodeGetCenterOfMass:
		vec := readVector(r, 3)
		if r.Err() == nil && st.centerOfMassNode != nil {
			st.centerOfMassNode.CenterOfMass = vec
		}

	case wire.OpNodeGetContactPoints:
		count := int(r.Int32())
		var points []float64
		var ids []int
		if count > 0 {
			points = make([]float64, 0, 3*count)
			ids = make([]int, 0, count)
			for i := 0; i < count; i++ {
				points = append(points, r.Float64(), r.Float64(), r.Float64())
				ids = append(ids, int(r.Int32()))
			}
		}
		if r.Err() == nil && st.contactPointsNode != nil {
			st.contactPointsNode.NumContactPoints = count
			st.contactPointsNode.ContactPoints = points
			st.contactPointsNode.ContactPointNodeIDs = ids
		}

	case wire.OpNodeGetStaticBalance:
		balanced := r.Bool()
		if r.Err() == nil && st.staticBalanceNode != nil {
			st.staticBalanceNode.StaticBalance = balanced
		}

	case wire.OpNodeGetVelocity:
		vec := readVector(r, 6)
		if r.Err() == nil && st.getVelocityNode != nil {
			st.getVelocityNode.Velocity = vec
		}

	case wire.OpAnimationStartStatus:
		st.animationStartStatus = r.Bool()

	case wire.OpAnimationStopStatus:
		st.animationStopStatus = r.Bool()

	case wire.OpMovieStatus:
		st.movieStatus = MovieStatus(r.Uint8())

	case wire.OpSaveWorld:
		st.saveStatus = r.Bool()

	case wire.OpVRHeadsetIsUsed:
		st.vrIsUsed = r.Bool()

	case wire.OpVRHeadsetGetPosition:
		st.vrPosition = readVector(r, 3)

	case wire.OpVRHeadsetGetOrientation:
		st.vrOrientation = readVector(r, 9)

	default:
		// Protocol extension point: hand the opcode back to the base robot
		// runtime's dispatcher.
		r.Unread(1)
		if s.fallback != nil {
			return s.fallback(op, r)
		}
		return fmt.Errorf("unhandled answer opcode 0x%02x", byte(op))
	}

	if err := r.Err(); err != nil {
		return fmt.Errorf("decode %v answer: %w", op, err)
	}
	s.metrics.ObserveAnswer(op.String())
	return nil
}

// readFieldValue decodes the answer to the single outstanding GET and
// releases the stashed request.
func (s *Supervisor) readFieldValue(r *wire.Reader) {
	fieldType := scene.FieldType(r.Uint32())

	// fieldType 0 means the target node was deleted server-side.
	if s.sentGet != nil && fieldType != scene.NoField {
		f := s.sentGet.field
		switch f.Type.Scalar() {
		case scene.SFBool:
			f.Data.Bool = r.Bool()
		case scene.SFInt32:
			f.Data.Int32 = r.Int32()
		case scene.SFFloat:
			f.Data.Float = r.Float64()
		case scene.SFVec2f:
			f.Data.Vec[0] = r.Float64()
			f.Data.Vec[1] = r.Float64()
		case scene.SFVec3f, scene.SFColor:
			f.Data.Vec[0] = r.Float64()
			f.Data.Vec[1] = r.Float64()
			f.Data.Vec[2] = r.Float64()
		case scene.SFRotation:
			f.Data.Vec[0] = r.Float64()
			f.Data.Vec[1] = r.Float64()
			f.Data.Vec[2] = r.Float64()
			f.Data.Vec[3] = r.Float64()
		case scene.SFString:
			f.Data.String = r.String()
		case scene.SFNode:
			f.Data.NodeID = int32(r.Uint32()) // 0 means a null node
			if f.Data.NodeID != 0 {
				nodeType := scene.NodeType(r.Uint32())
				tag := int(r.Int32())
				parentUID := int(r.Uint32())
				isProto := r.Bool()
				modelName := r.String()
				defName := r.String()
				if r.Err() == nil {
					s.registry.AddNode(int(f.Data.NodeID), nodeType, modelName, defName, tag, parentUID, isProto)
				}
			}
		}
	}
	s.sentGet = nil
}

func readVector(r *wire.Reader, n int) []float64 {
	vec := make([]float64, n)
	for i := range vec {
		vec[i] = r.Float64()
	}
	if r.Err() != nil {
		return nil
	}
	return vec
}
