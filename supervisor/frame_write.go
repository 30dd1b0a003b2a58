package supervisor

import (
	"github.com/signalsfoundry/scene-supervisor/internal/wire"
	"github.com/signalsfoundry/scene-supervisor/scene"
)

// writeRequest serialises every pending mutation and one-shot into the
// outbound frame. The step driver invokes this exactly once per step via
// the flush path. The emission order is fixed: the simulator's dispatcher
// relies on it to attribute one-shot answers unambiguously. Requires the
// step lock.
func (s *Supervisor) writeRequest(w *wire.Writer) {
	st := &s.session

	// At most one global session action opens the frame.
	if st.simulationChangeMode {
		w.PutOp(wire.OpSimulationChangeMode)
		w.PutInt32(int32(s.mode))
		st.simulationChangeMode = false
	} else if st.simulationQuit {
		w.PutOp(wire.OpSimulationQuit)
		w.PutInt32(int32(st.simulationQuitStatus))
		st.simulationQuit = false
	} else if st.simulationReset {
		w.PutOp(wire.OpSimulationReset)
		st.simulationReset = false
	} else if st.worldReload {
		w.PutOp(wire.OpReloadWorld)
		st.worldReload = false
	} else if st.simulationResetPhysics {
		w.PutOp(wire.OpSimulationResetPhysics)
		st.simulationResetPhysics = false
	} else if st.worldToLoad != "" {
		w.PutOp(wire.OpLoadWorld)
		w.PutString(st.worldToLoad)
		st.worldToLoad = ""
	}

	// One armed resolution, or else the whole queued request list.
	if st.nodeID >= 0 {
		w.PutOp(wire.OpNodeGetFromID)
		w.PutUint32(uint32(st.nodeID))
	} else if st.nodeDEFName != "" {
		w.PutOp(wire.OpNodeGetFromDEF)
		w.PutString(st.nodeDEFName)
		w.PutInt32(int32(st.protoID))
	} else if st.nodeTag > 0 {
		w.PutOp(wire.OpNodeGetFromTag)
		w.PutInt32(int32(st.nodeTag))
	} else if st.nodeGetSelected {
		w.PutOp(wire.OpNodeGetSelected)
	} else if st.requestedFieldName != "" {
		w.PutOp(wire.OpFieldGetFromName)
		w.PutUint32(uint32(st.nodeRef))
		w.PutString(st.requestedFieldName)
		w.PutBool(st.allowSearchInProto)
	} else {
		queue := s.queue
		s.queue = nil
		for _, req := range queue {
			s.writeFieldRequest(w, req)
			if req.kind == requestGet {
				// The stashed request is needed to decode the paired answer;
				// only one GET is ever in flight.
				s.sentGet = req
			} else {
				// The wire frame borrows the request's string payload, so it
				// stays on the garbage list until after transmission.
				s.garbage = append(s.garbage, req)
			}
		}
		s.metrics.SetQueueDepth(0)
	}

	for _, l := range st.labels {
		w.PutOp(wire.OpSetLabel)
		w.PutUint16(uint16(l.id))
		w.PutFloat64(l.x)
		w.PutFloat64(l.y)
		w.PutFloat64(l.size)
		w.PutUint32(l.color)
		w.PutString(l.text)
		w.PutString(l.font)
	}
	st.labels = nil

	if st.nodeToRemove != nil {
		w.PutOp(wire.OpNodeRemoveNode)
		w.PutUint32(uint32(st.nodeToRemove.ID))
		st.nodeToRemove = nil
	}

	if st.positionNode != nil {
		w.PutOp(wire.OpNodeGetPosition)
		w.PutUint32(uint32(st.positionNode.ID))
	}
	if st.orientationNode != nil {
		w.PutOp(wire.OpNodeGetOrientation)
		w.PutUint32(uint32(st.orientationNode.ID))
	}
	if st.centerOfMassNode != nil {
		w.PutOp(wire.OpNodeGetCenterOfMass)
		w.PutUint32(uint32(st.centerOfMassNode.ID))
	}
	if st.contactPointsNode != nil {
		w.PutOp(wire.OpNodeGetContactPoints)
		w.PutUint32(uint32(st.contactPointsNode.ID))
		w.PutBool(st.contactPointsIncludeDescendants)
	}
	if st.staticBalanceNode != nil {
		w.PutOp(wire.OpNodeGetStaticBalance)
		w.PutUint32(uint32(st.staticBalanceNode.ID))
	}
	if st.getVelocityNode != nil {
		w.PutOp(wire.OpNodeGetVelocity)
		w.PutUint32(uint32(st.getVelocityNode.ID))
	}
	if st.setVelocityNode != nil {
		w.PutOp(wire.OpNodeSetVelocity)
		w.PutUint32(uint32(st.setVelocityNode.ID))
		for _, v := range st.velocity {
			w.PutFloat64(v)
		}
	}
	if st.resetPhysicsNode != nil {
		w.PutOp(wire.OpNodeResetPhysics)
		w.PutUint32(uint32(st.resetPhysicsNode.ID))
	}
	if st.restartControllerNode != nil {
		w.PutOp(wire.OpNodeRestartController)
		w.PutUint32(uint32(st.restartControllerNode.ID))
	}
	if st.visibilityNode != nil {
		w.PutOp(wire.OpNodeSetVisibility)
		w.PutUint32(uint32(st.visibilityNode.ID))
		w.PutUint32(uint32(st.visibilityFromNode.ID))
		w.PutBool(st.nodeVisible)
	}
	if st.moveViewpointNode != nil {
		w.PutOp(wire.OpNodeMoveViewpoint)
		w.PutUint32(uint32(st.moveViewpointNode.ID))
	}
	if st.addForceNode != nil {
		w.PutOp(wire.OpNodeAddForce)
		w.PutUint32(uint32(st.addForceNode.ID))
		for _, v := range st.forceOrTorque {
			w.PutFloat64(v)
		}
		w.PutBool(st.forceRelative)
	}
	if st.addForceWithOffsetNode != nil {
		w.PutOp(wire.OpNodeAddForceWithOffset)
		w.PutUint32(uint32(st.addForceWithOffsetNode.ID))
		for _, v := range st.forceOrTorque {
			w.PutFloat64(v)
		}
		for _, v := range st.forceOffset {
			w.PutFloat64(v)
		}
		w.PutBool(st.forceRelative)
	}
	if st.addTorqueNode != nil {
		w.PutOp(wire.OpNodeAddTorque)
		w.PutUint32(uint32(st.addTorqueNode.ID))
		for _, v := range st.forceOrTorque {
			w.PutFloat64(v)
		}
		w.PutBool(st.forceRelative)
	}

	if st.exportImageFilename != "" {
		w.PutOp(wire.OpExportImage)
		w.PutUint8(uint8(st.exportImageQuality))
		w.PutString(st.exportImageFilename)
		st.exportImageFilename = ""
	}
	if st.movieFilename != "" {
		w.PutOp(wire.OpStartMovie)
		w.PutInt32(int32(st.movieWidth))
		w.PutInt32(int32(st.movieHeight))
		w.PutUint8(uint8(st.movieCodec))
		w.PutUint8(uint8(st.movieQuality))
		w.PutUint8(uint8(st.movieAcceleration))
		w.PutBool(st.movieCaption)
		w.PutString(st.movieFilename)
		st.movieFilename = ""
	}
	if st.movieStop {
		w.PutOp(wire.OpStopMovie)
		st.movieStop = false
	}
	if st.animationFilename != "" {
		w.PutOp(wire.OpStartAnimation)
		w.PutString(st.animationFilename)
		st.animationFilename = ""
	}
	if st.animationStop {
		w.PutOp(wire.OpStopAnimation)
		st.animationStop = false
	}
	if st.saveRequest {
		w.PutOp(wire.OpSaveWorld)
		w.PutBool(st.saveHasFilename)
		if st.saveHasFilename {
			w.PutString(st.saveFilename)
			st.saveFilename = ""
		}
		st.saveRequest = false
	}

	if st.vrIsUsedRequest {
		w.PutOp(wire.OpVRHeadsetIsUsed)
	}
	if st.vrPositionRequest {
		w.PutOp(wire.OpVRHeadsetGetPosition)
	}
	if st.vrOrientationRequest {
		w.PutOp(wire.OpVRHeadsetGetOrientation)
	}

	s.metrics.ObserveFrameWritten()
}

// writeFieldRequest emits one queued request with its opcode-specific
// payload layout.
func (s *Supervisor) writeFieldRequest(w *wire.Writer, req *fieldRequest) {
	f := req.field
	switch req.kind {
	case requestGet:
		w.PutOp(wire.OpFieldGetValue)
		w.PutUint32(uint32(f.NodeID))
		w.PutUint32(uint32(f.ID))
		w.PutBool(f.ProtoInternal)
		if req.index != -1 {
			w.PutUint32(uint32(req.index)) // MF fields only
		}
	case requestSet:
		w.PutOp(wire.OpFieldSetValue)
		w.PutUint32(uint32(f.NodeID))
		w.PutUint32(uint32(f.ID))
		w.PutUint32(uint32(f.Type))
		w.PutUint32(uint32(req.index))
		writeValue(w, f.Type, req.data)
	case requestImport:
		w.PutOp(wire.OpFieldInsertValue)
		w.PutUint32(uint32(f.NodeID))
		w.PutUint32(uint32(f.ID))
		w.PutUint32(uint32(req.index))
		if f.Type == scene.MFNode || f.Type == scene.SFNode {
			// Node imports carry a filename or textual node description.
			w.PutString(req.data.String)
		} else {
			writeValue(w, f.Type, req.data)
		}
	case requestImportFromString:
		w.PutOp(wire.OpFieldImportNodeFromString)
		w.PutUint32(uint32(f.NodeID))
		w.PutUint32(uint32(f.ID))
		w.PutUint32(uint32(req.index))
		w.PutString(req.data.String)
	case requestRemove:
		w.PutOp(wire.OpFieldRemoveValue)
		w.PutUint32(uint32(f.NodeID))
		w.PutUint32(uint32(f.ID))
		w.PutUint32(uint32(req.index))
	}
}

// writeValue serialises a field payload per kind.
func writeValue(w *wire.Writer, t scene.FieldType, v scene.Value) {
	switch t.Scalar() {
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
		w.PutFloat64(v.Vec[0])
		w.PutFloat64(v.Vec[1])
		w.PutFloat64(v.Vec[2])
		w.PutFloat64(v.Vec[3])
	case scene.SFString:
		w.PutString(v.String)
	}
}
