package supervisor

import "github.com/signalsfoundry/scene-supervisor/scene"

// label is a queued on-screen overlay record. Labels are keyed by id;
// re-setting an id replaces its text and font before the next frame.
type label struct {
	id    int
	text  string
	font  string
	x     float64
	y     float64
	size  float64
	color uint32 // RGB with alpha packed in the high byte
}

// sessionState collects every one-shot request slot and session flag of
// the supervisor. Each armed slot is consumed by the next frame write; the
// paired answer repopulates the matching result cell.
type sessionState struct {
	exportImageFilename string
	exportImageQuality  int

	simulationQuit         bool
	simulationQuitStatus   int
	simulationReset        bool
	worldReload            bool
	simulationResetPhysics bool
	simulationChangeMode   bool
	worldToLoad            string

	importedNodes int

	movieStop         bool
	movieStatus       MovieStatus
	movieFilename     string
	movieQuality      int
	movieCodec        int
	movieWidth        int
	movieHeight       int
	movieAcceleration int
	movieCaption      bool

	animationStop        bool
	animationFilename    string
	animationStartStatus bool
	animationStopStatus  bool

	saveRequest     bool
	saveHasFilename bool
	saveFilename    string
	saveStatus      bool

	// Node/field resolution slots. nodeID doubles as the answer cell: the
	// frame reader stores the resolved uid there.
	nodeID             int
	nodeTag            int
	nodeDEFName        string
	protoID            int
	nodeGetSelected    bool
	requestedFieldName string
	allowSearchInProto bool
	nodeRef            int

	nodeToRemove *scene.Node

	positionNode     *scene.Node
	orientationNode  *scene.Node
	centerOfMassNode *scene.Node

	contactPointsNode               *scene.Node
	contactPointsIncludeDescendants bool
	allowsContactPointInternalNode  bool

	staticBalanceNode     *scene.Node
	resetPhysicsNode      *scene.Node
	restartControllerNode *scene.Node

	visibilityNode     *scene.Node
	visibilityFromNode *scene.Node
	nodeVisible        bool

	moveViewpointNode *scene.Node

	getVelocityNode *scene.Node
	setVelocityNode *scene.Node
	velocity        [6]float64

	addForceNode           *scene.Node
	addForceWithOffsetNode *scene.Node
	addTorqueNode          *scene.Node
	forceOrTorque          [3]float64
	forceOffset            [3]float64
	forceRelative          bool

	vrIsUsedRequest      bool
	vrIsUsed             bool
	vrPositionRequest    bool
	vrPosition           []float64
	vrOrientationRequest bool
	vrOrientation        []float64

	labels []*label
}

// reset restores the idle defaults. The negative resolution slots mean
// "not armed"; the status cells default to success so a flush that never
// produces a status answer reads as one.
func (st *sessionState) reset() {
	*st = sessionState{
		importedNodes:        -1,
		nodeID:               -1,
		nodeTag:              -1,
		protoID:              -1,
		movieStatus:          MovieReady,
		movieAcceleration:    1,
		animationStartStatus: true,
		animationStopStatus:  true,
		saveStatus:           true,
	}
}
