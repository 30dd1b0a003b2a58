package supervisor

import (
	"context"

	"github.com/signalsfoundry/scene-supervisor/internal/logging"
	"github.com/signalsfoundry/scene-supervisor/scene"
)

// requestKind tags the intent of a queued field request.
type requestKind uint8

const (
	requestGet requestKind = iota + 1
	requestSet
	requestImport
	requestImportFromString
	requestRemove
)

var requestKindNames = map[requestKind]string{
	requestGet:              "get",
	requestSet:              "set",
	requestImport:           "import",
	requestImportFromString: "import_from_string",
	requestRemove:           "remove",
}

func (k requestKind) String() string { return requestKindNames[k] }

// fieldRequest records an intended field mutation or fetch. index is -1
// for SF operations. isString marks requests whose payload backs the wire
// frame and therefore must survive on the garbage list until the frame has
// been transmitted.
type fieldRequest struct {
	kind     requestKind
	index    int
	data     scene.Value
	isString bool
	field    *scene.Field
}

// appendFieldRequest creates a request and appends it to the pending FIFO.
// With clampIndex set, an out-of-range MF index degrades to 0 with a
// warning instead of being dropped. Requires the step lock.
func (s *Supervisor) appendFieldRequest(f *scene.Field, kind requestKind, index int, data scene.Value, clampIndex bool) {
	if clampIndex {
		offset := 0
		if kind == requestImport || kind == requestImportFromString {
			offset = 1
		}
		if f.Count != -1 && (index >= f.Count+offset || index < 0) {
			s.log.Warn(context.Background(), "field request index out of range, defaulting to 0",
				logging.String("field", f.Name), logging.Int("index", index))
			index = 0
		}
	}
	s.queue = append(s.queue, &fieldRequest{
		kind:  kind,
		index: index,
		data:  data,
		isString: f.Type == scene.SFString || f.Type == scene.MFString ||
			kind == requestImportFromString ||
			(kind == requestImport && f.Type == scene.MFNode),
		field: f,
	})
	s.metrics.ObserveRequestQueued(kind.String())
	s.metrics.SetQueueDepth(len(s.queue))
}

// fieldOperationLocked runs the coalescing protocol for GET and SET, then
// enqueues and, for everything but the deferred SET, flushes. Requires the
// step lock.
//
// Coalescing: a GET issued while a SET on the same (field, index) is
// pending copies that SET's data into the field cache and returns without
// any network traffic; a second SET overwrites the pending one in place.
func (s *Supervisor) fieldOperationLocked(f *scene.Field, kind requestKind, index int, data scene.Value) {
	if kind == requestGet || kind == requestSet {
		for _, r := range s.queue {
			if r.field != f || r.kind != requestSet || r.index != index {
				continue
			}
			if kind == requestGet {
				f.Data = r.data
			} else {
				r.data = data
			}
			s.metrics.ObserveCoalesced(kind.String())
			return
		}
	}

	// A GET round-trips synchronously below, so by construction at most one
	// GET is ever outstanding.
	s.appendFieldRequest(f, kind, index, data, true)
	if kind != requestSet {
		s.flushUnlocked()
	}
}
