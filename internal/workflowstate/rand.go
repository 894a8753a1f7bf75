package workflowstate

import (
	"hash/fnv"
	"math/rand"
)

// Rand returns a deterministic random source for this execution. It is
// seeded from the execution ID, so replays observe the same sequence of
// values as the original execution.
func (wf *WfState) Rand() *rand.Rand {
	if wf.rand == nil {
		h := fnv.New64a()
		h.Write([]byte(wf.instance.ExecutionID))
		wf.rand = rand.New(rand.NewSource(int64(h.Sum64())))
	}

	return wf.rand
}
