package media

import (
	"github.com/gopxl/beep/v2"
)

// sourceNode is the element's stable output node. It streams whatever is
// loaded and pads with silence, so the speaker never drains it. The end of a
// loaded stream is reported once per load, through onError when the decoder
// failed and through onEnd otherwise.
//
// All fields are guarded by the speaker lock.
type sourceNode struct {
	ctrl    *beep.Ctrl
	gen     uint64
	ended   bool
	onEnd   func(gen uint64)
	onError func(gen uint64, err error)
}

func (n *sourceNode) load(ctrl *beep.Ctrl, gen uint64) {
	n.ctrl = ctrl
	n.gen = gen
	n.ended = false
}

func (n *sourceNode) clear() {
	n.ctrl = nil
	n.gen = 0
	n.ended = false
}

func (n *sourceNode) Stream(samples [][2]float64) (int, bool) {
	filled := 0
	if n.ctrl != nil && !n.ended {
		k, ok := n.ctrl.Stream(samples)
		filled = k
		if !ok || k < len(samples) {
			n.ended = true
			if err := n.ctrl.Err(); err != nil && n.onError != nil {
				n.onError(n.gen, err)
			} else if n.onEnd != nil {
				n.onEnd(n.gen)
			}
		}
	}
	clear(samples[filled:])
	return len(samples), true
}

func (n *sourceNode) Err() error { return nil }

// router sends the node through the effects chain when one is routed in and
// straight out otherwise. Guarded by the speaker lock.
type router struct {
	node *sourceNode
	out  beep.Streamer
}

func (r *router) Stream(samples [][2]float64) (int, bool) {
	if r.out != nil {
		return r.out.Stream(samples)
	}
	return r.node.Stream(samples)
}

func (r *router) Err() error { return nil }
