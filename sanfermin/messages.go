package sanfermin

import "github.com/example/distsim/sim"

// replyStatus is the SwapReply status: OK (the peer used/returned a value)
// or NO (the peer could not help at the requested level).
type replyStatus int

const (
	statusOK replyStatus = iota
	statusNO
)

// swapRequest asks a peer to aggregate at a given level.
type swapRequest struct {
	proto    *Protocol
	level    int
	aggValue int
}

func (r *swapRequest) Size() int { return r.proto.params.SignatureSize }

func (r *swapRequest) Action(net *sim.Kernel, from, to *sim.Node) {
	r.proto.onSwapRequest(from.ID, to.ID, r.level, r.aggValue)
}

// swapReply answers a swapRequest, either with a usable aggregate (OK) or a
// refusal (NO).
type swapReply struct {
	proto    *Protocol
	status   replyStatus
	level    int
	aggValue int
}

func (r *swapReply) Size() int { return r.proto.params.SignatureSize }

func (r *swapReply) Action(net *sim.Kernel, from, to *sim.Node) {
	r.proto.onSwapReply(from.ID, to.ID, r.status, r.level, r.aggValue)
}
