// Package sim implements the discrete-event, virtual-time kernel: the
// time-bucketed message store, the latency-aware send path, partitioned
// delivery, periodic/conditional tasks, and the deterministic step loop
// .
package sim

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/example/distsim/internal/simlog"
)

// conditionalTask is a task kept outside the message store; it is polled
// whenever a delivery's arrival time is later than the previous delivery's,
// instead of being scheduled at a fixed time.
type conditionalTask struct {
	fn           func(net *Kernel)
	owner        *Node
	minStartTime int
	duration     int
	startIf      func() bool
	repeatIf     func() bool
}

// Kernel owns current virtual time, the node registry, the message store,
// the conditional-task list, the partition list, and the single RNG that
// drives every stochastic choice in a scenario.
type Kernel struct {
	time     int
	registry *Registry
	store    *messageStore
	latency  LatencyModel
	part     *PartitionSet

	rng            *rand.Rand
	msgDiscardTime int // 0 means unlimited

	conditionalTasks []*conditionalTask
	lastArrival      int

	maxX, maxY int

	log *simlog.Logger
}

// Config bundles the fixed parameters needed to construct a Kernel.
type Config struct {
	Seed    int64
	MaxX    int
	MaxY    int
	Latency LatencyModel
}

// NewKernel builds a kernel seeded for deterministic replay. Running two
// kernels with the same Config and identical scheduling decisions produces
// byte-identical counters and arrival orderings.
func NewKernel(cfg Config) *Kernel {
	if cfg.MaxX <= 0 {
		cfg.MaxX = 1_000_000
	}
	if cfg.MaxY <= 0 {
		cfg.MaxY = 1_000_000
	}
	if cfg.Latency == nil {
		cfg.Latency = ConstantLatency(10)
	}
	k := &Kernel{
		registry: &Registry{},
		store:    newMessageStore(0),
		latency:  cfg.Latency,
		part:     newPartitionSet(cfg.MaxX),
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		maxX:     cfg.MaxX,
		maxY:     cfg.MaxY,
	}
	k.log = simlog.Default().WithClock(k.Time)
	return k
}

// Time returns the kernel's current virtual time in milliseconds.
func (k *Kernel) Time() int { return k.time }

// Registry exposes the node registry (read-mostly; nodes are only ever
// mutated from within the step loop or their own handlers).
func (k *Kernel) Registry() *Registry { return k.registry }

// MaxX and MaxY report the map bounds used for positions and partitioning.
func (k *Kernel) MaxX() int { return k.maxX }
func (k *Kernel) MaxY() int { return k.maxY }

// Rand returns the kernel's single seeded RNG. Protocols built on top of the
// kernel must draw all of their stochastic choices (candidate shuffles,
// peer orderings, ...) from this source rather than their own, so that a
// scenario is fully reproduced by its seed alone.
func (k *Kernel) Rand() *rand.Rand { return k.rng }

// AddNode registers node at its own id.
func (k *Kernel) AddNode(n *Node) error {
	if err := k.registry.Add(n); err != nil {
		panic(err)
	}
	return nil
}

// GetPseudoRandom deterministically mixes nodeID and seed into [0,99],
// independent of call order: a single Send to many destinations produces
// the same per-destination latency regardless of iteration order.
func (k *Kernel) GetPseudoRandom(nodeID int, seed int64) int {
	x := uint64(nodeID)
	if x == 0 {
		x = 0x9E3779B97F4A7C15
	}
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	v := int64(x) ^ seed
	v %= 100
	if v < 0 {
		v = -v
	}
	return int(v)
}

// SetMsgDiscardTime drops, at send time, any destination whose latency
// would be >= limit. A limit of 0 disables discarding.
func (k *Kernel) SetMsgDiscardTime(limit int) { k.msgDiscardTime = limit }

// SetNetworkLatency swaps the latency model. It fails if any message is
// still in flight, since changing the model mid-flight would make already
// scheduled arrivals inconsistent with a replay.
func (k *Kernel) SetNetworkLatency(model LatencyModel) error {
	if k.store.count != 0 {
		return fmt.Errorf("sim: cannot change latency model while %d messages are in flight", k.store.count)
	}
	if model == nil {
		return fmt.Errorf("sim: latency model must not be nil")
	}
	k.latency = model
	return nil
}

// Partition adds an X-axis cut at fraction*MaxX.
func (k *Kernel) Partition(fraction float64) error { return k.part.Partition(fraction) }

// EndPartition clears every partition cut.
func (k *Kernel) EndPartition() { k.part.EndPartition() }

// Send schedules msg from "from" to every node in to, using the current
// latency model. Destinations that are down, or whose latency is at or above
// the discard threshold, are silently dropped.
func (k *Kernel) Send(msg Payload, sendTime int, from *Node, to ...*Node) error {
	return k.sendWithDelay(msg, sendTime, from, 0, to)
}

// SendWithDelay behaves like Send, but when delayBetween > 0 adds
// delayBetween+1 ms of send-time stagger between successive destinations (a
// no-op for a single destination or for delayBetween <= 0).
func (k *Kernel) SendWithDelay(msg Payload, sendTime int, from *Node, delayBetween int, to ...*Node) error {
	return k.sendWithDelay(msg, sendTime, from, delayBetween, to)
}

// SendArriveAt schedules msg from "from" to "to" with an explicit arrival
// time, bypassing the latency model. It fails if arriveAt <= current time.
func (k *Kernel) SendArriveAt(msg Payload, arriveAt int, from, to *Node) error {
	if arriveAt <= k.time {
		return fmt.Errorf("sim: arriveAt %d must be after current time %d", arriveAt, k.time)
	}
	if from == nil || to == nil {
		return fmt.Errorf("sim: send requires both a sender and a receiver")
	}
	k.checkPayload(msg)
	if from.Down || to.Down {
		return nil
	}
	from.MsgSent++
	from.BytesSent += int64(msg.Size())
	env := &envelope{payload: msg, fromID: from.ID, dests: []destination{{nodeID: to.ID, arrival: arriveAt}}}
	return k.store.addMsg(env, k.time)
}

func (k *Kernel) checkPayload(msg Payload) {
	if msg == nil {
		panic("sim: send requires a payload")
	}
	if _, isTask := msg.(*taskPayload); !isTask && msg.Size() == 0 {
		panic("sim: a non-task payload must have non-zero size")
	}
}

type pendingDest struct {
	node    *Node
	arrival int
}

func (k *Kernel) sendWithDelay(msg Payload, sendTime int, from *Node, delayBetween int, to []*Node) error {
	if sendTime < k.time {
		panic(fmt.Sprintf("sim: send scheduled in the past (sendTime=%d, time=%d)", sendTime, k.time))
	}
	if from == nil {
		panic("sim: send requires a sender")
	}
	k.checkPayload(msg)
	if len(to) == 0 {
		return nil
	}

	seed := k.rng.Int63()
	pending := make([]pendingDest, 0, len(to))
	t := sendTime
	for i, n := range to {
		if n == nil {
			continue
		}
		if delayBetween > 0 && i > 0 {
			t += delayBetween + 1
		}
		if from.Down || n.Down {
			continue
		}
		rnd := k.GetPseudoRandom(n.ID, seed)
		lat := k.latency.Latency(from, n, rnd)
		if k.msgDiscardTime > 0 && lat >= k.msgDiscardTime {
			continue
		}
		arrival := t + lat
		if arrival < t+1 {
			arrival = t + 1
		}
		pending = append(pending, pendingDest{node: n, arrival: arrival})
		from.MsgSent++
		from.BytesSent += int64(msg.Size())
	}
	if len(pending) == 0 {
		return nil
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].arrival < pending[j].arrival })

	env := &envelope{payload: msg, fromID: from.ID, dests: make([]destination, len(pending))}
	for i, p := range pending {
		env.dests[i] = destination{nodeID: p.node.ID, arrival: p.arrival}
	}
	return k.store.addMsg(env, k.time)
}

// RegisterTask schedules fn to run once at startAt, as a message owner
// sends to itself. Same-tick scheduling is legal; scheduling into the
// past is a programmer error.
func (k *Kernel) RegisterTask(fn func(net *Kernel), startAt int, owner *Node) {
	payload := &taskPayload{fn: fn}
	env := &envelope{payload: payload, fromID: owner.ID, dests: []destination{{nodeID: owner.ID, arrival: startAt}}}
	if err := k.store.addMsg(env, k.time); err != nil {
		panic(err)
	}
}

// RegisterPeriodicTask runs fn every period ms starting at startAt, for as
// long as cond (if non-nil) returns true.
func (k *Kernel) RegisterPeriodicTask(fn func(net *Kernel), startAt, period int, owner *Node, cond func() bool) {
	var reschedule func(net *Kernel)
	reschedule = func(net *Kernel) {
		if cond != nil && !cond() {
			return
		}
		fn(net)
		net.RegisterTask(reschedule, net.time+period, owner)
	}
	k.RegisterTask(reschedule, startAt, owner)
}

// RegisterConditionalTask adds fn to the conditional-task list: it is not
// scheduled in the store, but is polled at the first delivery of each new
// arrival millisecond.
// It first runs no earlier than startAt and, once it has run, not
// again until duration ms later; repeatIf is checked before startIf on
// every poll and, once false, drops the task for good.
func (k *Kernel) RegisterConditionalTask(fn func(net *Kernel), startAt, duration int, owner *Node, startIf, repeatIf func() bool) {
	k.conditionalTasks = append(k.conditionalTasks, &conditionalTask{
		fn:           fn,
		owner:        owner,
		minStartTime: startAt,
		duration:     duration,
		startIf:      startIf,
		repeatIf:     repeatIf,
	})
}

func (k *Kernel) runConditionalTasks(now int) {
	if len(k.conditionalTasks) == 0 {
		return
	}
	kept := k.conditionalTasks[:0]
	for _, task := range k.conditionalTasks {
		if task.repeatIf != nil && !task.repeatIf() {
			continue
		}
		if now >= task.minStartTime && (task.startIf == nil || task.startIf()) {
			task.fn(k)
			task.minStartTime = now + task.duration
		}
		kept = append(kept, task)
	}
	k.conditionalTasks = kept
}

// Run advances virtual time by seconds.
func (k *Kernel) Run(seconds int) { k.RunMs(seconds * 1000) }

// RunMs advances time to time+delta, executing every event scheduled at a
// time <= the new time, then sets time = time+delta unconditionally.
func (k *Kernel) RunMs(delta int) {
	endAt := k.time + delta
	k.receiveUntil(endAt)
	k.time = endAt
	k.store.cleanup(k.time)
}

func (k *Kernel) receiveUntil(endAt int) {
	for k.time <= endAt {
		if k.store.isEmptyAt(k.time) {
			k.time++
			k.store.cleanup(k.time)
			continue
		}
		for {
			env := k.store.poll(k.time)
			if env == nil {
				break
			}
			k.deliverOne(env)
		}
	}
}

// deliverOne processes one destination of env: runs due conditional tasks,
// delivers (or silently drops, across a partition) the payload, and
// re-enqueues env if further destinations remain.
func (k *Kernel) deliverOne(env *envelope) {
	d, ok := env.current()
	if !ok {
		return
	}
	if d.arrival > k.lastArrival {
		k.runConditionalTasks(d.arrival)
		k.lastArrival = d.arrival
	}

	from := k.registry.Get(env.fromID)
	to := k.registry.Get(d.nodeID)
	if from != nil && to != nil && k.part.PartitionOf(from.X) == k.part.PartitionOf(to.X) {
		if _, isTask := env.payload.(*taskPayload); !isTask {
			if env.payload.Size() == 0 {
				panic("sim: delivered a non-task payload with zero size")
			}
			to.MsgReceived++
			to.BytesReceived += int64(env.payload.Size())
		}
		env.payload.Action(k, from, to)
	}

	if env.advance() {
		if err := k.store.addMsg(env, k.time); err != nil {
			panic(err)
		}
	}
}

// Log returns the kernel's logger. Its lines are stamped with this
// kernel's virtual time; callers add node id and protocol level.
func (k *Kernel) Log() *simlog.Logger { return k.log }

// SetLog overrides the kernel's logger (tests typically install a quieter
// one). The replacement is re-bound to this kernel's virtual clock.
func (k *Kernel) SetLog(l *simlog.Logger) {
	if l != nil {
		k.log = l.WithClock(k.Time)
	}
}
