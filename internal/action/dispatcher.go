package action

// Envelope pairs an Action with the per-turn Context it was raised under
// (spec §4.8 "AppActionEnvelope{action, context}").
type Envelope struct {
	Action  Action
	Context Context
}

// Dispatcher is the unbounded MPSC queue of action envelopes spec §4.8
// describes ("an unbounded MPSC queue of AppActionEnvelope"). Any
// goroutine — the terminal input reader, an HTTP stream's event loop, an
// MCP server's request handler — holds only a Sender and never a
// reference to App itself (spec §3 "Ownership").
type Dispatcher struct {
	ch chan Envelope
}

// NewDispatcher returns a Dispatcher with an effectively unbounded buffer;
// Go channels are fixed-capacity, so a large buffer stands in for the
// spec's unbounded queue and Send never blocks in practice.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{ch: make(chan Envelope, 4096)}
}

// Sender is the producer half of a Dispatcher, handed out to background
// tasks so they can enqueue actions without touching App or the receive
// side of the queue.
type Sender struct {
	ch chan<- Envelope
}

// Sender returns a Sender bound to this dispatcher's queue.
func (d *Dispatcher) Sender() Sender { return Sender{ch: d.ch} }

// Send enqueues one action under ctx. Safe to call from any goroutine,
// including after the receiving loop has moved on — callers that raced a
// shutdown simply have their send ignored once the channel is drained and
// the process exits.
func (s Sender) Send(a Action, ctx Context) {
	s.ch <- Envelope{Action: a, Context: ctx}
}

// Recv exposes the consumer half for the chat loop (C14) to select on
// alongside terminal input and timers.
func (d *Dispatcher) Recv() <-chan Envelope { return d.ch }

// Drain pulls every envelope currently queued (non-blocking) and applies
// each in order, implementing spec §4.8's "apply actions one at a time,
// in arrival order" drain step. Returns the non-nil commands produced, in
// the order their actions were applied; callers execute them in that order.
func (d *Dispatcher) Drain(app *App) []Command {
	var cmds []Command
	for {
		select {
		case env := <-d.ch:
			if cmd := ApplyAction(app, env.Action, env.Context); cmd != nil {
				cmds = append(cmds, cmd)
			}
		default:
			return cmds
		}
	}
}
