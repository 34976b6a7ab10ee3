package vm

import "github.com/certen-labs/chainkit/pkg/events"

// ReplyOn selects which sub-message outcomes the parent wants reported back
// to it via its reply entry point, per SPEC_FULL.md §4.4.
type ReplyOn int

const (
	ReplyNever ReplyOn = iota
	ReplyOnSuccess
	ReplyOnError
	ReplyOnAlways
)

func (r ReplyOn) wantsSuccess() bool { return r == ReplyOnSuccess || r == ReplyOnAlways }
func (r ReplyOn) wantsError() bool   { return r == ReplyOnError || r == ReplyOnAlways }

// Message is an opaque, contract-defined payload addressed to one contract:
// the state machine loads the Target account and calls its EntryPoint with
// Payload. There are no chain-level message kinds (transfer, upload-code,
// upgrade, ...); every message is such a contract call. The VM layer treats
// it as bytes plus a routing tag and leaves interpretation to C5.
type Message struct {
	// Target is the address of the contract the message is addressed to;
	// DecodeTx rejects a message without one.
	Target []byte
	// EntryPoint names which exported function the message invokes.
	EntryPoint string
	Payload    []byte
}

// SubMsg is one outgoing directive a contract call can return alongside its
// Response, mirroring the (message, reply_on, gas_limit?, id) tuple
// SPEC_FULL.md §4.4 describes.
type SubMsg struct {
	ID       uint64
	Msg      Message
	ReplyOn  ReplyOn
	GasLimit *uint64
}

// Response is what every contract entry point returns: the events it
// emitted plus any sub-messages the state machine must execute afterward.
type Response struct {
	Events   []events.Event
	Messages []SubMsg
}

func NewResponse() Response {
	return Response{}
}

func (r Response) WithEvent(e events.Event) Response {
	r.Events = append(r.Events, e)
	return r
}

func (r Response) WithMessage(m SubMsg) Response {
	r.Messages = append(r.Messages, m)
	return r
}

// WantsReply reports whether outcome (true = sub-message succeeded) should
// be reported back to the parent via reply, per this SubMsg's ReplyOn.
func (m SubMsg) WantsReply(succeeded bool) bool {
	if succeeded {
		return m.ReplyOn.wantsSuccess()
	}
	return m.ReplyOn.wantsError()
}
