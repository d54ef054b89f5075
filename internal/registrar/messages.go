package registrar

import (
	"github.com/nameregistry/nameregistry/pkg/types"
)

// The mailbox carries local API calls only, each with a reply channel
// since spec §5 requires register/unregister/set_meta/set_priority to
// "complete synchronously with the registrar". Inbound peer frames,
// membership events, and liveness DOWN events arrive on their own
// channels and are merged into the same FIFO order by run()'s select
// loop (spec §5 "Local total order") rather than boxed into the mailbox
// — grounded on internal/core/swarm/dial/scheduler.go's single `select`
// consuming several typed channels directly.

type msgRegister struct {
	name      types.Name
	principal types.Principal
	reply     chan bool
}

type msgUnregister struct {
	name  types.Name
	reply chan struct{}
}

type msgSetMeta struct {
	name  types.Name
	meta  types.Meta
	reply chan bool
}

type msgSetPriority struct {
	priority int
	reply    chan struct{}
}
