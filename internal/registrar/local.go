package registrar

import (
	"context"

	"github.com/nameregistry/nameregistry/pkg/types"
)

// doRegister implements spec §4.2 register(name, principal) -> yes/no,
// reported as true/false. Only called from the mailbox loop.
func (r *Registrar) doRegister(name types.Name, p types.Principal) (ok bool) {
	defer func() {
		if !ok && r.metrics != nil {
			r.metrics.RegisterTotal.WithLabelValues("rejected").Inc()
		}
	}()
	if p.HomeNode != r.self {
		logger.Warn("rejecting register for principal not homed here", "name", name, "principal", p)
		return false
	}
	if r.table.Exists(name) {
		return false
	}

	h, err := r.watcher.MonitorPrincipal(context.Background(), p)
	if err != nil {
		logger.Warn("monitor failed, rejecting register", "name", name, "error", err)
		return false
	}

	b := types.Binding{
		Name:      name,
		Principal: p,
		Origin:    types.LocalOrigin(),
		Handle:    h,
		Meta:      types.Meta{},
	}
	r.table.Insert(b)
	r.broadcastRegister(name, p, nil)
	if r.metrics != nil {
		r.metrics.RegisterTotal.WithLabelValues("ok").Inc()
		r.metrics.LocalBindingsTotal.Inc()
		r.metrics.BindingsTotal.Inc()
	}
	return true
}

// doUnregister implements spec §4.2 unregister(name) -> ok, advisory
// regardless of whether name was bound here.
func (r *Registrar) doUnregister(name types.Name) {
	b, ok := r.table.Lookup(name)
	if !ok || !b.Origin.Local {
		return
	}
	r.watcher.Demonitor(b.Handle)
	r.table.Delete(name)
	r.broadcastUnregister(name)
	if r.metrics != nil {
		r.metrics.LocalBindingsTotal.Dec()
		r.metrics.BindingsTotal.Dec()
	}
}

// doSetMeta implements spec §4.2 set_meta(name, meta). Only the owning
// node may set a name's meta; it returns false when name is not bound
// locally here.
func (r *Registrar) doSetMeta(name types.Name, meta types.Meta) bool {
	b, ok := r.table.Lookup(name)
	if !ok || !b.Origin.Local {
		return false
	}
	b.Meta = meta.Clone()
	r.table.Insert(b)
	r.broadcastAddMeta(name, b.Meta)
	return true
}
