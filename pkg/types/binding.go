package types

// Binding is the name -> principal record stored in the local table
// (spec §3). Handle is only meaningful when Origin.Local is true.
type Binding struct {
	Name      Name
	Principal Principal
	Origin    Origin
	Handle    Handle
	Meta      Meta
}

// NamedInfo is the (name, principal, meta) triple used by enumeration
// reads (spec §6). sync_resp payloads carry wire.Entry instead.
type NamedInfo struct {
	Name      Name
	Principal Principal
	Meta      Meta
}

// Info returns the (name, principal, meta) view of a binding.
func (b Binding) Info() NamedInfo {
	return NamedInfo{Name: b.Name, Principal: b.Principal, Meta: b.Meta.Clone()}
}
