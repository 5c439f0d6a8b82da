package kmall

// TypeInfo describes one recognized datagram tag. Decode is nil for tags
// whose bodies are deliberately kept opaque (free-text parameter blocks);
// those decode to Partial.
type TypeInfo struct {
	Name   string
	Decode func(c *cursor, h Header) (Datagram, error)
}

// typeTable maps the 4-byte tag to its decode capability. Immutable
// after init.
var typeTable = map[string]TypeInfo{
	TagIIP: {Name: "installation parameters"},
	TagIOP: {Name: "runtime parameters"},
	TagSPO: {Name: "position", Decode: decodeSPO},
	TagSKM: {Name: "attitude", Decode: decodeSKM},
	TagSVP: {Name: "sound velocity profile", Decode: decodeSVP},
	TagSVT: {Name: "sound velocity transducer", Decode: decodeSVT},
	TagSCL: {Name: "clock", Decode: decodeSCL},
	TagCPO: {Name: "compatibility position", Decode: decodeCPO},
	TagMRZ: {Name: "multibeam depth/range", Decode: decodeMRZ},
	TagMWC: {Name: "water column", Decode: decodeMWC},
}

// LookupType reports the decode capability registered for tag. ok is
// false for unrecognized tags, which decode to Partial.
func LookupType(tag string) (TypeInfo, bool) {
	info, ok := typeTable[tag]
	return info, ok
}
