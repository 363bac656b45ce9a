package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// encodeBase128 encodes a single OID arc using the base-128 varint scheme
// ASN.1 uses for object identifiers: seven bits of value per byte, high
// bit set on every byte but the last.
func encodeBase128(arc uint64) []byte {
	if arc == 0 {
		return []byte{0x00}
	}
	var rev []byte
	for arc > 0 {
		rev = append(rev, byte(arc&0x7f))
		arc >>= 7
	}
	out := make([]byte, len(rev))
	for i, b := range rev {
		v := b
		if i != 0 {
			v |= 0x80
		}
		out[len(rev)-1-i] = v
	}
	return out
}

// oidValueBytes compiles a dotted-decimal OID string into its ASN.1 VAL
// encoding. The first two arcs are collapsed into a single arc as
// 40*arc0 + arc1, matching X.690 clause 8.19.4, and that arc is
// base-128 encoded like the rest (one byte or more).
func oidValueBytes(dotted string) ([]byte, error) {
	parts := strings.Split(strings.TrimSpace(dotted), ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("oid %q: need at least two arcs", dotted)
	}
	arcs := make([]uint64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("oid %q: arc %d not numeric: %w", dotted, i, err)
		}
		arcs[i] = v
	}
	var out []byte
	out = append(out, encodeBase128(arcs[0]*40+arcs[1])...)
	for _, a := range arcs[2:] {
		out = append(out, encodeBase128(a)...)
	}
	return out, nil
}

// berLength encodes n using ASN.1 BER length rules: short form for n<128,
// long form (0x80|numLenBytes followed by the big-endian length) otherwise.
func berLength(n int) []byte {
	if n < 0x80 {
		return []byte{byte(n)}
	}
	var lenBytes []byte
	for n > 0 {
		lenBytes = append([]byte{byte(n & 0xff)}, lenBytes...)
		n >>= 8
	}
	return append([]byte{0x80 | byte(len(lenBytes))}, lenBytes...)
}

// oidDERBytes wraps an OID's VAL encoding in the DER tag+length header
// (tag 0x06, OBJECT IDENTIFIER).
func oidDERBytes(val []byte) []byte {
	out := []byte{0x06}
	out = append(out, berLength(len(val))...)
	out = append(out, val...)
	return out
}

// CompileOid computes the VAL and DER byte forms of a dotted-decimal OID.
func CompileOid(dotted string) (val, der []byte, err error) {
	val, err = oidValueBytes(dotted)
	if err != nil {
		return nil, nil, err
	}
	return val, oidDERBytes(val), nil
}

// OidsAsBytePatterns expands a catalog's OID entries into BytePatterns so
// the byte/string search engine can scan for them like any other needle:
// one entry per non-empty emit form (DER, VAL), both tagged KindOID.
func OidsAsBytePatterns(oids []OidEntry) []BytePattern {
	var out []BytePattern
	for _, o := range oids {
		if len(o.Der) > 0 {
			out = append(out, BytePattern{Name: o.Name + "-der", Algo: o.Algo, Severity: o.Severity, Evidence: "oid", Kind: KindOID, Needle: o.Der})
		}
		if len(o.Val) > 0 {
			out = append(out, BytePattern{Name: o.Name + "-val", Algo: o.Algo, Severity: o.Severity, Evidence: "oid", Kind: KindOID, Needle: o.Val})
		}
	}
	return out
}
