// Package catalog holds the pattern catalog: the regex, byte, OID, and
// AST rule definitions that drive every scanner in this repository.
package catalog

import "regexp"

// RegexPattern matches source text or extracted ASCII strings against a
// named algorithm.
type RegexPattern struct {
	Name     string
	Algo     string
	Severity string
	Evidence string
	Compiled *regexp.Regexp
}

// BytePatternKind classifies how a byte pattern was derived and how its
// match should be reported as evidence.
type BytePatternKind string

const (
	KindOID       BytePatternKind = "oid"
	KindASN1OID   BytePatternKind = "asn1-oid"
	KindCurveParm BytePatternKind = "curve_param"
	KindPrime     BytePatternKind = "prime"
	KindConst     BytePatternKind = "const"
	KindAscii     BytePatternKind = "ascii"
	KindBytes     BytePatternKind = "bytes"
	KindSigMD5    BytePatternKind = "sig_md5"
	KindSigSHA1   BytePatternKind = "sig_sha1"
)

// BytePattern matches a fixed byte needle inside binary content.
type BytePattern struct {
	Name     string
	Algo     string
	Severity string
	Evidence string
	Kind     BytePatternKind
	Needle   []byte
}

// OidEntry is a dotted-decimal object identifier compiled into its VAL
// (arc-encoded value bytes) and DER (tag+length+VAL) forms.
type OidEntry struct {
	Name     string
	Algo     string
	Severity string
	Evidence string
	Dotted   string
	Val      []byte
	Der      []byte
}

// AstRuleLang is the source language an AstRule applies to.
type AstRuleLang string

const (
	LangJava AstRuleLang = "java"
	LangPy   AstRuleLang = "python"
	LangCpp  AstRuleLang = "cpp"
)

// AstRuleKind selects how a rule is evaluated against a parsed callsite.
type AstRuleKind string

const (
	KindCall               AstRuleKind = "call"
	KindCallFullname       AstRuleKind = "call_fullname"
	KindCallFullnameArg    AstRuleKind = "call_fullname+arg"
	KindCallFullnameIntArg AstRuleKind = "call_fullname+intarg"
	KindCallFullnameKwarg  AstRuleKind = "call_fullname+kwcheck"
	KindCtorCall           AstRuleKind = "ctor_call"
	KindMethodCall         AstRuleKind = "method_call"
	KindCallBits           AstRuleKind = "call_bits"
)

// AstRule describes a syntactic pattern a language scanner looks for:
// a call to a fully-qualified name, optionally constrained by one of its
// arguments.
type AstRule struct {
	Name        string
	Algo        string
	Severity    string
	Evidence    string
	Lang        AstRuleLang
	Kind        AstRuleKind
	Fullname    string   // e.g. "java.security.KeyPairGenerator.getInstance"
	Callees     []string // bare callee names for Kind == call/call_bits
	ArgRegex    *regexp.Regexp
	ArgIndex    int    // which positional argument to inspect (0-based)
	KwName      string // keyword argument name, for call_fullname+kwcheck
	KwValRegex  *regexp.Regexp
	MinIntValue int // for call_bits, the minimum decimal value considered a keysize
}

// AsciiRun is a printable-ASCII substring extracted from binary content,
// tagged with its absolute byte offset in the source buffer.
type AsciiRun struct {
	Offset int
	Text   string
}

// Catalog is the fully compiled, ready-to-scan set of pattern rules.
type Catalog struct {
	Regexes []RegexPattern
	Bytes   []BytePattern
	Oids    []OidEntry
	Ast     []AstRule
}
