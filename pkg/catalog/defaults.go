package catalog

import "regexp"

// Defaults returns a curated baseline pattern catalog covering the
// classical and non-PQC primitives this scanner targets. It is not
// consulted by Load — a missing patterns.json is a genuine empty catalog,
// per spec. Defaults exists so `patterns --init` has something to seed a
// new patterns.json with; ResolvePath/Load never fall back to it.
func Defaults() *Catalog {
	cat := &Catalog{}
	addDefaultRegex(cat)
	addDefaultBytes(cat)
	addDefaultOids(cat)
	addDefaultAst(cat)
	return cat
}

func mustCompile(pat string) *regexp.Regexp {
	return regexp.MustCompile(pat)
}

func addDefaultRegex(cat *Catalog) {
	entries := []RegexPattern{
		{Name: "rsa-generic", Algo: "RSA", Severity: "high", Evidence: "string",
			Compiled: mustCompile(`(?i)\bRSA(?:-\d{3,4})?\b`)},
		{Name: "dsa-generic", Algo: "DSA", Severity: "high", Evidence: "string",
			Compiled: mustCompile(`(?i)\bDSA\b`)},
		{Name: "dh-generic", Algo: "DH", Severity: "med", Evidence: "string",
			Compiled: mustCompile(`(?i)\bDiffieHellman\b|\bDH\b`)},
		{Name: "des-generic", Algo: "DES", Severity: "high", Evidence: "string",
			Compiled: mustCompile(`(?i)\b(?:3)?DES(?:ede)?\b`)},
		{Name: "rc4-generic", Algo: "RC4", Severity: "high", Evidence: "string",
			Compiled: mustCompile(`(?i)\bRC4\b|\bARCFOUR\b`)},
		{Name: "md5-generic", Algo: "MD5", Severity: "med", Evidence: "string",
			Compiled: mustCompile(`(?i)\bMD5\b`)},
		{Name: "sha1-generic", Algo: "SHA-1", Severity: "med", Evidence: "string",
			Compiled: mustCompile(`(?i)\bSHA-?1\b`)},
		{Name: "ec-curve-name", Algo: "ECC", Severity: "high", Evidence: "string",
			Compiled: mustCompile(`(?i)\b(?:secp256[kr]1|secp384r1|secp521r1|prime256v1|P-256|P-384|P-521)\b`)},
	}
	cat.Regexes = append(cat.Regexes, entries...)
}

func addDefaultBytes(cat *Catalog) {
	entries := []BytePattern{
		{Name: "des-ede-const", Algo: "3DES", Severity: "high", Evidence: "bytes", Kind: KindConst,
			Needle: []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}},
	}
	cat.Bytes = append(cat.Bytes, entries...)
}

// oidDefault compiles a dotted OID and panics on failure — the default
// catalog's own OIDs are a fixed, known-good set, unlike JSON-loaded ones.
func oidDefault(name, algo, dotted, severity string) OidEntry {
	val, der, err := CompileOid(dotted)
	if err != nil {
		panic("catalog: invalid built-in oid " + dotted + ": " + err.Error())
	}
	return OidEntry{Name: name, Algo: algo, Severity: severity, Evidence: "oid", Dotted: dotted, Val: val, Der: der}
}

func addDefaultOids(cat *Catalog) {
	cat.Oids = append(cat.Oids,
		oidDefault("rsaEncryption", "RSA", "1.2.840.113549.1.1.1", "high"),
		oidDefault("md5WithRSAEncryption", "RSA+MD5", "1.2.840.113549.1.1.4", "high"),
		oidDefault("sha1WithRSAEncryption", "RSA+SHA-1", "1.2.840.113549.1.1.5", "med"),
		oidDefault("id-dsa", "DSA", "1.2.840.10040.4.1", "high"),
		oidDefault("dhKeyAgreement", "DH", "1.2.840.113549.1.3.1", "med"),
		oidDefault("id-ecPublicKey", "ECC", "1.2.840.10045.2.1", "med"),
		oidDefault("prime256v1", "ECC-P256", "1.2.840.10045.3.1.7", "med"),
		oidDefault("secp384r1", "ECC-P384", "1.3.132.0.34", "med"),
		oidDefault("secp521r1", "ECC-P521", "1.3.132.0.35", "med"),
		oidDefault("desCBC", "DES", "1.3.14.3.2.7", "high"),
		oidDefault("des-ede3-cbc", "3DES", "1.2.840.113549.3.7", "high"),
		oidDefault("rc4", "RC4", "1.2.840.113549.3.4", "high"),
	)
}

func addDefaultAst(cat *Catalog) {
	cat.Ast = append(cat.Ast,
		AstRule{
			Name: "java-rsa-keypairgen", Algo: "RSA", Severity: "high", Evidence: "call",
			Lang: LangJava, Kind: KindCallFullnameArg,
			Fullname: "java.security.KeyPairGenerator.getInstance",
			ArgRegex: mustCompile(`(?i)^RSA$`),
		},
		AstRule{
			Name: "java-des-cipher", Algo: "DES", Severity: "high", Evidence: "call",
			Lang: LangJava, Kind: KindCallFullnameArg,
			Fullname: "javax.crypto.Cipher.getInstance",
			ArgRegex: mustCompile(`(?i)^DES`),
		},
		AstRule{
			Name: "java-md5-digest", Algo: "MD5", Severity: "med", Evidence: "call",
			Lang: LangJava, Kind: KindCallFullnameArg,
			Fullname: "java.security.MessageDigest.getInstance",
			ArgRegex: mustCompile(`(?i)^MD5$`),
		},
		AstRule{
			Name: "py-rsa-generate", Algo: "RSA", Severity: "high", Evidence: "call",
			Lang: LangPy, Kind: KindCallFullname,
			Fullname: "Crypto.PublicKey.RSA.generate",
		},
		AstRule{
			Name: "py-des-new", Algo: "DES", Severity: "high", Evidence: "call",
			Lang: LangPy, Kind: KindCallFullnameKwarg,
			Fullname: "Crypto.Cipher.DES.new",
		},
		AstRule{
			Name: "py-hashlib-md5", Algo: "MD5", Severity: "med", Evidence: "call",
			Lang: LangPy, Kind: KindCallFullname,
			Fullname: "hashlib.md5",
		},
		AstRule{
			Name: "cpp-des-init", Algo: "DES", Severity: "high", Evidence: "call",
			Lang: LangCpp, Kind: KindCall,
			Callees: []string{"DES_set_key", "DES_ecb_encrypt"},
		},
		AstRule{
			Name: "cpp-md5-init", Algo: "MD5", Severity: "med", Evidence: "call",
			Lang: LangCpp, Kind: KindCall,
			Callees: []string{"MD5_Init", "MD5"},
		},
		AstRule{
			Name: "cpp-rsa-keygen-bits", Algo: "RSA", Severity: "high", Evidence: "call",
			Lang: LangCpp, Kind: KindCallBits,
			Callees:     []string{"RSA_generate_key", "RSA_generate_key_ex"},
			MinIntValue: 100,
		},
	)
}
