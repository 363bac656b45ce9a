package testutil

import (
	"archive/zip"
	"bytes"
	"encoding/pem"
	"testing"

	"github.com/ashlarsec/cryptolens/pkg/catalog"
)

// BuildZip packs files (relative entry name -> content) into an
// in-memory ZIP archive, for tests exercising pkg/archive and the
// scanner's archive dispatch without touching disk.
func BuildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// RSAEncryptionOID returns the DER-encoded rsaEncryption OID
// (1.2.840.113549.1.1.1), the same bytes an RSA public key's
// AlgorithmIdentifier carries.
func RSAEncryptionOID(t *testing.T) []byte {
	t.Helper()
	_, der, err := catalog.CompileOid("1.2.840.113549.1.1.1")
	if err != nil {
		t.Fatalf("CompileOid: %v", err)
	}
	return der
}

// PEMBlock wraps der as a PEM block of the given type, for building
// certificate/key fixtures without a real key pair.
func PEMBlock(blockType string, der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
}
