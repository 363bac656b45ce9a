package scanner

import (
	"testing"

	"github.com/ashlarsec/cryptolens/pkg/router"
)

func TestGateForByKind(t *testing.T) {
	cases := map[router.Kind]int64{
		router.KindJava:    MaxSourceBytes,
		router.KindPython:  MaxSourceBytes,
		router.KindCpp:     MaxSourceBytes,
		router.KindCertKey: MaxCertKeyBytes,
		router.KindClass:   MaxClassBytes,
		router.KindArchive: MaxArchiveBytes,
		router.KindBinary:  MaxBinaryBytes,
	}
	for kind, want := range cases {
		if got := gateFor(kind); got != want {
			t.Errorf("gateFor(%v) = %d, want %d", kind, got, want)
		}
	}
}

func TestIsDeniedMatchesRootsAndDescendants(t *testing.T) {
	denied := []string{"/proc", "/proc/1/status", "/sys/kernel", "/dev", "/run", "/lost+found"}
	for _, p := range denied {
		if !isDenied(p) {
			t.Errorf("isDenied(%q) = false, want true", p)
		}
	}
	allowed := []string{"/root", "/home/user/file.txt", "/procfoo"}
	for _, p := range allowed {
		if isDenied(p) {
			t.Errorf("isDenied(%q) = true, want false", p)
		}
	}
}
