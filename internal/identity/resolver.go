// Package identity derives stable document identities from file names,
// filtering out ephemeral upload paths so the same logical resume always maps
// to the same ID.
package identity

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// tempStemPattern matches the short random stems produced by temp-file
// helpers (tmpAB12XY34.pdf and friends).
var tempStemPattern = regexp.MustCompile(`^(?i)tmp[a-z0-9_-]{4,16}$`)

// Resolution is the outcome of canonical-name resolution.
type Resolution struct {
	CanonicalName string
	DocumentID    string
	// Degraded is set when both inputs looked like temp artifacts and the
	// name had to be synthesized from the read path.
	Degraded bool
}

// IsTempArtifact reports whether a path looks like a transient upload
// artifact rather than a real document name.
func IsTempArtifact(path string) bool {
	if path == "" {
		return true
	}
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if tempStemPattern.MatchString(stem) {
		return true
	}
	return insideTempDir(path)
}

func insideTempDir(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	tmp, err := filepath.Abs(os.TempDir())
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(tmp, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Resolve picks the canonical name for a document. A clean declared name is
// authoritative; otherwise a clean read path is used; if both look like temp
// artifacts the name is synthesized from a hash of the read path, which keeps
// IDs unique but loses human readability.
func Resolve(readPath, declaredName string) Resolution {
	if declaredName != "" && !IsTempArtifact(declaredName) {
		name := filepath.Base(declaredName)
		return Resolution{CanonicalName: name, DocumentID: DocumentID(name)}
	}
	if readPath != "" && !IsTempArtifact(readPath) {
		name := filepath.Base(readPath)
		return Resolution{CanonicalName: name, DocumentID: DocumentID(name)}
	}

	name := synthesizeName(readPath)
	return Resolution{CanonicalName: name, DocumentID: DocumentID(name), Degraded: true}
}

// DocumentID derives the stable ID for a canonical name: the base filename
// suffixed with the first 8 hex chars of its md5 digest.
func DocumentID(canonicalName string) string {
	base := filepath.Base(canonicalName)
	sum := md5.Sum([]byte(canonicalName))
	return fmt.Sprintf("%s_%s", base, hex.EncodeToString(sum[:])[:8])
}

func synthesizeName(readPath string) string {
	sum := md5.Sum([]byte(readPath))
	ext := filepath.Ext(readPath)
	return fmt.Sprintf("document-%s%s", hex.EncodeToString(sum[:])[:8], ext)
}
