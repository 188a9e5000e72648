// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// RefType classifies a reference passed to add.
type RefType int

const (
	TypeUnknown RefType = iota
	TypeFile
	TypeURL
)

func (t RefType) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeURL:
		return "url"
	default:
		return "unknown"
	}
}

// Classify determines whether ref is an http(s) URL or an existing local
// file and returns the trimmed form.
func Classify(ref string) (RefType, string) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return TypeUnknown, ref
	}

	if u, err := url.Parse(ref); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return TypeURL, ref
	}

	if info, err := os.Stat(ref); err == nil && info.Mode().IsRegular() {
		return TypeFile, ref
	}

	return TypeUnknown, ref
}

// FileName returns the file name a reference is stored under in the
// sources directory. URLs without a usable base name get a hash-derived
// stem; URLs without an extension are assumed to serve a PDF.
func FileName(refType RefType, normalized string) string {
	switch refType {
	case TypeFile:
		return filepath.Base(normalized)
	case TypeURL:
		u, err := url.Parse(normalized)
		if err != nil {
			return urlHashSlug(normalized) + ".pdf"
		}
		base := path.Base(u.Path)
		if base == "" || base == "." || base == "/" {
			return urlHashSlug(normalized) + ".pdf"
		}
		if path.Ext(base) == "" {
			base += ".pdf"
		}
		return base
	default:
		return ""
	}
}

func urlHashSlug(rawURL string) string {
	h := sha256.Sum256([]byte(rawURL))
	return fmt.Sprintf("url-%x", h[:8])
}

// safeName reports whether name is a plain file name that stays inside the
// directory it is joined to.
func safeName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return false
	}
	return !filepath.IsAbs(name) && filepath.IsLocal(name)
}
