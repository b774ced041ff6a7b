package ast

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// GrammarHash is a stable fingerprint of the grammar this package
// implements. It changes whenever the grammar's shape changes (a rule is
// added, removed, or reordered) and is stored in every cache file's header
// so that a stale cache entry, or one written by a different grammar
// version, is detected and discarded rather than silently misused.
const GrammarHash = "badass-grammar-v1"

// Cache stores parsed ASTs on disk keyed by (grammar hash, source hash).
// Files are never concurrently written by one process and are safe to
// read concurrently across processes because every reader checks the
// grammar-hash header before trusting the payload.
type Cache struct {
	dir string
}

// NewCache opens (creating if necessary) the on-disk AST cache under the
// user's cache directory, matching the corpus's convention of using
// os.UserCacheDir for this kind of derived-artifact storage.
func NewCache() (*Cache, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return nil, errors.Wrap(err, "resolving user cache directory")
	}
	dir := filepath.Join(base, "badass", "ast")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating AST cache directory")
	}
	return &Cache{dir: dir}, nil
}

func sourceHash(src string) string {
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) path(srcHash string) string {
	return filepath.Join(c.dir, GrammarHash+"_"+srcHash+".ast")
}

type cacheFile struct {
	GrammarHash string
	Root        *Node
}

// Load returns a cached AST for src if present and its header matches the
// current GrammarHash, rebinding identifier/string text is unnecessary
// since the cached tree already carries it; the byte offsets in each
// Node's Span remain valid only for the exact same source text, which is
// guaranteed by keying on its content hash.
func (c *Cache) Load(src string) (*Node, bool) {
	p := c.path(sourceHash(src))
	f, err := os.Open(p)
	if err != nil {
		return nil, false
	}
	defer f.Close()
	var cf cacheFile
	if err := gob.NewDecoder(f).Decode(&cf); err != nil {
		glog.V(1).Infof("ast cache: discarding unreadable entry %s: %v", p, err)
		return nil, false
	}
	if cf.GrammarHash != GrammarHash {
		glog.V(1).Infof("ast cache: grammar hash mismatch for %s, reparsing", p)
		return nil, false
	}
	return cf.Root, true
}

// Store persists root under src's content hash.
func (c *Cache) Store(src string, root *Node) error {
	p := c.path(sourceHash(src))
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cacheFile{GrammarHash: GrammarHash, Root: root}); err != nil {
		return errors.Wrap(err, "encoding AST cache entry")
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, "writing AST cache entry")
	}
	return errors.Wrap(os.Rename(tmp, p), "finalizing AST cache entry")
}

// ParseCached parses src, consulting and populating the cache. name is
// used only for diagnostics.
func ParseCached(c *Cache, name, src string) (*Node, *ErrorList) {
	if c != nil {
		if root, ok := c.Load(src); ok {
			glog.V(2).Infof("ast cache hit for %s", name)
			return root, &ErrorList{}
		}
	}
	root, errs := Parse(name, src)
	if c != nil && errs.Empty() {
		if err := c.Store(src, root); err != nil {
			glog.V(1).Infof("ast cache: failed to store entry for %s: %v", name, err)
		}
	}
	return root, errs
}
