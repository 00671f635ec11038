package backend

import (
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/lirsacc/crible/internal/encoding"
)

// Kind identifies which concrete Backend a URL describes.
type Kind int

const (
	KindMemory Kind = iota
	KindFS
	KindRedis
)

const defaultFSPath = "data.bin"

// Options is the parsed form of a backend URL, ready to be built into a
// concrete Backend via Build.
type Options struct {
	Kind Kind

	// FS
	Path  string
	Codec encoding.Codec

	// Redis
	Addr         string
	Prefix       string
	DB           int
	RedisNetwork string
}

// ParseURL parses one of the three supported backend URL forms:
//
//	memory://
//	fs://[host/]path[?format={bin|json|ndjson|ljson|crible}]
//	redis://host[:port][/db][?prefix=<string>]
func ParseURL(raw string) (*Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("backend: invalid url %q: %w", raw, err)
	}

	switch u.Scheme {
	case "memory":
		return &Options{Kind: KindMemory}, nil
	case "fs", "file":
		return parseFSOptions(u)
	case "redis":
		return parseRedisOptions(u)
	default:
		return nil, fmt.Errorf("backend: unknown scheme %q", u.Scheme)
	}
}

func parseFSOptions(u *url.URL) (*Options, error) {
	p := singlePathFromURL(u)
	if p == "" {
		p = defaultFSPath
	}

	format := u.Query().Get("format")
	var codec encoding.Codec
	switch format {
	case "":
		codec = encoding.ByExtension(strings.ToLower(path.Ext(p)))
	case "json", "ndjson", "ljson":
		codec = encoding.JSONLinesCodec{}
	case "bin", "crible":
		codec = encoding.BinaryCodec{}
	default:
		return nil, fmt.Errorf("backend: unknown format %q", format)
	}

	return &Options{Kind: KindFS, Path: p, Codec: codec}, nil
}

// singlePathFromURL reconstructs a filesystem path from a fs:// URL,
// treating the host (if any) as a leading path segment: "fs://data/idx.bin"
// and "fs:///data/idx.bin" both resolve to "data/idx.bin".
func singlePathFromURL(u *url.URL) string {
	var parts []string
	if u.Host != "" {
		parts = append(parts, u.Host)
	}
	if rest := strings.TrimPrefix(u.Path, "/"); rest != "" {
		parts = append(parts, rest)
	}
	return path.Join(parts...)
}

func parseRedisOptions(u *url.URL) (*Options, error) {
	addr := u.Host
	if addr == "" {
		return nil, fmt.Errorf("backend: redis url %q is missing a host", u.String())
	}
	if !strings.Contains(addr, ":") {
		addr += ":6379"
	}

	db := 0
	if rest := strings.TrimPrefix(u.Path, "/"); rest != "" {
		parsed, err := strconv.Atoi(rest)
		if err != nil {
			return nil, fmt.Errorf("backend: redis url %q has a non-numeric db %q", u.String(), rest)
		}
		db = parsed
	}

	prefix := u.Query().Get("prefix")
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}

	return &Options{Kind: KindRedis, Addr: addr, DB: db, Prefix: prefix, RedisNetwork: "tcp"}, nil
}

// Build constructs the concrete Backend described by o. poolSize only
// matters for KindRedis.
func (o *Options) Build(poolSize int) (Backend, error) {
	switch o.Kind {
	case KindMemory:
		return NewMemory(), nil
	case KindFS:
		return NewFS(o.Path, o.Codec), nil
	case KindRedis:
		return NewRedis(o.RedisNetwork, o.Addr, o.Prefix, o.DB, poolSize)
	default:
		return nil, fmt.Errorf("backend: unknown kind %d", o.Kind)
	}
}
