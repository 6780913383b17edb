package ranges

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultBase is the chart directory used when none is configured.
const DefaultBase = "ranges/Main/7Max/open"

// Prober reports whether a chart exists at a base-relative path.
type Prober interface {
	Exists(ctx context.Context, rel string) bool
}

// DirProber probes charts on the local file system under Root.
type DirProber struct {
	Root string
}

func (p DirProber) Exists(_ context.Context, rel string) bool {
	info, err := os.Stat(filepath.Join(p.Root, filepath.FromSlash(rel)))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("range chart stat failed", "path", rel, "error", err)
		}
		return false
	}
	return info.Mode().IsRegular()
}

// HTTPProber probes charts with HEAD requests under BaseURL.
type HTTPProber struct {
	BaseURL string
	Client  *http.Client
}

func (p HTTPProber) Exists(ctx context.Context, rel string) bool {
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	url := strings.TrimRight(p.BaseURL, "/") + "/" + strings.TrimLeft(rel, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		slog.Debug("range chart probe failed", "url", url, "error", err)
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Resolver turns a Context into a chart path.
type Resolver struct {
	// Base is prefixed to every returned path.
	Base string
	// Prober is optional; without one the canonical path is returned.
	Prober Prober
}

// NewResolver returns a resolver rooted at base (DefaultBase when empty).
func NewResolver(base string, prober Prober) *Resolver {
	if base == "" {
		base = DefaultBase
	}
	return &Resolver{Base: base, Prober: prober}
}

// Canonical returns "<base>/<POS>/<N>BB.png" for the context's nearest depth.
func (r *Resolver) Canonical(c Context) string {
	return r.join(c.Position + "/" + fmt.Sprintf("%dBB.png", c.Depth()))
}

// Candidates lists the file name variants probed for c, most specific
// layout first, relative to the base.
func Candidates(c Context) []string {
	P := c.Position
	p := strings.ToLower(P)
	B := fmt.Sprintf("%dBB", c.Depth())
	variants := []string{
		P + "/" + B + ".png",
		p + "/" + B + ".png",
		P + "/" + B + "_" + P + "_RFI.png",
		P + "/" + B + "_" + P + ".png",
		p + "/" + B + "_" + P + "_RFI.png",
		p + "/" + B + "_" + P + ".png",
		B + "_" + P + "_RFI.png",
		B + "_" + P + ".png",
		P + "_" + B + ".png",
	}
	seen := make(map[string]bool, len(variants))
	out := variants[:0]
	for _, v := range variants {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// Resolve returns the first candidate the prober confirms, or the canonical
// path when nothing is confirmed.
func (r *Resolver) Resolve(ctx context.Context, c Context) string {
	if r.Prober != nil {
		for _, rel := range Candidates(c) {
			if ctx.Err() != nil {
				break
			}
			if r.Prober.Exists(ctx, rel) {
				return r.join(rel)
			}
		}
	}
	return r.Canonical(c)
}

// join appends rel to the base. The base may be a URL, so it is not
// cleaned with path.Join.
func (r *Resolver) join(rel string) string {
	base := r.Base
	if base == "" {
		base = DefaultBase
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(rel, "/")
}
