// gen_handlog generates synthetic hand-history files for import testing.
//
// It reads existing hand-history files, splits them into hand blocks and
// reassembles them, renumbered and with remapped cards, into new files of
// varying sizes so every generated hand has a distinct UID.
//
// Usage:
//
//	go run ./tools/gen_handlog [flags]
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"

	"github.com/AkatukiSora/hhreplay/internal/parser"
)

var (
	reHandNumber = regexp.MustCompile(`^Hand #\d+`)
	reCardGroup  = regexp.MustCompile(`\[([^\]]*)\]`)
)

var (
	ranks = []string{"2", "3", "4", "5", "6", "7", "8", "9", "T", "J", "Q", "K", "A"}
	suits = []string{"c", "d", "h", "s"}
)

type options struct {
	InputDir  string `name:"input-dir" default:"." help:"Directory with hand-history .txt files" type:"path"`
	Pattern   string `default:"*.txt" help:"Input file glob"`
	OutputDir string `name:"output-dir" default:"testdata/generated" help:"Output directory" type:"path"`
	Count     int    `default:"20" help:"Number of files to generate"`
	MinSize   int64  `name:"min-size" default:"262144" help:"Minimum file size in bytes"`
	MaxSize   int64  `name:"max-size" default:"4194304" help:"Maximum file size in bytes"`
	Seed      int64  `help:"Random seed (0 = current time)"`
	StartID   int64  `name:"start-id" default:"1000000" help:"First generated hand number"`
}

func main() {
	var opts options
	ctx := kong.Parse(&opts,
		kong.Name("gen_handlog"),
		kong.Description("Generate synthetic hand-history files"),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(run(opts))
}

func run(opts options) error {
	if opts.Count < 1 {
		return fmt.Errorf("--count must be >= 1")
	}
	if opts.MinSize > opts.MaxSize {
		return fmt.Errorf("--min-size must be <= --max-size")
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	fmt.Printf("seed: %d\n", seed)

	pool, err := loadPool(opts.InputDir, opts.Pattern)
	if err != nil {
		return err
	}
	fmt.Printf("hand pool: %d blocks\n", len(pool))

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir %q: %w", opts.OutputDir, err)
	}

	g := &generator{pool: pool, rng: rng, nextID: opts.StartID}
	sizeRange := opts.MaxSize - opts.MinSize
	for i := 0; i < opts.Count; i++ {
		target := opts.MinSize
		if sizeRange > 0 {
			target += rng.Int63n(sizeRange + 1)
		}
		name := fmt.Sprintf("HH%04d synthetic.txt", i+1)
		path := filepath.Join(opts.OutputDir, name)
		size, err := g.writeFile(path, target)
		if err != nil {
			return fmt.Errorf("generate %s: %w", name, err)
		}
		fmt.Printf("[%3d/%d] %s  %s\n", i+1, opts.Count, name, humanize.Bytes(uint64(size)))
	}
	fmt.Printf("\ndone: %d files written to %s\n", opts.Count, opts.OutputDir)
	return nil
}

// loadPool collects every hand block of the matching input files.
func loadPool(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, err
	}
	var pool []string
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %s: %v\n", path, err)
			continue
		}
		blocks := parser.SplitBlocks(parser.Normalize(string(data)))
		pool = append(pool, blocks...)
		fmt.Printf("  %s: %d hands\n", filepath.Base(path), len(blocks))
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("no hand blocks found in %q matching %q", dir, pattern)
	}
	return pool, nil
}

type generator struct {
	pool   []string
	rng    *rand.Rand
	nextID int64
}

// writeFile appends mutated hands to path until it reaches target bytes.
func (g *generator) writeFile(path string, target int64) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := bufio.NewWriterSize(f, 1<<20)
	var written int64
	for written < target {
		block := g.pool[g.rng.Intn(len(g.pool))]
		hand := mutate(block, g.nextID, g.rng)
		g.nextID++
		n, err := fmt.Fprintf(w, "%s\n\n", hand)
		if err != nil {
			return written, err
		}
		written += int64(n)
	}
	return written, w.Flush()
}

// mutate renumbers block as hand id and remaps its cards.
func mutate(block string, id int64, rng *rand.Rand) string {
	block = reHandNumber.ReplaceAllString(block, fmt.Sprintf("Hand #%d", id))
	return remapCards(block, rng)
}

// remapCards replaces every card inside [...] groups through one random
// bijection, so no card appears twice in the hand.
func remapCards(block string, rng *rand.Rand) string {
	used := make(map[string]bool)
	var order []string
	for _, m := range reCardGroup.FindAllStringSubmatch(block, -1) {
		for _, c := range strings.Fields(m[1]) {
			c = canonicalCard(c)
			if c != "" && !used[c] {
				used[c] = true
				order = append(order, c)
			}
		}
	}
	if len(order) == 0 {
		return block
	}

	deck := make([]string, 0, 52)
	for _, r := range ranks {
		for _, s := range suits {
			deck = append(deck, r+s)
		}
	}
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	mapping := make(map[string]string, len(order))
	for i, c := range order {
		mapping[c] = deck[i]
	}

	return reCardGroup.ReplaceAllStringFunc(block, func(group string) string {
		cards := strings.Fields(group[1 : len(group)-1])
		for i, c := range cards {
			if to, ok := mapping[canonicalCard(c)]; ok {
				cards[i] = to
			}
		}
		return "[" + strings.Join(cards, " ") + "]"
	})
}

// canonicalCard maps "10h" and "th" to "Th". It returns "" for non-cards.
func canonicalCard(c string) string {
	if len(c) < 2 {
		return ""
	}
	rank, suit := strings.ToUpper(c[:len(c)-1]), strings.ToLower(c[len(c)-1:])
	if rank == "10" {
		rank = "T"
	}
	if !strings.Contains("cdhs", suit) {
		return ""
	}
	for _, r := range ranks {
		if r == rank {
			return rank + suit
		}
	}
	return ""
}
