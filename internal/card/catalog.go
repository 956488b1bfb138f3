// Package card loads the pre-authored reply cards from disk.
//
// Each card is a JSON document stored as {dir}/{name}.json. The service keeps
// one directory per rendering format (LINE Flex, Adaptive Card) with the same
// set of names. Files are read on every call, so an edited card is served
// without a restart.
package card

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	domerrors "github.com/garyellow/interview-linebot-go/internal/errors"
	"golang.org/x/sync/errgroup"
)

// Name identifies a card.
type Name string

// The cards the dispatcher can reply with.
const (
	HiringMessage       Name = "hiring_msg"
	Requirement         Name = "requirement"
	SlotSuggestion      Name = "slot_suggestion"
	ProvideAvailability Name = "provide_availability"
)

// Names lists every card the dispatcher uses.
func Names() []Name {
	return []Name{HiringMessage, Requirement, SlotSuggestion, ProvideAvailability}
}

// ErrInvalidCard is returned when a card file is not valid JSON.
var ErrInvalidCard = errors.New("card: invalid JSON")

var namePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// LoadRecorder counts card reads by outcome.
type LoadRecorder interface {
	RecordCardLoad(name, status string)
}

// Catalog reads cards from one directory.
type Catalog struct {
	dir     string
	metrics LoadRecorder
}

// NewCatalog creates a catalog rooted at dir. metrics may be nil.
func NewCatalog(dir string, metrics LoadRecorder) *Catalog {
	return &Catalog{dir: dir, metrics: metrics}
}

// Dir returns the catalog directory.
func (c *Catalog) Dir() string {
	return c.dir
}

// Path returns the file backing name.
func (c *Catalog) Path(name Name) string {
	return filepath.Join(c.dir, string(name)+".json")
}

// Exists reports whether a file for name is present. It does not validate the content.
func (c *Catalog) Exists(name Name) error {
	if !namePattern.MatchString(string(name)) {
		return fmt.Errorf("%w: %q", domerrors.ErrCardNotFound, name)
	}
	info, err := os.Stat(c.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", domerrors.ErrCardNotFound, c.Path(name))
		}
		return fmt.Errorf("card: stat %s: %w", name, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", domerrors.ErrCardNotFound, c.Path(name))
	}
	return nil
}

// Load reads and validates the card. A missing file yields ErrCardNotFound,
// malformed content ErrInvalidCard.
func (c *Catalog) Load(ctx context.Context, name Name) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !namePattern.MatchString(string(name)) {
		c.record(name, "not_found")
		return nil, fmt.Errorf("%w: %q", domerrors.ErrCardNotFound, name)
	}

	data, err := os.ReadFile(c.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.record(name, "not_found")
			return nil, fmt.Errorf("%w: %s", domerrors.ErrCardNotFound, c.Path(name))
		}
		c.record(name, "error")
		return nil, fmt.Errorf("card: read %s: %w", name, err)
	}

	if !json.Valid(data) {
		c.record(name, "invalid")
		return nil, fmt.Errorf("%w: %s", ErrInvalidCard, c.Path(name))
	}

	c.record(name, "success")
	return json.RawMessage(data), nil
}

// Verify loads every card in Names concurrently and returns the first failure.
func (c *Catalog) Verify(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range Names() {
		g.Go(func() error {
			_, err := c.Load(ctx, name)
			return err
		})
	}
	return g.Wait()
}

func (c *Catalog) record(name Name, status string) {
	if c.metrics != nil {
		c.metrics.RecordCardLoad(string(name), status)
	}
}
