package dump

import (
	"strings"

	"github.com/koustreak/dsqldump/internal/errs"
	"github.com/koustreak/dsqldump/internal/render"
)

// DefaultSchema is dumped when no schema is given.
const DefaultSchema = "public"

// FKOrder selects how post-table constraints are ordered.
type FKOrder string

const (
	// FKOrderKind keeps the catalog order: checks, then foreign keys, then
	// exclusion constraints.
	FKOrderKind FKOrder = "kind"
	// FKOrderDependency emits foreign keys of referenced tables first.
	FKOrderDependency FKOrder = "dependency"
)

// Options controls what a dump contains.
type Options struct {
	Schema     string
	Clean      bool
	DataOnly   bool
	SchemaOnly bool
	DataMode   render.DataMode
	FKOrder    FKOrder
	// Version is written into the header.
	Version string
}

// Validate checks the options and fills in defaults. It never touches the
// database, so the command can call it before connecting.
func (o *Options) Validate() error {
	if o.DataOnly && o.SchemaOnly {
		return errs.New(errs.ErrKindValidation, "options -s/--schema-only and -a/--data-only cannot be used together")
	}

	o.Schema = strings.TrimSpace(o.Schema)
	if o.Schema == "" {
		o.Schema = DefaultSchema
	}

	mode, err := render.ParseDataMode(string(o.DataMode))
	if err != nil {
		return err
	}
	o.DataMode = mode

	switch FKOrder(strings.ToLower(string(o.FKOrder))) {
	case "", FKOrderKind:
		o.FKOrder = FKOrderKind
	case FKOrderDependency:
		o.FKOrder = FKOrderDependency
	default:
		return errs.Newf(errs.ErrKindValidation, "unknown foreign key order %q (want kind or dependency)", o.FKOrder)
	}

	if o.Version == "" {
		o.Version = "dev"
	}
	return nil
}
