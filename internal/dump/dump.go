// Package dump drives a complete schema dump: it reads the catalog, renders
// every section in order and writes the result to a single writer.
package dump

import (
	"context"
	"io"
	"time"

	"github.com/koustreak/dsqldump/internal/catalog"
	"github.com/koustreak/dsqldump/internal/database"
	"github.com/koustreak/dsqldump/internal/errs"
	"github.com/koustreak/dsqldump/internal/logger"
	"github.com/koustreak/dsqldump/internal/render"
	"golang.org/x/sync/errgroup"
)

// Dumper writes dumps of one database.
type Dumper struct {
	db     database.DB
	reader *catalog.Reader
	log    *logger.Logger
	now    func() time.Time
}

// New creates a Dumper. A nil log means each Run logs to the logger carried
// by its context.
func New(db database.DB, log *logger.Logger) *Dumper {
	return &Dumper{
		db:     db,
		reader: catalog.NewReader(db),
		log:    log,
		now:    time.Now,
	}
}

// Run writes a dump of opts.Schema to w. A catalog query failure aborts the
// dump; the output written so far is left as is.
func (d *Dumper) Run(ctx context.Context, w io.Writer, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	start := d.now()
	base := d.log
	if base == nil {
		base = logger.FromContext(ctx)
	}
	log := base.With().Str("schema", opts.Schema).Logger()
	out := &emitter{w: w}

	out.block(render.Header(opts.Version, opts.Schema, start))

	tables, err := d.reader.Tables(ctx, opts.Schema)
	if err != nil {
		return err
	}
	log.InfoWith("read tables", map[string]interface{}{"tables": len(tables)})

	var (
		constraints []catalog.Constraint
		indexes     []catalog.Index
	)
	if !opts.DataOnly {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			constraints, err = d.reader.Constraints(gctx, opts.Schema)
			return err
		})
		g.Go(func() error {
			var err error
			indexes, err = d.reader.Indexes(gctx, opts.Schema)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		if len(tables) > 0 {
			log.Debug("section Tables")
			out.block(render.Section("Tables"))
			for _, t := range tables {
				out.block(render.CreateTable(t, constraints, opts.Clean))
			}
		}
	}

	if !opts.SchemaOnly && len(tables) > 0 {
		log.Debug("section Data")
		out.block(render.Section("Data"))
		if err := out.err; err != nil {
			return err
		}
		copier := render.NewTableCopier(opts.DataMode, d.db, log)
		for _, t := range tables {
			if err := copier.CopyTable(ctx, w, t); err != nil {
				return err
			}
		}
	}

	if !opts.DataOnly {
		post := catalog.PostTableConstraints(constraints)
		if opts.FKOrder == FKOrderDependency {
			post = catalog.OrderByDependency(post)
		}
		if len(post) > 0 {
			log.Debug("section Constraints")
			out.block(render.Section("Constraints"))
			for _, c := range post {
				log.With().Str("constraint", c.Name).Str("kind", c.Kind.String()).Logger().Debug("render constraint")
				out.block(render.Constraint(c, opts.Clean))
			}
		}

		var rendered []string
		for _, i := range catalog.StandaloneIndexes(indexes) {
			if sql := render.CreateIndex(i, opts.Clean); sql != "" {
				rendered = append(rendered, sql)
			}
		}
		if len(rendered) > 0 {
			log.Debug("section Indexes")
			out.block(render.Section("Indexes"))
			for _, sql := range rendered {
				out.block(sql)
			}
		}
	}

	out.block(render.Footer())
	if out.err != nil {
		return out.err
	}

	log.InfoWith("dump complete", map[string]interface{}{
		"tables":   len(tables),
		"duration": d.now().Sub(start).String(),
	})
	return nil
}

// emitter writes rendered blocks, each followed by a newline, and keeps the
// first write error.
type emitter struct {
	w   io.Writer
	err error
}

func (e *emitter) block(s string) {
	if e.err != nil {
		return
	}
	if _, err := io.WriteString(e.w, s+"\n"); err != nil {
		e.err = errs.Wrap(errs.ErrKindStream, "write dump output", err)
	}
}
