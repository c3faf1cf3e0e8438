package cli

import (
	"context"
	stderrors "errors"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pedigree/pkg/config"
	"github.com/matzehuels/pedigree/pkg/document"
	"github.com/matzehuels/pedigree/pkg/errors"
	"github.com/matzehuels/pedigree/pkg/ops"
	"github.com/matzehuels/pedigree/pkg/pedigree"
	"github.com/matzehuels/pedigree/pkg/pipeline"
	"github.com/matzehuels/pedigree/pkg/store"
)

// workspace is the document a command works on, held in a session.
type workspace struct {
	cfg     *config.Config
	session *pipeline.Session
	store   store.Store // nil for file documents
	id      string
	path    string
	exists  bool
}

// open loads the selected document. A missing document is NOT_FOUND unless
// create is set, in which case the session starts from an empty pedigree
// with the configured settings.
func (c *CLI) open(ctx context.Context, create bool) (*workspace, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ws := &workspace{
		cfg:     cfg,
		session: pipeline.NewSession(runner, pipeline.Options{Layout: cfg.Layout, Logger: c.Logger}),
		id:      c.docID,
		path:    c.file,
	}
	if ws.id != "" {
		if ws.store, err = cfg.OpenStore(ctx); err != nil {
			ws.Close()
			return nil, err
		}
	}

	p, err := ws.read(ctx)
	switch {
	case err == nil:
		ws.exists = true
	case missing(err) && create:
		if p, err = cfg.NewPedigree(); err != nil {
			ws.Close()
			return nil, err
		}
	case missing(err):
		ws.Close()
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "no pedigree at %s (run '%s new' first)", ws.Name(), appName)
	default:
		ws.Close()
		return nil, err
	}

	if _, err := ws.session.Load(ctx, p); err != nil {
		ws.Close()
		return nil, err
	}
	c.Logger.Debug("opened document", "source", ws.Name(), "individuals", p.Len())
	return ws, nil
}

func (ws *workspace) read(ctx context.Context) (*pedigree.Pedigree, error) {
	if ws.store != nil {
		return store.Load(ctx, ws.store, ws.id)
	}
	return document.ReadFile(ws.path)
}

// Save writes the session's pedigree back to where it was read from.
func (ws *workspace) Save(ctx context.Context) error {
	p := ws.session.Snapshot()
	if ws.store != nil {
		return store.Save(ctx, ws.store, ws.id, p)
	}
	return document.WriteFile(p, ws.path)
}

// Name describes the document for messages.
func (ws *workspace) Name() string {
	if ws.store != nil {
		return ws.store.Backend() + ":" + ws.id
	}
	return ws.path
}

func (ws *workspace) Close() {
	if ws.store != nil {
		ws.store.Close()
	}
	ws.session.Runner().Close()
}

func missing(err error) bool {
	return stderrors.Is(err, fs.ErrNotExist) || stderrors.Is(err, store.ErrNotFound)
}

// readRaw reads the selected document without validating references,
// for commands that report on broken documents.
func (c *CLI) readRaw(ctx context.Context) (*pedigree.Pedigree, string, error) {
	ws := &workspace{id: c.docID, path: c.file}
	if ws.id != "" {
		cfg, err := c.loadConfig()
		if err != nil {
			return nil, "", err
		}
		if ws.store, err = cfg.OpenStore(ctx); err != nil {
			return nil, "", err
		}
		defer ws.store.Close()
	}
	p, err := ws.read(ctx)
	return p, ws.Name(), err
}

// mutate applies operations to the document and saves it.
func (c *CLI) mutate(cmd *cobra.Command, operations ...ops.Operation) error {
	ctx := cmd.Context()
	ws, err := c.open(ctx, false)
	if err != nil {
		return err
	}
	defer ws.Close()

	prog := newProgress(c.Logger)
	res, err := ws.session.Apply(ctx, operations...)
	if err != nil {
		return err
	}
	if err := ws.Save(ctx); err != nil {
		return err
	}
	prog.done("Applied " + plural(len(operations), "operation"))

	c.printSuccess("Updated %s", ws.Name())
	if len(res.Mutation.Created) > 0 {
		c.printDetail("created %s", strings.Join(res.Mutation.Created, ", "))
	}
	if len(res.Mutation.Removed) > 0 {
		c.printDetail("removed %s", strings.Join(res.Mutation.Removed, ", "))
	}
	c.printStats(res.Stats.Individuals, res.CacheInfo.LayoutHit && res.CacheInfo.RiskHit)
	return nil
}
