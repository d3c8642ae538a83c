package cmd

import (
	"fmt"
	"os"

	"clipctl/pkg/actions"
	"clipctl/pkg/binding"
	"clipctl/pkg/clipboard"
	"clipctl/pkg/config"
	"clipctl/pkg/diagnostics"
	"clipctl/pkg/dom"
	"clipctl/pkg/errors"
	"clipctl/pkg/journal"
	"clipctl/pkg/logger"
	"clipctl/pkg/observer"
	"clipctl/pkg/payload"
	"clipctl/pkg/query"

	"github.com/spf13/cobra"
)

type CommandBuilder struct {
	cmd *cobra.Command
}

func NewCommand(name, short, long string) *CommandBuilder {
	return &CommandBuilder{
		cmd: &cobra.Command{
			Use:     name,
			Short:   short,
			Long:    long,
			Example: "",
		},
	}
}

func (b *CommandBuilder) WithExample(example string) *CommandBuilder {
	b.cmd.Example = example
	return b
}

// WithSession loads the document named by the first argument, wires the
// clipboard pipeline to it and hands the session to fn.
func (b *CommandBuilder) WithSession(fn func(cmd *cobra.Command, s *Session, args []string) error) *CommandBuilder {
	b.cmd.Args = cobra.MinimumNArgs(1)
	b.cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		s, err := OpenSession(args[0], cfg, SessionOptions{DryRun: dryRunFlag})
		if err != nil {
			return err
		}
		defer s.Close()
		return fn(cmd, s, args[1:])
	}
	return b
}

func (b *CommandBuilder) Build() *cobra.Command {
	return b.cmd
}

// loadConfig reads the config file for the selected profile and applies the
// command line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(profileFlag)
	if err != nil {
		return nil, err
	}
	applyFlagOverrides(&cfg.Clipboard)
	return cfg, nil
}

func applyFlagOverrides(c *config.ClipboardConfig) {
	if modeFlag != "" {
		c.Mode = modeFlag
	}
	if grammarFlag != "" {
		c.Grammar = grammarFlag
	}
	if prefixFlag != "" {
		c.AttributePrefix = prefixFlag
	}
	if dispatchTargetFlag != "" {
		c.DispatchTarget = dispatchTargetFlag
	}
}

type SessionOptions struct {
	// DryRun records writes in memory instead of the system clipboard.
	DryRun bool
	// Backend overrides the clipboard backend; DryRun is ignored when set.
	Backend clipboard.Backend
	// Sink receives diagnostics in addition to the log and the journal.
	Sink diagnostics.Sink
}

// Session is one loaded document with its clipboard pipeline attached.
type Session struct {
	Path     string
	Config   *config.Config
	Doc      *dom.Document
	Observer *observer.Service
	Actions  *actions.Registry
	Manager  *binding.Manager
	Backend  clipboard.Backend
	Journal  *journal.Journal

	failures *failureSink
}

func OpenSession(path string, cfg *config.Config, opts SessionOptions) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.FileError(fmt.Sprintf("%s %s", errors.ErrMsgDocumentRead, path), err)
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		return nil, errors.ParseError(path, err)
	}
	return NewSession(path, doc, cfg, opts)
}

// NewSession wires the pipeline onto an already parsed document.
func NewSession(path string, doc *dom.Document, cfg *config.Config, opts SessionOptions) (*Session, error) {
	s := &Session{Path: path, Config: cfg, Doc: doc, failures: &failureSink{}}

	switch {
	case opts.Backend != nil:
		s.Backend = opts.Backend
	case opts.DryRun:
		s.Backend = clipboard.NewMemory()
	default:
		s.Backend = clipboard.System{}
	}

	sinks := diagnostics.Multi{diagnostics.LogSink{}, s.failures}
	if opts.Sink != nil {
		sinks = append(sinks, opts.Sink)
	}
	if cfg.Journal.Enabled {
		if j, err := openJournal(cfg); err != nil {
			logger.Warn().Err(err).Msg("journal disabled")
		} else {
			s.Journal = j
			sinks = append(sinks, j)
		}
	}

	bopts, err := bindingOptions(cfg.Clipboard)
	if err != nil {
		s.Close()
		return nil, err
	}
	bopts.Backend = s.Backend
	bopts.Sink = sinks

	s.Manager, err = binding.New(doc, bopts)
	if err != nil {
		s.Close()
		return nil, errors.NewWithError(errors.ExitCodeConfig, "invalid clipboard settings", err)
	}
	s.Observer = observer.New(doc)
	s.Actions = actions.NewRegistry(doc, actions.Options{
		Timeout: cfg.Clipboard.ActionTimeout,
		Sink:    sinks,
	})
	if err := s.Manager.Start(s.Observer, s.Actions); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.Actions.Start(s.Observer); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func openJournal(cfg *config.Config) (*journal.Journal, error) {
	path := cfg.Journal.Path
	if path == "" {
		var err error
		if path, err = config.DefaultJournalPath(); err != nil {
			return nil, err
		}
	}
	return journal.Open(path)
}

func bindingOptions(c config.ClipboardConfig) (binding.Options, error) {
	mode, err := payload.ParseMode(c.Mode)
	if err != nil {
		return binding.Options{}, errors.NewWithError(errors.ExitCodeConfig, "invalid mode", err)
	}
	variant, err := query.ParseVariant(c.Grammar)
	if err != nil {
		return binding.Options{}, errors.NewWithError(errors.ExitCodeConfig, "invalid grammar", err)
	}
	dispatch, err := clipboard.ParseDispatchTarget(c.DispatchTarget)
	if err != nil {
		return binding.Options{}, errors.NewWithError(errors.ExitCodeConfig, "invalid dispatch target", err)
	}
	return binding.Options{
		Grammar:        query.Grammar{Prefix: c.AttributePrefix, Variant: variant},
		Mode:           mode,
		ActionName:     c.ActionName,
		EventName:      c.EndEvent,
		DispatchTarget: dispatch,
	}, nil
}

// Memory returns the in-memory backend of a dry-run session.
func (s *Session) Memory() (*clipboard.Memory, bool) {
	m, ok := s.Backend.(*clipboard.Memory)
	return m, ok
}

func (s *Session) Close() {
	if s.Manager != nil {
		s.Manager.Close()
	}
	if s.Actions != nil {
		s.Actions.Close()
	}
	if s.Observer != nil {
		s.Observer.Close()
	}
	if s.Journal != nil {
		if err := s.Journal.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close journal")
		}
	}
}
