// Command weft renders weft template documents, inspects their parsed
// sections, and runs rendered prompts against an LLM.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weft-lang/weft/pkg/weft"
)

// CLI is the top-level command-line interface.
type CLI struct {
	Config string `help:"Config file path." type:"path" default:"weft.yaml"`
	Debug  bool   `help:"Enable debug logging."`
	NoDB   bool   `help:"Use an in-memory store instead of SQLite."`

	Render RenderCmd `cmd:"" default:"withargs" help:"Render a document to stdout."`
	Parse  ParseCmd  `cmd:"" help:"Dump a document's parsed sections without rendering."`
	Chat   ChatCmd   `cmd:"" help:"Render a document and send it to the configured LLM."`
	Save   SaveCmd   `cmd:"" help:"Store a document under a name."`
	Docs   DocsCmd   `cmd:"" help:"List stored documents."`
}

// Context carries the shared runtime into command Run methods.
type Context struct {
	Runtime *weft.Runtime
	Log     *zap.Logger
}

func main() {
	var cli CLI
	parsed := kong.Parse(&cli,
		kong.Name("weft"),
		kong.Description("A template-directive language for prompt documents."),
		kong.UsageOnError(),
	)

	log := zap.NewNop()
	if cli.Debug {
		var err error
		log, err = zap.NewDevelopment()
		parsed.FatalIfErrorf(err)
	}
	defer log.Sync()

	runtime, err := buildRuntime(&cli, log)
	parsed.FatalIfErrorf(err)
	defer runtime.Close()

	err = parsed.Run(&Context{Runtime: runtime, Log: log})
	parsed.FatalIfErrorf(err)
}

func buildRuntime(cli *CLI, log *zap.Logger) (*weft.Runtime, error) {
	cfg, err := LoadConfig(cli.Config)
	if err != nil {
		return nil, err
	}

	opts := []weft.Option{weft.WithLogger(log)}

	switch {
	case cli.NoDB:
		opts = append(opts, weft.WithMemoryStore())
	case cfg.Database != "":
		opts = append(opts, weft.WithSQLiteStore(cfg.Database))
	default:
		opts = append(opts, weft.WithSQLiteStore("weft.db"))
	}

	switch cfg.Provider {
	case "ollama":
		opts = append(opts, weft.WithOllama(cfg.OllamaURL, cfg.Model))
	case "anthropic":
		opts = append(opts, weft.WithAnthropic(cfg.Model))
	case "":
		// No LLM configured; the ask function is unavailable.
	default:
		return nil, fmt.Errorf("unknown provider %q in %s", cfg.Provider, cli.Config)
	}

	if cfg.MaxDepth > 0 {
		opts = append(opts, weft.WithMaxDepth(cfg.MaxDepth))
	}
	for name, value := range cfg.Vars {
		opts = append(opts, weft.WithVar(name, value))
	}

	return weft.New(opts...)
}

// readInput loads a document from a file argument, an inline -e string,
// or stdin when neither is given.
func readInput(file, inline string) (string, error) {
	if inline != "" {
		return inline, nil
	}
	if file != "" && file != "-" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// RenderCmd renders a document to stdout.
type RenderCmd struct {
	File string `arg:"" optional:"" help:"Document file ('-' or empty reads stdin)." type:"path"`
	Eval string `short:"e" help:"Render an inline document string."`
	Name string `help:"Render a stored document by name."`
}

// Run executes the render command.
func (c *RenderCmd) Run(ctx *Context) error {
	var out string
	var err error
	if c.Name != "" {
		out, err = ctx.Runtime.RenderDocument(c.Name)
	} else {
		var input string
		input, err = readInput(c.File, c.Eval)
		if err != nil {
			return err
		}
		out, err = ctx.Runtime.Render(input)
	}
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// ParseCmd dumps the parsed section sequence, the diagnostic mode for
// tooling and grammar debugging.
type ParseCmd struct {
	File string `arg:"" optional:"" help:"Document file ('-' or empty reads stdin)." type:"path"`
	Eval string `short:"e" help:"Parse an inline document string."`
}

// Run executes the parse command.
func (c *ParseCmd) Run(ctx *Context) error {
	input, err := readInput(c.File, c.Eval)
	if err != nil {
		return err
	}
	sections, err := ctx.Runtime.Parse(input)
	if err != nil {
		return err
	}
	for _, sec := range sections {
		switch sec.Name {
		case "":
			fmt.Printf("%-10s [%d:%d)\n", sec.Kind, sec.Span.Start, sec.Span.End)
		default:
			fmt.Printf("%-10s [%d:%d) %s\n", sec.Kind, sec.Span.Start, sec.Span.End, sec.Name)
		}
	}
	return nil
}

// ChatCmd renders a document and sends it to the configured LLM,
// persisting the transcript.
type ChatCmd struct {
	File string `arg:"" optional:"" help:"Document file ('-' or empty reads stdin)." type:"path"`
	Eval string `short:"e" help:"Chat with an inline document string."`
	ID   string `help:"Conversation id (a new one is generated if empty)."`
}

// Run executes the chat command.
func (c *ChatCmd) Run(ctx *Context) error {
	input, err := readInput(c.File, c.Eval)
	if err != nil {
		return err
	}
	id := c.ID
	if id == "" {
		id = uuid.NewString()
		fmt.Fprintf(os.Stderr, "conversation: %s\n", id)
	}
	reply, err := ctx.Runtime.Chat(id, input)
	if err != nil {
		return err
	}
	fmt.Println(reply)
	return nil
}

// SaveCmd stores a document body under a name.
type SaveCmd struct {
	Name string `arg:"" help:"Document name."`
	File string `arg:"" optional:"" help:"Document file ('-' or empty reads stdin)." type:"path"`
}

// Run executes the save command.
func (c *SaveCmd) Run(ctx *Context) error {
	body, err := readInput(c.File, "")
	if err != nil {
		return err
	}
	return ctx.Runtime.SaveDocument(c.Name, body)
}

// DocsCmd lists stored document names.
type DocsCmd struct{}

// Run executes the docs command.
func (c *DocsCmd) Run(ctx *Context) error {
	names, err := ctx.Runtime.Documents()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
