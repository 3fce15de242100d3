package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/singhoo/pkg/model"
	"github.com/m-mizutani/singhoo/pkg/usecase/studio"
	"github.com/urfave/cli/v3"
)

type shellMode string

const (
	modeGenerate shellMode = "generate"
	modeEdit     shellMode = "edit"
	modeThink    shellMode = "think"
)

const shellHelp = `Type a prompt to run it in the current mode.
  /mode generate|edit|think   switch mode
  /set model <id>             image model for generate
  /set aspect <ratio>         aspect ratio for generate
  /set size <size>            image size for Imagen
  /set image <path>           source image for edit
  /status                     show settings and the state of each mode
  /history                    list history
  /view <id>                  show a history record
  /reuse <id>                 load prompt and settings of a generated image
  /download <id> [path]       save the image of a history record
  /delete <id>                delete a history record
  /clear                      delete all history records
  /help                       show this help
  /exit                       quit
`

// shell keeps the interactive session state. Each mode keeps its own
// result so switching modes does not lose it.
type shell struct {
	uc   *studio.UseCase
	w    io.Writer
	errW io.Writer

	mode     shellMode
	settings model.GenerateSettings
	edit     studio.EditInput

	// prefill is pushed into the next input line
	prefill string
}

func newShell(uc *studio.UseCase, defaults model.GenerateSettings, w, errW io.Writer) *shell {
	return &shell{
		uc:       uc,
		w:        w,
		errW:     errW,
		mode:     modeGenerate,
		settings: defaults,
	}
}

func (s *shell) prompt() string {
	return fmt.Sprintf("singhoo[%s]> ", s.mode)
}

// handle runs one input line and reports whether the session should end.
// Request failures are printed, not returned, so the session continues.
func (s *shell) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if !strings.HasPrefix(line, "/") {
		s.dispatch(ctx, line)
		return false
	}

	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	var err error
	switch cmd {
	case "/exit", "/quit":
		return true
	case "/help":
		fmt.Fprint(s.w, shellHelp)
	case "/mode":
		err = s.setMode(args)
	case "/set":
		err = s.set(args)
	case "/status":
		s.status()
	case "/history":
		renderHistory(s.w, s.uc.History().List())
	case "/view":
		err = s.view(args)
	case "/reuse":
		err = s.reuse(args)
	case "/download":
		err = s.download(args)
	case "/delete":
		err = s.delete(ctx, args)
	case "/clear":
		s.uc.History().Clear(ctx)
		fmt.Fprintln(s.w, "History cleared")
	default:
		err = goerr.New("unknown command, type /help", goerr.V("command", cmd), goerr.T(model.TagValidation))
	}

	if err != nil {
		fmt.Fprintf(s.w, "Error: %s\n", studio.Message(err))
	}
	return false
}

func (s *shell) dispatch(ctx context.Context, prompt string) {
	switch s.mode {
	case modeGenerate:
		out, err := withSpinner(s.errW, "Generating image...", func() (*studio.GenerateOutput, error) {
			return s.uc.Generate(ctx, studio.GenerateInput{Prompt: prompt, Settings: s.settings})
		})
		if err != nil {
			fmt.Fprintf(s.w, "Error: %s\n", studio.Message(err))
			return
		}
		s.saved(out.Record, out.ImageURL, out.Added)

	case modeEdit:
		input := s.edit
		input.Prompt = prompt
		out, err := withSpinner(s.errW, "Editing image...", func() (*studio.EditOutput, error) {
			return s.uc.Edit(ctx, input)
		})
		if err != nil {
			fmt.Fprintf(s.w, "Error: %s\n", studio.Message(err))
			return
		}
		s.saved(out.Record, out.ImageURL, out.Added)

	case modeThink:
		text, err := withSpinner(s.errW, "Thinking...", func() (string, error) {
			return s.uc.Think(ctx, prompt)
		})
		if err != nil {
			fmt.Fprintf(s.w, "Error: %s\n", studio.Message(err))
			return
		}
		fmt.Fprintln(s.w, text)
	}
}

func (s *shell) saved(rec model.Record, dataURL string, added bool) {
	path, err := saveImage(rec, dataURL, "")
	if err != nil {
		fmt.Fprintf(s.w, "Error: %s\n", studio.Message(err))
		return
	}
	fmt.Fprintf(s.w, "Saved %s\n", path)
	renderAdded(s.w, rec, added)
}

func (s *shell) setMode(args []string) error {
	if len(args) != 1 {
		return goerr.New("usage: /mode generate|edit|think", goerr.T(model.TagValidation))
	}
	switch m := shellMode(args[0]); m {
	case modeGenerate, modeEdit, modeThink:
		s.mode = m
		return nil
	default:
		return goerr.New("unknown mode", goerr.V("mode", args[0]), goerr.T(model.TagValidation))
	}
}

func (s *shell) set(args []string) error {
	if len(args) < 2 {
		return goerr.New("usage: /set model|aspect|size|image <value>", goerr.T(model.TagValidation))
	}
	value := strings.Join(args[1:], " ")

	switch args[0] {
	case "model":
		m, err := model.ParseImageModel(value)
		if err != nil {
			return err
		}
		s.settings.Model = m
	case "aspect":
		a, err := model.ParseAspectRatio(value)
		if err != nil {
			return err
		}
		s.settings.AspectRatio = a
	case "size":
		size, err := model.ParseImageSize(value)
		if err != nil {
			return err
		}
		s.settings.ImageSize = size
	case "image":
		input, err := readEditInput(value, "")
		if err != nil {
			return err
		}
		s.edit = input
		fmt.Fprintf(s.w, "Loaded %s (%d bytes)\n", input.FileName, len(input.Image))
		return nil
	default:
		return goerr.New("unknown setting", goerr.V("setting", args[0]), goerr.T(model.TagValidation))
	}

	fmt.Fprintf(s.w, "Settings: %s %s %s\n", s.settings.Model, s.settings.AspectRatio, s.settings.ImageSize)
	return nil
}

func (s *shell) status() {
	fmt.Fprintf(s.w, "Mode:     %s\n", s.mode)
	fmt.Fprintf(s.w, "Settings: %s %s %s\n", s.settings.Model, s.settings.AspectRatio, s.settings.ImageSize)
	if s.edit.FileName != "" {
		fmt.Fprintf(s.w, "Image:    %s\n", s.edit.FileName)
	}

	gen := s.uc.GenerateState()
	fmt.Fprintf(s.w, "generate: %s %s\n", gen.State, gen.Message)
	ed := s.uc.EditState()
	fmt.Fprintf(s.w, "edit:     %s %s\n", ed.State, ed.Message)
	th := s.uc.ThinkState()
	fmt.Fprintf(s.w, "think:    %s %s\n", th.State, th.Message)
}

func singleID(args []string, usage string) (model.HistoryID, error) {
	if len(args) < 1 {
		return "", goerr.New("usage: "+usage, goerr.T(model.TagValidation))
	}
	return model.HistoryID(args[0]), nil
}

func (s *shell) view(args []string) error {
	id, err := singleID(args, "/view <id>")
	if err != nil {
		return err
	}
	rec, err := s.uc.History().Get(id)
	if err != nil {
		return err
	}
	return renderRecord(s.w, rec, "text")
}

func (s *shell) reuse(args []string) error {
	id, err := singleID(args, "/reuse <id>")
	if err != nil {
		return err
	}
	prompt, settings, err := s.uc.History().Reuse(id)
	if err != nil {
		return err
	}

	s.mode = modeGenerate
	s.settings = settings
	s.prefill = prompt
	fmt.Fprintf(s.w, "Settings: %s %s %s\n", settings.Model, settings.AspectRatio, settings.ImageSize)
	return nil
}

func (s *shell) download(args []string) error {
	id, err := singleID(args, "/download <id> [path]")
	if err != nil {
		return err
	}
	var output string
	if len(args) > 1 {
		output = args[1]
	}

	path, err := downloadRecord(s.uc.History(), id, output)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.w, "Saved %s\n", path)
	return nil
}

func (s *shell) delete(ctx context.Context, args []string) error {
	id, err := singleID(args, "/delete <id>")
	if err != nil {
		return err
	}
	if !s.uc.History().Remove(ctx, id) {
		fmt.Fprintf(s.w, "History record %s not found\n", id)
		return nil
	}
	fmt.Fprintf(s.w, "Deleted %s\n", id)
	return nil
}

func shellCompleter() *readline.PrefixCompleter {
	models := make([]readline.PrefixCompleterInterface, 0, len(model.Models()))
	for _, d := range model.Models() {
		models = append(models, readline.PcItem(string(d.ID)))
	}
	ratios := make([]readline.PrefixCompleterInterface, 0, len(model.AspectRatios()))
	for _, a := range model.AspectRatios() {
		ratios = append(ratios, readline.PcItem(string(a)))
	}
	sizes := make([]readline.PrefixCompleterInterface, 0, len(model.ImageSizes()))
	for _, size := range model.ImageSizes() {
		sizes = append(sizes, readline.PcItem(string(size)))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("/mode",
			readline.PcItem(string(modeGenerate)),
			readline.PcItem(string(modeEdit)),
			readline.PcItem(string(modeThink)),
		),
		readline.PcItem("/set",
			readline.PcItem("model", models...),
			readline.PcItem("aspect", ratios...),
			readline.PcItem("size", sizes...),
			readline.PcItem("image"),
		),
		readline.PcItem("/status"),
		readline.PcItem("/history"),
		readline.PcItem("/view"),
		readline.PcItem("/reuse"),
		readline.PcItem("/download"),
		readline.PcItem("/delete"),
		readline.PcItem("/clear"),
		readline.PcItem("/help"),
		readline.PcItem("/exit"),
	)
}

func shellCommand() *cli.Command {
	var (
		cfg         config
		historyFile string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input-history",
			Usage:       "File keeping the shell input history",
			Sources:     cli.EnvVars("SINGHOO_SHELL_HISTORY"),
			Destination: &historyFile,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)
	flags = append(flags, historyFlags(&cfg)...)

	return &cli.Command{
		Name:  "shell",
		Usage: "Interactive studio with generate, edit and think modes",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx, c)
			if err != nil {
				return err
			}

			uc, closer, err := cfg.newUseCase(ctx)
			defer closer()
			if err != nil {
				return err
			}

			sh := newShell(uc, cfg.defaults, c.Root().Writer, c.Root().ErrWriter)

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          sh.prompt(),
				HistoryFile:     historyFile,
				AutoComplete:    shellCompleter(),
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return goerr.Wrap(err, "failed to start shell")
			}
			defer rl.Close()

			fmt.Fprintf(c.Root().Writer, "singhoo studio. Type /help for commands.\n")

			for {
				if sh.prefill != "" {
					rl.WriteStdin([]byte(sh.prefill))
					sh.prefill = ""
				}

				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						break
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				if sh.handle(ctx, line) {
					break
				}
				rl.SetPrompt(sh.prompt())
			}

			return nil
		},
	}
}
