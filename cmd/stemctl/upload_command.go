package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ManuGH/stemsplit/internal/daemon"
	"github.com/ManuGH/stemsplit/internal/separator"
	"github.com/ManuGH/stemsplit/internal/upload"
)

type uploadFlags struct {
	model         string
	highQuality   bool
	enhanceBass   bool
	enhanceVocals bool
	format        string
	detach        bool
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var flags uploadFlags
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file for separation and follow the job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			opts := upload.DefaultOptions()
			model, err := upload.ParseModel(flags.model)
			if err != nil {
				return err
			}
			opts.Model = model
			opts.HighQuality = flags.highQuality
			opts.EnhanceBass = flags.enhanceBass
			opts.EnhanceVocals = flags.enhanceVocals
			opts.OutputFormat = upload.OutputFormat(flags.format)

			spool, err := upload.NewSpool(cfg.Upload.SpoolDir)
			if err != nil {
				return err
			}
			client := separator.NewClient(daemon.SeparatorConfig(cfg))
			c := upload.NewController(uuid.NewString(), daemon.UploadDeps(cfg, client, spool))
			defer c.Close()

			if err := c.SetOptions(opts); err != nil {
				return err
			}
			if err := selectPath(c, args[0]); err != nil {
				return err
			}
			return runUpload(cmd.Context(), c, cmd.OutOrStdout(), flags.detach)
		},
	}

	cmd.Flags().StringVarP(&flags.model, "model", "m", string(upload.ModelStandard), "Separation model: standard, advanced or professional")
	cmd.Flags().BoolVar(&flags.highQuality, "high-quality", false, "Request high-quality processing")
	cmd.Flags().BoolVar(&flags.enhanceBass, "enhance-bass", false, "Request bass enhancement")
	cmd.Flags().BoolVar(&flags.enhanceVocals, "enhance-vocals", false, "Request vocal enhancement")
	cmd.Flags().StringVar(&flags.format, "format", string(upload.FormatMP3), "Output format: mp3, wav or flac")
	cmd.Flags().BoolVar(&flags.detach, "detach", false, "Return once the upload is accepted")
	return cmd
}

func selectPath(c *upload.Controller, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	name := filepath.Base(path)
	_, err = c.SelectContent(name, mime.TypeByExtension(filepath.Ext(name)), info.Size(), f)
	return err
}

// runUpload submits the selection and renders state snapshots until the job
// reaches a terminal status.
func runUpload(ctx context.Context, c *upload.Controller, out io.Writer, detach bool) error {
	states, cancel := c.Subscribe()
	defer cancel()

	r := newRenderer(out)
	done := make(chan upload.State, 1)
	go func() {
		var last upload.State
		for s := range states {
			r.render(s)
			last = s
			if s.Status.Terminal() {
				break
			}
		}
		done <- last
	}()

	if err := c.Submit(ctx); err != nil {
		cancel()
		<-done
		r.finish()
		return err
	}
	if detach {
		cancel()
		<-done
		r.finish()
		fmt.Fprintf(out, "uploaded, job %s\n", orDash(c.State().JobID))
		return nil
	}

	var last upload.State
	select {
	case last = <-done:
	case <-ctx.Done():
		cancel()
		<-done
		r.finish()
		return ctx.Err()
	}
	r.finish()

	fmt.Fprintf(out, "%s %s\n", last.Status.Label(), orDash(last.JobID))
	if last.Status != upload.StatusCompleted {
		return fmt.Errorf("job %s: %s", last.Status, last.Message)
	}
	for _, o := range last.Outputs {
		fmt.Fprintf(out, "  %s\t%s\n", o.Name, o.URL)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// renderer draws a progress bar on terminals and plain status lines
// elsewhere.
type renderer struct {
	out  io.Writer
	bar  *progressbar.ProgressBar
	last string
}

func newRenderer(out io.Writer) *renderer {
	r := &renderer{out: out}
	if isTerminal(out) {
		r.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetDescription("Uploading"),
			progressbar.OptionClearOnFinish(),
		)
	}
	return r
}

func (r *renderer) render(s upload.State) {
	phase, pct := "Uploading", s.UploadProgress
	if s.Status != upload.StatusNone {
		phase, pct = s.Status.Label(), s.Progress
	}

	if r.bar != nil {
		r.bar.Describe(phase)
		_ = r.bar.Set(pct)
		return
	}

	line := fmt.Sprintf("%s %d%%", phase, pct)
	if line != r.last && (s.Uploading || s.Status != upload.StatusNone) {
		fmt.Fprintln(r.out, line)
		r.last = line
	}
}

func (r *renderer) finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
