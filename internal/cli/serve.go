package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowline/pkg/diagram"
	flowerrors "github.com/matzehuels/flowline/pkg/errors"
	"github.com/matzehuels/flowline/pkg/pipeline"
	"github.com/matzehuels/flowline/pkg/render/sink"
)

// serveCommand creates the serve command: a local preview server that
// re-reads the diagram file on every request, so edits show up on reload.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "Serve live diagram previews over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), args[0], addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the artifact cache")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, input, addr string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	s := &previewServer{input: input, runner: runner, noCache: noCache}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleIndex)
	r.Get("/{name}/preview", s.handlePreview)
	r.Get("/{name}.{format}", s.handleRender)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	printSuccess("Serving %s", input)
	printLink("http://" + addr + "/")
	printInfo("Press Ctrl+C to stop")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// previewServer renders diagrams on demand from a file on disk.
type previewServer struct {
	input   string
	runner  *pipeline.Runner
	noCache bool
}

var formatContentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatJSON: "application/json",
}

// handleIndex lists the file's diagrams with preview links.
func (s *previewServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	file, err := diagram.ReadFile(s.input)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><title>flowline</title></head><body>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n<ul>\n", s.input)
	for _, name := range file.Names() {
		d := file.Diagrams[name]
		fmt.Fprintf(&b, `<li><a href="/%s.svg">%s</a> (%d nodes, %d edges, <a href="/%s/preview">structure</a>)</li>`+"\n",
			name, name, d.NodeCount(), d.EdgeCount(), name)
	}
	b.WriteString("</ul></body></html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(b.String()))
}

// handlePreview serves a Graphviz-laid-out structural view of a diagram,
// ignoring the authored coordinates. Useful for sanity-checking topology
// while editing.
func (s *previewServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	file, err := diagram.ReadFile(s.input)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	d, ok := file.Diagrams[name]
	if !ok {
		http.Error(w, fmt.Sprintf("diagram %q not found", name), http.StatusNotFound)
		return
	}
	if err := d.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	svg, err := sink.RenderDOTSVG(r.Context(), sink.ToDOT(d))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(svg)
}

// handleRender re-reads the file and renders one diagram in the requested
// format. Width can be overridden per request with ?width=<px>.
func (s *previewServer) handleRender(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	format := chi.URLParam(r, "format")
	loggerFromContext(r.Context()).Debug("render request",
		"diagram", name, "format", format, "request_id", middleware.GetReqID(r.Context()))
	if !pipeline.ValidFormats[format] {
		http.Error(w, fmt.Sprintf("unsupported format %q", format), http.StatusNotFound)
		return
	}

	file, err := diagram.ReadFile(s.input)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	d, ok := file.Diagrams[name]
	if !ok {
		http.Error(w, fmt.Sprintf("diagram %q not found", name), http.StatusNotFound)
		return
	}

	opts := pipeline.Options{Formats: []string{format}, NoCache: s.noCache}
	if widthStr := r.URL.Query().Get("width"); widthStr != "" {
		width, err := strconv.ParseFloat(widthStr, 64)
		if err != nil || width <= 0 {
			http.Error(w, "width must be a positive number", http.StatusBadRequest)
			return
		}
		opts.Width = width
	}

	result, err := s.runner.Execute(r.Context(), d, opts)
	if err != nil {
		status := http.StatusInternalServerError
		if code := flowerrors.GetCode(err); code != "" && code != flowerrors.ErrCodeInternal {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, flowerrors.UserMessage(err), status)
		return
	}

	w.Header().Set("Content-Type", formatContentTypes[format])
	w.Header().Set("Cache-Control", "no-store")
	w.Write(result.Artifacts[format])
}
