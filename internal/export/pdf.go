package export

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrPDFUnavailable is returned by Convert when the PDF toolchain is missing.
var ErrPDFUnavailable = errors.New("pdf export unavailable")

// FallbackFonts are tried in order when the configured font is not installed.
var FallbackFonts = []string{"DejaVu Serif", "DejaVu Sans", "Liberation Serif", "Noto Serif"}

type PDFConfig struct {
	PandocPath string
	Engine     string
	Font       string
}

// PDFConverter renders Markdown to PDF with pandoc and a LaTeX engine.
// Tool and font availability is probed once, at construction.
type PDFConverter struct {
	pandoc string
	engine string
	font   string
	reason string
	log    *zap.Logger
}

func NewPDFConverter(ctx context.Context, cfg PDFConfig, logger *zap.Logger) *PDFConverter {
	c := &PDFConverter{log: logger.Named("export")}

	pandoc, err := exec.LookPath(cfg.PandocPath)
	if err != nil {
		c.reason = fmt.Sprintf("pandoc not found: %v", err)
		c.log.Warn("pdf export disabled", zap.String("reason", c.reason))
		return c
	}
	engine, err := exec.LookPath(cfg.Engine)
	if err != nil {
		c.reason = fmt.Sprintf("pdf engine %q not found: %v", cfg.Engine, err)
		c.log.Warn("pdf export disabled", zap.String("reason", c.reason))
		return c
	}
	c.pandoc, c.engine = pandoc, engine

	families, err := listFontFamilies(ctx)
	if err != nil {
		c.log.Warn("font listing failed, using configured font", zap.Error(err))
		c.font = cfg.Font
	} else {
		c.font = PickFont(cfg.Font, families)
	}
	c.log.Info("pdf export ready",
		zap.String("pandoc", c.pandoc),
		zap.String("engine", c.engine),
		zap.String("font", c.font),
	)
	return c
}

// Available reports whether Convert can produce PDFs.
func (c *PDFConverter) Available() bool { return c.pandoc != "" }

// Reason explains why the converter is unavailable.
func (c *PDFConverter) Reason() string { return c.reason }

// Convert renders markdown (normalized first) into PDF bytes.
func (c *PDFConverter) Convert(ctx context.Context, title, markdown string) ([]byte, error) {
	if !c.Available() {
		return nil, fmt.Errorf("%w: %s", ErrPDFUnavailable, c.reason)
	}

	dir, err := os.MkdirTemp("", "research-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input.md")
	output := filepath.Join(dir, "output.pdf")
	if err := os.WriteFile(input, []byte(NormalizeMarkdown(markdown)), 0o600); err != nil {
		return nil, fmt.Errorf("write markdown: %w", err)
	}

	args := []string{
		input,
		"-o", output,
		"--from=markdown+tex_math_dollars",
		"--pdf-engine=" + c.engine,
		"-V", "geometry:margin=1in",
	}
	if c.font != "" {
		args = append(args, "-V", "mainfont="+c.font)
	}
	if title != "" {
		args = append(args, "--metadata", "title="+title)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.pandoc, args...)
	cmd.Dir = dir
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		c.log.Error("pandoc failed", zap.Error(err), zap.String("stderr", lastLines(stderr.String(), 20)))
		return nil, fmt.Errorf("pandoc: %w: %s", err, lastLines(stderr.String(), 3))
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return data, nil
}

// PickFont returns the first installed font among preferred and the
// fallbacks, or "" to leave the engine default.
func PickFont(preferred string, installed []string) string {
	have := make(map[string]bool, len(installed))
	for _, f := range installed {
		have[strings.ToLower(strings.TrimSpace(f))] = true
	}
	candidates := append([]string{preferred}, FallbackFonts...)
	for _, f := range candidates {
		if f != "" && have[strings.ToLower(f)] {
			return f
		}
	}
	return ""
}

// listFontFamilies asks fontconfig for every installed family name.
func listFontFamilies(ctx context.Context) ([]string, error) {
	out, err := exec.CommandContext(ctx, "fc-list", ":", "family").Output()
	if err != nil {
		return nil, fmt.Errorf("fc-list: %w", err)
	}
	var families []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		// One line may carry several comma-separated aliases.
		for _, name := range strings.Split(sc.Text(), ",") {
			if name = strings.TrimSpace(name); name != "" {
				families = append(families, name)
			}
		}
	}
	return families, sc.Err()
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
