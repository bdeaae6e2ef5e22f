package main

import (
	"flag"
	"log/slog"
	"os"

	"curator/internal/catalog"
	"curator/internal/config"
	"curator/internal/logging"
	"curator/internal/model"
	"curator/internal/render"
)

func main() {
	verify := flag.Bool("verify", false, "compare generated output against the files on disk instead of writing")
	dryRun := flag.Bool("dry-run", false, "render without writing any files")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)

	cat, err := catalog.Load(cfg.CatalogPath())
	if err != nil {
		log.Error("load catalog", "path", cfg.CatalogPath(), "error", err)
		os.Exit(1)
	}

	clean := true
	for _, lang := range []string{model.LangKo, model.LangEn} {
		path := cfg.ReadmePath(lang)
		out := render.Render(cat, lang)

		switch {
		case *verify:
			original, err := os.ReadFile(path)
			if err != nil {
				log.Error("read original", "path", path, "error", err)
				os.Exit(1)
			}
			count, diffs := render.Verify(out, string(original))
			if count == 0 {
				log.Info("document matches", "path", path)
				continue
			}
			clean = false
			log.Warn("document differs", "path", path, "lines", count)
			for _, d := range diffs {
				log.Warn("diff", "line", d.Line, "disk", d.Orig, "generated", d.Gen)
			}
		case *dryRun:
			log.Info("rendered", "path", path, "bytes", len(out))
		default:
			if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
				log.Error("write document", "path", path, "error", err)
				os.Exit(1)
			}
			log.Info("wrote document", "path", path, "bytes", len(out))
		}
	}

	if !clean {
		os.Exit(1)
	}
}
