package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lysyi3m/routesnap/app/api"
	"github.com/lysyi3m/routesnap/app/articles"
	"github.com/lysyi3m/routesnap/app/cfg"
	"github.com/lysyi3m/routesnap/app/registry"
	"github.com/lysyi3m/routesnap/app/verify"
)

type verifyCommand struct {
	Browser bool `long:"browser" description:"Also load every route in headless Chrome as a crawler and as a visitor"`
}

func (v *verifyCommand) Execute(args []string) error {
	c := cfg.Get()
	setupLogger(c)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collection, err := builtArticles(c)
	if err != nil {
		return err
	}
	reg, err := registry.Load(c.SiteFile, collection)
	if err != nil {
		return err
	}

	res, err := verify.Output(c.OutputDir, reg)
	if err != nil {
		return err
	}
	printResult("output", res)

	if v.Browser {
		browserRes, err := verifyInBrowser(ctx, c, reg)
		if err != nil {
			return err
		}
		printResult("browser", browserRes)
		res.Problems = append(res.Problems, browserRes.Problems...)
	}

	return res.Err()
}

// builtArticles returns the article set the output was built from. The local
// file is read again; feed articles are read back from the output instead of
// fetched, since the feed may have changed since the build.
func builtArticles(c *cfg.Cfg) (*articles.Collection, error) {
	var all []articles.Article
	if c.ArticlesFile != "" {
		local, err := articles.LoadFile(c.ArticlesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load articles: %w", err)
		}
		all = append(all, local...)
	}

	if c.ArticlesFeedURL != "" {
		bare, err := registry.Load(c.SiteFile, nil)
		if err != nil {
			return nil, err
		}
		if routes := bare.Site().Articles; routes != nil {
			rendered, err := verify.Articles(c.OutputDir, routes.Prefix)
			if err != nil {
				return nil, fmt.Errorf("failed to read built articles: %w", err)
			}
			all = append(all, rendered...)
			slog.Info("Feed articles read from build output", "feed", c.ArticlesFeedURL, "rendered", len(rendered))
		}
	}

	collection, _ := articles.NewCollection(all)
	return collection, nil
}

func verifyInBrowser(ctx context.Context, c *cfg.Cfg, reg *registry.Registry) (*verify.Result, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	srv := &http.Server{Handler: api.NewServer(api.NewHandler(c.OutputDir, nil, c.Version))}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Verification server error", "error", err)
		}
	}()
	defer srv.Close()

	return verify.Browser(ctx, "http://"+ln.Addr().String(), reg.ListRoutes())
}

func printResult(kind string, res *verify.Result) {
	for _, p := range res.Problems {
		fmt.Fprintf(os.Stderr, "problem: %s\n", p)
	}
	fmt.Printf("Verified %s: %d routes, %d problems\n", kind, res.Checked, len(res.Problems))
}
