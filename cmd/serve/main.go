package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cognicore/emodetect/internal/api"
	"github.com/cognicore/emodetect/pkg/emodetect/predict"
	"github.com/cognicore/emodetect/pkg/emodetect/registry/sqlite"
)

func main() {
	var (
		addr       = flag.String("addr", ":5000", "Listen address")
		bundlePath = flag.String("bundle", "models/bundle.json", "Inference bundle path")
		dbPath     = flag.String("db", "", "Registry database; when set the bundle is resolved through -model and -alias")
		modelName  = flag.String("model", "emotion_detection", "Registered model name")
		alias      = flag.String("alias", "champion", "Registry alias to serve")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, *addr, *bundlePath, *dbPath, *modelName, *alias)
	stop()
	if err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, addr, bundlePath, dbPath, modelName, alias string) error {
	path, err := resolveBundle(ctx, bundlePath, dbPath, modelName, alias)
	if err != nil {
		return err
	}
	svc, err := predict.Load(path)
	if err != nil {
		return fmt.Errorf("load bundle: %w", err)
	}
	log.Printf("Loaded %s: %d features, run %q", path, svc.VocabularySize(), svc.RunID())

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(api.NewHandler(svc)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// resolveBundle returns bundlePath unless a registry is given, in which case
// the source of the version behind alias is served.
func resolveBundle(ctx context.Context, bundlePath, dbPath, modelName, alias string) (string, error) {
	if dbPath == "" {
		return bundlePath, nil
	}
	st, err := sqlite.OpenSQLite(ctx, dbPath)
	if err != nil {
		return "", fmt.Errorf("open registry: %w", err)
	}
	defer st.Close()

	mv, err := st.GetByAlias(ctx, modelName, alias)
	if err != nil {
		return "", fmt.Errorf("resolve model: %w", err)
	}
	log.Printf("Serving %s version %d (%s)", mv.Name, mv.Version, alias)
	return mv.Source, nil
}
