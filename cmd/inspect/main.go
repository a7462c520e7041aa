// Command inspect derives (or reloads) the schema document for a track file
// and prints it, along with the rows the chunk loader would materialize.
//
// Usage:
//
//	LLM_API_KEY=... go run ./cmd/inspect -source data/voyage.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Continy/ShipTrackViz/internal/adapter/llm"
	"github.com/Continy/ShipTrackViz/internal/observability"
	"github.com/Continy/ShipTrackViz/internal/schema"
	"github.com/Continy/ShipTrackViz/internal/table"
)

func main() {
	source := flag.String("source", "", "track file to inspect (csv or xlsx)")
	encoding := flag.String("encoding", "utf-8", "source text encoding (utf-8, gbk, gb18030, big5)")
	force := flag.Bool("force", false, "discard any cached schema and re-derive it")
	flag.Parse()

	if *source == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(*source, *encoding, *force); err != nil {
		fmt.Fprintf(os.Stderr, "inspect: %v\n", err)
		os.Exit(1)
	}
}

func run(source, encoding string, force bool) error {
	logger := observability.NewLogger("warn", "text")
	metrics := observability.NewMetrics()

	client := llm.NewClient(
		os.Getenv("LLM_API_KEY"),
		envOrDefault("LLM_MODEL", "deepseek-chat"),
		envOrDefault("LLM_BASE_URL", "https://api.deepseek.com"),
		30*time.Second,
		metrics,
		logger,
	)
	inferrer := llm.NewCachedInferrer(client, 16, metrics)
	cache := schema.NewCache(inferrer, logger, metrics)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	sch, err := cache.LoadOrBuild(ctx, source, encoding, force)
	if err != nil {
		return err
	}

	doc, err := yaml.Marshal(sch)
	if err != nil {
		return err
	}

	fmt.Printf("source:    %s\n", source)
	fmt.Printf("cache dir: %s\n", schema.Dir(source))
	fmt.Println()
	os.Stdout.Write(doc) //nolint:errcheck // stdout write

	src, err := table.Open(source, encoding)
	if err != nil {
		return err
	}
	fmt.Printf("\nheader: %v\n", src.Header())
	fmt.Printf("rows:   %d\n", src.NumRows())

	if sch.DeltaSeconds != nil {
		span := time.Duration(float64(src.NumRows()) * *sch.DeltaSeconds * float64(time.Second))
		fmt.Printf("span:   ~%s at %gs sampling\n", span, *sch.DeltaSeconds)
	}

	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
