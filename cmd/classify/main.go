package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"binsorter/internal/app"
	"binsorter/internal/config"
	"binsorter/internal/logger"
	"binsorter/internal/repository/sqlite"
	"binsorter/internal/service"
	"binsorter/internal/service/ai"
	"binsorter/internal/service/storage"

	"github.com/akamensky/argparse"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".bmp":  true,
}

func main() {
	os.Exit(run())
}

func run() int {
	parser := argparse.NewParser("classify", "Tell which bin each photographed item of trash belongs in")
	input := parser.String("i", "input", &argparse.Options{Help: "Image file or directory of images", Required: true})
	backend := parser.Selector("b", "backend", []string{config.BackendOpenCV, config.BackendRemote}, &argparse.Options{Help: "Detector backend (default from DETECTOR_BACKEND)"})
	modelPath := parser.String("m", "model", &argparse.Options{Help: "ONNX model file (opencv backend)"})
	inferenceURL := parser.String("u", "url", &argparse.Options{Help: "Inference service URL (remote backend)"})
	conf := parser.Float("", "conf", &argparse.Options{Help: "Confidence threshold", Default: -1.0})
	outputDir := parser.String("o", "output", &argparse.Options{Help: "Write annotated copies to this directory"})
	record := parser.Flag("r", "record", &argparse.Options{Help: "Record results into the history database", Default: false})
	verbose := parser.Flag("v", "verbose", &argparse.Options{Help: "Log to the log directory and stdout", Default: false})
	if err := parser.Parse(os.Args); err != nil {
		fmt.Fprint(os.Stderr, parser.Usage(err))
		return 1
	}

	cfg := config.Load()
	if *backend != "" {
		cfg.DetectorBackend = *backend
	}
	if *modelPath != "" {
		cfg.ModelPath = *modelPath
	}
	if *inferenceURL != "" {
		cfg.InferenceURL = *inferenceURL
	}
	if *conf >= 0 && *conf <= 1 {
		cfg.ConfidenceThreshold = *conf
	}

	log := logger.NewDiscard()
	if *verbose {
		log = logger.NewLogger(cfg)
	}
	defer log.Close()

	files, err := collectImages(*input)
	if err != nil {
		return fail("%v", err)
	}
	if len(files) == 0 {
		return fail("no images found in %s", *input)
	}

	model := ai.NewShared(app.DetectorLoader(cfg, log))
	if err := model.Load(); err != nil {
		return fail("%v", err)
	}
	defer model.Close()

	if *outputDir != "" {
		if err := os.MkdirAll(*outputDir, 0755); err != nil {
			return fail("create output directory: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var recorder service.Recorder
	if *record {
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return fail("open history database: %v", err)
		}
		defer db.Close()
		buffer := storage.NewBufferService(cfg, log, sqlite.NewClassificationRepository(db), sqlite.NewDetectionRepository(db))
		recorder = buffer

		// Stopping Run flushes what is left; this defer runs before db.Close.
		bufferCtx, stopBuffer := context.WithCancel(context.Background())
		flushed := make(chan struct{})
		go func() {
			buffer.Run(bufferCtx)
			close(flushed)
		}()
		defer func() {
			stopBuffer()
			<-flushed
		}()
	}

	classifier := service.NewClassifier(model, ai.ParamsFromConfig(cfg), cfg.MaxUploadSize, recorder, nil, log)

	failed := 0
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		if err := classifyOne(ctx, classifier, file, *outputDir); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", filepath.Base(file), err)
			failed++
		}
	}

	if failed > 0 {
		return 1
	}
	return 0
}

func classifyOne(ctx context.Context, classifier *service.Classifier, file, outputDir string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	res, err := classifier.Classify(ctx, data, "cli")
	if err != nil {
		return err
	}

	name := filepath.Base(file)
	fmt.Printf("%s: %s\n", name, res.Verdict.Message)
	for _, item := range res.Verdict.Items {
		bin := "unrecognized"
		if item.Recognized {
			bin = string(item.Bin)
		}
		fmt.Printf("  - %s %.1f%% %s\n", item.Label, item.Confidence*100, bin)
	}

	if outputDir != "" {
		out := filepath.Join(outputDir, strings.TrimSuffix(name, filepath.Ext(name))+"_annotated.jpg")
		if err := os.WriteFile(out, res.Annotated, 0644); err != nil {
			return fmt.Errorf("write annotated copy: %w", err)
		}
	}
	return nil
}

// collectImages returns path itself, or the images directly inside it in name order.
func collectImages(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// fail reports a setup error and returns the exit status for run.
func fail(format string, args ...any) int {
	fmt.Fprintf(os.Stderr, "classify: "+format+"\n", args...)
	return 1
}
