package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/alan-mat/tome/internal/tasks"
	"github.com/alan-mat/tome/internal/transport"
	"github.com/alan-mat/tome/worker"
	"github.com/alexflint/go-arg"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const (
	ProgramName   = "Tome"
	Version       = "v0.1.0"
	RepositoryUrl = "github.com/alan-mat/tome"
)

type workCmd struct{}

type ingestCmd struct {
	Files     []string `arg:"positional,required" help:"text files to ingest, one document per file"`
	Summaries bool     `arg:"--summaries" help:"store chunk summaries instead of raw chunks"`
}

type askCmd struct {
	Prompt    string `arg:"positional,required" help:"the question to answer"`
	NoContext bool   `arg:"--no-context" help:"skip retrieval and answer from the prompt alone"`
	MaxTokens int    `arg:"--max-tokens" default:"200" help:"generation length cap"`
	Structure string `arg:"--structure" help:"JSON object describing the desired answer fields"`
}

type args struct {
	Work   *workCmd   `arg:"subcommand:work" help:"start the tome worker"`
	Ingest *ingestCmd `arg:"subcommand:ingest" help:"ingest documents into the store"`
	Ask    *askCmd    `arg:"subcommand:ask" help:"ask a question against the store"`

	Config string `arg:"--config,-c" default:"tome.yaml" help:"path to config file"`
}

func (args) Version() string {
	return fmt.Sprintf("%s %s", ProgramName, Version)
}

func (args) Epilogue() string {
	return fmt.Sprintf("For more information visit %s", RepositoryUrl)
}

func main() {
	var args args

	p, err := arg.NewParser(arg.Config{Program: strings.ToLower(ProgramName)}, &args)
	if err != nil {
		log.Fatalf("there was an error in the definition of the Go struct: %v", err)
	}
	p.MustParse(os.Args[1:])

	if p.Subcommand() == nil {
		p.WriteUsage(os.Stdout)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	conf, err := ReadConfig(args.Config)
	if err != nil {
		log.Fatalf("failed to read config file '%s': %v", args.Config, err)
	}

	switch cmd := p.Subcommand().(type) {
	case *workCmd:
		err = startWorker(conf)
	case *ingestCmd:
		err = runIngest(conf, cmd)
	case *askCmd:
		err = runAsk(conf, cmd)
	default:
		p.FailSubcommand("unrecognized command", p.SubcommandNames()...)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func startWorker(conf *config) error {
	w := worker.New(conf.workerConfig())
	return w.Start()
}

func runIngest(conf *config, cmd *ingestCmd) error {
	documents := make([]string, 0, len(cmd.Files))
	for _, path := range cmd.Files {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read document '%s': %w", path, err)
		}
		documents = append(documents, string(content))
	}

	task, err := tasks.NewIngestTask(documents, cmd.Summaries)
	if err != nil {
		return err
	}

	report, err := dispatch(conf, task)
	if err != nil {
		return err
	}

	fmt.Println(report)
	return nil
}

func runAsk(conf *config, cmd *askCmd) error {
	payload := tasks.AskPayload{
		Prompt:     cmd.Prompt,
		UseContext: !cmd.NoContext,
		MaxTokens:  cmd.MaxTokens,
	}

	if cmd.Structure != "" {
		if err := json.Unmarshal([]byte(cmd.Structure), &payload.Structure); err != nil {
			return fmt.Errorf("failed to parse structure: %w", err)
		}
	}

	task, err := tasks.NewAskTask(payload)
	if err != nil {
		return err
	}

	answer, err := dispatch(conf, task)
	if err != nil {
		return err
	}

	fmt.Println(answer)
	return nil
}

// dispatch enqueues task for the worker and blocks until its result
// arrives on the message stream.
func dispatch(conf *config, task *asynq.Task) (string, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Transport.Addr,
		Username: conf.Transport.Username,
		Password: conf.Transport.Password,
		DB:       conf.Transport.DB,
	})
	defer rdb.Close()

	client := asynq.NewClientFromRedisClient(rdb)
	defer client.Close()

	id := uuid.NewString()
	if _, err := client.Enqueue(task, asynq.TaskID(id)); err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	t := transport.NewRedisTransport(rdb)
	ms, err := t.GetMessageStream(id)
	if err != nil {
		return "", err
	}

	return ms.Text(context.Background())
}
