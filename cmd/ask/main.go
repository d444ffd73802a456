package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"ai-docsearch-be/internal/bootstrap"
	"ai-docsearch-be/internal/config"
	"ai-docsearch-be/pkg/rag/executor"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

var (
	question      = flag.String("q", "", "Ask one question and exit")
	sessionID     = flag.String("session", "", "Session id to continue (default: stateless for -q, new session otherwise)")
	topK          = flag.Int("top-k", 0, "Passages per search (default from config)")
	maxIterations = flag.Int("max-iterations", -1, "Retrieval passes per question (default from config)")
	refine        = flag.Bool("refine", false, "Enable query refinement")
)

var (
	boldGreen = color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan  = color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow    = color.New(color.FgYellow).SprintFunc()
	red       = color.New(color.FgRed).SprintFunc()
)

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	if *topK > 0 {
		cfg.Pipeline.TopK = *topK
	}
	if *maxIterations >= 0 {
		cfg.Pipeline.MaxIterations = *maxIterations
	}
	if *refine {
		cfg.Pipeline.EnableQueryRefinement = true
	}

	container, err := bootstrap.NewContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to bootstrap: %v", err)
	}
	defer container.Close()

	// One-shot questions only keep state when a session is named.
	if *question != "" {
		if err := ask(ctx, container, cfg, *sessionID, *question); err != nil {
			os.Exit(1)
		}
		return
	}

	session := *sessionID
	if session == "" {
		session = uuid.NewString()
	}

	fmt.Println(boldGreen("Document Q&A"))
	fmt.Printf("Session: %s\n", boldCyan(session))
	fmt.Println("Type a question and press Enter. '/clear' forgets the conversation, 'exit' quits.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(boldGreen("You: "))
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(input) {
		case "":
			continue
		case "exit", "quit":
			return
		case "/clear":
			if err := container.Pipeline.ResetSession(ctx, session); err != nil {
				fmt.Fprintln(os.Stderr, red("Error: "+err.Error()))
				continue
			}
			fmt.Println(yellow("Conversation cleared."))
			continue
		}

		_ = ask(ctx, container, cfg, session, input)
		if ctx.Err() != nil {
			return
		}
	}
}

func ask(ctx context.Context, c *bootstrap.Container, cfg *config.Config, session, q string) error {
	res, err := c.Pipeline.Execute(ctx, executor.Request{
		Question:  q,
		SessionID: session,
		Config:    cfg.Pipeline,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, red("Error: "+err.Error()))
		return err
	}

	fmt.Printf("%s %s\n", boldCyan("Assistant:"), res.Answer)
	fmt.Println(yellow(fmt.Sprintf("  documents: %d  iterations: %d  retrieval attempts: %d",
		len(res.Documents), res.Iterations, res.RetrievalCount)))
	for _, src := range res.Sources {
		fmt.Println(yellow("  source: " + src))
	}
	fmt.Println()
	return nil
}
