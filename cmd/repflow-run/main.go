// Command repflow-run executes one advanced technique interactively in the
// terminal: it drives the execution engine with real countdown timers, reads
// user actions from stdin, and journals the finished result for later upload.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/claude/repflow/internal/journal"
	"github.com/claude/repflow/internal/models"
	"github.com/claude/repflow/internal/suggest"
	"github.com/claude/repflow/internal/technique"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// terminalBell implements technique.Haptics with the terminal bell.
type terminalBell struct{}

func (terminalBell) Pulse() error {
	fmt.Print("\a")
	return nil
}

func main() {
	exercise := flag.String("exercise", "", "exercise name (required)")
	weight := flag.Float64("weight", 0, "initial working weight in kg (required)")
	configJSON := flag.String("technique", "", `technique config JSON, e.g. {"type":"drop_set","drop_set":{"drops":2,"drop_percentage":20}}`)
	configFile := flag.String("technique-file", "", "path to a technique config JSON file")
	suggestURL := flag.String("suggest", "", "recommendation service URL; asks it for a technique when none is given")
	lastReps := flag.Int("last-reps", 0, "reps achieved on the previous plain set (context for -suggest)")
	journalDir := flag.String("journal", "", "journal directory (defaults to ~/.repflow)")
	userID := flag.Int("user", 1, "user ID recorded with the result")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("repflow-run", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if *exercise == "" || *weight <= 0 || (*configJSON == "" && *configFile == "" && *suggestURL == "") {
		fmt.Fprintf(os.Stderr, "Usage: repflow-run -exercise <name> -weight <kg> -technique <JSON> [-journal dir]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var cfg technique.Config
	switch {
	case *configFile != "":
		raw, err := os.ReadFile(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reading technique file: %v\n", err)
			os.Exit(1)
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "invalid technique JSON: %v\n", err)
			os.Exit(1)
		}
	case *configJSON != "":
		if err := json.Unmarshal([]byte(*configJSON), &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "invalid technique JSON: %v\n", err)
			os.Exit(1)
		}
	default:
		client := suggest.NewClient(*suggestURL, 0, log)
		applied, err := client.Suggest(context.Background(), suggest.Request{
			ExerciseName: *exercise,
			LastWeight:   *weight,
			LastReps:     *lastReps,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "fetching suggestion: %v\n", err)
			os.Exit(1)
		}
		cfg = applied.Config
		if applied.Rationale != "" {
			fmt.Printf("suggested %s: %s\n", cfg.Type, applied.Rationale)
		}
	}

	dir := *journalDir
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "home directory: %v\n", err)
			os.Exit(1)
		}
		dir = filepath.Join(homeDir, ".repflow")
	}
	j, err := journal.Open(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening journal: %v\n", err)
		os.Exit(1)
	}
	defer j.Close()

	journaled := false
	eng, err := technique.NewEngine(cfg, *weight, technique.Options{
		Haptics: terminalBell{},
		Logger:  log,
		OnComplete: func(r technique.Result) {
			id, err := j.Append(models.ResultPayload{
				UserID:       *userID,
				ExerciseName: *exercise,
				PerformedAt:  time.Now().UTC(),
				Result:       r,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "journaling result: %v\n", err)
				return
			}
			journaled = true
			fmt.Printf("\nresult journaled (%s): %d total reps, completed fully: %v\n",
				id[:12], r.TotalReps, r.CompletedFully)
		},
		OnCancel: func() {
			fmt.Println("\ntechnique cancelled, nothing journaled")
		},
	})
	if err != nil {
		if errors.Is(err, technique.ErrNoSpecializedEngine) {
			printExpansion(cfg, *weight)
			return
		}
		fmt.Fprintf(os.Stderr, "cannot start technique: %v\n", err)
		os.Exit(1)
	}

	if err := eng.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "start: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s on %s at %.1f kg\n", cfg.Type, *exercise, technique.RoundHalf(*weight))
	fmt.Println("commands: <reps>, ok, skip, pause, resume, hold, weight <kg>, rpe <n>, add, status, done [notes], cancel")

	runLoop(eng)
	if !journaled {
		os.Exit(1)
	}
}

// printExpansion renders the flat virtual-set plan for techniques without a
// specialized engine.
func printExpansion(cfg technique.Config, weight float64) {
	sets, err := technique.Expand(cfg, weight)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot expand technique: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s has no specialized engine; planned sets:\n", cfg.Type)
	for i, s := range sets {
		line := fmt.Sprintf("  %2d. [%s] %.1f kg", i+1, s.Label, s.Weight)
		if s.Exercise != "" {
			line += " " + s.Exercise
		}
		if s.TargetReps > 0 {
			line += fmt.Sprintf(" x %d", s.TargetReps)
		}
		if s.HoldSeconds > 0 {
			line += fmt.Sprintf(" hold %ds", s.HoldSeconds)
		}
		if s.RestSeconds > 0 {
			line += fmt.Sprintf(" (rest %ds)", s.RestSeconds)
		}
		fmt.Println(line)
	}
}

func runLoop(eng *technique.Engine) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		printPrompt(eng.State())
		if !scanner.Scan() {
			eng.Cancel()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		cmd := ""
		if len(fields) > 0 {
			cmd = fields[0]
		}

		var err error
		switch {
		case cmd == "" || cmd == "ok":
			err = eng.Confirm()
		case cmd == "skip":
			err = eng.SkipRest()
		case cmd == "pause":
			eng.PauseTimer()
		case cmd == "resume":
			eng.ResumeTimer()
		case cmd == "hold":
			err = eng.StartHold()
		case cmd == "add":
			err = eng.AddSet()
		case cmd == "status":
			printStatus(eng.State())
		case cmd == "weight" && len(fields) == 2:
			var w float64
			if w, err = strconv.ParseFloat(fields[1], 64); err == nil {
				err = eng.SetWeight(w)
			}
		case cmd == "rpe" && len(fields) == 2:
			var v int
			if v, err = strconv.Atoi(fields[1]); err == nil {
				err = eng.SetRPE(v)
			}
		case cmd == "done":
			notes := strings.TrimSpace(strings.TrimPrefix(line, "done"))
			if _, err = eng.Finish(notes); err == nil {
				return
			}
		case cmd == "cancel":
			eng.Cancel()
			return
		default:
			var n int
			if n, err = strconv.Atoi(cmd); err == nil {
				err = eng.LogReps(n)
			} else {
				err = fmt.Errorf("unknown command %q", cmd)
			}
		}

		if err != nil {
			fmt.Printf("  ! %v\n", err)
		}
	}
}

func printPrompt(st technique.State) {
	switch st.Phase {
	case technique.PhaseWork:
		target := ""
		if st.TargetReps > 0 {
			target = fmt.Sprintf(" (target %d)", st.TargetReps)
		}
		hold := ""
		if st.HoldSeconds > 0 {
			hold = fmt.Sprintf(", 'hold' for %ds", st.HoldSeconds)
		}
		fmt.Printf("[%s %d/%d] %.1f kg%s%s > ",
			st.Label, st.Step+1, st.Steps, st.TargetWeight, target, hold)
	case technique.PhaseRest:
		fmt.Printf("[rest %ds remaining] > ", st.RestRemaining)
	case technique.PhaseHold:
		fmt.Printf("[holding, %ds remaining] > ", st.RestRemaining)
	case technique.PhaseComplete:
		fmt.Printf("[complete, %d sets logged] 'add', 'rpe', or 'done' > ", len(st.LoggedReps))
	default:
		fmt.Printf("[%s] > ", st.Phase)
	}
}

func printStatus(st technique.State) {
	data, err := json.MarshalIndent(st, "  ", "  ")
	if err != nil {
		fmt.Printf("  ! %v\n", err)
		return
	}
	fmt.Println("  " + string(data))
}
