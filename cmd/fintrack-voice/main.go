// Command fintrack-voice turns typed or piped transcripts into entry drafts.
//
// Each input line is one utterance. The resulting draft is printed as JSON; with
// -commit, complete drafts are saved to the configured store.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/cli"
	"fintrack/internal/form"
	"fintrack/internal/log"
	"fintrack/internal/store"
	"fintrack/internal/voice"
)

type output struct {
	Line    int        `json:"line"`
	Parsed  bool       `json:"parsed"`
	Draft   form.Draft `json:"draft"`
	EntryID string     `json:"entryId,omitempty"`
	Error   string     `json:"error,omitempty"`
}

func main() {
	commit := flag.Bool("commit", false, "save complete drafts to the configured store")
	flag.Parse()

	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, os.Stderr)

	ctx, stop := cli.SignalContext()
	defer stop()

	var entries *store.Store
	if *commit {
		st, cleanup, err := cli.OpenStore(ctx, cfg, logger)
		if err != nil {
			logger.Error("Failed to open store", log.FieldError, err.Error())
			os.Exit(1)
		}
		defer func() {
			if err := cleanup(); err != nil {
				logger.Warn("Cleanup failed", log.FieldError, err.Error())
			}
		}()
		entries = st
	}

	session := voice.NewSession(voice.NewLineRecognizer(os.Stdin),
		voice.WithSettings(voice.Settings{Locale: cfg.VoiceLocale}),
		voice.WithLogger(logger.WithComponent(log.ComponentVoice)),
	)
	if err := run(ctx, session, entries, json.NewEncoder(os.Stdout)); err != nil {
		logger.Error("Voice input stopped", log.FieldError, err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, session *voice.Session, entries *store.Store, enc *json.Encoder) error {
	for line := 1; ; line++ {
		candidate, ok, err := session.Capture(ctx)
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, context.Canceled):
			return nil
		case errors.Is(err, voice.ErrNoResult):
			continue
		case err != nil:
			return err
		}

		out := output{Line: line, Parsed: ok, Draft: form.NewDraft()}
		if ok {
			out.Draft.ApplyVoice(candidate)
		}
		if entries != nil && ok {
			out.EntryID, out.Error = save(ctx, entries, out.Draft)
		}
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("write draft: %w", err)
		}
	}
}

func save(ctx context.Context, entries *store.Store, d form.Draft) (string, string) {
	e, err := d.Submit(time.Now(), uuid.NewString)
	if err != nil {
		return "", err.Error()
	}
	if err := entries.Add(ctx, e); err != nil {
		return "", err.Error()
	}
	return e.ID, ""
}
