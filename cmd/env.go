package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pharmalink/procure-cli/internal/agent"
	"github.com/pharmalink/procure-cli/internal/analytics"
	"github.com/pharmalink/procure-cli/internal/catalog"
	"github.com/pharmalink/procure-cli/internal/model"
	"github.com/pharmalink/procure-cli/internal/oracle"
	"github.com/pharmalink/procure-cli/internal/reconcile"
	"github.com/pharmalink/procure-cli/internal/task"
	"github.com/pharmalink/procure-cli/internal/transcript"
	"github.com/pharmalink/procure-cli/pkg/anthropic"
	"github.com/pharmalink/procure-cli/pkg/elevenlabs"
)

// appEnv bundles the wired application components.
type appEnv struct {
	Catalog     *catalog.Store
	Tasks       *task.Store
	Transcripts *transcript.Store
	Engine      *reconcile.Engine
	Analytics   *analytics.Engine
	Runner      *agent.Runner
}

// noCaller stands in when no call service is configured; offline commands
// never reach it.
type noCaller struct{}

func (noCaller) PlaceCall(context.Context, model.AgentKind, model.Supplier) (*agent.CallResult, error) {
	return nil, eris.New("no call service configured")
}

// initEnv wires the application from config. withCalls controls whether the
// ElevenLabs caller is built; offline commands skip it.
func initEnv(withCalls bool) (*appEnv, error) {
	store := catalog.NewStore(cfg.Data.Dir)
	tasks := task.NewStore()
	transcripts := transcript.NewStore(cfg.Data.TranscriptsDir)
	engine := reconcile.NewEngine(store)

	client := anthropic.NewClient(cfg.Anthropic.Key)
	extractor := oracle.NewExtractor(client, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens, cfg.Anthropic.RequestsPerMinute)

	var caller agent.Caller = noCaller{}
	if withCalls {
		el := elevenlabs.NewClient(cfg.ElevenLabs.Key,
			elevenlabs.WithBaseURL(cfg.ElevenLabs.BaseURL),
			elevenlabs.WithPhoneNumberID(cfg.ElevenLabs.PhoneNumberID),
		)
		caller = agent.NewPhoneCaller(el, cfg.ElevenLabs.AgentIDs(),
			elevenlabs.WithPollInterval(time.Duration(cfg.Call.PollIntervalSecs)*time.Second),
			elevenlabs.WithPollTimeout(time.Duration(cfg.Call.TimeoutSecs)*time.Second),
		)
	}

	runner := agent.NewRunner(store, tasks, transcripts, caller, extractor, engine)

	return &appEnv{
		Catalog:     store,
		Tasks:       tasks,
		Transcripts: transcripts,
		Engine:      engine,
		Analytics:   analytics.NewEngine(store),
		Runner:      runner,
	}, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal output")
	}
	fmt.Println(string(data))
	return nil
}
