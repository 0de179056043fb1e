package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/healthpay/claimcheck/internal/decision"
	"github.com/healthpay/claimcheck/internal/pipeline"
	"github.com/healthpay/claimcheck/internal/store"
	"github.com/healthpay/claimcheck/internal/validator"
)

// pipelineEnv bundles the wired pipeline with its store for cleanup.
type pipelineEnv struct {
	Pipeline *pipeline.Pipeline
	Store    store.Store
}

func (e *pipelineEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initPipeline wires validator, decision engine, and optionally the store.
// validatorCfgPath, when set, loads thresholds from a standalone YAML file
// instead of the main config.
func initPipeline(ctx context.Context, withStore bool, validatorCfgPath string) (*pipelineEnv, error) {
	vCfg := cfg.Validator
	if validatorCfgPath != "" {
		loaded, err := validator.LoadConfig(validatorCfgPath)
		if err != nil {
			return nil, err
		}
		vCfg = loaded
	}

	v, err := validator.New(vCfg)
	if err != nil {
		return nil, err
	}

	e, err := decision.New(cfg.Decision)
	if err != nil {
		return nil, err
	}

	var st store.Store
	if withStore {
		st, err = store.Open(ctx, cfg.Store)
		if err != nil {
			return nil, eris.Wrap(err, "open store")
		}
	}

	return &pipelineEnv{
		Pipeline: pipeline.New(v, e, st),
		Store:    st,
	}, nil
}

// printJSON writes v to stdout, or to path when set.
func printJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal output")
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return eris.Wrapf(os.WriteFile(path, data, 0o644), "write %s", path)
}
