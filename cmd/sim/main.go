package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/big"

	"main/internal/bus"
	"main/internal/engine"
	"main/internal/model"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/recorder"
	"main/internal/token"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
)

func main() {
	configPath := flag.String("config", "testdata/config.json", "Path to JSON protocol config")
	scenarioPath := flag.String("scenario", "testdata/scenario.json", "Path to JSON scenario")
	journalPath := flag.String("journal", "testdata/journal/events.jsonl", "Protocol event journal output")
	pgDSN := flag.String("pg-dsn", "", "PostgreSQL DSN for event persistence (empty=disable)")
	pyroscopeAddr := flag.String("pyroscope", "", "Pyroscope server address (empty=disable)")
	haltOnError := flag.Bool("halt-on-error", false, "Stop on the first failed step")
	hold := flag.Bool("hold", false, "Keep the process alive after the run until interrupted")
	flag.Parse()

	if *pyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "synth/sim",
			ServerAddress:   *pyroscopeAddr,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	loaded, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	scenario, err := ops.LoadScenario(*scenarioPath)
	if err != nil {
		log.Fatalf("scenario load failed: %v", err)
	}

	journal, err := recorder.OpenJournal(*journalPath)
	if err != nil {
		log.Fatalf("journal open failed: %v", err)
	}

	var store *recorder.Store
	if *pgDSN != "" {
		store, err = recorder.OpenStore(*pgDSN)
		if err != nil {
			log.Fatalf("event store open failed: %v", err)
		}
	}

	metrics := obs.NewMetrics()
	events := bus.NewQueue(1024)
	bank := token.NewBank()

	eng, err := engine.New(engine.Config{
		Assets:              loaded.Assets,
		Feeds:               loaded.Feeds,
		Health:              loaded.Health,
		LiquidationBonusPct: loaded.LiquidationBonusPct,
		Minter:              bank,
		Vault:               bank,
		Events:              events,
		Metrics:             metrics,
	})
	if err != nil {
		log.Fatalf("engine init failed: %v", err)
	}
	liquidator := engine.NewLiquidator(eng)

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		events.Run(context.Background(), func(ev model.Event) {
			if err := journal.Append(ev); err != nil {
				logs.Errorf("journal append, err: %+v", err)
			}
			if store != nil {
				if err := store.Save(ev); err != nil {
					logs.Errorf("event store save, err: %+v", err)
				}
			}
		})
	}()

	runner := &scenarioRunner{
		loaded:     loaded,
		bank:       bank,
		eng:        eng,
		liquidator: liquidator,
	}
steps:
	for i, step := range scenario.Steps {
		select {
		case <-sys.Shutdown():
			logs.Info("interrupted, stopping scenario")
			break steps
		default:
		}

		if err := runner.run(step); err != nil {
			logs.Errorf("step %d (%s) failed, err: %+v", i, step.Op, err)
			if *haltOnError {
				break
			}
			continue
		}
		logs.Infof("step %d (%s) ok", i, step.Op)
	}

	events.Close()
	<-consumerDone
	if err := journal.Close(); err != nil {
		logs.Errorf("journal close, err: %+v", err)
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logs.Errorf("event store close, err: %+v", err)
		}
	}

	report(eng, metrics)

	if *hold {
		logs.Info("holding for profiler, interrupt to exit")
		<-sys.Shutdown()
	}
}

type scenarioRunner struct {
	loaded     ops.Loaded
	bank       *token.Bank
	eng        *engine.Engine
	liquidator *engine.Liquidator
}

func (r *scenarioRunner) run(step ops.ScenarioStep) error {
	switch step.Op {
	case "fund":
		amount, err := model.ParseWad(fmt.Sprint(step.Amount))
		if err != nil {
			return err
		}
		r.bank.Fund(model.AccountID(step.Account), model.AssetID(step.Asset), amount)
		return nil

	case "deposit":
		amount, err := model.ParseWad(fmt.Sprint(step.Amount))
		if err != nil {
			return err
		}
		return r.eng.Deposit(model.AccountID(step.Account), model.AssetID(step.Asset), amount)

	case "mint":
		debt, err := model.ParseWad(fmt.Sprint(step.Debt))
		if err != nil {
			return err
		}
		return r.eng.Mint(model.AccountID(step.Account), debt)

	case "depositAndMint":
		amount, debt, err := r.amounts(step)
		if err != nil {
			return err
		}
		return r.eng.DepositAndMint(model.AccountID(step.Account), model.AssetID(step.Asset), amount, debt)

	case "redeemAndBurn":
		amount, debt, err := r.amounts(step)
		if err != nil {
			return err
		}
		return r.eng.RedeemAndBurn(model.AccountID(step.Account), model.AssetID(step.Asset), amount, debt)

	case "liquidate":
		debt, err := model.ParseWad(fmt.Sprint(step.Debt))
		if err != nil {
			return err
		}
		return r.liquidator.Liquidate(
			model.AccountID(step.Account),
			model.AssetID(step.Asset),
			model.AccountID(step.Target),
			debt,
		)

	case "price":
		return r.loaded.SetPrice(step.Feed, fmt.Sprint(step.Price))

	default:
		return fmt.Errorf("unknown op: %s", step.Op)
	}
}

func (r *scenarioRunner) amounts(step ops.ScenarioStep) (*big.Int, *big.Int, error) {
	amount, err := model.ParseWad(fmt.Sprint(step.Amount))
	if err != nil {
		return nil, nil, err
	}
	debt, err := model.ParseWad(fmt.Sprint(step.Debt))
	if err != nil {
		return nil, nil, err
	}
	return amount, debt, nil
}

func report(eng *engine.Engine, metrics *obs.Metrics) {
	totalValue, err := eng.TotalCollateralValue()
	if err != nil {
		logs.Errorf("total collateral value, err: %+v", err)
		return
	}
	solvent, err := eng.Solvent()
	if err != nil {
		logs.Errorf("solvency check, err: %+v", err)
		return
	}

	logs.Infof("total collateral value: %s USD", model.FormatWad(totalValue))
	logs.Infof("total debt issued: %s", model.FormatWad(eng.TotalDebt()))
	logs.Infof("solvent: %v", solvent)

	snap := metrics.Snapshot()
	for kind, count := range snap.EventCounts {
		logs.Infof("events %s: %d", kind, count)
	}
	logs.Infof("rollbacks: %d, queue drops: %d", snap.Rollbacks, snap.QueueDrops)
	logs.Infof("rejections: invalid=%d unsupported=%d health=%d transfer=%d mint=%d reentrant=%d liquidation=%d oracle=%d other=%d",
		snap.InvalidAmount, snap.UnsupportedAsset, snap.HealthBroken, snap.TransferFailed,
		snap.MintFailed, snap.ReentrantCalls, snap.LiquidationGuard, snap.OracleFaults, snap.OtherFailures)
}
