// Command arbdash-import ingests one month of a spreadsheet and prints a JSON
// summary. With -file it parses a local CSV export instead of fetching, and
// with -enqueue it only asks a running server to sync through AMQP.
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
	_ "time/tzdata"

	"arbdash/internal/adapters"
	"arbdash/internal/amqp"
	"arbdash/internal/backend"
	"arbdash/internal/cli"
	"arbdash/internal/config"
	"arbdash/internal/core"
	"arbdash/internal/ingest"
	"arbdash/internal/log"
)

type options struct {
	url     string
	file    string
	year    int
	month   int
	enqueue bool
	records bool
}

// summary is what the command prints on success.
type summary struct {
	Period     string                  `json:"period"`
	SheetID    string                  `json:"sheetId,omitempty"`
	TabID      string                  `json:"tabId,omitempty"`
	DataLines  int                     `json:"dataLines"`
	Skipped    int                     `json:"skipped"`
	Missing    []string                `json:"missingColumns,omitempty"`
	Stats      core.ImportStats        `json:"stats"`
	TopSports  []core.GroupProfit      `json:"topSports"`
	TopHouses  []core.GroupProfit      `json:"topHouses"`
	Operations []core.BettingOperation `json:"operations,omitempty"`
}

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel)

	if err := run(context.Background(), os.Args[1:], cfg, logger, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		body := map[string]string{"error": err.Error()}
		if kind := ingest.KindOf(err); kind != "" {
			body["error"] = ingest.UserMessage(err)
			body["kind"] = string(kind)
		}
		_ = json.NewEncoder(os.Stderr).Encode(body)
		os.Exit(1)
	}
}

func parseFlags(args []string, now time.Time) (options, error) {
	fs := flag.NewFlagSet("arbdash-import", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var o options
	fs.StringVar(&o.url, "url", "", "spreadsheet url (default: the url saved in the data backend)")
	fs.StringVar(&o.file, "file", "", "parse a local CSV export instead of fetching")
	fs.IntVar(&o.year, "year", now.Year(), "year of the month to import")
	fs.IntVar(&o.month, "month", int(now.Month()), "month to import, 1-12")
	fs.BoolVar(&o.enqueue, "enqueue", false, "publish a sync request to AMQP instead of importing")
	fs.BoolVar(&o.records, "records", false, "include the parsed operations in the output")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if o.file != "" && o.enqueue {
		return options{}, errors.New("-file and -enqueue are mutually exclusive")
	}
	return o, nil
}

func run(ctx context.Context, args []string, cfg *config.Config, logger *log.Logger, out io.Writer) error {
	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("timezone %q: %w", cfg.Timezone, err)
	}
	o, err := parseFlags(args, time.Now().In(loc))
	if err != nil {
		return err
	}
	period := core.Period{Year: o.year, Month: time.Month(o.month)}
	if err := period.Validate(); err != nil {
		return err
	}
	logger = logger.WithComponent(log.ComponentImport)

	if o.enqueue {
		return enqueue(ctx, cfg, logger, period, out)
	}

	opts := ingest.Options{
		UserID:       cfg.DefaultUserID,
		Location:     loc,
		StrictHeader: cfg.StrictHeader,
		Logger:       logger,
	}

	var batch *ingest.Batch
	if o.file != "" {
		text, err := os.ReadFile(o.file)
		if err != nil {
			return err
		}
		batch, err = ingest.NewOrchestrator(nil, nil, opts).ParseCSV(ctx, string(text), time.Now())
		if err != nil {
			return err
		}
		batch.Period = period
	} else {
		backendCfg, err := backend.FromAppConfig(cfg)
		if err != nil {
			return err
		}
		res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
		if err != nil {
			return err
		}
		if res.Cleanup != nil {
			defer res.Cleanup()
		}
		configs := adapters.NewConfigRepository(res.Store)
		sheetURL := o.url
		if sheetURL == "" {
			settings, err := configs.Load(ctx)
			if err != nil {
				return err
			}
			sheetURL = settings.SheetURL
		}
		if sheetURL == "" {
			return errors.New("no spreadsheet url: pass -url or save one in the dashboard")
		}
		batch, err = ingest.NewOrchestrator(res.Fetcher, configs, opts).Ingest(ctx, sheetURL, period)
		if err != nil {
			return err
		}
	}

	return writeSummary(out, batch, o.records)
}

func writeSummary(out io.Writer, batch *ingest.Batch, withRecords bool) error {
	s := summary{
		Period:    batch.Period.String(),
		SheetID:   batch.SheetID,
		TabID:     batch.TabID,
		DataLines: batch.DataLines,
		Skipped:   batch.Skipped,
		Missing:   batch.Missing,
		Stats:     core.Stats(batch.Records),
		TopSports: core.Top(core.ProfitBySport(batch.Records), 5),
		TopHouses: core.Top(core.ProfitByHouse(batch.Records), 5),
	}
	if withRecords {
		s.Operations = batch.Records
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func enqueue(ctx context.Context, cfg *config.Config, logger *log.Logger, period core.Period, out io.Writer) error {
	if cfg.AMQPURL == "" {
		return errors.New("-enqueue needs AMQP_URL")
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	msg := amqp.NewSyncRequested(period)
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.PublishSyncRequested(ctx, msg); err != nil {
		return fmt.Errorf("publish sync request: %w", err)
	}
	logger.Info("Sync request queued", log.FieldPeriod, period.String())
	return json.NewEncoder(out).Encode(map[string]any{"queued": true, "period": period.String()})
}
